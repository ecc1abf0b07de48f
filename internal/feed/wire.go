package feed

import (
	"encoding/json"
	"fmt"

	"assetwatch/internal/assetbus"
	"assetwatch/pkg/types"
)

// DecodeEvent parses one JSON-encoded types.AssetEvent.
func DecodeEvent(b []byte) (assetbus.Event, error) {
	var w types.AssetEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return assetbus.Event{}, fmt.Errorf("decode asset event: %w", err)
	}
	return FromWire(w)
}

// FromWire validates the event type of w.
func FromWire(w types.AssetEvent) (assetbus.Event, error) {
	k, err := assetbus.ParseKind(w.Type)
	if err != nil {
		return assetbus.Event{}, err
	}
	return assetbus.Event{Kind: k, Path: w.Path}, nil
}

// ToWire is the inverse of FromWire.
func ToWire(e assetbus.Event) types.AssetEvent {
	return types.AssetEvent{Type: e.Kind.String(), Path: e.Path}
}
