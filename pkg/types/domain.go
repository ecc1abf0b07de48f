package types

// AssetEvent is the wire form of one asset compilation notification, as sent
// to POST /events, over /events/ws, or by an upstream asset processor feed.
type AssetEvent struct {
	// Event type: started, succeeded (or success), failed (or failure).
	// example: succeeded
	Type string `json:"type" example:"succeeded"`
	// Source asset path as reported by the asset processor.
	// example: Materials/Brick.material
	Path string `json:"path" example:"Materials/Brick.material"`
}
