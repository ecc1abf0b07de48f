package tracker

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"assetwatch/internal/assetbus"
)

// Tracker counts asset compilation events per normalized path and compares
// them against caller-declared expectations.
//
// All state, including the subscription flag, is guarded by one mutex. The
// source must not hold locks needed by Disconnect while it invokes handlers
// (assetbus.Bus satisfies this).
type Tracker struct {
	mu       sync.Mutex
	source   assetbus.Source
	log      zerolog.Logger
	tracking bool
	assets   map[string]*Record
}

// Config holds Tracker dependencies. Zero values select defaults.
type Config struct {
	// Source delivers compilation events while tracking. Nil means events
	// only arrive through direct handler calls.
	Source assetbus.Source
	// Logger receives per-event debug traces. Nil disables logging.
	Logger *zerolog.Logger
}

// New constructs an idle Tracker subscribed to nothing until StartTracking.
func New(src assetbus.Source) *Tracker {
	return NewWithConfig(Config{Source: src})
}

// NewWithConfig constructs a Tracker from cfg.
func NewWithConfig(cfg Config) *Tracker {
	t := &Tracker{
		source: cfg.Source,
		log:    zerolog.Nop(),
		assets: make(map[string]*Record),
	}
	if t.source == nil {
		t.source = assetbus.NopSource{}
	}
	if cfg.Logger != nil {
		t.log = cfg.Logger.With().Str("component", "automation").Logger()
	}
	return t
}

// StartTracking opens a new observation window. The table is always cleared,
// even when already tracking; the source is only connected once.
func (t *Tracker) StartTracking() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tracking {
		t.source.Connect(t)
		t.tracking = true
	}
	clear(t.assets)
	t.log.Info().Msg("asset tracking started")
}

// StopTracking disconnects from the source and clears the table. It is a no-op
// when not tracking. An event the source was already delivering may still be
// recorded afterwards, with no expectation attached.
func (t *Tracker) StopTracking() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tracking {
		return
	}
	t.source.Disconnect(t)
	t.tracking = false
	clear(t.assets)
	t.log.Info().Msg("asset tracking stopped")
}

// Close ends tracking so the source no longer references the tracker.
// It is safe to call more than once.
func (t *Tracker) Close() error {
	t.StopTracking()
	return nil
}

// Tracking reports whether an observation window is open.
func (t *Tracker) Tracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}

// ExpectAsset adds count to the number of compilations expected for path.
// Expectations declared before StartTracking are discarded by it.
func (t *Tracker) ExpectAsset(path string, count uint32) {
	key := NormalizePath(path)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(key).Expected += uint64(count)
}

// DidExpectedAssetsFinish reports whether every key has at least as many
// finished (succeeded or failed) compilations as expected. An empty table
// reports true.
func (t *Tracker) DidExpectedAssetsFinish() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.assets {
		if r.Outstanding() {
			return false
		}
	}
	return true
}

// Outstanding returns the sorted keys that have not finished yet.
func (t *Tracker) Outstanding() []string {
	t.mu.Lock()
	var keys []string
	for k, r := range t.assets {
		if r.Outstanding() {
			keys = append(keys, k)
		}
	}
	t.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the current table.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	s := Snapshot{Tracking: t.tracking, Assets: make([]AssetStatus, 0, len(t.assets))}
	for k, r := range t.assets {
		s.Assets = append(s.Assets, AssetStatus{Key: k, Record: *r})
	}
	t.mu.Unlock()
	sort.Slice(s.Assets, func(i, j int) bool { return s.Assets[i].Key < s.Assets[j].Key })
	return s
}

// record returns the entry for key, creating it. Callers hold t.mu.
func (t *Tracker) record(key string) *Record {
	r := t.assets[key]
	if r == nil {
		r = &Record{}
		t.assets[key] = r
	}
	return r
}
