package tracker

import "assetwatch/internal/assetbus"

var _ assetbus.Handler = (*Tracker)(nil)

// OnCompilationStarted records that the asset processor began compiling path.
func (t *Tracker) OnCompilationStarted(path string) {
	t.log.Debug().Str("event", "AssetCompilationStarted").Str("path", path).Send()
	key := NormalizePath(path)
	t.mu.Lock()
	t.record(key).Started++
	t.mu.Unlock()
}

// OnCompilationSucceeded records a successful compilation of path.
func (t *Tracker) OnCompilationSucceeded(path string) {
	t.log.Debug().Str("event", "AssetCompilationSuccess").Str("path", path).Send()
	key := NormalizePath(path)
	t.mu.Lock()
	t.record(key).Succeeded++
	t.mu.Unlock()
}

// OnCompilationFailed records a failed compilation of path. Failures count
// towards expectations the same as successes.
func (t *Tracker) OnCompilationFailed(path string) {
	t.log.Debug().Str("event", "AssetCompilationFailed").Str("path", path).Send()
	key := NormalizePath(path)
	t.mu.Lock()
	t.record(key).Failed++
	t.mu.Unlock()
}
