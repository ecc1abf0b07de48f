// Package tracker records asset compilation events and answers whether every
// asset an automation script declared as expected has finished compiling.
//
//   - tracker.go: Tracker type, tracking window (StartTracking/StopTracking),
//     expectations and the completion query.
//   - events.go: assetbus.Handler implementation fed by the asset processor.
//   - normalize.go: canonical asset keys.
//   - types.go: Record and Snapshot projections.
//
// The tracker never reports errors. Callers that need to block until assets
// finish poll DidExpectedAssetsFinish with their own deadline (see package waiter).
package tracker
