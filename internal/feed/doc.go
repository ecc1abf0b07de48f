// Package feed carries asset compilation events from an asset processor onto
// an assetbus.Publisher. Events travel as JSON text messages (types.AssetEvent)
// over WebSocket connections, either dialed by this process (Client, Follow)
// or accepted by the HTTP API (Pump).
package feed
