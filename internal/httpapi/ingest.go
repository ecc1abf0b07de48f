package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"assetwatch/internal/assetbus"
	"assetwatch/internal/feed"
	"assetwatch/pkg/types"
)

const (
	sourceHTTP = "http"
	sourceWS   = "ws"
)

// IngestHooks returns feed hooks that count events in the ingestion metrics
// under the given source label (e.g. "feed" for an upstream stream).
func IngestHooks(source string, log *zerolog.Logger) feed.Hooks {
	return feed.Hooks{
		Logger:   log,
		Accepted: func(e assetbus.Event) { observeIngest(e.Kind.String(), source) },
		Rejected: func(error) { observeReject(source) },
	}
}

func postEventHandler(pub assetbus.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var wire types.AssetEvent
		if !decodeJSONBody(w, r, &wire) {
			observeReject(sourceHTTP)
			return
		}
		e, err := feed.FromWire(wire)
		if err != nil {
			observeReject(sourceHTTP)
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if debugEnabled(r) {
			zlog.Debug().Str("kind", e.Kind.String()).Str("path", e.Path).Msg("event")
		}
		pub.Publish(e)
		observeIngest(e.Kind.String(), sourceHTTP)
		w.WriteHeader(http.StatusAccepted)
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: checkOrigin}

// checkOrigin accepts same-origin requests, requests without an Origin header
// (non-browser clients such as asset processors), and configured CORS origins.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if corsEnabled {
		for _, o := range corsAllowedOrigins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// streamClosed is invoked when a WebSocket ingest stream ends; tests stub it.
var streamClosed = func(events int, err error) {}

func wsEventHandler(pub assetbus.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Hijacked streams outlive http.Server.Close, so globals are read once.
		log, closed := zlog, streamClosed
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied with an HTTP error.
			observeReject(sourceWS)
			return
		}
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()

		var l *zerolog.Logger
		if log != nil {
			sub := log.With().Str("remote", r.RemoteAddr).Logger()
			l = &sub
		}
		n, err := feed.Pump(ctx, conn, pub, IngestHooks(sourceWS, l))
		if log != nil {
			z := log.Info().Int("events", n).AnErr("reason", err)
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("event stream closed")
		}
		closed(n, err)
	}
}
