package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assetwatch/internal/assetbus"
	"assetwatch/internal/tracker"
	"assetwatch/pkg/types"
)

// Service defines the tracker methods required by the HTTP API layer.
// *tracker.Tracker implements it.
type Service interface {
	StartTracking()
	StopTracking()
	ExpectAsset(path string, count uint32)
	Outstanding() []string
	Snapshot() tracker.Snapshot
}

// NewMux builds the automation API. Events posted to /events or streamed to
// /events/ws are published on pub; svc only sees them if it is subscribed.
func NewMux(svc Service, pub assetbus.Publisher) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(requestLogger)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Group(func(r chi.Router) {
		// Compression for JSON endpoints; kept off the WebSocket route.
		r.Use(middleware.Compress(5))

		r.Post("/tracking/start", func(w http.ResponseWriter, r *http.Request) {
			svc.StartTracking()
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/tracking/stop", func(w http.ResponseWriter, r *http.Request) {
			svc.StopTracking()
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/expect", func(w http.ResponseWriter, r *http.Request) {
			var req types.ExpectRequest
			if !decodeJSONBody(w, r, &req) {
				return
			}
			count := uint32(1)
			if req.Count != nil {
				count = *req.Count
			}
			svc.ExpectAsset(req.Path, count)
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/finished", func(w http.ResponseWriter, r *http.Request) {
			// One read of the table so finished and outstanding always agree.
			out := append([]string{}, svc.Outstanding()...)
			writeJSON(w, types.FinishedResponse{Finished: len(out) == 0, Outstanding: out})
		})

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, statusResponse(svc.Snapshot()))
		})

		r.Post("/events", postEventHandler(pub))
	})

	r.Get("/events/ws", wsEventHandler(pub))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// decodeJSONBody enforces a JSON content type and the body size limit, then
// decodes into v. On failure it writes the error response and returns false.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Oversized bodies also land here; report 400 without size details.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func statusResponse(s tracker.Snapshot) types.StatusResponse {
	resp := types.StatusResponse{Tracking: s.Tracking, Assets: make([]types.AssetStatus, 0, len(s.Assets))}
	for _, a := range s.Assets {
		resp.Assets = append(resp.Assets, types.AssetStatus{
			Key:         a.Key,
			Expected:    a.Expected,
			Started:     a.Started,
			Succeeded:   a.Succeeded,
			Failed:      a.Failed,
			Outstanding: a.Outstanding(),
		})
	}
	return resp
}
