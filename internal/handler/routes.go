package handler

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Routes registers every endpoint and wraps the mux in the middleware chain:
// request id, recover, request log, security headers, CORS, tracing, body limit.
// A nil limiter disables rate limiting; an empty staticDir serves the JSON
// banner at / instead of the site.
func Routes(h *Handler, contacts *ContactHandler, limiter *RateLimiter, staticDir string) http.Handler {
	mux := http.NewServeMux()

	submit := http.Handler(http.HandlerFunc(contacts.Submit))
	if limiter != nil {
		submit = limiter.Middleware(submit)
	}
	mux.Handle("POST /api/contacts", submit)
	mux.HandleFunc("GET /api/contacts", contacts.List)
	mux.HandleFunc("GET /api/contacts/{id}", contacts.Get)

	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/debug", h.Debug)
	mux.HandleFunc("GET /api/debug/database", h.DebugDatabase)
	mux.HandleFunc("GET /api/debug-database", h.DebugDatabase)

	if staticDir != "" {
		mux.Handle("GET /", SPA(staticDir))
	} else {
		mux.HandleFunc("GET /", h.Root)
	}

	traced := otelhttp.NewHandler(BodyLimit(mux), "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return RequestID(Recover(RequestLogger(SecurityHeaders(h.CORS(traced)))))
}
