package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Aktiar0403/ShukkuList1.2/internal/handler"
	"github.com/Aktiar0403/ShukkuList1.2/internal/ratelimit"
)

// RouterOptions configures the parts of the router that come from config.
type RouterOptions struct {
	// AllowedOrigins defaults to any origin when empty.
	AllowedOrigins []string
	// StaticDir, when set, is served for every path the API does not claim.
	StaticDir string
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(h *handler.Handler, limiter *ratelimit.Limiter, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.MethodNotAllowed(handler.MethodNotAllowed)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/fetchMetadata", func(r chi.Router) {
			r.Use(corsFor(origins, []string{http.MethodGet, http.MethodOptions}, []string{"Content-Type"}))
			r.Use(ratelimit.Middleware(limiter, ratelimit.Metadata))
			r.MethodNotAllowed(handler.MethodNotAllowed)
			r.Options("/", preflightOK)
			r.Get("/", h.FetchMetadata)
		})
		r.Route("/sendNotification", func(r chi.Router) {
			r.Use(corsFor(origins, []string{http.MethodPost, http.MethodOptions}, []string{"Content-Type", "Authorization"}))
			r.Use(ratelimit.Middleware(limiter, ratelimit.Notification))
			r.MethodNotAllowed(handler.MethodNotAllowed)
			r.Options("/", preflightOK)
			r.Post("/", h.SendNotification)
		})
	})

	if opts.StaticDir != "" {
		r.NotFound(staticHandler(opts.StaticDir).ServeHTTP)
	}

	return otelhttp.NewHandler(r, "shukku-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func corsFor(origins, methods, headers []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       methods,
		AllowedHeaders:       headers,
		ExposedHeaders:       []string{requestIDHeader, "Retry-After"},
		MaxAge:               86400,
		OptionsSuccessStatus: http.StatusOK,
	})
}

// preflightOK answers OPTIONS requests that are not CORS preflights.
func preflightOK(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Service worker scripts must never be cached or clients keep stale workers.
var noCacheFiles = map[string]bool{
	"sw.js":                    true,
	"firebase-messaging-sw.js": true,
}

// staticHandler serves the web client from dir. Unknown paths fall back to
// index.html so client-side routes resolve.
func staticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if noCacheFiles[strings.TrimPrefix(name, "/")] {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		if name != "/" {
			if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err != nil {
				r = r.Clone(r.Context())
				r.URL.Path = "/"
			}
		}
		fs.ServeHTTP(w, r)
	})
}
