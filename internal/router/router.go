package router

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-spots/internal/auth"
	"github.com/ovaphlow/pitchfork/service-spots/internal/config"
	"github.com/ovaphlow/pitchfork/service-spots/internal/spot"
	"github.com/ovaphlow/pitchfork/service-spots/internal/user"
	"github.com/ovaphlow/pitchfork/service-spots/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware tags every request with an X-Request-ID and logs it once it completes.
// 5xx responses are logged at warn level, everything else at debug.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = utilities.NewRequestID()
			}
			w.Header().Set("X-Request-ID", reqID)

			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			log := logger.Debugw
			if status >= http.StatusInternalServerError {
				log = logger.Warnw
			}
			log("http request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// RecoverMiddleware turns a handler panic into a 500.
// A response that has already started is left as is.
func RecoverMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lrw := &loggingResponseWriter{ResponseWriter: w}
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Errorw("panic serving request", "method", r.Method, "path", r.URL.Path, "panic", rec, "status_sent", lrw.status)
					if lrw.status == 0 {
						utilities.WriteInternalError(w)
					}
				}
			}()
			next.ServeHTTP(lrw, r)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Clickjacking protection
			w.Header().Set("X-Frame-Options", "DENY")

			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}

			// HSTS only over TLS, 30 days
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware allows the configured origins with credentials, any method and any header.
// "*" echoes the request origin, since browsers reject a wildcard origin on credentialed responses.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if slices.Contains(origins, "*") {
		opts.AllowedOrigins = nil
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	}
	return cors.Handler(opts)
}

// Deps holds everything the route table mounts.
type Deps struct {
	Users       *user.Handler
	Spots       *spot.Handler
	Login       *auth.Handler
	Tokens      *auth.TokenManager
	Resolver    auth.UserResolver
	Ping        func(ctx context.Context) error
	CORSOrigins []string
}

// RegisterRoutes builds the services on db and mounts the full API.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, cfg *config.Config) (http.Handler, error) {
	tokens, err := auth.NewTokenManager(cfg.SecretKey, cfg.Algorithm, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	users := user.NewUserService(db, auth.BcryptHasher{Cost: 12})
	spots := spot.NewSpotService(db)
	return Mount(logger, Deps{
		Users:       user.NewHandler(users, logger),
		Spots:       spot.NewHandler(spots, logger),
		Login:       auth.NewHandler(users, tokens, logger),
		Tokens:      tokens,
		Resolver:    users,
		Ping:        db.PingContext,
		CORSOrigins: cfg.CORSOrigins,
	}), nil
}

// Mount wires the route table onto a http.ServeMux and wraps it with the middleware chain.
func Mount(logger *zap.SugaredLogger, d Deps) http.Handler {
	mux := http.NewServeMux()
	protected := auth.RequireUser(d.Tokens, d.Resolver, logger)
	guard := func(h http.HandlerFunc) http.Handler { return protected(h) }

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteJSON(w, http.StatusOK, map[string]string{"info": "App is working"})
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.Ping(ctx); err != nil {
			logger.Warnw("health check failed", "err", err)
			utilities.WriteError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /login", d.Login.Login)

	// users
	mux.HandleFunc("POST /users/{$}", d.Users.Create)
	mux.HandleFunc("GET /users/{$}", d.Users.List)
	mux.Handle("GET /users/spots", guard(d.Users.MySpots))
	mux.HandleFunc("GET /users/{id}", d.Users.Get)
	mux.HandleFunc("PATCH /users/{id}", d.Users.Update)
	mux.HandleFunc("DELETE /users/{id}", d.Users.Delete)
	mux.Handle("POST /users/add_spot/{id}", guard(d.Users.AddSpot))

	// spots
	mux.Handle("GET /spots/{$}", guard(d.Spots.List))
	mux.Handle("POST /spots/{$}", guard(d.Spots.Create))
	mux.Handle("GET /spots/{id}", guard(d.Spots.Get))
	mux.Handle("GET /spots/{id}/users", guard(d.Spots.Users))
	mux.Handle("PATCH /spots/{id}", guard(d.Spots.Update))
	mux.Handle("DELETE /spots/{id}", guard(d.Spots.Delete))

	// outermost first: logging, recover, security headers, CORS
	var h http.Handler = mux
	h = CORSMiddleware(d.CORSOrigins)(h)
	h = SecurityHeadersMiddleware()(h)
	h = RecoverMiddleware(logger)(h)
	h = LoggingMiddleware(logger)(h)
	return h
}
