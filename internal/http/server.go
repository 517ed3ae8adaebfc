package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
)

const requestTimeout = 10 * time.Second

// Options configures the server beyond its services.
type Options struct {
	AllowedOrigins []string
	RateLimit      int // write requests per client per minute
	Logger         *log.Logger
}

type Server struct {
	http.Server
	expenses *services.ExpenseService
	reports  *services.ReportService
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, expenses *services.ExpenseService, reports *services.ReportService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		expenses: expenses,
		reports:  reports,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		now:      time.Now,
	}
	s.Handler = s.routes(logger, opts)
	return s
}

func (s *Server) routes(logger *log.Logger, opts Options) http.Handler {
	clientIP := security.NewClientIP()
	s.tracer = trace.NewMiddleware(clientIP.Extract)

	r := chi.NewRouter()
	r.Use(log.Middleware(logger))
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID},
		MaxAge:         300,
	}))
	r.Use(s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Too many requests", "try again in a minute").Write(w)
	}))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", handleCategories)
		r.Get("/report", s.handleReport)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Get("/total", s.handleTotal)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetExpense)
				r.Put("/", s.handleUpdateExpense)
				r.Delete("/", s.handleDeleteExpense)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed", r.Method).Write(w)
	})

	return r
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
