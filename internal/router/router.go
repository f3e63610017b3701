package router

import (
	"context"
	"net/http"
	"time"

	mem "pet-profile-service/internal/adapters/storage/memory"
	"pet-profile-service/internal/domain/pets"
	"pet-profile-service/internal/middleware"
	"pet-profile-service/internal/platform/logger"
	"pet-profile-service/internal/platform/metrics"
	"pet-profile-service/internal/ports/auth"
	"pet-profile-service/internal/ports/directory"

	_ "pet-profile-service/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Pinger lo implementa el store; /ready responde 503 si falla.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si no viene, in-memory.
	Pets pets.Repository

	// Sin directory el create responde 500 (dependency error).
	Directory directory.UserDirectory

	Logger logger.Logger

	// Registry para /metrics. Si es nil se crea uno nuevo por router.
	Registry *prometheus.Registry

	// RateLimit se aplica solo a /pets.
	RateLimit func(http.Handler) http.Handler

	Ready Pinger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		metrics.RegisterCollectors(reg)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Instrument)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		if opts.Ready != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Ready.Ping(ctx); err != nil {
				logger.FromContext(req.Context(), log).Warn("readiness check failed", map[string]any{"err": err})
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	petRepo := opts.Pets
	if petRepo == nil {
		petRepo = mem.NewPetRepo()
	}
	petsSvc := pets.NewService(petRepo, opts.Directory)

	r.Group(func(gr chi.Router) {
		if opts.RateLimit != nil {
			gr.Use(opts.RateLimit)
		}
		pets.RegisterRoutes(gr, petsSvc, log)
	})

	return r
}
