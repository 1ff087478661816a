package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/adrianliechti/wingman-jina/config"
	"github.com/adrianliechti/wingman-jina/pkg/auth"
	"github.com/adrianliechti/wingman-jina/pkg/otel"
	"github.com/adrianliechti/wingman-jina/server/openai/embeddings"
	"github.com/adrianliechti/wingman-jina/server/openai/models"
	"github.com/adrianliechti/wingman-jina/server/openai/shared"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type Server struct {
	*config.Config
	http.Handler
}

func New(cfg *config.Config) *Server {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authenticate(cfg.Authorizers))

		models.New(cfg).Attach(r)
		embeddings.New(cfg).Attach(r)
	})

	var handler http.Handler = r

	if otel.EnableTelemetry {
		handler = otel.Handler(handler, "server")
	}

	return &Server{
		Config:  cfg,
		Handler: handler,
	}
}

// ListenAndServe serves until ctx is done and then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Address,
		Handler: s,

		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		slog.Info("server listening", "address", s.Address)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		slog.Info("server shutting down")

		return srv.Shutdown(shutdownCtx)
	}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)

		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)

		next.ServeHTTP(w, r)
	})
}

func authenticate(providers []auth.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := auth.Authenticate(r.Context(), r, providers...)

			if err != nil {
				slog.WarnContext(r.Context(), "request rejected", "path", r.URL.Path, "error", err)

				shared.WriteError(w, http.StatusUnauthorized, errors.New("unauthorized"))
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
