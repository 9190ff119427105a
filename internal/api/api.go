package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/sfwcore/herobot/internal/config"
	"github.com/sfwcore/herobot/internal/model"
)

const (
	apiShutdownTimeout = 15 * time.Second
)

type API struct {
	Config     config.ServerConfig
	Repository model.Repository
}

func New(cfg *config.ServerConfig, repo model.Repository) *API {
	return &API{
		Config:     *cfg,
		Repository: repo,
	}
}

func (a *API) Run(ctx context.Context) {
	log.Info("Starting API")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.CleanPath)

	r.Get("/healthz", a.healthz)

	r.Group(func(r chi.Router) {
		r.Use(a.authMiddleware)

		r.Get("/api/sessions", a.getSessions)
		r.Put("/api/credentials", a.setCredential)
		r.Delete("/api/credentials/{userID}", a.deleteCredential)
	})

	srv := &http.Server{
		Addr:         a.Config.APIAddr,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server")
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(ctx, apiShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Failed to shutdown API service gracefully")
	}

	log.Info("API service shut down")
}

func (a *API) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		log.Errorf("Error writing response: %v", err)
	}
}
