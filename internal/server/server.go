// Package server exposes the catalog and the selection sessions over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"catalog/selector/internal/catalog"
	"catalog/selector/internal/domain"
	"catalog/selector/internal/session"
)

// Publisher hands accepted submissions to the persistence pipeline.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, sel domain.Selection, result *domain.SubmissionResult) (string, error)
}

type Server struct {
	catalog   *catalog.Catalog
	sessions  *session.Manager
	publisher Publisher
}

// New builds the HTTP API. publisher may be nil, in which case submissions are
// only kept in their session.
func New(cat *catalog.Catalog, sessions *session.Manager, publisher Publisher) *Server {
	return &Server{
		catalog:   cat,
		sessions:  sessions,
		publisher: publisher,
	}
}

// Routes returns the router with all handlers and middleware registered.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/catalog", s.listCategories)
		r.Get("/catalog/{categoryId}", s.listSubcategories)
		r.Get("/catalog/{categoryId}/{subcategoryId}", s.listProperties)

		r.Post("/sessions", s.createSession)
		r.Route("/sessions/{sessionId}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Put("/main-category", s.setMainCategory)
			r.Put("/subcategory", s.setSubcategory)
			r.Delete("/subcategory", s.clearSubcategory)
			r.Put("/answers/{propertyId}", s.setAnswer)
			r.Delete("/answers/{propertyId}", s.clearAnswer)
			r.Post("/submit", s.submit)
			r.Post("/reset", s.reset)
			r.Get("/result", s.getResult)
		})
	})

	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("🌐 HTTP server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).Round(time.Millisecond),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}
