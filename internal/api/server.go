package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/shindan/internal/assessor"
)

type Server struct {
	router   *chi.Mux
	port     int
	assessor *assessor.Assessor
	httpSrv  *http.Server
}

func NewServer(port int, a *assessor.Assessor) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		assessor: a,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/questions", s.questions)
		r.Post("/diagnoses", s.submit)
		r.Route("/diagnoses/{id}", func(r chi.Router) {
			r.Get("/", s.getDiagnosis)
			r.Post("/narrative", s.generateNarrative)
			r.Put("/narrative", s.setNarrative)
			r.Delete("/narrative", s.clearNarrative)
			r.Get("/report.pdf", s.reportPDF)
			r.Post("/log/remote", s.logRemote)
			r.Post("/log/file", s.logFile)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("API server starting", "addr", addr)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
