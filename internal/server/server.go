package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ironsheep/image-transform/internal/imaging"
)

// Server exposes the transformation service over HTTP.
type Server struct {
	svc *imaging.Service
	log zerolog.Logger
}

// New wires a Server around svc.
func New(svc *imaging.Service, log zerolog.Logger) *Server {
	return &Server{svc: svc, log: log}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID, chimw.RealIP, chimw.Recoverer, Logger(s.log))

	r.Get("/v1/healthz", s.handleHealth)
	r.Post("/v1/transform", s.handleTransform)
	r.Post("/v1/thumbnail", s.handleThumbnail)
	r.Post("/v1/remove-background", s.handleRemoveBackground)
	r.Get("/v1/info", s.handleInfo)
	r.Post("/v1/info", s.handleInfo)

	return r
}
