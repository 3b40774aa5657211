package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"rdicomweb/config"
	"rdicomweb/index"
	"rdicomweb/logging"
)

// Version is the value reported in the Server response header.
const Version = "0.1.0"

// Server is the DICOMweb HTTP surface: QIDO search, STOW store, an
// administrative purge extension and a capabilities document, all backed
// by store and a directory of DICOM files at root.
type Server struct {
	cfg    *config.Config
	store  index.Store
	root   string
	logger *slog.Logger

	handler http.Handler
}

// NewServer wires routes for cfg/store/root and returns a ready-to-serve
// Server. root is the directory STOW writes files into and QIDO's
// includefield fallback reads them back from.
func NewServer(cfg *config.Config, store index.Store, root string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, store: store, root: root, logger: logger}
	s.handler = s.buildRouter()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withServerHeader)
	r.Use(s.withRequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/", s.handleCapabilities)
	r.Options("/", s.handleCapabilities)

	r.Get("/studies", s.handleQIDO("StudyInstanceUID"))
	r.Get("/studies/{studyUID}", s.handleQIDO("StudyInstanceUID"))
	r.Get("/studies/{studyUID}/series", s.handleQIDO("SeriesInstanceUID"))
	r.Get("/studies/{studyUID}/series/{seriesUID}", s.handleQIDO("SeriesInstanceUID"))
	r.Get("/studies/{studyUID}/series/{seriesUID}/instances", s.handleQIDO("filepath"))
	r.Get("/studies/{studyUID}/series/{seriesUID}/instances/{instanceUID}", s.handleQIDO("filepath"))
	r.Get("/series", s.handleQIDO("SeriesInstanceUID"))
	r.Get("/series/{seriesUID}", s.handleQIDO("SeriesInstanceUID"))
	r.Get("/instances", s.handleQIDO("filepath"))
	r.Get("/instances/{instanceUID}", s.handleQIDO("filepath"))

	r.Post("/studies", s.handleSTOW)
	r.Delete("/studies", s.handlePurge)
	r.Delete("/studies/{studyUID}", s.handlePurge)

	r.Get("/studies/{studyUID}/series/{seriesUID}/instances/{instanceUID}/frames/{frames}", s.handleNotImplemented)
	r.Get("/studies/{studyUID}/series/{seriesUID}/instances/{instanceUID}/rendered", s.handleNotImplemented)
	r.Get("/studies/{studyUID}/series/{seriesUID}/instances/{instanceUID}/thumbnail", s.handleNotImplemented)
	r.Get("/studies/{studyUID}/series/{seriesUID}/instances/{instanceUID}/{tagID}", s.handleNotImplemented)

	return r
}

func (s *Server) withServerHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "rdicomweb/"+Version)
		next.ServeHTTP(w, r)
	})
}

// withRequestID stamps every request with a UUID, exposed to the client as
// X-Request-Id and attached to the request's context so every log record
// emitted through logging.Log with the request's context carries the same
// field. The handlers' own warnings are logged without that context.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		ctx := logging.AppendCtx(r.Context(), slog.String("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleNotImplemented(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}
