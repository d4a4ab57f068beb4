package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/vitalsync/internal/ingest/garmin"
	"github.com/claude/vitalsync/internal/storage"
	"github.com/claude/vitalsync/internal/summary"
)

// SummaryStore reads stored summary rows and run logs. *storage.DB
// satisfies it.
type SummaryStore interface {
	GetDailyRow(ctx context.Context, day time.Time) (*storage.DailyRow, error)
	QueryDailyRows(ctx context.Context, start, end time.Time) ([]storage.DailyRow, error)
	QueryRunLogs(ctx context.Context, limit int) ([]storage.RunLog, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	assembler *garmin.Assembler
	builder   *summary.Builder
	store     SummaryStore
	whois     WhoIser
	log       *slog.Logger
	apiKey    string
	router    chi.Router
}

// New creates a new Server with all routes configured. store may be nil,
// in which case the history endpoints answer 503.
func New(assembler *garmin.Assembler, builder *summary.Builder, store SummaryStore, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		assembler: assembler,
		builder:   builder,
		store:     store,
		log:       log,
		apiKey:    apiKey,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale enables caller identification through the tailnet.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identify)

	// Processing endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/normalize", s.handleNormalize)
		r.Post("/api/v1/summary", s.handleSummary)
	})

	// Read endpoints, unauthenticated; access is limited by the listener
	s.router.Get("/api/v1/columns", s.handleColumns)
	s.router.Get("/api/v1/summaries", s.handleListSummaries)
	s.router.Get("/api/v1/summaries/{date}", s.handleGetSummary)
	s.router.Get("/api/v1/runs", s.handleListRuns)
	s.router.Get("/api/v1/me", s.handleMe)
}

// identify resolves the caller via the tailnet when available and falls
// back to the local dev identity.
func (s *Server) identify(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.log)(next).ServeHTTP(w, r)
	})
}
