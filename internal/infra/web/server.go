package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"meeting-classifier/internal/infra/metrics"
	"meeting-classifier/internal/usecase"
)

// Per-subject limits on the write routes.
const (
	writeLimit  = 60
	writeWindow = time.Minute
)

type Server struct {
	meetingUC usecase.MeetingUseCase
	failureUC usecase.FailureUseCase
	auth      *AuthManager
	limiter   Limiter
	log       *zerolog.Logger
}

func NewServer(
	meetingUC usecase.MeetingUseCase,
	failureUC usecase.FailureUseCase,
	auth *AuthManager,
	limiter Limiter,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		meetingUC: meetingUC,
		failureUC: failureUC,
		auth:      auth,
		limiter:   limiter,
		log:       logger,
	}
}

// Routes builds the ops API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(traceMiddleware)
	r.Use(accessLog(s.log))

	r.Get("/health", healthHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.With(s.rateLimit(writeLimit, writeWindow)).Post("/meetings", s.createMeeting)
		r.Get("/meetings/{id}", s.getMeeting)
		r.With(s.rateLimit(writeLimit, writeWindow)).Post("/meetings/{id}/classification", s.requestClassification)
		r.Get("/meetings/{id}/classification", s.getClassification)
		r.Get("/classification-failures", s.listFailures)
	})
	return r
}
