package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"meeting-classifier/internal/domain"
	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/infra/logging"
)

// meetingCreateRequest is the JSON body for POST /api/v1/meetings.
type meetingCreateRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	SalesmanName  string `json:"salesmanName"`
	Date          string `json:"date"` // RFC 3339 or YYYY-MM-DD
	Closed        bool   `json:"closed"`
	Transcription string `json:"transcription"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createMeeting(w http.ResponseWriter, r *http.Request) {
	var req meetingCreateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be RFC 3339 or YYYY-MM-DD")
		return
	}
	m, err := model.NewMeeting(req.Name, req.Email, req.Phone, req.SalesmanName, date, req.Closed, req.Transcription)
	if err != nil {
		writeError(w, http.StatusBadRequest, "name and salesmanName are required")
		return
	}

	res, err := s.meetingUC.Create(r.Context(), m)
	if err != nil {
		s.fail(w, r, err, "failed to create meeting")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) getMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := meetingID(w, r)
	if !ok {
		return
	}
	m, err := s.meetingUC.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "failed to get meeting")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) requestClassification(w http.ResponseWriter, r *http.Request) {
	id, ok := meetingID(w, r)
	if !ok {
		return
	}
	jobID, err := s.meetingUC.RequestClassification(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "failed to enqueue classification")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"meetingId": id, "jobId": jobID})
}

func (s *Server) getClassification(w http.ResponseWriter, r *http.Request) {
	id, ok := meetingID(w, r)
	if !ok {
		return
	}
	c, err := s.meetingUC.Classification(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "failed to get classification")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) listFailures(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := s.failureUC.List(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err, "failed to list failures")
		return
	}
	if items == nil {
		items = []*model.FailedJob{}
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.FailedJob `json:"data"`
	}{Data: items})
}

// fail maps domain errors to status codes; anything unknown is a 500 with a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var pe *domain.PreconditionError
	switch {
	case errors.As(err, &pe):
		writeError(w, http.StatusBadRequest, pe.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrMeetingNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrEnqueueFailed):
		logging.With(r.Context(), s.log).Error().Err(err).Msg(msg)
		writeError(w, http.StatusServiceUnavailable, msg)
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg(msg)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func meetingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "meeting id must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
