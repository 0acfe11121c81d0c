package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MikeSquared-Agency/parley/internal/resolver"
	"github.com/MikeSquared-Agency/parley/internal/session"
	"github.com/MikeSquared-Agency/parley/internal/store"
	"github.com/MikeSquared-Agency/parley/internal/summary"
	"github.com/MikeSquared-Agency/parley/internal/utterance"
)

const (
	defaultSummaryLimit = 20
	maxSummaryLimit     = 200
)

type liveResponse struct {
	session.Live
	Candidates []resolver.Candidate `json:"candidates,omitempty"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	live, err := s.svc.StartSession(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, live)
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.StopSession(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) liveSession(w http.ResponseWriter, r *http.Request) {
	live, err := s.svc.Live()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, liveResponse{Live: live, Candidates: s.svc.Candidates()})
}

func (s *Server) ingestUtterance(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var evt utterance.Event
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.svc.Ingest(evt)
	switch {
	case err == nil, errors.Is(err, utterance.ErrInterim), errors.Is(err, utterance.ErrNotRecognized):
		// Interim and unrecognized results are well-formed but never credited.
		w.WriteHeader(http.StatusAccepted)
	default:
		s.writeServiceError(w, err)
	}
}

func (s *Server) getRegistration(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.Registration(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) startRegistration(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.StartRegistration()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

func (s *Server) stopRegistration(w http.ResponseWriter, r *http.Request) {
	pat, err := s.svc.StopRegistration(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pat)
}

func (s *Server) clearRegistration(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearRegistration(r.Context()); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listSummaries(w http.ResponseWriter, r *http.Request) {
	limit := defaultSummaryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSummaryLimit)
	}

	results, err := s.svc.RecentSummaries(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []session.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summaries": results,
		"count":     len(results),
	})
}

// writeServiceError maps domain errors onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, summary.ErrNoSpeechDetected):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, session.ErrNotActive), errors.Is(err, session.ErrAlreadyActive), errors.Is(err, session.ErrHalted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNoPattern):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, utterance.ErrMalformed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
