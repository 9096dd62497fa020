package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"jdcrawler-dashboard/internal/domain"
	derror "jdcrawler-dashboard/internal/error"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusOf maps a failure to the status the view server answers with.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrAnalysisUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAnalysisInFlight),
		errors.Is(err, domain.ErrAnalysisTransition),
		errors.Is(err, domain.ErrViewClosed):
		return http.StatusConflict
	}

	var e *derror.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case derror.KindNetwork:
			return http.StatusServiceUnavailable
		case derror.KindNotFound:
			return http.StatusNotFound
		case derror.KindValidation:
			return http.StatusBadRequest
		case derror.KindServer, derror.KindDecode:
			return http.StatusBadGateway
		case derror.KindClient:
			if e.Status >= 400 && e.Status < 500 {
				return e.Status
			}
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}

	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func kindOf(err error) string {
	if k := derror.KindOf(err); k != "" {
		return string(k)
	}
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return string(derror.KindValidation)
	case errors.Is(err, domain.ErrNotFound):
		return string(derror.KindNotFound)
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	l := s.logFor(r)
	if status >= 500 {
		l.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		l.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kindOf(err)})
}
