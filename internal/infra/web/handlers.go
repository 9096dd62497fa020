package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"jdcrawler-dashboard/internal/domain"
	"jdcrawler-dashboard/internal/domain/model"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Dashboard(r.Context()))
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Jobs(r.Context()))
}

type searchRequest struct {
	Text   string `json:"text"`
	Submit bool   `json:"submit"`
}

// handleSearch records the typed text; submit commits it without waiting.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	st := s.dash.Search(req.Text)
	if req.Submit {
		st = s.dash.SubmitSearch()
	}
	writeJSON(w, http.StatusOK, st)
}

type filterRequest struct {
	Site       *string `json:"site"`
	Bookmarked *bool   `json:"bookmarked"`
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Site != nil {
		if _, err := s.dash.FilterSite(*req.Site); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if req.Bookmarked != nil {
		s.dash.FilterBookmarked(*req.Bookmarked)
	}
	writeJSON(w, http.StatusOK, s.dash.SearchState())
}

type pageRequest struct {
	Action string `json:"action"` // next|prev|goto
	Page   int    `json:"page"`   // goto only
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if !s.decode(w, r, &req) {
		return
	}
	switch req.Action {
	case "next":
		writeJSON(w, http.StatusOK, s.dash.NextPage(r.Context()))
	case "prev":
		writeJSON(w, http.StatusOK, s.dash.PrevPage())
	case "goto":
		if req.Page < 1 {
			s.writeError(w, r, fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidArgument))
			return
		}
		writeJSON(w, http.StatusOK, s.dash.GoToPage(req.Page))
	default:
		s.writeError(w, r, fmt.Errorf("%w: action must be next, prev or goto", domain.ErrInvalidArgument))
	}
}

func (s *Server) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	v, err := s.dash.OpenJobDetail(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleCloseDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if !s.dash.CloseJobDetail(id) {
		s.writeError(w, r, fmt.Errorf("job %d detail: %w", id, domain.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBookmark(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	job, err := s.dash.ToggleBookmark(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleHide(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.dash.Hide(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	v, err := s.dash.StartAnalysis(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, v)
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	kws, err := s.dash.Keywords(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kws)
}

type keywordRequest struct {
	Keyword string `json:"keyword"`
}

func (s *Server) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	var req keywordRequest
	if !s.decode(w, r, &req) {
		return
	}
	kw, err := s.dash.AddKeyword(r.Context(), req.Keyword)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, kw)
}

func (s *Server) handleRemoveKeyword(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.dash.RemoveKeyword(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type crawlRequest struct {
	Site    string `json:"site"`
	Keyword string `json:"keyword"`
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if !s.decode(w, r, &req) {
		return
	}
	ack, err := s.dash.Crawl(r.Context(), req.Site, req.Keyword)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

func (s *Server) handleCrawlAll(w http.ResponseWriter, r *http.Request) {
	ack, err := s.dash.CrawlAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.dash.Profile(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var upd model.ProfileUpdate
	if !s.decode(w, r, &upd) {
		return
	}
	p, err := s.dash.SaveProfile(r.Context(), upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.MarkNotificationsRead(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, r, fmt.Errorf("%w: invalid id %q", domain.ErrInvalidArgument, raw))
		return 0, false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidArgument, err))
		return false
	}
	return true
}
