//go:build !integration

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"jdcrawler-dashboard/internal/domain/model"
	derror "jdcrawler-dashboard/internal/error"
)

func newTestClient(t *testing.T, r http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, 2*time.Second, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListJobsQueryAndNormalize(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/jobs", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("q") != "go" || q.Get("site") != "wanted" || q.Get("limit") != "20" || q.Get("offset") != "20" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Has("bookmarked") {
			t.Errorf("bookmarked should be omitted when false")
		}
		w.Write([]byte(`[
			{"id":1,"title":"Backend","company":"A","url":"u","site":"wanted","posted_at":"2024-05-01T09:00:00",
			 "created_at":"2024-05-01T09:00:00","is_bookmarked":false,"is_hidden":false,
			 "ai_status":"pending","ai_score":150,"ai_summary":"early"},
			{"id":2,"title":"Infra","company":"B","url":"u","site":"wanted","posted_at":null,
			 "created_at":"2024-05-01T09:00:00Z","is_bookmarked":true,"is_hidden":false,
			 "ai_status":"completed","ai_score":150,"ai_summary":"fit"}
		]`))
	})
	c := newTestClient(t, r)

	jobs, err := c.ListJobs(context.Background(), model.JobQuery{Search: " go ", Site: model.SiteWanted, Page: 2, PageSize: 20})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len = %d", len(jobs))
	}
	if jobs[0].AIScore != nil || jobs[0].AISummary != nil {
		t.Errorf("pending job must not carry score or summary: %+v", jobs[0])
	}
	if s, ok := jobs[1].Score(); !ok || s != 100 {
		t.Errorf("completed score = %d,%v want clamped 100", s, ok)
	}
	if !jobs[1].PostedAt.IsZero() {
		t.Errorf("null posted_at should decode to zero")
	}
}

func TestErrorClassification(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/jobs/{id}", func(w http.ResponseWriter, req *http.Request) {
		switch chi.URLParam(req, "id") {
		case "404":
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Job not found"})
		case "500":
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
		case "bad":
			w.Write([]byte(`{"id":`))
		}
	})
	r.Post("/api/analysis/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Job description is required for AI analysis"})
	})
	c := newTestClient(t, r)

	_, err := c.GetJob(context.Background(), 404)
	if derror.KindOf(err) != derror.KindNotFound {
		t.Errorf("404 -> %v", err)
	}
	_, err = c.GetJob(context.Background(), 500)
	if derror.KindOf(err) != derror.KindServer || !derror.IsRetriable(err) {
		t.Errorf("500 -> %v", err)
	}
	_, err = c.TriggerAnalysis(context.Background(), 3)
	var de *derror.Error
	if !asDerror(err, &de) || de.Kind != derror.KindValidation || de.Message != "Job description is required for AI analysis" {
		t.Errorf("400 -> %v", err)
	}

	bad := chi.NewRouter()
	bad.Get("/api/jobs/{id}", func(w http.ResponseWriter, req *http.Request) { w.Write([]byte(`{"id":`)) })
	_, err = newTestClient(t, bad).GetJob(context.Background(), 1)
	if derror.KindOf(err) != derror.KindDecode {
		t.Errorf("truncated body -> %v", err)
	}
}

func asDerror(err error, target **derror.Error) bool {
	e, ok := err.(*derror.Error)
	if ok {
		*target = e
	}
	return ok
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(base, time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.ListKeywords(context.Background())
	if derror.KindOf(err) != derror.KindNetwork {
		t.Fatalf("closed server -> %v, want network", err)
	}
}

func TestMutationsHitExpectedRoutes(t *testing.T) {
	hits := map[string]int{}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			hits[req.Method+" "+req.URL.Path]++
			next.ServeHTTP(w, req)
		})
	})
	r.Patch("/api/jobs/{id}/bookmark", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 5, "is_bookmarked": true, "site": "saramin"})
	})
	r.Patch("/api/jobs/{id}/hidden", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 5, "is_hidden": true})
	})
	r.Post("/api/keywords", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(req.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, map[string]any{"id": 9, "keyword": body["keyword"], "is_active": true})
	})
	r.Delete("/api/keywords/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/api/crawl", func(w http.ResponseWriter, req *http.Request) {
		var body model.CrawlRequest
		_ = json.NewDecoder(req.Body).Decode(&body)
		writeJSON(w, http.StatusOK, model.CrawlAck{Status: "completed", Site: string(body.Site), Keyword: body.Keyword, JobsCrawled: 4})
	})
	r.Post("/api/crawl/all", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "accepted", "message": "Crawling started in background"})
	})
	r.Post("/api/notifications/mark-read", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/profile", func(w http.ResponseWriter, req *http.Request) {
		var upd model.ProfileUpdate
		_ = json.NewDecoder(req.Body).Decode(&upd)
		writeJSON(w, http.StatusOK, model.UserProfile{TechStack: upd.TechStack, ExperienceYears: upd.ExperienceYears})
	})
	c := newTestClient(t, r)
	ctx := context.Background()

	j, err := c.ToggleBookmark(ctx, 5)
	if err != nil || !j.IsBookmarked {
		t.Fatalf("ToggleBookmark = %+v, %v", j, err)
	}
	if err := c.HideJob(ctx, 5); err != nil {
		t.Fatalf("HideJob: %v", err)
	}
	kw, err := c.CreateKeyword(ctx, "golang")
	if err != nil || kw.ID != 9 || kw.Keyword != "golang" {
		t.Fatalf("CreateKeyword = %+v, %v", kw, err)
	}
	if err := c.DeleteKeyword(ctx, 7); err != nil {
		t.Fatalf("DeleteKeyword: %v", err)
	}
	ack, err := c.TriggerCrawl(ctx, model.CrawlRequest{Site: model.SiteJobkorea, Keyword: "rust"})
	if err != nil || ack.JobsCrawled != 4 || ack.Site != "jobkorea" {
		t.Fatalf("TriggerCrawl = %+v, %v", ack, err)
	}
	ack, err = c.TriggerCrawlAll(ctx)
	if err != nil || ack.Status != "accepted" {
		t.Fatalf("TriggerCrawlAll = %+v, %v", ack, err)
	}
	if err := c.MarkNotificationsRead(ctx); err != nil {
		t.Fatalf("MarkNotificationsRead: %v", err)
	}
	p, err := c.UpdateProfile(ctx, model.ProfileUpdate{ExperienceYears: 3, TechStack: []model.TechSkill{{Name: "Go", Level: model.LevelAdvanced}}})
	if err != nil || p.ExperienceYears != 3 || len(p.TechStack) != 1 {
		t.Fatalf("UpdateProfile = %+v, %v", p, err)
	}

	for _, route := range []string{
		"PATCH /api/jobs/5/bookmark", "PATCH /api/jobs/5/hidden", "POST /api/keywords",
		"DELETE /api/keywords/7", "POST /api/crawl", "POST /api/crawl/all",
		"POST /api/notifications/mark-read", "POST /api/profile",
	} {
		if hits[route] != 1 {
			t.Errorf("%s hit %d times, want 1", route, hits[route])
		}
	}
}

func TestCrawlStatusFoldsStopped(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/crawl/status", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"status":"stopped","jobs":[{"id":"daily_crawl","next_run_time":"2024-05-01T10:00:00+09:00"}]}`))
	})
	r.Get("/api/jobs/stats", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"saramin":3,"wanted":2}`))
	})
	r.Get("/api/notifications/new-jobs-count", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"count":4}`))
	})
	c := newTestClient(t, r)
	ctx := context.Background()

	st, err := c.CrawlStatus(ctx)
	if err != nil {
		t.Fatalf("CrawlStatus: %v", err)
	}
	if st.Status != model.CrawlIdle {
		t.Errorf("status = %q, want idle", st.Status)
	}
	want := time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)
	if next := st.NextRun(); next == nil || !next.Equal(want) {
		t.Errorf("next run = %v, want %v", next, want)
	}

	stats, err := c.JobStats(ctx)
	if err != nil || stats.Total() != 5 {
		t.Errorf("JobStats = %v, %v", stats, err)
	}
	n, err := c.NewJobsCount(ctx)
	if err != nil || n.Count != 4 {
		t.Errorf("NewJobsCount = %v, %v", n, err)
	}
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	if _, err := NewClient("/api", time.Second, nil); err == nil {
		t.Fatal("expected error")
	}
}
