//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"jdcrawler-dashboard/internal/domain/model"
	derror "jdcrawler-dashboard/internal/error"
)

func TestQueryServiceJobsPaging(t *testing.T) {
	ctx := context.Background()
	gw, _, q, _ := newHarness()
	for i := 1; i <= 25; i++ {
		gw.AddJob(model.Job{ID: int64(i), Title: fmt.Sprintf("Job %d", i), Site: model.SiteSaramin})
	}

	t.Run("a full page enables next", func(t *testing.T) {
		page := q.Jobs(ctx, model.JobQuery{Page: 1})
		if len(page.Jobs) != 20 || !page.HasNext || page.HasPrev {
			t.Errorf("page 1: len=%d next=%v prev=%v", len(page.Jobs), page.HasNext, page.HasPrev)
		}
	})

	t.Run("a short page disables next", func(t *testing.T) {
		page := q.Jobs(ctx, model.JobQuery{Page: 2})
		if len(page.Jobs) != 5 || page.HasNext || !page.HasPrev {
			t.Errorf("page 2: len=%d next=%v prev=%v", len(page.Jobs), page.HasNext, page.HasPrev)
		}
		if page.Jobs[0].ID != 21 {
			t.Errorf("page 2 starts at %d, want 21", page.Jobs[0].ID)
		}
	})

	t.Run("each parameter tuple is its own entry", func(t *testing.T) {
		before := gw.Calls("ListJobs")
		q.Jobs(ctx, model.JobQuery{Page: 1})
		q.Jobs(ctx, model.JobQuery{Page: 1, Site: model.SiteWanted})
		if got := gw.Calls("ListJobs") - before; got != 1 {
			t.Errorf("ListJobs calls = %d, want 1 (page 1 is cached)", got)
		}
	})
}

func TestQueryServiceFirstLoadError(t *testing.T) {
	gw, _, q, _ := newHarness()
	gw.ListJobsFunc = func(ctx context.Context, jq model.JobQuery) ([]model.Job, error) {
		return nil, derror.Network("ListJobs", errors.New("timeout"))
	}
	page := q.Jobs(context.Background(), model.JobQuery{Page: 1})
	if page.Err == nil || page.Jobs != nil || page.HasNext {
		t.Fatalf("page = %+v", page)
	}
}

func TestQueryServiceScoreNeverLeaks(t *testing.T) {
	ctx := context.Background()
	gw, _, q, _ := newHarness()
	gw.AddJob(model.Job{ID: 1, AIStatus: model.AIStatusPending, AIScore: intp(90)})
	gw.AddJob(model.Job{ID: 2, AIStatus: model.AIStatusCompleted, AIScore: intp(90)})

	if _, ok := q.Job(ctx, 1).Data.Score(); ok {
		t.Error("pending job exposes a score")
	}
	if s, ok := q.Job(ctx, 2).Data.Score(); !ok || s != 90 {
		t.Errorf("completed score = %d,%v", s, ok)
	}
}
