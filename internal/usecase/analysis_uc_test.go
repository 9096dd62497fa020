//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"jdcrawler-dashboard/internal/domain"
	"jdcrawler-dashboard/internal/domain/model"
	derror "jdcrawler-dashboard/internal/error"
	"jdcrawler-dashboard/internal/usecase"
)

func newTracker(max int) (*MockGateway, *usecase.QueryService, *usecase.AnalysisTracker) {
	gw, _, q, m := newHarness()
	return gw, q, usecase.NewAnalysisTracker(q, m, 0, max, newTestLogger())
}

func TestAnalysisTracker(t *testing.T) {
	ctx := context.Background()

	t.Run("a job without description is rejected before any network call", func(t *testing.T) {
		gw, q, tr := newTracker(3)
		gw.AddJob(model.Job{ID: 1, Title: "No JD"})
		q.Job(ctx, 1)

		err := tr.Trigger(ctx, 1)
		if !errors.Is(err, domain.ErrAnalysisUnavailable) {
			t.Fatalf("err = %v, want ErrAnalysisUnavailable", err)
		}
		if gw.Calls("TriggerAnalysis") != 0 {
			t.Errorf("TriggerAnalysis called %d times", gw.Calls("TriggerAnalysis"))
		}
		if gw.Calls("GetJob") != 1 {
			t.Errorf("GetJob calls = %d, the cached job should be reused", gw.Calls("GetJob"))
		}
		v, err := tr.View(ctx, 1)
		if err != nil || v.State != model.AnalysisAbsent || v.CanTrigger {
			t.Errorf("view = %+v, %v", v, err)
		}
	})

	t.Run("a pending job cannot be triggered again", func(t *testing.T) {
		gw, _, tr := newTracker(3)
		gw.AddJob(model.Job{ID: 2, Description: strp("Go"), AIStatus: model.AIStatusPending})

		if err := tr.Trigger(ctx, 2); !errors.Is(err, domain.ErrAnalysisInFlight) {
			t.Fatalf("err = %v, want ErrAnalysisInFlight", err)
		}
		if gw.Calls("TriggerAnalysis") != 0 {
			t.Error("pending job reached the network")
		}
	})

	t.Run("a completed analysis is terminal", func(t *testing.T) {
		gw, _, tr := newTracker(3)
		gw.AddJob(model.Job{ID: 3, Description: strp("Go"), AIStatus: model.AIStatusCompleted, AIScore: intp(70)})

		if err := tr.Trigger(ctx, 3); !errors.Is(err, domain.ErrAnalysisTransition) {
			t.Fatalf("err = %v, want ErrAnalysisTransition", err)
		}
	})

	t.Run("trigger then recheck adopts the completed score", func(t *testing.T) {
		gw, _, tr := newTracker(3)
		gw.AddJob(model.Job{ID: 4, Description: strp("Build Go services")})
		gw.TriggerAnalysisFunc = func(ctx context.Context, id int64) (*model.AnalysisResult, error) {
			gw.UpdateJob(id, func(j *model.Job) {
				j.AIStatus, j.AIScore, j.AISummary = model.AIStatusCompleted, intp(87), strp("strong fit")
			})
			return &model.AnalysisResult{Score: intp(87), Status: model.AIStatusCompleted}, nil
		}

		rep, err := tr.Run(ctx, 4)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if rep.Outcome != usecase.OutcomeCompleted || rep.Attempts != 1 {
			t.Errorf("report = %+v", rep)
		}
		if rep.View.Score == nil || *rep.View.Score != 87 || rep.View.Summary != "strong fit" {
			t.Errorf("view = %+v", rep.View)
		}
		if tr.Pending(4) {
			t.Error("tracker still pending")
		}
	})

	t.Run("a filtered job shows no score", func(t *testing.T) {
		gw, _, tr := newTracker(3)
		gw.AddJob(model.Job{ID: 5, DescriptionImageURL: strp("https://img")})
		gw.TriggerAnalysisFunc = func(ctx context.Context, id int64) (*model.AnalysisResult, error) {
			gw.UpdateJob(id, func(j *model.Job) {
				j.AIStatus, j.AIScore, j.AISummary = model.AIStatusFiltered, intp(10), strp("excluded keyword")
			})
			return &model.AnalysisResult{}, nil
		}

		rep, err := tr.Run(ctx, 5)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if rep.Outcome != usecase.OutcomeFiltered || rep.View.Score != nil {
			t.Errorf("report = %+v", rep)
		}
		if rep.View.Summary != "excluded keyword" {
			t.Errorf("summary = %q", rep.View.Summary)
		}
	})

	t.Run("exhausted rechecks report not observed", func(t *testing.T) {
		gw, _, tr := newTracker(3)
		gw.AddJob(model.Job{ID: 6, Description: strp("Rust")})

		rep, err := tr.Run(ctx, 6)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if rep.Outcome != usecase.OutcomeNotObserved || rep.Attempts != 3 {
			t.Errorf("report = %+v", rep)
		}
		if !rep.View.NotObserved || rep.View.State == model.AnalysisFailed {
			t.Errorf("not-observed must stay distinct from failure: %+v", rep.View)
		}
		if got := gw.Calls("GetJob"); got != 4 {
			t.Errorf("GetJob calls = %d, want 1 read + 3 rechecks", got)
		}
	})

	t.Run("a failed analysis can be retried", func(t *testing.T) {
		gw, _, tr := newTracker(2)
		gw.AddJob(model.Job{ID: 7, Description: strp("Kotlin"), AIStatus: model.AIStatusFailed})
		gw.TriggerAnalysisFunc = func(ctx context.Context, id int64) (*model.AnalysisResult, error) {
			gw.UpdateJob(id, func(j *model.Job) { j.AIStatus, j.AIScore = model.AIStatusCompleted, intp(55) })
			return &model.AnalysisResult{}, nil
		}

		rep, err := tr.Run(ctx, 7)
		if err != nil || rep.Outcome != usecase.OutcomeCompleted {
			t.Fatalf("report = %+v, %v", rep, err)
		}
	})

	t.Run("a rejected trigger clears the pending mark", func(t *testing.T) {
		gw, _, tr := newTracker(2)
		gw.AddJob(model.Job{ID: 8, Description: strp("C++")})
		gw.TriggerAnalysisFunc = func(ctx context.Context, id int64) (*model.AnalysisResult, error) {
			return nil, derror.FromStatus("TriggerAnalysis", 500, "model timeout")
		}

		err := tr.Trigger(ctx, 8)
		if derror.KindOf(err) != derror.KindServer {
			t.Fatalf("err = %v, want server", err)
		}
		if tr.Pending(8) {
			t.Error("pending mark kept after a failed trigger")
		}
		v, _ := tr.View(ctx, 8)
		if !v.CanTrigger {
			t.Errorf("view = %+v, trigger should be offered again", v)
		}
	})
}
