package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"jdcrawler-dashboard/internal/domain"
	"jdcrawler-dashboard/internal/domain/model"
)

func TestCountdown(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	t.Run("not scheduled", func(t *testing.T) {
		if got := model.Countdown(nil, now); got.Kind != model.CountdownNotScheduled || got.Text != "not scheduled" {
			t.Errorf("got %+v", got)
		}
	})
	t.Run("past is running", func(t *testing.T) {
		past := now.Add(-time.Second)
		if got := model.Countdown(&past, now); got.Kind != model.CountdownRunning || got.Text != "running" {
			t.Errorf("got %+v", got)
		}
	})
	t.Run("hours minutes seconds", func(t *testing.T) {
		next := now.Add(3661000 * time.Millisecond)
		if got := model.Countdown(&next, now); got.Text != "1h 1m 1s" {
			t.Errorf("got %q, want 1h 1m 1s", got.Text)
		}
		if got := model.Countdown(&next, now.Add(time.Second)); got.Text != "1h 1m 0s" {
			t.Errorf("one second later got %q, want 1h 1m 0s", got.Text)
		}
		if got := model.Countdown(&next, now.Add(2*time.Second)); got.Text != "1h 0m 59s" {
			t.Errorf("two seconds later got %q, want 1h 0m 59s", got.Text)
		}
	})
	t.Run("partial seconds round up", func(t *testing.T) {
		// the poll lands a few milliseconds after the schedule was computed
		next := now.Add(3661000 * time.Millisecond)
		got := model.Countdown(&next, now.Add(7*time.Millisecond))
		if got.Text != "1h 1m 1s" || got.Remaining != 3661*time.Second {
			t.Errorf("got %+v, want 1h 1m 1s", got)
		}
		if got := model.Countdown(&next, next.Add(-time.Millisecond)); got.Text != "0h 0m 1s" {
			t.Errorf("last millisecond got %q, want 0h 0m 1s", got.Text)
		}
	})
}

func TestCrawlStatusDecode(t *testing.T) {
	body := `{"status":"stopped","jobs":[{"id":"crawl_all","next_run_time":"2026-10-16T13:00:00+09:00"}]}`
	var cs model.CrawlStatus
	if err := json.Unmarshal([]byte(body), &cs); err != nil {
		t.Fatal(err)
	}
	if cs.Status != model.CrawlIdle {
		t.Errorf("status = %s, want idle", cs.Status)
	}
	next := cs.NextRun()
	if next == nil || !next.Equal(time.Date(2026, 10, 16, 4, 0, 0, 0, time.UTC)) {
		t.Errorf("next run = %v", next)
	}

	var empty model.CrawlStatus
	if err := json.Unmarshal([]byte(`{"status":"running","jobs":[{"id":"x","next_run_time":null}]}`), &empty); err != nil {
		t.Fatal(err)
	}
	if empty.Status != model.CrawlRunning || empty.NextRun() != nil {
		t.Errorf("unexpected %+v", empty)
	}
}

func TestParseTimestampNaive(t *testing.T) {
	ts, err := model.ParseTimestamp("2026-10-16T09:30:00.123456")
	if err != nil {
		t.Fatal(err)
	}
	if ts.Location() != time.Local || ts.Hour() != 9 || ts.Minute() != 30 {
		t.Errorf("naive timestamp parsed as %v", ts.Time)
	}
	if _, err := model.ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error")
	}
}

func TestJobQueryOffset(t *testing.T) {
	q := model.JobQuery{Page: 3, PageSize: 20}
	if q.Offset() != 40 || q.Limit() != 20 {
		t.Errorf("offset=%d limit=%d", q.Offset(), q.Limit())
	}
	if (model.JobQuery{Page: 0, PageSize: 20}).Offset() != 0 {
		t.Error("page < 1 should clamp to offset 0")
	}
}

func TestNormalizeKeyword(t *testing.T) {
	if got, err := model.NormalizeKeyword("  golang "); err != nil || got != "golang" {
		t.Errorf("got %q, %v", got, err)
	}
	if _, err := model.NormalizeKeyword("   "); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestProfileUpdateClean(t *testing.T) {
	in := model.ProfileUpdate{
		TechStack: []model.TechSkill{
			{Name: " Go ", Level: model.LevelExpert},
			{Name: "", Level: "whatever"},
		},
		ExperienceYears:  4,
		InterestKeywords: []string{" backend", "", "backend", "infra "},
		ExcludeKeywords:  model.SplitKeywords("php, ,sales"),
	}
	out, err := in.Clean()
	if err != nil {
		t.Fatal(err)
	}
	if len(out.TechStack) != 1 || out.TechStack[0].Name != "Go" {
		t.Errorf("tech stack = %+v", out.TechStack)
	}
	if len(out.InterestKeywords) != 2 || out.InterestKeywords[1] != "infra" {
		t.Errorf("interest = %v", out.InterestKeywords)
	}
	if len(out.ExcludeKeywords) != 2 {
		t.Errorf("exclude = %v", out.ExcludeKeywords)
	}

	if _, err := (model.ProfileUpdate{ExperienceYears: -1}).Clean(); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("negative years: %v", err)
	}
	bad := model.ProfileUpdate{TechStack: []model.TechSkill{{Name: "Rust", Level: "Guru"}}}
	if _, err := bad.Clean(); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("bad level: %v", err)
	}
}

func TestParseSite(t *testing.T) {
	if s, err := model.ParseSite(" Wanted "); err != nil || s != model.SiteWanted {
		t.Errorf("got %q, %v", s, err)
	}
	if _, err := model.ParseSite("linkedin"); err == nil {
		t.Error("expected error")
	}
}
