package application

import (
	"time"

	"jdcrawler-dashboard/internal/domain/model"
	"jdcrawler-dashboard/internal/infra/sched"
	"jdcrawler-dashboard/internal/usecase"
)

// DashboardView is the landing screen: per-site totals, the new-jobs badge
// and the crawl countdown.
type DashboardView struct {
	Stats      model.JobStats      `json:"stats"`
	TotalJobs  int                 `json:"total_jobs"`
	NewJobs    int                 `json:"new_jobs"`
	Crawl      sched.CrawlSnapshot `json:"crawl"`
	Loading    bool                `json:"loading"`
	StatsError string              `json:"stats_error,omitempty"`
	BadgeError string              `json:"badge_error,omitempty"`
}

type JobsView struct {
	Search  usecase.SearchState `json:"search"`
	Jobs    []model.Job         `json:"jobs"`
	HasNext bool                `json:"has_next"`
	HasPrev bool                `json:"has_prev"`
	Loading bool                `json:"loading"`
	Stale   bool                `json:"stale"`
	Error   string              `json:"error,omitempty"`
	OpenJob int64               `json:"open_job,omitempty"`
}

type JobDetailView struct {
	Job       *model.Job         `json:"job,omitempty"`
	Analysis  model.AnalysisView `json:"analysis"`
	Loading   bool               `json:"loading"`
	Stale     bool               `json:"stale"`
	FetchedAt time.Time          `json:"fetched_at"`
	Error     string             `json:"error,omitempty"`
	Polling   bool               `json:"polling"` // analysis requested, result not seen yet
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
