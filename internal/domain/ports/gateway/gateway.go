// File: internal/domain/ports/gateway/gateway.go
package gateway

import (
	"context"

	"jdcrawler-dashboard/internal/domain/model"
)

// Gateway is the typed boundary to the crawler backend. Implementations
// return *derror.Error for every failure and hold no business logic.
type Gateway interface {
	ListJobs(ctx context.Context, q model.JobQuery) ([]model.Job, error)
	GetJob(ctx context.Context, id int64) (*model.Job, error)
	ToggleBookmark(ctx context.Context, id int64) (*model.Job, error)
	HideJob(ctx context.Context, id int64) error
	JobStats(ctx context.Context) (model.JobStats, error)
	NewJobsCount(ctx context.Context) (model.NewJobsCount, error)
	MarkNotificationsRead(ctx context.Context) error

	CrawlStatus(ctx context.Context) (*model.CrawlStatus, error)
	TriggerCrawl(ctx context.Context, req model.CrawlRequest) (*model.CrawlAck, error)
	TriggerCrawlAll(ctx context.Context) (*model.CrawlAck, error)
	TriggerAnalysis(ctx context.Context, jobID int64) (*model.AnalysisResult, error)

	ListKeywords(ctx context.Context) ([]model.Keyword, error)
	CreateKeyword(ctx context.Context, text string) (*model.Keyword, error)
	DeleteKeyword(ctx context.Context, id int64) error

	GetProfile(ctx context.Context) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, p model.ProfileUpdate) (*model.UserProfile, error)
}
