// File: internal/usecase/query_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"jdcrawler-dashboard/internal/domain/model"
	"jdcrawler-dashboard/internal/domain/ports/gateway"
	"jdcrawler-dashboard/internal/infra/logging"
	"jdcrawler-dashboard/internal/infra/querycache"
)

// JobsPage is one page of the job browser.
type JobsPage struct {
	Query   model.JobQuery
	Jobs    []model.Job
	HasNext bool
	HasPrev bool
	Loading bool
	Stale   bool
	Err     error
}

// QueryService is the read path: every server-owned entity is read through
// the cache under its canonical key.
type QueryService struct {
	gw       gateway.Gateway
	cache    *querycache.Cache
	pageSize int
	log      *zerolog.Logger
}

func NewQueryService(gw gateway.Gateway, cache *querycache.Cache, pageSize int, logger *zerolog.Logger) *QueryService {
	if logger == nil {
		logger = logging.Nop()
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	l := logger.With().Str("component", "QueryService").Logger()
	return &QueryService{gw: gw, cache: cache, pageSize: pageSize, log: &l}
}

func (s *QueryService) PageSize() int { return s.pageSize }

// Jobs reads one page. A page shorter than the page size is the last one.
func (s *QueryService) Jobs(ctx context.Context, q model.JobQuery) JobsPage {
	if q.PageSize <= 0 {
		q.PageSize = s.pageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	r := querycache.Get(ctx, s.cache, querycache.JobsKey(q), func(ctx context.Context) ([]model.Job, error) {
		return s.gw.ListJobs(ctx, q)
	})
	return JobsPage{
		Query:   q,
		Jobs:    r.Data,
		HasNext: r.HasData && len(r.Data) == q.PageSize,
		HasPrev: q.Page > 1,
		Loading: r.Loading,
		Stale:   r.Stale,
		Err:     r.Err,
	}
}

func (s *QueryService) jobFetcher(id int64) func(ctx context.Context) (*model.Job, error) {
	return func(ctx context.Context) (*model.Job, error) { return s.gw.GetJob(ctx, id) }
}

func (s *QueryService) Job(ctx context.Context, id int64) querycache.Result[*model.Job] {
	return querycache.Get(ctx, s.cache, querycache.JobKey(id), s.jobFetcher(id))
}

// RefetchJob bypasses freshness; the analysis tracker uses it for rechecks.
func (s *QueryService) RefetchJob(ctx context.Context, id int64) querycache.Result[*model.Job] {
	return querycache.RefetchAs(ctx, s.cache, querycache.JobKey(id), s.jobFetcher(id))
}

func (s *QueryService) Keywords(ctx context.Context) querycache.Result[[]model.Keyword] {
	return querycache.Get(ctx, s.cache, querycache.KeywordsKey, s.gw.ListKeywords)
}

func (s *QueryService) Profile(ctx context.Context) querycache.Result[*model.UserProfile] {
	return querycache.Get(ctx, s.cache, querycache.ProfileKey, s.gw.GetProfile)
}

func (s *QueryService) Stats(ctx context.Context) querycache.Result[model.JobStats] {
	return querycache.Get(ctx, s.cache, querycache.JobStatsKey, s.gw.JobStats)
}

func (s *QueryService) NewJobsCount(ctx context.Context) querycache.Result[model.NewJobsCount] {
	return querycache.Get(ctx, s.cache, querycache.NewJobsCountKey, s.gw.NewJobsCount)
}

// RefetchNewJobsCount is the 60 s badge poll.
func (s *QueryService) RefetchNewJobsCount(ctx context.Context) querycache.Result[model.NewJobsCount] {
	return querycache.RefetchAs(ctx, s.cache, querycache.NewJobsCountKey, s.gw.NewJobsCount)
}

func (s *QueryService) CrawlStatus(ctx context.Context) querycache.Result[*model.CrawlStatus] {
	return querycache.Get(ctx, s.cache, querycache.CrawlStatusKey, s.gw.CrawlStatus)
}

// RefetchCrawlStatus is the 30 s schedule poll.
func (s *QueryService) RefetchCrawlStatus(ctx context.Context) querycache.Result[*model.CrawlStatus] {
	return querycache.RefetchAs(ctx, s.cache, querycache.CrawlStatusKey, s.gw.CrawlStatus)
}
