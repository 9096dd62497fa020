// File: internal/usecase/mutation_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"jdcrawler-dashboard/internal/domain/model"
	"jdcrawler-dashboard/internal/domain/ports/gateway"
	derror "jdcrawler-dashboard/internal/error"
	"jdcrawler-dashboard/internal/infra/logging"
	"jdcrawler-dashboard/internal/infra/metrics"
	"jdcrawler-dashboard/internal/infra/querycache"
)

// Compile-time check
var _ MutationUseCase = (*MutationCoordinator)(nil)

type MutationUseCase interface {
	ToggleBookmark(ctx context.Context, jobID int64) (*model.Job, error)
	Hide(ctx context.Context, jobID int64) error
	CreateKeyword(ctx context.Context, text string) (*model.Keyword, error)
	DeleteKeyword(ctx context.Context, id int64) error
	TriggerCrawl(ctx context.Context, site, keyword string) (*model.CrawlAck, error)
	TriggerCrawlAll(ctx context.Context) (*model.CrawlAck, error)
	TriggerAnalysis(ctx context.Context, jobID int64) (*model.AnalysisResult, error)
	UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.UserProfile, error)
	MarkNotificationsRead(ctx context.Context) error
}

// MutationCoordinator sends writes to the backend and, once acknowledged,
// invalidates the cache keys each write affects. A failed write leaves the
// cache untouched.
type MutationCoordinator struct {
	gw    gateway.Gateway
	cache *querycache.Cache
	log   *zerolog.Logger
}

func NewMutationCoordinator(gw gateway.Gateway, cache *querycache.Cache, logger *zerolog.Logger) *MutationCoordinator {
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "MutationCoordinator").Logger()
	return &MutationCoordinator{gw: gw, cache: cache, log: &l}
}

// run executes one mutation under a fresh mutation id.
func (m *MutationCoordinator) run(ctx context.Context, intent string, call func(ctx context.Context) error, invalidate ...querycache.Key) error {
	id := ulid.Make().String()
	ctx = logging.WithMutationID(ctx, id)
	log := logging.With(ctx, m.log)

	if err := call(ctx); err != nil {
		result := "failed"
		if derror.KindOf(err) == derror.KindValidation {
			result = "rejected"
		}
		metrics.IncMutation(intent, result)
		log.Warn().Err(err).Str("intent", intent).Msg("mutation failed")
		return err
	}
	metrics.IncMutation(intent, "ok")

	marked := 0
	for _, k := range invalidate {
		marked += m.cache.Invalidate(k)
	}
	log.Info().Str("intent", intent).Int("invalidated", marked).Msg("mutation acknowledged")
	return nil
}

func (m *MutationCoordinator) ToggleBookmark(ctx context.Context, jobID int64) (*model.Job, error) {
	var job *model.Job
	err := m.run(ctx, "toggle_bookmark", func(ctx context.Context) error {
		var err error
		job, err = m.gw.ToggleBookmark(ctx, jobID)
		return err
	}, querycache.JobKey(jobID), querycache.JobsPrefix)
	return job, err
}

func (m *MutationCoordinator) Hide(ctx context.Context, jobID int64) error {
	return m.run(ctx, "hide", func(ctx context.Context) error {
		return m.gw.HideJob(ctx, jobID)
	}, querycache.JobsPrefix)
}

func (m *MutationCoordinator) CreateKeyword(ctx context.Context, text string) (*model.Keyword, error) {
	var kw *model.Keyword
	err := m.run(ctx, "create_keyword", func(ctx context.Context) error {
		t, err := model.NormalizeKeyword(text)
		if err != nil {
			return derror.Validation("CreateKeyword", trimSentinel(err))
		}
		kw, err = m.gw.CreateKeyword(ctx, t)
		return err
	}, querycache.KeywordsKey)
	return kw, err
}

func (m *MutationCoordinator) DeleteKeyword(ctx context.Context, id int64) error {
	return m.run(ctx, "delete_keyword", func(ctx context.Context) error {
		return m.gw.DeleteKeyword(ctx, id)
	}, querycache.KeywordsKey)
}

// TriggerCrawl invalidates nothing: results surface through the next list read.
func (m *MutationCoordinator) TriggerCrawl(ctx context.Context, site, keyword string) (*model.CrawlAck, error) {
	var ack *model.CrawlAck
	err := m.run(ctx, "trigger_crawl", func(ctx context.Context) error {
		s, err := model.ParseSite(site)
		if err != nil {
			return derror.Validation("TriggerCrawl", err.Error())
		}
		kw := strings.TrimSpace(keyword)
		if kw == "" {
			return derror.Validation("TriggerCrawl", "keyword must not be empty")
		}
		ack, err = m.gw.TriggerCrawl(ctx, model.CrawlRequest{Site: s, Keyword: kw})
		return err
	})
	return ack, err
}

func (m *MutationCoordinator) TriggerCrawlAll(ctx context.Context) (*model.CrawlAck, error) {
	var ack *model.CrawlAck
	err := m.run(ctx, "trigger_crawl_all", func(ctx context.Context) error {
		var err error
		ack, err = m.gw.TriggerCrawlAll(ctx)
		return err
	})
	return ack, err
}

// TriggerAnalysis is the raw write; AnalysisTracker owns the guards and rechecks.
func (m *MutationCoordinator) TriggerAnalysis(ctx context.Context, jobID int64) (*model.AnalysisResult, error) {
	var res *model.AnalysisResult
	err := m.run(ctx, "trigger_analysis", func(ctx context.Context) error {
		var err error
		res, err = m.gw.TriggerAnalysis(ctx, jobID)
		return err
	}, querycache.JobKey(jobID), querycache.JobsPrefix)
	return res, err
}

func (m *MutationCoordinator) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.UserProfile, error) {
	var p *model.UserProfile
	err := m.run(ctx, "update_profile", func(ctx context.Context) error {
		clean, err := upd.Clean()
		if err != nil {
			return derror.Validation("UpdateProfile", trimSentinel(err))
		}
		p, err = m.gw.UpdateProfile(ctx, clean)
		return err
	}, querycache.ProfileKey)
	return p, err
}

func (m *MutationCoordinator) MarkNotificationsRead(ctx context.Context) error {
	return m.run(ctx, "mark_notifications_read", m.gw.MarkNotificationsRead, querycache.NewJobsCountKey)
}

// trimSentinel drops the "invalid argument: " prefix the domain adds.
func trimSentinel(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 && errors.Unwrap(err) != nil {
		return msg[i+2:]
	}
	return msg
}
