package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"jdcrawler-dashboard/internal/domain"
	"jdcrawler-dashboard/internal/domain/model"
	"jdcrawler-dashboard/internal/infra/logging"
	"jdcrawler-dashboard/internal/infra/querycache"
	"jdcrawler-dashboard/internal/usecase"
)

// Dashboard composes the read path, mutations, search and analysis into the
// screens of the job dashboard. Methods return view models ready to render.
type Dashboard struct {
	reader   *usecase.QueryService
	mut      usecase.MutationUseCase
	search   *usecase.SearchController
	analysis *usecase.AnalysisTracker
	crawl    CrawlView
	cache    *querycache.Cache
	prefetch Prefetcher

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	detail *detailView

	countdown countdownFeed

	log *zerolog.Logger
}

// detailView is the open job detail. Closing it cancels reads made on its behalf.
type detailView struct {
	jobID  int64
	ctx    context.Context
	cancel context.CancelFunc
}

type Deps struct {
	Reader   *usecase.QueryService
	Mutator  usecase.MutationUseCase
	Search   *usecase.SearchController
	Analysis *usecase.AnalysisTracker
	Crawl    CrawlView
	Cache    *querycache.Cache
	Prefetch Prefetcher
}

func NewDashboard(parent context.Context, d Deps, logger *zerolog.Logger) *Dashboard {
	if logger == nil {
		logger = logging.Nop()
	}
	if d.Prefetch == nil {
		d.Prefetch = inlinePrefetcher{}
	}
	l := logger.With().Str("component", "Dashboard").Logger()
	base, cancel := context.WithCancel(parent)
	db := &Dashboard{
		reader:   d.Reader,
		mut:      d.Mutator,
		search:   d.Search,
		analysis: d.Analysis,
		crawl:    d.Crawl,
		cache:    d.Cache,
		prefetch: d.Prefetch,
		base:     base,
		cancel:   cancel,
		log:      &l,
	}
	d.Search.OnChange(db.prefetchPage)
	if d.Crawl != nil {
		d.Crawl.OnTick(db.countdown.publish)
	}
	return db
}

// Close cancels the detail view and background analysis waits.
func (d *Dashboard) Close() {
	d.cancel()
	d.mu.Lock()
	if d.detail != nil {
		d.detail.cancel()
		d.detail = nil
	}
	d.mu.Unlock()
	d.search.Close()
	d.wg.Wait()
}

// Dashboard renders the landing screen. Stats and the badge are read
// concurrently; a failure of one does not hide the other.
func (d *Dashboard) Dashboard(ctx context.Context) DashboardView {
	ctx = logging.WithView(ctx, "dashboard")
	var (
		wg    sync.WaitGroup
		stats querycache.Result[model.JobStats]
		badge querycache.Result[model.NewJobsCount]
	)
	wg.Add(2)
	go func() { defer wg.Done(); stats = d.reader.Stats(ctx) }()
	go func() { defer wg.Done(); badge = d.reader.NewJobsCount(ctx) }()
	wg.Wait()

	v := DashboardView{
		Stats:      stats.Data,
		TotalJobs:  stats.Data.Total(),
		NewJobs:    badge.Data.Count,
		Loading:    stats.Loading || badge.Loading,
		StatsError: errString(stats.Err),
		BadgeError: errString(badge.Err),
	}
	if v.Stats == nil {
		v.Stats = model.JobStats{}
	}
	if d.crawl != nil {
		v.Crawl = d.crawl.Snapshot()
	}
	return v
}

// Jobs renders the job browser for the current search state.
func (d *Dashboard) Jobs(ctx context.Context) JobsView {
	ctx = logging.WithView(ctx, "jobs")
	st := d.search.State()
	page := d.reader.Jobs(ctx, st.Query(d.reader.PageSize()))
	if page.HasNext {
		next := page.Query
		next.Page++
		d.submitPrefetch(next)
	}
	v := JobsView{
		Search:  st,
		Jobs:    page.Jobs,
		HasNext: page.HasNext,
		HasPrev: page.HasPrev,
		Loading: page.Loading,
		Stale:   page.Stale,
		Error:   errString(page.Err),
	}
	if id, ok := d.OpenDetail(); ok {
		v.OpenJob = id
	}
	if v.Jobs == nil {
		v.Jobs = []model.Job{}
	}
	return v
}

func (d *Dashboard) SearchState() usecase.SearchState { return d.search.State() }

// Search records a keystroke; the list query follows after the debounce delay.
func (d *Dashboard) Search(text string) usecase.SearchState {
	d.search.Input(text)
	return d.search.State()
}

// SubmitSearch commits the typed term immediately.
func (d *Dashboard) SubmitSearch() usecase.SearchState {
	d.search.Flush()
	return d.search.State()
}

// FilterSite narrows the list to one site; an empty name clears the filter.
func (d *Dashboard) FilterSite(name string) (usecase.SearchState, error) {
	var site model.Site
	if name != "" {
		s, err := model.ParseSite(name)
		if err != nil {
			return d.search.State(), fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
		site = s
	}
	d.search.SetSite(site)
	return d.search.State(), nil
}

func (d *Dashboard) FilterBookmarked(only bool) usecase.SearchState {
	d.search.SetBookmarked(only)
	return d.search.State()
}

// NextPage advances only when the current page was full.
func (d *Dashboard) NextPage(ctx context.Context) usecase.SearchState {
	st := d.search.State()
	page := d.reader.Jobs(ctx, st.Query(d.reader.PageSize()))
	d.search.Next(page.HasNext)
	return d.search.State()
}

func (d *Dashboard) PrevPage() usecase.SearchState {
	d.search.Prev()
	return d.search.State()
}

// GoToPage jumps to page; anything below 1 lands on the first page.
func (d *Dashboard) GoToPage(page int) usecase.SearchState {
	d.search.SetPage(page)
	return d.search.State()
}

// OpenJobDetail renders job id and makes it the open detail view, closing
// any previous one. It returns domain.ErrViewClosed when the view was closed
// while the read was in flight.
func (d *Dashboard) OpenJobDetail(ctx context.Context, id int64) (JobDetailView, error) {
	view := d.openDetail(id)
	ctx = logging.WithView(ctx, "job_detail")

	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(view.ctx, cancel)
	defer stop()

	r := d.reader.Job(rctx, id)
	if view.ctx.Err() != nil {
		return JobDetailView{}, fmt.Errorf("job %d: %w", id, domain.ErrViewClosed)
	}
	v := JobDetailView{
		Job:       r.Data,
		Loading:   r.Loading,
		Stale:     r.Stale,
		FetchedAt: r.FetchedAt,
		Error:     errString(r.Err),
		Polling:   d.analysis.Pending(id),
	}
	if r.HasData {
		av, err := d.analysis.View(rctx, id)
		if err == nil {
			v.Analysis = av
		}
	} else if r.Err != nil {
		return v, r.Err
	}
	return v, nil
}

func (d *Dashboard) openDetail(id int64) *detailView {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.detail != nil {
		d.detail.cancel()
	}
	ctx, cancel := context.WithCancel(d.base)
	d.detail = &detailView{jobID: id, ctx: ctx, cancel: cancel}
	return d.detail
}

// CloseJobDetail closes the detail view of job id if it is the open one.
// Late responses still land in the cache but no longer render.
func (d *Dashboard) CloseJobDetail(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.detail == nil || d.detail.jobID != id {
		return false
	}
	d.detail.cancel()
	d.detail = nil
	return true
}

// OpenDetail reports the id of the open detail view.
func (d *Dashboard) OpenDetail() (int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.detail == nil {
		return 0, false
	}
	return d.detail.jobID, true
}

func (d *Dashboard) ToggleBookmark(ctx context.Context, id int64) (*model.Job, error) {
	return d.mut.ToggleBookmark(ctx, id)
}

// Hide removes the job from every list; an open detail view of it is closed.
func (d *Dashboard) Hide(ctx context.Context, id int64) error {
	if err := d.mut.Hide(ctx, id); err != nil {
		return err
	}
	d.CloseJobDetail(id)
	return nil
}

// StartAnalysis sends the trigger under the caller's context and waits for the
// result in the background. The returned view shows PENDING.
func (d *Dashboard) StartAnalysis(ctx context.Context, id int64) (model.AnalysisView, error) {
	if err := d.analysis.Trigger(ctx, id); err != nil {
		return model.AnalysisView{}, err
	}
	v, err := d.analysis.View(ctx, id)
	if err != nil {
		v = model.AnalysisView{JobID: id, State: model.AnalysisPending}
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		rep := d.analysis.Await(d.base, id)
		d.log.Info().Int64("job_id", id).Str("outcome", string(rep.Outcome)).Int("attempts", rep.Attempts).Msg("analysis finished")
	}()
	return v, nil
}

func (d *Dashboard) Keywords(ctx context.Context) ([]model.Keyword, error) {
	r := d.reader.Keywords(logging.WithView(ctx, "keywords"))
	if !r.HasData {
		return nil, firstErr(r.Err, ctx.Err())
	}
	return r.Data, nil
}

func (d *Dashboard) AddKeyword(ctx context.Context, text string) (*model.Keyword, error) {
	return d.mut.CreateKeyword(ctx, text)
}

func (d *Dashboard) RemoveKeyword(ctx context.Context, id int64) error {
	return d.mut.DeleteKeyword(ctx, id)
}

func (d *Dashboard) Profile(ctx context.Context) (*model.UserProfile, error) {
	r := d.reader.Profile(logging.WithView(ctx, "profile"))
	if !r.HasData {
		return nil, firstErr(r.Err, ctx.Err())
	}
	return r.Data, nil
}

func (d *Dashboard) SaveProfile(ctx context.Context, upd model.ProfileUpdate) (*model.UserProfile, error) {
	return d.mut.UpdateProfile(ctx, upd)
}

func (d *Dashboard) Crawl(ctx context.Context, site, keyword string) (*model.CrawlAck, error) {
	return d.mut.TriggerCrawl(ctx, site, keyword)
}

func (d *Dashboard) CrawlAll(ctx context.Context) (*model.CrawlAck, error) {
	return d.mut.TriggerCrawlAll(ctx)
}

func (d *Dashboard) MarkNotificationsRead(ctx context.Context) error {
	return d.mut.MarkNotificationsRead(ctx)
}

// Events subscribes to change notifications for the given key prefixes;
// no prefix means every key.
func (d *Dashboard) Events(prefixes ...querycache.Key) *querycache.Subscription {
	if len(prefixes) == 0 {
		prefixes = []querycache.Key{""}
	}
	return d.cache.Subscribe(prefixes...)
}

// Countdowns streams crawl countdown changes until stop is called. A slow
// reader only ever sees the latest value.
func (d *Dashboard) Countdowns() (<-chan model.CountdownState, func()) {
	return d.countdown.subscribe()
}

func (d *Dashboard) prefetchPage(st usecase.SearchState) {
	d.submitPrefetch(st.Query(d.reader.PageSize()))
}

func (d *Dashboard) submitPrefetch(q model.JobQuery) {
	err := d.prefetch.Submit(func(ctx context.Context) error {
		return d.reader.Jobs(ctx, q).Err
	})
	if err != nil {
		d.log.Debug().Err(err).Int("page", q.Page).Msg("prefetch skipped")
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return errors.New("no data")
}
