// Package gatewaytest provides an in-memory gateway.Gateway.
package gatewaytest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"jdcrawler-dashboard/internal/domain/model"
	"jdcrawler-dashboard/internal/domain/ports/gateway"
	derror "jdcrawler-dashboard/internal/error"
)

// Memory is an in-memory crawler backend for tests and the offline demo.
// Any *Func field overrides the default behavior; Calls counts every
// invocation by method name.
type Memory struct {
	mu       sync.Mutex
	Jobs     map[int64]*model.Job
	Keywords []model.Keyword
	Profile  model.UserProfile
	Status   model.CrawlStatus
	NewJobs  int
	nextKW   int64
	calls    map[string]int

	ToggleBookmarkFunc  func(ctx context.Context, id int64) (*model.Job, error)
	TriggerAnalysisFunc func(ctx context.Context, id int64) (*model.AnalysisResult, error)
	ListJobsFunc        func(ctx context.Context, q model.JobQuery) ([]model.Job, error)
	GetJobFunc          func(ctx context.Context, id int64) (*model.Job, error)
	CreateKeywordFunc   func(ctx context.Context, text string) (*model.Keyword, error)
}

var _ gateway.Gateway = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{Jobs: map[int64]*model.Job{}, nextKW: 100, calls: map[string]int{}}
}

func (m *Memory) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *Memory) hit(method string) {
	m.mu.Lock()
	m.calls[method]++
	m.mu.Unlock()
}

func (m *Memory) AddJob(j model.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := j
	m.Jobs[j.ID] = &cp
}

func (m *Memory) UpdateJob(id int64, fn func(j *model.Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.Jobs[id])
}

func (m *Memory) snapshot(id int64) (*model.Job, error) {
	j, ok := m.Jobs[id]
	if !ok {
		return nil, derror.FromStatus("GetJob", 404, "Job not found")
	}
	cp := *j
	cp.Normalize()
	return &cp, nil
}

func (m *Memory) ListJobs(ctx context.Context, q model.JobQuery) ([]model.Job, error) {
	m.hit("ListJobs")
	if m.ListJobsFunc != nil {
		return m.ListJobsFunc(ctx, q)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.Jobs))
	for id := range m.Jobs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []model.Job
	for _, id := range ids {
		j := m.Jobs[id]
		if j.IsHidden || (q.Site != "" && j.Site != q.Site) || (q.Bookmarked && !j.IsBookmarked) {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(j.Title), strings.ToLower(q.Search)) {
			continue
		}
		cp := *j
		cp.Normalize()
		out = append(out, cp)
	}
	lo := q.Offset()
	if lo > len(out) {
		lo = len(out)
	}
	hi := lo + q.Limit()
	if hi > len(out) {
		hi = len(out)
	}
	return out[lo:hi], nil
}

func (m *Memory) GetJob(ctx context.Context, id int64) (*model.Job, error) {
	m.hit("GetJob")
	if m.GetJobFunc != nil {
		return m.GetJobFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(id)
}

func (m *Memory) ToggleBookmark(ctx context.Context, id int64) (*model.Job, error) {
	m.hit("ToggleBookmark")
	if m.ToggleBookmarkFunc != nil {
		return m.ToggleBookmarkFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.Jobs[id]; ok {
		j.IsBookmarked = !j.IsBookmarked
	}
	return m.snapshot(id)
}

func (m *Memory) HideJob(ctx context.Context, id int64) error {
	m.hit("HideJob")
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.Jobs[id]
	if !ok {
		return derror.FromStatus("HideJob", 404, "Job not found")
	}
	j.IsHidden = !j.IsHidden
	return nil
}

func (m *Memory) JobStats(ctx context.Context) (model.JobStats, error) {
	m.hit("JobStats")
	m.mu.Lock()
	defer m.mu.Unlock()
	st := model.JobStats{}
	for _, j := range m.Jobs {
		st[string(j.Site)]++
	}
	return st, nil
}

func (m *Memory) NewJobsCount(ctx context.Context) (model.NewJobsCount, error) {
	m.hit("NewJobsCount")
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.NewJobsCount{Count: m.NewJobs}, nil
}

func (m *Memory) MarkNotificationsRead(ctx context.Context) error {
	m.hit("MarkNotificationsRead")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NewJobs = 0
	return nil
}

func (m *Memory) CrawlStatus(ctx context.Context) (*model.CrawlStatus, error) {
	m.hit("CrawlStatus")
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.Status
	return &st, nil
}

func (m *Memory) TriggerCrawl(ctx context.Context, req model.CrawlRequest) (*model.CrawlAck, error) {
	m.hit("TriggerCrawl")
	return &model.CrawlAck{Status: "completed", Site: string(req.Site), Keyword: req.Keyword}, nil
}

func (m *Memory) TriggerCrawlAll(ctx context.Context) (*model.CrawlAck, error) {
	m.hit("TriggerCrawlAll")
	return &model.CrawlAck{Status: "accepted"}, nil
}

func (m *Memory) TriggerAnalysis(ctx context.Context, id int64) (*model.AnalysisResult, error) {
	m.hit("TriggerAnalysis")
	if m.TriggerAnalysisFunc != nil {
		return m.TriggerAnalysisFunc(ctx, id)
	}
	return &model.AnalysisResult{}, nil
}

func (m *Memory) ListKeywords(ctx context.Context) ([]model.Keyword, error) {
	m.hit("ListKeywords")
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Keyword(nil), m.Keywords...), nil
}

func (m *Memory) CreateKeyword(ctx context.Context, text string) (*model.Keyword, error) {
	m.hit("CreateKeyword")
	if m.CreateKeywordFunc != nil {
		return m.CreateKeywordFunc(ctx, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextKW++
	kw := model.Keyword{ID: m.nextKW, Keyword: text, IsActive: true}
	m.Keywords = append(m.Keywords, kw)
	return &kw, nil
}

func (m *Memory) DeleteKeyword(ctx context.Context, id int64) error {
	m.hit("DeleteKeyword")
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, k := range m.Keywords {
		if k.ID == id {
			m.Keywords = append(m.Keywords[:i], m.Keywords[i+1:]...)
			return nil
		}
	}
	return derror.FromStatus("DeleteKeyword", 404, "Keyword not found")
}

func (m *Memory) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	m.hit("GetProfile")
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.Profile
	return &p, nil
}

func (m *Memory) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.UserProfile, error) {
	m.hit("UpdateProfile")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Profile = model.UserProfile{
		TechStack:        upd.TechStack,
		ExperienceYears:  upd.ExperienceYears,
		InterestKeywords: upd.InterestKeywords,
		ExcludeKeywords:  upd.ExcludeKeywords,
	}
	p := m.Profile
	return &p, nil
}
