package querycache

import (
	"net/url"
	"strconv"
	"strings"

	"jdcrawler-dashboard/internal/domain/model"
)

// Key identifies a query: an entity kind followed by its parameter tuple,
// rendered as slash separated, path-escaped segments.
type Key string

const sep = "/"

const (
	KindJobs         = "jobs"
	KindJob          = "job"
	KindKeywords     = "keywords"
	KindProfile      = "profile"
	KindCrawlStatus  = "crawlStatus"
	KindJobStats     = "jobStats"
	KindNewJobsCount = "newJobsCount"
)

var (
	JobsPrefix      = Key(KindJobs)
	JobPrefix       = Key(KindJob)
	KeywordsKey     = Key(KindKeywords)
	ProfileKey      = Key(KindProfile)
	CrawlStatusKey  = Key(KindCrawlStatus)
	JobStatsKey     = Key(KindJobStats)
	NewJobsCountKey = Key(KindNewJobsCount)
)

func NewKey(parts ...string) Key {
	esc := make([]string, len(parts))
	for i, p := range parts {
		esc[i] = url.PathEscape(p)
	}
	return Key(strings.Join(esc, sep))
}

// JobsKey carries the committed search term, never the raw input.
func JobsKey(q model.JobQuery) Key {
	return NewKey(KindJobs,
		"q="+q.Search,
		"site="+string(q.Site),
		"bookmarked="+strconv.FormatBool(q.Bookmarked),
		"page="+strconv.Itoa(q.Page),
		"size="+strconv.Itoa(q.PageSize),
	)
}

func JobKey(id int64) Key { return NewKey(KindJob, strconv.FormatInt(id, 10)) }

// Kind is the first segment of the key.
func (k Key) Kind() string {
	s := string(k)
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i]
	}
	return s
}

// HasPrefix matches whole segments: "jobs" matches "jobs/..." but not "jobsX".
func (k Key) HasPrefix(prefix Key) bool {
	if prefix == "" {
		return true
	}
	return k == prefix || strings.HasPrefix(string(k), string(prefix)+sep)
}

func (k Key) String() string { return string(k) }
