// File: internal/infra/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jdcrawler-dashboard/internal/domain/model"
	"jdcrawler-dashboard/internal/domain/ports/gateway"
	derror "jdcrawler-dashboard/internal/error"
	"jdcrawler-dashboard/internal/infra/logging"
	"jdcrawler-dashboard/internal/infra/metrics"
)

var _ gateway.Gateway = (*Client)(nil)

var tracer = otel.Tracer("jdcrawler-dashboard/backend")

// Client implements gateway.Gateway over the crawler backend's JSON REST API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zerolog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "BackendClient").Logger()
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: &l,
	}, nil
}

// do sends one request and decodes a 2xx body into out (when non-nil).
// Every failure comes back as *derror.Error.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	ctx, span := tracer.Start(ctx, "Backend."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	defer logging.TraceDuration(c.log, "Backend."+op)()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("backend.path", path))

	start := time.Now()
	result := "ok"
	defer func() { metrics.ObserveGateway(op, result, time.Since(start).Milliseconds()) }()

	fail := func(e *derror.Error) error {
		result = strings.ToLower(string(e.Kind))
		span.RecordError(e)
		span.SetStatus(codes.Error, e.Error())
		return e
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fail(derror.Internal(op, "encode request", err))
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return fail(derror.Internal(op, "build request", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Msg("backend unreachable")
		return fail(derror.Network(op, err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warn().Err(cerr).Msg("failed to close response body")
		}
	}()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorDetail(resp.Body)
		c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Str("detail", msg).Msg("backend rejected request")
		return fail(derror.FromStatus(op, resp.StatusCode, msg))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fail(derror.Decode(op, err))
	}
	return nil
}

// errorDetail extracts the backend's {"detail": ...} message.
func errorDetail(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(b, &env); err == nil && len(env.Detail) > 0 {
		var s string
		if json.Unmarshal(env.Detail, &s) == nil {
			return s
		}
		return string(env.Detail)
	}
	return strings.TrimSpace(string(b))
}

func jobPath(id int64, suffix string) string {
	return "/api/jobs/" + strconv.FormatInt(id, 10) + suffix
}

func (c *Client) ListJobs(ctx context.Context, q model.JobQuery) ([]model.Job, error) {
	v := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("q", s)
	}
	if q.Site != "" {
		v.Set("site", string(q.Site))
	}
	if q.Bookmarked {
		v.Set("bookmarked", "true")
	}
	v.Set("limit", strconv.Itoa(q.Limit()))
	v.Set("offset", strconv.Itoa(q.Offset()))

	var jobs []model.Job
	if err := c.do(ctx, "ListJobs", http.MethodGet, "/api/jobs", v, nil, &jobs); err != nil {
		return nil, err
	}
	for i := range jobs {
		jobs[i].Normalize()
	}
	return jobs, nil
}

func (c *Client) GetJob(ctx context.Context, id int64) (*model.Job, error) {
	var j model.Job
	if err := c.do(ctx, "GetJob", http.MethodGet, jobPath(id, ""), nil, nil, &j); err != nil {
		return nil, err
	}
	j.Normalize()
	return &j, nil
}

func (c *Client) ToggleBookmark(ctx context.Context, id int64) (*model.Job, error) {
	var j model.Job
	if err := c.do(ctx, "ToggleBookmark", http.MethodPatch, jobPath(id, "/bookmark"), nil, nil, &j); err != nil {
		return nil, err
	}
	j.Normalize()
	return &j, nil
}

// HideJob calls the hidden toggle; the dashboard only ever hides.
func (c *Client) HideJob(ctx context.Context, id int64) error {
	return c.do(ctx, "HideJob", http.MethodPatch, jobPath(id, "/hidden"), nil, nil, nil)
}

func (c *Client) JobStats(ctx context.Context) (model.JobStats, error) {
	stats := model.JobStats{}
	if err := c.do(ctx, "JobStats", http.MethodGet, "/api/jobs/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *Client) NewJobsCount(ctx context.Context) (model.NewJobsCount, error) {
	var n model.NewJobsCount
	err := c.do(ctx, "NewJobsCount", http.MethodGet, "/api/notifications/new-jobs-count", nil, nil, &n)
	return n, err
}

func (c *Client) MarkNotificationsRead(ctx context.Context) error {
	return c.do(ctx, "MarkNotificationsRead", http.MethodPost, "/api/notifications/mark-read", nil, nil, nil)
}

func (c *Client) CrawlStatus(ctx context.Context) (*model.CrawlStatus, error) {
	var st model.CrawlStatus
	if err := c.do(ctx, "CrawlStatus", http.MethodGet, "/api/crawl/status", nil, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) TriggerCrawl(ctx context.Context, req model.CrawlRequest) (*model.CrawlAck, error) {
	var ack model.CrawlAck
	if err := c.do(ctx, "TriggerCrawl", http.MethodPost, "/api/crawl", nil, req, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

func (c *Client) TriggerCrawlAll(ctx context.Context) (*model.CrawlAck, error) {
	var ack model.CrawlAck
	if err := c.do(ctx, "TriggerCrawlAll", http.MethodPost, "/api/crawl/all", nil, nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

func (c *Client) TriggerAnalysis(ctx context.Context, jobID int64) (*model.AnalysisResult, error) {
	var res model.AnalysisResult
	path := "/api/analysis/" + strconv.FormatInt(jobID, 10)
	if err := c.do(ctx, "TriggerAnalysis", http.MethodPost, path, nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListKeywords(ctx context.Context) ([]model.Keyword, error) {
	var kws []model.Keyword
	if err := c.do(ctx, "ListKeywords", http.MethodGet, "/api/keywords", nil, nil, &kws); err != nil {
		return nil, err
	}
	return kws, nil
}

func (c *Client) CreateKeyword(ctx context.Context, text string) (*model.Keyword, error) {
	var kw model.Keyword
	body := map[string]string{"keyword": text}
	if err := c.do(ctx, "CreateKeyword", http.MethodPost, "/api/keywords", nil, body, &kw); err != nil {
		return nil, err
	}
	return &kw, nil
}

func (c *Client) DeleteKeyword(ctx context.Context, id int64) error {
	return c.do(ctx, "DeleteKeyword", http.MethodDelete, "/api/keywords/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

func (c *Client) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	var p model.UserProfile
	if err := c.do(ctx, "GetProfile", http.MethodGet, "/api/profile", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.UserProfile, error) {
	var p model.UserProfile
	if err := c.do(ctx, "UpdateProfile", http.MethodPost, "/api/profile", nil, upd, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
