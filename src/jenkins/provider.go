package jenkins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"clee/src/logger"
	"clee/src/provider"
	"clee/src/report"
)

const (
	defaultConcurrency  = 4
	defaultPollInterval = 2 * time.Second
)

// BuildCache stores completed builds between invocations. cache.FileCache
// satisfies it.
type BuildCache interface {
	GetOrFetch(key string, fetch func() ([]byte, bool, error)) ([]byte, error)
	Set(key string, content []byte) error
}

// cachedBuild is the cache entry for one completed build. Report is nil when
// the build never published test results.
type cachedBuild struct {
	Info   BuildInfo       `json:"info"`
	Report json.RawMessage `json:"report,omitempty"`
}

// Provider implements provider.Provider for Jenkins.
type Provider struct {
	client       *Client
	cache        BuildCache
	logger       logger.Logger
	concurrency  int
	pollInterval time.Duration
}

// Option configures a Provider.
type Option func(*Provider)

// WithCache enables caching of completed builds.
func WithCache(c BuildCache) Option {
	return func(p *Provider) { p.cache = c }
}

// WithLogger sets the logger for cache and fetch diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithConcurrency bounds the number of parallel build fetches.
func WithConcurrency(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithPollInterval sets the delay between log tail requests.
func WithPollInterval(d time.Duration) Option {
	return func(p *Provider) { p.pollInterval = d }
}

// NewProvider creates a Jenkins provider on top of client.
func NewProvider(client *Client, opts ...Option) *Provider {
	p := &Provider{
		client:       client,
		logger:       logger.NewSilentLogger(),
		concurrency:  defaultConcurrency,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns "jenkins"
func (p *Provider) Name() string {
	return "jenkins"
}

// ListJobs returns the names of all top-level jobs.
func (p *Provider) ListJobs(ctx context.Context) ([]string, error) {
	return p.client.GetJobs(ctx)
}

// ListBuilds returns a job's recent builds, newest first. Build lists are never
// cached.
func (p *Provider) ListBuilds(ctx context.Context, job string) ([]provider.BuildSummary, error) {
	builds, err := p.client.GetBuilds(ctx, job)
	if err != nil {
		return nil, err
	}

	summaries := make([]provider.BuildSummary, 0, len(builds))
	for _, b := range builds {
		summaries = append(summaries, provider.BuildSummary{
			Number:    b.Number,
			Result:    b.ResultString(),
			Building:  b.Building,
			Cause:     b.Cause(),
			Timestamp: time.UnixMilli(b.Timestamp),
		})
	}
	return summaries, nil
}

func cacheKey(job, buildID string) string {
	return job + "/" + buildID
}

// FetchBuild retrieves build metadata and its test report. Completed builds
// are served from and stored into the cache when one is configured. A cache
// entry that no longer decodes is replaced by a fresh fetch.
func (p *Provider) FetchBuild(ctx context.Context, job, buildID string) (*provider.Build, error) {
	if p.cache == nil {
		_, build, err := p.fetchEntry(ctx, job, buildID)
		return build, err
	}

	key := cacheKey(job, buildID)
	var fresh *provider.Build
	var fetchErr error
	data, err := p.cache.GetOrFetch(key, func() ([]byte, bool, error) {
		entry, build, err := p.fetchEntry(ctx, job, buildID)
		if err == nil {
			var encoded []byte
			if encoded, err = json.Marshal(entry); err == nil {
				fresh = build
				return encoded, !build.Building, nil
			}
		}
		fetchErr = err
		return nil, false, err
	})
	switch {
	case fetchErr != nil:
		return nil, fetchErr
	case fresh != nil:
		return fresh, nil
	case err != nil:
		p.logger.Warn("cache read failed for %s: %v", key, err)
		_, build, err := p.fetchEntry(ctx, job, buildID)
		return build, err
	}

	var entry cachedBuild
	if err := json.Unmarshal(data, &entry); err == nil {
		if build, err := toBuild(job, buildID, entry); err == nil {
			p.logger.Debug("cache hit for %s", key)
			return build, nil
		}
	}

	p.logger.Warn("ignoring corrupt cache entry for %s", key)
	entry, build, err := p.fetchEntry(ctx, job, buildID)
	if err != nil {
		return nil, err
	}
	if !build.Building {
		if encoded, err := json.Marshal(entry); err == nil {
			if err := p.cache.Set(key, encoded); err != nil {
				p.logger.Warn("cache write failed for %s: %v", key, err)
			}
		}
	}
	return build, nil
}

// fetchEntry downloads a build and its test report from Jenkins.
func (p *Provider) fetchEntry(ctx context.Context, job, buildID string) (cachedBuild, *provider.Build, error) {
	info, err := p.client.GetBuild(ctx, job, buildID)
	if err != nil {
		return cachedBuild{}, nil, err
	}

	entry := cachedBuild{Info: *info}
	data, found, err := p.client.GetTestReport(ctx, job, buildID)
	if err != nil {
		return cachedBuild{}, nil, err
	}
	if found {
		entry.Report = data
	}

	build, err := toBuild(job, buildID, entry)
	if err != nil {
		return cachedBuild{}, nil, err
	}
	return entry, build, nil
}

func toBuild(job, buildID string, entry cachedBuild) (*provider.Build, error) {
	info := entry.Info
	build := &provider.Build{
		Job:      job,
		Number:   buildID,
		URL:      info.URL,
		Building: info.Building,
		Result:   info.ResultString(),
		Report:   report.UnavailableReport(),
	}
	if info.Number != 0 {
		build.Number = strconv.Itoa(info.Number)
	}

	for _, a := range info.Actions {
		action := provider.Action{}
		for _, param := range a.Parameters {
			action.Parameters = append(action.Parameters, provider.Parameter{Name: param.Name, Value: param.Value})
		}
		build.Actions = append(build.Actions, action)
	}

	if entry.Report != nil {
		r, err := report.DecodeReport(entry.Report)
		if err != nil {
			return nil, fmt.Errorf("build %s/%s: %w", job, buildID, err)
		}
		build.Report = r
	}

	return build, nil
}

// FetchBuilds fetches several builds in parallel. Results keep the order of
// ids. A build that cannot be fetched or decoded is returned with Err set so
// callers can skip it; only cancellation and authentication failures abort the
// batch. progress, when non-nil, is called once per build.
func (p *Provider) FetchBuilds(ctx context.Context, job string, ids []string, progress func()) ([]*provider.Build, error) {
	builds := make([]*provider.Build, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			b, err := p.FetchBuild(gctx, job, id)
			if err != nil {
				if gctx.Err() != nil || errors.Is(err, provider.ErrAuthFailed) {
					return fmt.Errorf("failed to fetch build %s: %w", id, err)
				}
				p.logger.Warn("skipping build %s: %v", id, err)
				b = &provider.Build{Job: job, Number: id, Report: report.UnavailableReport(), Err: err}
			}
			builds[i] = b
			if progress != nil {
				progress()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return builds, nil
}

// TriggerBuild queues a new build of job.
func (p *Provider) TriggerBuild(ctx context.Context, job string, params map[string]string) error {
	return p.client.TriggerBuild(ctx, job, params)
}

// FetchLogs retrieves the full console log of a build.
func (p *Provider) FetchLogs(ctx context.Context, job, buildID string) (string, error) {
	return p.client.GetConsoleText(ctx, job, buildID)
}

// TailLogs streams the console log until the build completes.
func (p *Provider) TailLogs(ctx context.Context, job, buildID string) provider.LogStream {
	return &progressiveStream{
		client:   p.client,
		job:      job,
		buildID:  buildID,
		interval: p.pollInterval,
	}
}

// progressiveStream walks the progressive text endpoint forward. Once the
// server stops reporting more data the stream is exhausted for good.
type progressiveStream struct {
	client   *Client
	job      string
	buildID  string
	offset   int64
	idle     bool
	done     bool
	interval time.Duration
}

func (s *progressiveStream) Next(ctx context.Context) (string, error) {
	for {
		if s.done {
			return "", io.EOF
		}

		// Wait only after a poll that produced nothing.
		if s.idle {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.interval):
			}
		}

		chunk, err := s.client.GetProgressiveText(ctx, s.job, s.buildID, s.offset)
		if err != nil {
			return "", err
		}
		s.offset = chunk.Next
		s.done = !chunk.MoreData

		if chunk.Text != "" {
			s.idle = false
			return chunk.Text, nil
		}
		s.idle = true
	}
}
