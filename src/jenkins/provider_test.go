package jenkins

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clee/src/cache"
	"clee/src/provider"
	"clee/src/report"
)

const sampleReport = `{"suites":[{"name":"smoke","cases":[
	{"name":"test_login@chrome","status":"PASSED","className":"Login","duration":1.5},
	{"name":"test_logout","status":"REGRESSION","errorDetails":"boom"}
]}]}`

// fakeJenkins serves builds of job "system-tests". Build 3 has no report,
// build 4 is still running and build 9 does not exist.
type fakeJenkins struct {
	buildRequests atomic.Int32
}

func (f *fakeJenkins) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 4 || parts[0] != "job" || parts[1] != "system-tests" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	number := parts[2]
	if number == "9" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch strings.Join(parts[3:], "/") {
	case "api/json":
		f.buildRequests.Add(1)
		building := number == "4"
		result := `"SUCCESS"`
		if building {
			result = "null"
		}
		fmt.Fprintf(w, `{"number":%s,"url":"http://jenkins/job/system-tests/%s/","result":%s,"building":%v,
			"actions":[{"_class":"hudson.model.CauseAction"},{"_class":"hudson.model.ParametersAction","parameters":[
				{"name":"system_tests_branch","value":"main"},{"name":"retries","value":3}]}]}`,
			number, number, result, building)
	case "testReport/api/json":
		if number == "3" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, sampleReport)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestProvider(t *testing.T, opts ...Option) (*Provider, *fakeJenkins) {
	t.Helper()
	fake := &fakeJenkins{}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return NewProvider(NewClient(server.URL, "alice", "token"), opts...), fake
}

func TestProvider_FetchBuild(t *testing.T) {
	p, _ := newTestProvider(t)

	build, err := p.FetchBuild(context.Background(), "system-tests", "2")
	require.NoError(t, err)

	assert.Equal(t, "2", build.Number)
	assert.Equal(t, "SUCCESS", build.Result)
	assert.False(t, build.Building)
	require.True(t, build.Report.Available())
	require.Len(t, build.Report.Suites, 1)
	assert.Equal(t, "test_login", build.Report.Suites[0].Cases[0].CanonicalName())

	params, ok := build.ParametersWith("system_tests_branch")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"system_tests_branch": "main", "retries": "3"}, params)
}

func TestProvider_FetchBuild_NoReport(t *testing.T) {
	p, _ := newTestProvider(t)

	build, err := p.FetchBuild(context.Background(), "system-tests", "3")
	require.NoError(t, err)
	assert.False(t, build.Report.Available())
	assert.Equal(t, report.StatusError, build.Report.Status)
}

func TestProvider_FetchBuild_NotFound(t *testing.T) {
	p, _ := newTestProvider(t)

	_, err := p.FetchBuild(context.Background(), "other-job", "1")
	assert.ErrorIs(t, err, provider.ErrBuildNotFound)
}

func TestProvider_FetchBuild_CachesCompletedBuilds(t *testing.T) {
	c, err := cache.NewFileCache("builds", cache.WithBaseDir(filepath.Join(t.TempDir(), "cache")))
	require.NoError(t, err)
	p, fake := newTestProvider(t, WithCache(c))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		build, err := p.FetchBuild(ctx, "system-tests", "2")
		require.NoError(t, err)
		require.True(t, build.Report.Available())
	}
	assert.Equal(t, int32(1), fake.buildRequests.Load())

	for i := 0; i < 2; i++ {
		build, err := p.FetchBuild(ctx, "system-tests", "4")
		require.NoError(t, err)
		assert.True(t, build.Building)
	}
	assert.Equal(t, int32(3), fake.buildRequests.Load(), "running builds are never cached")

	// A cached build without a report stays unavailable.
	_, err = p.FetchBuild(ctx, "system-tests", "3")
	require.NoError(t, err)
	build, err := p.FetchBuild(ctx, "system-tests", "3")
	require.NoError(t, err)
	assert.False(t, build.Report.Available())
	assert.Equal(t, int32(4), fake.buildRequests.Load())
}

func TestProvider_FetchBuilds(t *testing.T) {
	p, _ := newTestProvider(t, WithConcurrency(2))

	var mu sync.Mutex
	done := 0
	builds, err := p.FetchBuilds(context.Background(), "system-tests", []string{"1", "2", "3", "4"}, func() {
		mu.Lock()
		done++
		mu.Unlock()
	})
	require.NoError(t, err)
	require.Len(t, builds, 4)
	assert.Equal(t, 4, done)
	for i, b := range builds {
		assert.Equal(t, fmt.Sprint(i+1), b.Number)
	}
}

func TestProvider_FetchBuilds_SkipsMissingBuild(t *testing.T) {
	p, _ := newTestProvider(t)

	calls := 0
	builds, err := p.FetchBuilds(context.Background(), "system-tests", []string{"1", "9", "2"}, func() { calls++ })
	require.NoError(t, err)
	require.Len(t, builds, 3)
	assert.Equal(t, 3, calls)

	assert.NoError(t, builds[0].Err)
	assert.ErrorIs(t, builds[1].Err, provider.ErrBuildNotFound)
	assert.Equal(t, "9", builds[1].Number)
	assert.NoError(t, builds[2].Err)

	analysis := report.Analyze([]report.BuildReport{
		builds[0].TestResults(), builds[1].TestResults(), builds[2].TestResults(),
	}, report.Options{})
	assert.Equal(t, []string{"1", "2"}, analysis.Folded)
	require.Len(t, analysis.Skipped, 1)
	assert.Equal(t, report.ReasonFetch, analysis.Skipped[0].Reason)
	assert.Equal(t, "9", analysis.Skipped[0].Build)
}

func TestProvider_FetchBuilds_AuthFailureAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()
	p := NewProvider(NewClient(server.URL, "u", "wrong"))

	builds, err := p.FetchBuilds(context.Background(), "system-tests", []string{"1", "2"}, nil)
	assert.Nil(t, builds)
	assert.ErrorIs(t, err, provider.ErrAuthFailed)
}

func TestProvider_FetchBuilds_Cancelled(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.FetchBuilds(ctx, "system-tests", []string{"1", "2"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProvider_FetchBuild_RefetchesUndecodableCacheEntry(t *testing.T) {
	c, err := cache.NewFileCache("builds", cache.WithBaseDir(filepath.Join(t.TempDir(), "cache")))
	require.NoError(t, err)
	require.NoError(t, c.Set(cacheKey("system-tests", "2"), []byte(`{"info":{"number":2},"report":{"suites":[{"cases":[]}]}}`)))

	p, fake := newTestProvider(t, WithCache(c))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		build, err := p.FetchBuild(ctx, "system-tests", "2")
		require.NoError(t, err)
		require.True(t, build.Report.Available())
		assert.Equal(t, "SUCCESS", build.Result)
	}
	assert.Equal(t, int32(1), fake.buildRequests.Load(), "the refreshed entry replaces the broken one")
}

func TestProvider_ListBuilds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"builds":[{"number":7,"result":"ABORTED","building":false,"timestamp":1700000000000,
			"actions":[{"causes":[{"shortDescription":"Started by timer"}]}]}]}`)
	}))
	defer server.Close()
	p := NewProvider(NewClient(server.URL, "u", "p"))

	builds, err := p.ListBuilds(context.Background(), "system-tests")
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, provider.BuildSummary{
		Number:    7,
		Result:    "ABORTED",
		Cause:     "Started by timer",
		Timestamp: time.UnixMilli(1700000000000),
	}, builds[0])
}

func TestProvider_TailLogs(t *testing.T) {
	chunks := []struct {
		text string
		more bool
	}{
		{text: "step 1\n", more: true},
		{text: "", more: true},
		{text: "step 2\n", more: true},
		{text: "done\n", more: false},
	}
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := int(calls.Add(1)) - 1
		if i >= len(chunks) {
			t.Errorf("unexpected poll %d", i)
			return
		}
		w.Header().Set("X-Text-Size", fmt.Sprint((i+1)*10))
		if chunks[i].more {
			w.Header().Set("X-More-Data", "true")
		}
		io.WriteString(w, chunks[i].text)
	}))
	defer server.Close()

	p := NewProvider(NewClient(server.URL, "u", "p"), WithPollInterval(time.Millisecond))
	stream := p.TailLogs(context.Background(), "system-tests", "4")

	var out strings.Builder
	require.NoError(t, provider.CopyLogs(context.Background(), &out, stream))
	assert.Equal(t, "step 1\nstep 2\ndone\n", out.String())

	_, err := stream.Next(context.Background())
	assert.Equal(t, io.EOF, err, "an exhausted stream stays exhausted")
	assert.Equal(t, int32(4), calls.Load())
}

func TestProvider_TailLogs_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-More-Data", "true")
	}))
	defer server.Close()

	p := NewProvider(NewClient(server.URL, "u", "p"), WithPollInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	stream := p.TailLogs(ctx, "system-tests", "4")

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := stream.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
