// Package jenkins provides a client for the Jenkins remote access API.
package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"clee/src/provider"
)

const (
	buildsTree = "builds[number,result,building,timestamp,url,actions[causes[shortDescription]]]"
)

// Client is a Jenkins API client authenticating with a username and API token.
type Client struct {
	username   string
	password   string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Jenkins API client.
func NewClient(baseURL, username, password string) *Client {
	return &Client{
		username: username,
		password: password,
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// JobPath converts a job name into its URL path. Folder jobs ("team/job")
// become nested /job segments.
func JobPath(job string) string {
	var b strings.Builder
	for _, part := range strings.Split(strings.Trim(job, "/"), "/") {
		b.WriteString("/job/")
		b.WriteString(url.PathEscape(part))
	}
	return b.String()
}

func buildPath(job, number string) string {
	return JobPath(job) + "/" + url.PathEscape(number)
}

// do executes a request and maps authentication and missing-resource statuses
// to provider sentinels. notFound is returned for 404 responses.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, notFound error) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s %s returned %d", provider.ErrAuthFailed, method, path, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound && notFound != nil:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", notFound, path)
	case resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound:
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(data))
	}

	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, notFound error, v interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, notFound)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetJobs returns the names of the top-level jobs.
func (c *Client) GetJobs(ctx context.Context) ([]string, error) {
	var list jobList
	if err := c.getJSON(ctx, "/api/json?tree=jobs[name]", nil, &list); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(list.Jobs))
	for _, j := range list.Jobs {
		names = append(names, j.Name)
	}
	return names, nil
}

// GetBuilds returns a job's recent builds, newest first.
func (c *Client) GetBuilds(ctx context.Context, job string) ([]BuildInfo, error) {
	var list buildList
	path := JobPath(job) + "/api/json?tree=" + url.QueryEscape(buildsTree)
	if err := c.getJSON(ctx, path, provider.ErrJobNotFound, &list); err != nil {
		return nil, err
	}
	return list.Builds, nil
}

// GetBuild fetches a build's metadata.
func (c *Client) GetBuild(ctx context.Context, job, number string) (*BuildInfo, error) {
	var info BuildInfo
	if err := c.getJSON(ctx, buildPath(job, number)+"/api/json", provider.ErrBuildNotFound, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetTestReport fetches the raw test report payload. A build that never
// published a report returns found=false.
func (c *Client) GetTestReport(ctx context.Context, job, number string) (data []byte, found bool, err error) {
	resp, err := c.do(ctx, http.MethodGet, buildPath(job, number)+"/testReport/api/json", nil, nil)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	// 404 is OK - the build might not have published test results
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read test report: %w", err)
	}
	return data, true, nil
}

// GetConsoleText fetches the full console log of a build.
func (c *Client) GetConsoleText(ctx context.Context, job, number string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, buildPath(job, number)+"/consoleText", nil, provider.ErrBuildNotFound)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	logBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read log content: %w", err)
	}
	return string(logBytes), nil
}

// ProgressiveText is one chunk of a progressively fetched console log.
type ProgressiveText struct {
	Text     string
	Next     int64
	MoreData bool
}

// GetProgressiveText fetches console output starting at byte offset start.
// Jenkins reports the next offset in X-Text-Size and sets X-More-Data while
// the build is still producing output.
func (c *Client) GetProgressiveText(ctx context.Context, job, number string, start int64) (*ProgressiveText, error) {
	path := fmt.Sprintf("%s/logText/progressiveText?start=%d", buildPath(job, number), start)
	resp, err := c.do(ctx, http.MethodGet, path, nil, provider.ErrBuildNotFound)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read log content: %w", err)
	}

	next := start + int64(len(data))
	if size := resp.Header.Get("X-Text-Size"); size != "" {
		n, err := strconv.ParseInt(size, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid X-Text-Size header %q: %w", size, err)
		}
		next = n
	}

	return &ProgressiveText{
		Text:     string(data),
		Next:     next,
		MoreData: strings.EqualFold(resp.Header.Get("X-More-Data"), "true"),
	}, nil
}

// TriggerBuild queues a build. Jobs without parameters use /build, the rest
// /buildWithParameters.
func (c *Client) TriggerBuild(ctx context.Context, job string, params map[string]string) error {
	path := JobPath(job) + "/build"
	var body io.Reader
	if len(params) > 0 {
		form := url.Values{}
		for k, v := range params {
			form.Set(k, v)
		}
		path = JobPath(job) + "/buildWithParameters"
		body = strings.NewReader(form.Encode())
	}

	resp, err := c.do(ctx, http.MethodPost, path, body, provider.ErrJobNotFound)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
