package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"clee/src/provider"
	"clee/src/render"
	"clee/src/report"
)

const (
	paramBranch     = "system_tests_branch"
	paramDescriptor = "system_tests_descriptor"

	maxCompletedBuilds = 20
)

// buildSource is the part of the Jenkins provider the commands need beyond
// listing.
type buildSource interface {
	FetchBuild(ctx context.Context, job, buildID string) (*provider.Build, error)
	FetchBuilds(ctx context.Context, job string, ids []string, progress func()) ([]*provider.Build, error)
}

// filesDir locates the output directory for a build. An existing JOB-BUILD
// directory in the working directory or any parent wins; otherwise the
// directory is JOB-BUILD under the working directory.
func filesDir(job, buildID string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return findFilesDir(cwd, job, buildID), nil
}

func findFilesDir(start, job, buildID string) string {
	name := filesDirName(job, buildID)
	dir := start
	for {
		if filepath.Base(dir) == name {
			return dir
		}
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return filepath.Join(start, name)
}

// filesDirName flattens folder-qualified job names into one path element.
func filesDirName(job, buildID string) string {
	return strings.ReplaceAll(job, "/", "-") + "-" + buildID
}

// analyzeBuilds fetches ids and aggregates their reports, drawing a progress
// bar on progressOut while fetching.
func analyzeBuilds(ctx context.Context, src buildSource, progressOut io.Writer, job string, ids []string, opts report.Options) (report.Analysis, error) {
	bar := render.NewProgress(progressOut, "Fetching builds", len(ids))
	builds, err := src.FetchBuilds(ctx, job, ids, bar.Increment)
	bar.Done()
	if err != nil {
		return report.Analysis{}, err
	}

	reports := make([]report.BuildReport, 0, len(builds))
	for _, b := range builds {
		reports = append(reports, b.TestResults())
	}
	return report.Analyze(reports, opts), nil
}

// resolveBuildParams returns the parameters for a new build. source is either
// a YAML file of parameters or the number of a build to copy them from.
func resolveBuildParams(ctx context.Context, src buildSource, job, source string) (map[string]string, error) {
	params := map[string]string{}
	if source == "" {
		return params, nil
	}

	if _, err := os.Stat(source); err == nil {
		return readParamsFile(source)
	}

	if _, err := strconv.Atoi(source); err != nil {
		return nil, fmt.Errorf("%w: %q is neither a file nor a build number", provider.ErrInvalidBuildReference, source)
	}

	build, err := src.FetchBuild(ctx, job, source)
	if err != nil {
		return nil, err
	}
	found, ok := build.ParametersWith(paramBranch)
	if !ok {
		return nil, fmt.Errorf("%w: build %s has no %s parameter", provider.ErrInvalidBuildReference, source, paramBranch)
	}
	for k, v := range found {
		params[k] = v
	}
	return params, nil
}

func readParamsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse parameters file %s: %w", path, err)
	}

	params := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			params[k] = ""
			continue
		}
		params[k] = fmt.Sprint(v)
	}
	return params, nil
}

// formatParams renders params as {k: v, ...} in key order.
func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, params[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// completeArgs completes a job name for the first argument and build numbers
// for the following ones, up to maxArgs (-1 for no limit).
func (a *app) completeArgs(maxArgs int) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if maxArgs >= 0 && len(args) >= maxArgs {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		if err := a.load(cmd); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		p, err := a.provider()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		if len(args) == 0 {
			jobs, err := p.ListJobs(cmd.Context())
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			return jobs, cobra.ShellCompDirectiveNoFileComp
		}

		builds, err := p.ListBuilds(cmd.Context(), args[0])
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		var numbers []string
		for i, b := range builds {
			if i == maxCompletedBuilds {
				break
			}
			numbers = append(numbers, strconv.Itoa(b.Number))
		}
		return numbers, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveKeepOrder
	}
}

var errNoJob = errors.New("a job is required (or set jenkins_system_tests_base)")
