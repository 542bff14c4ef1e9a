package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"clee/src/config"
	"clee/src/junit"
	"clee/src/logger"
	"clee/src/mcp"
	"clee/src/provider"
	"clee/src/render"
	"clee/src/report"
	"clee/src/sanitize"
	"clee/src/store"
)

func newInitCmd(a *app) *cobra.Command {
	var cfg config.Config
	var reset bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Store the Jenkins connection settings",
		Long: `Store the Jenkins connection settings in the config file and clear the
build cache. Settings not given keep their current value unless --reset is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(a.configPath, cfg, reset); err != nil {
				return err
			}
			if a.cache != nil {
				if err := a.cache.Clear(); err != nil {
					return err
				}
			}
			a.printer.Println("Configuration written to %s", a.configPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.JenkinsUsername, "jenkins-username", "", "Jenkins username")
	cmd.Flags().StringVar(&cfg.JenkinsPassword, "jenkins-password", "", "Jenkins password or API token")
	cmd.Flags().StringVar(&cfg.JenkinsBaseURL, "jenkins-base-url", "", "Jenkins base URL")
	cmd.Flags().StringVar(&cfg.SystemTestsBase, "jenkins-system-tests-base", "", "Default job for list and build")
	cmd.Flags().StringVar(&cfg.PostgresDSN, "postgres-dsn", "", "Postgres DSN for analysis history")
	cmd.Flags().BoolVar(&reset, "reset", false, "Discard settings not given on this invocation")

	return cmd
}

func newListJobsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list-jobs",
		Short: "List Jenkins jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.provider()
			if err != nil {
				return err
			}
			jobs, err := p.ListJobs(cmd.Context())
			if err != nil {
				return err
			}
			a.printer.Jobs(jobs)
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "list [JOB]",
		Short:             "List the recent builds of a job",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: a.completeArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.jobArg(args)
			if err != nil {
				return err
			}
			p, err := a.provider()
			if err != nil {
				return err
			}
			builds, err := p.ListBuilds(cmd.Context(), job)
			if err != nil {
				return err
			}
			a.printer.Builds(builds)
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	var opts report.Options
	var outputFiles bool
	var junitFile string

	cmd := &cobra.Command{
		Use:   "status JOB BUILD",
		Short: "Show the test report of a build",
		Long: `Show the test report of a single build, one suite at a time. Suite headers
are green when every case passed, red when none did and yellow otherwise.

With --output-files the details of every case are written to JOB-BUILD/passed
and JOB-BUILD/failed. With --junit a local JUnit XML file is shown instead of
the report stored in Jenkins.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: a.completeArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, buildID := args[0], args[1]

			var br report.BuildReport
			if junitFile != "" {
				r, err := junit.ParseFile(junitFile)
				if err != nil {
					return err
				}
				br = report.BuildReport{Number: buildID, Report: r}
			} else {
				p, err := a.provider()
				if err != nil {
					return err
				}
				build, err := p.FetchBuild(cmd.Context(), job, buildID)
				if err != nil {
					return err
				}
				br = build.TestResults()
			}

			results, err := report.Inspect(br, opts)
			var unavailable *report.ReportUnavailableError
			if errors.As(err, &unavailable) {
				a.printer.Println("%s", unavailable.Message())
				return nil
			}
			if err != nil {
				return err
			}

			if outputFiles {
				dir, err := filesDir(job, buildID)
				if err != nil {
					return err
				}
				plan := report.PlanExport(dir, br.Report)
				if err := report.WriteExport(plan); err != nil {
					return err
				}
				defer a.printer.Export(plan)
			}

			a.printer.Status(results)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.FailedOnly, "failed", false, "Only show cases that did not pass")
	cmd.Flags().BoolVar(&outputFiles, "output-files", false, "Write case details to JOB-BUILD/{passed,failed}")
	cmd.Flags().StringVar(&junitFile, "junit", "", "Read the report from a JUnit XML file")

	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var opts report.Options
	var record bool
	var workbook string

	cmd := &cobra.Command{
		Use:   "analyze JOB BUILD...",
		Short: "Aggregate test results across builds",
		Long: `Aggregate the test reports of several builds. Builds are numbers or
inclusive ranges such as 10-15. Each case is green when it always passed, yellow
when it both passed and failed and red when it never passed.

With --record the summary is stored in the analysis history (see 'clee history').
With --xlsx every case and the failure rate statistics are saved to a workbook.`,
		Example: `  clee analyze system-tests 120-130
  clee analyze system-tests 120 124-126 --failed`,
		Args:              cobra.MinimumNArgs(2),
		ValidArgsFunction: a.completeArgs(-1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job := args[0]
			ids, err := report.ExpandSelectors(args[1:])
			if err != nil {
				return err
			}

			p, err := a.provider()
			if err != nil {
				return err
			}

			analysis, err := analyzeBuilds(cmd.Context(), p, a.errOut, job, ids, opts)
			if err != nil {
				return err
			}
			a.printer.Analysis(analysis)

			if workbook != "" {
				if err := render.WriteWorkbook(workbook, analysis); err != nil {
					return err
				}
				a.printer.Println("Workbook written to %s", workbook)
			}

			if !record {
				return nil
			}
			st, err := a.history(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			rec := store.NewAnalysisRecord(job, analysis, opts)
			if err := st.SaveAnalysis(cmd.Context(), rec); err != nil {
				return err
			}
			a.log.Info("recorded analysis %d for %s", rec.ID, job)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.AnyPass, "passed-at-least-once", false, "Treat cases that passed in any build as passing")
	cmd.Flags().BoolVar(&opts.FailedOnly, "failed", false, "Only show cases that did not always pass")
	cmd.Flags().BoolVar(&record, "record", false, "Store the analysis summary in the history database")
	cmd.Flags().StringVar(&workbook, "xlsx", "", "Also write the analysis to an xlsx workbook")

	return cmd
}

func newLogsCmd(a *app) *cobra.Command {
	var toStdout, tail, stripANSI bool

	cmd := &cobra.Command{
		Use:   "logs JOB BUILD",
		Short: "Fetch the console log of a build",
		Long: `Fetch the console log of a build into JOB-BUILD/console.log, or to stdout
with --stdout. With --tail the log is followed until the build finishes.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: a.completeArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, buildID := args[0], args[1]
			p, err := a.provider()
			if err != nil {
				return err
			}

			w := a.out
			var logPath string
			if !toStdout {
				dir, err := filesDir(job, buildID)
				if err != nil {
					return err
				}
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create %s: %w", dir, err)
				}
				logPath = filepath.Join(dir, "console.log")
				f, err := os.Create(logPath)
				if err != nil {
					return fmt.Errorf("failed to create log file: %w", err)
				}
				defer f.Close()
				w = f
			}

			var sw *sanitize.Writer
			if stripANSI {
				sw = sanitize.NewWriter(w)
				w = sw
			}

			if tail {
				if err := provider.CopyLogs(cmd.Context(), w, p.TailLogs(cmd.Context(), job, buildID)); err != nil {
					return err
				}
			} else {
				text, err := p.FetchLogs(cmd.Context(), job, buildID)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprint(w, text); err != nil {
					return fmt.Errorf("failed to write log: %w", err)
				}
			}

			if sw != nil {
				if err := sw.Flush(); err != nil {
					return fmt.Errorf("failed to write log: %w", err)
				}
			}

			if logPath != "" {
				a.printer.Println("Log file written to %s", logPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Write the log to stdout")
	cmd.Flags().BoolVar(&tail, "tail", false, "Follow the log until the build finishes")
	cmd.Flags().BoolVar(&stripANSI, "strip-ansi", false, "Remove color codes and console notes")

	return cmd
}

func newBuildCmd(a *app) *cobra.Command {
	var branch, descriptor, source string

	cmd := &cobra.Command{
		Use:   "build [JOB]",
		Short: "Queue a build",
		Long: `Queue a build of JOB. Parameters come from --source, which is either a YAML
file of parameters or the number of an earlier build to copy them from.
--branch and --descriptor override system_tests_branch and
system_tests_descriptor.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: a.completeArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.jobArg(args)
			if err != nil {
				return err
			}
			p, err := a.provider()
			if err != nil {
				return err
			}

			params, err := resolveBuildParams(cmd.Context(), p, job, source)
			if err != nil {
				return err
			}
			if branch != "" {
				params[paramBranch] = branch
			}
			if descriptor != "" {
				params[paramDescriptor] = descriptor
			}

			if err := p.TriggerBuild(cmd.Context(), job, params); err != nil {
				return err
			}
			a.printer.Println("Build successfully queued [job=%s, parameters=%s]", job, formatParams(params))
			return nil
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "", "Value for system_tests_branch")
	cmd.Flags().StringVar(&descriptor, "descriptor", "", "Value for system_tests_descriptor")
	cmd.Flags().StringVar(&source, "source", "", "Parameters YAML file or build number to copy parameters from")

	return cmd
}

func newClearCacheCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Remove all cached builds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cache == nil {
				return nil
			}
			return a.cache.Clear()
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:               "history [JOB]",
		Short:             "List recorded analyses of a job",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: a.completeArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.jobArg(args)
			if err != nil {
				return err
			}
			st, err := a.history(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.ListAnalyses(cmd.Context(), job, limit)
			if err != nil {
				return err
			}
			a.printer.History(records)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of analyses to show (0 for all)")
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve clee tools over the Model Context Protocol on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol.
			a.log = logger.NewSilentLogger()
			p, err := a.provider()
			if err != nil {
				return err
			}
			return mcp.NewServer(p, version).Run()
		},
	}
}

// jobArg returns the job argument, falling back to the configured default job.
func (a *app) jobArg(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	if a.cfg.SystemTestsBase != "" {
		return a.cfg.SystemTestsBase, nil
	}
	return "", errNoJob
}
