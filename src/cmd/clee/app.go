package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"clee/src/cache"
	"clee/src/config"
	"clee/src/jenkins"
	"clee/src/logger"
	"clee/src/render"
	"clee/src/store"
)

var ErrNoHistoryStore = errors.New("analysis history requires postgres_dsn to be configured")

// app holds the collaborators shared by all commands. They are created once
// per invocation, after flags are parsed.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	logLevel   string
	cacheOpts  []cache.Option

	loaded   bool
	cfg      *config.Config
	log      logger.Logger
	cache    *cache.FileCache
	jenkins  *jenkins.Provider
	printer  *render.Printer
	newStore func(ctx context.Context, dsn string) (store.Store, error)
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:    out,
		errOut: errOut,
		newStore: func(ctx context.Context, dsn string) (store.Store, error) {
			return store.NewPostgresStore(ctx, dsn)
		},
	}
}

// load reads configuration and sets up logging and the cache. It is safe to
// call more than once; completion handlers run without PersistentPreRunE.
func (a *app) load(cmd *cobra.Command) error {
	if a.loaded {
		return nil
	}

	v, err := config.NewViper(a.configPath)
	if err != nil {
		return err
	}
	if f := cmd.Root().PersistentFlags().Lookup("log-level"); f != nil {
		if err := v.BindPFlag(config.KeyLogLevel, f); err != nil {
			return fmt.Errorf("failed to bind log-level flag: %w", err)
		}
	}
	a.cfg = config.FromViper(v)

	if a.log == nil {
		log, err := logger.NewConsoleLogger(a.errOut, a.cfg.LogLevel)
		if err != nil {
			return err
		}
		a.log = log
	}

	c, err := cache.NewFileCache("builds", a.cacheOpts...)
	if err != nil {
		a.log.Warn("build cache disabled: %v", err)
	} else {
		a.cache = c
	}

	a.printer = render.NewPrinter(a.out)
	a.loaded = true
	return nil
}

// provider returns the Jenkins provider, failing when the connection is not
// configured.
func (a *app) provider() (*jenkins.Provider, error) {
	if a.jenkins != nil {
		return a.jenkins, nil
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []jenkins.Option{
		jenkins.WithLogger(a.log),
		jenkins.WithConcurrency(a.cfg.Concurrency),
	}
	if a.cache != nil {
		opts = append(opts, jenkins.WithCache(a.cache))
	}

	client := jenkins.NewClient(a.cfg.JenkinsBaseURL, a.cfg.JenkinsUsername, a.cfg.JenkinsPassword)
	a.jenkins = jenkins.NewProvider(client, opts...)
	return a.jenkins, nil
}

// history opens the analysis history store.
func (a *app) history(ctx context.Context) (store.Store, error) {
	if a.cfg.PostgresDSN == "" {
		return nil, ErrNoHistoryStore
	}
	return a.newStore(ctx, a.cfg.PostgresDSN)
}
