// Package main provides the clee command-line client for Jenkins test reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"clee/src/provider"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(newApp(os.Stdout, os.Stderr))
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, provider.WrapError(err))
		os.Exit(1)
	}
}
