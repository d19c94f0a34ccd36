package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/infrastructure/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	// the first interrupt drains in-flight questions; a second one kills
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	opts := cli.Options{
		Verbose:    isVerbose(),
		ConfigPath: cli.ConfigPathFromArgs(os.Args[1:]),
	}

	root, cleanup, err := cli.NewRootCmd(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer cleanup()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func isVerbose() bool {
	v := os.Getenv(domain.EnvVerbose)
	return v == "1" || strings.EqualFold(v, "true")
}
