// Command hclocal is an example consumer of the session engine: it
// connects to one appliance, prints every push notification it
// receives, and exits cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cbrgm/hclocal/internal/clock"
	"github.com/cbrgm/hclocal/internal/config"
	"github.com/cbrgm/hclocal/internal/protocol"
	"github.com/cbrgm/hclocal/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	envCfg, err := config.Load()
	if err != nil {
		return err
	}

	logCfg := zap.NewProductionConfig()
	logCfg.Level, err = zap.ParseAtomicLevel(envCfg.LogLevel)
	if err != nil {
		return err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logger := zap.Must(logCfg.Build(zap.AddCaller()))
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessCfg := envCfg.ToSessionConfig()
	sessCfg.Logger = logger
	sessCfg.Notify = func(msg protocol.Message) {
		logger.Info("notify", zap.String("resource", msg.Resource))
	}

	sess := session.New(sessCfg)

	connectCtx := clock.NewBounded(ctx, sessCfg.ConnectTimeout)
	if err := sess.Connect(connectCtx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	logger.Info("connected", zap.String("host", sessCfg.Host))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info("shutting down")
		return sess.Close()
	})

	return eg.Wait()
}
