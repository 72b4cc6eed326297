package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"snapshotledger/config"
	"snapshotledger/logs"
	"snapshotledger/snapshotservice"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "snapshotnode",
		Short: "Runs the snapshot ledger node's attemptSnapshot loop.",
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Load config, open storage, and drive attemptSnapshot off a ticker.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd.Context(), configFile)
		},
	}
	run.Flags().StringVar(&configFile, "config", "", "path to a config file (optional, env SNAPSHOTLEDGER_* also applies)")

	root.AddCommand(run)
	return root
}

func runNode(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	app, err := wire(cfg)
	if err != nil {
		return fmt.Errorf("wiring node: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logs.Warn("snapshotnode: closing local file storage: %v", err)
		}
	}()

	if err := app.service.Recover(); err != nil {
		return fmt.Errorf("recovering prior state: %w", err)
	}
	app.service.MarkReady()

	metricsSrv := &http.Server{Addr: cfg.Node.MetricsAddr, Handler: promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})}
	go func() {
		logs.Info("snapshotnode: metrics listening on %s", cfg.Node.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Error("snapshotnode: metrics server: %v", err)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logs.Info("snapshotnode: received %v, shutting down", sig)
		cancel()
	}()

	tickerInterval := time.Duration(cfg.Snapshot.SnapshotHeightInterval) * time.Second
	if tickerInterval <= 0 {
		tickerInterval = time.Second
	}
	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()

	logs.Info("snapshotnode: entering attemptSnapshot loop, interval %s", tickerInterval)
	for {
		select {
		case <-runCtx.Done():
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = metricsSrv.Shutdown(shutdownCtx)
			shutdownCancel()
			return nil
		case <-ticker.C:
			attempt(runCtx, app.service)
		}
	}
}

// attempt runs one snapshot cycle, logging benign waiting states at
// debug and everything else at warn.
func attempt(ctx context.Context, svc *snapshotservice.Service) {
	result, err := svc.AttemptSnapshot(ctx)
	if err != nil {
		var snapErr *snapshotservice.SnapshotError
		if errors.As(err, &snapErr) && snapErr.Benign() {
			logs.Debug("snapshotnode: attemptSnapshot waiting: %v", snapErr)
			return
		}
		logs.Warn("snapshotnode: attemptSnapshot failed: %v", err)
		return
	}
	logs.Info("snapshotnode: committed snapshot at height %d, hash %s", result.Height, result.Snapshot.Hash)
}
