package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/groundd/internal/resilience"
	"github.com/fyrsmithlabs/groundd/internal/trigger"
)

// scanTick is how often the scheduler counts one scan. The trigger
// policy decides which scans actually fire a pass.
const scanTick = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background grounding service",
	Long: `Runs the grounding loop: scans are counted on a fixed tick, and
passes fire per the trigger policy. Exposes Prometheus metrics on
/metrics and liveness on /healthz.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	pass := func(ctx context.Context) error {
		ids, err := a.claims.ListClaimIDs(ctx)
		if err != nil {
			return fmt.Errorf("list claims: %w", err)
		}
		if len(ids) == 0 {
			a.logger.Debug("no claims to ground")
			return nil
		}
		results, err := a.engine.RunGroundingPass(ctx, ids)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Err != nil {
				a.logger.Warn("claim grounding failed",
					zap.String("claim_id", r.ClaimID), zap.Error(r.Err))
			}
		}
		return nil
	}

	policy := trigger.NewPolicy(a.cfg.Trigger.ScanInterval, a.cfg.Trigger.MinElapsed)
	sched, err := trigger.NewScheduler(scanTick, policy, pass, a.logger)
	if err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		report := resilience.Health(a.claimBudget, a.metricBudget)
		code := http.StatusOK
		if report.Status == resilience.StatusUnavailable {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(report)
	})

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serving metrics and health", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	return nil
}
