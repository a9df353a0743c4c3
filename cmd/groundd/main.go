// Package main implements the groundd CLI: grounding passes, claim
// explanations, feedback recording, health checks, and the background
// service mode.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/groundd/internal/causal"
	"github.com/fyrsmithlabs/groundd/internal/claim"
	"github.com/fyrsmithlabs/groundd/internal/config"
	"github.com/fyrsmithlabs/groundd/internal/dedupe"
	"github.com/fyrsmithlabs/groundd/internal/evidence"
	"github.com/fyrsmithlabs/groundd/internal/grounding"
	"github.com/fyrsmithlabs/groundd/internal/ledger"
	"github.com/fyrsmithlabs/groundd/internal/logging"
	"github.com/fyrsmithlabs/groundd/internal/resilience"
	"github.com/fyrsmithlabs/groundd/internal/store"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "groundd",
	Short: "Evidence-grounded confidence engine",
	Long: `groundd keeps claims honest: it re-validates them against live
evidence sources, maintains Bayesian confidence per claim, and explains
each claim's place in the causal graph.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML)")
	rootCmd.AddCommand(groundCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(serveCmd)
}

// app holds the wired engine and everything needed to shut it down.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	claims  *store.ClaimStore
	metrics *store.MetricsStore
	graph   *causal.Graph
	engine  *grounding.Engine

	claimBudget  *resilience.Budget
	metricBudget *resilience.Budget
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, nil)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	claims, err := store.OpenClaimStore(cfg.Stores.ClaimsPath)
	if err != nil {
		return nil, fmt.Errorf("open claim store: %w", err)
	}
	metrics, err := store.OpenMetricsStore(cfg.Stores.MetricsPath)
	if err != nil {
		claims.Close()
		return nil, fmt.Errorf("open metrics store: %w", err)
	}

	graph := causal.New(logger,
		causal.WithPersister(claims),
		causal.WithInferenceThreshold(cfg.Causal.InferenceThreshold),
		causal.WithMaxDepth(cfg.Causal.MaxTraversalDepth),
	)
	edges, err := claims.LoadEdges(cmd.Context())
	if err != nil {
		logger.Warn("failed to hydrate causal graph, starting empty", zap.Error(err))
	} else {
		graph.Hydrate(edges)
	}

	params := resilience.NewRetryingParams(claims, cfg.Resilience.RetryBackoffs)
	ldg, err := ledger.New(params, cfg.Ledger.StaticDefault, cfg.Ledger.MaxParam, logger,
		ledger.WithHalfLife(cfg.Ledger.HalfLifeDays))
	if err != nil {
		claims.Close()
		metrics.Close()
		return nil, fmt.Errorf("init ledger: %w", err)
	}

	weights := make(evidence.Weights, len(cfg.Scorer.Weights))
	for name, w := range cfg.Scorer.Weights {
		weights[claim.SourceType(name)] = w
	}
	agg := evidence.NewAggregator(metrics, weights, logger)

	claimBudget := resilience.NewBudget("claim_store", cfg.Resilience.DegradedThreshold)
	metricBudget := resilience.NewBudget("metrics_store", cfg.Resilience.DegradedThreshold)

	engine := grounding.NewEngine(agg, ldg, claims, graph,
		dedupe.New(cfg.Dedupe.SimilarityThreshold, logger),
		grounding.EngineConfig{
			Thresholds: grounding.Thresholds{
				Validated: cfg.Scorer.ValidatedThreshold,
				Partial:   cfg.Scorer.PartialThreshold,
				Weak:      cfg.Scorer.WeakThreshold,
			},
			MinEdgeStrength: cfg.Causal.MinEdgeStrength,
			RetryBackoffs:   cfg.Resilience.RetryBackoffs,
		},
		grounding.Budgets{Store: claimBudget, Sources: metricBudget},
		logger)

	return &app{
		cfg:          cfg,
		logger:       logger,
		claims:       claims,
		metrics:      metrics,
		graph:        graph,
		engine:       engine,
		claimBudget:  claimBudget,
		metricBudget: metricBudget,
	}, nil
}

func (a *app) close() {
	if err := a.claims.Close(); err != nil {
		a.logger.Warn("claim store close failed", zap.Error(err))
	}
	if err := a.metrics.Close(); err != nil {
		a.logger.Warn("metrics store close failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

var groundCmd = &cobra.Command{
	Use:   "ground <claim-id> [claim-id...]",
	Short: "Run a grounding pass over the given claims",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		results, err := a.engine.RunGroundingPass(cmd.Context(), args)
		if err != nil {
			return err
		}
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				a.logger.Error("claim grounding failed",
					zap.String("claim_id", r.ClaimID), zap.Error(r.Err))
			}
		}
		if err := printJSON(cmd, results); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d claims failed to ground", failed, len(results))
		}
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <claim-id>",
	Short: "Explain a claim: confidence, causal narrative, verdict history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		exp, err := a.engine.Explain(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, exp)
	},
}

var (
	feedbackActor string
	feedbackPrior string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <claim-id> <confirm|reject|escalate|neutral>",
	Short: "Record a judgement about a claim",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		action := claim.FeedbackAction(args[1])
		conf, err := a.engine.RecordFeedback(cmd.Context(), args[0], action, feedbackActor)
		if err != nil {
			return err
		}
		out := map[string]any{
			"claim_id":   args[0],
			"action":     args[1],
			"confidence": conf,
		}

		// A correction can retroactively nudge a related prior claim.
		if feedbackPrior != "" {
			switch action {
			case claim.ActionConfirm, claim.ActionEscalate, claim.ActionReject:
				priorConf, err := a.engine.AdjustRelatedPrior(cmd.Context(), feedbackPrior, action != claim.ActionReject)
				if err != nil {
					return err
				}
				out["prior_claim_id"] = feedbackPrior
				out["prior_confidence"] = priorConf
			}
		}
		return printJSON(cmd, out)
	},
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackActor, "actor", "cli", "who is giving the feedback")
	feedbackCmd.Flags().StringVar(&feedbackPrior, "prior", "", "related prior claim to adjust retroactively")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report subsystem health",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			// Wiring failure means the stores are unreachable.
			report := resilience.HealthReport{
				Status:  resilience.StatusUnavailable,
				Reasons: []string{err.Error()},
			}
			_ = printJSON(cmd, report)
			return err
		}
		defer a.close()

		report := resilience.ProbeHealth(cmd.Context(), map[string]resilience.Prober{
			"claim_store":   a.claims,
			"metrics_store": a.metrics,
		})
		if err := printJSON(cmd, report); err != nil {
			return err
		}
		if report.Status == resilience.StatusUnavailable {
			return fmt.Errorf("all subsystems unavailable")
		}
		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
