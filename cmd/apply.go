// cmd/apply.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dkharel/meroflow/internal/accounts"
	"github.com/dkharel/meroflow/internal/browser"
	"github.com/dkharel/meroflow/internal/history"
	"github.com/dkharel/meroflow/internal/observability"
	"github.com/dkharel/meroflow/internal/orchestrator"
	"github.com/dkharel/meroflow/internal/pipeline"
	"github.com/dkharel/meroflow/internal/report"
)

var (
	applyHeadless bool
	applyYes      bool
	applyTarget   int
	applyOutput   string
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the selected offering across every configured account.",
	Long: `Apply logs every configured account in, discovers the eligible
offerings, and submits an application for the selected one from each account
that has not already applied. Accounts are processed one at a time.`,
	SilenceUsage: true,
	RunE:         runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyHeadless, "headless", true, "run the browser headless")
	applyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false, "submit without interactive confirmation")
	applyCmd.Flags().IntVar(&applyTarget, "target", 1, "1-based offering to apply for when --yes is set")
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "", "report destination (file path or \"stdout\")")
	rootCmd.AddCommand(applyCmd)
}

// recordingSelector remembers the chosen target so the report can name it.
type recordingSelector struct {
	inner  orchestrator.TargetSelector
	chosen string
}

func (s *recordingSelector) Select(candidates []pipeline.CandidateResource) (pipeline.CandidateResource, error) {
	res, err := s.inner.Select(candidates)
	if err == nil {
		s.chosen = res.Name
	}
	return res, err
}

func runApply(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()
	defer observability.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = applyHeadless
	}
	if applyOutput != "" {
		cfg.Report.Output = applyOutput
	}

	accts, err := accounts.Load(cfg.AccountsFile())
	if err != nil {
		return err
	}
	if len(accts) == 0 {
		return fmt.Errorf("no accounts configured; create %s first", cfg.AccountsFile())
	}

	if err := os.MkdirAll(cfg.DiagnosticsDir(), 0o755); err != nil {
		return fmt.Errorf("create diagnostics directory: %w", err)
	}

	mgr := browser.NewManager(cfg, logger)
	defer mgr.Shutdown(context.Background())

	prompt := newPrompter(os.Stdin, os.Stdout)

	var confirmer pipeline.Confirmer = prompt
	selector := &recordingSelector{inner: prompt}
	if applyYes {
		confirmer = pipeline.AlwaysConfirm{}
		selector.inner = orchestrator.AutoSelector{Index: applyTarget - 1}
	}

	resolver := browser.NewResolver(logger)
	pipe := pipeline.NewPipeline(
		pipeline.NewAuthStep(cfg.Remote.LoginURL, resolver, logger),
		pipeline.NewDiscoveryStep(cfg.Remote.OfferingsURL, cfg.Remote.CategoryToken,
			cfg.Remote.GroupToken, cfg.Remote.CompletedLabels, logger),
		pipeline.NewFormStep(resolver, logger),
		pipeline.NewSubmitStep(confirmer, logger),
		logger,
	)

	factory := orchestrator.FactoryFunc(func(ctx context.Context, account string) (orchestrator.ManagedSession, error) {
		return mgr.NewSession(ctx, account)
	})
	orch := orchestrator.New(factory, pipe, selector, cfg.Remote.PaceInterval, logger)

	outcomes := orch.Run(ctx, accts)

	rep := report.Build(selector.chosen, outcomes)
	if err := (report.JSONWriter{Destination: cfg.Report.Output}).Write(rep); err != nil {
		return err
	}

	if cfg.History.Enabled {
		recordHistory(ctx, logger, selector.chosen, outcomes)
	}

	logger.Info("Run complete.",
		zap.Int("submitted", rep.Submitted),
		zap.Int("already_completed", rep.Completed),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed", rep.Failed))

	if rep.Failed > 0 {
		return fmt.Errorf("%d of %d accounts failed", rep.Failed, rep.Total)
	}
	return nil
}

// recordHistory persists the outcomes; history failures never fail the run.
func recordHistory(ctx context.Context, logger *zap.Logger, target string, outcomes []pipeline.Outcome) {
	store, err := history.Connect(ctx, cfg.History.DSN, logger)
	if err != nil {
		logger.Warn("Run history unavailable.", zap.Error(err))
		return
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Warn("Run history schema setup failed.", zap.Error(err))
		return
	}
	runID := uuid.NewString()
	for _, o := range outcomes {
		if err := store.RecordRun(ctx, runID, target, o); err != nil {
			logger.Warn("Outcome not recorded.", zap.String("account", o.Account), zap.Error(err))
		}
	}
}
