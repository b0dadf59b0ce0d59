// cmd/logintest.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dkharel/meroflow/internal/accounts"
	"github.com/dkharel/meroflow/internal/browser"
	"github.com/dkharel/meroflow/internal/observability"
	"github.com/dkharel/meroflow/internal/pipeline"
)

var loginTestHeadless bool

var loginTestCmd = &cobra.Command{
	Use:          "login-test <account-name>",
	Short:        "Verify one account's credentials without touching any offering.",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runLoginTest,
}

func init() {
	loginTestCmd.Flags().BoolVar(&loginTestHeadless, "headless", true, "run the browser headless")
	rootCmd.AddCommand(loginTestCmd)
}

func runLoginTest(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()
	defer observability.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = loginTestHeadless
	}

	accts, err := accounts.Load(cfg.AccountsFile())
	if err != nil {
		return err
	}
	acct, ok := accounts.FindByName(accts, args[0])
	if !ok {
		return fmt.Errorf("account %q not found in %s", args[0], cfg.AccountsFile())
	}
	if err := os.MkdirAll(cfg.DiagnosticsDir(), 0o755); err != nil {
		return fmt.Errorf("create diagnostics directory: %w", err)
	}

	mgr := browser.NewManager(cfg, logger)
	defer mgr.Shutdown(context.Background())

	sess, err := mgr.NewSession(ctx, acct.Name)
	if err != nil {
		return err
	}

	auth := pipeline.NewAuthStep(cfg.Remote.LoginURL, browser.NewResolver(logger), logger)
	sr := auth.Run(ctx, sess, acct)
	if !sr.OK {
		return fmt.Errorf("login failed for %q: %s", acct.Name, sr.Reason)
	}

	logger.Info("Login verified.", zap.String("account", acct.Name))
	fmt.Fprintf(cmd.OutOrStdout(), "Login OK for %s\n", acct.Name)
	return nil
}
