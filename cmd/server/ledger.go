package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"genquota-server/internal/config"
	"genquota-server/internal/domain"

	"github.com/spf13/cobra"
)

const ledgerCommandTimeout = 10 * time.Second

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and adjust device usage counters",
	Long: `Operator commands against the same Redis ledger the server uses.

Examples:
  genquota-server ledger show device-123
  genquota-server ledger grant device-123 25
  genquota-server ledger reset-sub device-123 --period=2026-10`,
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show <device-id>",
	Short: "Show a device's counters for a period",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerShow,
}

var ledgerGrantCmd = &cobra.Command{
	Use:   "grant <device-id> <credits>",
	Short: "Add purchased credits to a device",
	Args:  cobra.ExactArgs(2),
	RunE:  runLedgerGrant,
}

var ledgerResetSubCmd = &cobra.Command{
	Use:   "reset-sub <device-id>",
	Short: "Reset a device's subscription usage for a period",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerResetSub,
}

var ledgerPeriod string

func init() {
	rootCmd.AddCommand(ledgerCmd)

	ledgerCmd.AddCommand(ledgerShowCmd)
	ledgerCmd.AddCommand(ledgerGrantCmd)
	ledgerCmd.AddCommand(ledgerResetSubCmd)

	ledgerCmd.PersistentFlags().StringVar(&ledgerPeriod, "period", "", "billing period as YYYY-MM (default: current UTC month)")
}

func withLedger(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.AppConfig, ledger domain.UsageLedger, period string) error) error {
	period := ledgerPeriod
	if period == "" {
		period = domain.PeriodKey(time.Now())
	} else if _, err := time.Parse(domain.PeriodLayout, period); err != nil {
		return fmt.Errorf("invalid period %q: expected YYYY-MM", period)
	}

	cfg := config.NewConfig()
	ctx, cancel := context.WithTimeout(cmd.Context(), ledgerCommandTimeout)
	defer cancel()

	ledger, closeFn, err := config.NewLedger(ctx, cfg, newAppLogger(cfg))
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(ctx, cfg, ledger, period)
}

func runLedgerShow(cmd *cobra.Command, args []string) error {
	deviceID := args[0]
	return withLedger(cmd, func(ctx context.Context, cfg *config.AppConfig, ledger domain.UsageLedger, period string) error {
		counters, err := ledger.Read(ctx, deviceID, period)
		if err != nil {
			return err
		}
		return writeLedgerReport(os.Stdout, deviceID, period, counters, cfg.GetLimits())
	})
}

func writeLedgerReport(out io.Writer, deviceID, period string, counters domain.UsageCounters, limits domain.Limits) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "DEVICE\t%s\n", deviceID)
	fmt.Fprintf(w, "PERIOD\t%s\n", period)
	fmt.Fprintf(w, "FREE USED\t%d / %d\n", counters.FreeUsed, limits.FreeLimit)
	fmt.Fprintf(w, "CREDITS\t%d\n", counters.Credits)
	fmt.Fprintf(w, "SUBSCRIPTION USED\t%d / %d\n", counters.SubUsed, limits.SubMonthlyLimit)
	return w.Flush()
}

func runLedgerGrant(cmd *cobra.Command, args []string) error {
	deviceID := args[0]
	credits, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || credits <= 0 {
		return fmt.Errorf("credits must be a positive integer, got %q", args[1])
	}

	return withLedger(cmd, func(ctx context.Context, _ *config.AppConfig, ledger domain.UsageLedger, period string) error {
		balance, err := ledger.AddCredits(ctx, deviceID, credits)
		if err != nil {
			return err
		}
		fmt.Printf("Granted %d credits to %s (balance %d)\n", credits, deviceID, balance)
		return nil
	})
}

func runLedgerResetSub(cmd *cobra.Command, args []string) error {
	deviceID := args[0]
	return withLedger(cmd, func(ctx context.Context, _ *config.AppConfig, ledger domain.UsageLedger, period string) error {
		if err := ledger.ResetSubscriptionUsage(ctx, deviceID, period); err != nil {
			return err
		}
		fmt.Printf("Subscription usage for %s in %s reset to 0\n", deviceID, period)
		return nil
	})
}
