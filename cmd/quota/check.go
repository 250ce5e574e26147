package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"postplanner-hq/quota/pkg/cli"
	"postplanner-hq/quota/pkg/limits/enforcement"
	"postplanner-hq/quota/pkg/limits/tier"
)

var checkFlags struct {
	tier   string
	metric string
	usage  int64
	format string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a tier limit offline",
	Long: `Decide whether a user on a tier with a given usage may use a metric,
without a server or a usage store.

The result shows the HTTP status the server would answer with and the
upgrade hint it would include.

Examples:
  # Free tier at its AI generation ceiling
  quota check --tier free --metric aiGenerations --usage 5

  # Capability check
  quota check --tier starter --metric canvaIntegration --format json`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkFlags.tier, "tier", "", "subscription tier (free, starter, pro, agency)")
	checkCmd.Flags().StringVar(&checkFlags.metric, "metric", "", "metric name, e.g. aiGenerations")
	checkCmd.Flags().Int64Var(&checkFlags.usage, "usage", 0, "current usage of the metric")
	checkCmd.Flags().StringVar(&checkFlags.format, "format", "text", "output format: text, json")

	_ = checkCmd.MarkFlagRequired("tier")
	_ = checkCmd.MarkFlagRequired("metric")
}

// fixedUsage reports the same usage for every user and metric.
type fixedUsage int64

func (u fixedUsage) GetUsage(context.Context, string, string) (int64, error) {
	return int64(u), nil
}

// checkResult is the outcome of an offline check.
type checkResult struct {
	Tier           tier.Tier   `json:"tier"`
	Metric         tier.Metric `json:"metric"`
	Allowed        bool        `json:"allowed"`
	Usage          int64       `json:"usage"`
	Limit          tier.Limit  `json:"limit"`
	Percentage     float64     `json:"percentage"`
	AtRisk         bool        `json:"atRisk"`
	Status         int         `json:"status"`
	Message        string      `json:"message,omitempty"`
	UpgradeTo      tier.Tier   `json:"upgradeTo,omitempty"`
	UpgradeMessage string      `json:"upgradeMessage,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(checkFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	if format == cli.FormatCSV {
		return cli.NewConfigError("format", "csv output is not supported by check")
	}
	if checkFlags.usage < 0 {
		return cli.NewConfigError("usage", "must not be negative")
	}

	res, err := evaluate(cmd.Context(), checkFlags.tier, checkFlags.metric, checkFlags.usage)
	if err != nil {
		return cli.NewCommandError("check", err)
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(out, res)
	}
	printCheck(out, res)
	return nil
}

func evaluate(ctx context.Context, tierName, metricName string, usage int64) (*checkResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	t, err := tier.ParseTier(tierName)
	if err != nil {
		return nil, err
	}
	m, err := tier.ParseMetric(metricName)
	if err != nil {
		return nil, err
	}

	decision, err := tier.NewPolicy(fixedUsage(usage)).CanUseFeature(ctx, "offline", t, m)
	if err != nil {
		return nil, err
	}

	res := &checkResult{
		Tier:    t,
		Metric:  m,
		Allowed: decision.Allowed,
		Usage:   decision.Usage,
		Limit:   decision.Limit,
		Status:  http.StatusOK,
	}
	if decision.Limit.IsNumeric() {
		res.Percentage = tier.UsagePercentage(decision.Usage, decision.Limit)
		res.AtRisk = tier.IsUsageAtRisk(decision.Usage, decision.Limit)
	}

	if d := enforcement.NewEnforcer(enforcement.Config{}).ForTier(t, m, decision); d != nil {
		res.Status = d.Status
		res.Message = d.Message
		res.UpgradeTo = d.UpgradeTo
		res.UpgradeMessage = d.UpgradeMessage
	}
	return res, nil
}

func printCheck(w io.Writer, res *checkResult) {
	mark := "✓"
	if !res.Allowed {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s on %s: allowed=%t (HTTP %d)\n", mark, res.Metric, res.Tier, res.Allowed, res.Status)
	fmt.Fprintf(w, "  limit: %s\n", res.Limit)
	if res.Limit.Kind() == tier.KindBounded {
		fmt.Fprintf(w, "  usage: %d (%.0f%%)\n", res.Usage, res.Percentage)
		if res.AtRisk && res.Allowed {
			fmt.Fprintln(w, "  warning: usage is close to the limit")
		}
	}
	if res.Message != "" {
		fmt.Fprintf(w, "  message: %s\n", res.Message)
	}
	if res.UpgradeTo != "" {
		fmt.Fprintf(w, "  upgrade: %s (%s)\n", res.UpgradeTo, res.UpgradeMessage)
	}
}
