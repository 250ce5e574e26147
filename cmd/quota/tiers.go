package main

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"postplanner-hq/quota/pkg/cli"
	"postplanner-hq/quota/pkg/config"
	"postplanner-hq/quota/pkg/limits/tier"
)

var tiersFlags struct {
	format string
}

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Print the tier table",
	Long: `Print every subscription tier with its price and limits.

Billing price ids are read from the configuration file and environment when
the file exists.

Examples:
  # Aligned text table
  quota tiers

  # Machine-readable
  quota tiers --format json
  quota tiers --format csv > tiers.csv`,
	Args: cobra.NoArgs,
	RunE: printTiers,
}

func init() {
	rootCmd.AddCommand(tiersCmd)

	tiersCmd.Flags().StringVar(&tiersFlags.format, "format", "text", "output format: text, json, csv")
}

// tierRow is one tier of the table.
type tierRow struct {
	Tier         tier.Tier   `json:"tier"`
	Name         string      `json:"name"`
	MonthlyPrice int         `json:"monthlyPrice"`
	PriceID      string      `json:"priceId,omitempty"`
	Limits       tier.Limits `json:"limits"`
}

// tierTable renders with one column per tier and one row per metric.
type tierTable struct {
	Tiers []tierRow `json:"tiers"`
}

func (t tierTable) Header() []string {
	header := []string{"METRIC"}
	for _, row := range t.Tiers {
		header = append(header, row.Name)
	}
	return header
}

func (t tierTable) Rows() [][]string {
	price := []string{"monthlyPrice"}
	for _, row := range t.Tiers {
		price = append(price, "$"+strconv.Itoa(row.MonthlyPrice))
	}
	rows := [][]string{price}

	for _, m := range tier.Metrics() {
		line := []string{string(m)}
		for _, row := range t.Tiers {
			line = append(line, row.Limits[m].String())
		}
		rows = append(rows, line)
	}
	return rows
}

func printTiers(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(tiersFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	catalog, err := priceCatalog(cfgFile)
	if err != nil {
		return err
	}

	table, err := buildTierTable(catalog)
	if err != nil {
		return cli.NewCommandError("tiers", err)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
}

func buildTierTable(catalog *tier.PriceCatalog) (tierTable, error) {
	var table tierTable
	for _, t := range tier.All() {
		name, err := tier.DisplayName(t)
		if err != nil {
			return tierTable{}, err
		}
		price, err := tier.MonthlyPrice(t)
		if err != nil {
			return tierTable{}, err
		}
		limits, err := tier.GetTierLimits(t)
		if err != nil {
			return tierTable{}, err
		}
		priceID, _ := catalog.PriceID(t)

		table.Tiers = append(table.Tiers, tierRow{
			Tier:         t,
			Name:         name,
			MonthlyPrice: price,
			PriceID:      priceID,
			Limits:       limits,
		})
	}
	return table, nil
}

// priceCatalog builds the billing catalog from the config file at path. A
// missing file yields an empty catalog.
func priceCatalog(path string) (*tier.PriceCatalog, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return tier.NewPriceCatalog(nil), nil
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	return billingCatalog(cfg.Billing), nil
}

func billingCatalog(cfg config.BillingConfig) *tier.PriceCatalog {
	return tier.NewPriceCatalog(map[tier.Tier]string{
		tier.Starter: cfg.StarterPriceID,
		tier.Pro:     cfg.ProPriceID,
		tier.Agency:  cfg.AgencyPriceID,
	})
}
