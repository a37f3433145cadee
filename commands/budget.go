// Package commands adds the offline budget subcommands to the server binary.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"budgetengine/config"
	"budgetengine/services"
)

// NewBudgetCommand returns the "budget" command with its calc and export
// subcommands. They work on scenario files and never touch the database.
func NewBudgetCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Calculate and export budgets from scenario files",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "path to the TOML config file")

	cmd.AddCommand(newCalcCommand(&configPath), newExportCommand(&configPath))
	return cmd
}

func newCalcCommand(configPath *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "calc <scenario-file>...",
		Short: "Print the consolidated budget of one or more YAML/JSON scenarios",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q (want table or json)", format)
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			calc, err := services.NewBudgetCache(services.NewEngine(cfg.EngineOptions()), cfg.Cache.Size)
			if err != nil {
				return err
			}

			scenarios := make([]services.Scenario, 0, len(args))
			for _, path := range args {
				s, err := loadScenarioFile(path, calc.Engine())
				if err != nil {
					return err
				}
				scenarios = append(scenarios, s)
			}

			results, err := services.CalculateBatch(cmd.Context(), calc, scenarios, cfg.Engine.BatchConcurrency)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			for i, r := range results {
				if i > 0 {
					fmt.Fprintln(out)
				}
				if err := writeBudgetTable(out, r.Name, r.Budget, cfg.CurrencyFormat()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or json")
	return cmd
}

func newExportCommand(configPath *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <scenario-file>",
		Short: "Write the consolidated budget of a scenario to an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			eng := services.NewEngine(cfg.EngineOptions())
			s, err := loadScenarioFile(args[0], eng)
			if err != nil {
				return err
			}

			data, err := services.GenerateBudgetExcel(services.BudgetExportData{
				Title:      "Budget " + s.Name,
				Scenario:   s.Name,
				ComputedAt: time.Now().Format("2006-01-02 15:04 MST"),
				Currency:   cfg.CurrencyFormat(),
				Budget:     eng.BuildBudget(s),
			})
			if err != nil {
				return err
			}

			if out == "" {
				out = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])) + ".xlsx"
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			zap.S().Infow("budget exported", "scenario", s.Name, "file", out, "bytes", len(data))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: <scenario>.xlsx)")
	return cmd
}

// loadScenarioFile reads, defaults and validates one scenario file. A
// scenario without a name is named after its file.
func loadScenarioFile(path string, eng services.Engine) (services.Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return services.Scenario{}, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	s, err := services.LoadScenario(path, f)
	if err != nil {
		return services.Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	s = eng.Prepare(s)
	if err := services.ValidateScenario(s); err != nil {
		return services.Scenario{}, fmt.Errorf("%s: invalid scenario: %w", path, err)
	}
	return s, nil
}

var (
	warnColor = color.New(color.FgYellow)
	lossColor = color.New(color.FgRed, color.Bold)
)

// writeBudgetTable prints a human-readable summary of b.
func writeBudgetTable(w io.Writer, name string, b services.ConsolidatedBudget, cur services.Currency) error {
	fmt.Fprintf(w, "== %s ==\n", name)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	rows := []struct {
		label  string
		amount float64
	}{
		{"Team cost", b.Team.Total},
		{"Other costs", b.Other.Total},
		{"Taxes", b.Taxes.Total},
		{"Total cost", b.TotalCost},
		{"Total price", b.TotalPrice},
		{"Profit", b.Profit},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", r.label, services.FormatMoney(r.amount, cur))
	}
	fmt.Fprintf(tw, "Margin\t%s\t\n", services.FormatPercent(b.ProfitMarginPercent))
	fmt.Fprintf(tw, "Months\t%d\t\n", len(b.Months))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(b.Months) > 0 {
		last := b.Months[len(b.Months)-1]
		fmt.Fprintf(w, "Regular month: revenue %s, cost %s (%s allocation)\n",
			services.FormatMoney(last.Revenue, cur),
			services.FormatMoney(last.Cost, cur),
			b.Allocation)
	}

	for _, warn := range b.Warnings {
		c := warnColor
		if warn.Code == services.WarnProjectedLoss || warn.Code == services.WarnFirstMonthLoss {
			c = lossColor
		}
		c.Fprintf(w, "! %s: %s\n", warn.Code, warn.Message)
	}
	return nil
}
