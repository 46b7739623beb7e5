package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/LucienMarcon/APP-BP/internal/export"
	"github.com/LucienMarcon/APP-BP/internal/proforma"
	"github.com/LucienMarcon/APP-BP/internal/scenario"
	"github.com/spf13/cobra"
)

const formatJSON = "json"

func runCmd(a *app) *cobra.Command {
	var (
		unitsPath string
		format    string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Evaluate a scenario and write the pro forma",
		Long: `Evaluate a scenario file and write the result.

The json format writes the full result. csv writes the yearly cash flow and
xlsx a workbook with cash flow, KPI and amortization sheets; xlsx needs --out.`,
		Example: `  proforma run scenario.yaml
  proforma run scenario.yaml --units programme.xlsx --format xlsx --out proforma.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON {
				if _, err := export.ParseFormat(format); err != nil {
					return err
				}
			}
			if format == string(export.FormatXLSX) && outPath == "" {
				return fmt.Errorf("xlsx output needs --out")
			}

			s, err := loadScenario(args[0], unitsPath)
			if err != nil {
				return err
			}

			eval, err := a.service(cmd).Evaluate(cmd.Context(), s.Parameters, s.Units)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s.Name, err)
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create output: %w", err)
				}
				defer f.Close()
				out = f
			}
			return writeResult(out, format, eval.Result)
		},
	}

	cmd.Flags().StringVar(&unitsPath, "units", "", "xlsx workbook whose Units sheet replaces the scenario units")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format (json, csv, xlsx)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func validateCmd(a *app) *cobra.Command {
	var unitsPath string

	cmd := &cobra.Command{
		Use:   "validate <scenario>",
		Short: "Check a scenario without writing results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := a.logger(cmd)

			s, err := loadScenario(args[0], unitsPath)
			if err != nil {
				return err
			}
			eval, err := a.service(cmd).Evaluate(cmd.Context(), s.Parameters, s.Units)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s.Name, err)
			}

			log.Debug("Scenario validated", map[string]interface{}{
				"scenario":      s.Name,
				"evaluation_id": eval.ID,
			})

			out := cmd.OutOrStdout()
			for _, w := range eval.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			fmt.Fprintf(out, "%s: ok (%d units, %d years)\n", s.Name, len(s.Units), s.Parameters.Exit.HoldingPeriodYears)
			return nil
		},
	}

	cmd.Flags().StringVar(&unitsPath, "units", "", "xlsx workbook whose Units sheet replaces the scenario units")
	return cmd
}

func loadScenario(path, unitsPath string) (*scenario.Scenario, error) {
	s, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	if unitsPath != "" {
		units, err := scenario.LoadUnits(unitsPath)
		if err != nil {
			return nil, err
		}
		s.Units = units
	}
	return s, nil
}

func writeResult(w io.Writer, format string, res *proforma.Result) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return export.Write(w, export.Format(format), res)
}
