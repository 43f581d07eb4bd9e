package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"auditpro/internal/collector"
	"auditpro/internal/collector/crm"
	"auditpro/internal/domain"
	"auditpro/internal/engine"
)

type rootOptions struct {
	output string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "auditctl",
		Short:        "Estimate ROI and priorities for CRM audit findings",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")

	root.AddCommand(
		newEvaluateCmd(opts),
		newCollectCmd(opts),
		newStageCmd(opts),
		newStagesCmd(opts),
		newNormalizeCmd(opts),
	)
	return root
}

func newEvaluateCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Enrich, rank and summarize findings from a JSON or YAML file",
		Long: `evaluate reads an audit input document (business_inputs, org_signals,
findings, department_salaries, custom_assumptions) and prints the ranked
findings with their summary. Use -f - to read standard input.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var r io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			in, err := readInput(r)
			if err != nil {
				return err
			}
			res := engine.New(engine.DefaultAssumptions()).Evaluate(in)
			return write(cmd.OutOrStdout(), opts.output, res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "input file (JSON or YAML), - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCollectCmd(opts *rootOptions) *cobra.Command {
	var (
		revenue   float64
		headcount float64
	)
	cmd := &cobra.Command{
		Use:   "collect ORG_NAME",
		Short: "Audit a simulated org and print the evaluated findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signals, raw, err := collector.Run(cmd.Context(), crm.NewMock(args[0], ""))
			if err != nil {
				return err
			}
			in := domain.AuditInput{Signals: &signals, Findings: raw}
			if cmd.Flags().Changed("revenue") {
				in.Business.AnnualRevenue = &revenue
			}
			if cmd.Flags().Changed("headcount") {
				in.Business.EmployeeHeadcount = &headcount
			}
			return write(cmd.OutOrStdout(), opts.output, engine.New(engine.DefaultAssumptions()).Evaluate(in))
		},
	}
	cmd.Flags().Float64Var(&revenue, "revenue", 0, "annual revenue")
	cmd.Flags().Float64Var(&headcount, "headcount", 0, "employee headcount")
	return cmd
}

func newStageCmd(opts *rootOptions) *cobra.Command {
	var revenue, headcount float64
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Resolve the business stage for revenue and headcount",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return write(cmd.OutOrStdout(), opts.output, engine.ResolveStage(revenue, headcount))
		},
	}
	cmd.Flags().Float64Var(&revenue, "revenue", 0, "annual revenue")
	cmd.Flags().Float64Var(&headcount, "headcount", 0, "employee headcount")
	return cmd
}

func newStagesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "Print the stage catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return write(cmd.OutOrStdout(), opts.output, engine.Stages())
		},
	}
}

func newNormalizeCmd(opts *rootOptions) *cobra.Command {
	var revenueRange, employeeRange string
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Convert picklist labels to numbers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in domain.BusinessInput
			if cmd.Flags().Changed("revenue-range") {
				in.RevenueRange = &revenueRange
			}
			if cmd.Flags().Changed("employee-range") {
				in.EmployeeRange = &employeeRange
			}
			return write(cmd.OutOrStdout(), opts.output, engine.Normalize(in))
		},
	}
	cmd.Flags().StringVar(&revenueRange, "revenue-range", "", `revenue label, e.g. "1M–3M"`)
	cmd.Flags().StringVar(&employeeRange, "employee-range", "", `headcount label, e.g. "20–49"`)
	return cmd
}

// readInput accepts JSON or YAML. YAML is decoded generically and re-encoded
// as JSON so the json tags on the domain types stay the single schema.
func readInput(r io.Reader) (domain.AuditInput, error) {
	var in domain.AuditInput
	raw, err := io.ReadAll(r)
	if err != nil {
		return in, err
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return in, fmt.Errorf("parse input: %w", err)
	}
	asJSON, err := json.Marshal(jsonable(doc))
	if err != nil {
		return in, fmt.Errorf("parse input: %w", err)
	}
	if err := json.Unmarshal(asJSON, &in); err != nil {
		return in, fmt.Errorf("decode input: %w", err)
	}
	return in, nil
}

// jsonable rewrites map[any]any, which YAML produces for non-string keys
// such as stage numbers, into map[string]any.
func jsonable(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = jsonable(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = jsonable(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = jsonable(e)
		}
		return t
	default:
		return v
	}
}

func write(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// go through JSON so field names match the API
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
