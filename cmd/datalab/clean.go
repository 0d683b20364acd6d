package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/cleaning"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/session"
)

func newCleanCmd(a *app) *cobra.Command {
	var (
		rulesFile string
		out       string
		asJSON    bool
		preview   int
	)
	cmd := &cobra.Command{
		Use:   "clean <file>",
		Short: "Apply a cleaning rule set and report what changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rulesFile == "" {
				return errors.NewConfigError("rules", "--rules is required")
			}
			s, report, err := a.open(args[0], rulesFile)
			if err != nil {
				return err
			}

			if out != "" {
				if err := exportTo(s.Current(), out); err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Session string           `json:"session"`
					Report  *cleaning.Report `json:"report"`
					Rows    int              `json:"rows"`
					Written string           `json:"written,omitempty"`
				}{s.ID().String(), report, s.Current().NumRows(), out})
			}
			printReport(a, report)
			printPreview(a, s.Preview(preview))
			if out != "" {
				fmt.Fprintf(a.out, "written: %s\n", out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML or JSON cleaning rule set")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the cleaned dataset to this .csv or .xlsx path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().IntVar(&preview, "preview", session.PreviewRows, "number of cleaned rows to print")
	return cmd
}

func printReport(a *app, report *cleaning.Report) {
	if report == nil {
		return
	}
	for _, st := range report.Stages {
		fmt.Fprintf(a.out, "%-15s %-8s rows %d -> %d, values changed %d\n",
			st.Stage, st.Policy, st.RowsBefore, st.RowsAfter, st.ValuesChanged)
	}
}

func printPreview(a *app, ds *dataset.Dataset) {
	fmt.Fprintln(a.out, strings.Join(ds.Names(), "\t"))
	for i := 0; i < ds.NumRows(); i++ {
		row := ds.Row(i)
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = dataset.FormatCell(v)
		}
		fmt.Fprintln(a.out, strings.Join(cells, "\t"))
	}
}
