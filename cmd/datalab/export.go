package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataio"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/session"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		rulesFile string
		format    string
		name      string
		dir       string
	)
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write a file, cleaned when --rules is given, as CSV or Excel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.open(args[0], rulesFile)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = a.cfg.ExportDir
			}
			path, err := s.Export(session.Current, format, name, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "written: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesFile, "rules", "", "clean with this rule set before exporting")
	cmd.Flags().StringVar(&format, "format", "csv", "csv, xlsx or excel")
	cmd.Flags().StringVar(&name, "name", "", "file name (default cleaned_data_<timestamp> or data_export_<timestamp>)")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default export_dir from config)")
	return cmd
}

// exportTo writes ds to path, choosing the format from the extension.
func exportTo(ds *dataset.Dataset, path string) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	format := strings.TrimPrefix(filepath.Ext(name), ".")
	if format == "" {
		format = string(dataio.CSV)
	}
	_, err := dataio.Export(ds, format, name, dir)
	return err
}
