package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/chart"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

func newPlotCmd(a *app) *cobra.Command {
	var (
		spec      chart.Spec
		kind      string
		rulesFile string
		out       string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "plot <file>",
		Short: "Render a chart of a file's columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := chart.ParseKind(kind)
			if err != nil {
				return err
			}
			spec.Kind = k

			s, _, err := a.open(args[0], rulesFile)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("%s.%s", k, format)
			}
			f, err := os.Create(out)
			if err != nil {
				return errors.Wrapf(err, "create %s", out)
			}
			if err := chart.Render(s.Current(), spec, f, chart.WithFormat(format)); err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(err, "close chart")
			}
			fmt.Fprintf(a.out, "written: %s\n", out)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&kind, "kind", "k", "", "chart type: histogram, scatter, line, bar, box, pie or heatmap")
	fl.StringVarP(&spec.X, "x", "x", "", "x column (names column for pie)")
	fl.StringSliceVarP(&spec.Y, "y", "y", nil, "y column(s); line charts accept several")
	fl.StringVar(&spec.Color, "color", "", "column to group and color by")
	fl.StringVar(&spec.Size, "size", "", "numeric column scaling scatter markers")
	fl.StringSliceVar(&spec.Columns, "columns", nil, "heatmap columns (default every numeric column)")
	fl.StringVar(&spec.Title, "title", "", "chart title")
	fl.IntVar(&spec.Bins, "bins", 0, "histogram bins (default Sturges' rule)")
	fl.BoolVar(&spec.Markers, "markers", false, "draw points on line charts")
	fl.BoolVar(&spec.Horizontal, "horizontal", false, "horizontal bars")
	fl.Float64Var(&spec.Hole, "hole", 0, "pie hole size in [0, 1)")
	fl.StringVar(&rulesFile, "rules", "", "clean with this rule set before plotting")
	fl.StringVarP(&out, "out", "o", "", "output path (default <kind>.<format>)")
	fl.StringVar(&format, "format", "png", "image format: png, svg, pdf, ...")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}
