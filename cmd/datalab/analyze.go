package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/analysis"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/chart"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		req         analysis.Request
		rulesFile   string
		testPercent float64
		seed        int64
		asJSON      bool
		chartOut    string
		annotateOut string
	)
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run an analysis algorithm on a file",
		Long: "Run one of: " + algorithmList() + ".\n" +
			"Supervised algorithms need --target; features are standardized before fitting.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.open(args[0], rulesFile)
			if err != nil {
				return err
			}

			req.TestSize = a.cfg.TestSize()
			if cmd.Flags().Changed("test-percent") {
				req.TestSize = analysis.TestPercent(testPercent)
			}
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.RandomState
			}
			req.RandomState = &seed

			d := analysis.NewDispatcher(
				analysis.WithLogger(a.logger()),
				analysis.WithPreparer(a.preparer()),
				analysis.WithNEstimators(a.cfg.NEstimators),
			)
			res, err := s.Analyze(d, req)
			if err != nil {
				return err
			}

			if chartOut != "" && !res.Failed() {
				if err := writeResultChart(s.Current(), res, chartOut); err != nil {
					return err
				}
			}
			if annotateOut != "" {
				annotated, err := res.Annotate(s.Current())
				if err != nil {
					return err
				}
				if err := exportTo(annotated, annotateOut); err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				printResult(a, res)
			}
			if res.Failed() {
				return errors.Newf("%s failed", res.Algorithm)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&req.Algorithm, "algorithm", "a", "", "algorithm: "+algorithmList())
	f.StringSliceVarP(&req.Features, "features", "f", nil, "comma separated feature columns")
	f.StringVarP(&req.Target, "target", "t", "", "target column for regression and classification")
	f.Float64Var(&testPercent, "test-percent", 20, "held-out share in percent (overrides config)")
	f.IntVar(&req.NClusters, "n-clusters", analysis.DefaultNClusters, "k-means cluster count")
	f.Float64Var(&req.Eps, "eps", analysis.DefaultEps, "DBSCAN neighbourhood radius in standardized units")
	f.IntVar(&req.MinSamples, "min-samples", analysis.DefaultMinSamples, "DBSCAN core point threshold")
	f.IntVar(&req.NComponents, "n-components", analysis.DefaultNComponents, "PCA components to keep")
	f.Int64Var(&seed, "seed", analysis.DefaultRandomState, "random seed (overrides config)")
	f.StringVar(&rulesFile, "rules", "", "clean with this rule set before analyzing")
	f.BoolVar(&asJSON, "json", false, "print the full result as JSON")
	f.StringVar(&chartOut, "chart", "", "write a PNG chart of the result to this path")
	f.StringVar(&annotateOut, "annotate", "", "write the dataset with cluster labels to this .csv or .xlsx path")
	_ = cmd.MarkFlagRequired("algorithm")
	_ = cmd.MarkFlagRequired("features")
	return cmd
}

func algorithmList() string {
	names := make([]string, 0, len(analysis.Algorithms()))
	for _, alg := range analysis.Algorithms() {
		names = append(names, string(alg))
	}
	return strings.Join(names, ", ")
}

func printResult(a *app, res *analysis.Result) {
	fmt.Fprintf(a.out, "algorithm: %s (%s)\n", res.Algorithm, res.Family)
	fmt.Fprintf(a.out, "features:  %s\n", strings.Join(res.Features, ", "))
	if res.Target != "" {
		fmt.Fprintf(a.out, "target:    %s\n", res.Target)
	}
	fmt.Fprintf(a.out, "rows:      train %d, test %d\n", res.TrainSize, res.TestSize)

	switch out := res.Output.(type) {
	case *analysis.RegressionOutput:
		weights := out.Importances
		if weights == nil {
			weights = out.Coefficients
		}
		printWeights(a, weights)
	case *analysis.ClassificationOutput:
		fmt.Fprintf(a.out, "classes:   %s\n", strings.Join(out.Classes, ", "))
		printWeights(a, out.Importances)
	case *analysis.PartitionOutput:
		fmt.Fprintf(a.out, "clusters:  %d (inertia %.4f, %d iterations)\n", out.NClusters, out.Inertia, out.NIter)
	case *analysis.DensityOutput:
		fmt.Fprintf(a.out, "clusters:  %d, noise rows %d, core points %d\n", out.NClusters, out.NNoise, out.NCore)
	case *analysis.ReductionOutput:
		fmt.Fprintf(a.out, "components: %s\n", strings.Join(out.ComponentNames, ", "))
	}

	for _, name := range res.Metrics.Names() {
		fmt.Fprintf(a.out, "%-28s %.6f\n", name, res.Metrics[name])
	}
	for _, d := range res.Diagnostics {
		if d.Column != "" {
			fmt.Fprintf(a.out, "[%s] %s (%s): %s\n", d.Level, d.Code, d.Column, d.Message)
			continue
		}
		fmt.Fprintf(a.out, "[%s] %s: %s\n", d.Level, d.Code, d.Message)
	}
}

func printWeights(a *app, weights []analysis.FeatureWeight) {
	for _, w := range weights {
		fmt.Fprintf(a.out, "  %-24s %.6f\n", w.Feature, w.Weight)
	}
}

// writeResultChart picks the chart that best shows res and writes it as PNG.
func writeResultChart(ds *dataset.Dataset, res *analysis.Result, path string) error {
	var (
		p   *plot.Plot
		err error
	)
	switch res.Family {
	case analysis.Regression:
		p, err = chart.PredictionChart(res)
	case analysis.Classification:
		p, err = chart.ImportanceChart(res)
	case analysis.Partition, analysis.Density:
		p, err = chart.ClusterChart(ds, res)
	case analysis.Reduction:
		p, err = chart.ProjectionChart(res)
	}
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := chart.Write(p, f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close chart")
}
