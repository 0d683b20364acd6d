// Package datalab is an interactive data analysis toolkit for tabular data.
//
// It loads CSV or Excel files into an in-memory dataset, cleans them with a
// declarative rule set, prepares numeric feature matrices and runs one of six
// analyses on the result.
//
// # Packages
//
//   - dataset: typed in-memory tables shared by every other package
//   - cleaning: missing value, z-score outlier and duplicate row stages
//   - preprocessing: numeric coercion with imputation diagnostics, scaling and splits
//   - analysis: the dispatcher for regression, classification, k-means, DBSCAN and PCA
//   - metrics: regression, classification and silhouette scores
//   - linear, sklearn/tree, sklearn/ensemble, sklearn/cluster, sklearn/decomposition: estimators
//   - dataio: CSV and xlsx load and export
//   - chart: gonum/plot charts for datasets and analysis results
//   - session: one loaded dataset with its cleaned copy
//   - config: viper backed settings
//   - pkg/errors, pkg/log: typed errors and structured logging
//
// # Quick start
//
//	s, err := session.Open("houses.csv")
//	if err != nil {
//	    return err
//	}
//	_, err = s.Clean(cleaning.NewEngine(), cleaning.RuleSet{
//	    MissingValues: &cleaning.MissingValueRule{Policy: cleaning.MissingDrop},
//	})
//	if err != nil {
//	    return err
//	}
//	res, err := s.Analyze(analysis.NewDispatcher(), analysis.Request{
//	    Algorithm: "linear_regression",
//	    Features:  []string{"area", "rooms"},
//	    Target:    "price",
//	})
//
// Analysis failures inside a family do not abort the run: the result carries
// a family_failed diagnostic and Failed reports true. Configuration problems
// and missing columns are returned as typed errors from pkg/errors.
//
// The datalab command in cmd/datalab exposes the same operations from the shell.
package datalab
