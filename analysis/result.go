package analysis

import (
	"fmt"
	"sort"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/preprocessing"
)

// Metric names.
const (
	MetricMSE             = "mse"
	MetricRMSE            = "rmse"
	MetricMAE             = "mae"
	MetricR2              = "r2"
	MetricAccuracy        = "accuracy"
	MetricSilhouette      = "silhouette"
	MetricCumulativeRatio = "cumulative_variance_ratio"
)

// ExplainedVarianceMetric names the explained variance ratio of component k (1-based).
func ExplainedVarianceMetric(k int) string {
	return fmt.Sprintf("explained_variance_ratio_pc%d", k)
}

// ComponentName returns "PC1", "PC2", ...
func ComponentName(k int) string {
	return fmt.Sprintf("PC%d", k)
}

// Metrics maps metric names to values. An undefined metric is absent.
type Metrics map[string]float64

// Names returns the metric names in sorted order.
func (m Metrics) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the metric and whether it was computed.
func (m Metrics) Lookup(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}

// Output is the family-specific artifact of a run. It is one of
// *RegressionOutput, *ClassificationOutput, *PartitionOutput,
// *DensityOutput or *ReductionOutput.
type Output interface {
	Family() FamilyKind
	isOutput()
}

// FeatureWeight pairs a feature with an importance or coefficient.
type FeatureWeight struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// RegressionOutput holds test-set predictions.
type RegressionOutput struct {
	// TestRows are row positions in the analyzed dataset, aligned with Actual and Predicted.
	TestRows  []int     `json:"test_rows"`
	Actual    []float64 `json:"actual"`
	Predicted []float64 `json:"predicted"`

	// Importances is set by the ensemble regressor.
	Importances []FeatureWeight `json:"feature_importance,omitempty"`

	// Coefficients and Intercept are set by linear regression; they apply to standardized features.
	Coefficients []FeatureWeight `json:"coefficients,omitempty"`
	Intercept    float64         `json:"intercept,omitempty"`
}

// ClassificationOutput holds test-set labels and feature importances.
type ClassificationOutput struct {
	TestRows    []int           `json:"test_rows"`
	Actual      []string        `json:"actual"`
	Predicted   []string        `json:"predicted"`
	Classes     []string        `json:"classes"`
	Importances []FeatureWeight `json:"feature_importance"`
}

// PartitionOutput holds k-means assignments. Centers are in standardized units.
type PartitionOutput struct {
	Labels    []int       `json:"labels"`
	Centers   [][]float64 `json:"cluster_centers"`
	NClusters int         `json:"n_clusters"`
	Inertia   float64     `json:"inertia"`
	// NIter is the iteration count of the best initialization.
	NIter int `json:"n_iter"`
}

// DensityOutput holds DBSCAN assignments. Noise rows are labeled -1.
type DensityOutput struct {
	Labels    []int `json:"labels"`
	NClusters int   `json:"n_clusters"`
	NNoise    int   `json:"n_noise"`
	NCore     int   `json:"n_core_samples"`
}

// ReductionOutput holds PCA coordinates and loadings.
type ReductionOutput struct {
	ComponentNames []string `json:"components"`
	// Coordinates has one row per dataset row and one column per component.
	Coordinates [][]float64 `json:"reduced_data"`
	// Weights has one row per component and one column per feature.
	Weights                 [][]float64 `json:"feature_weights"`
	ExplainedVarianceRatio  []float64   `json:"explained_variance_ratio"`
	CumulativeVarianceRatio []float64   `json:"cumulative_variance_ratio"`
}

func (*RegressionOutput) Family() FamilyKind     { return Regression }
func (*ClassificationOutput) Family() FamilyKind { return Classification }
func (*PartitionOutput) Family() FamilyKind      { return Partition }
func (*DensityOutput) Family() FamilyKind        { return Density }
func (*ReductionOutput) Family() FamilyKind      { return Reduction }

func (*RegressionOutput) isOutput()     {}
func (*ClassificationOutput) isOutput() {}
func (*PartitionOutput) isOutput()      {}
func (*DensityOutput) isOutput()        {}
func (*ReductionOutput) isOutput()      {}

// Result is the normalized bundle returned by Dispatcher.Run. When the
// family failed, Output is nil and Diagnostics explains why.
type Result struct {
	Algorithm Algorithm  `json:"algorithm"`
	Family    FamilyKind `json:"family"`
	Features  []string   `json:"features"`
	Target    string     `json:"target,omitempty"`

	TrainSize int `json:"train_size"`
	TestSize  int `json:"test_size"`

	Output      Output                          `json:"output,omitempty"`
	Metrics     Metrics                         `json:"metrics"`
	Preparation preprocessing.PreparationResult `json:"preparation"`
	Diagnostics []preprocessing.Diagnostic      `json:"diagnostics,omitempty"`
}

// Failed reports whether the family's fit or inference failed.
func (r *Result) Failed() bool { return r.Output == nil }

// LabelColumn is the column added by Annotate for clustering results.
const LabelColumn = "cluster"

// Annotate returns ds with the per-row cluster assignment appended as
// LabelColumn. Only partition and density results carry assignments.
func (r *Result) Annotate(ds *dataset.Dataset) (*dataset.Dataset, error) {
	var labels []int
	switch out := r.Output.(type) {
	case *PartitionOutput:
		labels = out.Labels
	case *DensityOutput:
		labels = out.Labels
	default:
		return nil, errors.NewValueError("Annotate", fmt.Sprintf("%s results carry no cluster assignment", r.Family))
	}
	if len(labels) != ds.NumRows() {
		return nil, errors.NewDimensionError("Annotate", ds.NumRows(), len(labels), 0)
	}
	values := make([]float64, len(labels))
	for i, l := range labels {
		values[i] = float64(l)
	}
	return ds.WithColumn(dataset.NewNumericColumn(LabelColumn, values))
}
