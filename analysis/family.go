package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/core/model"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/linear"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/metrics"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/preprocessing"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/sklearn/cluster"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/sklearn/decomposition"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/sklearn/ensemble"
)

// Input is the shared preprocessing output handed to a family.
type Input struct {
	Request  Request
	Features []string

	// X is the standardized feature matrix over every dataset row.
	X *mat.Dense

	// Split is the train/test partition of X for supervised families, nil otherwise.
	Split *preprocessing.Split

	// Classes decodes classification targets: code k is Classes[k].
	Classes []string
}

// Inference is what a fitted model produces.
type Inference struct {
	Output      Output
	Metrics     Metrics
	Diagnostics []preprocessing.Diagnostic
}

// undefined records that a metric could not be computed.
func (inf *Inference) undefined(metric string, err error) {
	errors.Warn(errors.NewUndefinedMetricWarning(metric, err.Error()))
	inf.Diagnostics = append(inf.Diagnostics, preprocessing.Diagnostic{
		Level:   preprocessing.LevelWarning,
		Code:    preprocessing.CodeUndefinedMetric,
		Message: fmt.Sprintf("%s is undefined: %v", metric, err),
	})
}

// Family fits one algorithm family on prepared input.
type Family interface {
	Kind() FamilyKind
	Fit(in *Input) (FittedModel, error)
}

// FittedModel is a model fitted during a single Run. It is discarded afterwards.
type FittedModel interface {
	Infer(in *Input) (*Inference, error)
}

// newFamily selects the family implementation for alg.
func newFamily(alg Algorithm, req Request, nEstimators int) (Family, error) {
	seed := req.Seed()
	switch alg {
	case LinearRegression:
		return &regressionFamily{newModel: func() model.Regressor {
			return linear.NewLinearRegression()
		}}, nil
	case RandomForestRegression:
		return &regressionFamily{newModel: func() model.Regressor {
			return ensemble.NewRandomForestRegressor(
				ensemble.WithNEstimators(nEstimators),
				ensemble.WithRandomState(seed),
			)
		}}, nil
	case RandomForestClassification:
		return &classificationFamily{nEstimators: nEstimators, seed: seed}, nil
	case KMeans:
		return &partitionFamily{nClusters: req.NClusters, seed: seed}, nil
	case DBSCAN:
		return &densityFamily{eps: req.Eps, minSamples: req.MinSamples}, nil
	case PCA:
		return &reductionFamily{nComponents: req.NComponents}, nil
	default:
		names := make([]string, 0, len(Algorithms()))
		for _, a := range Algorithms() {
			names = append(names, string(a))
		}
		return nil, errors.NewUnsupportedAlgorithmError(string(alg), names)
	}
}

func weights(features []string, values []float64) []FeatureWeight {
	out := make([]FeatureWeight, len(features))
	for j, f := range features {
		out[j] = FeatureWeight{Feature: f, Weight: values[j]}
	}
	return out
}

// Regression

type regressionFamily struct {
	newModel func() model.Regressor
}

func (f *regressionFamily) Kind() FamilyKind { return Regression }

func (f *regressionFamily) Fit(in *Input) (FittedModel, error) {
	m := f.newModel()
	if err := m.Fit(in.Split.XTrain, in.Split.YTrain); err != nil {
		return nil, err
	}
	return &regressionModel{m: m}, nil
}

type regressionModel struct {
	m model.Regressor
}

func (r *regressionModel) Infer(in *Input) (*Inference, error) {
	pred, err := r.m.Predict(in.Split.XTest)
	if err != nil {
		return nil, err
	}
	yPred := mat.NewVecDense(in.Split.YTest.Len(), mat.Col(nil, 0, pred))

	out := &RegressionOutput{
		TestRows:  append([]int(nil), in.Split.TestIndex...),
		Actual:    append([]float64(nil), in.Split.YTest.RawVector().Data...),
		Predicted: append([]float64(nil), yPred.RawVector().Data...),
	}
	switch m := r.m.(type) {
	case *linear.LinearRegression:
		out.Coefficients = weights(in.Features, m.GetWeights())
		out.Intercept = m.GetIntercept()
	case model.FeatureImporter:
		out.Importances = weights(in.Features, m.FeatureImportances())
	}

	inf := &Inference{Output: out, Metrics: Metrics{}}
	mse, err := metrics.MSE(in.Split.YTest, yPred)
	if err != nil {
		return nil, err
	}
	inf.Metrics[MetricMSE] = mse
	rmse, err := metrics.RMSE(in.Split.YTest, yPred)
	if err != nil {
		return nil, err
	}
	inf.Metrics[MetricRMSE] = rmse
	mae, err := metrics.MAE(in.Split.YTest, yPred)
	if err != nil {
		return nil, err
	}
	inf.Metrics[MetricMAE] = mae
	if r2, err := metrics.R2Score(in.Split.YTest, yPred); err == nil {
		inf.Metrics[MetricR2] = r2
	} else {
		inf.undefined(MetricR2, err)
	}
	return inf, nil
}

// Classification

type classificationFamily struct {
	nEstimators int
	seed        int64
}

func (f *classificationFamily) Kind() FamilyKind { return Classification }

func (f *classificationFamily) Fit(in *Input) (FittedModel, error) {
	rf := ensemble.NewRandomForestClassifier(
		ensemble.WithNEstimators(f.nEstimators),
		ensemble.WithRandomState(f.seed),
	)
	if err := rf.Fit(in.Split.XTrain, in.Split.YTrain); err != nil {
		return nil, err
	}
	return &classificationModel{rf: rf}, nil
}

type classificationModel struct {
	rf *ensemble.RandomForestClassifier
}

func (c *classificationModel) Infer(in *Input) (*Inference, error) {
	pred, err := c.rf.Predict(in.Split.XTest)
	if err != nil {
		return nil, err
	}
	n := in.Split.YTest.Len()
	yPred := mat.NewVecDense(n, mat.Col(nil, 0, pred))

	out := &ClassificationOutput{
		TestRows:    append([]int(nil), in.Split.TestIndex...),
		Actual:      make([]string, n),
		Predicted:   make([]string, n),
		Classes:     append([]string(nil), in.Classes...),
		Importances: weights(in.Features, c.rf.FeatureImportances()),
	}
	for i := 0; i < n; i++ {
		out.Actual[i] = in.Classes[int(in.Split.YTest.AtVec(i))]
		out.Predicted[i] = in.Classes[int(yPred.AtVec(i))]
	}

	acc, err := metrics.Accuracy(in.Split.YTest, yPred)
	if err != nil {
		return nil, err
	}
	return &Inference{Output: out, Metrics: Metrics{MetricAccuracy: acc}}, nil
}

// Partition clustering

type partitionFamily struct {
	nClusters int
	seed      int64
}

func (f *partitionFamily) Kind() FamilyKind { return Partition }

func (f *partitionFamily) Fit(in *Input) (FittedModel, error) {
	km := cluster.NewKMeans(
		cluster.WithKMeansNClusters(f.nClusters),
		cluster.WithKMeansRandomState(f.seed),
	)
	if err := km.Fit(in.X, nil); err != nil {
		return nil, err
	}
	return &partitionModel{km: km}, nil
}

type partitionModel struct {
	km *cluster.KMeans
}

func (p *partitionModel) Infer(in *Input) (*Inference, error) {
	out := &PartitionOutput{
		Labels:    p.km.Labels(),
		Centers:   p.km.ClusterCenters(),
		NClusters: p.km.NClusters(),
		Inertia:   p.km.Inertia(),
		NIter:     p.km.NIterations(),
	}
	inf := &Inference{Output: out, Metrics: Metrics{}}
	if score, err := metrics.SilhouetteScore(in.X, out.Labels); err == nil {
		inf.Metrics[MetricSilhouette] = score
	} else {
		inf.undefined(MetricSilhouette, err)
	}
	return inf, nil
}

// Density clustering

type densityFamily struct {
	eps        float64
	minSamples int
}

func (f *densityFamily) Kind() FamilyKind { return Density }

func (f *densityFamily) Fit(in *Input) (FittedModel, error) {
	db := cluster.NewDBSCAN(cluster.WithEps(f.eps), cluster.WithMinSamples(f.minSamples))
	if err := db.Fit(in.X, nil); err != nil {
		return nil, err
	}
	return &densityModel{db: db}, nil
}

type densityModel struct {
	db *cluster.DBSCAN
}

// Infer scores cohesion on the non-noise rows only, and only when at least
// two clusters formed.
func (d *densityModel) Infer(in *Input) (*Inference, error) {
	out := &DensityOutput{
		Labels:    d.db.Labels(),
		NClusters: d.db.NClusters(),
		NNoise:    d.db.NNoise(),
		NCore:     len(d.db.CoreSampleIndices()),
	}
	inf := &Inference{Output: out, Metrics: Metrics{}}
	if out.NClusters < 2 {
		inf.undefined(MetricSilhouette, errors.NewDegenerateInputError("DBSCAN",
			fmt.Sprintf("%d non-noise clusters formed; at least 2 are required", out.NClusters)))
		return inf, nil
	}

	var rows []int
	var labels []int
	for i, l := range out.Labels {
		if l != cluster.Noise {
			rows = append(rows, i)
			labels = append(labels, l)
		}
	}
	_, p := in.X.Dims()
	core := mat.NewDense(len(rows), p, nil)
	for k, i := range rows {
		core.SetRow(k, in.X.RawRowView(i))
	}
	if score, err := metrics.SilhouetteScore(core, labels); err == nil {
		inf.Metrics[MetricSilhouette] = score
	} else {
		inf.undefined(MetricSilhouette, err)
	}
	return inf, nil
}

// Dimensionality reduction

type reductionFamily struct {
	nComponents int
}

func (f *reductionFamily) Kind() FamilyKind { return Reduction }

func (f *reductionFamily) Fit(in *Input) (FittedModel, error) {
	pca := decomposition.NewPCA(f.nComponents)
	if err := pca.Fit(in.X); err != nil {
		return nil, err
	}
	return &reductionModel{pca: pca}, nil
}

type reductionModel struct {
	pca *decomposition.PCA
}

func (r *reductionModel) Infer(in *Input) (*Inference, error) {
	Z, err := r.pca.Transform(in.X)
	if err != nil {
		return nil, err
	}
	n, k := Z.Dims()

	out := &ReductionOutput{
		ComponentNames:         make([]string, k),
		Coordinates:            make([][]float64, n),
		Weights:                make([][]float64, k),
		ExplainedVarianceRatio: r.pca.ExplainedVarianceRatio(),
	}
	for i := 0; i < n; i++ {
		out.Coordinates[i] = mat.Row(nil, i, Z)
	}
	comps := r.pca.Components()
	inf := &Inference{Output: out, Metrics: Metrics{}}
	var cumulative float64
	for c := 0; c < k; c++ {
		out.ComponentNames[c] = ComponentName(c + 1)
		out.Weights[c] = mat.Row(nil, c, comps)
		cumulative += out.ExplainedVarianceRatio[c]
		out.CumulativeVarianceRatio = append(out.CumulativeVarianceRatio, cumulative)
		inf.Metrics[ExplainedVarianceMetric(c+1)] = out.ExplainedVarianceRatio[c]
	}
	inf.Metrics[MetricCumulativeRatio] = cumulative
	return inf, nil
}
