package analysis

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/log"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/preprocessing"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/sklearn/ensemble"
)

// Dispatcher runs analyses. It holds no per-run state and may be shared.
type Dispatcher struct {
	preparer    *preprocessing.Preparer
	logger      log.Logger
	nEstimators int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithPreparer replaces the feature preparer, typically to change its tolerance.
func WithPreparer(p *preprocessing.Preparer) Option {
	return func(d *Dispatcher) {
		d.preparer = p
	}
}

// WithNEstimators sets the number of trees used by the random forest families.
func WithNEstimators(n int) Option {
	return func(d *Dispatcher) {
		d.nEstimators = n
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{nEstimators: ensemble.DefaultNEstimators}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.GetLogger()
	}
	if d.preparer == nil {
		d.preparer = preprocessing.NewPreparer(preprocessing.WithPreparerLogger(d.logger))
	}
	d.logger = d.logger.With(log.ComponentKey, "analysis")
	return d
}

// Run prepares ds according to req and runs the requested algorithm.
//
// Configuration problems, missing columns, unusable targets and an
// all-constant feature matrix are returned as errors. A failure inside the
// family itself, panics included, is reported in the returned Result as an
// error-level diagnostic with a nil Output.
func (d *Dispatcher) Run(ds *dataset.Dataset, req Request) (*Result, error) {
	start := time.Now()

	alg, err := ParseAlgorithm(req.Algorithm)
	if err != nil {
		return nil, err
	}
	req = req.WithDefaults()
	req.Algorithm = string(alg)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	mode := preprocessing.TargetNone
	target := ""
	switch alg.Family() {
	case Regression:
		mode, target = preprocessing.TargetNumeric, req.Target
	case Classification:
		mode, target = preprocessing.TargetLabels, req.Target
	}
	if alg.Supervised() && target == "" {
		return nil, errors.NewConfigError("target", fmt.Sprintf("%s requires a target column", alg))
	}
	for _, f := range req.Features {
		if f == target {
			return nil, errors.NewConfigError("features", fmt.Sprintf("target '%s' is also listed as a feature", f))
		}
	}

	logger := d.logger.With(log.AlgorithmKey, string(alg), log.FamilyKey, string(alg.Family()))

	prepared, err := d.preparer.Prepare(ds, req.Features, target, mode)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Algorithm:   alg,
		Family:      alg.Family(),
		Features:    prepared.FeatureNames,
		Target:      target,
		Metrics:     Metrics{},
		Preparation: prepared.Result,
		Diagnostics: append([]preprocessing.Diagnostic(nil), prepared.Result.Diagnostics...),
	}

	in, err := d.standardize(prepared, req, res)
	if err != nil {
		return nil, err
	}

	family, err := newFamily(alg, req, d.nEstimators)
	if err != nil {
		return nil, err
	}

	var inf *Inference
	err = errors.SafeExecute(string(alg), func() error {
		fitted, err := family.Fit(in)
		if err != nil {
			return err
		}
		inf, err = fitted.Infer(in)
		return err
	})
	if err != nil {
		logger.Error("Analysis family failed", err)
		res.Diagnostics = append(res.Diagnostics, preprocessing.Diagnostic{
			Level:   preprocessing.LevelError,
			Code:    preprocessing.CodeFamilyFailed,
			Message: fmt.Sprintf("%s failed: %v", alg, err),
		})
		return res, nil
	}

	res.Output = inf.Output
	res.Metrics = inf.Metrics
	res.Diagnostics = append(res.Diagnostics, inf.Diagnostics...)

	fields := []any{
		log.TrainSizeKey, res.TrainSize,
		log.TestSizeKey, res.TestSize,
		log.RandomSeedKey, req.Seed(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	}
	for _, name := range res.Metrics.Names() {
		fields = append(fields, "metrics."+name, res.Metrics[name])
	}
	logger.Info("Analysis completed", fields...)
	return res, nil
}

// standardize scales every feature to zero mean and unit variance over the
// full matrix and, for supervised families, splits the scaled rows.
func (d *Dispatcher) standardize(prepared *preprocessing.Prepared, req Request, res *Result) (*Input, error) {
	scaler := preprocessing.NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(prepared.X)
	if err != nil {
		return nil, err
	}

	constant := scaler.ConstantFeatures()
	if len(constant) == len(prepared.FeatureNames) {
		return nil, errors.NewDegenerateInputError("Standardize", "every feature has zero variance")
	}
	for _, j := range constant {
		name := prepared.FeatureNames[j]
		res.Diagnostics = append(res.Diagnostics, preprocessing.Diagnostic{
			Level:   preprocessing.LevelWarning,
			Code:    preprocessing.CodeConstantFeature,
			Column:  name,
			Message: fmt.Sprintf("column '%s' has zero variance and contributes nothing after standardization", name),
		})
	}

	in := &Input{
		Request:  req,
		Features: prepared.FeatureNames,
		X:        mat.DenseCopyOf(scaled),
		Classes:  prepared.Classes,
	}

	alg := Algorithm(req.Algorithm)
	if !alg.Supervised() {
		res.TrainSize, _ = in.X.Dims()
		return in, nil
	}
	split, err := preprocessing.TrainTestSplit(in.X, prepared.Y, req.TestSize, req.Seed())
	if err != nil {
		return nil, err
	}
	in.Split = split
	res.TrainSize = len(split.TrainIndex)
	res.TestSize = len(split.TestIndex)
	return in, nil
}
