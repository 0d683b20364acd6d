// Package cleaning implements the rule engine that removes or repairs
// missing values, statistical outliers and duplicate rows.
//
// Each stage is a pure function from one dataset to another. Engine.Apply
// chains the configured stages in a fixed order and relabels the rows of
// the result 0..n-1.
package cleaning

import (
	"time"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/log"
)

// StageReport summarizes one executed stage.
type StageReport struct {
	Stage         string `json:"stage"`
	Policy        string `json:"policy"`
	RowsBefore    int    `json:"rows_before"`
	RowsAfter     int    `json:"rows_after"`
	ValuesChanged int    `json:"values_changed"`
}

// Report lists the stages Apply executed, in execution order.
type Report struct {
	Stages []StageReport `json:"stages"`
}

// Engine applies rule sets to datasets. The zero value is not usable; use NewEngine.
type Engine struct {
	logger log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger stages report to.
func WithLogger(l log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.GetLogger()
	}
	e.logger = e.logger.With(log.ComponentKey, "cleaning")
	return e
}

// Apply runs the configured stages in the order missing values, outliers,
// duplicates and reindexes the result. ds is never modified; on error the
// partially cleaned dataset is discarded.
func (e *Engine) Apply(ds *dataset.Dataset, rules RuleSet) (*dataset.Dataset, error) {
	out, _, err := e.ApplyWithReport(ds, rules)
	return out, err
}

// ApplyWithReport is Apply that also returns per-stage row counts.
func (e *Engine) ApplyWithReport(ds *dataset.Dataset, rules RuleSet) (*dataset.Dataset, *Report, error) {
	if err := rules.Validate(); err != nil {
		e.logger.Error("Invalid cleaning rules", err)
		return nil, nil, err
	}

	start := time.Now()
	report := &Report{}
	current := ds

	run := func(stage, policy string, fn func(*dataset.Dataset) (*dataset.Dataset, int, error)) error {
		before := current.NumRows()
		next, changed, err := fn(current)
		if err != nil {
			e.logger.Error("Cleaning stage failed", err, log.StageKey, stage, log.PolicyKey, policy)
			return err
		}
		current = next
		report.Stages = append(report.Stages, StageReport{
			Stage:         stage,
			Policy:        policy,
			RowsBefore:    before,
			RowsAfter:     current.NumRows(),
			ValuesChanged: changed,
		})
		e.logger.Info("Cleaning stage applied",
			log.StageKey, stage,
			log.PolicyKey, policy,
			log.RowsBeforeKey, before,
			log.RowsAfterKey, current.NumRows(),
			log.ValuesChangedKey, changed,
		)
		return nil
	}

	if mv := rules.MissingValues; mv != nil {
		err := run(log.StageMissingValues, string(mv.policy()), func(d *dataset.Dataset) (*dataset.Dataset, int, error) {
			return handleMissingValues(d, mv.policy(), mv.FillValue)
		})
		if err != nil {
			return nil, nil, err
		}
	}
	if o := rules.Outliers; o != nil {
		policy := "drop"
		if o.Replacement != nil {
			policy = "replace"
		}
		err := run(log.StageOutliers, policy, func(d *dataset.Dataset) (*dataset.Dataset, int, error) {
			return handleOutliers(d, o.Column, o.threshold(), o.Replacement)
		})
		if err != nil {
			return nil, nil, err
		}
	}
	if dup := rules.Duplicates; dup != nil {
		err := run(log.StageDuplicates, string(dup.policy()), func(d *dataset.Dataset) (*dataset.Dataset, int, error) {
			return handleDuplicates(d, dup.policy())
		})
		if err != nil {
			return nil, nil, err
		}
	}

	result := current.Reindex()
	e.logger.Debug("Cleaning finished",
		log.RowsKey, result.NumRows(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return result, report, nil
}
