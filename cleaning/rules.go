package cleaning

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// DefaultZThreshold is used when an outlier rule leaves the threshold unset.
const DefaultZThreshold = 3.0

// MissingPolicy selects how rows with missing values are handled.
type MissingPolicy string

const (
	MissingDrop MissingPolicy = "drop"
	MissingFill MissingPolicy = "fill"
	MissingNone MissingPolicy = "none"
)

// DuplicatePolicy selects how repeated rows are handled.
type DuplicatePolicy string

const (
	DuplicateDrop DuplicatePolicy = "drop"
	DuplicateMark DuplicatePolicy = "mark"
	DuplicateNone DuplicatePolicy = "none"
)

// DuplicateColumn is the boolean column added by the mark policy.
const DuplicateColumn = "is_duplicate"

// MissingValueRule configures the missing-value stage. FillValue is
// required when Policy is MissingFill.
type MissingValueRule struct {
	Policy    MissingPolicy `yaml:"policy" json:"policy"`
	FillValue any           `yaml:"fill_value,omitempty" json:"fill_value,omitempty"`
}

// OutlierRule configures the z-score outlier stage on a single column.
// A zero Threshold means DefaultZThreshold. When Replacement is nil flagged
// rows are dropped, otherwise flagged values are replaced.
type OutlierRule struct {
	Column      string   `yaml:"column" json:"column"`
	Threshold   float64  `yaml:"z_threshold,omitempty" json:"z_threshold,omitempty"`
	Replacement *float64 `yaml:"replacement,omitempty" json:"replacement,omitempty"`
}

// DuplicateRule configures the duplicate-row stage.
type DuplicateRule struct {
	Policy DuplicatePolicy `yaml:"policy" json:"policy"`
}

// RuleSet groups the optional stages. Stages always run in the order
// missing values, outliers, duplicates regardless of how the set was written.
type RuleSet struct {
	MissingValues *MissingValueRule `yaml:"missing_values,omitempty" json:"missing_values,omitempty"`
	Outliers      *OutlierRule      `yaml:"outliers,omitempty" json:"outliers,omitempty"`
	Duplicates    *DuplicateRule    `yaml:"duplicates,omitempty" json:"duplicates,omitempty"`
}

// Empty reports whether no stage is configured.
func (r RuleSet) Empty() bool {
	return r.MissingValues == nil && r.Outliers == nil && r.Duplicates == nil
}

// Validate checks every configured stage without touching any data.
func (r RuleSet) Validate() error {
	if mv := r.MissingValues; mv != nil {
		switch mv.policy() {
		case MissingDrop, MissingNone:
		case MissingFill:
			if mv.FillValue == nil {
				return errors.NewConfigError("missing_values.fill_value", "required when policy is fill")
			}
		default:
			return errors.NewConfigError("missing_values.policy", fmt.Sprintf("unknown policy %q", mv.Policy))
		}
	}
	if o := r.Outliers; o != nil {
		if o.Column == "" {
			return errors.NewConfigError("outliers.column", "column is required")
		}
		if o.Threshold < 0 {
			return errors.NewConfigError("outliers.z_threshold", fmt.Sprintf("must be positive, got %g", o.Threshold))
		}
	}
	if d := r.Duplicates; d != nil {
		switch d.policy() {
		case DuplicateDrop, DuplicateMark, DuplicateNone:
		default:
			return errors.NewConfigError("duplicates.policy", fmt.Sprintf("unknown policy %q", d.Policy))
		}
	}
	return nil
}

func (m *MissingValueRule) policy() MissingPolicy {
	if m.Policy == "" {
		return MissingDrop
	}
	return m.Policy
}

func (o *OutlierRule) threshold() float64 {
	if o.Threshold == 0 {
		return DefaultZThreshold
	}
	return o.Threshold
}

func (d *DuplicateRule) policy() DuplicatePolicy {
	if d.Policy == "" {
		return DuplicateDrop
	}
	return d.Policy
}

// ParseRuleSet decodes a YAML or JSON rule set. Unknown keys are ignored.
// The keys "method" and "threshold" are accepted as aliases of "policy" and
// "z_threshold". An explicit threshold of zero or less is rejected.
func ParseRuleSet(data []byte) (RuleSet, error) {
	var raw struct {
		MissingValues *struct {
			Policy    string `yaml:"policy"`
			Method    string `yaml:"method"`
			FillValue any    `yaml:"fill_value"`
		} `yaml:"missing_values"`
		Outliers *struct {
			Column      string   `yaml:"column"`
			ZThreshold  *float64 `yaml:"z_threshold"`
			Threshold   *float64 `yaml:"threshold"`
			Replacement *float64 `yaml:"replacement"`
		} `yaml:"outliers"`
		Duplicates *struct {
			Policy string `yaml:"policy"`
			Method string `yaml:"method"`
		} `yaml:"duplicates"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return RuleSet{}, errors.NewConfigError("rules", err.Error())
	}

	var rules RuleSet
	if mv := raw.MissingValues; mv != nil {
		rules.MissingValues = &MissingValueRule{
			Policy:    MissingPolicy(firstNonEmpty(mv.Policy, mv.Method)),
			FillValue: mv.FillValue,
		}
	}
	if o := raw.Outliers; o != nil {
		rule := &OutlierRule{Column: o.Column, Replacement: o.Replacement}
		thr := o.ZThreshold
		if thr == nil {
			thr = o.Threshold
		}
		if thr != nil {
			if *thr <= 0 {
				return RuleSet{}, errors.NewConfigError("outliers.z_threshold", fmt.Sprintf("must be positive, got %g", *thr))
			}
			rule.Threshold = *thr
		}
		rules.Outliers = rule
	}
	if d := raw.Duplicates; d != nil {
		rules.Duplicates = &DuplicateRule{Policy: DuplicatePolicy(firstNonEmpty(d.Policy, d.Method))}
	}
	return rules, rules.Validate()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
