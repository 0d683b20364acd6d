package analysis

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// Defaults applied to zero-valued Request fields.
const (
	DefaultTestSize    = 0.2
	DefaultNClusters   = 3
	DefaultEps         = 0.5
	DefaultMinSamples  = 5
	DefaultNComponents = 2
	DefaultRandomState = 42
)

// Request describes one analysis run. Hyperparameters that do not apply to
// the chosen family are ignored.
type Request struct {
	Algorithm string   `json:"algorithm" yaml:"algorithm" validate:"required"`
	Features  []string `json:"features" yaml:"features" validate:"required,min=1,dive,required"`
	Target    string   `json:"target,omitempty" yaml:"target,omitempty"`

	// TestSize is the test fraction in (0, 1).
	TestSize float64 `json:"test_size,omitempty" yaml:"test_size,omitempty" validate:"gt=0,lt=1"`

	NClusters   int     `json:"n_clusters,omitempty" yaml:"n_clusters,omitempty" validate:"min=1"`
	Eps         float64 `json:"eps,omitempty" yaml:"eps,omitempty" validate:"gt=0"`
	MinSamples  int     `json:"min_samples,omitempty" yaml:"min_samples,omitempty" validate:"min=1"`
	NComponents int     `json:"n_components,omitempty" yaml:"n_components,omitempty" validate:"min=1"`

	// RandomState seeds the split and every randomized estimator. nil means DefaultRandomState.
	RandomState *int64 `json:"random_state,omitempty" yaml:"random_state,omitempty"`
}

// TestPercent converts a test size given in percent, as in "20", to a fraction.
func TestPercent(percent float64) float64 {
	return percent / 100
}

// WithDefaults returns a copy with zero-valued fields set to their defaults.
func (r Request) WithDefaults() Request {
	if r.TestSize == 0 {
		r.TestSize = DefaultTestSize
	}
	if r.NClusters == 0 {
		r.NClusters = DefaultNClusters
	}
	if r.Eps == 0 {
		r.Eps = DefaultEps
	}
	if r.MinSamples == 0 {
		r.MinSamples = DefaultMinSamples
	}
	if r.NComponents == 0 {
		r.NComponents = DefaultNComponents
	}
	if r.RandomState == nil {
		seed := int64(DefaultRandomState)
		r.RandomState = &seed
	}
	r.Features = append([]string(nil), r.Features...)
	return r
}

// Seed returns the effective random seed.
func (r Request) Seed() int64 {
	if r.RandomState == nil {
		return DefaultRandomState
	}
	return *r.RandomState
}

var validate = validator.New()

// Validate checks the request after defaults have been applied. The first
// violated field is reported as a ConfigError.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		if seen := duplicate(r.Features); seen != "" {
			return errors.NewConfigError("features", fmt.Sprintf("column '%s' is listed twice", seen))
		}
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errors.NewConfigError(snake(fe.Field()),
			fmt.Sprintf("failed '%s' constraint (got %v)", fe.Tag(), fe.Value()))
	}
	return errors.NewConfigError("request", err.Error())
}

func duplicate(names []string) string {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return n
		}
		seen[n] = true
	}
	return ""
}

// snake converts a Go field name such as "NClusters" to "n_clusters".
func snake(field string) string {
	var b strings.Builder
	runes := []rune(field)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
