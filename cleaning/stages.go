package cleaning

import (
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// HandleMissingValues applies a missing-value policy. drop removes every
// row holding at least one missing cell, fill replaces missing cells with
// fill and none returns ds unchanged. The input is never modified.
func HandleMissingValues(ds *dataset.Dataset, policy MissingPolicy, fill any) (*dataset.Dataset, error) {
	out, _, err := handleMissingValues(ds, policy, fill)
	return out, err
}

func handleMissingValues(ds *dataset.Dataset, policy MissingPolicy, fill any) (*dataset.Dataset, int, error) {
	switch policy {
	case MissingNone:
		return ds, 0, nil
	case MissingDrop, "":
		var keep []int
		for i := 0; i < ds.NumRows(); i++ {
			if !rowHasMissing(ds, i) {
				keep = append(keep, i)
			}
		}
		return ds.SelectRows(keep), ds.NumRows() - len(keep), nil
	case MissingFill:
		if fill == nil {
			return nil, 0, errors.NewConfigError("missing_values.fill_value", "required when policy is fill")
		}
		// Resolve the fill for every affected column first so a bad fill
		// value fails before any column is rebuilt.
		cols := ds.Columns()
		fills := make([]any, len(cols))
		for j, c := range cols {
			if c.MissingCount() == 0 {
				continue
			}
			v, err := fillFor(c, fill)
			if err != nil {
				return nil, 0, err
			}
			fills[j] = v
		}
		out := ds
		changed := 0
		for j, c := range cols {
			if fills[j] == nil {
				continue
			}
			filled := c.Clone()
			for i, v := range filled.Values {
				if v == nil {
					filled.Values[i] = fills[j]
					changed++
				}
			}
			var err error
			if out, err = out.WithColumn(filled); err != nil {
				return nil, 0, err
			}
		}
		return out, changed, nil
	default:
		return nil, 0, errors.NewConfigError("missing_values.policy", fmt.Sprintf("unknown policy %q", policy))
	}
}

func rowHasMissing(ds *dataset.Dataset, i int) bool {
	for _, v := range ds.Row(i) {
		if v == nil {
			return true
		}
	}
	return false
}

// fillFor converts the configured fill value to the kind of column c.
func fillFor(c *dataset.Column, fill any) (any, error) {
	switch c.Kind {
	case dataset.Numeric:
		if _, isBool := fill.(bool); !isBool {
			if f, ok := dataset.ToFloat(fill); ok {
				return f, nil
			}
		}
	case dataset.Boolean:
		switch v := fill.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
		default:
			if f, ok := dataset.ToFloat(v); ok && (f == 0 || f == 1) {
				return f == 1, nil
			}
		}
	default:
		return dataset.FormatCell(fill), nil
	}
	return nil, errors.NewConfigError("missing_values.fill_value",
		fmt.Sprintf("value %v cannot fill %s column '%s'", fill, c.Kind, c.Name))
}

// ZScores returns (v - mean) / std for each value using the population
// standard deviation. A zero standard deviation yields a DegenerateInputError.
func ZScores(values []float64) ([]float64, error) {
	if len(values) == 0 {
		return nil, errors.NewDegenerateInputError("ZScores", "no values")
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return nil, errors.Wrap(err, "z-score mean")
	}
	std, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return nil, errors.Wrap(err, "z-score standard deviation")
	}
	if std == 0 || math.IsNaN(std) {
		return nil, errors.NewDegenerateInputError("ZScores", "standard deviation is zero")
	}
	z := make([]float64, len(values))
	for i, v := range values {
		z[i] = (v - mean) / std
	}
	return z, nil
}

// HandleOutliers flags values of column whose absolute z-score exceeds
// threshold. The column is coerced to numeric first and rows whose value is
// missing or unparseable are dropped before statistics are computed. Flagged
// values are replaced by *replacement when it is non-nil, otherwise their
// rows are dropped. A column with zero standard deviation flags nothing.
func HandleOutliers(ds *dataset.Dataset, column string, threshold float64, replacement *float64) (*dataset.Dataset, error) {
	out, _, err := handleOutliers(ds, column, threshold, replacement)
	return out, err
}

func handleOutliers(ds *dataset.Dataset, column string, threshold float64, replacement *float64) (*dataset.Dataset, int, error) {
	if threshold <= 0 {
		return nil, 0, errors.NewConfigError("outliers.z_threshold", fmt.Sprintf("must be positive, got %g", threshold))
	}
	col, err := ds.Column(column)
	if err != nil {
		return nil, 0, errors.NewColumnNotFoundError("HandleOutliers", column)
	}

	numeric := col.ToNumeric()
	withNumeric, err := ds.WithColumn(numeric)
	if err != nil {
		return nil, 0, err
	}
	var present []int
	for i, v := range numeric.Values {
		if v != nil {
			present = append(present, i)
		}
	}
	coerced := withNumeric.SelectRows(present)
	dropped := ds.NumRows() - len(present)

	values, _ := mustColumn(coerced, column).Floats()
	z, err := ZScores(values)
	if err != nil {
		var degenerate *errors.DegenerateInputError
		if errors.As(err, &degenerate) {
			return coerced, dropped, nil
		}
		return nil, 0, err
	}

	if replacement != nil {
		replaced := mustColumn(coerced, column).Clone()
		changed := 0
		for i, score := range z {
			if math.Abs(score) > threshold {
				replaced.Values[i] = *replacement
				changed++
			}
		}
		if changed == 0 {
			return coerced, dropped, nil
		}
		out, err := coerced.WithColumn(replaced)
		return out, dropped + changed, err
	}

	var keep []int
	for i, score := range z {
		if math.Abs(score) <= threshold {
			keep = append(keep, i)
		}
	}
	return coerced.SelectRows(keep), ds.NumRows() - len(keep), nil
}

func mustColumn(ds *dataset.Dataset, name string) *dataset.Column {
	c, err := ds.Column(name)
	if err != nil {
		panic(err)
	}
	return c
}

// HandleDuplicates applies a duplicate policy. Rows are compared on every
// column except an existing is_duplicate marker. drop keeps the first
// occurrence of each row in order; mark adds or recomputes the boolean
// is_duplicate column, true for every occurrence after the first.
func HandleDuplicates(ds *dataset.Dataset, policy DuplicatePolicy) (*dataset.Dataset, error) {
	out, _, err := handleDuplicates(ds, policy)
	return out, err
}

func handleDuplicates(ds *dataset.Dataset, policy DuplicatePolicy) (*dataset.Dataset, int, error) {
	switch policy {
	case DuplicateNone:
		return ds, 0, nil
	case DuplicateDrop, "", DuplicateMark:
	default:
		return nil, 0, errors.NewConfigError("duplicates.policy", fmt.Sprintf("unknown policy %q", policy))
	}

	seen := make(map[string]struct{}, ds.NumRows())
	marks := make([]bool, ds.NumRows())
	var keep []int
	for i := 0; i < ds.NumRows(); i++ {
		key := rowKey(ds, i)
		if _, dup := seen[key]; dup {
			marks[i] = true
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	duplicates := ds.NumRows() - len(keep)

	if policy == DuplicateMark {
		out, err := ds.WithColumn(dataset.NewBoolColumn(DuplicateColumn, marks))
		return out, duplicates, err
	}
	return ds.SelectRows(keep), duplicates, nil
}

// rowKey encodes a row so that equal rows share a key. Cells are tagged with
// their Go type so 1.0 and "1" do not collide.
func rowKey(ds *dataset.Dataset, i int) string {
	var b strings.Builder
	for _, c := range ds.Columns() {
		if c.Name == DuplicateColumn {
			continue
		}
		v := c.Values[i]
		if v == nil {
			b.WriteString("n;")
			continue
		}
		if f, ok := v.(float64); ok && f == 0 {
			v = 0.0 // -0 == 0
		}
		fmt.Fprintf(&b, "%T:%q;", v, dataset.FormatCell(v))
	}
	return b.String()
}
