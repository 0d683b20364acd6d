// Package chart renders datasets and analysis results as PNG images with
// gonum/plot.
//
// A Spec names a chart archetype and binds dataset columns to its roles.
// Validate checks the bindings against a dataset; Build produces a
// *plot.Plot and Render writes it out.
package chart

import (
	"fmt"
	"strings"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// Kind is a chart archetype.
type Kind string

const (
	Histogram Kind = "histogram"
	Scatter   Kind = "scatter"
	Line      Kind = "line"
	Bar       Kind = "bar"
	Box       Kind = "box"
	Pie       Kind = "pie"
	Heatmap   Kind = "heatmap"
)

// Kinds lists every archetype.
func Kinds() []Kind {
	return []Kind{Histogram, Scatter, Line, Bar, Box, Pie, Heatmap}
}

// ParseKind resolves a case-insensitive archetype name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", errors.NewConfigError("chart", fmt.Sprintf("unknown chart type '%s'", s))
}

// Spec binds dataset columns to the roles of a chart archetype.
//
//	histogram  X (numeric); Color groups; Bins
//	scatter    X, Y[0] (numeric); Color groups; Size (numeric) scales markers
//	line       X, Y... (numeric); Color groups a single Y; Markers
//	bar        X categories, Y[0] (numeric) summed per category; Color groups; Horizontal
//	box        Y[0] (numeric); X groups; Color groups
//	pie        X names, Y[0] (numeric) summed per name; Hole in [0, 1)
//	heatmap    Columns (numeric), default every numeric column; Pearson correlation
type Spec struct {
	Kind    Kind     `json:"kind" yaml:"kind"`
	X       string   `json:"x,omitempty" yaml:"x,omitempty"`
	Y       []string `json:"y,omitempty" yaml:"y,omitempty"`
	Color   string   `json:"color,omitempty" yaml:"color,omitempty"`
	Size    string   `json:"size,omitempty" yaml:"size,omitempty"`
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Title   string   `json:"title,omitempty" yaml:"title,omitempty"`

	Bins       int     `json:"bins,omitempty" yaml:"bins,omitempty"`
	Markers    bool    `json:"markers,omitempty" yaml:"markers,omitempty"`
	Horizontal bool    `json:"horizontal,omitempty" yaml:"horizontal,omitempty"`
	Hole       float64 `json:"hole,omitempty" yaml:"hole,omitempty"`
}

type role struct {
	name     string
	column   string
	required bool
	numeric  bool
}

// roles lists the column bindings of s, in validation order.
func (s Spec) roles() []role {
	y := func(required bool) role {
		r := role{name: "y", required: required, numeric: true}
		if len(s.Y) > 0 {
			r.column = s.Y[0]
		}
		return r
	}
	color := role{name: "color", column: s.Color}

	switch s.Kind {
	case Histogram:
		return []role{{name: "x", column: s.X, required: true, numeric: true}, color}
	case Scatter:
		return []role{
			{name: "x", column: s.X, required: true, numeric: true},
			y(true),
			color,
			{name: "size", column: s.Size, numeric: true},
		}
	case Line:
		out := []role{{name: "x", column: s.X, required: true, numeric: true}, y(true)}
		for _, extra := range s.Y[min(1, len(s.Y)):] {
			out = append(out, role{name: "y", column: extra, numeric: true})
		}
		return append(out, color)
	case Bar:
		return []role{{name: "x", column: s.X, required: true}, y(true), color}
	case Box:
		return []role{y(true), {name: "x", column: s.X}, color}
	case Pie:
		return []role{{name: "names", column: s.X, required: true}, y(true)}
	case Heatmap:
		out := make([]role, len(s.Columns))
		for i, c := range s.Columns {
			out[i] = role{name: "columns", column: c, required: true, numeric: true}
		}
		return out
	}
	return nil
}

// Validate checks that every role s requires is bound, that every bound
// column exists in ds and that numeric roles refer to numeric columns.
func Validate(ds *dataset.Dataset, s Spec) error {
	if _, err := ParseKind(string(s.Kind)); err != nil {
		return err
	}
	for _, r := range s.roles() {
		if r.column == "" {
			if r.required {
				return errors.NewConfigError(r.name, fmt.Sprintf("%s chart requires a %s column", s.Kind, r.name))
			}
			continue
		}
		col, err := ds.Column(r.column)
		if err != nil {
			return errors.NewColumnNotFoundError("chart."+string(s.Kind), r.column)
		}
		if r.numeric && col.Kind != dataset.Numeric {
			return errors.NewConfigError(r.name,
				fmt.Sprintf("column '%s' is %s; %s charts need a numeric %s column", r.column, col.Kind, s.Kind, r.name))
		}
	}

	switch s.Kind {
	case Heatmap:
		if len(s.Columns) == 0 && len(ds.NumericNames()) == 0 {
			return errors.NewConfigError("columns", "dataset has no numeric columns")
		}
	case Line:
		if len(s.Y) > 1 && s.Color != "" {
			return errors.NewConfigError("color", "color grouping needs a single y column")
		}
	case Pie:
		if s.Hole < 0 || s.Hole >= 1 {
			return errors.NewConfigError("hole", fmt.Sprintf("must be in [0, 1), got %g", s.Hole))
		}
	}
	if s.Bins < 0 {
		return errors.NewConfigError("bins", fmt.Sprintf("must not be negative, got %d", s.Bins))
	}
	return nil
}

// title returns s.Title or a default describing the bindings.
func (s Spec) title() string {
	if s.Title != "" {
		return s.Title
	}
	switch s.Kind {
	case Histogram:
		return "Histogram: " + s.X
	case Scatter:
		return fmt.Sprintf("Scatter: %s vs %s", s.X, s.Y[0])
	case Line:
		return fmt.Sprintf("Line: %s vs %s", strings.Join(s.Y, ", "), s.X)
	case Bar:
		return fmt.Sprintf("Bar: %s vs %s", s.Y[0], s.X)
	case Box:
		return "Box: " + s.Y[0]
	case Pie:
		return fmt.Sprintf("Pie: %s by %s", s.Y[0], s.X)
	default:
		return "Correlation heatmap"
	}
}
