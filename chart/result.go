package chart

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/analysis"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

func unsupported(chart string, res *analysis.Result) error {
	if res.Failed() {
		return errors.NewValueError(chart, fmt.Sprintf("%s run failed; nothing to plot", res.Algorithm))
	}
	return errors.NewValueError(chart, fmt.Sprintf("not available for %s results", res.Family))
}

// PredictionChart plots predicted against actual test values of a
// regression result, with the identity line for reference.
func PredictionChart(res *analysis.Result) (*plot.Plot, error) {
	out, ok := res.Output.(*analysis.RegressionOutput)
	if !ok {
		return nil, unsupported("PredictionChart", res)
	}
	if len(out.Actual) == 0 {
		return nil, errors.NewDegenerateInputError("PredictionChart", "no test rows")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: predicted vs actual", res.Algorithm)
	p.X.Label.Text = "actual " + res.Target
	p.Y.Label.Text = "predicted " + res.Target

	pts := make(plotter.XYs, len(out.Actual))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range out.Actual {
		pts[i] = plotter.XY{X: out.Actual[i], Y: out.Predicted[i]}
		lo = math.Min(lo, math.Min(out.Actual[i], out.Predicted[i]))
		hi = math.Max(hi, math.Max(out.Actual[i], out.Predicted[i]))
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = plotutil.Color(0)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}

	ideal, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, err
	}
	ideal.LineStyle.Color = plotutil.Color(1)
	ideal.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(sc, ideal)
	p.Legend.Add("test rows", sc)
	p.Legend.Add("y = x", ideal)
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// ImportanceChart draws a horizontal bar per feature, sorted by weight.
// Forest results show feature importances; linear regression shows the
// absolute standardized coefficients.
func ImportanceChart(res *analysis.Result) (*plot.Plot, error) {
	var weights []analysis.FeatureWeight
	label := "importance"
	switch out := res.Output.(type) {
	case *analysis.RegressionOutput:
		weights = out.Importances
		if weights == nil {
			label = "|coefficient|"
			for _, w := range out.Coefficients {
				weights = append(weights, analysis.FeatureWeight{Feature: w.Feature, Weight: math.Abs(w.Weight)})
			}
		}
	case *analysis.ClassificationOutput:
		weights = out.Importances
	default:
		return nil, unsupported("ImportanceChart", res)
	}
	if len(weights) == 0 {
		return nil, errors.NewDegenerateInputError("ImportanceChart", "no feature weights")
	}

	sorted := append([]analysis.FeatureWeight(nil), weights...)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Weight < sorted[b].Weight })
	values := make(plotter.Values, len(sorted))
	names := make([]string, len(sorted))
	for i, w := range sorted {
		values[i], names[i] = w.Weight, w.Feature
	}

	bc, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return nil, err
	}
	bc.Horizontal = true
	bc.Color = plotutil.Color(0)
	bc.LineStyle.Width = 0

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: feature %s", res.Algorithm, label)
	p.X.Label.Text = label
	p.Add(bc)
	p.NominalY(names...)
	return p, nil
}

// ClusterChart scatters the rows of ds on the first two analyzed features,
// one color per cluster. DBSCAN noise is drawn as gray crosses. With a single
// feature the rows are spread along the x axis at y = 0.
func ClusterChart(ds *dataset.Dataset, res *analysis.Result) (*plot.Plot, error) {
	var labels []int
	switch out := res.Output.(type) {
	case *analysis.PartitionOutput:
		labels = out.Labels
	case *analysis.DensityOutput:
		labels = out.Labels
	default:
		return nil, unsupported("ClusterChart", res)
	}
	if len(labels) != ds.NumRows() {
		return nil, errors.NewDimensionError("ClusterChart", ds.NumRows(), len(labels), 0)
	}

	f := frame{ds}
	for _, name := range res.Features[:min(2, len(res.Features))] {
		if _, err := ds.Column(name); err != nil {
			return nil, errors.NewColumnNotFoundError("ClusterChart", name)
		}
	}
	x, xok := f.floats(res.Features[0])
	y := make([]float64, len(x))
	yok := make([]bool, len(x))
	for i := range yok {
		yok[i] = true
	}
	if len(res.Features) > 1 {
		y, yok = f.floats(res.Features[1])
	}

	byLabel := make(map[int]plotter.XYs)
	for i, l := range labels {
		if xok[i] && yok[i] {
			byLabel[l] = append(byLabel[l], plotter.XY{X: x[i], Y: y[i]})
		}
	}
	keys := make([]int, 0, len(byLabel))
	for k := range byLabel {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s clusters", res.Algorithm)
	p.X.Label.Text = res.Features[0]
	if len(res.Features) > 1 {
		p.Y.Label.Text = res.Features[1]
	}
	for _, k := range keys {
		sc, err := plotter.NewScatter(byLabel[k])
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("cluster %d", k)
		if k < 0 {
			name = "noise"
			sc.GlyphStyle.Shape = draw.CrossGlyph{}
			sc.GlyphStyle.Color = color.Gray{Y: 128}
		} else {
			sc.GlyphStyle.Shape = draw.CircleGlyph{}
			sc.GlyphStyle.Color = plotutil.Color(k)
		}
		p.Add(sc)
		p.Legend.Add(name, sc)
	}
	return p, nil
}

// ProjectionChart scatters PCA coordinates on the first two components.
func ProjectionChart(res *analysis.Result) (*plot.Plot, error) {
	out, ok := res.Output.(*analysis.ReductionOutput)
	if !ok {
		return nil, unsupported("ProjectionChart", res)
	}
	pts := make(plotter.XYs, len(out.Coordinates))
	for i, row := range out.Coordinates {
		pts[i].X = row[0]
		if len(row) > 1 {
			pts[i].Y = row[1]
		}
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = plotutil.Color(0)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}

	p := plot.New()
	p.Title.Text = "PCA projection"
	p.X.Label.Text = out.ComponentNames[0]
	if len(out.ComponentNames) > 1 {
		p.Y.Label.Text = out.ComponentNames[1]
	}
	p.Add(sc)
	return p, nil
}

// VarianceChart shows the explained variance ratio per component as bars
// and the cumulative ratio as a line.
func VarianceChart(res *analysis.Result) (*plot.Plot, error) {
	out, ok := res.Output.(*analysis.ReductionOutput)
	if !ok {
		return nil, unsupported("VarianceChart", res)
	}

	bc, err := plotter.NewBarChart(plotter.Values(out.ExplainedVarianceRatio), vg.Points(24))
	if err != nil {
		return nil, err
	}
	bc.Color = plotutil.Color(0)
	bc.LineStyle.Width = 0

	cum := make(plotter.XYs, len(out.CumulativeVarianceRatio))
	for i, v := range out.CumulativeVarianceRatio {
		cum[i] = plotter.XY{X: float64(i), Y: v}
	}
	line, points, err := plotter.NewLinePoints(cum)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = plotutil.Color(1)
	points.GlyphStyle.Color = plotutil.Color(1)

	p := plot.New()
	p.Title.Text = "Explained variance"
	p.Y.Label.Text = "ratio"
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(bc, line, points)
	p.NominalX(out.ComponentNames...)
	p.Legend.Add("per component", bc)
	p.Legend.Add("cumulative", line)
	p.Legend.Left = true
	p.Legend.Top = true
	return p, nil
}
