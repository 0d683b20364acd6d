package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// pieChart draws wedges proportional to values, starting at twelve o'clock
// and going clockwise. A Hole above zero draws a donut.
type pieChart struct {
	labels []string
	values []float64
	colors []color.Color
	hole   float64
}

func newPieChart(labels []string, values []float64, hole float64) (*pieChart, error) {
	var total float64
	for i, v := range values {
		if v < 0 {
			return nil, errors.NewValueError("pie", fmt.Sprintf("negative value %g for '%s'", v, labels[i]))
		}
		total += v
	}
	if total == 0 {
		return nil, errors.NewDegenerateInputError("pie", "values sum to zero")
	}
	colors := make([]color.Color, len(values))
	for i := range colors {
		colors[i] = plotutil.Color(i)
	}
	return &pieChart{labels: labels, values: values, colors: colors, hole: hole}, nil
}

// fractions returns each value's share of the total.
func (pc *pieChart) fractions() []float64 {
	var total float64
	for _, v := range pc.values {
		total += v
	}
	out := make([]float64, len(pc.values))
	for i, v := range pc.values {
		out[i] = v / total
	}
	return out
}

// Plot implements plot.Plotter.
func (pc *pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	center := c.Center()
	radius := 0.9 * vg.Length(math.Min(float64(c.Max.X-c.Min.X), float64(c.Max.Y-c.Min.Y))) / 2
	inner := radius * vg.Length(pc.hole)

	start := math.Pi / 2
	for i, frac := range pc.fractions() {
		if frac == 0 {
			continue
		}
		sweep := -2 * math.Pi * frac
		end := start + sweep

		var path vg.Path
		path.Move(polar(center, radius, start))
		path.Arc(center, radius, start, sweep)
		if inner > 0 {
			path.Line(polar(center, inner, end))
			path.Arc(center, inner, end, -sweep)
		} else {
			path.Line(center)
		}
		path.Close()
		c.SetColor(pc.colors[i])
		c.Fill(path)

		if frac >= 0.03 {
			mid := start + sweep/2
			at := polar(center, (radius+inner)/2+radius/6*vg.Length(1-pc.hole), mid)
			sty := plt.Legend.TextStyle
			sty.XAlign, sty.YAlign = draw.XCenter, draw.YCenter
			c.FillText(sty, at, fmt.Sprintf("%.1f%%", 100*frac))
		}
		start = end
	}
}

// DataRange implements plot.DataRanger so the hidden axes stay finite.
func (pc *pieChart) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1, 1, -1, 1
}

func polar(center vg.Point, r vg.Length, angle float64) vg.Point {
	return vg.Point{
		X: center.X + r*vg.Length(math.Cos(angle)),
		Y: center.Y + r*vg.Length(math.Sin(angle)),
	}
}

// swatch is a legend entry filled with a single color.
type swatch struct {
	color color.Color
}

// Thumbnail implements plot.Thumbnailer.
func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, pts)
}
