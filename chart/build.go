package chart

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// Build validates s against ds and assembles the plot. Rows with a missing
// value in any bound numeric column are skipped.
func Build(ds *dataset.Dataset, s Spec) (*plot.Plot, error) {
	if err := Validate(ds, s); err != nil {
		return nil, err
	}
	p := plot.New()
	p.Title.Text = s.title()

	var err error
	switch s.Kind {
	case Histogram:
		err = buildHistogram(p, ds, s)
	case Scatter:
		err = buildScatter(p, ds, s)
	case Line:
		err = buildLine(p, ds, s)
	case Bar:
		err = buildBar(p, ds, s)
	case Box:
		err = buildBox(p, ds, s)
	case Pie:
		err = buildPie(p, ds, s)
	case Heatmap:
		err = buildHeatmap(p, ds, s)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "build %s chart", s.Kind)
	}
	return p, nil
}

// frame is the column view shared by the builders.
type frame struct {
	ds *dataset.Dataset
}

func (f frame) floats(name string) ([]float64, []bool) {
	col, _ := f.ds.Column(name)
	return col.Floats()
}

// labels renders a column as text; missing cells become "(missing)".
func (f frame) labels(name string) []string {
	col, _ := f.ds.Column(name)
	out := make([]string, col.Len())
	for i, v := range col.Values {
		if v == nil {
			out[i] = "(missing)"
			continue
		}
		out[i] = dataset.FormatCell(v)
	}
	return out
}

// groups splits row positions by the value of column name, in first-seen
// order. An empty name yields a single unnamed group.
func (f frame) groups(name string, rows []int) ([]string, map[string][]int) {
	if name == "" {
		return []string{""}, map[string][]int{"": rows}
	}
	labels := f.labels(name)
	var order []string
	byKey := make(map[string][]int)
	for _, i := range rows {
		k := labels[i]
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], i)
	}
	return order, byKey
}

// complete returns the rows where every named numeric column has a value.
func (f frame) complete(names ...string) []int {
	oks := make([][]bool, len(names))
	for j, n := range names {
		_, oks[j] = f.floats(n)
	}
	var rows []int
	for i := 0; i < f.ds.NumRows(); i++ {
		keep := true
		for _, ok := range oks {
			keep = keep && ok[i]
		}
		if keep {
			rows = append(rows, i)
		}
	}
	return rows
}

func translucent(c color.Color, alpha uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: alpha}
}

// sturges returns the default bin count for n samples.
func sturges(n int) int {
	if n < 2 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

func buildHistogram(p *plot.Plot, ds *dataset.Dataset, s Spec) error {
	f := frame{ds}
	rows := f.complete(s.X)
	if len(rows) == 0 {
		return errors.NewDegenerateInputError("histogram", fmt.Sprintf("column '%s' has no values", s.X))
	}
	x, _ := f.floats(s.X)
	order, byGroup := f.groups(s.Color, rows)

	bins := s.Bins
	if bins == 0 {
		bins = sturges(len(rows))
	}
	for gi, g := range order {
		values := make(plotter.Values, len(byGroup[g]))
		for k, i := range byGroup[g] {
			values[k] = x[i]
		}
		h, err := plotter.NewHist(values, bins)
		if err != nil {
			return err
		}
		h.FillColor = plotutil.Color(gi)
		if s.Color != "" {
			h.FillColor = translucent(plotutil.Color(gi), 140)
			p.Legend.Add(g, h)
		}
		p.Add(h)
	}
	p.X.Label.Text = s.X
	p.Y.Label.Text = "Count"
	return nil
}

func buildScatter(p *plot.Plot, ds *dataset.Dataset, s Spec) error {
	f := frame{ds}
	numeric := []string{s.X, s.Y[0]}
	if s.Size != "" {
		numeric = append(numeric, s.Size)
	}
	rows := f.complete(numeric...)
	x, _ := f.floats(s.X)
	y, _ := f.floats(s.Y[0])

	var radius func(i int) vg.Length
	if s.Size != "" {
		size, _ := f.floats(s.Size)
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, i := range rows {
			lo, hi = math.Min(lo, size[i]), math.Max(hi, size[i])
		}
		radius = func(i int) vg.Length {
			if hi == lo {
				return vg.Points(4)
			}
			return vg.Points(2 + 8*(size[i]-lo)/(hi-lo))
		}
	}

	order, byGroup := f.groups(s.Color, rows)
	for gi, g := range order {
		idx := byGroup[g]
		pts := make(plotter.XYs, len(idx))
		for k, i := range idx {
			pts[k] = plotter.XY{X: x[i], Y: y[i]}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = plotutil.Color(gi)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		if radius != nil {
			base := sc.GlyphStyle
			sc.GlyphStyleFunc = func(k int) draw.GlyphStyle {
				gs := base
				gs.Radius = radius(idx[k])
				return gs
			}
		}
		if s.Color != "" {
			p.Legend.Add(g, sc)
		}
		p.Add(sc)
	}
	p.X.Label.Text = s.X
	p.Y.Label.Text = s.Y[0]
	return nil
}

func buildLine(p *plot.Plot, ds *dataset.Dataset, s Spec) error {
	f := frame{ds}
	x, _ := f.floats(s.X)

	type series struct {
		name string
		rows []int
		y    []float64
	}
	var all []series
	if len(s.Y) == 1 {
		y, _ := f.floats(s.Y[0])
		order, byGroup := f.groups(s.Color, f.complete(s.X, s.Y[0]))
		for _, g := range order {
			all = append(all, series{name: g, rows: byGroup[g], y: y})
		}
	} else {
		for _, name := range s.Y {
			y, _ := f.floats(name)
			all = append(all, series{name: name, rows: f.complete(s.X, name), y: y})
		}
	}

	for si, sr := range all {
		pts := make(plotter.XYs, len(sr.rows))
		for k, i := range sr.rows {
			pts[k] = plotter.XY{X: x[i], Y: sr.y[i]}
		}
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].X < pts[b].X })

		l, sc, err := plotter.NewLinePoints(pts)
		if err != nil {
			return err
		}
		l.LineStyle.Color = plotutil.Color(si)
		l.LineStyle.Width = vg.Points(1.5)
		p.Add(l)
		if s.Markers {
			sc.GlyphStyle.Color = plotutil.Color(si)
			p.Add(sc)
		}
		if sr.name != "" {
			p.Legend.Add(sr.name, l)
		}
	}
	p.X.Label.Text = s.X
	p.Y.Label.Text = s.Y[0]
	if len(s.Y) > 1 {
		p.Y.Label.Text = "value"
	}
	return nil
}

// sums adds up value per category and group. Categories keep first-seen order.
func sums(f frame, s Spec) (categories []string, groups []string, total map[string]map[string]float64) {
	value, ok := f.floats(s.Y[0])
	names := f.labels(s.X)
	var colors []string
	if s.Color != "" {
		colors = f.labels(s.Color)
	}

	total = make(map[string]map[string]float64)
	seenCat := make(map[string]bool)
	seenGroup := make(map[string]bool)
	for i := range names {
		if !ok[i] {
			continue
		}
		g := ""
		if colors != nil {
			g = colors[i]
		}
		if !seenCat[names[i]] {
			seenCat[names[i]] = true
			categories = append(categories, names[i])
		}
		if !seenGroup[g] {
			seenGroup[g] = true
			groups = append(groups, g)
			total[g] = make(map[string]float64)
		}
		total[g][names[i]] += value[i]
	}
	return categories, groups, total
}

func buildBar(p *plot.Plot, ds *dataset.Dataset, s Spec) error {
	categories, groups, total := sums(frame{ds}, s)
	if len(categories) == 0 {
		return errors.NewDegenerateInputError("bar", fmt.Sprintf("column '%s' has no values", s.Y[0]))
	}

	width := vg.Points(20)
	if len(groups) > 1 {
		width = vg.Points(40 / float64(len(groups)))
	}
	for gi, g := range groups {
		values := make(plotter.Values, len(categories))
		for k, c := range categories {
			values[k] = total[g][c]
		}
		bc, err := plotter.NewBarChart(values, width)
		if err != nil {
			return err
		}
		bc.Color = plotutil.Color(gi)
		bc.LineStyle.Width = 0
		bc.Horizontal = s.Horizontal
		bc.Offset = vg.Length(float64(gi)-float64(len(groups)-1)/2) * width
		if g != "" {
			p.Legend.Add(g, bc)
		}
		p.Add(bc)
	}

	if s.Horizontal {
		p.NominalY(categories...)
		p.X.Label.Text = s.Y[0]
	} else {
		p.NominalX(categories...)
		p.Y.Label.Text = s.Y[0]
	}
	return nil
}

func buildBox(p *plot.Plot, ds *dataset.Dataset, s Spec) error {
	f := frame{ds}
	y, _ := f.floats(s.Y[0])
	rows := f.complete(s.Y[0])
	if len(rows) == 0 {
		return errors.NewDegenerateInputError("box", fmt.Sprintf("column '%s' has no values", s.Y[0]))
	}

	groupBy := s.X
	if groupBy == "" {
		groupBy = s.Color
	}
	order, byGroup := f.groups(groupBy, rows)
	for gi, g := range order {
		values := make(plotter.Values, len(byGroup[g]))
		for k, i := range byGroup[g] {
			values[k] = y[i]
		}
		b, err := plotter.NewBoxPlot(vg.Points(20), float64(gi), values)
		if err != nil {
			return err
		}
		b.FillColor = translucent(plotutil.Color(gi), 160)
		p.Add(b)
	}
	if groupBy != "" {
		p.NominalX(order...)
		p.X.Label.Text = groupBy
	} else {
		p.HideX()
	}
	p.Y.Label.Text = s.Y[0]
	return nil
}

func buildPie(p *plot.Plot, ds *dataset.Dataset, s Spec) error {
	categories, _, total := sums(frame{ds}, Spec{X: s.X, Y: s.Y})
	values := make([]float64, len(categories))
	for k, c := range categories {
		values[k] = total[""][c]
	}
	pie, err := newPieChart(categories, values, s.Hole)
	if err != nil {
		return err
	}
	p.Add(pie)
	for k, c := range categories {
		p.Legend.Add(c, swatch{pie.colors[k]})
	}
	p.Legend.Top = true
	p.HideAxes()
	return nil
}

// correlation is a plotter.GridXYZ over a symmetric matrix. Row 0 is drawn at the top.
type correlation struct {
	z [][]float64
}

func (c correlation) Dims() (int, int)       { return len(c.z), len(c.z) }
func (c correlation) Z(col, row int) float64 { return c.z[len(c.z)-1-row][col] }
func (c correlation) X(col int) float64      { return float64(col) }
func (c correlation) Y(row int) float64      { return float64(row) }

// Correlation returns the pairwise Pearson correlation of the named
// columns, using the rows where both columns have a value. A pair without
// variance has correlation NaN.
func Correlation(ds *dataset.Dataset, names []string) ([][]float64, error) {
	f := frame{ds}
	for _, n := range names {
		if _, err := ds.Column(n); err != nil {
			return nil, errors.NewColumnNotFoundError("Correlation", n)
		}
	}
	out := make([][]float64, len(names))
	for a := range names {
		out[a] = make([]float64, len(names))
	}
	for a := range names {
		xa, _ := f.floats(names[a])
		for b := a; b < len(names); b++ {
			xb, _ := f.floats(names[b])
			rows := f.complete(names[a], names[b])
			u := make([]float64, len(rows))
			v := make([]float64, len(rows))
			for k, i := range rows {
				u[k], v[k] = xa[i], xb[i]
			}
			r := math.NaN()
			if len(rows) > 1 && stat.Variance(u, nil) > 0 && stat.Variance(v, nil) > 0 {
				r = stat.Correlation(u, v, nil)
			}
			out[a][b], out[b][a] = r, r
		}
	}
	return out, nil
}

func buildHeatmap(p *plot.Plot, ds *dataset.Dataset, s Spec) error {
	names := s.Columns
	if len(names) == 0 {
		names = ds.NumericNames()
	}
	n := len(names)
	if n < 2 {
		return errors.NewDegenerateInputError("heatmap", "correlation needs at least two numeric columns")
	}
	corr, err := Correlation(ds, names)
	if err != nil {
		return err
	}

	grid := correlation{z: make([][]float64, n)}
	var labels plotter.XYLabels
	for a := 0; a < n; a++ {
		grid.z[a] = make([]float64, n)
		for b := 0; b < n; b++ {
			r := corr[a][b]
			text := fmt.Sprintf("%.2f", r)
			if math.IsNaN(r) {
				r, text = 0, "n/a"
			}
			grid.z[a][b] = r
			labels.XYs = append(labels.XYs, plotter.XY{X: float64(b), Y: float64(n - 1 - a)})
			labels.Labels = append(labels.Labels, text)
		}
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	hm := plotter.NewHeatMap(grid, cmap.Palette(255))
	hm.Min, hm.Max = -1, 1
	p.Add(hm)

	text, err := plotter.NewLabels(labels)
	if err != nil {
		return err
	}
	for i := range text.TextStyle {
		text.TextStyle[i].XAlign = draw.XCenter
		text.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(text)

	xticks := make([]plot.Tick, n)
	yticks := make([]plot.Tick, n)
	for k, name := range names {
		xticks[k] = plot.Tick{Value: float64(k), Label: name}
		yticks[k] = plot.Tick{Value: float64(n - 1 - k), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xticks)
	p.Y.Tick.Marker = plot.ConstantTicks(yticks)
	return nil
}
