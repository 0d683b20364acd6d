package chart

import (
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// Default image size.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

type renderOptions struct {
	width, height vg.Length
	format        string
}

// RenderOption configures Render and Write.
type RenderOption func(*renderOptions)

// WithSize sets the image size.
func WithSize(width, height vg.Length) RenderOption {
	return func(o *renderOptions) {
		o.width, o.height = width, height
	}
}

// WithFormat selects an image format gonum/plot can write, such as "png" or "svg".
func WithFormat(format string) RenderOption {
	return func(o *renderOptions) {
		o.format = format
	}
}

// Render builds the chart described by s and writes it to w, as PNG by default.
func Render(ds *dataset.Dataset, s Spec, w io.Writer, opts ...RenderOption) error {
	p, err := Build(ds, s)
	if err != nil {
		return err
	}
	return Write(p, w, opts...)
}

// Write encodes p to w.
func Write(p *plot.Plot, w io.Writer, opts ...RenderOption) error {
	o := &renderOptions{width: DefaultWidth, height: DefaultHeight, format: "png"}
	for _, opt := range opts {
		opt(o)
	}
	wt, err := p.WriterTo(o.width, o.height, o.format)
	if err != nil {
		return errors.Wrapf(err, "encode %s", o.format)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "write chart")
	}
	return nil
}
