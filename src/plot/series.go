package plot

import (
	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
)

// bandSeries shades the area between the upper and lower bound of a line. It
// is rendered through the library's bounded-series path and stays out of the
// legend (empty name).
type bandSeries struct {
	style   chart.Style
	yaxis   chart.YAxisType
	xvalues []float64
	upper   []float64
	lower   []float64
}

func (b bandSeries) GetName() string           { return "" }
func (b bandSeries) GetStyle() chart.Style     { return b.style }
func (b bandSeries) GetYAxis() chart.YAxisType { return b.yaxis }
func (b bandSeries) Len() int                  { return len(b.xvalues) }

func (b bandSeries) GetBoundedValues(index int) (float64, float64, float64) {
	return b.xvalues[index], b.upper[index], b.lower[index]
}

func (b bandSeries) Validate() error {
	if len(b.xvalues) == 0 {
		return errors.New("band series must have at least one value")
	}
	if len(b.xvalues) != len(b.upper) || len(b.xvalues) != len(b.lower) {
		return errors.New("band series must have aligned x, upper and lower values")
	}
	return nil
}

func (b bandSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, defaults chart.Style) {
	style := b.style.InheritFrom(defaults)
	chart.Draw.BoundedSeries(r, canvasBox, xrange, yrange, style, b)
}

// vlineSeries draws a vertical reference line across the whole canvas at a
// fixed abscissa. It provides no values, so it never affects axis ranges.
type vlineSeries struct {
	name  string
	style chart.Style
	x     float64
}

func (v vlineSeries) GetName() string           { return v.name }
func (v vlineSeries) GetStyle() chart.Style     { return v.style }
func (v vlineSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }

func (v vlineSeries) Validate() error { return nil }

func (v vlineSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, defaults chart.Style) {
	style := v.style.InheritFrom(defaults)
	x := canvasBox.Left + xrange.Translate(v.x)
	r.SetStrokeColor(style.GetStrokeColor())
	r.SetStrokeWidth(style.GetStrokeWidth())
	r.SetStrokeDashArray(style.GetStrokeDashArray())
	r.MoveTo(x, canvasBox.Top)
	r.LineTo(x, canvasBox.Bottom)
	r.Stroke()
}
