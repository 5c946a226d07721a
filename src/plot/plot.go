// Package plot composes line plots and histograms over result tables and
// renders them to image files or on-screen windows.
//
// Both plot kinds share one usage protocol: series are included while the
// plot is open, Finalize (one-way) freezes it, Display/Save require a
// finalized plot, and Close releases the plot exactly once. Callers are
// expected to `defer p.Close()` right after construction.
package plot

import (
	"math"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/avestel/MLRunViewer/src/results"
)

// Protocol violations. These are programming errors on the caller's side,
// surfaced as sentinels so tests and drivers can branch on them.
var (
	ErrFinalized    = errors.New("plot is already finalized and cannot include another line")
	ErrNotFinalized = errors.New("plot has not been finalized yet")
	ErrClosed       = errors.New("plot is closed")
	ErrTooManyAxes  = errors.New("line plot cannot have a 3rd y-axis")
)

// Defaults used by Save when the caller passes zero values, matching the
// output conventions of the plotting drivers this library serves.
const (
	DefaultDPI    = 200.0
	DefaultXSize  = 3.0 // cm
	DefaultYSize  = 2.0 // cm
	displayWidth  = 1024
	displayHeight = 640
)

// TableProvider is anything exposing a results table; both *results.Table
// and *results.Session satisfy it.
type TableProvider interface {
	Table() *results.Table
}

// Float is a convenience for the optional axis limits.
func Float(v float64) *float64 { return &v }

// Limits carries optional axis bounds; nil leaves a bound automatic.
type Limits struct {
	XMin, XMax *float64
	YMin, YMax *float64
}

// figure holds the state shared by both plot kinds.
type figure struct {
	finalized bool
	closed    bool
	title     string
	xLabel    string
	yLabel    string
}

func (f *figure) requireOpen() error {
	if f.closed {
		return ErrClosed
	}
	if f.finalized {
		return ErrFinalized
	}
	return nil
}

func (f *figure) requireFinalized() error {
	if f.closed {
		return ErrClosed
	}
	if !f.finalized {
		return ErrNotFinalized
	}
	return nil
}

// makeRange builds a chart range from optional explicit bounds, filling the
// unspecified side from the observed data bounds. A nil result leaves the
// axis fully automatic.
func makeRange(minOpt, maxOpt *float64, dataMin, dataMax float64, dataOK bool) chart.Range {
	if minOpt == nil && maxOpt == nil {
		return nil
	}
	r := &chart.ContinuousRange{}
	switch {
	case minOpt != nil && maxOpt != nil:
		r.Min, r.Max = *minOpt, *maxOpt
	case minOpt != nil:
		if !dataOK {
			return nil
		}
		r.Min, r.Max = *minOpt, dataMax
	default:
		if !dataOK {
			return nil
		}
		r.Min, r.Max = dataMin, *maxOpt
	}
	return r
}

// boundsAccum tracks NaN-guarded min/max the way the viewer's axis helpers do.
type boundsAccum struct {
	min, max float64
	ok       bool
}

func newBoundsAccum() boundsAccum {
	return boundsAccum{min: math.MaxFloat64, max: -math.MaxFloat64}
}

func (b *boundsAccum) add(values ...float64) {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < b.min {
			b.min = v
		}
		if v > b.max {
			b.max = v
		}
		b.ok = true
	}
}

func gridStyle() chart.Style {
	return chart.Style{StrokeColor: chart.ColorAlternateLightGray, StrokeWidth: 1.0}
}

func chartPadding() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 24}}
}
