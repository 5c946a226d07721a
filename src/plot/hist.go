package plot

import (
	"bytes"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/avestel/MLRunViewer/src/gui"
)

// DefaultBins is the histogram bin count when the caller passes zero.
const DefaultBins = 25

// HistPlot accumulates raw sample arrays into an overlaid binned histogram.
// Same protocol as LinePlot: include while open, finalize once, then
// display/save, then close.
type HistPlot struct {
	figure
	bins    int
	samples [][]float64
	limits  Limits
}

// NewHistPlot builds an open histogram with the given bin count.
func NewHistPlot(bins int) *HistPlot {
	if bins <= 0 {
		bins = DefaultBins
	}
	return &HistPlot{bins: bins}
}

// Include adds one raw samples array, binned independently over its own range
// and overlaid with previously included samples. NaN samples are ignored; an
// array with nothing left to draw is accepted and draws nothing.
func (p *HistPlot) Include(samples []float64) error {
	if err := p.requireOpen(); err != nil {
		return err
	}
	kept := make([]float64, 0, len(samples))
	for _, v := range samples {
		if !math.IsNaN(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	p.samples = append(p.samples, kept)
	return nil
}

// Finalize freezes the histogram. Idempotent once finalized.
func (p *HistPlot) Finalize(title, xLabel, yLabel string, limits Limits) error {
	if p.closed {
		return ErrClosed
	}
	if p.finalized {
		return nil
	}
	p.title, p.xLabel, p.yLabel = title, xLabel, yLabel
	p.limits = limits
	p.finalized = true
	return nil
}

// Display renders the finalized histogram and shows it in a window. A
// non-empty caption is burnt onto the bottom-left corner of the image.
func (p *HistPlot) Display(caption string) error {
	if err := p.requireFinalized(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := p.render(displayWidth, displayHeight, 0, chart.PNG, &buf); err != nil {
		return err
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return errors.Wrap(err, "decode rendered histogram")
	}
	gui.ShowImage(img, p.title, caption)
	return nil
}

// Save renders the finalized histogram to the given file; see LinePlot.Save
// for the dpi/size conventions.
func (p *HistPlot) Save(path string, dpi, xsize, ysize float64) error {
	if err := p.requireFinalized(); err != nil {
		return err
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if xsize <= 0 {
		xsize = DefaultXSize
	}
	if ysize <= 0 {
		ysize = DefaultYSize
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create figure file %q", path)
	}
	defer f.Close()
	provider := chart.PNG
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		provider = chart.SVG
	}
	return p.render(int(xsize*2.54*dpi), int(ysize*2.54*dpi), dpi, provider, f)
}

// Close releases the histogram state exactly once; later calls are no-ops.
func (p *HistPlot) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.samples = nil
}

func (p *HistPlot) render(width, height int, dpi float64, provider chart.RendererProvider, out io.Writer) error {
	var series []chart.Series
	xBounds := newBoundsAccum()
	yBounds := newBoundsAccum()
	for i, samples := range p.samples {
		centers, counts := binSamples(samples, p.bins)
		_, color := lineStyle(i)
		series = append(series, chart.HistogramSeries{
			InnerSeries: chart.ContinuousSeries{XValues: centers, YValues: counts},
			Style: chart.Style{
				FillColor:   withAlpha(color, 0.75),
				StrokeColor: color,
				StrokeWidth: 1.0,
			},
		})
		xBounds.add(centers...)
		yBounds.add(counts...)
		yBounds.add(0)
	}
	ch := chart.Chart{
		Title:      p.title,
		Width:      width,
		Height:     height,
		DPI:        dpi,
		Background: chartPadding(),
		XAxis: chart.XAxis{
			Name:           p.xLabel,
			GridMajorStyle: gridStyle(),
			Range:          makeRange(p.limits.XMin, p.limits.XMax, xBounds.min, xBounds.max, xBounds.ok),
		},
		YAxis: chart.YAxis{
			Name:           p.yLabel,
			GridMajorStyle: gridStyle(),
			Range:          makeRange(p.limits.YMin, p.limits.YMax, yBounds.min, yBounds.max, yBounds.ok),
		},
		Series: series,
	}
	if err := ch.Render(provider, out); err != nil {
		return errors.Wrap(err, "render histogram")
	}
	return nil
}

// binSamples bins one samples array over its own [min, max] into the given
// number of equal-width bins, returning the bin centers and counts. A
// degenerate range (all samples equal) is widened to ±0.5 around the value.
func binSamples(samples []float64, bins int) (centers, counts []float64) {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	centers = make([]float64, bins)
	for i := 0; i < bins; i++ {
		centers[i] = (dividers[i] + dividers[i+1]) / 2
	}
	// Half-open bins: nudge the last divider so the maximum lands in the
	// last bin instead of panicking the counter.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts = stat.Histogram(nil, dividers, sorted, nil)
	return centers, counts
}
