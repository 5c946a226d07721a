package plot

import (
	"bytes"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/avestel/MLRunViewer/src/gui"
	"github.com/avestel/MLRunViewer/src/results"
	"github.com/avestel/MLRunViewer/src/tools"
)

// IncludeOptions tunes one Include/IncludeSingle call.
type IncludeOptions struct {
	// ErrSuffix names the error-companion convention: for a drawn column
	// "X", a column "X<ErrSuffix>" provides the half-width of a shaded
	// band around the line. Within one selection, columns that are
	// themselves companions of another selected column are skipped.
	ErrSuffix string
	// Alpha is the line opacity, 1 when zero.
	Alpha float64
	// ColorIndex pins the style/color index instead of cycling the shared
	// counter.
	ColorIndex *int
}

// VLineOptions tunes one vertical reference line.
type VLineOptions struct {
	Label string
	Color *int // style/color index; nil draws black
	Dash  []float64
	Width float64 // stroke width, 2 when zero
}

// FinalizeOptions carries the optional finalization parameters.
type FinalizeOptions struct {
	// SecondYLabel labels the secondary y-axis when one exists.
	SecondYLabel string
	Limits
	Y2Min, Y2Max *float64
	// Legend overrides the assembled legend labels, one per drawn line in
	// axis-major inclusion order.
	Legend []string
}

type lineEntry struct {
	name       string
	x          []float64
	y          []float64
	errs       []float64 // nil when no band
	styleIndex int
	alpha      float64
}

type vlineEntry struct {
	x    float64
	opts VLineOptions
}

// entry is one element drawn on an axis, in inclusion order.
type entry struct {
	line  *lineEntry
	vline *vlineEntry
}

// LinePlot accumulates named series onto up to two y-axes sharing one x-axis.
type LinePlot struct {
	figure
	indexColumn string
	count       int // shared style counter
	axes        map[string]chart.YAxisType
	primary     []entry
	secondary   []entry
	y2Label     string
	opts        FinalizeOptions
}

// NewLinePlot builds an open line plot using the table's row index as x.
func NewLinePlot() *LinePlot {
	return &LinePlot{axes: make(map[string]chart.YAxisType)}
}

// NewLinePlotIndexed builds an open line plot taking x values from the named
// column instead of the row index.
func NewLinePlotIndexed(indexColumn string) *LinePlot {
	p := NewLinePlot()
	p.indexColumn = indexColumn
	return p
}

// axisFor resolves the y-axis for an axis selector, creating it when the
// selector is new. At most two distinct selectors may exist.
func (p *LinePlot) axisFor(selector string) (chart.YAxisType, error) {
	if axis, ok := p.axes[selector]; ok {
		return axis, nil
	}
	if len(p.axes) >= 2 {
		return chart.YAxisPrimary, ErrTooManyAxes
	}
	axis := chart.YAxisPrimary
	if len(p.axes) == 1 {
		axis = chart.YAxisSecondary
	}
	p.axes[selector] = axis
	return axis, nil
}

func (p *LinePlot) hasSecondAxis() bool {
	for _, axis := range p.axes {
		if axis == chart.YAxisSecondary {
			return true
		}
	}
	return false
}

func (p *LinePlot) addEntry(axis chart.YAxisType, e entry) {
	if axis == chart.YAxisSecondary {
		p.secondary = append(p.secondary, e)
	} else {
		p.primary = append(p.primary, e)
	}
}

// xValues resolves the x-axis samples from the table's row index or the
// designated index column.
func (p *LinePlot) xValues(t *results.Table) ([]float64, error) {
	if p.indexColumn == "" {
		x := make([]float64, t.Len())
		for i, step := range t.Index {
			x[i] = float64(step)
		}
		return x, nil
	}
	c := t.Column(p.indexColumn)
	if c == nil {
		return nil, errors.Errorf("no column named %q to use as index in the given session/table", p.indexColumn)
	}
	if c.IsText() {
		return nil, errors.Errorf("column %q is not numeric and cannot be used as index", p.indexColumn)
	}
	return c.Values, nil
}

// Include draws one line per fragment-selected column, each selector tied to
// one of at most two y-axes. With no fragments every column name is its own
// selector. Fails once the plot is finalized or closed.
func (p *LinePlot) Include(data TableProvider, opts IncludeOptions, fragments ...string) error {
	if err := p.requireOpen(); err != nil {
		return err
	}
	t := data.Table()
	if t == nil {
		return errors.New("no data to include")
	}
	x, err := p.xValues(t)
	if err != nil {
		return err
	}
	if len(fragments) == 0 {
		fragments = t.ColumnNames()
	}
	for _, fragment := range fragments {
		sub := results.Select(t, fragment)
		axisMade := false
		var axis chart.YAxisType
		for _, col := range sub.Columns {
			if p.indexColumn != "" && col.Name == p.indexColumn {
				continue
			}
			if opts.ErrSuffix != "" && isErrCompanion(col.Name, opts.ErrSuffix, sub) {
				continue
			}
			if col.IsText() {
				tools.Warningf("Column %q is not numeric, not drawing it", col.Name)
				continue
			}
			if !axisMade {
				if axis, err = p.axisFor(fragment); err != nil {
					return err
				}
				axisMade = true
			}
			var errVals []float64
			if opts.ErrSuffix != "" {
				if ec := t.Column(col.Name + opts.ErrSuffix); ec != nil && !ec.IsText() {
					errVals = ec.Values
				}
			}
			p.drawLine(axis, col.Name, x, col.Values, errVals, opts)
		}
	}
	return nil
}

// IncludeSingle draws exactly one named line for one explicit column, with an
// optional explicit error column, bypassing fragment matching.
func (p *LinePlot) IncludeSingle(data TableProvider, key, column, errColumn string, opts IncludeOptions) error {
	if err := p.requireOpen(); err != nil {
		return err
	}
	t := data.Table()
	if t == nil {
		return errors.New("no data to include")
	}
	x, err := p.xValues(t)
	if err != nil {
		return err
	}
	c := t.Column(column)
	if c == nil || c.IsText() {
		return errors.Errorf("no numeric column named %q in the given session/table", column)
	}
	var errVals []float64
	if errColumn != "" {
		ec := t.Column(errColumn)
		if ec == nil || ec.IsText() {
			return errors.Errorf("no numeric column named %q in the given session/table", errColumn)
		}
		errVals = ec.Values
	}
	axis, err := p.axisFor(column)
	if err != nil {
		return err
	}
	p.drawLine(axis, key, x, c.Values, errVals, opts)
	return nil
}

func (p *LinePlot) drawLine(axis chart.YAxisType, name string, x, y, errs []float64, opts IncludeOptions) {
	styleIndex := p.count
	if opts.ColorIndex != nil {
		styleIndex = *opts.ColorIndex
	} else {
		p.count++
	}
	alpha := opts.Alpha
	if alpha == 0 {
		alpha = 1
	}
	p.addEntry(axis, entry{line: &lineEntry{
		name:       name,
		x:          x,
		y:          y,
		errs:       errs,
		styleIndex: styleIndex,
		alpha:      alpha,
	}})
}

// isErrCompanion reports whether the column is the error companion of another
// column of the same selection: stripping the suffix length yields a name
// present in the selection.
func isErrCompanion(name, suffix string, sub *results.Table) bool {
	if len(name) <= len(suffix) {
		return false
	}
	return sub.HasColumn(name[:len(name)-len(suffix)])
}

// IncludeVLine draws a vertical reference line on the primary axis. Allowed
// any time before the plot is closed.
func (p *LinePlot) IncludeVLine(x float64, opts VLineOptions) error {
	if p.closed {
		return ErrClosed
	}
	p.primary = append(p.primary, entry{vline: &vlineEntry{x: x, opts: opts}})
	return nil
}

// Finalize freezes the plot: labels, limits and legend are fixed and no
// further inclusion is accepted. Idempotent once finalized.
func (p *LinePlot) Finalize(title, xLabel, yLabel string, opts FinalizeOptions) error {
	if p.closed {
		return ErrClosed
	}
	if p.finalized {
		return nil
	}
	p.title, p.xLabel, p.yLabel = title, xLabel, yLabel
	p.opts = opts
	p.y2Label = opts.SecondYLabel
	switch {
	case opts.SecondYLabel != "" && !p.hasSecondAxis():
		tools.Warningf("No secondary y-axis found, but its label %q was provided", opts.SecondYLabel)
	case opts.SecondYLabel == "" && p.hasSecondAxis():
		tools.Warningf("No label provided for the secondary y-axis; using label %q from the primary", yLabel)
		p.y2Label = yLabel
	}
	p.finalized = true
	return nil
}

// Display renders the finalized plot and shows it in a window. A non-empty
// caption is burnt onto the bottom-left corner of the image.
func (p *LinePlot) Display(caption string) error {
	if err := p.requireFinalized(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := p.render(displayWidth, displayHeight, 0, chart.PNG, &buf); err != nil {
		return err
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return errors.Wrap(err, "decode rendered line plot")
	}
	gui.ShowImage(img, p.title, caption)
	return nil
}

// Save renders the finalized plot to the given file. Zero dpi/size values
// fall back to the defaults; sizes are in centimeters. A ".svg" extension
// selects SVG output, anything else is PNG.
func (p *LinePlot) Save(path string, dpi, xsize, ysize float64) error {
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

// Close releases the plot state exactly once; later calls are no-ops. Any
// other operation on a closed plot fails.
func (p *LinePlot) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.primary, p.secondary, p.axes = nil, nil, nil
}

// assemble turns the accumulated entries into chart series in draw order:
// primary-axis entries in inclusion order with reference lines interleaved,
// then secondary-axis entries, each error band immediately before its line.
// The legend override renames the drawn lines in that same order. The
// returned accumulators hold the observed data bounds per axis.
func (p *LinePlot) assemble() (series []chart.Series, xBounds, yBounds, y2Bounds boundsAccum) {
	var named []*chart.ContinuousSeries
	xBounds = newBoundsAccum()
	yBounds = newBoundsAccum()
	y2Bounds = newBoundsAccum()
	appendEntries := func(entries []entry, axis chart.YAxisType, bounds *boundsAccum) {
		for _, e := range entries {
			if e.vline != nil {
				series = append(series, p.vlineChartSeries(e.vline))
				continue
			}
			band, line := p.lineChartSeries(e.line, axis)
			if line == nil {
				// Every sample was missing.
				continue
			}
			if band != nil {
				series = append(series, *band)
				bounds.add(band.upper...)
				bounds.add(band.lower...)
			}
			series = append(series, line)
			named = append(named, line)
			xBounds.add(line.XValues...)
			bounds.add(line.YValues...)
		}
	}
	appendEntries(p.primary, chart.YAxisPrimary, &yBounds)
	appendEntries(p.secondary, chart.YAxisSecondary, &y2Bounds)
	for i, label := range p.opts.Legend {
		if i >= len(named) {
			break
		}
		named[i].Name = label
	}
	return series, xBounds, yBounds, y2Bounds
}

// render assembles the chart and renders it through the given provider.
func (p *LinePlot) render(width, height int, dpi float64, provider chart.RendererProvider, out io.Writer) error {
	series, xBounds, yBounds, y2Bounds := p.assemble()
	ch := chart.Chart{
		Title:      p.title,
		Width:      width,
		Height:     height,
		DPI:        dpi,
		Background: chartPadding(),
		XAxis: chart.XAxis{
			Name:           p.xLabel,
			GridMajorStyle: gridStyle(),
			Range:          makeRange(p.opts.XMin, p.opts.XMax, xBounds.min, xBounds.max, xBounds.ok),
		},
		YAxis: chart.YAxis{
			Name:           p.yLabel,
			GridMajorStyle: gridStyle(),
			Range:          makeRange(p.opts.YMin, p.opts.YMax, yBounds.min, yBounds.max, yBounds.ok),
		},
		Series: series,
	}
	if p.hasSecondAxis() {
		ch.YAxisSecondary = chart.YAxis{
			Name:  p.y2Label,
			Range: makeRange(p.opts.Y2Min, p.opts.Y2Max, y2Bounds.min, y2Bounds.max, y2Bounds.ok),
		}
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(provider, out); err != nil {
		return errors.Wrap(err, "render line plot")
	}
	return nil
}

// lineChartSeries converts one entry into its chart series, dropping rows
// with missing values (the renderer strokes through NaN instead of breaking
// the path). The band, when present, must be rendered before the line.
func (p *LinePlot) lineChartSeries(e *lineEntry, axis chart.YAxisType) (*bandSeries, *chart.ContinuousSeries) {
	dash, color := lineStyle(e.styleIndex)
	xs := make([]float64, 0, len(e.x))
	ys := make([]float64, 0, len(e.x))
	for i := range e.x {
		if i >= len(e.y) || math.IsNaN(e.x[i]) || math.IsNaN(e.y[i]) {
			continue
		}
		xs = append(xs, e.x[i])
		ys = append(ys, e.y[i])
	}
	if len(xs) == 0 {
		return nil, nil
	}
	line := &chart.ContinuousSeries{
		Name:    e.name,
		XValues: xs,
		YValues: ys,
		YAxis:   axis,
		Style: chart.Style{
			StrokeColor:     withAlpha(color, e.alpha),
			StrokeWidth:     1.5,
			StrokeDashArray: dash,
		},
	}
	if e.errs == nil {
		return nil, line
	}
	bxs := make([]float64, 0, len(e.x))
	upper := make([]float64, 0, len(e.x))
	lower := make([]float64, 0, len(e.x))
	for i := range e.x {
		if i >= len(e.y) || i >= len(e.errs) ||
			math.IsNaN(e.x[i]) || math.IsNaN(e.y[i]) || math.IsNaN(e.errs[i]) {
			continue
		}
		bxs = append(bxs, e.x[i])
		upper = append(upper, e.y[i]+e.errs[i])
		lower = append(lower, e.y[i]-e.errs[i])
	}
	if len(bxs) == 0 {
		return nil, line
	}
	fill := withAlpha(color, 0.2)
	return &bandSeries{
		style: chart.Style{
			FillColor:   fill,
			StrokeColor: fill,
			StrokeWidth: 1.0,
		},
		yaxis:   axis,
		xvalues: bxs,
		upper:   upper,
		lower:   lower,
	}, line
}

func (p *LinePlot) vlineChartSeries(v *vlineEntry) chart.Series {
	width := v.opts.Width
	if width == 0 {
		width = 2
	}
	color := chart.ColorBlack
	if v.opts.Color != nil {
		_, color = lineStyle(*v.opts.Color)
	}
	return vlineSeries{
		name: v.opts.Label,
		x:    v.x,
		style: chart.Style{
			StrokeColor:     color,
			StrokeWidth:     width,
			StrokeDashArray: v.opts.Dash,
		},
	}
}
