package plot

import "github.com/wcharczuk/go-chart/v2/drawing"

// The fixed style cycle: four dash patterns over ten base colors (the
// C0..C9 palette the existing figures were produced with). Line n uses
// dash n%4 and color n%10.
var dashCycle = [...][]float64{
	nil,          // solid
	{5, 5},       // dashed
	{2, 2},       // dotted
	{5, 2, 2, 2}, // dash-dot
}

var colorCycle = [...]drawing.Color{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 255},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 255},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 255},
	{R: 0xd6, G: 0x27, B: 0x28, A: 255},
	{R: 0x94, G: 0x67, B: 0xbd, A: 255},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 255},
	{R: 0xe3, G: 0x77, B: 0xc2, A: 255},
	{R: 0x7f, G: 0x7f, B: 0x7f, A: 255},
	{R: 0xbc, G: 0xbd, B: 0x22, A: 255},
	{R: 0x17, G: 0xbe, B: 0xcf, A: 255},
}

// lineStyle returns the dash pattern and color for the given line number.
func lineStyle(n int) ([]float64, drawing.Color) {
	if n < 0 {
		n = 0
	}
	return dashCycle[n%len(dashCycle)], colorCycle[n%len(colorCycle)]
}

// withAlpha scales a color's opacity, 0 transparent through 1 opaque.
func withAlpha(c drawing.Color, alpha float64) drawing.Color {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	c.A = uint8(alpha*255 + 0.5)
	return c
}
