package gui

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ShowGrid displays pre-stringified table cells in a scrollable grid window.
// The first row is the header (index name plus column names). The cells are
// snapshotted by the caller, so later table mutations do not race the UI.
func ShowGrid(cells [][]string, title string) {
	if len(cells) == 0 {
		return
	}
	cols := len(cells[0])
	Run(func(a fyne.App) {
		grid := widget.NewTable(
			func() (int, int) { return len(cells), cols },
			func() fyne.CanvasObject { return widget.NewLabel("") },
			func(id widget.TableCellID, o fyne.CanvasObject) {
				lbl := o.(*widget.Label)
				if id.Row < len(cells) && id.Col < len(cells[id.Row]) {
					lbl.SetText(cells[id.Row][id.Col])
				} else {
					lbl.SetText("")
				}
			},
		)
		w := a.NewWindow(title)
		w.SetContent(grid)
		w.Resize(fyne.NewSize(800, 600))
		w.Show()
	})
}

// ShowImage displays a rendered figure in its own window, optionally with a
// caption overlaid at the bottom-left corner.
func ShowImage(img image.Image, title, caption string) {
	if img == nil {
		return
	}
	img = captioned(img, caption)
	bounds := img.Bounds()
	Run(func(a fyne.App) {
		ci := canvas.NewImageFromImage(img)
		ci.FillMode = canvas.ImageFillContain
		w := a.NewWindow(title)
		w.SetContent(ci)
		w.Resize(fyne.NewSize(float32(bounds.Dx()), float32(bounds.Dy())))
		w.Show()
	})
}

// captioned returns the image with the caption burnt in, or the image itself
// when there is no caption to draw.
func captioned(img image.Image, caption string) image.Image {
	if strings.TrimSpace(caption) == "" {
		return img
	}
	return drawCaption(img, caption)
}

// drawCaption burns a caption onto a copy of the image: a semi-opaque dark
// strip with shadowed 7x13 text, readable on any chart background.
func drawCaption(img image.Image, text string) image.Image {
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	const pad = 6
	face := basicfont.Face7x13
	textCol := image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	shadowCol := image.NewUniform(color.RGBA{A: 180})
	dr := &font.Drawer{Dst: rgba, Src: textCol, Face: face}
	tw := dr.MeasureString(text).Ceil()
	x := b.Min.X + 8
	y := b.Max.Y - 6
	bg := image.NewUniform(color.RGBA{A: 200})
	rect := image.Rect(x-pad, y-face.Metrics().Ascent.Ceil()-pad, x+tw+pad, y+pad/2)
	draw.Draw(rgba, rect, bg, image.Point{}, draw.Over)
	shadow := &font.Drawer{Dst: rgba, Src: shadowCol, Face: face, Dot: fixed.Point26_6{X: fixed.I(x + 1), Y: fixed.I(y + 1)}}
	shadow.DrawString(text)
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(text)
	return rgba
}
