package ui

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/Carmen-Shannon/glace/common"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Layout metrics in pixels.
const (
	rowHeight   = 18
	titleHeight = 20
	padding     = 6
	// DefaultPanelWidth is used for panels built without WithWidth.
	DefaultPanelWidth = 220
	boxSize           = 12
)

var (
	colorText   = color.RGBA{R: 230, G: 230, B: 235, A: 255}
	colorPanel  = color.RGBA{R: 22, G: 22, B: 28, A: 210}
	colorTitle  = color.RGBA{R: 52, G: 54, B: 74, A: 235}
	colorBox    = color.RGBA{R: 70, G: 70, B: 84, A: 255}
	colorAccent = color.RGBA{R: 92, G: 152, B: 240, A: 255}
)

// Widget is one row of a panel.
type Widget interface {
	// Text returns the row's caption. A panel is redrawn whenever any caption changes.
	Text() string

	// Click handles a left click.
	//
	// Parameters:
	//   - x: the click position in pixels from the row's left edge
	//   - width: the row width in pixels
	//
	// Returns:
	//   - bool: true if the click changed any state
	Click(x, width float32) bool

	draw(dst *image.RGBA, row image.Rectangle, face font.Face)
}

func drawText(dst *image.RGBA, face font.Face, x, baseline int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(colorText),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

func fill(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// baseline centers the face's cap height in a row.
func baseline(row image.Rectangle, face font.Face) int {
	m := face.Metrics()
	return row.Min.Y + (row.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2
}

// box returns a square control at the right edge of row, shifted left by slot boxes.
func box(row image.Rectangle, slot int) image.Rectangle {
	x1 := row.Max.X - padding - slot*(boxSize+4)
	y0 := row.Min.Y + (row.Dy()-boxSize)/2
	return image.Rect(x1-boxSize, y0, x1, y0+boxSize)
}

type label struct {
	text func() string
}

// Label shows text produced by fn, re-evaluated every frame.
func Label(fn func() string) Widget {
	return &label{text: fn}
}

func (l *label) Text() string         { return l.text() }
func (l *label) Click(_, _ float32) bool { return false }

func (l *label) draw(dst *image.RGBA, row image.Rectangle, face font.Face) {
	drawText(dst, face, row.Min.X+padding, baseline(row, face), l.Text())
}

type toggle struct {
	caption string
	get     func() bool
	set     func(bool)
}

// Toggle is a checkbox row. Clicking anywhere on the row flips the value.
//
// Parameters:
//   - caption: the row caption
//   - get: reads the current value
//   - set: stores a new value
//
// Returns:
//   - Widget: the toggle row
func Toggle(caption string, get func() bool, set func(bool)) Widget {
	return &toggle{caption: caption, get: get, set: set}
}

func (t *toggle) Text() string {
	return fmt.Sprintf("%s %t", t.caption, t.get())
}

func (t *toggle) Click(_, _ float32) bool {
	t.set(!t.get())
	return true
}

func (t *toggle) draw(dst *image.RGBA, row image.Rectangle, face font.Face) {
	drawText(dst, face, row.Min.X+padding, baseline(row, face), t.caption)
	b := box(row, 0)
	fill(dst, b, colorBox)
	if t.get() {
		fill(dst, b.Inset(3), colorAccent)
	}
}

type stepper struct {
	caption      string
	get          func() float32
	set          func(float32)
	step, lo, hi float32
}

// Stepper is a numeric row with - and + buttons at its right edge.
//
// Parameters:
//   - caption: the row caption
//   - get: reads the current value
//   - set: stores a new value
//   - step: the increment per click
//   - lo, hi: the inclusive range values are clamped to
//
// Returns:
//   - Widget: the stepper row
func Stepper(caption string, get func() float32, set func(float32), step, lo, hi float32) Widget {
	return &stepper{caption: caption, get: get, set: set, step: step, lo: lo, hi: hi}
}

func (s *stepper) Text() string {
	return fmt.Sprintf("%s: %.2f", s.caption, s.get())
}

func (s *stepper) Click(x, width float32) bool {
	row := image.Rect(0, 0, int(width), rowHeight)
	pt := image.Pt(int(x), rowHeight/2)
	var delta float32
	switch {
	case pt.In(box(row, 0).Inset(-2)):
		delta = s.step
	case pt.In(box(row, 1).Inset(-2)):
		delta = -s.step
	default:
		return false
	}
	before := s.get()
	next := common.Clamp(before+delta, s.lo, s.hi)
	if next == before {
		return false
	}
	s.set(next)
	return true
}

func (s *stepper) draw(dst *image.RGBA, row image.Rectangle, face font.Face) {
	base := baseline(row, face)
	drawText(dst, face, row.Min.X+padding, base, s.Text())
	for slot, glyph := range []string{"+", "-"} {
		b := box(row, slot)
		fill(dst, b, colorBox)
		drawText(dst, face, b.Min.X+3, base, glyph)
	}
}

type cycle struct {
	caption string
	options []string
	get     func() int
	set     func(int)
}

// Cycle is a row that steps through options on every click.
//
// Parameters:
//   - caption: the row caption
//   - options: the option names in order
//   - get: reads the selected index
//   - set: stores a new index
//
// Returns:
//   - Widget: the cycle row
func Cycle(caption string, options []string, get func() int, set func(int)) Widget {
	return &cycle{caption: caption, options: options, get: get, set: set}
}

func (c *cycle) Text() string {
	i := c.get()
	if i < 0 || i >= len(c.options) {
		return c.caption + ": ?"
	}
	return c.caption + ": " + c.options[i]
}

func (c *cycle) Click(_, _ float32) bool {
	if len(c.options) == 0 {
		return false
	}
	c.set((c.get() + 1) % len(c.options))
	return true
}

func (c *cycle) draw(dst *image.RGBA, row image.Rectangle, face font.Face) {
	drawText(dst, face, row.Min.X+padding, baseline(row, face), c.Text())
}
