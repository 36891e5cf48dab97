package ui

import (
	"image"
	"strings"

	"github.com/Carmen-Shannon/glace/common"
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"golang.org/x/image/font"
)

// Panel is a titled, collapsible and draggable column of widgets rendered as one textured quad.
type Panel struct {
	Title   string
	Widgets []Widget

	width     int
	pos       common.Vec2
	collapsed bool

	// signature is the joined widget text at the last rasterization.
	signature string
	provider  bgp.BindGroupProvider
	vertices  gpu.Buffer
	rect      [4]float32
	screen    [2]float32
}

// NewPanel creates a panel at the top-left corner of the window.
//
// Parameters:
//   - title: the title bar caption, also the key panel state is remembered under
//   - widgets: the rows from top to bottom
//
// Returns:
//   - *Panel: the panel
func NewPanel(title string, widgets ...Widget) *Panel {
	return &Panel{
		Title:   title,
		Widgets: widgets,
		width:   DefaultPanelWidth,
		pos:     common.Vec2{padding, padding},
	}
}

// WithWidth sets the panel width in pixels and returns the panel.
func (p *Panel) WithWidth(width int) *Panel {
	p.width = max(width, titleHeight*2)
	return p
}

// At moves the panel's default position and returns the panel. A remembered position still wins.
func (p *Panel) At(x, y float32) *Panel {
	p.pos = common.Vec2{x, y}
	return p
}

// Position returns the top-left corner in window pixels.
func (p *Panel) Position() common.Vec2 { return p.pos }

// Collapsed reports whether only the title bar is shown.
func (p *Panel) Collapsed() bool { return p.collapsed }

// Size returns the panel size in pixels for its current collapse state.
func (p *Panel) Size() (int, int) {
	if p.collapsed {
		return p.width, titleHeight
	}
	return p.width, titleHeight + len(p.Widgets)*rowHeight + padding/2
}

func (p *Panel) bounds() image.Rectangle {
	w, h := p.Size()
	origin := image.Pt(int(p.pos[0]), int(p.pos[1]))
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}
}

func (p *Panel) contains(pt common.Vec2) bool {
	return image.Pt(int(pt[0]), int(pt[1])).In(p.bounds())
}

// hit classifies a point already known to be inside the panel. It returns the widget row or -1
// for the title bar, and whether the point is on the collapse box.
func (p *Panel) hit(pt common.Vec2) (row int, collapse bool) {
	local := pt.Sub(p.pos)
	if local[1] < titleHeight {
		return -1, local[0] >= float32(p.width-titleHeight)
	}
	row = int(local[1]-titleHeight) / rowHeight
	if row >= len(p.Widgets) {
		row = len(p.Widgets) - 1
	}
	return row, false
}

func (p *Panel) currentSignature() string {
	var sb strings.Builder
	if p.collapsed {
		sb.WriteString("+")
	}
	for _, w := range p.Widgets {
		sb.WriteString(w.Text())
		sb.WriteByte(0)
	}
	return sb.String()
}

// clampTo keeps the title bar on screen.
func (p *Panel) clampTo(width, height float32) {
	maxX := max(width-float32(p.width), 0)
	maxY := max(height-titleHeight, 0)
	p.pos = common.Vec2{common.Clamp(p.pos[0], 0, maxX), common.Clamp(p.pos[1], 0, maxY)}
}

// rasterize draws the panel into a fresh RGBA image.
func (p *Panel) rasterize(face font.Face) *image.RGBA {
	w, h := p.Size()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), colorPanel)

	title := image.Rect(0, 0, w, titleHeight)
	fill(img, title, colorTitle)
	drawText(img, face, padding, baseline(title, face), p.Title)
	glyph := "-"
	if p.collapsed {
		glyph = "+"
	}
	drawText(img, face, w-titleHeight+6, baseline(title, face), glyph)
	if p.collapsed {
		return img
	}
	for i, widget := range p.Widgets {
		y := titleHeight + i*rowHeight
		widget.draw(img, image.Rect(0, y, w, y+rowHeight), face)
	}
	return img
}

// quad returns the six {x, y, u, v} vertices covering rect.
func quad(rect [4]float32) []float32 {
	x0, y0, x1, y1 := rect[0], rect[1], rect[2], rect[3]
	return []float32{
		x0, y0, 0, 0,
		x0, y1, 0, 1,
		x1, y0, 1, 0,
		x1, y0, 1, 0,
		x0, y1, 0, 1,
		x1, y1, 1, 1,
	}
}

func (p *Panel) release() {
	if p.provider != nil {
		p.provider.Release()
		p.provider = nil
	}
	if p.vertices != nil {
		p.vertices.Release()
		p.vertices = nil
	}
	p.signature = ""
	p.rect = [4]float32{}
	p.screen = [2]float32{}
}
