package viz

import (
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/force"
)

// Half blocks: each terminal cell shows two vertically stacked pixels, the
// upper one as foreground and the lower one as background.
const upperHalf = "▀"

// Canvas is the terminal area the field is drawn into, in cells.
type Canvas struct {
	Cols, Rows int
}

func NewCanvas(cols, rows int) Canvas {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return Canvas{Cols: cols, Rows: rows}
}

// FieldSize is the simulation size that maps one texel to one half cell.
func (c Canvas) FieldSize() (w, h int) {
	return c.Cols, c.Rows * 2
}

// Contains reports whether the cell (col, row) is on the canvas.
func (c Canvas) Contains(col, row int) bool {
	return col >= 0 && row >= 0 && col < c.Cols && row < c.Rows
}

// Normalize maps a cell to normalized field coordinates, aiming at the
// center of the cell.
func (c Canvas) Normalize(col, row int) dynamo.Vec2 {
	w, h := c.FieldSize()
	return force.Normalize(float64(col)+0.5, float64(row*2)+1, float64(w), float64(h))
}

// Render draws img with half blocks. Image rows beyond the canvas are
// ignored and missing rows render as black.
func (c Canvas) Render(img *image.RGBA) string {
	var b strings.Builder
	bounds := img.Bounds()
	for row := 0; row < c.Rows; row++ {
		for col := 0; col < c.Cols; col++ {
			top := pixelHex(img, bounds.Min.X+col, bounds.Min.Y+row*2)
			bottom := pixelHex(img, bounds.Min.X+col, bounds.Min.Y+row*2+1)
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom))
			b.WriteString(style.Render(upperHalf))
		}
		if row < c.Rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func pixelHex(img *image.RGBA, x, y int) string {
	if !(image.Point{X: x, Y: y}.In(img.Bounds())) {
		return "#000000"
	}
	p := img.RGBAAt(x, y)
	return colorful.Color{R: float64(p.R) / 255, G: float64(p.G) / 255, B: float64(p.B) / 255}.Hex()
}
