// Package report lays out an inspection job as a paginated PDF document.
//
// Drawing goes through the Canvas interface so the layout can be exercised
// without producing PDF bytes. Coordinates use a bottom-left origin with y
// growing upward; text is positioned by its baseline.
package report

import "io"

// Font selects one of the two faces a report uses.
type Font int

const (
	FontRegular Font = iota
	FontBold
)

func (f Font) String() string {
	if f == FontBold {
		return "bold"
	}
	return "regular"
}

// Color is an RGB triple with components in [0, 1].
type Color struct {
	R, G, B float64
}

func rgb(r, g, b float64) Color { return Color{R: r, G: g, B: b} }

var (
	black = rgb(0, 0, 0)
	white = rgb(1, 1, 1)
)

// Measurer reports the rendered width of text in points.
type Measurer interface {
	Width(text string, font Font, size float64) float64
}

// Canvas is the drawing surface the layout writes to.
type Canvas interface {
	Measurer
	// AddPage appends a page and makes it current.
	AddPage()
	PageCount() int
	// Size returns the current page's width and height in points.
	Size() (w, h float64)
	FillRect(x, y, w, h float64, fill Color, opacity float64)
	StrokeRect(x, y, w, h float64, stroke Color, lineWidth float64)
	Line(x1, y1, x2, y2 float64, stroke Color, lineWidth float64)
	Text(x, y float64, s string, font Font, size float64, c Color)
	// Image draws PNG data into the box. A failed image leaves the page
	// untouched and returns the error.
	Image(png []byte, x, y, w, h float64) error
	Output(w io.Writer) error
}
