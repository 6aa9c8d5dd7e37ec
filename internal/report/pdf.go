package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"
)

// A4 portrait in points.
const (
	PageWidth  = 595.0
	PageHeight = 842.0
)

func newDocument() *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: PageWidth, Ht: PageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	return pdf
}

func fontStyle(f Font) string {
	if f == FontBold {
		return "B"
	}
	return ""
}

func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// PDFCanvas draws onto an fpdf document using the Helvetica core fonts.
// Text is translated from UTF-8 to the cp1252 encoding the core fonts use.
type PDFCanvas struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	images int
}

var _ Canvas = (*PDFCanvas)(nil)

// NewPDFCanvas starts an empty document. created is stamped into the PDF
// metadata so identical input renders identical bytes.
func NewPDFCanvas(title string, created time.Time) *PDFCanvas {
	pdf := newDocument()
	pdf.SetTitle(title, true)
	pdf.SetCreator("simple-inspector", true)
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	return &PDFCanvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (c *PDFCanvas) Width(text string, font Font, size float64) float64 {
	c.pdf.SetFont("Helvetica", fontStyle(font), size)
	return c.pdf.GetStringWidth(c.tr(text))
}

func (c *PDFCanvas) AddPage() { c.pdf.AddPage() }

func (c *PDFCanvas) PageCount() int { return c.pdf.PageCount() }

func (c *PDFCanvas) Size() (float64, float64) {
	return c.pdf.GetPageSize()
}

// top converts a bottom-left y of a box with height h into fpdf's top-left
// coordinate.
func (c *PDFCanvas) top(y, h float64) float64 {
	_, pageH := c.pdf.GetPageSize()
	return pageH - y - h
}

func (c *PDFCanvas) FillRect(x, y, w, h float64, fill Color, opacity float64) {
	if opacity < 1 {
		c.pdf.SetAlpha(opacity, "Normal")
		defer c.pdf.SetAlpha(1, "Normal")
	}
	c.pdf.SetFillColor(channel(fill.R), channel(fill.G), channel(fill.B))
	c.pdf.Rect(x, c.top(y, h), w, h, "F")
}

func (c *PDFCanvas) StrokeRect(x, y, w, h float64, stroke Color, lineWidth float64) {
	c.pdf.SetDrawColor(channel(stroke.R), channel(stroke.G), channel(stroke.B))
	c.pdf.SetLineWidth(lineWidth)
	c.pdf.Rect(x, c.top(y, h), w, h, "D")
}

func (c *PDFCanvas) Line(x1, y1, x2, y2 float64, stroke Color, lineWidth float64) {
	c.pdf.SetDrawColor(channel(stroke.R), channel(stroke.G), channel(stroke.B))
	c.pdf.SetLineWidth(lineWidth)
	c.pdf.Line(x1, c.top(y1, 0), x2, c.top(y2, 0))
}

func (c *PDFCanvas) Text(x, y float64, s string, font Font, size float64, col Color) {
	c.pdf.SetFont("Helvetica", fontStyle(font), size)
	c.pdf.SetTextColor(channel(col.R), channel(col.G), channel(col.B))
	c.pdf.Text(x, c.top(y, 0), c.tr(s))
}

func (c *PDFCanvas) Image(png []byte, x, y, w, h float64) error {
	c.images++
	name := fmt.Sprintf("image-%d", c.images)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	if err := c.pdf.Error(); err != nil {
		// fpdf errors are sticky; clear so the rest of the page still renders
		c.pdf.ClearError()
		return fmt.Errorf("register image: %w", err)
	}
	c.pdf.ImageOptions(name, x, c.top(y, h), w, h, false, opts, 0, "")
	return nil
}

func (c *PDFCanvas) Output(w io.Writer) error {
	if err := c.pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := c.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// StandardMeasurer measures Helvetica text without a document. It is safe
// for concurrent use.
type StandardMeasurer struct {
	mu  sync.Mutex
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func NewStandardMeasurer() *StandardMeasurer {
	pdf := newDocument()
	return &StandardMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (m *StandardMeasurer) Width(text string, font Font, size float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont("Helvetica", fontStyle(font), size)
	return m.pdf.GetStringWidth(m.tr(text))
}
