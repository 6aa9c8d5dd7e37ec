package report

import (
	"errors"
	"fmt"
	"io"
)

// OpKind names a recorded drawing call.
type OpKind string

const (
	OpFillRect   OpKind = "fill"
	OpStrokeRect OpKind = "stroke"
	OpLine       OpKind = "line"
	OpText       OpKind = "text"
	OpImage      OpKind = "image"
)

// Op is one drawing call captured by a Recorder.
type Op struct {
	Kind    OpKind
	Page    int
	X, Y    float64
	W, H    float64
	Text    string
	Font    Font
	Size    float64
	Color   Color
	Opacity float64
}

// Recorder is a Canvas that records calls instead of drawing. Text widths
// come from the wrapped Measurer.
type Recorder struct {
	Measurer
	Ops   []Op
	pages int
	// RejectImages makes every Image call fail, like undecodable data would.
	RejectImages bool
}

var _ Canvas = (*Recorder)(nil)

func NewRecorder(m Measurer) *Recorder {
	return &Recorder{Measurer: m}
}

func (r *Recorder) AddPage() { r.pages++ }

func (r *Recorder) PageCount() int { return r.pages }

func (r *Recorder) Size() (float64, float64) { return PageWidth, PageHeight }

func (r *Recorder) FillRect(x, y, w, h float64, fill Color, opacity float64) {
	r.Ops = append(r.Ops, Op{Kind: OpFillRect, Page: r.pages, X: x, Y: y, W: w, H: h, Color: fill, Opacity: opacity})
}

func (r *Recorder) StrokeRect(x, y, w, h float64, stroke Color, lineWidth float64) {
	r.Ops = append(r.Ops, Op{Kind: OpStrokeRect, Page: r.pages, X: x, Y: y, W: w, H: h, Color: stroke, Size: lineWidth})
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, stroke Color, lineWidth float64) {
	r.Ops = append(r.Ops, Op{Kind: OpLine, Page: r.pages, X: x1, Y: y1, W: x2 - x1, H: y2 - y1, Color: stroke, Size: lineWidth})
}

func (r *Recorder) Text(x, y float64, s string, font Font, size float64, c Color) {
	r.Ops = append(r.Ops, Op{
		Kind: OpText, Page: r.pages, X: x, Y: y, Text: s, Font: font, Size: size, Color: c,
		W: r.Width(s, font, size),
	})
}

func (r *Recorder) Image(png []byte, x, y, w, h float64) error {
	if r.RejectImages || len(png) == 0 {
		return errors.New("recorder: image rejected")
	}
	r.Ops = append(r.Ops, Op{Kind: OpImage, Page: r.pages, X: x, Y: y, W: w, H: h})
	return nil
}

func (r *Recorder) Output(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d pages, %d ops\n", r.pages, len(r.Ops))
	return err
}

// Texts returns the recorded text strings in drawing order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}
