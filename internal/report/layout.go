package report

import "fmt"

const (
	marginX      = 40.0
	topOffset    = 70.0
	bottomMargin = 40.0

	headingSize    = 11.5
	headingLeading = 16.0
	headingRule    = 3.0
	headingPad     = 10.0
	headingMinH    = 18.0

	commentSize    = 10.5
	commentLeading = 14.0
	commentPad     = 8.0

	sectionBarH = 22.0
	blockGap    = 6.0

	footerY    = 30.0
	footerSize = 9.0
)

var (
	headingInk   = rgb(0.13, 0.13, 0.13)
	commentLabel = rgb(0.25, 0.25, 0.25)
	commentInk   = rgb(0.2, 0.2, 0.2)
	commentEdge  = rgb(0.82, 0.82, 0.82)
	footerInk    = rgb(0.5, 0.5, 0.5)
)

// Layout tracks the vertical cursor over a Canvas and starts a new page
// whenever a block would cross the bottom margin. Every page it leaves gets
// the footer.
type Layout struct {
	c      Canvas
	w, h   float64
	y      float64
	footer string
}

// NewLayout adds the first page to c and places the cursor at the top.
func NewLayout(c Canvas, footer string) *Layout {
	c.AddPage()
	w, h := c.Size()
	return &Layout{c: c, w: w, h: h, y: h - topOffset, footer: footer}
}

// Y is the current cursor position.
func (l *Layout) Y() float64 { return l.y }

// ContentWidth is the usable line width between the margins minus padding.
func (l *Layout) ContentWidth(padLeft, padRight float64) float64 {
	return l.w - marginX*2 - padLeft - padRight
}

// EnsureSpace starts a new page when fewer than need points remain above
// the bottom margin. It reports whether a page was added.
func (l *Layout) EnsureSpace(need float64) bool {
	if l.y-need >= bottomMargin {
		return false
	}
	l.newPage()
	return true
}

func (l *Layout) newPage() {
	l.drawFooter()
	l.c.AddPage()
	l.w, l.h = l.c.Size()
	l.y = l.h - topOffset
}

// pageRoom is the vertical space a fresh page offers.
func (l *Layout) pageRoom() float64 {
	return l.h - topOffset - bottomMargin
}

// Finish stamps the footer on the last page.
func (l *Layout) Finish() {
	l.drawFooter()
}

func (l *Layout) drawFooter() {
	text := fmt.Sprintf("%s  |  Page %d", l.footer, l.c.PageCount())
	l.c.Text(marginX, footerY, text, FontRegular, footerSize, footerInk)
}

// Heading draws "<index>. <text>" in bold next to a coloured accent rule.
func (l *Layout) Heading(index int, text string, accent Color) {
	if text == "" {
		text = Placeholder
	}
	lines := Wrap(l.c, fmt.Sprintf("%d. %s", index, text), FontBold, headingSize, l.ContentWidth(headingRule+headingPad, 0))
	blockH := max(headingMinH, float64(len(lines))*headingLeading)
	l.EnsureSpace(blockH + blockGap)

	l.c.FillRect(marginX, l.y-blockH, headingRule, blockH, accent, 1)
	ty := l.y - headingSize - 2
	for _, ln := range lines {
		l.c.Text(marginX+headingRule+headingPad, ty, ln, FontBold, headingSize, headingInk)
		ty -= headingLeading
	}
	l.y -= blockH + blockGap
}

// CommentBox draws a bold label and wrapped body inside a shaded, bordered
// box sized to its content. A box taller than a whole page is split across
// pages, each part with its own frame and label.
func (l *Layout) CommentBox(label, text string) {
	width := l.ContentWidth(commentPad, commentPad)
	labelLines := Wrap(l.c, label, FontBold, commentSize, width)
	textLines := Wrap(l.c, text, FontRegular, commentSize, width)

	for {
		n := len(textLines)
		need := commentBoxHeight(len(labelLines), n) + blockGap
		switch {
		case l.y-need >= bottomMargin:
			// fits below the cursor
		case need <= l.pageRoom():
			l.newPage()
		default:
			n = l.commentLinesThatFit(len(labelLines))
			if n < 1 {
				l.newPage()
				continue
			}
		}

		l.drawCommentBox(labelLines, textLines[:n])
		textLines = textLines[n:]
		if len(textLines) == 0 {
			return
		}
		l.newPage()
	}
}

func commentBoxHeight(labelLines, textLines int) float64 {
	return float64(labelLines)*commentLeading + 4 + float64(textLines)*commentLeading + commentPad*2
}

func (l *Layout) commentLinesThatFit(labelLines int) int {
	avail := l.y - bottomMargin - blockGap - commentBoxHeight(labelLines, 0)
	if avail < commentLeading {
		return 0
	}
	return int(avail / commentLeading)
}

func (l *Layout) drawCommentBox(labelLines, textLines []string) {
	boxH := commentBoxHeight(len(labelLines), len(textLines))
	boxW := l.w - marginX*2
	l.c.FillRect(marginX, l.y-boxH, boxW, boxH, black, 0.04)
	l.c.StrokeRect(marginX, l.y-boxH, boxW, boxH, commentEdge, 1)

	ty := l.y - commentPad - commentSize
	for _, ln := range labelLines {
		l.c.Text(marginX+commentPad, ty, ln, FontBold, commentSize, commentLabel)
		ty -= commentLeading
	}
	ty -= 2
	for _, ln := range textLines {
		l.c.Text(marginX+commentPad, ty, ln, FontRegular, commentSize, commentInk)
		ty -= commentLeading
	}
	l.y -= boxH + blockGap
}

// SectionBar draws a full-width tinted bar with a bold label and keeps room
// for at least one heading beneath it.
func (l *Layout) SectionBar(label string, fill Color) {
	l.EnsureSpace(sectionBarH + headingMinH)
	l.c.FillRect(marginX, l.y-20, l.w-marginX*2, sectionBarH, fill, 1)
	l.c.Text(marginX+10, l.y-14, label, FontBold, 12, commentInk)
	l.y -= 40
}

// Paragraph draws wrapped text at the left margin, optionally indented,
// reserving space for the whole block first.
func (l *Layout) Paragraph(text string, font Font, size, leading, indent float64, c Color) {
	lines := Wrap(l.c, text, font, size, l.ContentWidth(indent, 0))
	l.EnsureSpace(float64(len(lines))*leading + 4)
	for _, ln := range lines {
		l.y -= leading
		l.c.Text(marginX+indent, l.y, ln, font, size, c)
	}
	l.y -= 4
}

// Skip moves the cursor down by d points.
func (l *Layout) Skip(d float64) { l.y -= d }
