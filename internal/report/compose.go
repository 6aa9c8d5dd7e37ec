package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tendant/simple-inspector/internal/job"
)

const (
	headerHeight  = 100.0
	gradientSteps = 20

	bannerW = 100.0
	bannerH = 50.0

	infoBoxH = 70.0
	badgeW   = 90.0
	badgeH   = 25.0
	badgeGap = 110.0
)

var (
	infoFill     = rgb(0.96, 0.96, 1)
	infoEdge     = rgb(0.7, 0.7, 0.7)
	summaryInk   = rgb(0.2, 0.2, 0.5)
	subtitleInk  = rgb(0.9, 0.9, 0.9)
	disclaimFill = rgb(0.94, 0.94, 0.96)
	signatureInk = rgb(0.35, 0.35, 0.35)
)

// Disclaimer is printed after the findings, one bullet per entry.
var Disclaimer = []string{
	"This report reflects the condition of the vehicle at the time of inspection only and is not a warranty or guarantee of future performance.",
	"The inspection is visual and non-invasive. No components were dismantled, and hidden or intermittent defects may not be detected.",
	"Findings graded OK met the inspector's standard on the day; Minor and Major findings should be reviewed with a qualified mechanic.",
	"By signing below, the customer acknowledges receipt of this report and the findings listed above.",
}

// Options controls a single render.
type Options struct {
	// Banner is PNG data drawn over the header gradient. Nil or
	// undrawable data leaves the plain gradient.
	Banner    []byte
	Generated time.Time
	Logger    *slog.Logger
}

// Result describes what Compose drew.
type Result struct {
	Summary    Summary
	Pages      int
	BannerUsed bool
}

// Compose lays the job out on c, top to bottom: header, metadata box,
// summary badges, severity sections, disclaimer and signatures. Every page
// carries the generation footer.
func Compose(c Canvas, j *job.Job, opts Options) (res Result, err error) {
	if j == nil {
		return Result{}, &RenderError{Err: fmt.Errorf("no job to render")}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Generated.IsZero() {
		opts.Generated = time.Now().UTC()
	}
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{JobID: j.ID, Err: fmt.Errorf("layout panic: %v", r)}
		}
	}()

	l := NewLayout(c, "Generated on "+opts.Generated.Format("2006-01-02 15:04 MST"))

	res.BannerUsed = drawHeader(l, opts.Banner, logger.With("job_id", j.ID))
	drawInfoBox(l, j, opts.Generated)

	res.Summary = Summarize(j)
	drawBadges(l, res.Summary)

	for _, e := range Unrecognized(j) {
		logger.Warn("sub-issue has unrecognized severity; left out of report counts",
			"job_id", j.ID, "tab", e.Tab, "issue", e.Issue.Key, "severity", string(e.Issue.Severity))
	}

	for _, section := range Group(j) {
		if len(section.Entries) == 0 {
			continue
		}
		l.SectionBar(section.Title, section.Fill)
		for _, e := range section.Entries {
			l.Heading(e.Number, e.Issue.Label, section.Accent)
			if strings.TrimSpace(e.Issue.Comment) != "" {
				l.CommentBox("Comment:", e.Issue.Comment)
			}
		}
		l.Skip(20)
	}

	drawDisclaimer(l)
	l.Finish()

	res.Pages = c.PageCount()
	return res, nil
}

// drawHeader paints the fixed-height gradient band, the optional banner and
// the title. It reports whether the banner was drawn.
func drawHeader(l *Layout, banner []byte, logger *slog.Logger) bool {
	step := l.w / gradientSteps
	for i := 0; i < gradientSteps; i++ {
		p := float64(i) / gradientSteps
		fill := rgb(0.35-p*0.25, 0.1+p*0.3, 0.6+p*0.2)
		l.c.FillRect(float64(i)*step, l.h-headerHeight, step, headerHeight, fill, 1)
	}

	used := false
	if len(banner) > 0 {
		if err := l.c.Image(banner, marginX, l.h-80, bannerW, bannerH); err != nil {
			logger.Warn("banner could not be drawn; using plain header", "err", err)
		} else {
			used = true
		}
	}

	l.c.Text(marginX+120, l.h-65, "CAR INSPECTION REPORT", FontBold, 24, white)
	l.c.Text(marginX+120, l.h-85, "Comprehensive Vehicle Assessment", FontRegular, 12, subtitleInk)
	l.y = l.h - 140
	return used
}

func drawInfoBox(l *Layout, j *job.Job, generated time.Time) {
	l.EnsureSpace(infoBoxH + 10)
	boxW := l.w - marginX*2
	l.c.FillRect(marginX, l.y-infoBoxH, boxW, infoBoxH, infoFill, 1)
	l.c.StrokeRect(marginX, l.y-infoBoxH, boxW, infoBoxH, infoEdge, 1)

	fileNo := Placeholder
	if j.JobCount > 0 {
		fileNo = strconv.FormatInt(j.JobCount, 10)
	}
	left := []string{
		"FILE #: " + fileNo,
		"VEHICLE #: " + orPlaceholder(j.CarNumber),
		"CHASSIS #: " + orPlaceholder(j.EngineNumber),
	}
	right := []string{
		"INSPECTOR: " + orPlaceholder(j.CustomerName),
		"DATE: " + generated.Format("2006-01-02"),
	}

	rightX := l.w/2 + 20
	leftW := rightX - (marginX + 10) - 10
	rightW := l.w - marginX - 10 - rightX

	ty := l.y - 20
	for _, line := range left {
		l.c.Text(marginX+10, ty, Clip(l.c, line, FontRegular, 11, leftW), FontRegular, 11, black)
		ty -= 15
	}
	ty = l.y - 20
	for _, line := range right {
		l.c.Text(rightX, ty, Clip(l.c, line, FontRegular, 11, rightW), FontRegular, 11, black)
		ty -= 15
	}
	l.y -= 110
}

func drawBadges(l *Layout, s Summary) {
	l.c.Text(marginX, l.y, "Summary of Inspection", FontBold, 14, summaryInk)
	l.y -= 30

	badges := []struct {
		label string
		count int
		fill  Color
	}{
		{"Okay", s.Okay, rgb(0.1, 0.7, 0.2)},
		{"Minor", s.Minor, rgb(0.95, 0.6, 0.1)},
		{"Major", s.Major, rgb(0.9, 0.2, 0.2)},
	}
	x := marginX
	for _, b := range badges {
		l.c.FillRect(x, l.y-5, badgeW, badgeH, b.fill, 1)
		l.c.Text(x+10, l.y, fmt.Sprintf("%s: %d", b.label, b.count), FontBold, 11, white)
		x += badgeGap
	}
	l.y -= 60
}

func drawDisclaimer(l *Layout) {
	l.SectionBar("Disclaimer and Acknowledgement", disclaimFill)
	for _, item := range Disclaimer {
		l.Paragraph("• "+item, FontRegular, 9.5, 13, 10, commentInk)
	}

	const lineW = 200.0
	l.EnsureSpace(70)
	l.Skip(45)
	l.c.Line(marginX, l.y, marginX+lineW, l.y, signatureInk, 0.8)
	l.c.Line(l.w-marginX-lineW, l.y, l.w-marginX, l.y, signatureInk, 0.8)
	l.c.Text(marginX, l.y-12, "Customer Signature", FontRegular, 9, signatureInk)
	l.c.Text(l.w-marginX-lineW, l.y-12, "Inspector Signature", FontRegular, 9, signatureInk)
	l.Skip(20)
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// Document is a rendered report.
type Document struct {
	Filename string
	Bytes    []byte
	Result
}

// Render composes j onto a fresh PDF document.
func Render(j *job.Job, opts Options) (*Document, error) {
	if j == nil {
		return nil, &RenderError{Err: fmt.Errorf("no job to render")}
	}
	if opts.Generated.IsZero() {
		opts.Generated = time.Now().UTC()
	}
	canvas := NewPDFCanvas(fmt.Sprintf("Inspection report %d", j.JobCount), opts.Generated)
	res, err := Compose(canvas, j, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := canvas.Output(&buf); err != nil {
		return nil, &RenderError{JobID: j.ID, Err: err}
	}
	return &Document{Filename: Filename(j.CustomerName), Bytes: buf.Bytes(), Result: res}, nil
}
