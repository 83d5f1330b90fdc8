package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets and weekly grids with gofpdf.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body. Wide
// tables switch to landscape.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation, width := "P", 190.0
	if len(data.Headers) > 5 {
		orientation, width = "L", 277.0
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	writeTitle(pdf, tr, title)

	pdf.SetFont("Arial", "B", 10)
	colWidth := width / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return output(pdf)
}

// GridBlock is one box of a weekly grid. Begin and End are minutes since
// midnight; the box takes column Column out of Columns within its day.
type GridBlock struct {
	Day     int
	Begin   int
	End     int
	Column  int
	Columns int
	Lines   []string
}

// Grid is a weekly timetable: one column per day, rows every RowStep minutes
// from Start to End.
type Grid struct {
	Days    []string
	Start   int
	End     int
	RowStep int
	Blocks  []GridBlock
}

const (
	gridLeft   = 10.0
	gridTop    = 25.0
	gridHeight = 170.0
	hourWidth  = 14.0
	gridWidth  = 263.0
)

// RenderGrid draws g on a landscape A4 page.
func (e *PDFExporter) RenderGrid(g Grid, title string) ([]byte, error) {
	if len(g.Days) == 0 || g.End <= g.Start {
		return nil, fmt.Errorf("grid requires days and a positive time range")
	}
	if g.RowStep <= 0 {
		g.RowStep = 30
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(gridLeft, 10, gridLeft)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	writeTitle(pdf, tr, title)

	dayWidth := gridWidth / float64(len(g.Days))
	perMinute := gridHeight / float64(g.End-g.Start)
	y := func(minute int) float64 { return gridTop + float64(minute-g.Start)*perMinute }

	pdf.SetFont("Arial", "B", 9)
	for i, day := range g.Days {
		pdf.SetXY(gridLeft+hourWidth+float64(i)*dayWidth, gridTop-7)
		pdf.CellFormat(dayWidth, 6, tr(day), "1", 0, "C", false, 0, "")
	}

	pdf.SetFont("Arial", "", 7)
	pdf.SetDrawColor(200, 200, 200)
	for m := g.Start; m <= g.End; m += g.RowStep {
		pdf.Line(gridLeft+hourWidth, y(m), gridLeft+hourWidth+gridWidth, y(m))
		pdf.SetXY(gridLeft, y(m)-2)
		pdf.CellFormat(hourWidth-1, 4, fmt.Sprintf("%02d:%02d", m/60, m%60), "", 0, "R", false, 0, "")
	}

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetFillColor(225, 235, 250)
	for _, b := range g.Blocks {
		if b.Day < 0 || b.Day >= len(g.Days) || b.End <= b.Begin {
			continue
		}
		columns := max(b.Columns, 1)
		width := dayWidth / float64(columns)
		x := gridLeft + hourWidth + float64(b.Day)*dayWidth + float64(b.Column)*width
		top, bottom := y(max(b.Begin, g.Start)), y(min(b.End, g.End))
		pdf.Rect(x, top, width, bottom-top, "FD")
		pdf.SetXY(x+0.5, top+0.5)
		pdf.MultiCell(width-1, 3, tr(strings.Join(b.Lines, "\n")), "", "L", false)
	}

	return output(pdf)
}

func writeTitle(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	if title == "" {
		return
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
	pdf.Ln(5)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
