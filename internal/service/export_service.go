package service

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/export"
	"github.com/noah-isme/sma-timetable/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderGrid(g export.Grid, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix    string
	ResultTTL    time.Duration
	CSVSeparator rune
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders validation reports and grids and persists the files.
type ExportService struct {
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the default exporters.
func NewExportService(files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
		if cfg.CSVSeparator != 0 && cfg.CSVSeparator != ',' {
			csv = export.NewCSVExporterWithComma(cfg.CSVSeparator)
		}
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		storage: files,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

var reportHeaders = []string{"First", "Second", "Attendee", "Day", "At", "Week", "Message"}

// ReportDataset flattens the conflicts of a validation report into rows.
func ReportDataset(report *dto.ValidationReport) export.Dataset {
	rows := make([]map[string]string, 0, len(report.Conflicts))
	for _, c := range report.Conflicts {
		row := map[string]string{
			"First":    c.First.Label,
			"Second":   c.Second.Label,
			"Attendee": c.Attendee,
			"Message":  c.Message,
		}
		if c.Locator != nil {
			row["Day"] = c.Locator.Day
			row["At"] = c.Locator.At
			if c.Locator.Week != nil {
				row["Week"] = strconv.Itoa(*c.Locator.Week)
			}
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: reportHeaders, Rows: rows}
}

// ExportReport renders report in format, stores it and signs a download URL
// bound to jobID.
func (s *ExportService) ExportReport(jobID string, report *dto.ValidationReport, format models.ReportFormat) (*ExportResult, error) {
	if report == nil {
		return nil, fmt.Errorf("report nil")
	}
	dataset := ReportDataset(report)
	title := fmt.Sprintf("Timetable check %s", report.Level)
	if report.Consistent {
		title += " - consistent"
	}

	var (
		payload []byte
		err     error
	)
	switch format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(report.Level, format), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("validation report exported", zap.String("job_id", jobID), zap.String("path", relPath))

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          s.downloadURL(token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// GridPDF renders a periodic grid on one landscape page.
func (s *ExportService) GridPDF(grid *dto.PeriodicGrid) ([]byte, error) {
	if grid == nil {
		return nil, fmt.Errorf("grid nil")
	}
	g := export.Grid{
		Start:   int(timetable.MinHour),
		End:     int(timetable.MaxHour),
		RowStep: 30,
	}
	for i, day := range grid.Days {
		g.Days = append(g.Days, day.Name)
		for _, block := range day.Blocks {
			g.Blocks = append(g.Blocks, export.GridBlock{
				Day:     i,
				Begin:   int(block.Begin),
				End:     int(block.End),
				Column:  block.Position,
				Columns: block.OverlapCount,
				Lines:   blockLines(block),
			})
		}
	}
	return s.pdf.RenderGrid(g, grid.Level)
}

func blockLines(b dto.PeriodicBlock) []string {
	lines := []string{timetable.FullLabel(b.Label, b.Subject)}
	if b.Classroom != "" {
		lines = append(lines, b.Classroom)
	}
	if len(b.Teachers) > 0 {
		lines = append(lines, strings.Join(b.Teachers, ", "))
	}
	return append(lines, b.Rotations...)
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.Grant, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) downloadURL(token string) string {
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/export/%s", prefix, token)
}

func (s *ExportService) buildFilename(level string, format models.ReportFormat) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("validation_%s_%s.%s", sanitizeFilename(level), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
