package service

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/export"
	"github.com/noah-isme/sma-timetable/pkg/storage"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(files, signer, ExportConfig{APIPrefix: "/api/v1/"}, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 9, 2, 8, 30, 0, 0, time.UTC) }
	return svc, files
}

func sampleReport() *dto.ValidationReport {
	week := 3
	return &dto.ValidationReport{
		ID:         "rep-1",
		Level:      "MP2I",
		Consistent: false,
		Conflicts: []dto.Conflict{{
			First:    dto.EntityRef{Kind: "recurring", ID: 1, Label: "Cours - Maths"},
			Second:   dto.EntityRef{Kind: "punctual", ID: 7, Label: "DS"},
			Attendee: "3",
			Locator:  &dto.ConflictLocator{Day: "monday", At: "08:00", Week: &week},
			Message:  "3 attends Cours - Maths and DS",
		}},
	}
}

func TestReportDataset(t *testing.T) {
	data := ReportDataset(sampleReport())
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "Cours - Maths", data.Rows[0]["First"])
	assert.Equal(t, "monday", data.Rows[0]["Day"])
	assert.Equal(t, "3", data.Rows[0]["Week"])
	assert.Contains(t, data.Headers, "Message")
}

func TestExportServiceExportReportCSV(t *testing.T) {
	svc, files := newExportServiceForTest(t)

	result, err := svc.ExportReport("job-1", sampleReport(), models.ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "validation_MP2I_20240902_083000.csv", result.RelativePath)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))
	assert.True(t, strings.HasSuffix(result.URL, result.Token))

	grant, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", grant.ReportID)
	assert.Equal(t, result.RelativePath, grant.Path)

	f, err := files.Open(result.RelativePath)
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "First,Second,Attendee,Day,At,Week,Message\n"))
	assert.Contains(t, string(body), "Cours - Maths,DS,3,monday,08:00,3,")
}

func TestExportServiceCSVSeparator(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewExportService(files, storage.NewSignedURLSigner("s", time.Hour), ExportConfig{CSVSeparator: ';'}, nil, nil, nil)

	result, err := svc.ExportReport("job-2", sampleReport(), models.ReportFormatCSV)
	require.NoError(t, err)
	f, err := files.Open(result.RelativePath)
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "First;Second;Attendee;Day;At;Week;Message\n"))
}

func TestExportServiceExportReportPDF(t *testing.T) {
	svc, files := newExportServiceForTest(t)

	result, err := svc.ExportReport("job-2", sampleReport(), models.ReportFormatPDF)
	require.NoError(t, err)
	f, err := files.Open(result.RelativePath)
	require.NoError(t, err)
	defer f.Close()
	head := make([]byte, 4)
	_, err = io.ReadFull(f, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))

	require.NoError(t, svc.Delete(result.RelativePath))
	_, err = files.Open(result.RelativePath)
	assert.Error(t, err)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	_, err := svc.ExportReport("job-3", sampleReport(), models.ReportFormat("xlsx"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.ExportReport("job-3", nil, models.ReportFormatCSV)
	assert.Error(t, err)
}

type gridRecorder struct {
	export.PDFExporter
	grid export.Grid
}

func (r *gridRecorder) RenderGrid(g export.Grid, title string) ([]byte, error) {
	r.grid = g
	return r.PDFExporter.RenderGrid(g, title)
}

func TestExportServiceGridPDF(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	recorder := &gridRecorder{}
	svc := NewExportService(files, storage.NewSignedURLSigner("s", time.Hour), ExportConfig{}, nil, nil, recorder)

	grid := &dto.PeriodicGrid{
		Level: "MP2I",
		Days: []dto.PeriodicDay{
			{Day: 0, Name: "monday", Blocks: []dto.PeriodicBlock{{
				MergeableSpan: timetable.MergeableSpan{
					Begin:        timetable.NewClock(8, 0),
					End:          timetable.NewClock(10, 0),
					Label:        "TP",
					Subject:      "Physique",
					Classroom:    "B12",
					Teachers:     []string{"Curie"},
					Position:     1,
					OverlapCount: 2,
				},
				Rotations: []string{"even: 1-3"},
			}}},
			{Day: 1, Name: "tuesday"},
		},
	}
	out, err := svc.GridPDF(grid)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	require.Len(t, recorder.grid.Blocks, 1)
	block := recorder.grid.Blocks[0]
	assert.Equal(t, []string{"monday", "tuesday"}, recorder.grid.Days)
	assert.Equal(t, 480, block.Begin)
	assert.Equal(t, 1, block.Column)
	assert.Equal(t, 2, block.Columns)
	assert.Equal(t, []string{"TP - Physique", "B12", "Curie", "even: 1-3"}, block.Lines)
}

func TestExportServiceCleanup(t *testing.T) {
	dir := t.TempDir()
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	svc := NewExportService(files, storage.NewSignedURLSigner("s", time.Hour), ExportConfig{ResultTTL: time.Hour}, nil, nil, nil)

	_, err = files.Save("old.csv", []byte("x"))
	require.NoError(t, err)
	_, err = files.Save("fresh.csv", []byte("y"))
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.csv"), past, past))

	removed, err := svc.Cleanup(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.csv"}, removed)

	_, err = files.Open("fresh.csv")
	assert.NoError(t, err)
}
