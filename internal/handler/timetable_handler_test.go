package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type timetableServiceMock struct {
	level        string
	checkReq     dto.CheckRequest
	attendanceID int64
	attendance   string
	weekNumber   int
	cacheHit     bool
	err          error
}

func (m *timetableServiceMock) Validate(ctx context.Context, level string) (*dto.ValidationReport, error) {
	m.level = level
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ValidationReport{ID: "r-1", Level: level, Consistent: true, Conflicts: []dto.Conflict{}}, nil
}

func (m *timetableServiceMock) Check(ctx context.Context, req dto.CheckRequest) (*dto.CheckResponse, error) {
	m.checkReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.CheckResponse{Compatible: false, Conflicts: []dto.Conflict{{Attendee: "2"}}}, nil
}

func (m *timetableServiceMock) CheckAttendance(ctx context.Context, level string, id int64, attendance string) (*dto.CheckResponse, error) {
	m.attendanceID, m.attendance = id, attendance
	return &dto.CheckResponse{Compatible: true, Conflicts: []dto.Conflict{}}, m.err
}

func (m *timetableServiceMock) Week(ctx context.Context, level string, number int) (*dto.WeekTimetable, bool, error) {
	m.weekNumber = number
	if m.err != nil {
		return nil, false, m.err
	}
	return &dto.WeekTimetable{Level: "MP2I", Week: number}, m.cacheHit, nil
}

func (m *timetableServiceMock) PeriodicGrid(ctx context.Context, level string) (*dto.PeriodicGrid, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return &dto.PeriodicGrid{Level: "MP2I"}, m.cacheHit, nil
}

type gridRendererMock struct {
	body []byte
	err  error
}

func (m *gridRendererMock) GridPDF(grid *dto.PeriodicGrid) ([]byte, error) {
	return m.body, m.err
}

func TestTimetableHandlerValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &timetableServiceMock{}
	handler := NewTimetableHandler(svc, nil)

	payload, _ := json.Marshal(dto.ValidateRequest{Level: "MPSI"})
	c, w := newGinContext(http.MethodPost, "/timetable/validate", payload)
	handler.Validate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MPSI", svc.level)

	c, w = newGinContext(http.MethodPost, "/timetable/validate?level=MP2I", nil)
	handler.Validate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MP2I", svc.level)
}

func TestTimetableHandlerValidateServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(&timetableServiceMock{err: errors.New("boom")}, nil)

	c, w := newGinContext(http.MethodPost, "/timetable/validate", nil)
	handler.Validate(c)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrInternal.Code, env.Error.Code)
}

func TestTimetableHandlerCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &timetableServiceMock{}
	handler := NewTimetableHandler(svc, nil)

	payload := []byte(`{"day":0,"begin":"09:30","end":"10:30","begweek":1,"endweek":10,"periodicity":1,"attendance":"2"}`)
	c, w := newGinContext(http.MethodPost, "/timetable/check", payload)
	handler.Check(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "09:30", svc.checkReq.Begin)
	assert.Equal(t, 10, svc.checkReq.EndWeek)

	var result dto.CheckResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &result))
	assert.False(t, result.Compatible)
	assert.Len(t, result.Conflicts, 1)

	c, w = newGinContext(http.MethodPost, "/timetable/check", []byte(`{"day":`))
	handler.Check(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerCheckAttendance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &timetableServiceMock{}
	handler := NewTimetableHandler(svc, nil)

	c, w := newGinContext(http.MethodPost, "/timetable/events/7/check-attendance", []byte(`{"attendance":"1-3"}`))
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	handler.CheckAttendance(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), svc.attendanceID)
	assert.Equal(t, "1-3", svc.attendance)

	c, w = newGinContext(http.MethodPost, "/timetable/events/x/check-attendance", []byte(`{"attendance":"1"}`))
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	handler.CheckAttendance(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodPost, "/timetable/events/7/check-attendance", []byte(`{"attendance":"  "}`))
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	handler.CheckAttendance(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerWeekSetsCacheMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &timetableServiceMock{cacheHit: true}
	handler := NewTimetableHandler(svc, nil)

	c, w := newGinContext(http.MethodGet, "/timetable/weeks/3", nil)
	c.Params = gin.Params{{Key: "number", Value: "3"}}
	handler.Week(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, svc.weekNumber)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, "MP2I", env.Meta["level"])

	c, w = newGinContext(http.MethodGet, "/timetable/weeks/0", nil)
	c.Params = gin.Params{{Key: "number", Value: "0"}}
	handler.Week(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerWeekNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(&timetableServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "week not found")}, nil)

	c, w := newGinContext(http.MethodGet, "/timetable/weeks/40", nil)
	c.Params = gin.Params{{Key: "number", Value: "40"}}
	handler.Week(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerPeriodic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(&timetableServiceMock{}, nil)

	c, w := newGinContext(http.MethodGet, "/timetable/periodic?level=MP2I", nil)
	handler.Periodic(c)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, false, env.Meta["cache_hit"])
}

func TestTimetableHandlerPeriodicPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(&timetableServiceMock{}, &gridRendererMock{body: []byte("%PDF-1.3")})

	c, w := newGinContext(http.MethodGet, "/timetable/periodic/pdf", nil)
	handler.PeriodicPDF(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "periodic_MP2I.pdf")
	assert.Equal(t, "%PDF-1.3", w.Body.String())

	handler = NewTimetableHandler(&timetableServiceMock{}, nil)
	c, w = newGinContext(http.MethodGet, "/timetable/periodic/pdf", nil)
	handler.PeriodicPDF(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
