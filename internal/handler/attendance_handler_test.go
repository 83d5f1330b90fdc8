package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type attendanceServiceMock struct {
	ids         []string
	err         error
	addTeachers bool
	invalidated string
}

func (m *attendanceServiceMock) Resolve(ctx context.Context, tokens []string, addTeachers bool, level string) ([]string, error) {
	m.addTeachers = addTeachers
	return m.ids, m.err
}

func (m *attendanceServiceMock) Format(ctx context.Context, raw, level string) (*dto.FormatAttendanceResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.FormatAttendanceResponse{Attendance: "1-3,Curie", Groups: []int{1, 2, 3}, Names: []string{"Curie"}}, nil
}

func (m *attendanceServiceMock) Invalidate(ctx context.Context, actorID string) error {
	m.invalidated = actorID
	return m.err
}

func TestAttendanceHandlerResolve(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &attendanceServiceMock{ids: []string{"u1", "t1"}}
	handler := NewAttendanceHandler(svc)

	c, w := newGinContext(http.MethodPost, "/attendance/resolve", []byte(`{"tokens":["1","Curie"],"addTeachers":true}`))
	handler.Resolve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.addTeachers)

	var out dto.ResolveAttendanceResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &out))
	assert.Equal(t, []string{"u1", "t1"}, out.UserIDs)
}

func TestAttendanceHandlerResolveErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewAttendanceHandler(&attendanceServiceMock{})
	c, w := newGinContext(http.MethodPost, "/attendance/resolve", []byte(`{"tokens":[]}`))
	handler.Resolve(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	handler = NewAttendanceHandler(&attendanceServiceMock{err: appErrors.Clone(appErrors.ErrUnknownAttendee, `unknown attendee "Nobody"`)})
	c, w = newGinContext(http.MethodPost, "/attendance/resolve", []byte(`{"tokens":["Nobody"]}`))
	handler.Resolve(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrUnknownAttendee.Code, env.Error.Code)
}

func TestAttendanceHandlerFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(&attendanceServiceMock{})

	c, w := newGinContext(http.MethodPost, "/attendance/format", []byte(`{"attendance":"3,1,2,Curie"}`))
	handler.Format(c)
	require.Equal(t, http.StatusOK, w.Code)

	var out dto.FormatAttendanceResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &out))
	assert.Equal(t, "1-3,Curie", out.Attendance)

	c, w = newGinContext(http.MethodPost, "/attendance/format", []byte(`{"attendance":""}`))
	handler.Format(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerInvalidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &attendanceServiceMock{}
	handler := NewAttendanceHandler(svc)

	c, w := newGinContext(http.MethodPost, "/attendance/invalidate", nil)
	handler.Invalidate(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newGinContext(http.MethodPost, "/attendance/invalidate", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Role: models.RoleAdmin})
	handler.Invalidate(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.invalidated)

	c, _ = newGinContext(http.MethodPost, "/attendance/invalidate", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	handler.Invalidate(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "admin-1", svc.invalidated)
}
