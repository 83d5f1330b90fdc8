package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type attendanceService interface {
	Resolve(ctx context.Context, tokens []string, addTeachers bool, level string) ([]string, error)
	Format(ctx context.Context, raw, level string) (*dto.FormatAttendanceResponse, error)
	Invalidate(ctx context.Context, actorID string) error
}

// AttendanceHandler exposes attendance string resolution.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Resolve godoc
// @Summary Resolve attendance tokens to user ids
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.ResolveAttendanceRequest true "Tokens"
// @Success 200 {object} response.Envelope
// @Router /attendance/resolve [post]
func (h *AttendanceHandler) Resolve(c *gin.Context) {
	var req dto.ResolveAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolve payload"))
		return
	}
	if len(req.Tokens) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "tokens are required"))
		return
	}
	ids, err := h.service.Resolve(c.Request.Context(), req.Tokens, req.AddTeachers, req.Level)
	if err != nil {
		response.Error(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	response.OK(c, dto.ResolveAttendanceResponse{UserIDs: ids})
}

// Format godoc
// @Summary Normalise an attendance string
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.FormatAttendanceRequest true "Attendance"
// @Success 200 {object} response.Envelope
// @Router /attendance/format [post]
func (h *AttendanceHandler) Format(c *gin.Context) {
	var req dto.FormatAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid format payload"))
		return
	}
	if strings.TrimSpace(req.Attendance) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "attendance is required"))
		return
	}
	out, err := h.service.Format(c.Request.Context(), req.Attendance, req.Level)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// Invalidate godoc
// @Summary Reload the roster after a group membership change
// @Tags Attendance
// @Produce json
// @Success 204
// @Router /attendance/invalidate [post]
func (h *AttendanceHandler) Invalidate(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.service.Invalidate(c.Request.Context(), actorID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
