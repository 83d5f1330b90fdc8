package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/middleware"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type timetableService interface {
	Validate(ctx context.Context, level string) (*dto.ValidationReport, error)
	Check(ctx context.Context, req dto.CheckRequest) (*dto.CheckResponse, error)
	CheckAttendance(ctx context.Context, level string, id int64, attendance string) (*dto.CheckResponse, error)
	Week(ctx context.Context, level string, number int) (*dto.WeekTimetable, bool, error)
	PeriodicGrid(ctx context.Context, level string) (*dto.PeriodicGrid, bool, error)
}

type gridRenderer interface {
	GridPDF(grid *dto.PeriodicGrid) ([]byte, error)
}

// TimetableHandler exposes consistency checks and timetable layouts.
type TimetableHandler struct {
	service  timetableService
	exporter gridRenderer
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(service timetableService, exporter gridRenderer) *TimetableHandler {
	return &TimetableHandler{service: service, exporter: exporter}
}

// Validate godoc
// @Summary Check the whole timetable of a level for double bookings
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ValidateRequest false "Level to validate"
// @Success 200 {object} response.Envelope
// @Router /timetable/validate [post]
func (h *TimetableHandler) Validate(c *gin.Context) {
	var req dto.ValidateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validation payload"))
			return
		}
	}
	if req.Level == "" {
		req.Level = c.Query("level")
	}
	report, err := h.service.Validate(c.Request.Context(), req.Level)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// Check godoc
// @Summary Test a recurring event against the stored timetable
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.CheckRequest true "Candidate event"
// @Success 200 {object} response.Envelope
// @Router /timetable/check [post]
func (h *TimetableHandler) Check(c *gin.Context) {
	var req dto.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid check payload"))
		return
	}
	result, err := h.service.Check(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// CheckAttendance godoc
// @Summary Test a new attendance for a stored recurring event
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path int true "Recurring event ID"
// @Param payload body dto.CheckAttendanceRequest true "Attendance override"
// @Success 200 {object} response.Envelope
// @Router /timetable/events/{id}/check-attendance [post]
func (h *TimetableHandler) CheckAttendance(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id must be a positive integer"))
		return
	}
	var req dto.CheckAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	if strings.TrimSpace(req.Attendance) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "attendance is required"))
		return
	}
	result, err := h.service.CheckAttendance(c.Request.Context(), req.Level, id, req.Attendance)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Week godoc
// @Summary Display timetable of one numbered week
// @Tags Timetable
// @Produce json
// @Param number path int true "Week number"
// @Param level query string false "Level"
// @Success 200 {object} response.Envelope
// @Router /timetable/weeks/{number} [get]
func (h *TimetableHandler) Week(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week number must be a positive integer"))
		return
	}
	week, cacheHit, err := h.service.Week(c.Request.Context(), c.Query("level"), number)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "level", week.Level)
	response.JSON(c, http.StatusOK, week, middleware.ExtractMeta(c))
}

// Periodic godoc
// @Summary Merged periodic grid of a level
// @Tags Timetable
// @Produce json
// @Param level query string false "Level"
// @Success 200 {object} response.Envelope
// @Router /timetable/periodic [get]
func (h *TimetableHandler) Periodic(c *gin.Context) {
	grid, cacheHit, err := h.service.PeriodicGrid(c.Request.Context(), c.Query("level"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "level", grid.Level)
	response.JSON(c, http.StatusOK, grid, middleware.ExtractMeta(c))
}

// PeriodicPDF godoc
// @Summary Periodic grid as a printable PDF
// @Tags Timetable
// @Produce application/pdf
// @Param level query string false "Level"
// @Success 200 {file} binary
// @Router /timetable/periodic/pdf [get]
func (h *TimetableHandler) PeriodicPDF(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "export not configured"))
		return
	}
	grid, _, err := h.service.PeriodicGrid(c.Request.Context(), c.Query("level"))
	if err != nil {
		response.Error(c, err)
		return
	}
	body, err := h.exporter.GridPDF(grid)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"periodic_%s.pdf\"", grid.Level))
	c.Data(http.StatusOK, "application/pdf", body)
}
