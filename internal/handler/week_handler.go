package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type weekService interface {
	Generate(ctx context.Context, req dto.GenerateWeeksRequest) ([]dto.WeekSummary, error)
	List(ctx context.Context) ([]dto.WeekSummary, error)
	CurrentDay(ctx context.Context, number int) (*dto.CurrentDayResponse, error)
	Current(ctx context.Context) (*dto.CurrentWeekResponse, error)
}

// WeekHandler exposes the academic-year week calendar.
type WeekHandler struct {
	service weekService
}

// NewWeekHandler constructs the handler.
func NewWeekHandler(service weekService) *WeekHandler {
	return &WeekHandler{service: service}
}

// Generate godoc
// @Summary Regenerate the week calendar between two dates
// @Tags Weeks
// @Accept json
// @Produce json
// @Param payload body dto.GenerateWeeksRequest true "Year bounds and holidays"
// @Success 201 {object} response.Envelope
// @Router /weeks/generate [post]
func (h *WeekHandler) Generate(c *gin.Context) {
	var req dto.GenerateWeeksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid week generation payload"))
		return
	}
	weeks, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, weeks)
}

// List godoc
// @Summary List stored weeks
// @Tags Weeks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /weeks [get]
func (h *WeekHandler) List(c *gin.Context) {
	weeks, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, weeks)
}

// CurrentDay godoc
// @Summary Column to highlight for a week today
// @Tags Weeks
// @Produce json
// @Param number path int true "Week number"
// @Success 200 {object} response.Envelope
// @Router /weeks/{number}/current-day [get]
func (h *WeekHandler) CurrentDay(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week number must be a positive integer"))
		return
	}
	out, err := h.service.CurrentDay(c.Request.Context(), number)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// Current godoc
// @Summary Week containing today
// @Tags Weeks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /weeks/current [get]
func (h *WeekHandler) Current(c *gin.Context) {
	out, err := h.service.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}
