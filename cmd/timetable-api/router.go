package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/handler"
	"github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/requestid"
)

type routerDeps struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *service.MetricsService
	db         handler.Pinger
	timetable  *service.TimetableService
	attendance *service.AttendanceService
	weeks      *service.WeekService
	exporter   *service.ExportService
	jobs       *service.ValidationJobService
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(corsmiddleware.New(d.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics))

	metricsHandler := handler.NewMetricsHandler(d.metrics, d.db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if d.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	verifier := service.NewTokenService(d.cfg.JWT.Secret, d.cfg.JWT.Issuer)
	adminOnly := []gin.HandlerFunc{
		middleware.JWT(verifier),
		middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin),
	}

	api := r.Group(strings.TrimRight(d.cfg.APIPrefix, "/"))
	api.Use(middleware.WithResponseMeta())
	api.Use(middleware.OptionalJWT(verifier))

	timetableHandler := handler.NewTimetableHandler(d.timetable, d.exporter)
	tt := api.Group("/timetable")
	tt.POST("/validate", timetableHandler.Validate)
	tt.POST("/check", timetableHandler.Check)
	tt.POST("/events/:id/check-attendance", timetableHandler.CheckAttendance)
	tt.GET("/weeks/:number", timetableHandler.Week)
	tt.GET("/periodic", timetableHandler.Periodic)
	tt.GET("/periodic/pdf", timetableHandler.PeriodicPDF)

	attendanceHandler := handler.NewAttendanceHandler(d.attendance)
	att := api.Group("/attendance")
	att.POST("/resolve", attendanceHandler.Resolve)
	att.POST("/format", attendanceHandler.Format)
	att.POST("/invalidate", append(adminOnly, attendanceHandler.Invalidate)...)

	weekHandler := handler.NewWeekHandler(d.weeks)
	wk := api.Group("/weeks")
	wk.GET("", weekHandler.List)
	wk.GET("/current", weekHandler.Current)
	wk.GET("/:number/current-day", weekHandler.CurrentDay)
	wk.POST("/generate", append(adminOnly, weekHandler.Generate)...)

	if d.jobs != nil {
		jobHandler := handler.NewValidationJobHandler(d.jobs)
		tt.POST("/validate/export", append(adminOnly, jobHandler.Create)...)
		tt.GET("/validate/jobs/:id", append(adminOnly, jobHandler.Status)...)
		api.GET("/export/:token", jobHandler.Download)
	}

	return r
}
