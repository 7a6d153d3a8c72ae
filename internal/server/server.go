package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/echomed/resonance/internal/config"
	"github.com/echomed/resonance/internal/models"
	"github.com/echomed/resonance/internal/platform"
	"github.com/echomed/resonance/internal/service"
	"github.com/echomed/resonance/internal/sov"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	Auth        *service.AuthService
	Content     *service.ContentService
	Measurement *service.MeasurementService
	Reports     *service.ReportService
	Schedules   *service.ScheduleService
	Dispatcher  *service.Dispatcher
	Scheduler   *service.Scheduler

	statsUpdater *service.StatsUpdater
	location     *time.Location
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	ctx := context.Background()

	// Measurement stack
	registry, err := platform.NewRegistryFromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize platforms: %w", err)
	}
	classifier := sov.NewClassifier(platform.NewClassifyClient(&cfg.OpenAI), logger)
	orchestrator := sov.NewOrchestrator(classifier, cfg.Measurement.MaxConcurrency, logger)

	// Content stack
	writer, err := service.NewGeminiWriter(ctx, &cfg.Gemini, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize content writer: %w", err)
	}
	images, err := service.NewImagenGenerator(ctx, &cfg.Gemini, &cfg.Site, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image generator: %w", err)
	}
	sites := service.NewStaticSiteBuilder(&cfg.Site, logger)

	// Shared services
	notifier := service.NewNotifier(&cfg.Slack, logger)
	monitoring := service.NewMonitoringService(db, loc, logger)
	dispatcher := service.NewDispatcher(logger)

	measurement := service.NewMeasurementService(db, registry, orchestrator, dispatcher, notifier, monitoring, &cfg.Measurement, logger)
	schedules := service.NewScheduleService(db, monitoring, logger)
	content := service.NewContentService(db, writer, images, sites, notifier, monitoring, &cfg.Admin, &cfg.Site, logger)
	reports := service.NewReportService(db, measurement, dispatcher, notifier, monitoring, &cfg.Report, logger)

	scheduler := service.NewScheduler(&cfg.Scheduler, logger, dispatcher)
	statsUpdater := service.NewStatsUpdater(monitoring, logger, time.Hour)

	srv := &Server{
		Config:       cfg,
		DB:           db,
		Router:       gin.New(),
		Logger:       logger,
		Auth:         service.NewAuthService(logger, cfg.Admin.Token),
		Content:      content,
		Measurement:  measurement,
		Reports:      reports,
		Schedules:    schedules,
		Dispatcher:   dispatcher,
		Scheduler:    scheduler,
		statsUpdater: statsUpdater,
		location:     loc,
	}

	if err := srv.registerTasks(); err != nil {
		return nil, fmt.Errorf("failed to register task handlers: %w", err)
	}
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

// registerTasks binds every queued task to its service method. Cadence tasks
// take "now" in the operational timezone so date arithmetic matches the
// cron entries.
func (s *Server) registerTasks() error {
	handlers := map[string]service.Handler{
		service.TaskNightlyContent: func(ctx context.Context, _ service.Task) error {
			return s.Content.NightlyGeneration(ctx, time.Now().In(s.location))
		},
		service.TaskMorningNotify: func(ctx context.Context, _ service.Task) error {
			return s.Content.MorningNotification(ctx, time.Now().In(s.location))
		},
		service.TaskWeeklyMonitoring: func(ctx context.Context, _ service.Task) error {
			return s.Measurement.WeeklyMonitoring(ctx)
		},
		service.TaskTenantMeasurement: func(ctx context.Context, task service.Task) error {
			return s.Measurement.RunForTenant(ctx, task.TenantID)
		},
		service.TaskMonthlyReports: func(ctx context.Context, _ service.Task) error {
			return s.Reports.RunMonthlyReports(ctx, time.Now().In(s.location))
		},
		service.TaskSlotGeneration: func(ctx context.Context, _ service.Task) error {
			return s.Schedules.RunMonthlySlotGeneration(ctx, time.Now().In(s.location))
		},
		service.TaskInitialReport: func(ctx context.Context, task service.Task) error {
			return s.Reports.RunInitialReport(ctx, task.TenantID)
		},
		service.TaskSiteBuild: func(ctx context.Context, task service.Task) error {
			return s.Content.BuildSite(ctx, task.TenantID)
		},
	}
	for name, h := range handlers {
		if err := s.Dispatcher.RegisterHandler(name, h); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	api.Use(s.Auth.AuthMiddleware())
	{
		tenants := api.Group("/tenants/:id")
		{
			tenants.POST("/schedule", s.handleCreateSchedule)
			tenants.GET("/content", s.handleListContent)
			tenants.GET("/content/:cid", s.handleGetContent)
			tenants.POST("/content/:cid/publish", s.handlePublishContent)
			tenants.POST("/content/:cid/reject", s.handleRejectContent)
			tenants.POST("/measure", s.handleTriggerMeasurement)
			tenants.POST("/initial-report", s.handleTriggerInitialReport)
			tenants.POST("/site-build", s.handleTriggerSiteBuild)
			tenants.GET("/sov", s.handleSovSummary)
			tenants.GET("/reports", s.handleListReports)
		}
	}
}

type scheduleRequest struct {
	Plan        models.Plan `json:"plan" binding:"required"`
	PublishDays []int       `json:"publish_days" binding:"required"`
	ActiveFrom  string      `json:"active_from" binding:"required"`
}

func (s *Server) handleCreateSchedule(c *gin.Context) {
	tenantID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	activeFrom, err := time.ParseInLocation("2006-01-02", req.ActiveFrom, s.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active_from must be YYYY-MM-DD"})
		return
	}

	schedule, created, err := s.Schedules.CreateSchedule(c.Request.Context(), tenantID, req.Plan, req.PublishDays, activeFrom)
	if err != nil {
		s.Logger.Error("Failed to create schedule", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"schedule_id":   schedule.ID,
		"plan":          schedule.Plan,
		"publish_days":  schedule.PublishDays,
		"slots_created": created,
	})
}

func (s *Server) handleListContent(c *gin.Context) {
	tenantID, ok := pathID(c, "id")
	if !ok {
		return
	}

	now := time.Now().In(s.location)
	year := queryInt(c, "year", now.Year())
	month := queryInt(c, "month", int(now.Month()))
	status := models.ContentStatus(c.Query("status"))

	slots, err := s.Content.ListMonth(c.Request.Context(), tenantID, year, time.Month(month), status)
	if err != nil {
		s.Logger.Error("Failed to list content", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list content"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": slots})
}

func (s *Server) handleGetContent(c *gin.Context) {
	tenantID, ok := pathID(c, "id")
	if !ok {
		return
	}
	slotID, ok := pathID(c, "cid")
	if !ok {
		return
	}

	slot, err := s.Content.GetSlot(c.Request.Context(), tenantID, slotID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}
	c.JSON(http.StatusOK, slot)
}

type publishRequest struct {
	PublishedBy string `json:"published_by"`
}

func (s *Server) handlePublishContent(c *gin.Context) {
	tenantID, ok := pathID(c, "id")
	if !ok {
		return
	}
	slotID, ok := pathID(c, "cid")
	if !ok {
		return
	}

	var req publishRequest
	_ = c.ShouldBindJSON(&req)
	if req.PublishedBy == "" {
		req.PublishedBy = "AE"
	}

	slot, err := s.Content.Publish(c.Request.Context(), tenantID, slotID, req.PublishedBy)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"detail":       "Published",
		"published_at": slot.PublishedAt,
	})
}

func (s *Server) handleRejectContent(c *gin.Context) {
	tenantID, ok := pathID(c, "id")
	if !ok {
		return
	}
	slotID, ok := pathID(c, "cid")
	if !ok {
		return
	}

	if err := s.Content.Reject(c.Request.Context(), tenantID, slotID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Rejected. Will be regenerated tonight."})
}

func (s *Server) handleTriggerMeasurement(c *gin.Context) {
	s.enqueueForTenant(c, service.QueueSov, service.TaskTenantMeasurement)
}

func (s *Server) handleTriggerInitialReport(c *gin.Context) {
	s.enqueueForTenant(c, service.QueueReports, service.TaskInitialReport)
}

func (s *Server) handleTriggerSiteBuild(c *gin.Context) {
	s.enqueueForTenant(c, service.QueueDefault, service.TaskSiteBuild)
}

func (s *Server) enqueueForTenant(c *gin.Context, queue, task string) {
	tenantID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.Dispatcher.Enqueue(queue, service.Task{Name: task, TenantID: tenantID}); err != nil {
		s.Logger.Error("Failed to enqueue task", zap.String("task", task), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"detail": "Queued", "task": task})
}

func (s *Server) handleSovSummary(c *gin.Context) {
	tenantID, ok := pathID(c, "id")
	if !ok {
		return
	}

	now := time.Now().In(s.location)
	summary, err := s.Reports.SovSummary(c.Request.Context(), tenantID, now)
	if err != nil {
		s.Logger.Error("Failed to build SoV summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleListReports(c *gin.Context) {
	tenantID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var reports []models.PeriodicReport
	err := s.DB.WithContext(c.Request.Context()).
		Where("tenant_id = ?", tenantID).
		Order("period_year DESC, period_month DESC").
		Find(&reports).Error
	if err != nil {
		s.Logger.Error("Failed to list reports", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reports"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", name)})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}

func (s *Server) Start(ctx context.Context) error {
	s.Dispatcher.Start(ctx)
	s.statsUpdater.Start(ctx)

	if err := s.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.Scheduler.Stop()
	s.statsUpdater.Stop()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
