// Package server PulseOne 관리 콘솔 REST API.
// 모든 응답은 {success, data, message, error_code, timestamp} 포맷을 따른다.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulseone-console/api/middleware"
	"pulseone-console/internal/alarm"
	"pulseone-console/internal/collectorwatch"
	"pulseone-console/internal/config"
	"pulseone-console/internal/search"
	"pulseone-console/internal/settings"
)

type Server struct {
	router     *gin.Engine
	alarms     *alarm.Service
	collectors *collectorwatch.Service
	settings   *settings.Service
	search     *search.Client
	cfg        *config.Config
	logger     *zap.Logger
	auditDir   string
	httpServer *http.Server
}

// Options 선택 의존성
type Options struct {
	AuditDir string
	Search   *search.Client // 헬스 체크 보고용, nil 허용
}

func NewServer(cfg *config.Config, alarms *alarm.Service, collectors *collectorwatch.Service, settingsSvc *settings.Service, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// 요청 처리 시간 상한
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	s := &Server{
		router:     router,
		alarms:     alarms,
		collectors: collectors,
		settings:   settingsSvc,
		search:     opts.Search,
		cfg:        cfg,
		logger:     log,
		auditDir:   opts.AuditDir,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	if s.cfg.Server.RateLimit > 0 {
		limiter := middleware.NewIPRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(s.cfg.Server.RateLimit),
		})
		api.Use(limiter.Middleware())
	}

	api.GET("/health", s.healthCheck)

	{
		rules := api.Group("/alarms/rules")
		rules.GET("", s.listRules)
		rules.POST("", s.createRule)
		rules.GET("/statistics", s.ruleStatistics)
		rules.POST("/bulk", s.bulkUpdateRules)
		rules.GET("/category/:category", s.rulesByCategory)
		rules.GET("/tag/:tag", s.rulesByTag)
		rules.GET("/:id", s.getRule)
		rules.PUT("/:id", s.updateRule)
		rules.DELETE("/:id", s.deleteRule)
		rules.PATCH("/:id/settings", s.patchRuleSettings)
	}

	{
		alarms := api.Group("/alarms")
		alarms.GET("/active", s.activeOccurrences)
		alarms.GET("/history", s.occurrenceHistory)
		alarms.GET("/unacknowledged", s.unacknowledgedOccurrences)
		alarms.GET("/recent", s.recentOccurrences)
		alarms.GET("/statistics", s.occurrenceStatistics)
		alarms.POST("/test", s.createTestOccurrence)
		alarms.GET("/device/:deviceId", s.occurrencesByDevice)

		occurrences := alarms.Group("/occurrences")
		occurrences.GET("/category/:category", s.occurrencesByCategory)
		occurrences.GET("/tag/:tag", s.occurrencesByTag)
		occurrences.GET("/:id", s.getOccurrence)
		occurrences.POST("/:id/acknowledge", s.acknowledgeOccurrence)
		occurrences.POST("/:id/clear", s.clearOccurrence)
	}

	{
		templates := api.Group("/alarms/templates")
		templates.GET("", s.listTemplates)
		templates.POST("", s.createTemplate)
		templates.GET("/statistics", s.templateStatistics)
		templates.GET("/search", s.searchTemplates)
		templates.GET("/most-used", s.mostUsedTemplates)
		templates.GET("/:id", s.getTemplate)
		templates.PUT("/:id", s.updateTemplate)
		templates.DELETE("/:id", s.deleteTemplate)
		templates.POST("/:id/apply", s.applyTemplate)
	}

	{
		collectors := api.Group("/collectors")
		collectors.GET("", s.listCollectors)
		collectors.GET("/active", s.activeCollectors)
		collectors.POST("/register", s.registerCollector)
		collectors.GET("/:id/health", s.collectorHealth)
		collectors.DELETE("/:id", s.unregisterCollector)
	}

	api.GET("/settings", s.getSettings)
	api.PUT("/settings", s.updateSettings)

	api.GET("/system/logs", s.systemLogs)
}

// Run 서버 기동 (블로킹)
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.HTTPPort)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting http server", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown 유예 종료
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router 테스트에서 핸들러를 직접 구동할 때 사용
func (s *Server) Router() http.Handler {
	return s.router
}
