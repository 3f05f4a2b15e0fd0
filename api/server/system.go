package server

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"pulseone-console/internal/logger"
	"pulseone-console/pkg/client"
)

const serverVersion = "1.0.0"

// GET /api/health
// DB가 내려가면 unhealthy, Redis/ES는 상태 보고만 한다.
func (s *Server) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	status := client.HealthStatus{
		Status:  "healthy",
		Version: serverVersion,
	}
	status.Database = s.alarms.Ping(ctx) == nil
	status.Redis = s.collectors.PingRedis(ctx) == nil
	status.Elasticsearch = s.search.Ping(ctx) == nil

	if !status.Database {
		status.Status = "unhealthy"
	}
	respondOK(c, status)
}

// GET /api/settings
func (s *Server) getSettings(c *gin.Context) {
	sections, err := s.settings.Get(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, sections)
}

// PUT /api/settings
// 본문에 포함된 카테고리만 갱신되고, 응답은 전체 설정이다.
func (s *Server) updateSettings(c *gin.Context) {
	var patch map[string]json.RawMessage
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, err)
		return
	}

	sections, err := s.settings.Update(c.Request.Context(), patch, actorFrom(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondMessage(c, sections, "settings updated")
}

// GET /api/system/logs
// 감사 로그 조회. 기본 범위는 최근 7일.
func (s *Server) systemLogs(c *gin.Context) {
	q := &logger.AuditQuery{
		Resource: c.Query("resource"),
		Action:   c.Query("action"),
		Limit:    queryInt(c, "limit"),
		Offset:   queryInt(c, "offset"),
	}
	if v := queryInt(c, "actor"); v > 0 {
		actor := uint(v)
		q.Actor = &actor
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondFail(c, 400, "INVALID_REQUEST", "invalid from time: "+raw)
			return
		}
		q.StartTime = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondFail(c, 400, "INVALID_REQUEST", "invalid to time: "+raw)
			return
		}
		q.EndTime = &t
	}

	result, err := logger.QueryAudit(s.auditDir, q)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, result)
}
