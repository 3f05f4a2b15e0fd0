package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulseone-console/internal/alarm"
	"pulseone-console/internal/collectorwatch"
	"pulseone-console/internal/settings"
)

// envelope 모든 API 응답의 공통 포맷
type envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Message   string      `json:"message,omitempty"`
	ErrorCode string      `json:"error_code,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func respondOK(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, data)
}

func respondCreated(c *gin.Context, data interface{}) {
	respond(c, http.StatusCreated, data)
}

func respondMessage(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func respondFail(c *gin.Context, status int, code, message string) {
	c.JSON(status, envelope{
		Success:   false,
		Data:      nil,
		Message:   message,
		ErrorCode: code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// respondError 도메인 에러를 HTTP 상태/에러 코드로 변환
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, alarm.ErrNotFound) || errors.Is(err, collectorwatch.ErrNotFound):
		respondFail(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, alarm.ErrValidation) || errors.Is(err, collectorwatch.ErrValidation) ||
		errors.Is(err, settings.ErrUnknownCategory):
		respondFail(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, alarm.ErrInvalidState):
		respondFail(c, http.StatusConflict, "INVALID_STATE", err.Error())
	case errors.Is(err, alarm.ErrSystemTemplate):
		respondFail(c, http.StatusForbidden, "SYSTEM_TEMPLATE", err.Error())
	default:
		s.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		respondFail(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func respondBadRequest(c *gin.Context, err error) {
	respondFail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
}

// idParam :id 경로 파라미터 파싱
func idParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		respondFail(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid id: "+raw)
		return 0, false
	}
	return uint(id), true
}

// actorFrom 콘솔이 붙이는 사용자 ID 헤더 (없으면 0)
func actorFrom(c *gin.Context) uint {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

func queryInt(c *gin.Context, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func queryBool(c *gin.Context, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}
