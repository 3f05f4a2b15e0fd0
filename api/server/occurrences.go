package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulseone-console/internal/alarm"
	"pulseone-console/internal/models"
	"pulseone-console/internal/search"
	"pulseone-console/pkg/client"
)

// GET /api/alarms/active
func (s *Server) activeOccurrences(c *gin.Context) {
	occs, err := s.alarms.ListActive(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireOccurrences(occs))
}

// GET /api/alarms/history
// 시각 파라미터는 RFC3339, 정렬 키는 서버 화이트리스트로 검증된다.
func (s *Server) occurrenceHistory(c *gin.Context) {
	q := alarm.HistoryQuery{
		DeviceID: c.Query("deviceId"),
		Severity: c.Query("severity"),
		State:    c.Query("state"),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sortBy"),
		SortDir:  c.Query("sortDir"),
		Limit:    queryInt(c, "limit"),
		Offset:   queryInt(c, "offset"),
	}
	if v := queryInt(c, "ruleId"); v > 0 {
		q.RuleID = uint(v)
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondFail(c, 400, "INVALID_REQUEST", "invalid from time: "+raw)
			return
		}
		q.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondFail(c, 400, "INVALID_REQUEST", "invalid to time: "+raw)
			return
		}
		q.To = &t
	}

	// 검색 인덱스가 켜져 있으면 그쪽을 먼저 탄다. 정렬 키 지정은 DB 전용.
	if s.search != nil && q.SortBy == "" && q.SortDir == "" {
		occs, err := s.historyFromIndex(c.Request.Context(), q)
		if err == nil {
			respondOK(c, toWireOccurrences(occs))
			return
		}
		s.logger.Warn("history search failed, falling back to database", zap.Error(err))
	}

	occs, err := s.alarms.History(c.Request.Context(), q)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireOccurrences(occs))
}

// historyFromIndex 인덱스에서 ID를 찾고 DB에서 본문을 복원한다
func (s *Server) historyFromIndex(ctx context.Context, q alarm.HistoryQuery) ([]models.AlarmOccurrence, error) {
	sq := search.Query{
		DeviceID:  q.DeviceID,
		Severity:  q.Severity,
		State:     q.State,
		Category:  q.Category,
		Tag:       q.Tag,
		QueryText: q.Search,
		StartTime: q.From,
		EndTime:   q.To,
		Size:      q.Limit,
		From:      q.Offset,
	}
	if q.RuleID > 0 {
		id := q.RuleID
		sq.RuleID = &id
	}
	if sq.Size <= 0 {
		sq.Size = 100 // DB 경로의 기본 limit과 맞춘다
	}

	result, err := s.search.Search(ctx, sq)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.OccurrenceID)
	}
	return s.alarms.OccurrencesByIDs(ctx, ids)
}

// GET /api/alarms/unacknowledged
func (s *Server) unacknowledgedOccurrences(c *gin.Context) {
	occs, err := s.alarms.ListUnacknowledged(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireOccurrences(occs))
}

// GET /api/alarms/recent
func (s *Server) recentOccurrences(c *gin.Context) {
	occs, err := s.alarms.ListRecent(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireOccurrences(occs))
}

// GET /api/alarms/statistics
func (s *Server) occurrenceStatistics(c *gin.Context) {
	stats, err := s.alarms.OccurrenceStatistics(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, stats)
}

// POST /api/alarms/test
func (s *Server) createTestOccurrence(c *gin.Context) {
	occ, err := s.alarms.CreateTestOccurrence(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondCreated(c, toWireOccurrence(*occ))
}

// GET /api/alarms/device/:deviceId
func (s *Server) occurrencesByDevice(c *gin.Context) {
	occs, err := s.alarms.ListByDevice(c.Request.Context(), c.Param("deviceId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireOccurrences(occs))
}

// GET /api/alarms/occurrences/category/:category
func (s *Server) occurrencesByCategory(c *gin.Context) {
	occs, err := s.alarms.ListOccurrencesByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireOccurrences(occs))
}

// GET /api/alarms/occurrences/tag/:tag
func (s *Server) occurrencesByTag(c *gin.Context) {
	occs, err := s.alarms.ListOccurrencesByTag(c.Request.Context(), c.Param("tag"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireOccurrences(occs))
}

// GET /api/alarms/occurrences/:id
func (s *Server) getOccurrence(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	occ, err := s.alarms.GetOccurrence(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireOccurrence(*occ))
}

// POST /api/alarms/occurrences/:id/acknowledge
func (s *Server) acknowledgeOccurrence(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req client.AcknowledgeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
	}

	occ, err := s.alarms.Acknowledge(c.Request.Context(), id, actorFrom(c), req.Comment)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondMessage(c, toWireOccurrence(*occ), "alarm acknowledged")
}

// POST /api/alarms/occurrences/:id/clear
func (s *Server) clearOccurrence(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req client.ClearRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
	}

	occ, err := s.alarms.Clear(c.Request.Context(), id, req.ClearedValue, req.Comment)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondMessage(c, toWireOccurrence(*occ), "alarm cleared")
}
