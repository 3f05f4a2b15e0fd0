package server

import (
	"github.com/gin-gonic/gin"

	"pulseone-console/internal/models"
	"pulseone-console/pkg/client"
)

// GET /api/collectors
func (s *Server) listCollectors(c *gin.Context) {
	cols, err := s.collectors.ListCollectors(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireCollectors(cols))
}

// GET /api/collectors/active
func (s *Server) activeCollectors(c *gin.Context) {
	cols, err := s.collectors.ListActiveCollectors(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireCollectors(cols))
}

// POST /api/collectors/register
// 응답에만 등록 토큰이 포함된다. 이후 조회에서는 내려가지 않는다.
func (s *Server) registerCollector(c *gin.Context) {
	var req client.RegisterCollectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	col := &models.Collector{
		ServerName:  req.ServerName,
		FactoryName: req.FactoryName,
		Location:    req.Location,
		IPAddress:   req.IPAddress,
		Port:        req.Port,
		Version:     req.Version,
	}

	if err := s.collectors.RegisterCollector(c.Request.Context(), col); err != nil {
		s.respondError(c, err)
		return
	}
	respondCreated(c, toWireCollector(*col, true))
}

// GET /api/collectors/:id/health
func (s *Server) collectorHealth(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	result, err := s.collectors.Health(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, result)
}

// DELETE /api/collectors/:id
func (s *Server) unregisterCollector(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := s.collectors.UnregisterCollector(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondMessage(c, nil, "collector unregistered")
}
