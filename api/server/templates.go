package server

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"pulseone-console/internal/alarm"
	"pulseone-console/pkg/client"
)

// GET /api/templates
func (s *Server) listTemplates(c *gin.Context) {
	q := alarm.TemplateQuery{
		Category: c.Query("category"),
		Active:   queryBool(c, "active"),
		Limit:    queryInt(c, "limit"),
		Offset:   queryInt(c, "offset"),
	}

	tpls, err := s.alarms.ListTemplates(c.Request.Context(), q)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireTemplates(tpls))
}

// POST /api/templates
func (s *Server) createTemplate(c *gin.Context) {
	var input client.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	tpl := templateFromInput(input)
	tpl.CreatedBy = actorFrom(c)

	if err := s.alarms.CreateTemplate(c.Request.Context(), tpl); err != nil {
		s.respondError(c, err)
		return
	}
	respondCreated(c, toWireTemplate(*tpl))
}

// GET /api/templates/:id
func (s *Server) getTemplate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	tpl, err := s.alarms.GetTemplate(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireTemplate(*tpl))
}

// PUT /api/templates/:id
func (s *Server) updateTemplate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var input client.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	updated, err := s.alarms.UpdateTemplate(c.Request.Context(), id, templateFromInput(input))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireTemplate(*updated))
}

// DELETE /api/templates/:id
func (s *Server) deleteTemplate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := s.alarms.DeleteTemplate(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondMessage(c, nil, "alarm template deleted")
}

// POST /api/templates/:id/apply
func (s *Server) applyTemplate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var input client.ApplyTemplateRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	req := alarm.ApplyRequest{
		TargetIDs:     input.TargetIDs,
		TargetType:    input.TargetType,
		RuleGroupName: input.RuleGroupName,
		Actor:         actorFrom(c),
	}
	if len(input.CustomConfigs) > 0 {
		req.CustomConfigs = make(map[string]json.RawMessage, len(input.CustomConfigs))
		for key, obj := range input.CustomConfigs {
			req.CustomConfigs[key] = json.RawMessage(encodeJSON(obj, "{}"))
		}
	}

	result, err := s.alarms.ApplyTemplate(c.Request.Context(), id, req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	respondOK(c, client.ApplyTemplateResult{
		TemplateID:   result.TemplateID,
		CreatedRules: toWireRules(result.CreatedRules),
		Failed:       result.Failed,
	})
}

// GET /api/templates/search?q=
func (s *Server) searchTemplates(c *gin.Context) {
	tpls, err := s.alarms.SearchTemplates(c.Request.Context(), c.Query("q"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireTemplates(tpls))
}

// GET /api/templates/most-used
func (s *Server) mostUsedTemplates(c *gin.Context) {
	tpls, err := s.alarms.MostUsedTemplates(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireTemplates(tpls))
}

// GET /api/templates/statistics
func (s *Server) templateStatistics(c *gin.Context) {
	stats, err := s.alarms.TemplateStatistics(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, stats)
}
