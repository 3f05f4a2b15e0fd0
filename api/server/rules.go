package server

import (
	"github.com/gin-gonic/gin"

	"pulseone-console/internal/alarm"
	"pulseone-console/pkg/client"
)

// GET /api/rules
func (s *Server) listRules(c *gin.Context) {
	q := alarm.RuleQuery{
		Severity:   c.Query("severity"),
		AlarmType:  c.Query("alarm_type"),
		TargetType: c.Query("target_type"),
		Category:   c.Query("category"),
		Tag:        c.Query("tag"),
		Search:     c.Query("search"),
		Enabled:    queryBool(c, "enabled"),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	}

	rules, err := s.alarms.ListRules(c.Request.Context(), q)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireRules(rules))
}

// POST /api/rules
func (s *Server) createRule(c *gin.Context) {
	var input client.RuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	rule := ruleFromInput(input)
	rule.CreatedBy = actorFrom(c)

	if err := s.alarms.CreateRule(c.Request.Context(), rule); err != nil {
		s.respondError(c, err)
		return
	}
	respondCreated(c, toWireRule(*rule))
}

// GET /api/rules/:id
func (s *Server) getRule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	rule, err := s.alarms.GetRule(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireRule(*rule))
}

// PUT /api/rules/:id
func (s *Server) updateRule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var input client.RuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	updated, err := s.alarms.UpdateRule(c.Request.Context(), id, ruleFromInput(input))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireRule(*updated))
}

// DELETE /api/rules/:id
func (s *Server) deleteRule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := s.alarms.DeleteRule(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondMessage(c, nil, "alarm rule deleted")
}

// PATCH /api/rules/:id/settings
func (s *Server) patchRuleSettings(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var input client.RuleSettingsPatch
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	patch := alarm.RuleSettingsPatch{
		NotificationEnabled:           input.NotificationEnabled,
		NotificationDelaySec:          input.NotificationDelaySec,
		NotificationRepeatIntervalMin: input.NotificationRepeatIntervalMin,
		AutoAcknowledge:               input.AutoAcknowledge,
		AcknowledgeTimeoutMin:         input.AcknowledgeTimeoutMin,
		AutoClear:                     input.AutoClear,
	}
	if input.NotificationChannels != nil {
		raw := encodeJSON(input.NotificationChannels, "[]")
		patch.NotificationChannels = &raw
	}
	if input.NotificationRecipients != nil {
		raw := encodeJSON(input.NotificationRecipients, "[]")
		patch.NotificationRecipients = &raw
	}

	rule, err := s.alarms.PatchRuleSettings(c.Request.Context(), id, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireRule(*rule))
}

// POST /api/rules/bulk
func (s *Server) bulkUpdateRules(c *gin.Context) {
	var input client.BulkRuleUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	updated, err := s.alarms.BulkUpdateRules(c.Request.Context(), input.IDs, alarm.BulkRulePatch{
		IsEnabled: input.IsEnabled,
		Severity:  input.Severity,
		Category:  input.Category,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, client.BulkRuleResult{Updated: updated})
}

// GET /api/rules/category/:category
func (s *Server) rulesByCategory(c *gin.Context) {
	rules, err := s.alarms.ListRules(c.Request.Context(), alarm.RuleQuery{Category: c.Param("category")})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireRules(rules))
}

// GET /api/rules/tag/:tag
func (s *Server) rulesByTag(c *gin.Context) {
	rules, err := s.alarms.ListRules(c.Request.Context(), alarm.RuleQuery{Tag: c.Param("tag")})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, toWireRules(rules))
}

// GET /api/rules/statistics
func (s *Server) ruleStatistics(c *gin.Context) {
	stats, err := s.alarms.RuleStatistics(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, stats)
}
