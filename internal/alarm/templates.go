package alarm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"pulseone-console/internal/models"
)

// 템플릿 condition_type → 규칙 alarm_type
var conditionToAlarmType = map[string]string{
	"threshold": models.AlarmTypeAnalog,
	"digital":   models.AlarmTypeDigital,
	"script":    models.AlarmTypeScript,
}

// TemplateQuery 템플릿 목록 조회 조건
type TemplateQuery struct {
	Category string
	Active   *bool
	Limit    int
	Offset   int
}

func (s *Service) ListTemplates(ctx context.Context, q TemplateQuery) ([]models.AlarmTemplate, error) {
	db := s.db.WithContext(ctx).Model(&models.AlarmTemplate{})

	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	if q.Active != nil {
		db = db.Where("is_active = ?", *q.Active)
	}

	db = db.Order("usage_count DESC, name ASC")
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	var tpls []models.AlarmTemplate
	if err := db.Find(&tpls).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return tpls, nil
}

func (s *Service) GetTemplate(ctx context.Context, id uint) (*models.AlarmTemplate, error) {
	var tpl models.AlarmTemplate
	if err := s.db.WithContext(ctx).First(&tpl, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &tpl, nil
}

func (s *Service) CreateTemplate(ctx context.Context, tpl *models.AlarmTemplate) error {
	if err := validateTemplate(tpl); err != nil {
		return err
	}
	normalizeTemplate(tpl)

	if err := s.db.WithContext(ctx).Create(tpl).Error; err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	s.audit("create", "alarm_template", tpl.ID, tpl.CreatedBy, map[string]interface{}{"name": tpl.Name})
	return nil
}

func (s *Service) UpdateTemplate(ctx context.Context, id uint, tpl *models.AlarmTemplate) (*models.AlarmTemplate, error) {
	var existing models.AlarmTemplate
	if err := s.db.WithContext(ctx).First(&existing, id).Error; err != nil {
		return nil, notFoundOr(err)
	}

	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}

	// 시스템 플래그와 사용 횟수는 요청으로 바꿀 수 없다
	tpl.ID = existing.ID
	tpl.IsSystemTemplate = existing.IsSystemTemplate
	tpl.UsageCount = existing.UsageCount
	tpl.CreatedBy = existing.CreatedBy
	tpl.CreatedAt = existing.CreatedAt
	normalizeTemplate(tpl)

	if err := s.db.WithContext(ctx).Save(tpl).Error; err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	s.audit("update", "alarm_template", tpl.ID, 0, map[string]interface{}{"name": tpl.Name})
	return tpl, nil
}

// DeleteTemplate 시스템 템플릿은 삭제 불가
func (s *Service) DeleteTemplate(ctx context.Context, id uint) error {
	var tpl models.AlarmTemplate
	if err := s.db.WithContext(ctx).First(&tpl, id).Error; err != nil {
		return notFoundOr(err)
	}
	if tpl.IsSystemTemplate {
		return fmt.Errorf("%w: template %d", ErrSystemTemplate, id)
	}

	if err := s.db.WithContext(ctx).Delete(&models.AlarmTemplate{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	s.audit("delete", "alarm_template", id, 0, map[string]interface{}{"name": tpl.Name})
	return nil
}

// SearchTemplates 이름/설명/카테고리 부분 일치 검색
func (s *Service) SearchTemplates(ctx context.Context, query string) ([]models.AlarmTemplate, error) {
	if query == "" {
		return s.ListTemplates(ctx, TemplateQuery{})
	}

	pattern := "%" + query + "%"
	var tpls []models.AlarmTemplate
	err := s.db.WithContext(ctx).
		Where("name LIKE ? OR description LIKE ? OR category LIKE ?", pattern, pattern, pattern).
		Order("usage_count DESC, name ASC").
		Find(&tpls).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search templates: %w", err)
	}
	return tpls, nil
}

// MostUsedTemplates 사용 횟수 상위 n건 (기본 5)
func (s *Service) MostUsedTemplates(ctx context.Context, limit int) ([]models.AlarmTemplate, error) {
	if limit <= 0 {
		limit = 5
	}
	var tpls []models.AlarmTemplate
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("usage_count DESC, name ASC").
		Limit(limit).
		Find(&tpls).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list most used templates: %w", err)
	}
	return tpls, nil
}

// TemplateStats 템플릿 통계
type TemplateStats struct {
	Total      int64            `json:"total"`
	Active     int64            `json:"active"`
	System     int64            `json:"system"`
	TotalUsage int64            `json:"total_usage"`
	ByCategory map[string]int64 `json:"by_category"`
}

func (s *Service) TemplateStatistics(ctx context.Context) (*TemplateStats, error) {
	stats := &TemplateStats{ByCategory: map[string]int64{}}

	if err := s.db.WithContext(ctx).Model(&models.AlarmTemplate{}).
		Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count templates: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.AlarmTemplate{}).
		Where("is_active = ?", true).
		Count(&stats.Active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active templates: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.AlarmTemplate{}).
		Where("is_system_template = ?", true).
		Count(&stats.System).Error; err != nil {
		return nil, fmt.Errorf("failed to count system templates: %w", err)
	}

	var totalUsage struct{ Sum int64 }
	if err := s.db.WithContext(ctx).Model(&models.AlarmTemplate{}).
		Select("COALESCE(SUM(usage_count), 0) AS sum").
		Scan(&totalUsage).Error; err != nil {
		return nil, fmt.Errorf("failed to sum template usage: %w", err)
	}
	stats.TotalUsage = totalUsage.Sum

	byCategory, err := s.groupCount(ctx, &models.AlarmTemplate{}, "category", "")
	if err != nil {
		return nil, err
	}
	stats.ByCategory = byCategory

	return stats, nil
}

// ApplyRequest 템플릿 일괄 적용 요청
type ApplyRequest struct {
	TargetIDs     []uint                     `json:"target_ids"`
	TargetType    string                     `json:"target_type"`
	CustomConfigs map[string]json.RawMessage `json:"custom_configs"` // key: target id 문자열
	RuleGroupName string                     `json:"rule_group_name"`
	Actor         uint                       `json:"-"`
}

// ApplyResult 적용 결과. 일부 대상 실패는 전체를 막지 않는다.
type ApplyResult struct {
	TemplateID   uint               `json:"template_id"`
	CreatedRules []models.AlarmRule `json:"created_rules"`
	Failed       []uint             `json:"failed,omitempty"`
}

// ApplyTemplate 템플릿을 대상 목록에 적용해 규칙을 일괄 생성.
// 대상별 custom_configs가 default_config 위에 키 단위로 덮어쓴다.
func (s *Service) ApplyTemplate(ctx context.Context, templateID uint, req ApplyRequest) (*ApplyResult, error) {
	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !tpl.IsActive {
		return nil, fmt.Errorf("%w: template %q is inactive", ErrValidation, tpl.Name)
	}
	if len(req.TargetIDs) == 0 {
		return nil, fmt.Errorf("%w: target_ids is required", ErrValidation)
	}

	alarmType, ok := conditionToAlarmType[tpl.ConditionType]
	if !ok {
		return nil, fmt.Errorf("%w: template has unknown condition_type %q", ErrValidation, tpl.ConditionType)
	}

	targetType := req.TargetType
	if targetType == "" {
		targetType = models.TargetDataPoint
	}
	if !models.ValidTargetType(targetType) {
		return nil, fmt.Errorf("%w: invalid target_type %q", ErrValidation, targetType)
	}

	prefix := req.RuleGroupName
	if prefix == "" {
		prefix = tpl.Name
	}

	baseConfig := map[string]interface{}{}
	if tpl.DefaultConfig != "" {
		if err := json.Unmarshal([]byte(tpl.DefaultConfig), &baseConfig); err != nil {
			return nil, fmt.Errorf("%w: template default_config is not valid JSON: %v", ErrValidation, err)
		}
	}

	result := &ApplyResult{TemplateID: tpl.ID, CreatedRules: []models.AlarmRule{}}

	for _, targetID := range req.TargetIDs {
		config := mergeConfig(baseConfig, req.CustomConfigs[strconv.FormatUint(uint64(targetID), 10)])

		rule := buildRuleFromTemplate(tpl, alarmType, targetType, targetID, prefix, config)
		rule.CreatedBy = req.Actor

		if err := s.CreateRule(ctx, rule); err != nil {
			s.logger.Warn("failed to apply template to target",
				zap.Uint("template_id", tpl.ID),
				zap.Uint("target_id", targetID),
				zap.Error(err))
			result.Failed = append(result.Failed, targetID)
			continue
		}
		result.CreatedRules = append(result.CreatedRules, *rule)
	}

	if created := len(result.CreatedRules); created > 0 {
		if err := s.db.WithContext(ctx).Model(tpl).
			Update("usage_count", tpl.UsageCount+created).Error; err != nil {
			s.logger.Warn("failed to bump template usage count",
				zap.Uint("template_id", tpl.ID),
				zap.Error(err))
		}
	}

	s.audit("apply", "alarm_template", tpl.ID, req.Actor, map[string]interface{}{
		"created": len(result.CreatedRules),
		"failed":  len(result.Failed),
	})

	return result, nil
}

// mergeConfig custom을 base 위에 키 단위로 덮어쓴 새 맵을 만든다
func mergeConfig(base map[string]interface{}, custom json.RawMessage) map[string]interface{} {
	merged := make(map[string]interface{}, len(base))
	for k, v := range base {
		merged[k] = v
	}
	if len(custom) == 0 {
		return merged
	}
	var overrides map[string]interface{}
	if err := json.Unmarshal(custom, &overrides); err != nil {
		return merged
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

func buildRuleFromTemplate(tpl *models.AlarmTemplate, alarmType, targetType string, targetID uint, prefix string, config map[string]interface{}) *models.AlarmRule {
	id := targetID
	rule := &models.AlarmRule{
		Name:                fmt.Sprintf("%s - %s #%d", prefix, targetType, targetID),
		Description:         tpl.Description,
		TargetType:          targetType,
		TargetID:            &id,
		AlarmType:           alarmType,
		Severity:            tpl.Severity,
		MessageTemplate:     tpl.MessageTemplate,
		NotificationEnabled: tpl.NotificationEnabled,
		Category:            tpl.Category,
		Tags:                tpl.Tags,
		IsEnabled:           true,
		TemplateID:          &tpl.ID,
	}

	rule.HighHighLimit = configFloat(config, "high_high_limit")
	rule.HighLimit = configFloat(config, "high_limit")
	rule.LowLimit = configFloat(config, "low_limit")
	rule.LowLowLimit = configFloat(config, "low_low_limit")
	rule.RateOfChange = configFloat(config, "rate_of_change")
	if v := configFloat(config, "deadband"); v != nil {
		rule.Deadband = *v
	}
	if v, ok := config["trigger_condition"].(string); ok {
		rule.TriggerCondition = v
	}
	if v, ok := config["condition_script"].(string); ok {
		rule.ConditionScript = v
	}
	if v, ok := config["message_script"].(string); ok {
		rule.MessageScript = v
	}

	return rule
}

// configFloat JSON 숫자 값 추출 (없거나 숫자가 아니면 nil)
func configFloat(config map[string]interface{}, key string) *float64 {
	raw, ok := config[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		return &v
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return &f
		}
	}
	return nil
}

func validateTemplate(tpl *models.AlarmTemplate) error {
	if tpl.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if tpl.Severity != "" && !models.ValidSeverity(tpl.Severity) {
		return fmt.Errorf("%w: invalid severity %q", ErrValidation, tpl.Severity)
	}
	if tpl.ConditionType != "" {
		if _, ok := conditionToAlarmType[tpl.ConditionType]; !ok {
			return fmt.Errorf("%w: invalid condition_type %q", ErrValidation, tpl.ConditionType)
		}
	}
	return nil
}

func normalizeTemplate(tpl *models.AlarmTemplate) {
	if tpl.Severity == "" {
		tpl.Severity = models.SeverityMedium
	}
	if tpl.ConditionType == "" {
		tpl.ConditionType = "threshold"
	}
	if tpl.DefaultConfig == "" {
		tpl.DefaultConfig = "{}"
	}
	if tpl.ApplicableDataTypes == "" {
		tpl.ApplicableDataTypes = "[]"
	}
	if tpl.ApplicableDeviceTypes == "" {
		tpl.ApplicableDeviceTypes = "[]"
	}
	if tpl.Tags == "" {
		tpl.Tags = "[]"
	}
}
