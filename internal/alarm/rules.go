package alarm

import (
	"context"
	"fmt"

	"pulseone-console/internal/models"
)

// RuleQuery 규칙 목록 서버측 필터
type RuleQuery struct {
	Severity   string
	AlarmType  string
	TargetType string
	Category   string
	Tag        string // 정확히 일치하는 태그 원소
	Search     string
	Enabled    *bool
	Limit      int
	Offset     int
}

// ListRules 필터 적용 규칙 목록 (최신 생성순)
func (s *Service) ListRules(ctx context.Context, q RuleQuery) ([]models.AlarmRule, error) {
	db := s.db.WithContext(ctx).Model(&models.AlarmRule{})

	if q.Severity != "" {
		db = db.Where("severity = ?", q.Severity)
	}
	if q.AlarmType != "" {
		db = db.Where("alarm_type = ?", q.AlarmType)
	}
	if q.TargetType != "" {
		db = db.Where("target_type = ?", q.TargetType)
	}
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	if q.Tag != "" {
		// tags는 JSON 배열 text 컬럼. 따옴표 포함 LIKE로 원소 정확 일치.
		db = db.Where("tags LIKE ?", "%\""+q.Tag+"\"%")
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		db = db.Where("name LIKE ? OR description LIKE ? OR category LIKE ?", pattern, pattern, pattern)
	}
	if q.Enabled != nil {
		db = db.Where("is_enabled = ?", *q.Enabled)
	}

	db = db.Order("created_at DESC, id DESC")
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	var rules []models.AlarmRule
	if err := db.Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to list alarm rules: %w", err)
	}
	return rules, nil
}

func (s *Service) GetRule(ctx context.Context, id uint) (*models.AlarmRule, error) {
	var rule models.AlarmRule
	if err := s.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &rule, nil
}

// CreateRule 검증 후 생성. target_display는 서버가 계산한다.
func (s *Service) CreateRule(ctx context.Context, rule *models.AlarmRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	normalizeRule(rule)

	if err := s.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("failed to create alarm rule: %w", err)
	}

	s.audit("create", "alarm_rule", rule.ID, rule.CreatedBy, map[string]interface{}{"name": rule.Name})
	return nil
}

// UpdateRule 전체 교체 (PUT 의미론). 존재하지 않으면 ErrNotFound.
func (s *Service) UpdateRule(ctx context.Context, id uint, input *models.AlarmRule) (*models.AlarmRule, error) {
	var existing models.AlarmRule
	if err := s.db.WithContext(ctx).First(&existing, id).Error; err != nil {
		return nil, notFoundOr(err)
	}

	if err := validateRule(input); err != nil {
		return nil, err
	}

	input.ID = existing.ID
	input.TenantID = existing.TenantID
	input.CreatedBy = existing.CreatedBy
	input.CreatedAt = existing.CreatedAt
	input.TemplateID = existing.TemplateID
	normalizeRule(input)

	if err := s.db.WithContext(ctx).Save(input).Error; err != nil {
		return nil, fmt.Errorf("failed to update alarm rule: %w", err)
	}

	s.audit("update", "alarm_rule", input.ID, input.CreatedBy, map[string]interface{}{"name": input.Name})
	return input, nil
}

func (s *Service) DeleteRule(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.AlarmRule{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete alarm rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.audit("delete", "alarm_rule", id, 0, nil)
	return nil
}

// BulkRulePatch 일괄 수정에서 바꿀 수 있는 필드 (nil = 미변경)
type BulkRulePatch struct {
	IsEnabled *bool
	Severity  *string
	Category  *string
}

// BulkUpdateRules ids 전체에 패치 적용, 변경된 행 수 반환
func (s *Service) BulkUpdateRules(ctx context.Context, ids []uint, patch BulkRulePatch) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: ids is empty", ErrValidation)
	}

	updates := map[string]interface{}{}
	if patch.IsEnabled != nil {
		updates["is_enabled"] = *patch.IsEnabled
	}
	if patch.Severity != nil {
		if !models.ValidSeverity(*patch.Severity) {
			return 0, fmt.Errorf("%w: invalid severity %q", ErrValidation, *patch.Severity)
		}
		updates["severity"] = *patch.Severity
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if len(updates) == 0 {
		return 0, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	result := s.db.WithContext(ctx).Model(&models.AlarmRule{}).Where("id IN ?", ids).Updates(updates)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to bulk update alarm rules: %w", result.Error)
	}

	s.audit("bulk_update", "alarm_rule", 0, 0, map[string]interface{}{
		"ids":     ids,
		"updated": result.RowsAffected,
	})
	return result.RowsAffected, nil
}

// RuleSettingsPatch 통지/에스컬레이션 부분 수정 (nil = 미변경)
type RuleSettingsPatch struct {
	NotificationEnabled           *bool
	NotificationDelaySec          *int
	NotificationRepeatIntervalMin *int
	NotificationChannels          *string // JSON array text
	NotificationRecipients        *string // JSON array text
	AutoAcknowledge               *bool
	AcknowledgeTimeoutMin         *int
	AutoClear                     *bool
}

// PatchRuleSettings 규칙 본체는 두고 통지 관련 설정만 고친다
func (s *Service) PatchRuleSettings(ctx context.Context, id uint, patch RuleSettingsPatch) (*models.AlarmRule, error) {
	var rule models.AlarmRule
	if err := s.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		return nil, notFoundOr(err)
	}

	if patch.NotificationEnabled != nil {
		rule.NotificationEnabled = *patch.NotificationEnabled
	}
	if patch.NotificationDelaySec != nil {
		rule.NotificationDelaySec = *patch.NotificationDelaySec
	}
	if patch.NotificationRepeatIntervalMin != nil {
		rule.NotificationRepeatIntervalMin = *patch.NotificationRepeatIntervalMin
	}
	if patch.NotificationChannels != nil {
		rule.NotificationChannels = *patch.NotificationChannels
	}
	if patch.NotificationRecipients != nil {
		rule.NotificationRecipients = *patch.NotificationRecipients
	}
	if patch.AutoAcknowledge != nil {
		rule.AutoAcknowledge = *patch.AutoAcknowledge
	}
	if patch.AcknowledgeTimeoutMin != nil {
		rule.AcknowledgeTimeoutMin = *patch.AcknowledgeTimeoutMin
	}
	if patch.AutoClear != nil {
		rule.AutoClear = *patch.AutoClear
	}

	if err := s.db.WithContext(ctx).Save(&rule).Error; err != nil {
		return nil, fmt.Errorf("failed to patch rule settings: %w", err)
	}

	s.audit("patch_settings", "alarm_rule", rule.ID, 0, nil)
	return &rule, nil
}

// RuleStats 규칙 통계
type RuleStats struct {
	Total      int64            `json:"total"`
	Enabled    int64            `json:"enabled"`
	Disabled   int64            `json:"disabled"`
	BySeverity map[string]int64 `json:"by_severity"`
	ByType     map[string]int64 `json:"by_type"`
	ByCategory map[string]int64 `json:"by_category"`
}

func (s *Service) RuleStatistics(ctx context.Context) (*RuleStats, error) {
	stats := &RuleStats{
		BySeverity: map[string]int64{},
		ByType:     map[string]int64{},
		ByCategory: map[string]int64{},
	}

	db := s.db.WithContext(ctx).Model(&models.AlarmRule{})

	if err := db.Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count alarm rules: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.AlarmRule{}).Where("is_enabled = ?", true).Count(&stats.Enabled).Error; err != nil {
		return nil, fmt.Errorf("failed to count enabled rules: %w", err)
	}
	stats.Disabled = stats.Total - stats.Enabled

	bySeverity, err := s.groupCount(ctx, &models.AlarmRule{}, "severity", "")
	if err != nil {
		return nil, err
	}
	stats.BySeverity = bySeverity

	byType, err := s.groupCount(ctx, &models.AlarmRule{}, "alarm_type", "")
	if err != nil {
		return nil, err
	}
	stats.ByType = byType

	byCategory, err := s.groupCount(ctx, &models.AlarmRule{}, "category", "category <> ''")
	if err != nil {
		return nil, err
	}
	stats.ByCategory = byCategory

	return stats, nil
}

// groupCount GROUP BY 집계 공용
func (s *Service) groupCount(ctx context.Context, model interface{}, column, cond string) (map[string]int64, error) {
	type row struct {
		Key   string
		Count int64
	}

	db := s.db.WithContext(ctx).Model(model).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column)
	if cond != "" {
		db = db.Where(cond)
	}

	var rows []row
	if err := db.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to group by %s: %w", column, err)
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Count
	}
	return out, nil
}

// validateRule 생성/수정 공통 검증
func validateRule(rule *models.AlarmRule) error {
	if rule.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !models.ValidTargetType(rule.TargetType) {
		return fmt.Errorf("%w: invalid target_type %q", ErrValidation, rule.TargetType)
	}
	if !models.ValidAlarmType(rule.AlarmType) {
		return fmt.Errorf("%w: invalid alarm_type %q", ErrValidation, rule.AlarmType)
	}
	if rule.Severity != "" && !models.ValidSeverity(rule.Severity) {
		return fmt.Errorf("%w: invalid severity %q", ErrValidation, rule.Severity)
	}

	// 대상 바인딩은 target_id 또는 target_group 중 정확히 하나
	hasID := rule.TargetID != nil
	hasGroup := rule.TargetGroup != ""
	if hasID == hasGroup {
		return fmt.Errorf("%w: exactly one of target_id and target_group must be set", ErrValidation)
	}

	switch rule.AlarmType {
	case models.AlarmTypeAnalog:
		if err := validateThresholdOrder(rule); err != nil {
			return err
		}
		if rule.Deadband < 0 {
			return fmt.Errorf("%w: deadband cannot be negative", ErrValidation)
		}
	case models.AlarmTypeDigital:
		if rule.TriggerCondition != "" && !validTrigger(rule.TriggerCondition) {
			return fmt.Errorf("%w: invalid trigger_condition %q", ErrValidation, rule.TriggerCondition)
		}
	case models.AlarmTypeScript:
		if rule.ConditionScript == "" {
			return fmt.Errorf("%w: condition_script is required for script rules", ErrValidation)
		}
	}

	return nil
}

// validateThresholdOrder 존재하는 임계값끼리 low_low ≤ low ≤ high ≤ high_high
func validateThresholdOrder(rule *models.AlarmRule) error {
	ordered := []struct {
		name  string
		value *float64
	}{
		{"low_low_limit", rule.LowLowLimit},
		{"low_limit", rule.LowLimit},
		{"high_limit", rule.HighLimit},
		{"high_high_limit", rule.HighHighLimit},
	}

	var prevName string
	var prevValue *float64
	for _, t := range ordered {
		if t.value == nil {
			continue
		}
		if prevValue != nil && *prevValue > *t.value {
			return fmt.Errorf("%w: %s (%v) must not exceed %s (%v)",
				ErrValidation, prevName, *prevValue, t.name, *t.value)
		}
		prevName, prevValue = t.name, t.value
	}
	return nil
}

func validTrigger(t string) bool {
	switch t {
	case models.TriggerOnTrue, models.TriggerOnFalse, models.TriggerOnChange,
		models.TriggerOnRising, models.TriggerOnFalling:
		return true
	}
	return false
}

// normalizeRule 기본값과 서버 계산 필드 채움
func normalizeRule(rule *models.AlarmRule) {
	if rule.Severity == "" {
		rule.Severity = models.SeverityMedium
	}
	if rule.Priority == 0 {
		rule.Priority = 100
	}
	if rule.AlarmType == models.AlarmTypeDigital && rule.TriggerCondition == "" {
		rule.TriggerCondition = models.TriggerOnTrue
	}
	if rule.Tags == "" {
		rule.Tags = "[]"
	}
	if rule.NotificationChannels == "" {
		rule.NotificationChannels = "[]"
	}
	if rule.NotificationRecipients == "" {
		rule.NotificationRecipients = "[]"
	}
	rule.TargetDisplay = computeTargetDisplay(rule)
}

// computeTargetDisplay 콘솔 목록용 대상 라벨.
// 디바이스 메타데이터는 수집기 소관이라 여기서는 타입+ID 수준까지만 만든다.
func computeTargetDisplay(rule *models.AlarmRule) string {
	if rule.TargetID != nil {
		return fmt.Sprintf("%s #%d", rule.TargetType, *rule.TargetID)
	}
	if rule.TargetGroup != "" {
		return rule.TargetGroup
	}
	return rule.TargetType
}
