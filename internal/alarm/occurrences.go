package alarm

import (
	"context"
	"fmt"
	"time"

	"pulseone-console/internal/models"
)

// 이벤트 타입 (EventSink로 발행)
const (
	EventTriggered    = "triggered"
	EventAcknowledged = "acknowledged"
	EventCleared      = "cleared"
)

// Trigger 알람 발생 기록 생성.
// 규칙의 표시 필드를 denormalize하고 triggered 이벤트/통지/인덱싱을 수행한다.
func (s *Service) Trigger(ctx context.Context, occ *models.AlarmOccurrence) error {
	var rule *models.AlarmRule
	if occ.RuleID != 0 {
		r, err := s.GetRule(ctx, occ.RuleID)
		if err != nil {
			return fmt.Errorf("failed to load rule %d for occurrence: %w", occ.RuleID, err)
		}
		rule = r
	}

	occ.State = models.StateActive
	if occ.OccurrenceTime.IsZero() {
		occ.OccurrenceTime = time.Now()
	}

	if rule != nil {
		if occ.RuleName == "" {
			occ.RuleName = rule.Name
		}
		if occ.Severity == "" {
			occ.Severity = rule.Severity
		}
		if occ.Category == "" {
			occ.Category = rule.Category
		}
		if occ.Tags == "" {
			occ.Tags = rule.Tags
		}
	}
	if occ.Severity == "" {
		occ.Severity = models.SeverityMedium
	}
	if occ.Tags == "" {
		occ.Tags = "[]"
	}

	if err := s.db.WithContext(ctx).Create(occ).Error; err != nil {
		return fmt.Errorf("failed to create alarm occurrence: %w", err)
	}

	s.publish(ctx, EventTriggered, occ)
	s.index(ctx, occ)

	if rule != nil && rule.NotificationEnabled && s.notifier != nil {
		s.notifier.NotifyTriggered(ctx, rule, occ)
	}

	return nil
}

// Acknowledge active 상태의 발생을 확인 처리.
// 이미 확인됐거나 해제된 발생은 ErrInvalidState.
func (s *Service) Acknowledge(ctx context.Context, id uint, by uint, comment string) (*models.AlarmOccurrence, error) {
	var occ models.AlarmOccurrence
	if err := s.db.WithContext(ctx).First(&occ, id).Error; err != nil {
		return nil, notFoundOr(err)
	}

	switch occ.State {
	case models.StateCleared:
		return nil, fmt.Errorf("%w: occurrence %d already cleared", ErrInvalidState, id)
	case models.StateAcknowledged:
		return nil, fmt.Errorf("%w: occurrence %d already acknowledged", ErrInvalidState, id)
	}

	now := time.Now()
	occ.State = models.StateAcknowledged
	occ.AcknowledgedTime = &now
	occ.AcknowledgedBy = &by
	occ.AcknowledgeComment = comment

	if err := s.db.WithContext(ctx).Save(&occ).Error; err != nil {
		return nil, fmt.Errorf("failed to acknowledge occurrence: %w", err)
	}

	s.publish(ctx, EventAcknowledged, &occ)
	s.index(ctx, &occ)
	s.audit("acknowledge", "alarm_occurrence", occ.ID, by, map[string]interface{}{"comment": comment})

	return &occ, nil
}

// Clear 발생 해제. acknowledge를 건너뛰고 active에서 바로 해제해도 된다.
// 이미 해제된 발생은 ErrInvalidState.
func (s *Service) Clear(ctx context.Context, id uint, clearedValue, comment string) (*models.AlarmOccurrence, error) {
	var occ models.AlarmOccurrence
	if err := s.db.WithContext(ctx).First(&occ, id).Error; err != nil {
		return nil, notFoundOr(err)
	}

	if occ.State == models.StateCleared {
		return nil, fmt.Errorf("%w: occurrence %d already cleared", ErrInvalidState, id)
	}

	now := time.Now()
	occ.State = models.StateCleared
	occ.ClearedTime = &now
	occ.ClearedValue = clearedValue
	occ.ClearComment = comment

	if err := s.db.WithContext(ctx).Save(&occ).Error; err != nil {
		return nil, fmt.Errorf("failed to clear occurrence: %w", err)
	}

	s.publish(ctx, EventCleared, &occ)
	s.index(ctx, &occ)
	s.audit("clear", "alarm_occurrence", occ.ID, 0, map[string]interface{}{"comment": comment})

	return &occ, nil
}

func (s *Service) GetOccurrence(ctx context.Context, id uint) (*models.AlarmOccurrence, error) {
	var occ models.AlarmOccurrence
	if err := s.db.WithContext(ctx).First(&occ, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &occ, nil
}

// OccurrencesByIDs 주어진 ID 목록의 발생을 입력 순서 그대로 돌려준다.
// 검색 인덱스가 찾은 ID를 DB 본문으로 복원하는 용도.
func (s *Service) OccurrencesByIDs(ctx context.Context, ids []uint) ([]models.AlarmOccurrence, error) {
	if len(ids) == 0 {
		return []models.AlarmOccurrence{}, nil
	}

	var occs []models.AlarmOccurrence
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&occs).Error; err != nil {
		return nil, fmt.Errorf("failed to load occurrences by ids: %w", err)
	}

	byID := make(map[uint]models.AlarmOccurrence, len(occs))
	for _, occ := range occs {
		byID[occ.ID] = occ
	}

	ordered := make([]models.AlarmOccurrence, 0, len(ids))
	for _, id := range ids {
		if occ, ok := byID[id]; ok {
			ordered = append(ordered, occ)
		}
	}
	return ordered, nil
}

// ListActive 해제되지 않은 발생 (active + acknowledged), 최신 발생순
func (s *Service) ListActive(ctx context.Context) ([]models.AlarmOccurrence, error) {
	var occs []models.AlarmOccurrence
	err := s.db.WithContext(ctx).
		Where("state <> ?", models.StateCleared).
		Order("occurrence_time DESC, id DESC").
		Find(&occs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active occurrences: %w", err)
	}
	return occs, nil
}

// ListUnacknowledged 확인되지 않은 active 발생
func (s *Service) ListUnacknowledged(ctx context.Context) ([]models.AlarmOccurrence, error) {
	var occs []models.AlarmOccurrence
	err := s.db.WithContext(ctx).
		Where("state = ?", models.StateActive).
		Order("occurrence_time DESC, id DESC").
		Find(&occs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unacknowledged occurrences: %w", err)
	}
	return occs, nil
}

// ListRecent 최근 발생 n건 (기본 10)
func (s *Service) ListRecent(ctx context.Context, limit int) ([]models.AlarmOccurrence, error) {
	if limit <= 0 {
		limit = 10
	}
	var occs []models.AlarmOccurrence
	err := s.db.WithContext(ctx).
		Order("occurrence_time DESC, id DESC").
		Limit(limit).
		Find(&occs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent occurrences: %w", err)
	}
	return occs, nil
}

// ListByDevice 디바이스 기준 발생 이력
func (s *Service) ListByDevice(ctx context.Context, deviceID string) ([]models.AlarmOccurrence, error) {
	var occs []models.AlarmOccurrence
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("occurrence_time DESC, id DESC").
		Find(&occs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences by device: %w", err)
	}
	return occs, nil
}

// ListOccurrencesByCategory 카테고리 기준
func (s *Service) ListOccurrencesByCategory(ctx context.Context, category string) ([]models.AlarmOccurrence, error) {
	var occs []models.AlarmOccurrence
	err := s.db.WithContext(ctx).
		Where("category = ?", category).
		Order("occurrence_time DESC, id DESC").
		Find(&occs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences by category: %w", err)
	}
	return occs, nil
}

// ListOccurrencesByTag 태그 원소 정확 일치 기준
func (s *Service) ListOccurrencesByTag(ctx context.Context, tag string) ([]models.AlarmOccurrence, error) {
	var occs []models.AlarmOccurrence
	err := s.db.WithContext(ctx).
		Where("tags LIKE ?", "%\""+tag+"\"%").
		Order("occurrence_time DESC, id DESC").
		Find(&occs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences by tag: %w", err)
	}
	return occs, nil
}

// HistoryQuery 이력 조회 조건
type HistoryQuery struct {
	RuleID   uint
	DeviceID string
	Severity string
	State    string
	Category string
	Tag      string
	Search   string
	From     *time.Time
	To       *time.Time
	SortBy   string
	SortDir  string
	Limit    int
	Offset   int
}

// 정렬 키 화이트리스트 (SQL 주입 방지)
var historySortColumns = map[string]string{
	"occurrence_time": "occurrence_time",
	"severity":        "severity",
	"rule_name":       "rule_name",
	"state":           "state",
	"category":        "category",
}

// History DB 기반 이력 조회 (ES 비활성 시의 기본 경로)
func (s *Service) History(ctx context.Context, q HistoryQuery) ([]models.AlarmOccurrence, error) {
	db := s.db.WithContext(ctx).Model(&models.AlarmOccurrence{})

	if q.RuleID > 0 {
		db = db.Where("rule_id = ?", q.RuleID)
	}
	if q.DeviceID != "" {
		db = db.Where("device_id = ?", q.DeviceID)
	}
	if q.Severity != "" {
		db = db.Where("severity = ?", q.Severity)
	}
	if q.State != "" {
		db = db.Where("state = ?", q.State)
	}
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	if q.Tag != "" {
		db = db.Where("tags LIKE ?", "%\""+q.Tag+"\"%")
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		db = db.Where("rule_name LIKE ? OR alarm_message LIKE ? OR device_name LIKE ?", pattern, pattern, pattern)
	}
	if q.From != nil {
		db = db.Where("occurrence_time >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("occurrence_time <= ?", *q.To)
	}

	column, ok := historySortColumns[q.SortBy]
	if !ok {
		column = "occurrence_time"
	}
	dir := "DESC"
	if q.SortDir == "ASC" || q.SortDir == "asc" {
		dir = "ASC"
	}
	db = db.Order(column + " " + dir).Order("id DESC")

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	db = db.Limit(limit)
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	var occs []models.AlarmOccurrence
	if err := db.Find(&occs).Error; err != nil {
		return nil, fmt.Errorf("failed to query occurrence history: %w", err)
	}
	return occs, nil
}

// OccurrenceStats 발생 통계
type OccurrenceStats struct {
	Active         int64            `json:"active"`
	Unacknowledged int64            `json:"unacknowledged"`
	ClearedToday   int64            `json:"cleared_today"`
	TotalToday     int64            `json:"total_today"`
	BySeverity     map[string]int64 `json:"by_severity"`
}

func (s *Service) OccurrenceStatistics(ctx context.Context) (*OccurrenceStats, error) {
	stats := &OccurrenceStats{BySeverity: map[string]int64{}}

	if err := s.db.WithContext(ctx).Model(&models.AlarmOccurrence{}).
		Where("state <> ?", models.StateCleared).
		Count(&stats.Active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active occurrences: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.AlarmOccurrence{}).
		Where("state = ?", models.StateActive).
		Count(&stats.Unacknowledged).Error; err != nil {
		return nil, fmt.Errorf("failed to count unacknowledged occurrences: %w", err)
	}

	startOfDay := time.Now().Truncate(24 * time.Hour)

	if err := s.db.WithContext(ctx).Model(&models.AlarmOccurrence{}).
		Where("state = ? AND cleared_time >= ?", models.StateCleared, startOfDay).
		Count(&stats.ClearedToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count cleared occurrences: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.AlarmOccurrence{}).
		Where("occurrence_time >= ?", startOfDay).
		Count(&stats.TotalToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count today's occurrences: %w", err)
	}

	bySeverity, err := s.groupCount(ctx, &models.AlarmOccurrence{}, "severity", "state <> 'cleared'")
	if err != nil {
		return nil, err
	}
	stats.BySeverity = bySeverity

	return stats, nil
}

// CreateTestOccurrence 콘솔 점검용 가상 알람 생성.
// 활성 규칙이 있으면 그 규칙으로, 없으면 규칙 없는 단독 발생으로 만든다.
func (s *Service) CreateTestOccurrence(ctx context.Context) (*models.AlarmOccurrence, error) {
	occ := &models.AlarmOccurrence{
		TriggerValue: "42.5",
		AlarmMessage: "테스트 알람입니다",
		SourceName:   "console-test",
		Category:     "general",
		Tags:         `["test"]`,
	}

	var rule models.AlarmRule
	err := s.db.WithContext(ctx).Where("is_enabled = ?", true).First(&rule).Error
	if err == nil {
		occ.RuleID = rule.ID
	} else {
		occ.RuleName = "테스트 알람"
		occ.Severity = models.SeverityMedium
	}

	if err := s.Trigger(ctx, occ); err != nil {
		return nil, err
	}
	return occ, nil
}
