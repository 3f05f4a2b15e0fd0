package alarm

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulseone-console/internal/models"
)

type recordingNotifier struct {
	mu    sync.Mutex
	rules []uint
}

func (r *recordingNotifier) NotifyTriggered(_ context.Context, rule *models.AlarmRule, _ *models.AlarmOccurrence) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule.ID)
}

func seedEnabledRule(t *testing.T, svc *Service) *models.AlarmRule {
	t.Helper()
	rule := &models.AlarmRule{
		Name:                "Boiler temp",
		TargetType:          models.TargetDataPoint,
		TargetID:            uintp(1),
		AlarmType:           models.AlarmTypeAnalog,
		Severity:            models.SeverityHigh,
		Category:            "temperature",
		Tags:                `["boiler"]`,
		IsEnabled:           true,
		NotificationEnabled: true,
	}
	require.NoError(t, svc.CreateRule(context.Background(), rule))
	return rule
}

func TestService_Trigger_DenormalizesFromRule(t *testing.T) {
	sink := &recordingSink{}
	notifier := &recordingNotifier{}
	svc := newTestService(t, WithEventSink(sink), WithNotifier(notifier))
	ctx := context.Background()

	rule := seedEnabledRule(t, svc)

	occ := &models.AlarmOccurrence{
		RuleID:       rule.ID,
		TriggerValue: "91.2",
		AlarmMessage: "temperature over limit",
	}
	require.NoError(t, svc.Trigger(ctx, occ))
	require.NotZero(t, occ.ID)

	assert.Equal(t, models.StateActive, occ.State)
	assert.False(t, occ.OccurrenceTime.IsZero())
	assert.Equal(t, "Boiler temp", occ.RuleName)
	assert.Equal(t, models.SeverityHigh, occ.Severity)
	assert.Equal(t, "temperature", occ.Category)
	assert.Equal(t, `["boiler"]`, occ.Tags)

	assert.Equal(t, []string{eventKey(EventTriggered, occ.ID)}, sink.all())
	assert.Equal(t, []uint{rule.ID}, notifier.rules)
}

func TestService_Trigger_KeepsExplicitFields(t *testing.T) {
	svc := newTestService(t)
	rule := seedEnabledRule(t, svc)

	at := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)
	occ := &models.AlarmOccurrence{
		RuleID:         rule.ID,
		RuleName:       "override name",
		Severity:       models.SeverityCritical,
		OccurrenceTime: at,
	}
	require.NoError(t, svc.Trigger(context.Background(), occ))

	assert.Equal(t, "override name", occ.RuleName)
	assert.Equal(t, models.SeverityCritical, occ.Severity)
	assert.True(t, occ.OccurrenceTime.Equal(at))
}

func TestService_Trigger_UnknownRule(t *testing.T) {
	svc := newTestService(t)

	err := svc.Trigger(context.Background(), &models.AlarmOccurrence{RuleID: 777})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Trigger_StandaloneDefaults(t *testing.T) {
	svc := newTestService(t)

	occ := &models.AlarmOccurrence{AlarmMessage: "manual alarm"}
	require.NoError(t, svc.Trigger(context.Background(), occ))

	assert.Equal(t, models.SeverityMedium, occ.Severity)
	assert.Equal(t, "[]", occ.Tags)
	assert.Equal(t, models.StateActive, occ.State)
}

func TestService_Acknowledge_Lifecycle(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestService(t, WithEventSink(sink), WithAuditDir(t.TempDir()))
	ctx := context.Background()

	rule := seedEnabledRule(t, svc)
	occ := &models.AlarmOccurrence{RuleID: rule.ID}
	require.NoError(t, svc.Trigger(ctx, occ))

	acked, err := svc.Acknowledge(ctx, occ.ID, 7, "checking on site")
	require.NoError(t, err)

	assert.Equal(t, models.StateAcknowledged, acked.State)
	require.NotNil(t, acked.AcknowledgedBy)
	assert.Equal(t, uint(7), *acked.AcknowledgedBy)
	assert.NotNil(t, acked.AcknowledgedTime)
	assert.Equal(t, "checking on site", acked.AcknowledgeComment)

	// 두 번째 확인은 거부
	_, err = svc.Acknowledge(ctx, occ.ID, 7, "again")
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.Contains(t, sink.all(), eventKey(EventAcknowledged, occ.ID))
}

func TestService_Acknowledge_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Acknowledge(context.Background(), 12345, 1, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Clear_SkipsAcknowledge(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestService(t, WithEventSink(sink))
	ctx := context.Background()

	rule := seedEnabledRule(t, svc)
	occ := &models.AlarmOccurrence{RuleID: rule.ID}
	require.NoError(t, svc.Trigger(ctx, occ))

	// active에서 바로 해제할 수 있다
	cleared, err := svc.Clear(ctx, occ.ID, "42.0", "back to normal")
	require.NoError(t, err)

	assert.Equal(t, models.StateCleared, cleared.State)
	assert.NotNil(t, cleared.ClearedTime)
	assert.Equal(t, "42.0", cleared.ClearedValue)
	assert.Equal(t, "back to normal", cleared.ClearComment)

	// 해제된 발생은 다시 해제도, 확인도 안 된다
	_, err = svc.Clear(ctx, occ.ID, "", "")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = svc.Acknowledge(ctx, occ.ID, 1, "")
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.Contains(t, sink.all(), eventKey(EventCleared, occ.ID))
}

func TestService_Clear_AfterAcknowledge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rule := seedEnabledRule(t, svc)
	occ := &models.AlarmOccurrence{RuleID: rule.ID}
	require.NoError(t, svc.Trigger(ctx, occ))

	_, err := svc.Acknowledge(ctx, occ.ID, 2, "")
	require.NoError(t, err)

	cleared, err := svc.Clear(ctx, occ.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.StateCleared, cleared.State)

	// 확인 이력은 해제 후에도 남는다
	require.NotNil(t, cleared.AcknowledgedBy)
	assert.Equal(t, uint(2), *cleared.AcknowledgedBy)
}

func TestService_OccurrencesByIDs_PreservesOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	rule := seedEnabledRule(t, svc)

	ids := make([]uint, 0, 3)
	for i := 0; i < 3; i++ {
		occ := &models.AlarmOccurrence{RuleID: rule.ID}
		require.NoError(t, svc.Trigger(ctx, occ))
		ids = append(ids, occ.ID)
	}

	got, err := svc.OccurrencesByIDs(ctx, []uint{ids[2], ids[0], 9999})
	require.NoError(t, err)
	require.Len(t, got, 2, "missing ids are skipped")
	assert.Equal(t, ids[2], got[0].ID)
	assert.Equal(t, ids[0], got[1].ID)

	empty, err := svc.OccurrencesByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// seedOccurrences 상태/시각이 다른 발생 3건을 만든다:
// active(오늘), acknowledged(어제), cleared(오늘 해제)
func seedOccurrences(t *testing.T, svc *Service) (*models.AlarmRule, []*models.AlarmOccurrence) {
	t.Helper()
	ctx := context.Background()
	rule := seedEnabledRule(t, svc)

	now := time.Now()
	occs := []*models.AlarmOccurrence{
		{RuleID: rule.ID, DeviceID: "dev-01", DeviceName: "Boiler A", OccurrenceTime: now.Add(-10 * time.Minute)},
		{RuleID: rule.ID, DeviceID: "dev-02", DeviceName: "Pump B", OccurrenceTime: now.Add(-24 * time.Hour), Severity: models.SeverityLow},
		{RuleID: rule.ID, DeviceID: "dev-01", DeviceName: "Boiler A", OccurrenceTime: now.Add(-5 * time.Minute)},
	}
	for _, occ := range occs {
		require.NoError(t, svc.Trigger(ctx, occ))
	}

	_, err := svc.Acknowledge(ctx, occs[1].ID, 3, "")
	require.NoError(t, err)
	_, err = svc.Clear(ctx, occs[2].ID, "", "")
	require.NoError(t, err)

	return rule, occs
}

func TestService_ListActive_ExcludesCleared(t *testing.T) {
	svc := newTestService(t)
	_, occs := seedOccurrences(t, svc)

	got, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	// 최신 발생이 앞
	assert.Equal(t, occs[0].ID, got[0].ID)
	assert.Equal(t, occs[1].ID, got[1].ID)
}

func TestService_ListUnacknowledged(t *testing.T) {
	svc := newTestService(t)
	_, occs := seedOccurrences(t, svc)

	got, err := svc.ListUnacknowledged(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, occs[0].ID, got[0].ID)
}

func TestService_ListRecent_Limit(t *testing.T) {
	svc := newTestService(t)
	seedOccurrences(t, svc)

	got, err := svc.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	all, err := svc.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 3, "limit 0 falls back to default")
}

func TestService_ListByDevice(t *testing.T) {
	svc := newTestService(t)
	seedOccurrences(t, svc)

	got, err := svc.ListByDevice(context.Background(), "dev-01")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestService_History_Filters(t *testing.T) {
	svc := newTestService(t)
	_, occs := seedOccurrences(t, svc)
	ctx := context.Background()

	// 상태 필터
	got, err := svc.History(ctx, HistoryQuery{State: models.StateCleared})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, occs[2].ID, got[0].ID)

	// 심각도 필터 (발생 시 denormalize된 값)
	got, err = svc.History(ctx, HistoryQuery{Severity: models.SeverityLow})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, occs[1].ID, got[0].ID)

	// 검색 (rule_name/alarm_message/device_name)
	got, err = svc.History(ctx, HistoryQuery{Search: "Pump"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, occs[1].ID, got[0].ID)

	// 시간 창
	from := time.Now().Add(-time.Hour)
	got, err = svc.History(ctx, HistoryQuery{From: &from})
	require.NoError(t, err)
	assert.Len(t, got, 2, "yesterday's occurrence is outside the window")

	to := time.Now().Add(-12 * time.Hour)
	got, err = svc.History(ctx, HistoryQuery{To: &to})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, occs[1].ID, got[0].ID)
}

func TestService_History_SortAndLimit(t *testing.T) {
	svc := newTestService(t)
	_, occs := seedOccurrences(t, svc)
	ctx := context.Background()

	// 기본은 occurrence_time DESC
	got, err := svc.History(ctx, HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, occs[2].ID, got[0].ID)

	// ASC 정렬
	got, err = svc.History(ctx, HistoryQuery{SortBy: "occurrence_time", SortDir: "ASC"})
	require.NoError(t, err)
	assert.Equal(t, occs[1].ID, got[0].ID)

	// 화이트리스트에 없는 정렬 키는 기본 키로 대체된다
	got, err = svc.History(ctx, HistoryQuery{SortBy: "id; DROP TABLE alarm_occurrences"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, occs[2].ID, got[0].ID)

	got, err = svc.History(ctx, HistoryQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, occs[0].ID, got[0].ID)
}

func TestService_OccurrenceStatistics(t *testing.T) {
	svc := newTestService(t)
	seedOccurrences(t, svc)

	stats, err := svc.OccurrenceStatistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Active, "active + acknowledged")
	assert.Equal(t, int64(1), stats.Unacknowledged)
	assert.Equal(t, int64(1), stats.ClearedToday)
	assert.Equal(t, int64(2), stats.TotalToday)

	// BySeverity는 해제되지 않은 발생만 센다
	assert.Equal(t, int64(1), stats.BySeverity[models.SeverityHigh])
	assert.Equal(t, int64(1), stats.BySeverity[models.SeverityLow])
}

func TestService_CreateTestOccurrence(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// 활성 규칙이 없으면 단독 발생
	occ, err := svc.CreateTestOccurrence(ctx)
	require.NoError(t, err)
	assert.Zero(t, occ.RuleID)
	assert.Equal(t, models.SeverityMedium, occ.Severity)
	assert.Equal(t, models.StateActive, occ.State)

	// 활성 규칙이 있으면 그 규칙에 연결된다
	rule := seedEnabledRule(t, svc)
	occ, err = svc.CreateTestOccurrence(ctx)
	require.NoError(t, err)
	assert.Equal(t, rule.ID, occ.RuleID)
	assert.Equal(t, rule.Name, occ.RuleName)
}

func eventKey(eventType string, id uint) string {
	return fmt.Sprintf("%s:%d", eventType, id)
}
