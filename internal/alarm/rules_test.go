package alarm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulseone-console/internal/models"
)

func validAnalogRule() *models.AlarmRule {
	return &models.AlarmRule{
		Name:       "Boiler outlet temp",
		TargetType: models.TargetDataPoint,
		TargetID:   uintp(12),
		AlarmType:  models.AlarmTypeAnalog,
		HighLimit:  floatp(80),
		LowLimit:   floatp(20),
	}
}

func TestService_CreateRule_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.AlarmRule)
	}{
		{"missing name", func(r *models.AlarmRule) { r.Name = "" }},
		{"invalid target type", func(r *models.AlarmRule) { r.TargetType = "gateway" }},
		{"invalid alarm type", func(r *models.AlarmRule) { r.AlarmType = "fuzzy" }},
		{"invalid severity", func(r *models.AlarmRule) { r.Severity = "urgent" }},
		{"both target bindings", func(r *models.AlarmRule) { r.TargetGroup = "boilers" }},
		{"no target binding", func(r *models.AlarmRule) { r.TargetID = nil }},
		{"threshold order violated", func(r *models.AlarmRule) {
			r.LowLimit = floatp(90)
			r.HighLimit = floatp(10)
		}},
		{"high_high below high", func(r *models.AlarmRule) {
			r.HighHighLimit = floatp(50)
			r.HighLimit = floatp(80)
		}},
		{"negative deadband", func(r *models.AlarmRule) { r.Deadband = -1 }},
		{"digital bad trigger", func(r *models.AlarmRule) {
			r.AlarmType = models.AlarmTypeDigital
			r.TriggerCondition = "on_blue_moon"
		}},
		{"script without body", func(r *models.AlarmRule) {
			r.AlarmType = models.AlarmTypeScript
			r.ConditionScript = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validAnalogRule()
			tt.mutate(rule)

			err := svc.CreateRule(ctx, rule)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	var count int64
	svc.db.Model(&models.AlarmRule{}).Count(&count)
	assert.Zero(t, count, "invalid rules must not be persisted")
}

func TestService_CreateRule_NormalizesDefaults(t *testing.T) {
	svc := newTestService(t)
	rule := validAnalogRule()

	require.NoError(t, svc.CreateRule(context.Background(), rule))
	require.NotZero(t, rule.ID)

	assert.Equal(t, models.SeverityMedium, rule.Severity)
	assert.Equal(t, 100, rule.Priority)
	assert.Equal(t, "[]", rule.Tags)
	assert.Equal(t, "[]", rule.NotificationChannels)
	assert.Equal(t, "[]", rule.NotificationRecipients)
	assert.Equal(t, "data_point #12", rule.TargetDisplay)
}

func TestService_CreateRule_DigitalDefaultsTrigger(t *testing.T) {
	svc := newTestService(t)
	rule := &models.AlarmRule{
		Name:       "Door contact",
		TargetType: models.TargetDevice,
		TargetID:   uintp(5),
		AlarmType:  models.AlarmTypeDigital,
	}

	require.NoError(t, svc.CreateRule(context.Background(), rule))
	assert.Equal(t, models.TriggerOnTrue, rule.TriggerCondition)
}

func TestService_CreateRule_GroupTargetDisplay(t *testing.T) {
	svc := newTestService(t)
	rule := &models.AlarmRule{
		Name:        "Line 2 watch",
		TargetType:  models.TargetGroup,
		TargetGroup: "line-2",
		AlarmType:   models.AlarmTypeAnalog,
	}

	require.NoError(t, svc.CreateRule(context.Background(), rule))
	assert.Equal(t, "line-2", rule.TargetDisplay)
}

func TestService_GetRule_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetRule(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdateRule_PreservesOwnership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rule := validAnalogRule()
	rule.CreatedBy = 7
	tplID := uintp(3)
	rule.TemplateID = tplID
	require.NoError(t, svc.CreateRule(ctx, rule))

	input := validAnalogRule()
	input.Name = "Boiler outlet temp v2"
	input.CreatedBy = 42 // 교체 입력의 소유자 변경 시도는 무시된다
	input.TemplateID = nil

	updated, err := svc.UpdateRule(ctx, rule.ID, input)
	require.NoError(t, err)

	assert.Equal(t, "Boiler outlet temp v2", updated.Name)
	assert.Equal(t, uint(7), updated.CreatedBy)
	require.NotNil(t, updated.TemplateID)
	assert.Equal(t, *tplID, *updated.TemplateID)
	assert.Equal(t, rule.CreatedAt.Unix(), updated.CreatedAt.Unix())
}

func TestService_UpdateRule_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.UpdateRule(context.Background(), 404, validAnalogRule())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdateRule_RejectsInvalidInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rule := validAnalogRule()
	require.NoError(t, svc.CreateRule(ctx, rule))

	bad := validAnalogRule()
	bad.Name = ""
	_, err := svc.UpdateRule(ctx, rule.ID, bad)
	assert.ErrorIs(t, err, ErrValidation)

	// 실패한 수정은 기존 행을 건드리지 않는다
	got, err := svc.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "Boiler outlet temp", got.Name)
}

func TestService_DeleteRule(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rule := validAnalogRule()
	require.NoError(t, svc.CreateRule(ctx, rule))

	require.NoError(t, svc.DeleteRule(ctx, rule.ID))
	_, err := svc.GetRule(ctx, rule.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.DeleteRule(ctx, rule.ID), ErrNotFound)
}

func seedRules(t *testing.T, svc *Service) []*models.AlarmRule {
	t.Helper()
	ctx := context.Background()

	rules := []*models.AlarmRule{
		{
			Name: "Boiler temp", TargetType: models.TargetDataPoint, TargetID: uintp(1),
			AlarmType: models.AlarmTypeAnalog, Severity: models.SeverityCritical,
			Category: "temperature", Tags: `["boiler","line-1"]`, IsEnabled: true,
		},
		{
			Name: "Pump pressure", TargetType: models.TargetDataPoint, TargetID: uintp(2),
			AlarmType: models.AlarmTypeAnalog, Severity: models.SeverityHigh,
			Category: "pressure", Tags: `["pump"]`, IsEnabled: true,
		},
		{
			Name: "Door contact", TargetType: models.TargetDevice, TargetID: uintp(3),
			AlarmType: models.AlarmTypeDigital, Severity: models.SeverityLow,
			Category: "safety", Tags: `["door","line-1"]`, IsEnabled: false,
		},
	}
	for _, r := range rules {
		require.NoError(t, svc.CreateRule(ctx, r))
	}
	return rules
}

func TestService_ListRules_Filters(t *testing.T) {
	svc := newTestService(t)
	seedRules(t, svc)
	ctx := context.Background()

	got, err := svc.ListRules(ctx, RuleQuery{Severity: models.SeverityCritical})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Boiler temp", got[0].Name)

	got, err = svc.ListRules(ctx, RuleQuery{AlarmType: models.AlarmTypeDigital})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Door contact", got[0].Name)

	got, err = svc.ListRules(ctx, RuleQuery{Category: "pressure"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Pump pressure", got[0].Name)

	enabled := false
	got, err = svc.ListRules(ctx, RuleQuery{Enabled: &enabled})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Door contact", got[0].Name)

	got, err = svc.ListRules(ctx, RuleQuery{Search: "pump"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Pump pressure", got[0].Name)
}

func TestService_ListRules_TagMatchesWholeElement(t *testing.T) {
	svc := newTestService(t)
	seedRules(t, svc)
	ctx := context.Background()

	got, err := svc.ListRules(ctx, RuleQuery{Tag: "line-1"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// 원소의 부분 문자열로는 걸리지 않는다
	got, err = svc.ListRules(ctx, RuleQuery{Tag: "line"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_ListRules_NewestFirst(t *testing.T) {
	svc := newTestService(t)
	rules := seedRules(t, svc)

	got, err := svc.ListRules(context.Background(), RuleQuery{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, rules[2].ID, got[0].ID, "last created comes first")

	limited, err := svc.ListRules(context.Background(), RuleQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestService_BulkUpdateRules(t *testing.T) {
	svc := newTestService(t)
	rules := seedRules(t, svc)
	ctx := context.Background()

	_, err := svc.BulkUpdateRules(ctx, nil, BulkRulePatch{IsEnabled: boolp(false)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.BulkUpdateRules(ctx, []uint{rules[0].ID}, BulkRulePatch{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.BulkUpdateRules(ctx, []uint{rules[0].ID}, BulkRulePatch{Severity: strp("urgent")})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.BulkUpdateRules(ctx,
		[]uint{rules[0].ID, rules[1].ID},
		BulkRulePatch{IsEnabled: boolp(false), Category: strp("maintenance")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	got, err := svc.GetRule(ctx, rules[0].ID)
	require.NoError(t, err)
	assert.False(t, got.IsEnabled)
	assert.Equal(t, "maintenance", got.Category)

	// 목록에 없는 ID는 조용히 건너뛴다
	updated, err = svc.BulkUpdateRules(ctx, []uint{9999}, BulkRulePatch{IsEnabled: boolp(true)})
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestService_PatchRuleSettings(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rule := validAnalogRule()
	rule.NotificationEnabled = true
	require.NoError(t, svc.CreateRule(ctx, rule))

	patched, err := svc.PatchRuleSettings(ctx, rule.ID, RuleSettingsPatch{
		NotificationEnabled:  boolp(false),
		NotificationDelaySec: intp(30),
		NotificationChannels: strp(`[{"type":"webhook","url":"http://hook.local"}]`),
	})
	require.NoError(t, err)

	assert.False(t, patched.NotificationEnabled)
	assert.Equal(t, 30, patched.NotificationDelaySec)
	assert.Contains(t, patched.NotificationChannels, "hook.local")

	// 건드리지 않은 필드는 유지
	assert.Equal(t, "Boiler outlet temp", patched.Name)
	assert.Equal(t, floatp(80), patched.HighLimit)

	_, err = svc.PatchRuleSettings(ctx, 9999, RuleSettingsPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_RuleStatistics(t *testing.T) {
	svc := newTestService(t)
	seedRules(t, svc)

	stats, err := svc.RuleStatistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Enabled)
	assert.Equal(t, int64(1), stats.Disabled)
	assert.Equal(t, int64(1), stats.BySeverity[models.SeverityCritical])
	assert.Equal(t, int64(1), stats.BySeverity[models.SeverityHigh])
	assert.Equal(t, int64(2), stats.ByType[models.AlarmTypeAnalog])
	assert.Equal(t, int64(1), stats.ByType[models.AlarmTypeDigital])
	assert.Equal(t, int64(1), stats.ByCategory["temperature"])
}

func intp(v int) *int { return &v }
