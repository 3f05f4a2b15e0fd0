package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pulseone-console/internal/models"
)

func newTestService(t *testing.T, auditDir string) *Service {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SettingSection{}))

	return NewService(db, zap.NewNop(), auditDir)
}

func seedSection(t *testing.T, svc *Service, category, settings string) {
	t.Helper()
	require.NoError(t, svc.db.Create(&models.SettingSection{
		Category: category,
		Settings: settings,
	}).Error)
}

func TestService_Get_AssemblesCategories(t *testing.T) {
	svc := newTestService(t, "")
	seedSection(t, svc, "general", `{"site_name":"Plant 1"}`)
	seedSection(t, svc, "security", `{"session_timeout_min":30}`)

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"site_name":"Plant 1"}`, string(got["general"]))
	assert.JSONEq(t, `{"session_timeout_min":30}`, string(got["security"]))
}

func TestService_Get_SubstitutesBrokenJSON(t *testing.T) {
	svc := newTestService(t, "")
	seedSection(t, svc, "general", "")
	seedSection(t, svc, "logging", `{"level": "info"`) // 잘린 JSON

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(got["general"]))
	assert.JSONEq(t, `{}`, string(got["logging"]))
}

func TestService_Update_ReplacesOnlyGivenCategories(t *testing.T) {
	svc := newTestService(t, "")
	seedSection(t, svc, "general", `{"site_name":"Plant 1","language":"ko"}`)
	seedSection(t, svc, "security", `{"session_timeout_min":30}`)

	got, err := svc.Update(context.Background(), map[string]json.RawMessage{
		"general": json.RawMessage(`{"site_name":"Plant 2"}`),
	}, 7)
	require.NoError(t, err)

	// 카테고리는 병합이 아니라 통째로 교체된다
	assert.JSONEq(t, `{"site_name":"Plant 2"}`, string(got["general"]))
	// 요청에 없는 카테고리는 그대로
	assert.JSONEq(t, `{"session_timeout_min":30}`, string(got["security"]))

	var section models.SettingSection
	require.NoError(t, svc.db.First(&section, "category = ?", "general").Error)
	assert.Equal(t, uint(7), section.UpdatedBy)
}

func TestService_Update_InsertsNewCategory(t *testing.T) {
	svc := newTestService(t, "")

	got, err := svc.Update(context.Background(), map[string]json.RawMessage{
		"performance": json.RawMessage(`{"cache_ttl_sec":60}`),
	}, 0)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cache_ttl_sec":60}`, string(got["performance"]))
}

func TestService_Update_RejectsUnknownCategoryAtomically(t *testing.T) {
	svc := newTestService(t, "")
	seedSection(t, svc, "general", `{"site_name":"Plant 1"}`)

	_, err := svc.Update(context.Background(), map[string]json.RawMessage{
		"general":   json.RawMessage(`{"site_name":"Plant 2"}`),
		"telemetry": json.RawMessage(`{"enabled":true}`),
	}, 0)
	require.ErrorIs(t, err, ErrUnknownCategory)

	// 유효한 카테고리 쪽도 적용되지 않았다
	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"site_name":"Plant 1"}`, string(got["general"]))
}

func TestService_Update_RejectsNonObjectJSON(t *testing.T) {
	svc := newTestService(t, "")

	_, err := svc.Update(context.Background(), map[string]json.RawMessage{
		"general": json.RawMessage(`["not","an","object"]`),
	}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a JSON object")

	_, err = svc.Update(context.Background(), map[string]json.RawMessage{
		"general": json.RawMessage(`{"broken":`),
	}, 0)
	assert.Error(t, err)
}

func TestService_Update_EmptyPatchReturnsCurrent(t *testing.T) {
	svc := newTestService(t, "")
	seedSection(t, svc, "general", `{"site_name":"Plant 1"}`)

	got, err := svc.Update(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestService_Update_WritesAudit(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)

	_, err := svc.Update(context.Background(), map[string]json.RawMessage{
		"notifications": json.RawMessage(`{"email_enabled":false}`),
	}, 3)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "audit-"))

	raw, err := os.ReadFile(dir + "/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"system_settings"`)
	assert.Contains(t, string(raw), "notifications")
}
