package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAudit_AppendsToDatedFile(t *testing.T) {
	dir := t.TempDir()

	ts := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	entry := &AuditEntry{
		Timestamp:  ts,
		Actor:      7,
		Action:     "create",
		Resource:   "alarm_rule",
		ResourceID: 12,
		Detail:     map[string]interface{}{"name": "Boiler temp"},
	}
	require.NoError(t, WriteAudit(dir, entry))
	require.NoError(t, WriteAudit(dir, &AuditEntry{
		Timestamp: ts.Add(time.Minute),
		Action:    "delete",
		Resource:  "alarm_rule",
	}))

	path := filepath.Join(dir, "audit-2025-06-01.jsonl")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := nonEmptyLines(string(raw))
	require.Len(t, lines, 2, "one JSONL line per entry")
	assert.Contains(t, lines[0], `"action":"create"`)
	assert.Contains(t, lines[0], `"resource_id":12`)
	assert.Contains(t, lines[1], `"action":"delete"`)
}

func TestWriteAudit_FillsTimestamp(t *testing.T) {
	dir := t.TempDir()

	entry := &AuditEntry{Action: "update", Resource: "settings"}
	require.NoError(t, WriteAudit(dir, entry))
	assert.False(t, entry.Timestamp.IsZero())

	// 오늘 날짜 파일에 쓰였다
	path := filepath.Join(dir, fmt.Sprintf("audit-%s.jsonl", time.Now().Format("2006-01-02")))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func seedAuditWindow(t *testing.T, dir string) {
	t.Helper()

	now := time.Now()
	actor3 := uint(3)
	fixtures := []*AuditEntry{
		{Timestamp: now.Add(-time.Hour), Actor: actor3, Action: "create", Resource: "alarm_rule", ResourceID: 1},
		{Timestamp: now.Add(-30 * time.Minute), Actor: 5, Action: "acknowledge", Resource: "alarm_occurrence", ResourceID: 2},
		{Timestamp: now.Add(-10 * time.Minute), Actor: actor3, Action: "delete", Resource: "alarm_rule", ResourceID: 1},
		// 기본 7일 창 밖의 오래된 기록
		{Timestamp: now.AddDate(0, 0, -9), Actor: actor3, Action: "create", Resource: "alarm_rule", ResourceID: 99},
	}
	for _, e := range fixtures {
		require.NoError(t, WriteAudit(dir, e))
	}
}

func TestQueryAudit_DefaultWindowAndOrder(t *testing.T) {
	dir := t.TempDir()
	seedAuditWindow(t, dir)

	result, err := QueryAudit(dir, &AuditQuery{})
	require.NoError(t, err)

	require.Equal(t, 3, result.Total, "default window covers the last 7 days")
	require.Len(t, result.Logs, 3)

	// 최신순
	assert.Equal(t, "delete", result.Logs[0].Action)
	assert.Equal(t, "acknowledge", result.Logs[1].Action)
	assert.Equal(t, "create", result.Logs[2].Action)
}

func TestQueryAudit_Filters(t *testing.T) {
	dir := t.TempDir()
	seedAuditWindow(t, dir)

	result, err := QueryAudit(dir, &AuditQuery{Resource: "alarm_occurrence"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "acknowledge", result.Logs[0].Action)

	result, err = QueryAudit(dir, &AuditQuery{Action: "delete"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, uint(1), result.Logs[0].ResourceID)

	actor := uint(3)
	result, err = QueryAudit(dir, &AuditQuery{Actor: &actor})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestQueryAudit_ExplicitTimeWindow(t *testing.T) {
	dir := t.TempDir()
	seedAuditWindow(t, dir)

	start := time.Now().AddDate(0, 0, -10)
	end := time.Now()
	result, err := QueryAudit(dir, &AuditQuery{StartTime: &start, EndTime: &end})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total, "wider window picks up the 9 day old entry")

	// 좁은 창
	start = time.Now().Add(-20 * time.Minute)
	result, err = QueryAudit(dir, &AuditQuery{StartTime: &start, EndTime: &end})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "delete", result.Logs[0].Action)
}

func TestQueryAudit_LimitAndOffset(t *testing.T) {
	dir := t.TempDir()
	seedAuditWindow(t, dir)

	result, err := QueryAudit(dir, &AuditQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total, "total counts all matches, not just the page")
	require.Len(t, result.Logs, 2)
	assert.Equal(t, "delete", result.Logs[0].Action)

	result, err = QueryAudit(dir, &AuditQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, result.Logs, 1)
	assert.Equal(t, "create", result.Logs[0].Action)

	// 범위를 넘는 offset은 빈 페이지
	result, err = QueryAudit(dir, &AuditQuery{Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, result.Logs)
}

func TestQueryAudit_SkipsCorruptedLines(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteAudit(dir, &AuditEntry{Action: "create", Resource: "alarm_rule"}))

	// 오늘 파일에 손상 라인과 빈 라인을 끼워 넣는다
	path := filepath.Join(dir, fmt.Sprintf("audit-%s.jsonl", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json}\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, WriteAudit(dir, &AuditEntry{Action: "update", Resource: "alarm_rule"}))

	result, err := QueryAudit(dir, &AuditQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total, "corrupted and blank lines are ignored")
}

func TestQueryAudit_EmptyDirectory(t *testing.T) {
	result, err := QueryAudit(t.TempDir(), &AuditQuery{})
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.NotNil(t, result.Logs)
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
