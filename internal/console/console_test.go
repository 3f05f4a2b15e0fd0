package console

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulseone-console/pkg/alarmview"
	"pulseone-console/pkg/client"
)

// fakeBackend 목록/변경 엔드포인트만 흉내내는 테스트 서버
type fakeBackend struct {
	ackCalls  int32
	bulkCalls int32
	failList  int32 // 1이면 목록 조회가 실패 envelope를 준다
	alarms    []client.AlarmOccurrence
	rules     []client.AlarmRule
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/alarms/active", func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&b.failList) == 1 {
			writeEnvelope(w, 500, false, nil, "database gone", "INTERNAL_ERROR")
			return
		}
		writeEnvelope(w, 200, true, b.alarms, "", "")
	})

	mux.HandleFunc("/api/alarms/rules", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, true, b.rules, "", "")
	})

	mux.HandleFunc("/api/alarms/rules/bulk", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.bulkCalls, 1)
		var in client.BulkRuleUpdate
		json.NewDecoder(r.Body).Decode(&in)
		for i := range b.rules {
			for _, id := range in.IDs {
				if b.rules[i].ID == id && in.IsEnabled != nil {
					b.rules[i].IsEnabled = *in.IsEnabled
				}
			}
		}
		writeEnvelope(w, 200, true, client.BulkRuleResult{Updated: int64(len(in.IDs))}, "", "")
	})

	mux.HandleFunc("/api/alarms/occurrences/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.ackCalls, 1)
		writeEnvelope(w, 200, true, b.alarms[0], "alarm acknowledged", "")
	})

	return mux
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, data interface{}, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    success,
		"data":       data,
		"message":    message,
		"error_code": code,
		"timestamp":  "2025-06-01T09:00:00Z",
	})
}

func newConsoleFixture(t *testing.T) (*fakeBackend, *client.Client) {
	t.Helper()

	backend := &fakeBackend{
		alarms: []client.AlarmOccurrence{
			{ID: 1, RuleName: "Boiler temp", Severity: "critical", State: "active"},
			{ID: 2, RuleName: "Pump pressure", Severity: "low", State: "active"},
		},
		rules: []client.AlarmRule{
			{ID: 10, Name: "Boiler temp", IsEnabled: true},
			{ID: 11, Name: "Pump pressure", IsEnabled: false},
		},
	}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	return backend, client.New(srv.URL)
}

func TestAlarmListView_RefreshAndSnapshot(t *testing.T) {
	_, api := newConsoleFixture(t)
	view := NewAlarmListView(api, nil)
	defer view.Close()

	require.NoError(t, view.Refresh(context.Background()))
	assert.Len(t, view.All(), 2)
	assert.False(t, view.LastUpdated().IsZero())

	view.SetFilter(alarmview.Filter{Severity: "critical"})
	got := view.Alarms()
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].ID)

	// 필터는 원본을 건드리지 않는다
	assert.Len(t, view.All(), 2)
}

func TestAlarmListView_FailureKeepsLastGoodList(t *testing.T) {
	backend, api := newConsoleFixture(t)
	view := NewAlarmListView(api, nil)
	defer view.Close()

	require.NoError(t, view.Refresh(context.Background()))
	require.Len(t, view.All(), 2)

	atomic.StoreInt32(&backend.failList, 1)
	err := view.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database gone")

	// 실패 응답은 마지막 성공 상태를 덮어쓰지 않는다
	assert.Len(t, view.All(), 2)
}

func TestAlarmListView_AcknowledgeRefreshesOnSuccess(t *testing.T) {
	backend, api := newConsoleFixture(t)
	view := NewAlarmListView(api, nil)
	defer view.Close()

	require.NoError(t, view.Refresh(context.Background()))

	require.NoError(t, view.Acknowledge(context.Background(), 1, "looking into it"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.ackCalls))
	assert.Len(t, view.All(), 2, "refresh after acknowledge keeps the list populated")
}

func TestRuleListView_ToggleEnabled(t *testing.T) {
	backend, api := newConsoleFixture(t)
	view := NewRuleListView(api, nil)
	defer view.Close()

	require.NoError(t, view.Refresh(context.Background()))
	require.Len(t, view.Rules(), 2)

	require.NoError(t, view.ToggleEnabled(context.Background(), 11))
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.bulkCalls))

	// 토글 후 재조회로 두 규칙 모두 enabled가 된다
	enabled := true
	view.SetFilter(alarmview.RuleFilter{Enabled: &enabled})
	assert.Len(t, view.Rules(), 2)
}

func TestRuleListView_ToggleUnknownRuleFailsLocally(t *testing.T) {
	backend, api := newConsoleFixture(t)
	view := NewRuleListView(api, nil)
	defer view.Close()

	require.NoError(t, view.Refresh(context.Background()))

	err := view.ToggleEnabled(context.Background(), 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in local list")
	assert.Equal(t, int32(0), atomic.LoadInt32(&backend.bulkCalls), "no server call for unknown rule")
}

func TestFetcher_GenerationInvalidation(t *testing.T) {
	var f Fetcher

	ctx1, gen1 := f.Begin(context.Background())
	assert.False(t, f.Stale(gen1))

	// 두 번째 Begin은 첫 요청을 취소하고 세대를 올린다
	ctx2, gen2 := f.Begin(context.Background())
	assert.Greater(t, gen2, gen1)
	assert.True(t, f.Stale(gen1))
	assert.False(t, f.Stale(gen2))

	assert.ErrorIs(t, ctx1.Err(), context.Canceled)
	assert.NoError(t, ctx2.Err())

	f.Stop()
	assert.ErrorIs(t, ctx2.Err(), context.Canceled)
}

func TestFetcher_StopIsIdempotent(t *testing.T) {
	var f Fetcher
	f.Stop() // 시작 전 Stop은 no-op

	_, gen := f.Begin(context.Background())
	f.Stop()
	f.Stop()

	assert.Equal(t, gen, f.Generation())
}

// 세대 경합 재현: 앞선 조회가 잡혀 있는 동안 새 조회가 끝나면
// 앞선 세대의 결과는 오류 없이 버려져야 한다.
func TestAlarmListView_StaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	var calls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/alarms/active", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			<-release
			writeEnvelope(w, 200, true, []client.AlarmOccurrence{{ID: 99, RuleName: "stale"}}, "", "")
			return
		}
		writeEnvelope(w, 200, true, []client.AlarmOccurrence{{ID: 1, RuleName: "fresh"}}, "", "")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	view := NewAlarmListView(client.New(srv.URL), nil)
	defer view.Close()

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- view.Refresh(context.Background())
	}()

	// 첫 요청이 서버에 도착할 때까지 대기
	for atomic.LoadInt32(&calls) == 0 {
		time.Sleep(time.Millisecond)
	}

	// 두 번째 Refresh가 첫 세대를 무효화한다
	require.NoError(t, view.Refresh(context.Background()))
	close(release)

	assert.NoError(t, <-firstDone, "stale refresh must not surface an error")

	got := view.All()
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].RuleName, "late response must not overwrite newer state")
}
