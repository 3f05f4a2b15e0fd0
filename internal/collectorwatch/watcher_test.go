package collectorwatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulseone-console/internal/config"
	"pulseone-console/internal/models"
)

// probeTarget 헬스 프로브가 붙을 수 있게 httptest 서버 주소로 수집기를 등록한다
func registerAt(t *testing.T, svc *Service, serverURL string) *models.Collector {
	t.Helper()

	u, err := url.Parse(serverURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	collector := &models.Collector{
		ServerName: "edge-01",
		IPAddress:  u.Hostname(),
		Port:       port,
	}
	require.NoError(t, svc.RegisterCollector(context.Background(), collector))
	return collector
}

func TestService_Health_FreshHeartbeat(t *testing.T) {
	svc, mr := newWatchService(t, config.WatchConfig{OfflineAfter: 90})
	ctx := context.Background()

	collector := &models.Collector{ServerName: "edge-01", IPAddress: "10.0.0.5"}
	require.NoError(t, svc.RegisterCollector(ctx, collector))

	seen := time.Now().Add(-10 * time.Second)
	seedHeartbeat(t, mr, collector.ID, seen)

	res, err := svc.Health(ctx, collector.ID)
	require.NoError(t, err)

	assert.Equal(t, models.CollectorOnline, res.Status)
	assert.True(t, res.Healthy)
	require.NotNil(t, res.LastSeen)
	assert.WithinDuration(t, seen, *res.LastSeen, time.Second)
	assert.GreaterOrEqual(t, res.ResponseTimeMs, int64(0))

	// DB에도 반영된다
	got, err := svc.GetCollector(ctx, collector.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectorOnline, got.Status)
	require.NotNil(t, got.LastSeen)
	assert.WithinDuration(t, seen, *got.LastSeen, time.Second)
}

func TestService_Health_StaleHeartbeatFallsBackToProbe(t *testing.T) {
	gotPath := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case gotPath <- r.URL.Path:
		default:
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc, mr := newWatchService(t, config.WatchConfig{OfflineAfter: 60, ProbeTimeout: 2})
	collector := registerAt(t, svc, srv.URL)

	// heartbeat가 허용 시간을 넘겼으므로 HTTP 프로브로 넘어간다
	seedHeartbeat(t, mr, collector.ID, time.Now().Add(-2*time.Minute))

	res, err := svc.Health(context.Background(), collector.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectorOnline, res.Status)
	assert.True(t, res.Healthy)
	assert.Equal(t, "/api/health", <-gotPath)
}

func TestService_Health_GarbageHeartbeatFallsBackToProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc, mr := newWatchService(t, config.WatchConfig{ProbeTimeout: 2})
	collector := registerAt(t, svc, srv.URL)
	require.NoError(t, mr.Set(heartbeatKey(collector.ID), "not-a-unix-timestamp"))

	res, err := svc.Health(context.Background(), collector.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectorOnline, res.Status)
}

func TestService_Health_ProbeRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collector overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc, _ := newWatchService(t, config.WatchConfig{ProbeTimeout: 2})
	collector := registerAt(t, svc, srv.URL)

	res, err := svc.Health(context.Background(), collector.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectorError, res.Status)
	assert.False(t, res.Healthy)

	got, err := svc.GetCollector(context.Background(), collector.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectorError, got.Status)
}

func TestService_Health_ConnectionRefusedMeansOffline(t *testing.T) {
	// 닫힌 포트로 프로브
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	svc, _ := newWatchService(t, config.WatchConfig{ProbeTimeout: 1})
	collector := registerAt(t, svc, addr)

	res, err := svc.Health(context.Background(), collector.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectorOffline, res.Status)
	assert.False(t, res.Healthy)
	assert.Nil(t, res.LastSeen)
}

func TestService_Health_MaintenanceIsNeverOverridden(t *testing.T) {
	svc, mr := newWatchService(t, config.WatchConfig{OfflineAfter: 90})
	ctx := context.Background()

	collector := &models.Collector{ServerName: "edge-01", IPAddress: "10.0.0.5"}
	require.NoError(t, svc.RegisterCollector(ctx, collector))
	require.NoError(t, svc.db.Model(collector).Update("status", models.CollectorMaintenance).Error)
	collector.Status = models.CollectorMaintenance

	// 살아 있는 heartbeat가 있어도 maintenance는 유지
	seedHeartbeat(t, mr, collector.ID, time.Now())

	res, err := svc.Health(ctx, collector.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectorMaintenance, res.Status)
	assert.False(t, res.Healthy)

	got, err := svc.GetCollector(ctx, collector.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectorMaintenance, got.Status)
}

func TestService_Health_UnknownCollector(t *testing.T) {
	svc, _ := newWatchService(t, config.WatchConfig{})
	_, err := svc.Health(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_StartDisabledIsNoop(t *testing.T) {
	svc, _ := newWatchService(t, config.WatchConfig{Enabled: false})

	svc.Start()
	done := make(chan struct{})
	go func() {
		svc.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestService_WatchLoop_MarksCollectorOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc, _ := newWatchService(t, config.WatchConfig{
		Enabled:       true,
		CheckInterval: 1,
		Workers:       2,
		ProbeTimeout:  2,
	})
	collector := registerAt(t, svc, srv.URL)

	svc.Start()
	defer svc.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got, err := svc.GetCollector(context.Background(), collector.ID)
		require.NoError(t, err)
		if got.Status == models.CollectorOnline {
			require.NotNil(t, got.LastSeen)
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("collector never reported online")
}
