package collectorwatch

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"pulseone-console/internal/models"
)

// Start 감시 루프 기동. cfg.Enabled가 꺼져 있으면 아무것도 하지 않는다.
func (s *Service) Start() {
	if !s.cfg.Enabled {
		s.logger.Info("collector watch disabled")
		return
	}

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	s.logger.Info("starting collector watch",
		zap.Int("workers", workers),
		zap.Int("check_interval_sec", s.cfg.CheckInterval))

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.probeWorker()
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.scheduleLoop()
	}()
}

// Stop 루프 종료 후 워커 완료 대기
func (s *Service) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) scheduleLoop() {
	interval := time.Duration(s.cfg.CheckInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.enqueueAll()
		}
	}
}

func (s *Service) enqueueAll() {
	var ids []uint
	err := s.db.WithContext(s.ctx).
		Model(&models.Collector{}).
		Pluck("id", &ids).Error
	if err != nil {
		s.logger.Warn("failed to load collectors for probing", zap.Error(err))
		return
	}

	for _, id := range ids {
		select {
		case s.probeQueue <- id:
		default:
			s.logger.Warn("probe queue full, skipping collector",
				zap.Uint("collector_id", id))
		}
	}
}

func (s *Service) probeWorker() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case id := <-s.probeQueue:
			s.probeOne(id)
		}
	}
}

func (s *Service) probeOne(id uint) {
	ctx, cancel := context.WithTimeout(s.ctx, time.Duration(s.cfg.ProbeTimeout+5)*time.Second)
	defer cancel()

	collector, err := s.GetCollector(ctx, id)
	if err != nil {
		return
	}

	status := s.determineStatus(ctx, collector)
	s.applyStatus(ctx, collector, status)
}

// determineStatus heartbeat 우선, 없으면 HTTP 프로브.
// maintenance는 수동 상태라 그대로 둔다.
func (s *Service) determineStatus(ctx context.Context, collector *models.Collector) string {
	if collector.Status == models.CollectorMaintenance {
		return models.CollectorMaintenance
	}

	if seen, ok := s.heartbeatSeen(ctx, collector.ID); ok {
		collector.LastSeen = &seen
		return models.CollectorOnline
	}

	return s.httpProbe(ctx, collector)
}

// heartbeatSeen Redis heartbeat가 offline_after 이내인지 확인
func (s *Service) heartbeatSeen(ctx context.Context, id uint) (time.Time, bool) {
	if s.rdb == nil {
		return time.Time{}, false
	}

	raw, err := s.rdb.Get(ctx, heartbeatKey(id)).Result()
	if err != nil {
		return time.Time{}, false
	}

	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	seen := time.Unix(unix, 0)
	maxAge := time.Duration(s.cfg.OfflineAfter) * time.Second
	if maxAge <= 0 {
		maxAge = 90 * time.Second
	}
	if time.Since(seen) > maxAge {
		return time.Time{}, false
	}
	return seen, true
}

// httpProbe GET {endpoint}/api/health.
// 2xx → online, 그 외 응답 → error, 연결 실패 → offline.
func (s *Service) httpProbe(ctx context.Context, collector *models.Collector) string {
	url := fmt.Sprintf("%s/api/health", collector.Endpoint())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.CollectorError
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return models.CollectorOffline
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		now := time.Now()
		collector.LastSeen = &now
		return models.CollectorOnline
	}
	return models.CollectorError
}

// applyStatus 상태와 last_seen을 반영. 전이가 있으면 로그를 남긴다.
func (s *Service) applyStatus(ctx context.Context, collector *models.Collector, status string) {
	if status == models.CollectorMaintenance {
		return
	}

	changed := collector.Status != status

	updates := map[string]interface{}{"status": status}
	if collector.LastSeen != nil {
		updates["last_seen"] = *collector.LastSeen
	}

	err := s.db.WithContext(ctx).
		Model(&models.Collector{}).
		Where("id = ?", collector.ID).
		Updates(updates).Error
	if err != nil {
		s.logger.Warn("failed to update collector status",
			zap.Uint("collector_id", collector.ID),
			zap.Error(err))
		return
	}

	if changed {
		s.logger.Info("collector status changed",
			zap.Uint("collector_id", collector.ID),
			zap.String("server_name", collector.ServerName),
			zap.String("from", collector.Status),
			zap.String("to", status))
	}
	collector.Status = status
}
