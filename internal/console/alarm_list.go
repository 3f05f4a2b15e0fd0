// Package console 콘솔 화면의 목록 상태 계층.
// 서버가 모든 진실을 소유하고, 여기는 마지막 성공 조회의 사본만 든다.
// 변경 작업은 성공 시에만 재조회하며, 실패 응답은 상태를 건드리지 않는다.
package console

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pulseone-console/pkg/alarmview"
	"pulseone-console/pkg/client"

	"go.uber.org/zap"
)

// AlarmListView 알람 발생 목록 화면 상태
type AlarmListView struct {
	api    *client.Client
	logger *zap.Logger

	fetcher Fetcher

	mu          sync.RWMutex
	alarms      []client.AlarmOccurrence
	filter      alarmview.Filter
	sortKey     string
	sortDir     string
	lastUpdated time.Time
}

func NewAlarmListView(api *client.Client, logger *zap.Logger) *AlarmListView {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlarmListView{
		api:     api,
		logger:  logger,
		sortKey: alarmview.SortByOccurrenceTime,
		sortDir: alarmview.DESC,
	}
}

// SetFilter 필터 교체. 다음 Alarms() 호출부터 반영.
func (v *AlarmListView) SetFilter(f alarmview.Filter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f
}

func (v *AlarmListView) SetSort(key, dir string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sortKey = key
	v.sortDir = dir
}

// Refresh active 알람 목록 재조회.
// 진행 중이던 이전 조회는 취소되고, 낡은 세대의 응답은 버려진다.
// 실패 envelope는 기존 목록을 유지한 채 error로 보고한다.
func (v *AlarmListView) Refresh(ctx context.Context) error {
	reqCtx, gen := v.fetcher.Begin(ctx)

	resp, err := v.api.Occurrences.Active(reqCtx)
	if err != nil {
		// 취소된 세대의 ctx 오류는 보고할 가치가 없다
		if v.fetcher.Stale(gen) {
			return nil
		}
		return err
	}

	if v.fetcher.Stale(gen) {
		v.logger.Debug("discarding stale alarm list response", zap.Uint64("generation", gen))
		return nil
	}

	if !resp.Success {
		v.logger.Warn("alarm list fetch failed",
			zap.String("error_code", resp.ErrorCode),
			zap.String("message", resp.Message))
		return fmt.Errorf("alarm list fetch failed: %s", resp.Message)
	}

	v.mu.Lock()
	v.alarms = resp.Data
	v.lastUpdated = time.Now()
	v.mu.Unlock()

	return nil
}

// Alarms 현재 필터/정렬이 적용된 스냅샷
func (v *AlarmListView) Alarms() []client.AlarmOccurrence {
	v.mu.RLock()
	alarms := make([]client.AlarmOccurrence, len(v.alarms))
	copy(alarms, v.alarms)
	filter := v.filter
	sortKey, sortDir := v.sortKey, v.sortDir
	v.mu.RUnlock()

	filtered := alarmview.FilterAlarms(alarms, filter)
	alarmview.SortAlarms(filtered, sortKey, sortDir)
	return filtered
}

// All 필터 없는 원본 스냅샷
func (v *AlarmListView) All() []client.AlarmOccurrence {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]client.AlarmOccurrence, len(v.alarms))
	copy(out, v.alarms)
	return out
}

func (v *AlarmListView) LastUpdated() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastUpdated
}

// Acknowledge 확인 후 성공 시에만 재조회
func (v *AlarmListView) Acknowledge(ctx context.Context, id uint, comment string) error {
	resp, err := v.api.Occurrences.Acknowledge(ctx, id, client.AcknowledgeRequest{Comment: comment})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("acknowledge failed: %s", resp.Message)
	}
	return v.Refresh(ctx)
}

// Clear 해제 후 성공 시에만 재조회
func (v *AlarmListView) Clear(ctx context.Context, id uint, comment, clearedValue string) error {
	resp, err := v.api.Occurrences.Clear(ctx, id, client.ClearRequest{
		Comment:      comment,
		ClearedValue: clearedValue,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("clear failed: %s", resp.Message)
	}
	return v.Refresh(ctx)
}

// Close 진행 중 요청 취소
func (v *AlarmListView) Close() {
	v.fetcher.Stop()
}
