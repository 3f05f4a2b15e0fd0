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

// RuleListView 알람 규칙 목록 화면 상태
type RuleListView struct {
	api    *client.Client
	logger *zap.Logger

	fetcher Fetcher

	mu          sync.RWMutex
	rules       []client.AlarmRule
	filter      alarmview.RuleFilter
	lastUpdated time.Time
}

func NewRuleListView(api *client.Client, logger *zap.Logger) *RuleListView {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleListView{
		api:    api,
		logger: logger,
	}
}

func (v *RuleListView) SetFilter(f alarmview.RuleFilter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f
}

// Refresh 전체 규칙 목록 재조회 (필터는 클라이언트측 적용)
func (v *RuleListView) Refresh(ctx context.Context) error {
	reqCtx, gen := v.fetcher.Begin(ctx)

	resp, err := v.api.Rules.List(reqCtx, client.RuleListQuery{})
	if err != nil {
		if v.fetcher.Stale(gen) {
			return nil
		}
		return err
	}

	if v.fetcher.Stale(gen) {
		v.logger.Debug("discarding stale rule list response", zap.Uint64("generation", gen))
		return nil
	}

	if !resp.Success {
		v.logger.Warn("rule list fetch failed",
			zap.String("error_code", resp.ErrorCode),
			zap.String("message", resp.Message))
		return fmt.Errorf("rule list fetch failed: %s", resp.Message)
	}

	v.mu.Lock()
	v.rules = resp.Data
	v.lastUpdated = time.Now()
	v.mu.Unlock()

	return nil
}

// Rules 필터 적용 스냅샷
func (v *RuleListView) Rules() []client.AlarmRule {
	v.mu.RLock()
	rules := make([]client.AlarmRule, len(v.rules))
	copy(rules, v.rules)
	filter := v.filter
	v.mu.RUnlock()

	return alarmview.FilterRules(rules, filter)
}

func (v *RuleListView) LastUpdated() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastUpdated
}

// find 로컬 사본에서 규칙 검색
func (v *RuleListView) find(id uint) (client.AlarmRule, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, r := range v.rules {
		if r.ID == id {
			return r, true
		}
	}
	return client.AlarmRule{}, false
}

// ToggleEnabled 활성/비활성 토글. 서버 수정이 성공해야만 재조회하고,
// 실패 응답이면 로컬 목록은 그대로 둔다.
func (v *RuleListView) ToggleEnabled(ctx context.Context, id uint) error {
	rule, ok := v.find(id)
	if !ok {
		return fmt.Errorf("rule %d not in local list", id)
	}

	next := !rule.IsEnabled
	resp, err := v.api.Rules.BulkUpdate(ctx, client.BulkRuleUpdate{
		IDs:       []uint{id},
		IsEnabled: &next,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("rule update failed: %s", resp.Message)
	}

	return v.Refresh(ctx)
}

// Delete 삭제 후 성공 시에만 재조회
func (v *RuleListView) Delete(ctx context.Context, id uint) error {
	resp, err := v.api.Rules.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("rule delete failed: %s", resp.Message)
	}

	return v.Refresh(ctx)
}

// Close 진행 중 요청 취소
func (v *RuleListView) Close() {
	v.fetcher.Stop()
}
