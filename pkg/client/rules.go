package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// RuleService 알람 규칙 API
type RuleService struct {
	c *Client
}

// RuleListQuery 규칙 목록 서버측 필터 (빈 값은 조건 없음)
type RuleListQuery struct {
	Severity   string
	AlarmType  string
	TargetType string
	Enabled    *bool
	Category   string
	Tag        string
	Search     string
	Limit      int
	Offset     int
}

func (q RuleListQuery) values() url.Values {
	v := url.Values{}
	if q.Severity != "" {
		v.Set("severity", q.Severity)
	}
	if q.AlarmType != "" {
		v.Set("alarm_type", q.AlarmType)
	}
	if q.TargetType != "" {
		v.Set("target_type", q.TargetType)
	}
	if q.Enabled != nil {
		v.Set("enabled", strconv.FormatBool(*q.Enabled))
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

func (s *RuleService) List(ctx context.Context, q RuleListQuery) (*Response[[]AlarmRule], error) {
	return do[[]AlarmRule](ctx, s.c, http.MethodGet, "/api/alarms/rules", q.values(), nil)
}

func (s *RuleService) Get(ctx context.Context, id uint) (*Response[AlarmRule], error) {
	return do[AlarmRule](ctx, s.c, http.MethodGet, fmt.Sprintf("/api/alarms/rules/%d", id), nil, nil)
}

func (s *RuleService) Create(ctx context.Context, in RuleInput) (*Response[AlarmRule], error) {
	return do[AlarmRule](ctx, s.c, http.MethodPost, "/api/alarms/rules", nil, in)
}

func (s *RuleService) Update(ctx context.Context, id uint, in RuleInput) (*Response[AlarmRule], error) {
	return do[AlarmRule](ctx, s.c, http.MethodPut, fmt.Sprintf("/api/alarms/rules/%d", id), nil, in)
}

func (s *RuleService) Delete(ctx context.Context, id uint) (*Response[struct{}], error) {
	return do[struct{}](ctx, s.c, http.MethodDelete, fmt.Sprintf("/api/alarms/rules/%d", id), nil, nil)
}

func (s *RuleService) ByCategory(ctx context.Context, category string) (*Response[[]AlarmRule], error) {
	return do[[]AlarmRule](ctx, s.c, http.MethodGet, "/api/alarms/rules/category/"+url.PathEscape(category), nil, nil)
}

func (s *RuleService) ByTag(ctx context.Context, tag string) (*Response[[]AlarmRule], error) {
	return do[[]AlarmRule](ctx, s.c, http.MethodGet, "/api/alarms/rules/tag/"+url.PathEscape(tag), nil, nil)
}

// BulkUpdate 여러 규칙의 enable/severity/category 일괄 변경
func (s *RuleService) BulkUpdate(ctx context.Context, in BulkRuleUpdate) (*Response[BulkRuleResult], error) {
	return do[BulkRuleResult](ctx, s.c, http.MethodPost, "/api/alarms/rules/bulk", nil, in)
}

// PatchSettings 통지/에스컬레이션 부분 수정
func (s *RuleService) PatchSettings(ctx context.Context, id uint, patch RuleSettingsPatch) (*Response[AlarmRule], error) {
	return do[AlarmRule](ctx, s.c, http.MethodPatch, fmt.Sprintf("/api/alarms/rules/%d/settings", id), nil, patch)
}

func (s *RuleService) Statistics(ctx context.Context) (*Response[RuleStatistics], error) {
	return do[RuleStatistics](ctx, s.c, http.MethodGet, "/api/alarms/rules/statistics", nil, nil)
}
