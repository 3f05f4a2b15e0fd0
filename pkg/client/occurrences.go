package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// OccurrenceService 알람 발생 API
type OccurrenceService struct {
	c *Client
}

// HistoryQuery 이력 조회 서버측 필터
type HistoryQuery struct {
	RuleID   uint
	DeviceID string
	Severity string
	State    string
	Category string
	Tag      string
	Search   string
	From     *time.Time
	To       *time.Time
	SortBy   string // occurrence_time, severity, rule_name, state, category
	SortDir  string // ASC, DESC
	Limit    int
	Offset   int
}

func (q HistoryQuery) values() url.Values {
	v := url.Values{}
	if q.RuleID > 0 {
		v.Set("ruleId", strconv.FormatUint(uint64(q.RuleID), 10))
	}
	if q.DeviceID != "" {
		v.Set("deviceId", q.DeviceID)
	}
	if q.Severity != "" {
		v.Set("severity", q.Severity)
	}
	if q.State != "" {
		v.Set("state", q.State)
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
	if q.From != nil {
		v.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if q.To != nil {
		v.Set("to", q.To.UTC().Format(time.RFC3339))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortDir != "" {
		v.Set("sortDir", q.SortDir)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

// Active 현재 active/acknowledged 상태의 알람 목록
func (s *OccurrenceService) Active(ctx context.Context) (*Response[[]AlarmOccurrence], error) {
	return do[[]AlarmOccurrence](ctx, s.c, http.MethodGet, "/api/alarms/active", nil, nil)
}

func (s *OccurrenceService) History(ctx context.Context, q HistoryQuery) (*Response[[]AlarmOccurrence], error) {
	return do[[]AlarmOccurrence](ctx, s.c, http.MethodGet, "/api/alarms/history", q.values(), nil)
}

func (s *OccurrenceService) Get(ctx context.Context, id uint) (*Response[AlarmOccurrence], error) {
	return do[AlarmOccurrence](ctx, s.c, http.MethodGet, fmt.Sprintf("/api/alarms/occurrences/%d", id), nil, nil)
}

func (s *OccurrenceService) ByCategory(ctx context.Context, category string) (*Response[[]AlarmOccurrence], error) {
	return do[[]AlarmOccurrence](ctx, s.c, http.MethodGet, "/api/alarms/occurrences/category/"+url.PathEscape(category), nil, nil)
}

func (s *OccurrenceService) ByTag(ctx context.Context, tag string) (*Response[[]AlarmOccurrence], error) {
	return do[[]AlarmOccurrence](ctx, s.c, http.MethodGet, "/api/alarms/occurrences/tag/"+url.PathEscape(tag), nil, nil)
}

func (s *OccurrenceService) ByDevice(ctx context.Context, deviceID string) (*Response[[]AlarmOccurrence], error) {
	return do[[]AlarmOccurrence](ctx, s.c, http.MethodGet, "/api/alarms/device/"+url.PathEscape(deviceID), nil, nil)
}

// Acknowledge 알람 확인. 상태 선행조건 검사는 서버 몫이다.
func (s *OccurrenceService) Acknowledge(ctx context.Context, id uint, req AcknowledgeRequest) (*Response[AlarmOccurrence], error) {
	return do[AlarmOccurrence](ctx, s.c, http.MethodPost, fmt.Sprintf("/api/alarms/occurrences/%d/acknowledge", id), nil, req)
}

// Clear 알람 해제. acknowledge 없이도 호출 가능.
func (s *OccurrenceService) Clear(ctx context.Context, id uint, req ClearRequest) (*Response[AlarmOccurrence], error) {
	return do[AlarmOccurrence](ctx, s.c, http.MethodPost, fmt.Sprintf("/api/alarms/occurrences/%d/clear", id), nil, req)
}

func (s *OccurrenceService) Unacknowledged(ctx context.Context) (*Response[[]AlarmOccurrence], error) {
	return do[[]AlarmOccurrence](ctx, s.c, http.MethodGet, "/api/alarms/unacknowledged", nil, nil)
}

func (s *OccurrenceService) Recent(ctx context.Context, limit int) (*Response[[]AlarmOccurrence], error) {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return do[[]AlarmOccurrence](ctx, s.c, http.MethodGet, "/api/alarms/recent", v, nil)
}

func (s *OccurrenceService) Statistics(ctx context.Context) (*Response[OccurrenceStatistics], error) {
	return do[OccurrenceStatistics](ctx, s.c, http.MethodGet, "/api/alarms/statistics", nil, nil)
}

// CreateTest 테스트용 가상 알람 생성 (개발 편의 기능)
func (s *OccurrenceService) CreateTest(ctx context.Context) (*Response[AlarmOccurrence], error) {
	return do[AlarmOccurrence](ctx, s.c, http.MethodPost, "/api/alarms/test", nil, nil)
}
