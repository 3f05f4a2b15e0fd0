package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// TemplateService 알람 템플릿 API
type TemplateService struct {
	c *Client
}

// TemplateInput 템플릿 생성/수정 요청 본문
type TemplateInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`

	ConditionType   string     `json:"condition_type,omitempty"`
	DefaultConfig   JSONObject `json:"default_config,omitempty"`
	Severity        string     `json:"severity,omitempty"`
	MessageTemplate string     `json:"message_template,omitempty"`

	ApplicableDataTypes   StringList `json:"applicable_data_types,omitempty"`
	ApplicableDeviceTypes StringList `json:"applicable_device_types,omitempty"`

	NotificationEnabled bool       `json:"notification_enabled,omitempty"`
	IsActive            bool       `json:"is_active"`
	Tags                StringList `json:"tags,omitempty"`
}

// TemplateListQuery 템플릿 목록 필터
type TemplateListQuery struct {
	Category string
	Active   *bool
	Limit    int
	Offset   int
}

func (q TemplateListQuery) values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Active != nil {
		v.Set("active", strconv.FormatBool(*q.Active))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

func (s *TemplateService) List(ctx context.Context, q TemplateListQuery) (*Response[[]AlarmTemplate], error) {
	return do[[]AlarmTemplate](ctx, s.c, http.MethodGet, "/api/alarms/templates", q.values(), nil)
}

func (s *TemplateService) Get(ctx context.Context, id uint) (*Response[AlarmTemplate], error) {
	return do[AlarmTemplate](ctx, s.c, http.MethodGet, fmt.Sprintf("/api/alarms/templates/%d", id), nil, nil)
}

func (s *TemplateService) Create(ctx context.Context, in TemplateInput) (*Response[AlarmTemplate], error) {
	return do[AlarmTemplate](ctx, s.c, http.MethodPost, "/api/alarms/templates", nil, in)
}

func (s *TemplateService) Update(ctx context.Context, id uint, in TemplateInput) (*Response[AlarmTemplate], error) {
	return do[AlarmTemplate](ctx, s.c, http.MethodPut, fmt.Sprintf("/api/alarms/templates/%d", id), nil, in)
}

func (s *TemplateService) Delete(ctx context.Context, id uint) (*Response[struct{}], error) {
	return do[struct{}](ctx, s.c, http.MethodDelete, fmt.Sprintf("/api/alarms/templates/%d", id), nil, nil)
}

// Apply 템플릿을 대상 목록에 일괄 적용하여 규칙 생성
func (s *TemplateService) Apply(ctx context.Context, id uint, req ApplyTemplateRequest) (*Response[ApplyTemplateResult], error) {
	return do[ApplyTemplateResult](ctx, s.c, http.MethodPost, fmt.Sprintf("/api/alarms/templates/%d/apply", id), nil, req)
}

func (s *TemplateService) Search(ctx context.Context, query string) (*Response[[]AlarmTemplate], error) {
	v := url.Values{}
	v.Set("q", query)
	return do[[]AlarmTemplate](ctx, s.c, http.MethodGet, "/api/alarms/templates/search", v, nil)
}

func (s *TemplateService) MostUsed(ctx context.Context, limit int) (*Response[[]AlarmTemplate], error) {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return do[[]AlarmTemplate](ctx, s.c, http.MethodGet, "/api/alarms/templates/most-used", v, nil)
}

func (s *TemplateService) Statistics(ctx context.Context) (*Response[TemplateStatistics], error) {
	return do[TemplateStatistics](ctx, s.c, http.MethodGet, "/api/alarms/templates/statistics", nil, nil)
}
