package client

import (
	"context"
	"net/http"
)

// SettingsService 시스템 설정 API
type SettingsService struct {
	c *Client
}

// Get 전체 설정 (카테고리명 → 설정 객체)
func (s *SettingsService) Get(ctx context.Context) (*Response[SystemSettings], error) {
	return do[SystemSettings](ctx, s.c, http.MethodGet, "/api/settings", nil, nil)
}

// Update 전달한 카테고리만 교체. 알 수 없는 카테고리는 서버가 거부한다.
func (s *SettingsService) Update(ctx context.Context, settings SystemSettings) (*Response[SystemSettings], error) {
	return do[SystemSettings](ctx, s.c, http.MethodPut, "/api/settings", nil, settings)
}
