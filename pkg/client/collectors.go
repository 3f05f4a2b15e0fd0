package client

import (
	"context"
	"fmt"
	"net/http"
)

// CollectorService 엣지 수집 서버 API
type CollectorService struct {
	c *Client
}

func (s *CollectorService) List(ctx context.Context) (*Response[[]Collector], error) {
	return do[[]Collector](ctx, s.c, http.MethodGet, "/api/collectors", nil, nil)
}

// Active online 상태의 수집기만
func (s *CollectorService) Active(ctx context.Context) (*Response[[]Collector], error) {
	return do[[]Collector](ctx, s.c, http.MethodGet, "/api/collectors/active", nil, nil)
}

// Health 수집기 1대의 즉시 헬스 프로브 결과
func (s *CollectorService) Health(ctx context.Context, id uint) (*Response[CollectorHealth], error) {
	return do[CollectorHealth](ctx, s.c, http.MethodGet, fmt.Sprintf("/api/collectors/%d/health", id), nil, nil)
}

// Register 수집기 등록. 응답에 등록 토큰이 1회 포함된다.
func (s *CollectorService) Register(ctx context.Context, req RegisterCollectorRequest) (*Response[Collector], error) {
	return do[Collector](ctx, s.c, http.MethodPost, "/api/collectors/register", nil, req)
}

func (s *CollectorService) Unregister(ctx context.Context, id uint) (*Response[struct{}], error) {
	return do[struct{}](ctx, s.c, http.MethodDelete, fmt.Sprintf("/api/collectors/%d", id), nil, nil)
}
