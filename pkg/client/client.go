// Package client PulseOne 콘솔 백엔드용 REST 클라이언트.
// 모든 응답은 {success, data, message, error_code, timestamp} envelope로
// 정규화되며, HTTP 수준 실패는 Go error가 아니라 success:false envelope로
// 반환된다. Go error는 컨텍스트 취소 같은 호출자 측 조건에만 쓰인다.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// 전송 계층 오류 코드. 화면 분기가 이 값에 의존하므로 문자열 고정.
const (
	CodeEmptyResponse  = "EMPTY_RESPONSE"
	CodeHTMLResponse   = "HTML_RESPONSE"
	CodeJSONParseError = "JSON_PARSE_ERROR"
	CodeNetworkError   = "NETWORK_ERROR"
)

// Response 공통 응답 envelope
type Response[T any] struct {
	Success   bool   `json:"success"`
	Data      T      `json:"data"`
	Message   string `json:"message,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthStatus GET /api/health 응답
type HealthStatus struct {
	Status        string `json:"status"`
	Version       string `json:"version,omitempty"`
	Database      bool   `json:"database"`
	Redis         bool   `json:"redis"`
	Elasticsearch bool   `json:"elasticsearch"`
}

// Client 주입식 단일 인스턴스. 프로세스 시작 시 한 번 만들어 전달한다.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger

	Rules       *RuleService
	Occurrences *OccurrenceService
	Templates   *TemplateService
	Collectors  *CollectorService
	Settings    *SettingsService
}

type Option func(*Client)

// WithHTTPClient 커스텀 http.Client 사용 (테스트 더블 주입용)
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpc = h
	}
}

// WithTimeout 요청 타임아웃 설정
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpc.Timeout = d
	}
}

// WithLogger zap 로거 주입
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New 클라이언트 생성
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Rules = &RuleService{c: c}
	c.Occurrences = &OccurrenceService{c: c}
	c.Templates = &TemplateService{c: c}
	c.Collectors = &CollectorService{c: c}
	c.Settings = &SettingsService{c: c}

	return c
}

// BaseURL 설정된 베이스 URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health 백엔드 헬스 체크
func (c *Client) Health(ctx context.Context) (*Response[HealthStatus], error) {
	return do[HealthStatus](ctx, c, http.MethodGet, "/api/health", nil, nil)
}

// failure 전송 계층 실패 envelope 생성
func failure[T any](code, message string) *Response[T] {
	return &Response[T]{
		Success:   false,
		Message:   message,
		ErrorCode: code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// do 요청 실행 + envelope 디코드.
// 메서드는 타입 파라미터를 가질 수 없어 패키지 함수로 둔다.
func do[T any](ctx context.Context, c *Client, method, path string, query url.Values, body interface{}) (*Response[T], error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		// 취소/타임아웃은 호출자가 구분할 수 있게 Go error로 돌려준다
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("url", u),
			zap.Error(err))
		return failure[T](CodeNetworkError, err.Error()), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return failure[T](CodeNetworkError, err.Error()), nil
	}

	return decode[T](resp.StatusCode, raw), nil
}

// decode 응답 본문을 envelope로 변환.
//   - 빈 본문            → EMPTY_RESPONSE
//   - HTML 오류 페이지    → HTML_RESPONSE (리버스 프록시 502 등)
//   - 그 외 파싱 실패     → JSON_PARSE_ERROR
//   - 2xx 외 상태        → success:false, message는 본문 우선
func decode[T any](status int, raw []byte) *Response[T] {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return failure[T](CodeEmptyResponse, "empty response body")
	}

	var envelope Response[T]
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		lower := strings.ToLower(string(trimmed))
		if strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") {
			return failure[T](CodeHTMLResponse, fmt.Sprintf("server returned an HTML page (status %d)", status))
		}
		return failure[T](CodeJSONParseError, err.Error())
	}

	if status < 200 || status >= 300 {
		envelope.Success = false
		if envelope.Message == "" {
			envelope.Message = http.StatusText(status)
		}
	}

	if envelope.Timestamp == "" {
		envelope.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	return &envelope
}
