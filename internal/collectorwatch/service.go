// Package collectorwatch 엣지 수집기 등록과 상태 감시.
// Redis heartbeat 키를 우선 확인하고, 없으면 HTTP 헬스 프로브로 확인한다.
package collectorwatch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pulseone-console/internal/config"
	"pulseone-console/internal/models"
)

// HeartbeatKeyPrefix 수집기가 주기적으로 갱신하는 Redis 키의 접두사.
// 값은 unix 초 문자열이다.
const HeartbeatKeyPrefix = "pulseone:collector:heartbeat:"

var (
	ErrNotFound   = errors.New("collector not found")
	ErrValidation = errors.New("validation failed")
)

// Service 수집기 레지스트리 + 백그라운드 감시 루프
type Service struct {
	db     *gorm.DB
	rdb    *redis.Client
	cfg    config.WatchConfig
	logger *zap.Logger
	httpc  *http.Client

	ctx        context.Context
	cancel     context.CancelFunc
	probeQueue chan uint
	wg         sync.WaitGroup
}

func NewService(db *gorm.DB, rdb *redis.Client, cfg config.WatchConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	probeTimeout := time.Duration(cfg.ProbeTimeout) * time.Second
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DialContext: (&net.Dialer{
			Timeout:   probeTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: probeTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		db:     db,
		rdb:    rdb,
		cfg:    cfg,
		logger: log,
		httpc: &http.Client{
			Timeout:   probeTimeout,
			Transport: transport,
		},
		ctx:        ctx,
		cancel:     cancel,
		probeQueue: make(chan uint, 256),
	}
}

func (s *Service) ListCollectors(ctx context.Context) ([]models.Collector, error) {
	var collectors []models.Collector
	err := s.db.WithContext(ctx).
		Order("server_name ASC").
		Find(&collectors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list collectors: %w", err)
	}
	return collectors, nil
}

// ListActiveCollectors online 상태만
func (s *Service) ListActiveCollectors(ctx context.Context) ([]models.Collector, error) {
	var collectors []models.Collector
	err := s.db.WithContext(ctx).
		Where("status = ?", models.CollectorOnline).
		Order("server_name ASC").
		Find(&collectors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active collectors: %w", err)
	}
	return collectors, nil
}

func (s *Service) GetCollector(ctx context.Context, id uint) (*models.Collector, error) {
	var collector models.Collector
	if err := s.db.WithContext(ctx).First(&collector, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &collector, nil
}

// RegisterCollector 등록 토큰을 발급해 수집기를 추가한다.
// 토큰은 등록 응답에서 한 번만 노출된다.
func (s *Service) RegisterCollector(ctx context.Context, collector *models.Collector) error {
	if collector.ServerName == "" {
		return fmt.Errorf("%w: server_name is required", ErrValidation)
	}
	if collector.IPAddress == "" {
		return fmt.Errorf("%w: ip_address is required", ErrValidation)
	}
	if collector.Port <= 0 {
		collector.Port = 8080
	}

	collector.RegistrationToken = uuid.NewString()
	collector.Status = models.CollectorOffline
	collector.LastSeen = nil

	if err := s.db.WithContext(ctx).Create(collector).Error; err != nil {
		return fmt.Errorf("failed to register collector: %w", err)
	}

	s.logger.Info("collector registered",
		zap.Uint("collector_id", collector.ID),
		zap.String("server_name", collector.ServerName),
		zap.String("endpoint", collector.Endpoint()))
	return nil
}

func (s *Service) UnregisterCollector(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Collector{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to unregister collector: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	if s.rdb != nil {
		s.rdb.Del(ctx, heartbeatKey(id))
	}

	s.logger.Info("collector unregistered", zap.Uint("collector_id", id))
	return nil
}

// HealthResult 온디맨드 헬스 확인 결과
type HealthResult struct {
	ID             uint       `json:"id"`
	ServerName     string     `json:"server_name"`
	Status         string     `json:"status"`
	Healthy        bool       `json:"healthy"`
	LastSeen       *time.Time `json:"last_seen"`
	ResponseTimeMs int64      `json:"response_time_ms"`
	CheckedAt      time.Time  `json:"checked_at"`
}

// Health 즉시 프로브를 수행하고 상태를 갱신해 결과를 돌려준다
func (s *Service) Health(ctx context.Context, id uint) (*HealthResult, error) {
	collector, err := s.GetCollector(ctx, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	status := s.determineStatus(ctx, collector)
	elapsed := time.Since(start).Milliseconds()

	s.applyStatus(ctx, collector, status)

	return &HealthResult{
		ID:             collector.ID,
		ServerName:     collector.ServerName,
		Status:         collector.Status,
		Healthy:        collector.Status == models.CollectorOnline,
		LastSeen:       collector.LastSeen,
		ResponseTimeMs: elapsed,
		CheckedAt:      time.Now(),
	}, nil
}

// PingRedis heartbeat 저장소 연결 확인 (헬스 체크용)
func (s *Service) PingRedis(ctx context.Context) error {
	if s.rdb == nil {
		return errors.New("redis not configured")
	}
	return s.rdb.Ping(ctx).Err()
}

func heartbeatKey(id uint) string {
	return fmt.Sprintf("%s%d", HeartbeatKeyPrefix, id)
}
