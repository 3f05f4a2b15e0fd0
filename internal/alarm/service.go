// Package alarm 알람 규칙/발생/템플릿 도메인 서비스.
// 규칙 평가는 수집기 책임이고, 여기는 정의 관리와 발생 라이프사이클만 다룬다.
package alarm

import (
	"context"
	"errors"

	"pulseone-console/internal/logger"
	"pulseone-console/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrValidation     = errors.New("validation failed")
	ErrInvalidState   = errors.New("invalid state transition")
	ErrSystemTemplate = errors.New("system template cannot be deleted")
)

// EventSink 발생 라이프사이클 이벤트 구독자 (redis stream 등)
type EventSink interface {
	Publish(ctx context.Context, eventType string, occ *models.AlarmOccurrence)
}

// Notifier 발생 시 통지 발송자
type Notifier interface {
	NotifyTriggered(ctx context.Context, rule *models.AlarmRule, occ *models.AlarmOccurrence)
}

// Indexer 발생 이력 검색 인덱스 (elasticsearch)
type Indexer interface {
	IndexOccurrence(ctx context.Context, occ *models.AlarmOccurrence) error
}

// Service 알람 도메인 서비스
type Service struct {
	db     *gorm.DB
	logger *zap.Logger

	events   EventSink
	notifier Notifier
	indexer  Indexer
	auditDir string
}

type Option func(*Service)

func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.events = sink }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithIndexer(ix Indexer) Option {
	return func(s *Service) { s.indexer = ix }
}

// WithAuditDir 감사 로그 디렉터리. 빈 값이면 감사 기록 생략.
func WithAuditDir(dir string) Option {
	return func(s *Service) { s.auditDir = dir }
}

func NewService(db *gorm.DB, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		db:     db,
		logger: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping DB 연결 확인 (헬스 체크용)
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// publish 이벤트 발행 (sink 미설정 시 no-op)
func (s *Service) publish(ctx context.Context, eventType string, occ *models.AlarmOccurrence) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, eventType, occ)
}

// index ES 인덱싱 (미설정 시 no-op, 실패는 경고만)
func (s *Service) index(ctx context.Context, occ *models.AlarmOccurrence) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexOccurrence(ctx, occ); err != nil {
		s.logger.Warn("failed to index occurrence",
			zap.Uint("occurrence_id", occ.ID),
			zap.Error(err))
	}
}

// audit 감사 기록 (실패는 경고만, 본 작업을 막지 않는다)
func (s *Service) audit(action, resource string, resourceID uint, actor uint, detail map[string]interface{}) {
	if s.auditDir == "" {
		return
	}
	entry := &logger.AuditEntry{
		Actor:      actor,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Detail:     detail,
	}
	if err := logger.WriteAudit(s.auditDir, entry); err != nil {
		s.logger.Warn("failed to write audit entry",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.Error(err))
	}
}

// notFoundOr gorm not-found를 도메인 에러로 변환
func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
