// Package events 알람 상태 변화를 Redis Streams로 발행.
// 대시보드 등 실시간 구독자가 XREAD로 소비한다.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"pulseone-console/internal/models"
)

// DefaultStream 알람 이벤트 스트림 키
const DefaultStream = "pulseone:alarms:events"

// 스트림 길이 상한 (XADD MAXLEN ~)
const maxStreamLength = 10000

// Publisher alarm.EventSink 구현.
// 발행 실패는 경고만 남기고 본 작업을 막지 않는다.
type Publisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewPublisher(client *redis.Client, stream string, log *zap.Logger) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		client: client,
		stream: stream,
		logger: log,
	}
}

func (p *Publisher) Publish(ctx context.Context, eventType string, occ *models.AlarmOccurrence) {
	data, err := json.Marshal(occ)
	if err != nil {
		p.logger.Warn("failed to marshal occurrence for event stream",
			zap.Uint("occurrence_id", occ.ID),
			zap.Error(err))
		return
	}

	values := map[string]interface{}{
		"event":         eventType,
		"occurrence_id": occ.ID,
		"rule_id":       occ.RuleID,
		"severity":      occ.Severity,
		"data":          string(data),
		"timestamp":     time.Now().Unix(),
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: maxStreamLength,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		p.logger.Warn("failed to publish alarm event",
			zap.String("event", eventType),
			zap.Uint("occurrence_id", occ.ID),
			zap.Error(err))
	}
}

// Stream 발행 대상 스트림 키
func (p *Publisher) Stream() string {
	return p.stream
}
