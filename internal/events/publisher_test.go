package events

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pulseone-console/internal/models"
)

func newTestPublisher(t *testing.T, stream string) (*Publisher, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewPublisher(client, stream, zap.NewNop()), client
}

func TestPublisher_Publish_WritesStreamEntry(t *testing.T) {
	pub, client := newTestPublisher(t, "")
	ctx := context.Background()

	occ := &models.AlarmOccurrence{
		ID:           42,
		RuleID:       7,
		AlarmMessage: "Boiler outlet temp high",
		Severity:     "high",
		State:        "active",
		DeviceName:   "dev-01",
	}

	pub.Publish(ctx, "triggered", occ)

	msgs, err := client.XRange(ctx, DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	values := msgs[0].Values
	assert.Equal(t, "triggered", values["event"])
	assert.Equal(t, "42", values["occurrence_id"])
	assert.Equal(t, "7", values["rule_id"])
	assert.Equal(t, "high", values["severity"])

	// data 필드는 발생 건 전체의 JSON
	var decoded models.AlarmOccurrence
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &decoded))
	assert.Equal(t, uint(42), decoded.ID)
	assert.Equal(t, "dev-01", decoded.DeviceName)
	assert.Equal(t, "Boiler outlet temp high", decoded.AlarmMessage)

	ts, err := strconv.ParseInt(values["timestamp"].(string), 10, 64)
	require.NoError(t, err)
	assert.InDelta(t, time.Now().Unix(), ts, 5)
}

func TestPublisher_Publish_AppendsInOrder(t *testing.T) {
	pub, client := newTestPublisher(t, "")
	ctx := context.Background()

	occ := &models.AlarmOccurrence{ID: 1, Severity: "medium", State: "active"}

	pub.Publish(ctx, "triggered", occ)
	pub.Publish(ctx, "acknowledged", occ)
	pub.Publish(ctx, "cleared", occ)

	msgs, err := client.XRange(ctx, DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "triggered", msgs[0].Values["event"])
	assert.Equal(t, "acknowledged", msgs[1].Values["event"])
	assert.Equal(t, "cleared", msgs[2].Values["event"])
}

func TestPublisher_StreamName(t *testing.T) {
	pub, _ := newTestPublisher(t, "")
	assert.Equal(t, DefaultStream, pub.Stream(), "empty name falls back to the default stream")

	custom, client := newTestPublisher(t, "pulseone:test:events")
	assert.Equal(t, "pulseone:test:events", custom.Stream())

	occ := &models.AlarmOccurrence{ID: 3, Severity: "low"}
	custom.Publish(context.Background(), "triggered", occ)

	msgs, err := client.XRange(context.Background(), "pulseone:test:events", "-", "+").Result()
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestPublisher_Publish_RedisDownDoesNotPanic(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	pub := NewPublisher(client, "", nil)
	mr.Close()

	occ := &models.AlarmOccurrence{ID: 9, Severity: "high"}

	// 발행 실패는 경고 로그만 남긴다
	assert.NotPanics(t, func() {
		pub.Publish(context.Background(), "triggered", occ)
	})
}
