package alarm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pulseone-console/internal/models"
)

// newTestDB 테스트마다 독립된 in-memory sqlite.
// 이름을 붙인 shared cache라 gorm 커넥션 풀에서도 같은 DB를 본다.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.AlarmRule{},
		&models.AlarmOccurrence{},
		&models.AlarmTemplate{},
	))
	return db
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return NewService(newTestDB(t), zap.NewNop(), opts...)
}

// recordingSink 발행된 이벤트를 "type:occurrenceID" 형태로 쌓는다
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSink) Publish(_ context.Context, eventType string, occ *models.AlarmOccurrence) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("%s:%d", eventType, occ.ID))
}

func (r *recordingSink) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func TestService_Ping(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Ping(context.Background()))
}

// uintp 테스트 픽스처용 포인터 도우미
func uintp(v uint) *uint { return &v }

func floatp(v float64) *float64 { return &v }

func boolp(v bool) *bool { return &v }

func strp(v string) *string { return &v }
