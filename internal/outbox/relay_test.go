package outbox

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormMysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"resume-match-go/internal/types"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gormMysql.New(gormMysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

type fakePublisher struct {
	mu     sync.Mutex
	bodies []string
	failOn string // 包含该内容的消息发布失败
}

func (p *fakePublisher) PublishMessage(_ context.Context, exchange, routingKey string, message []byte, persistent bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn != "" && regexp.MustCompile(regexp.QuoteMeta(p.failOn)).Match(message) {
		return errors.New("broker unavailable")
	}
	p.bodies = append(p.bodies, exchange+"|"+routingKey+"|"+string(message))
	return nil
}

var outboxColumns = []string{
	"id", "aggregate_id", "event_type", "payload", "exchange", "routing_key",
	"status", "retry_count", "created_at", "sent_at", "last_error",
}

func TestWriter_PublishAnalysisCompleted(t *testing.T) {
	db, mock := newMockDB(t)
	w := NewWriter(db, "resume.analysis.exchange", "analysis.completed")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `outbox_messages`")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := w.PublishAnalysisCompleted(context.Background(), &types.AnalysisCompletedEvent{
		SessionID:       "sess-1",
		Source:          types.SourceBackend,
		Recommendations: 3,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriter_InsertError(t *testing.T) {
	db, mock := newMockDB(t)
	w := NewWriter(db, "ex", "rk")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `outbox_messages`")).
		WillReturnError(errors.New("disk full"))

	err := w.PublishAnalysisCompleted(context.Background(), &types.AnalysisCompletedEvent{SessionID: "sess-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "写入发件箱失败")
}

func TestMessageRelay_ProcessPending(t *testing.T) {
	db, mock := newMockDB(t)
	pub := &fakePublisher{failOn: "sess-2"}
	relay := NewMessageRelay(db, pub, WithBatchSize(5))

	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(outboxColumns).
		AddRow(1, "sess-1", "analysis.completed", `{"session_id":"sess-1"}`, "ex", "rk", "PENDING", 0, now, nil, "").
		AddRow(2, "sess-2", "analysis.completed", `{"session_id":"sess-2"}`, "ex", "rk", "PENDING", 0, now, nil, "")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `outbox_messages` WHERE status = \\?.*FOR UPDATE SKIP LOCKED").
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `outbox_messages`")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `outbox_messages`")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sent, err := relay.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "第二条发布失败，等待下次重试")
	require.Len(t, pub.bodies, 1)
	assert.Equal(t, `ex|rk|{"session_id":"sess-1"}`, pub.bodies[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRelay_EmptyPoll(t *testing.T) {
	db, mock := newMockDB(t)
	relay := NewMessageRelay(db, &fakePublisher{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `outbox_messages`").
		WillReturnRows(sqlmock.NewRows(outboxColumns))
	mock.ExpectCommit()

	sent, err := relay.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRelay_UpdateFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	relay := NewMessageRelay(db, &fakePublisher{})

	rows := sqlmock.NewRows(outboxColumns).
		AddRow(7, "sess-7", "analysis.completed", `{}`, "ex", "rk", "PENDING", 0, time.Now(), nil, "")
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `outbox_messages`").WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `outbox_messages`")).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	_, err := relay.ProcessPending(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRelay_StartStop(t *testing.T) {
	db, mock := newMockDB(t)
	mock.MatchExpectationsInOrder(false)
	relay := NewMessageRelay(db, &fakePublisher{}, WithPollingInterval(time.Hour))

	relay.Start()
	relay.Stop()
}
