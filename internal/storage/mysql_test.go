package storage

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormMysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockMySQL(t *testing.T) (*MySQL, sqlmock.Sqlmock) {
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

	m, err := NewMySQLWithDB(db, "resume_match")
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	return m, mock
}

// payloadArg 检查写入的JSON中包含指定字段
type payloadArg struct {
	key   string
	value any
}

func (p payloadArg) Match(v driver.Value) bool {
	var raw []byte
	switch b := v.(type) {
	case string:
		raw = []byte(b)
	case []byte:
		raw = b
	default:
		return false
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false
	}
	return doc[p.key] == p.value
}

func TestMySQL_Insert(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `documents`")).
		WithArgs(sqlmock.AnyArg(), "resumes", "sess-1", payloadArg{"full_name", "John Doe"}, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := m.Insert(context.Background(), "resumes", map[string]any{
		"session_id": "sess-1",
		"full_name":  "John Doe",
	})
	require.NoError(t, err)

	parsed, err := uuid.FromString(id)
	require.NoError(t, err, "记录ID应为UUID")
	assert.Equal(t, byte(7), parsed.Version())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_InsertError(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `documents`")).
		WillReturnError(errors.New("数据库错误"))

	_, err := m.Insert(context.Background(), "resumes", map[string]any{"full_name": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "数据库错误")

	_, err = m.Insert(context.Background(), "", map[string]any{})
	assert.Error(t, err, "collection为空应报错")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_FindBySession(t *testing.T) {
	m, mock := newMockMySQL(t)

	rows := sqlmock.NewRows([]string{"id", "collection", "session_id", "payload", "created_at"}).
		AddRow("0190a0b0-0000-7000-8000-000000000002", "resumes", "sess-1", `{"object_key":"resumes/cv_20260504_100000.pdf"}`, time.Now()).
		AddRow("0190a0b0-0000-7000-8000-000000000001", "resumes", "sess-1", `not-json`, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `documents` WHERE collection = ? AND session_id = ?")).
		WithArgs("resumes", "sess-1").
		WillReturnRows(rows)

	records, err := m.FindBySession(context.Background(), "resumes", "sess-1")
	require.NoError(t, err)
	require.Len(t, records, 1, "无法解析的记录应被跳过")
	assert.Equal(t, "resumes/cv_20260504_100000.pdf", records[0]["object_key"])
	assert.Equal(t, "0190a0b0-0000-7000-8000-000000000002", records[0]["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_FindBySessionError(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `documents`")).
		WillReturnError(errors.New("连接已断开"))

	_, err := m.FindBySession(context.Background(), "resumes", "sess-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "连接已断开")
	assert.NoError(t, mock.ExpectationsWereMet())
}
