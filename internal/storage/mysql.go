package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"resume-match-go/internal/config"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/tracing"
)

var mysqlTracer = otel.Tracer("resume-match-go/storage/mysql")

type spanContextKey struct{}

// GormTracingPlugin 为GORM操作创建span
type GormTracingPlugin struct {
	tracer   trace.Tracer
	dbName   string
	skipHook bool
}

// NewGormTracingPlugin 创建追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName, skipHook: true}
}

func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册 before/after 回调
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	steps := []struct {
		op     string
		before func(string) error
		after  func(string) error
	}{
		{"INSERT", func(n string) error { return cb.Create().Before("gorm:create").Register(n, p.before("INSERT")) },
			func(n string) error { return cb.Create().After("gorm:create").Register(n, p.after()) }},
		{"SELECT", func(n string) error { return cb.Query().Before("gorm:query").Register(n, p.before("SELECT")) },
			func(n string) error { return cb.Query().After("gorm:query").Register(n, p.after()) }},
		{"UPDATE", func(n string) error { return cb.Update().Before("gorm:update").Register(n, p.before("UPDATE")) },
			func(n string) error { return cb.Update().After("gorm:update").Register(n, p.after()) }},
		{"DELETE", func(n string) error { return cb.Delete().Before("gorm:delete").Register(n, p.before("DELETE")) },
			func(n string) error { return cb.Delete().After("gorm:delete").Register(n, p.after()) }},
		{"RAW", func(n string) error { return cb.Raw().Before("gorm:raw").Register(n, p.before("RAW")) },
			func(n string) error { return cb.Raw().After("gorm:raw").Register(n, p.after()) }},
	}
	for _, s := range steps {
		if err := s.before("otel:before_" + s.op); err != nil {
			return err
		}
		if err := s.after("otel:after_" + s.op); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.skipHook && db.Statement.SkipHooks {
			return
		}
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		newCtx, span := p.tracer.Start(ctx, operation+" "+table,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", table),
			))
		db.Statement.Context = context.WithValue(newCtx, spanContextKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(spanContextKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		if sql := db.Statement.SQL.String(); sql != "" {
			span.SetAttributes(attribute.String("db.statement", tracing.SafeSQL(sql)))
		}
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
		}
	}
}

// MySQL 基于GORM的文档库
type MySQL struct {
	db     *gorm.DB
	dbName string
	now    func() time.Time
}

// NewMySQL 连接MySQL，注册追踪插件并迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	db, err := gorm.Open(mysql.Open(cfg.BuildDSN()), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	m, err := NewMySQLWithDB(db, cfg.Database)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	silent := db.Session(&gorm.Session{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err := silent.AutoMigrate(&models.Document{}, &models.OutboxMessage{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log := logger.Component("mysql")
	log.Info().Str("database", cfg.Database).Msg("成功连接到MySQL并完成迁移")
	return m, nil
}

// NewMySQLWithDB 使用已有连接，不做迁移
func NewMySQLWithDB(db *gorm.DB, dbName string) (*MySQL, error) {
	if err := db.Use(NewGormTracingPlugin(dbName)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}
	return &MySQL{db: db, dbName: dbName, now: time.Now}, nil
}

func gormLogLevel(level int) gormlogger.LogLevel {
	switch level {
	case 1:
		return gormlogger.Silent
	case 2:
		return gormlogger.Error
	case 3:
		return gormlogger.Warn
	case 4:
		return gormlogger.Info
	default:
		return gormlogger.Error
	}
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Ping 检查连接
func (m *MySQL) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// Insert 写入一条记录，返回生成的ID(UUIDv7)
func (m *MySQL) Insert(ctx context.Context, collection string, record map[string]any) (string, error) {
	if collection == "" {
		return "", errors.New("collection不能为空")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("生成记录ID失败: %w", err)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("序列化记录失败: %w", err)
	}

	doc := &models.Document{
		ID:         id.String(),
		Collection: collection,
		Payload:    payload,
		CreatedAt:  m.now().UTC(),
	}
	if sid, ok := record["session_id"].(string); ok {
		doc.SessionID = sid
	}

	if err := m.db.WithContext(ctx).Create(doc).Error; err != nil {
		return "", fmt.Errorf("写入 %s 失败: %w", collection, err)
	}
	return doc.ID, nil
}

// FindBySession 按会话查询某个集合的记录，按时间倒序
// 返回解码后的Payload，并补上记录ID
func (m *MySQL) FindBySession(ctx context.Context, collection, sessionID string) ([]map[string]any, error) {
	var docs []models.Document
	err := m.db.WithContext(ctx).
		Where("collection = ? AND session_id = ?", collection, sessionID).
		Order("created_at desc").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("查询 %s 失败: %w", collection, err)
	}

	records := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		record := map[string]any{}
		if err := json.Unmarshal(doc.Payload, &record); err != nil {
			log := logger.Component("mysql")
			log.Warn().Err(err).Str("id", doc.ID).Msg("记录Payload无法解析，跳过")
			continue
		}
		record["id"] = doc.ID
		records = append(records, record)
	}
	return records, nil
}
