package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/types"
)

// Writer 把分析完成事件写入发件箱
type Writer struct {
	db         *gorm.DB
	exchange   string
	routingKey string
	now        func() time.Time
}

// NewWriter exchange/routingKey 为事件的发布目标
func NewWriter(db *gorm.DB, exchange, routingKey string) *Writer {
	return &Writer{db: db, exchange: exchange, routingKey: routingKey, now: time.Now}
}

// PublishAnalysisCompleted 写入一条 PENDING 消息
func (w *Writer) PublishAnalysisCompleted(ctx context.Context, evt *types.AnalysisCompletedEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	msg := &models.OutboxMessage{
		AggregateID: evt.SessionID,
		EventType:   storage.EventAnalysisCompleted,
		Payload:     payload,
		Exchange:    w.exchange,
		RoutingKey:  w.routingKey,
		Status:      models.OutboxPending,
		CreatedAt:   w.now(),
	}
	if err := w.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("写入发件箱失败: %w", err)
	}
	return nil
}
