package models

import (
	"time"

	"gorm.io/datatypes"
)

// 发件箱消息状态
const (
	OutboxPending = "PENDING"
	OutboxSent    = "SENT"
	OutboxFailed  = "FAILED"
)

// OutboxMessage 待异步发布的事件
type OutboxMessage struct {
	ID          uint64         `gorm:"primaryKey;autoIncrement"`
	AggregateID string         `gorm:"type:varchar(64);not null;index"` // 会话ID
	EventType   string         `gorm:"type:varchar(128);not null"`
	Payload     datatypes.JSON `gorm:"type:json;not null"`
	Exchange    string         `gorm:"type:varchar(255);not null"`
	RoutingKey  string         `gorm:"type:varchar(255);not null"`
	Status      string         `gorm:"type:varchar(20);default:'PENDING';not null;index:idx_outbox_status_created_at"`
	RetryCount  int            `gorm:"default:0"`
	CreatedAt   time.Time      `gorm:"type:datetime(6);index:idx_outbox_status_created_at,sort:asc"`
	SentAt      *time.Time     `gorm:"type:datetime(6);null"`
	LastError   string         `gorm:"type:text"`
}

// TableName specifies the table name for the OutboxMessage model.
func (OutboxMessage) TableName() string {
	return "outbox_messages"
}
