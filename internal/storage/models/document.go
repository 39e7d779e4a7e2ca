package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document 文档库中的一条扁平记录，Payload 保存原始字段
type Document struct {
	ID         string         `gorm:"type:char(36);primaryKey" json:"id"`
	Collection string         `gorm:"type:varchar(64);not null;index:idx_documents_collection_session" json:"collection"`
	SessionID  string         `gorm:"type:varchar(64);index:idx_documents_collection_session" json:"session_id,omitempty"`
	Payload    datatypes.JSON `gorm:"type:json;not null" json:"payload"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TableName 指定表名
func (Document) TableName() string {
	return "documents"
}
