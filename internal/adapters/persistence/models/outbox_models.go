package models

import (
	"time"

	"gorm.io/datatypes"
)

// Outbox operations
const (
	OutboxOpUpsert = "UPSERT"
	OutboxOpDelete = "DELETE"
)

// Outbox entity types
const (
	OutboxEntityTicket = "ticket"
)

// OutboxEvent represents outbox_events table. Rows are written in the same
// transaction as the entity change and drained by the search sync worker.
type OutboxEvent struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityType string         `gorm:"size:30;not null;index" json:"entity_type"`
	EntityID   string         `gorm:"size:36;not null" json:"entity_id"`
	Op         string         `gorm:"size:20;not null" json:"op"`
	Payload    datatypes.JSON `json:"payload"`
	Processed  bool           `gorm:"default:false;index" json:"processed"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}

// OutboxDLQ represents outbox_dlq table
type OutboxDLQ struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OutboxID   int64          `gorm:"index" json:"outbox_id"`
	EntityType string         `gorm:"size:30" json:"entity_type"`
	EntityID   string         `gorm:"size:36" json:"entity_id"`
	Op         string         `gorm:"size:20" json:"op"`
	ErrorMsg   string         `gorm:"type:text" json:"error_msg"`
	Payload    datatypes.JSON `json:"payload"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	RetriedAt  *time.Time     `json:"retried_at"`
	Resolved   bool           `gorm:"default:false;index" json:"resolved"`
}

func (OutboxDLQ) TableName() string {
	return "outbox_dlq"
}
