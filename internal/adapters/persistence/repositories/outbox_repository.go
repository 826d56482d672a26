package repositories

import (
	"context"
	"encoding/json"
	"time"

	"campus-aid-buddy/internal/adapters/persistence/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddOutboxEvent records an entity change inside tx. The search sync worker
// picks it up after commit.
func AddOutboxEvent(tx *gorm.DB, entityType, entityID, op string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := models.OutboxEvent{
		EntityType: entityType,
		EntityID:   entityID,
		Op:         op,
		Payload:    datatypes.JSON(data),
	}
	return tx.Create(&event).Error
}

// outboxRepository implements OutboxRepository interface
type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

// FetchBatch claims rows with SKIP LOCKED so several workers can drain the
// outbox concurrently.
func (r *outboxRepository) FetchBatch(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("processed = ?", false).
			Order("id ASC").
			Limit(limit).
			Find(&events).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		ids := make([]int64, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		return tx.Model(&models.OutboxEvent{}).Where("id IN ?", ids).Update("processed", true).Error
	})

	return events, err
}

func (r *outboxRepository) PutDLQ(ctx context.Context, ev models.OutboxEvent, msg string) error {
	dlq := models.OutboxDLQ{
		OutboxID:   ev.ID,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		Op:         ev.Op,
		ErrorMsg:   msg,
		Payload:    ev.Payload,
	}
	return r.db.WithContext(ctx).Create(&dlq).Error
}

func (r *outboxRepository) ListUnresolvedDLQ(ctx context.Context, limit int) ([]models.OutboxDLQ, error) {
	var rows []models.OutboxDLQ
	err := r.db.WithContext(ctx).Where("resolved = ?", false).Order("id ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *outboxRepository) ResolveDLQ(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.OutboxDLQ{}).Where("id = ?", id).Updates(map[string]interface{}{
		"resolved":   true,
		"retried_at": &at,
	}).Error
}

func (r *outboxRepository) CountUnresolvedDLQ(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OutboxDLQ{}).Where("resolved = ?", false).Count(&count).Error
	return count, err
}
