package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ticketRepository implements TicketRepository interface
type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func orderedActivities(db *gorm.DB) *gorm.DB {
	return db.Order("sequence ASC")
}

func (r *ticketRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Ticket{}).Where("ticket_number = ?", number).Count(&count).Error
	return count > 0, err
}

func (r *ticketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Activities").Create(ticket).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateEntry
			}
			return err
		}

		for i := range ticket.Activities {
			a := &ticket.Activities[i]
			a.TicketID = ticket.ID
			a.Sequence = i + 1
			if err := tx.Create(a).Error; err != nil {
				return err
			}
		}

		return AddOutboxEvent(tx, models.OutboxEntityTicket, ticket.ID, models.OutboxOpUpsert, ticket)
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	return r.getByID(r.db.WithContext(ctx), id)
}

func (r *ticketRepository) getByID(db *gorm.DB, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := db.Preload("Activities", orderedActivities).Where("id = ?", id).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// ListBySubmitter returns the user's tickets, newest first
func (r *ticketRepository) ListBySubmitter(ctx context.Context, submitterID string) ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	err := r.db.WithContext(ctx).
		Preload("Activities", orderedActivities).
		Where("submitter_id = ?", submitterID).
		Order("created_at DESC").
		Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepository) List(ctx context.Context, f TicketFilter, offset, limit int) ([]*models.Ticket, int64, error) {
	var tickets []*models.Ticket
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Ticket{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if len(f.Categories) > 0 {
		query = query.Where("category IN ?", f.Categories)
	}
	if f.Department != "" {
		query = query.Where("department = ?", f.Department)
	}
	if f.RoutedDepartment != "" {
		query = query.Where("routed_department = ?", f.RoutedDepartment)
	}
	if f.SubmitterID != "" {
		query = query.Where("submitter_id = ?", f.SubmitterID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := query.Preload("Activities", orderedActivities).Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

// ListOpenCreatedBefore returns pending and in-progress tickets older than before
func (r *ticketRepository) ListOpenCreatedBefore(ctx context.Context, before time.Time) ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	err := r.db.WithContext(ctx).
		Where("status IN ?", []domain.TicketStatus{domain.StatusPending, domain.StatusInProgress}).
		Where("created_at < ?", before).
		Order("created_at ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepository) Mutate(ctx context.Context, id string, fn TicketMutation) (*models.Ticket, error) {
	var out *models.Ticket

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ticket models.Ticket
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&ticket).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrTicketNotFound
			}
			return err
		}

		change, err := fn(&ticket)
		if err != nil {
			return err
		}
		if change == nil || change.Activity == nil {
			return fmt.Errorf("ticket mutation for %s produced no activity entry", id)
		}

		var lastSeq int
		if err := tx.Model(&models.TicketActivity{}).
			Where("ticket_id = ?", ticket.ID).
			Select("COALESCE(MAX(sequence), 0)").
			Scan(&lastSeq).Error; err != nil {
			return err
		}

		change.Activity.TicketID = ticket.ID
		change.Activity.Sequence = lastSeq + 1
		if err := tx.Create(change.Activity).Error; err != nil {
			return err
		}

		if len(change.Updates) > 0 {
			if err := tx.Model(&ticket).Updates(change.Updates).Error; err != nil {
				return err
			}
		}

		updated, err := r.getByID(tx, ticket.ID)
		if err != nil {
			return err
		}
		if err := AddOutboxEvent(tx, models.OutboxEntityTicket, updated.ID, models.OutboxOpUpsert, updated); err != nil {
			return err
		}

		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
