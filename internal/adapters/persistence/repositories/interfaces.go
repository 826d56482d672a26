package repositories

import (
	"context"
	"time"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/core/domain"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// TicketFilter narrows ticket listings. Zero values match everything.
type TicketFilter struct {
	Status           domain.TicketStatus
	Category         domain.TicketCategory
	Categories       []domain.TicketCategory
	Department       string
	RoutedDepartment domain.Department
	SubmitterID      string
}

// TicketChange is what a TicketMutation asks the repository to persist:
// column updates plus exactly one appended activity entry.
type TicketChange struct {
	Updates  map[string]interface{}
	Activity *models.TicketActivity
}

// TicketMutation inspects a locked ticket and decides the change. Returning
// an error aborts the transaction.
type TicketMutation func(t *models.Ticket) (*TicketChange, error)

// TicketRepository defines ticket repository interface
type TicketRepository interface {
	NumberExists(ctx context.Context, number string) (bool, error)
	// Create inserts the ticket and its initial activity entries in one
	// transaction. A taken ticket number yields domain.ErrDuplicateEntry.
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	ListBySubmitter(ctx context.Context, submitterID string) ([]*models.Ticket, error)
	List(ctx context.Context, filter TicketFilter, offset, limit int) ([]*models.Ticket, int64, error)
	ListOpenCreatedBefore(ctx context.Context, before time.Time) ([]*models.Ticket, error)
	// Mutate locks the ticket row, applies fn's change and appends its
	// activity entry with the next sequence number.
	Mutate(ctx context.Context, id string, fn TicketMutation) (*models.Ticket, error)
}

// NoticeRepository defines notice repository interface
type NoticeRepository interface {
	Create(ctx context.Context, notice *models.Notice) error
	GetByID(ctx context.Context, id string) (*models.Notice, error)
	Update(ctx context.Context, notice *models.Notice) error
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context, now time.Time) ([]*models.Notice, error)
	List(ctx context.Context, offset, limit int) ([]*models.Notice, int64, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// LectureRepository defines lecture repository interface
type LectureRepository interface {
	Create(ctx context.Context, lecture *models.Lecture) error
	GetByID(ctx context.Context, id string) (*models.Lecture, error)
	Update(ctx context.Context, lecture *models.Lecture) error
	Delete(ctx context.Context, id string) error
	ListPublishedByDepartment(ctx context.Context, department string) ([]*models.Lecture, error)
	ListByUploader(ctx context.Context, uploaderID string) ([]*models.Lecture, error)
	List(ctx context.Context, offset, limit int) ([]*models.Lecture, int64, error)
}

// SyllabusRepository defines syllabus repository interface
type SyllabusRepository interface {
	Create(ctx context.Context, syllabus *models.Syllabus) error
	GetByID(ctx context.Context, id string) (*models.Syllabus, error)
	Update(ctx context.Context, syllabus *models.Syllabus) error
	Delete(ctx context.Context, id string) error
	ListByDepartment(ctx context.Context, department, subject string) ([]*models.Syllabus, error)
}

// LocationRepository defines campus location repository interface
type LocationRepository interface {
	Create(ctx context.Context, location *models.CampusLocation) error
	GetByID(ctx context.Context, id string) (*models.CampusLocation, error)
	Update(ctx context.Context, location *models.CampusLocation) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.CampusLocation, error)
	ListByType(ctx context.Context, t domain.LocationType) ([]*models.CampusLocation, error)
	ListByBuilding(ctx context.Context, building string) ([]*models.CampusLocation, error)
	Search(ctx context.Context, term string) ([]*models.CampusLocation, error)
	Count(ctx context.Context) (int64, error)
}

// QRCodeRepository defines QR code repository interface
type QRCodeRepository interface {
	Create(ctx context.Context, code *models.QRCode) error
	GetActiveByCode(ctx context.Context, code string) (*models.QRCode, error)
	SetActive(ctx context.Context, id string, active bool) error
	ListByLocation(ctx context.Context, locationID string) ([]*models.QRCode, error)
}

// ChatRepository defines assistant history repository interface
type ChatRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListByUser(ctx context.Context, userID, assistant string, limit int) ([]*models.ChatMessage, error)
}

// OutboxRepository is the search sync worker's view of the outbox
type OutboxRepository interface {
	// FetchBatch claims up to limit unprocessed events and marks them processed.
	FetchBatch(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	PutDLQ(ctx context.Context, ev models.OutboxEvent, msg string) error
	ListUnresolvedDLQ(ctx context.Context, limit int) ([]models.OutboxDLQ, error)
	ResolveDLQ(ctx context.Context, id int64, at time.Time) error
	CountUnresolvedDLQ(ctx context.Context) (int64, error)
}
