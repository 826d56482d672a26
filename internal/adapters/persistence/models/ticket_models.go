package models

import (
	"time"

	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/core/routing"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Helpdesk Tickets
// ============================================================

// Ticket represents tickets table. Submitter fields are copied at creation
// and never re-synced with the user profile.
type Ticket struct {
	ID                  string                      `gorm:"primaryKey;size:36" json:"id"`
	TicketNumber        string                      `gorm:"size:20;uniqueIndex;not null" json:"ticket_number"`
	Title               string                      `gorm:"size:200;not null" json:"title"`
	Description         string                      `gorm:"type:text;not null" json:"description"`
	Category            domain.TicketCategory       `gorm:"size:30;not null;index" json:"category"`
	IssueType           string                      `gorm:"size:100" json:"issue_type"`
	Status              domain.TicketStatus         `gorm:"size:20;not null;index;default:'pending'" json:"status"`
	Priority            domain.Priority             `gorm:"size:10;not null;default:'medium'" json:"priority"`
	Department          string                      `gorm:"size:100;index" json:"department"`
	RoutedDepartment    domain.Department           `gorm:"size:30;not null;index" json:"routed_department"`
	SubmitterID         string                      `gorm:"size:36;not null;index" json:"submitter_id"`
	SubmitterName       string                      `gorm:"size:100" json:"submitter_name"`
	SubmitterEmail      string                      `gorm:"size:100" json:"submitter_email"`
	SubmitterRollNumber string                      `gorm:"size:30" json:"submitter_roll_number"`
	AssigneeID          *string                     `gorm:"size:36;index" json:"assignee_id"`
	AssignedRole        domain.Role                 `gorm:"size:30;index" json:"assigned_role"`
	Latitude            *float64                    `gorm:"type:decimal(10,7)" json:"latitude"`
	Longitude           *float64                    `gorm:"type:decimal(10,7)" json:"longitude"`
	LocationAccuracy    *float64                    `json:"location_accuracy"`
	LocationAddress     string                      `gorm:"size:255" json:"location_address"`
	CampusZone          string                      `gorm:"size:30" json:"campus_zone"`
	LocationCapturedAt  *time.Time                  `json:"location_captured_at"`
	Attachments         datatypes.JSONSlice[string] `json:"attachments"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
	ResolvedAt          *time.Time                  `json:"resolved_at"`
	Activities          []TicketActivity            `gorm:"foreignKey:TicketID" json:"activity_log,omitempty"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// Location returns the captured geolocation, if any
func (t *Ticket) Location() *domain.GeoPoint {
	if t.Latitude == nil || t.Longitude == nil {
		return nil
	}
	p := &domain.GeoPoint{
		Latitude:   *t.Latitude,
		Longitude:  *t.Longitude,
		Accuracy:   t.LocationAccuracy,
		Address:    t.LocationAddress,
		CampusZone: t.CampusZone,
	}
	if t.LocationCapturedAt != nil {
		p.CapturedAt = *t.LocationCapturedAt
	}
	return p
}

// SetLocation copies a geolocation onto the ticket columns
func (t *Ticket) SetLocation(p *domain.GeoPoint) {
	if p == nil {
		return
	}
	lat, lng := p.Latitude, p.Longitude
	t.Latitude = &lat
	t.Longitude = &lng
	t.LocationAccuracy = p.Accuracy
	t.LocationAddress = p.Address
	t.CampusZone = p.CampusZone
	if t.CampusZone == "" {
		t.CampusZone = domain.CampusZone(lat)
	}
	if !p.CapturedAt.IsZero() {
		at := p.CapturedAt
		t.LocationCapturedAt = &at
	}
}

// Viewable returns the fields visibility rules look at
func (t *Ticket) Viewable() routing.Viewable {
	return routing.Viewable{
		SubmitterID: t.SubmitterID,
		Category:    t.Category,
		Department:  t.Department,
	}
}

// TicketActivity represents ticket_activity_logs table. Rows are only ever
// appended; Sequence is gap-free per ticket.
type TicketActivity struct {
	ID              string      `gorm:"primaryKey;size:36" json:"id"`
	TicketID        string      `gorm:"size:36;not null;uniqueIndex:idx_ticket_activity_seq" json:"ticket_id"`
	Sequence        int         `gorm:"not null;uniqueIndex:idx_ticket_activity_seq" json:"sequence"`
	Action          string      `gorm:"type:text;not null" json:"action"`
	PerformedBy     string      `gorm:"size:36;not null" json:"performed_by"`
	PerformedByRole domain.Role `gorm:"size:30;not null" json:"performed_by_role"`
	Notes           string      `gorm:"type:text" json:"notes,omitempty"`
	Timestamp       time.Time   `gorm:"not null" json:"timestamp"`
}

func (TicketActivity) TableName() string {
	return "ticket_activity_logs"
}

func (a *TicketActivity) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// TicketResponse DTO
type TicketResponse struct {
	ID                       string                `json:"id"`
	TicketNumber             string                `json:"ticket_number"`
	Title                    string                `json:"title"`
	Description              string                `json:"description"`
	Category                 domain.TicketCategory `json:"category"`
	IssueType                string                `json:"issue_type,omitempty"`
	Status                   domain.TicketStatus   `json:"status"`
	Priority                 domain.Priority       `json:"priority"`
	Department               string                `json:"department"`
	RoutedDepartment         domain.Department     `json:"routed_department"`
	SubmitterID              string                `json:"submitter_id"`
	SubmitterName            string                `json:"submitter_name"`
	SubmitterEmail           string                `json:"submitter_email"`
	SubmitterRollNumber      string                `json:"submitter_roll_number,omitempty"`
	AssigneeID               *string               `json:"assignee_id,omitempty"`
	AssignedRole             domain.Role           `json:"assigned_role,omitempty"`
	Location                 *domain.GeoPoint      `json:"location,omitempty"`
	Attachments              []string              `json:"attachments,omitempty"`
	EstimatedResolutionHours float64               `json:"estimated_resolution_hours"`
	ActivityLog              []TicketActivity      `json:"activity_log"`
	CreatedAt                time.Time             `json:"created_at"`
	UpdatedAt                time.Time             `json:"updated_at"`
	ResolvedAt               *time.Time            `json:"resolved_at,omitempty"`
	AvailableActions         []domain.TicketStatus `json:"available_actions,omitempty"`
}

func (t *Ticket) ToResponse() *TicketResponse {
	log := t.Activities
	if log == nil {
		log = []TicketActivity{}
	}
	return &TicketResponse{
		ID:                       t.ID,
		TicketNumber:             t.TicketNumber,
		Title:                    t.Title,
		Description:              t.Description,
		Category:                 t.Category,
		IssueType:                t.IssueType,
		Status:                   t.Status,
		Priority:                 t.Priority,
		Department:               t.Department,
		RoutedDepartment:         t.RoutedDepartment,
		SubmitterID:              t.SubmitterID,
		SubmitterName:            t.SubmitterName,
		SubmitterEmail:           t.SubmitterEmail,
		SubmitterRollNumber:      t.SubmitterRollNumber,
		AssigneeID:               t.AssigneeID,
		AssignedRole:             t.AssignedRole,
		Location:                 t.Location(),
		Attachments:              t.Attachments,
		EstimatedResolutionHours: routing.EstimatedResolutionHours(t.RoutedDepartment, t.Priority),
		ActivityLog:              log,
		CreatedAt:                t.CreatedAt,
		UpdatedAt:                t.UpdatedAt,
		ResolvedAt:               t.ResolvedAt,
	}
}
