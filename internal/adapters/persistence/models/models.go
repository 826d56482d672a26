package models

import (
	"time"

	"campus-aid-buddy/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	Email      string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	Role       domain.Role    `gorm:"size:30;not null;index;default:'student'" json:"role"`
	Department string         `gorm:"size:100;index" json:"department"`
	RollNumber string         `gorm:"size:30" json:"roll_number"`
	Password   string         `gorm:"size:255;not null" json:"-"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// UserResponse DTO
type UserResponse struct {
	ID         string      `json:"id"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       domain.Role `json:"role"`
	Department string      `json:"department,omitempty"`
	RollNumber string      `json:"roll_number,omitempty"`
	IsActive   bool        `json:"is_active"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		Department: u.Department,
		RollNumber: u.RollNumber,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}

// Actor converts the stored user into the acting identity
func (u *User) Actor() *domain.Actor {
	return &domain.Actor{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		Department: u.Department,
		RollNumber: u.RollNumber,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"size:36;index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates every table the service owns
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		// Tickets
		&Ticket{},
		&TicketActivity{},
		// Campus content
		&Notice{},
		&Lecture{},
		&Syllabus{},
		&CampusLocation{},
		&QRCode{},
		&ChatMessage{},
		// Search sync
		&OutboxEvent{},
		&OutboxDLQ{},
	)
}
