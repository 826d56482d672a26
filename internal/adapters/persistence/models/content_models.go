package models

import (
	"time"

	"campus-aid-buddy/internal/core/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Notices
// ============================================================

// Notice represents notices table
type Notice struct {
	ID          string                      `gorm:"primaryKey;size:36" json:"id"`
	Title       string                      `gorm:"size:200;not null" json:"title"`
	Content     string                      `gorm:"type:text;not null" json:"content"`
	Category    string                      `gorm:"size:50" json:"category"`
	Department  string                      `gorm:"size:100;index" json:"department,omitempty"`
	TargetRoles datatypes.JSONSlice[string] `json:"target_roles"`
	Priority    domain.NoticePriority       `gorm:"size:20;default:'normal'" json:"priority"`
	PublishedBy string                      `gorm:"size:36;not null" json:"published_by"`
	PublishedAt time.Time                   `gorm:"not null;index" json:"published_at"`
	ExpiresAt   *time.Time                  `gorm:"index" json:"expires_at,omitempty"`
	IsActive    bool                        `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Notice) TableName() string {
	return "notices"
}

func (n *Notice) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

// TargetsRole reports whether the notice is addressed to role
func (n *Notice) TargetsRole(role domain.Role) bool {
	for _, r := range n.TargetRoles {
		if r == string(role) {
			return true
		}
	}
	return false
}

// ============================================================
// Lectures & Syllabus
// ============================================================

// Lecture represents lectures table
type Lecture struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	Department   string    `gorm:"size:100;not null;index" json:"department"`
	Course       string    `gorm:"size:100" json:"course"`
	Semester     string    `gorm:"size:20" json:"semester"`
	Subject      string    `gorm:"size:100;index" json:"subject"`
	Topic        string    `gorm:"size:200" json:"topic,omitempty"`
	VideoURL     string    `gorm:"size:500;not null" json:"video_url"`
	StoragePath  string    `gorm:"size:500;not null" json:"-"`
	ThumbnailURL string    `gorm:"size:500" json:"thumbnail_url,omitempty"`
	Duration     *int      `json:"duration,omitempty"`
	UploadedBy   string    `gorm:"size:36;not null;index" json:"uploaded_by"`
	UploadedAt   time.Time `gorm:"not null;index" json:"uploaded_at"`
	IsPublished  bool      `gorm:"default:false;index" json:"is_published"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Lecture) TableName() string {
	return "lectures"
}

func (l *Lecture) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// Syllabus represents syllabus table
type Syllabus struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Department  string    `gorm:"size:100;not null;index" json:"department"`
	Course      string    `gorm:"size:100" json:"course"`
	Semester    string    `gorm:"size:20" json:"semester"`
	Subject     string    `gorm:"size:100;index" json:"subject"`
	FileURL     string    `gorm:"size:500;not null" json:"file_url"`
	StoragePath string    `gorm:"size:500;not null" json:"-"`
	Content     string    `gorm:"type:text" json:"content,omitempty"`
	UploadedBy  string    `gorm:"size:36;not null" json:"uploaded_by"`
	UploadedAt  time.Time `gorm:"not null;index" json:"uploaded_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Syllabus) TableName() string {
	return "syllabus"
}

func (s *Syllabus) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// ============================================================
// Campus Navigation
// ============================================================

// CampusLocation represents campus_locations table
type CampusLocation struct {
	ID          string              `gorm:"primaryKey;size:36" json:"id"`
	Name        string              `gorm:"size:150;not null;index" json:"name"`
	Type        domain.LocationType `gorm:"size:20;not null;index" json:"type"`
	Latitude    float64             `gorm:"type:decimal(10,7);not null" json:"latitude"`
	Longitude   float64             `gorm:"type:decimal(10,7);not null" json:"longitude"`
	Description string              `gorm:"type:text" json:"description,omitempty"`
	QRCode      string              `gorm:"size:64" json:"qr_code,omitempty"`
	Building    string              `gorm:"size:100;index" json:"building,omitempty"`
	Floor       string              `gorm:"size:20" json:"floor,omitempty"`
	CreatedAt   time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CampusLocation) TableName() string {
	return "campus_locations"
}

func (l *CampusLocation) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// QRCode represents qr_codes table
type QRCode struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	LocationID string    `gorm:"size:36;not null;index" json:"location_id"`
	Code       string    `gorm:"size:64;uniqueIndex;not null" json:"code"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (QRCode) TableName() string {
	return "qr_codes"
}

func (q *QRCode) BeforeCreate(tx *gorm.DB) error {
	ensureID(&q.ID)
	return nil
}

// ============================================================
// Assistant History
// ============================================================

// ChatMessage represents ai_chat_messages table
type ChatMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	Assistant string    `gorm:"size:20;not null" json:"assistant"`
	Query     string    `gorm:"type:text;not null" json:"query"`
	Response  string    `gorm:"type:text;not null" json:"response"`
	Kind      string    `gorm:"size:20" json:"kind"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "ai_chat_messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
