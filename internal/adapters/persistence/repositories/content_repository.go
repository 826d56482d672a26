package repositories

import (
	"context"
	"errors"
	"time"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/core/domain"

	"gorm.io/gorm"
)

// notFound maps gorm's missing-record error onto a domain error
func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}

// deleteByID deletes one row and reports domainErr when nothing matched
func deleteByID(ctx context.Context, db *gorm.DB, model interface{}, id string, domainErr error) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainErr
	}
	return nil
}

// ============================================================
// Notices
// ============================================================

type noticeRepository struct {
	db *gorm.DB
}

// NewNoticeRepository creates a new notice repository
func NewNoticeRepository(db *gorm.DB) NoticeRepository {
	return &noticeRepository{db: db}
}

func (r *noticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	return r.db.WithContext(ctx).Create(notice).Error
}

func (r *noticeRepository) GetByID(ctx context.Context, id string) (*models.Notice, error) {
	var n models.Notice
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, notFound(err, domain.ErrNoticeNotFound)
	}
	return &n, nil
}

func (r *noticeRepository) Update(ctx context.Context, notice *models.Notice) error {
	return r.db.WithContext(ctx).Save(notice).Error
}

func (r *noticeRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, &models.Notice{}, id, domain.ErrNoticeNotFound)
}

// ListActive returns active, unexpired notices, newest first
func (r *noticeRepository) ListActive(ctx context.Context, now time.Time) ([]*models.Notice, error) {
	var notices []*models.Notice
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("published_at DESC").
		Find(&notices).Error
	return notices, err
}

func (r *noticeRepository) List(ctx context.Context, offset, limit int) ([]*models.Notice, int64, error) {
	var notices []*models.Notice
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Notice{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).Order("published_at DESC").Offset(offset).Limit(limit).Find(&notices).Error
	return notices, total, err
}

// DeactivateExpired flips is_active off for notices past their expiry
func (r *noticeRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notice{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// ============================================================
// Lectures
// ============================================================

type lectureRepository struct {
	db *gorm.DB
}

// NewLectureRepository creates a new lecture repository
func NewLectureRepository(db *gorm.DB) LectureRepository {
	return &lectureRepository{db: db}
}

func (r *lectureRepository) Create(ctx context.Context, lecture *models.Lecture) error {
	return r.db.WithContext(ctx).Create(lecture).Error
}

func (r *lectureRepository) GetByID(ctx context.Context, id string) (*models.Lecture, error) {
	var l models.Lecture
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, notFound(err, domain.ErrLectureNotFound)
	}
	return &l, nil
}

func (r *lectureRepository) Update(ctx context.Context, lecture *models.Lecture) error {
	return r.db.WithContext(ctx).Save(lecture).Error
}

func (r *lectureRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, &models.Lecture{}, id, domain.ErrLectureNotFound)
}

func (r *lectureRepository) ListPublishedByDepartment(ctx context.Context, department string) ([]*models.Lecture, error) {
	var lectures []*models.Lecture
	err := r.db.WithContext(ctx).
		Where("department = ? AND is_published = ?", department, true).
		Order("uploaded_at DESC").
		Find(&lectures).Error
	return lectures, err
}

func (r *lectureRepository) ListByUploader(ctx context.Context, uploaderID string) ([]*models.Lecture, error) {
	var lectures []*models.Lecture
	err := r.db.WithContext(ctx).Where("uploaded_by = ?", uploaderID).Order("uploaded_at DESC").Find(&lectures).Error
	return lectures, err
}

func (r *lectureRepository) List(ctx context.Context, offset, limit int) ([]*models.Lecture, int64, error) {
	var lectures []*models.Lecture
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Lecture{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).Order("uploaded_at DESC").Offset(offset).Limit(limit).Find(&lectures).Error
	return lectures, total, err
}

// ============================================================
// Syllabus
// ============================================================

type syllabusRepository struct {
	db *gorm.DB
}

// NewSyllabusRepository creates a new syllabus repository
func NewSyllabusRepository(db *gorm.DB) SyllabusRepository {
	return &syllabusRepository{db: db}
}

func (r *syllabusRepository) Create(ctx context.Context, s *models.Syllabus) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *syllabusRepository) GetByID(ctx context.Context, id string) (*models.Syllabus, error) {
	var s models.Syllabus
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err, domain.ErrSyllabusNotFound)
	}
	return &s, nil
}

func (r *syllabusRepository) Update(ctx context.Context, s *models.Syllabus) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *syllabusRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, &models.Syllabus{}, id, domain.ErrSyllabusNotFound)
}

// ListByDepartment lists syllabi for a department, optionally one subject
func (r *syllabusRepository) ListByDepartment(ctx context.Context, department, subject string) ([]*models.Syllabus, error) {
	var rows []*models.Syllabus
	q := r.db.WithContext(ctx).Where("department = ?", department)
	if subject != "" {
		q = q.Where("subject = ?", subject)
	}
	err := q.Order("uploaded_at DESC").Find(&rows).Error
	return rows, err
}

// ============================================================
// Assistant history
// ============================================================

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat history repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByUser returns the user's latest exchanges, newest first
func (r *chatRepository) ListByUser(ctx context.Context, userID, assistant string, limit int) ([]*models.ChatMessage, error) {
	var rows []*models.ChatMessage
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if assistant != "" {
		q = q.Where("assistant = ?", assistant)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
