package repositories

import (
	"context"
	"strings"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/core/domain"

	"gorm.io/gorm"
)

type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a new campus location repository
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) Create(ctx context.Context, l *models.CampusLocation) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *locationRepository) GetByID(ctx context.Context, id string) (*models.CampusLocation, error) {
	var l models.CampusLocation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, notFound(err, domain.ErrLocationNotFound)
	}
	return &l, nil
}

func (r *locationRepository) Update(ctx context.Context, l *models.CampusLocation) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *locationRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, &models.CampusLocation{}, id, domain.ErrLocationNotFound)
}

func (r *locationRepository) List(ctx context.Context) ([]*models.CampusLocation, error) {
	var rows []*models.CampusLocation
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *locationRepository) ListByType(ctx context.Context, t domain.LocationType) ([]*models.CampusLocation, error) {
	var rows []*models.CampusLocation
	err := r.db.WithContext(ctx).Where("type = ?", t).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *locationRepository) ListByBuilding(ctx context.Context, building string) ([]*models.CampusLocation, error) {
	var rows []*models.CampusLocation
	err := r.db.WithContext(ctx).Where("building = ?", building).Order("name ASC").Find(&rows).Error
	return rows, err
}

// Search matches term case-insensitively against name, description and building
func (r *locationRepository) Search(ctx context.Context, term string) ([]*models.CampusLocation, error) {
	var rows []*models.CampusLocation
	like := "%" + strings.ToLower(term) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(building) LIKE ?", like, like, like).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *locationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CampusLocation{}).Count(&count).Error
	return count, err
}

type qrCodeRepository struct {
	db *gorm.DB
}

// NewQRCodeRepository creates a new QR code repository
func NewQRCodeRepository(db *gorm.DB) QRCodeRepository {
	return &qrCodeRepository{db: db}
}

func (r *qrCodeRepository) Create(ctx context.Context, code *models.QRCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *qrCodeRepository) GetActiveByCode(ctx context.Context, code string) (*models.QRCode, error) {
	var q models.QRCode
	if err := r.db.WithContext(ctx).Where("code = ? AND is_active = ?", code, true).First(&q).Error; err != nil {
		return nil, notFound(err, domain.ErrQRCodeNotFound)
	}
	return &q, nil
}

func (r *qrCodeRepository) SetActive(ctx context.Context, id string, active bool) error {
	// MySQL reports zero affected rows when the value is unchanged, so
	// existence is checked separately.
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.QRCode{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrQRCodeNotFound
	}
	return r.db.WithContext(ctx).Model(&models.QRCode{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *qrCodeRepository) ListByLocation(ctx context.Context, locationID string) ([]*models.QRCode, error) {
	var rows []*models.QRCode
	err := r.db.WithContext(ctx).Where("location_id = ?", locationID).Order("created_at DESC").Find(&rows).Error
	return rows, err
}
