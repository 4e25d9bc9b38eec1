package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/casa-guarda/service-listing/internal/domain"
	houseDomain "github.com/casa-guarda/service-listing/internal/domain/house"
)

// HouseModel is the GORM model for the houses table.
type HouseModel struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Number      string         `gorm:"not null;size:20"`
	Street      string         `gorm:"not null;size:200"`
	PostalCode  string         `gorm:"not null;size:20"`
	Floor       int            `gorm:"not null;default:0"`
	Description string         `gorm:"type:text"`
	IsActive    bool           `gorm:"not null;index"`
	Images      pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	MainImage   *string        `gorm:"type:text"`
	Version     int64          `gorm:"not null;default:1"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (HouseModel) TableName() string {
	return "houses"
}

// GormHouseRepository is the GORM-based implementation of HouseRepository.
type GormHouseRepository struct {
	db *gorm.DB
}

// NewGormHouseRepository creates a new GormHouseRepository.
func NewGormHouseRepository(db *gorm.DB) *GormHouseRepository {
	return &GormHouseRepository{db: db}
}

// FindByID retrieves a house by its unique identifier.
func (r *GormHouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*houseDomain.House, error) {
	var model HouseModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("House", id.String())
		}
		return nil, fmt.Errorf("failed to find house by ID: %w", err)
	}
	return toDomainHouse(&model), nil
}

// List retrieves houses matching filter with pagination, ordered by number.
func (r *GormHouseRepository) List(ctx context.Context, filter houseDomain.Filter, page, limit int) ([]*houseDomain.House, int64, error) {
	query := r.db.WithContext(ctx).Model(&HouseModel{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("street ILIKE ? OR number ILIKE ? OR postal_code ILIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count houses: %w", err)
	}

	var models []HouseModel
	offset := (page - 1) * limit
	if err := query.
		Order("number ASC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list houses: %w", err)
	}

	houses := make([]*houseDomain.House, len(models))
	for i := range models {
		houses[i] = toDomainHouse(&models[i])
	}
	return houses, total, nil
}

// Save persists a new house.
func (r *GormHouseRepository) Save(ctx context.Context, h *houseDomain.House) error {
	if err := r.db.WithContext(ctx).Create(toHouseModel(h)).Error; err != nil {
		return fmt.Errorf("failed to save house: %w", err)
	}
	return nil
}

// Update persists changes to an existing house with optimistic locking.
func (r *GormHouseRepository) Update(ctx context.Context, h *houseDomain.House) error {
	model := toHouseModel(h)

	// Update bumps the version, so the stored row must still hold the previous one.
	expectedVersion := h.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&HouseModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"number":      model.Number,
			"street":      model.Street,
			"postal_code": model.PostalCode,
			"floor":       model.Floor,
			"description": model.Description,
			"is_active":   model.IsActive,
			"images":      model.Images,
			"main_image":  model.MainImage,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update house: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("house was modified by another transaction")
	}
	return nil
}

// Delete removes a house row.
func (r *GormHouseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&HouseModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete house: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("House", id.String())
	}
	return nil
}

// Count returns the number of houses.
func (r *GormHouseRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&HouseModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count houses: %w", err)
	}
	return n, nil
}

func toHouseModel(h *houseDomain.House) *HouseModel {
	images := h.Images()
	if images == nil {
		images = []string{}
	}
	return &HouseModel{
		ID:          h.ID(),
		Number:      h.Number(),
		Street:      h.Street(),
		PostalCode:  h.PostalCode(),
		Floor:       h.Floor(),
		Description: h.Description(),
		IsActive:    h.IsActive(),
		Images:      pq.StringArray(images),
		MainImage:   optionalString(h.MainImage()),
		Version:     h.Version(),
		CreatedAt:   h.CreatedAt(),
		UpdatedAt:   h.UpdatedAt(),
	}
}

func toDomainHouse(m *HouseModel) *houseDomain.House {
	return houseDomain.Reconstruct(
		m.ID,
		m.Number,
		m.Street,
		m.PostalCode,
		m.Floor,
		m.Description,
		m.IsActive,
		[]string(m.Images),
		derefString(m.MainImage),
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
