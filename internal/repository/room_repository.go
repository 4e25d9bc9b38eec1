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
	roomDomain "github.com/casa-guarda/service-listing/internal/domain/room"
)

// RoomModel is the GORM model for the rooms table.
type RoomModel struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Number      string         `gorm:"not null;size:20"`
	Price       float64        `gorm:"type:numeric(10,2);not null"`
	Description string         `gorm:"type:text"`
	Type        string         `gorm:"not null;size:30;index"`
	Spots       int            `gorm:"not null"`
	IsAvailable bool           `gorm:"not null;index"`
	HouseID     uuid.UUID      `gorm:"type:uuid;index;not null"`
	HouseNumber string         `gorm:"size:20"`
	Images      pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	MainImage   *string        `gorm:"type:text"`
	Version     int64          `gorm:"not null;default:1"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RoomModel) TableName() string {
	return "rooms"
}

// GormRoomRepository is the GORM-based implementation of RoomRepository.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GormRoomRepository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// FindByID retrieves a room by its unique identifier.
func (r *GormRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*roomDomain.Room, error) {
	var model RoomModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Room", id.String())
		}
		return nil, fmt.Errorf("failed to find room by ID: %w", err)
	}
	return toDomainRoom(&model), nil
}

// FindByHouseID retrieves every room of a house ordered by number.
func (r *GormRoomRepository) FindByHouseID(ctx context.Context, houseID uuid.UUID) ([]*roomDomain.Room, error) {
	var models []RoomModel
	if err := r.db.WithContext(ctx).
		Where("house_id = ?", houseID).
		Order("number ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find house rooms: %w", err)
	}
	return toDomainRooms(models), nil
}

// List retrieves rooms matching filter with pagination, newest first.
func (r *GormRoomRepository) List(ctx context.Context, filter roomDomain.Filter, page, limit int) ([]*roomDomain.Room, int64, error) {
	query := r.db.WithContext(ctx).Model(&RoomModel{})
	switch filter.Availability {
	case roomDomain.AvailabilityAvailable:
		query = query.Where("is_available = ?", true)
	case roomDomain.AvailabilityRented:
		query = query.Where("is_available = ?", false)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count rooms: %w", err)
	}

	var models []RoomModel
	offset := (page - 1) * limit
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list rooms: %w", err)
	}
	return toDomainRooms(models), total, nil
}

// Save persists a new room.
func (r *GormRoomRepository) Save(ctx context.Context, rm *roomDomain.Room) error {
	if err := r.db.WithContext(ctx).Create(toRoomModel(rm)).Error; err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

// Update persists changes to an existing room with optimistic locking.
func (r *GormRoomRepository) Update(ctx context.Context, rm *roomDomain.Room) error {
	model := toRoomModel(rm)

	expectedVersion := rm.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&RoomModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"number":       model.Number,
			"price":        model.Price,
			"description":  model.Description,
			"type":         model.Type,
			"spots":        model.Spots,
			"is_available": model.IsAvailable,
			"house_id":     model.HouseID,
			"house_number": model.HouseNumber,
			"images":       model.Images,
			"main_image":   model.MainImage,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update room: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("room was modified by another transaction")
	}
	return nil
}

// Delete removes a room row.
func (r *GormRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&RoomModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete room: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Room", id.String())
	}
	return nil
}

// Count returns the number of rooms.
func (r *GormRoomRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&RoomModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count rooms: %w", err)
	}
	return n, nil
}

func toRoomModel(rm *roomDomain.Room) *RoomModel {
	images := rm.Images()
	if images == nil {
		images = []string{}
	}
	return &RoomModel{
		ID:          rm.ID(),
		Number:      rm.Number(),
		Price:       rm.Price(),
		Description: rm.Description(),
		Type:        rm.Type(),
		Spots:       rm.Spots(),
		IsAvailable: rm.IsAvailable(),
		HouseID:     rm.HouseID(),
		HouseNumber: rm.HouseNumber(),
		Images:      pq.StringArray(images),
		MainImage:   optionalString(rm.MainImage()),
		Version:     rm.Version(),
		CreatedAt:   rm.CreatedAt(),
		UpdatedAt:   rm.UpdatedAt(),
	}
}

func toDomainRoom(m *RoomModel) *roomDomain.Room {
	return roomDomain.Reconstruct(m.ID, roomDomain.Details{
		Number:      m.Number,
		Price:       m.Price,
		Description: m.Description,
		Type:        m.Type,
		Spots:       m.Spots,
		IsAvailable: m.IsAvailable,
		HouseID:     m.HouseID,
		HouseNumber: m.HouseNumber,
	}, []string(m.Images), derefString(m.MainImage), m.Version, m.CreatedAt, m.UpdatedAt)
}

func toDomainRooms(models []RoomModel) []*roomDomain.Room {
	rooms := make([]*roomDomain.Room, len(models))
	for i := range models {
		rooms[i] = toDomainRoom(&models[i])
	}
	return rooms
}
