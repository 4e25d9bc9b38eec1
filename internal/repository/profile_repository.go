package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casa-guarda/service-listing/internal/domain"
	profileDomain "github.com/casa-guarda/service-listing/internal/domain/profile"
)

// ProfileModel is the GORM model for the profiles table.
type ProfileModel struct {
	UserID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email             string    `gorm:"uniqueIndex;not null;size:255"`
	PasswordHash      string    `gorm:"not null;size:255"`
	Role              string    `gorm:"not null;size:20;default:'user'"`
	FirstName         string    `gorm:"size:100"`
	LastName          string    `gorm:"size:100"`
	PhoneNumber       string    `gorm:"size:30"`
	Country           string    `gorm:"size:60"`
	PreferredLanguage string    `gorm:"size:10"`
	PictureURL        string    `gorm:"type:text"`
	IsActive          bool      `gorm:"not null;index"`
	CreatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ProfileModel) TableName() string {
	return "profiles"
}

// GormProfileRepository is the GORM-based implementation of ProfileRepository.
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository.
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// FindByID retrieves a profile by user ID.
func (r *GormProfileRepository) FindByID(ctx context.Context, userID uuid.UUID) (*profileDomain.Profile, error) {
	var model ProfileModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Profile", userID.String())
		}
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}
	return toDomainProfile(&model), nil
}

// FindByEmail retrieves a profile by email, case-insensitively.
func (r *GormProfileRepository) FindByEmail(ctx context.Context, email string) (*profileDomain.Profile, error) {
	var model ProfileModel
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", normalized).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Profile", normalized)
		}
		return nil, fmt.Errorf("failed to find profile by email: %w", err)
	}
	return toDomainProfile(&model), nil
}

// ListAll retrieves every profile, newest first.
func (r *GormProfileRepository) ListAll(ctx context.Context) ([]*profileDomain.Profile, error) {
	var models []ProfileModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	profiles := make([]*profileDomain.Profile, len(models))
	for i := range models {
		profiles[i] = toDomainProfile(&models[i])
	}
	return profiles, nil
}

// Save persists a new profile.
func (r *GormProfileRepository) Save(ctx context.Context, p *profileDomain.Profile) error {
	if err := r.db.WithContext(ctx).Create(toProfileModel(p)).Error; err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// SetActive updates the activation flag of a profile.
func (r *GormProfileRepository) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&ProfileModel{}).
		Where("user_id = ?", userID).
		Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update profile activation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Profile", userID.String())
	}
	return nil
}

// CountByActive returns profile counts grouped by activation state.
func (r *GormProfileRepository) CountByActive(ctx context.Context) (map[bool]int64, error) {
	type activeCount struct {
		IsActive bool
		Count    int64
	}
	var results []activeCount
	if err := r.db.WithContext(ctx).Model(&ProfileModel{}).
		Select("is_active, count(*) as count").
		Group("is_active").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count profiles by activation: %w", err)
	}

	counts := make(map[bool]int64, len(results))
	for _, ac := range results {
		counts[ac.IsActive] = ac.Count
	}
	return counts, nil
}

func toProfileModel(p *profileDomain.Profile) *ProfileModel {
	return &ProfileModel{
		UserID:            p.UserID(),
		Email:             p.Email(),
		PasswordHash:      p.PasswordHash(),
		Role:              string(p.Role()),
		FirstName:         p.FirstName(),
		LastName:          p.LastName(),
		PhoneNumber:       p.PhoneNumber(),
		Country:           p.Country(),
		PreferredLanguage: p.PreferredLanguage(),
		PictureURL:        p.PictureURL(),
		IsActive:          p.IsActive(),
		CreatedAt:         p.CreatedAt(),
	}
}

func toDomainProfile(m *ProfileModel) *profileDomain.Profile {
	return profileDomain.Reconstruct(
		m.UserID,
		m.Email,
		m.PasswordHash,
		profileDomain.Role(m.Role),
		m.FirstName,
		m.LastName,
		m.PhoneNumber,
		m.Country,
		m.PreferredLanguage,
		m.PictureURL,
		m.IsActive,
		m.CreatedAt,
	)
}
