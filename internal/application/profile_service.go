package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casa-guarda/service-listing/internal/domain"
	"github.com/casa-guarda/service-listing/internal/domain/profile"
	"github.com/casa-guarda/service-listing/internal/platform/auth"
)

const minPasswordLength = 8

// User list filters.
const (
	UserFilterAdmin    = "admin"
	UserFilterUser     = "user"
	UserFilterActive   = "active"
	UserFilterInactive = "inactive"
)

// UserDTO is the API representation of a profile.
type UserDTO struct {
	UserID            uuid.UUID `json:"user_id"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	PhoneNumber       string    `json:"phone_number,omitempty"`
	Country           string    `json:"country,omitempty"`
	PreferredLanguage string    `json:"preferred_language,omitempty"`
	PictureURL        string    `json:"picture_url,omitempty"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

// UserCounters summarise every registered user, regardless of filters.
type UserCounters struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Admins int `json:"admins"`
	Users  int `json:"users"`
}

// UserListResult is the admin user listing.
type UserListResult struct {
	Users    []*UserDTO   `json:"users"`
	Counters UserCounters `json:"counters"`
}

// ProfileService handles user administration and the current user's profile.
type ProfileService struct {
	repo   profile.ProfileRepository
	logger *zap.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(repo profile.ProfileRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{repo: repo, logger: logger}
}

// ListUsers returns the users matching search and filter plus global counters.
func (s *ProfileService) ListUsers(ctx context.Context, search, filter string) (*UserListResult, error) {
	switch filter {
	case "", UserFilterAdmin, UserFilterUser, UserFilterActive, UserFilterInactive:
	default:
		return nil, domain.NewValidationError("filter must be one of admin, user, active, inactive")
	}

	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &UserListResult{Users: make([]*UserDTO, 0, len(all))}
	for _, p := range all {
		result.Counters.Total++
		if p.IsActive() {
			result.Counters.Active++
		}
		switch p.Role() {
		case profile.RoleAdmin:
			result.Counters.Admins++
		case profile.RoleUser:
			result.Counters.Users++
		}

		if p.Matches(search) && matchesUserFilter(p, filter) {
			result.Users = append(result.Users, toUserDTO(p))
		}
	}
	return result, nil
}

// ToggleActivation flips a user's activation state and returns the result.
func (s *ProfileService) ToggleActivation(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	p, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, userID, !p.IsActive()); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user activation changed",
		zap.String("user_id", userID.String()),
		zap.Bool("is_active", updated.IsActive()),
	)
	return toUserDTO(updated), nil
}

// CreateUserRequest holds the fields needed to provision an account.
type CreateUserRequest struct {
	// UserID is assigned when zero.
	UserID            uuid.UUID
	Email             string
	Password          string
	Role              string
	FirstName         string
	LastName          string
	PhoneNumber       string
	Country           string
	PreferredLanguage string
	PictureURL        string
	// Inactive creates the account awaiting admin activation.
	Inactive bool
}

const maxEmailLength = 255

// CheckNewUser validates req and ensures its email is not taken.
func (s *ProfileService) CheckNewUser(ctx context.Context, req CreateUserRequest) error {
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != strings.TrimSpace(req.Email) {
		return domain.NewValidationError("email is not valid")
	}
	if len(req.Email) > maxEmailLength {
		return domain.NewValidationError("email must be at most 255 characters")
	}
	if len(req.Password) < minPasswordLength {
		return domain.NewValidationError("password must have at least 8 characters")
	}
	role := profile.Role(req.Role)
	if role != profile.RoleAdmin && role != profile.RoleUser {
		return domain.NewValidationError("role must be admin or user")
	}
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"first_name", req.FirstName, profile.MaxNameLen},
		{"last_name", req.LastName, profile.MaxNameLen},
		{"phone_number", req.PhoneNumber, profile.MaxPhoneLen},
		{"country", req.Country, profile.MaxCountryLen},
		{"preferred_language", req.PreferredLanguage, profile.MaxLanguageLen},
	} {
		if utf8.RuneCountInString(strings.TrimSpace(f.value)) > f.max {
			return domain.NewValidationError(fmt.Sprintf("%s must be at most %d characters", f.name, f.max))
		}
	}

	_, err := s.repo.FindByEmail(ctx, req.Email)
	if err == nil {
		return domain.NewConflictError("a user with this email already exists")
	}
	var derr *domain.DomainError
	if !errors.As(err, &derr) || derr.Code != domain.CodeNotFound {
		return err
	}
	return nil
}

// CreateUser provisions a new account. Emails are unique.
func (s *ProfileService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserDTO, error) {
	if err := s.CheckNewUser(ctx, req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	id := req.UserID
	if id == uuid.Nil {
		id = uuid.New()
	}
	role := profile.Role(req.Role)
	p := profile.NewProfileWithID(id, req.Email, hash, role, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName))
	p.SetContact(req.PhoneNumber, req.Country, req.PreferredLanguage)
	p.SetPictureURL(req.PictureURL)
	if req.Inactive {
		p.Deactivate()
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("user created",
		zap.String("user_id", p.UserID().String()),
		zap.String("role", string(role)),
		zap.Bool("is_active", p.IsActive()),
	)
	return toUserDTO(p), nil
}

// GetProfile returns one profile.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	p, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserDTO(p), nil
}

func matchesUserFilter(p *profile.Profile, filter string) bool {
	switch filter {
	case UserFilterActive:
		return p.IsActive()
	case UserFilterInactive:
		return !p.IsActive()
	case UserFilterAdmin, UserFilterUser:
		return string(p.Role()) == filter
	default:
		return true
	}
}

func toUserDTO(p *profile.Profile) *UserDTO {
	return &UserDTO{
		UserID:            p.UserID(),
		Email:             p.Email(),
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
