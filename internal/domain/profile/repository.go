package profile

import (
	"context"

	"github.com/google/uuid"
)

// ProfileRepository defines persistence operations for user profiles.
type ProfileRepository interface {
	FindByID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
	ListAll(ctx context.Context) ([]*Profile, error)
	Save(ctx context.Context, p *Profile) error
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
	CountByActive(ctx context.Context) (map[bool]int64, error)
}
