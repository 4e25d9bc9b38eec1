package house

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows house listings.
type Filter struct {
	// Search matches street, number or postal code, case-insensitively.
	Search     string
	ActiveOnly bool
}

// HouseRepository defines persistence operations for houses.
type HouseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*House, error)
	List(ctx context.Context, filter Filter, page, limit int) ([]*House, int64, error)
	Save(ctx context.Context, house *House) error
	Update(ctx context.Context, house *House) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}
