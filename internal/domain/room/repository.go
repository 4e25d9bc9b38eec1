package room

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows room listings. Nil price bounds are not applied.
type Filter struct {
	Availability string
	Type         string
	MinPrice     *float64
	MaxPrice     *float64
}

// RoomRepository defines persistence operations for rooms.
type RoomRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Room, error)
	FindByHouseID(ctx context.Context, houseID uuid.UUID) ([]*Room, error)
	List(ctx context.Context, filter Filter, page, limit int) ([]*Room, int64, error)
	Save(ctx context.Context, room *Room) error
	Update(ctx context.Context, room *Room) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}
