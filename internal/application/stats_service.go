package application

import (
	"context"
	"fmt"

	"github.com/casa-guarda/service-listing/internal/domain/house"
	"github.com/casa-guarda/service-listing/internal/domain/profile"
	"github.com/casa-guarda/service-listing/internal/domain/room"
)

// StatsDTO is the admin dashboard summary.
type StatsDTO struct {
	TotalUsers  int64 `json:"total_users"`
	ActiveUsers int64 `json:"active_users"`
	TotalHouses int64 `json:"total_houses"`
	TotalRooms  int64 `json:"total_rooms"`
}

// StatsService aggregates counts across users, houses and rooms.
type StatsService struct {
	profiles profile.ProfileRepository
	houses   house.HouseRepository
	rooms    room.RoomRepository
}

// NewStatsService creates a new StatsService.
func NewStatsService(profiles profile.ProfileRepository, houses house.HouseRepository, rooms room.RoomRepository) *StatsService {
	return &StatsService{profiles: profiles, houses: houses, rooms: rooms}
}

// GetStats returns aggregate statistics (admin).
func (s *StatsService) GetStats(ctx context.Context) (*StatsDTO, error) {
	byActive, err := s.profiles.CountByActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	houses, err := s.houses.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get house stats: %w", err)
	}
	rooms, err := s.rooms.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get room stats: %w", err)
	}

	return &StatsDTO{
		TotalUsers:  byActive[true] + byActive[false],
		ActiveUsers: byActive[true],
		TotalHouses: houses,
		TotalRooms:  rooms,
	}, nil
}
