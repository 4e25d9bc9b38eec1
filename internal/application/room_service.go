package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casa-guarda/service-listing/internal/domain"
	"github.com/casa-guarda/service-listing/internal/domain/gallery"
	"github.com/casa-guarda/service-listing/internal/domain/house"
	"github.com/casa-guarda/service-listing/internal/domain/room"
	"github.com/casa-guarda/service-listing/internal/platform/cache"
	"github.com/casa-guarda/service-listing/internal/platform/sanitize"
)

// RoomRequest holds the scalar fields submitted with a room commit.
type RoomRequest struct {
	Number      string    `json:"number"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Spots       int       `json:"spots"`
	IsAvailable *bool     `json:"is_available"`
	HouseID     uuid.UUID `json:"house_id"`
}

// RoomQuery narrows the public room listing.
type RoomQuery struct {
	Availability string
	Type         string
	MinPrice     *float64
	MaxPrice     *float64
	Page         int
	Limit        int
}

func (q RoomQuery) cacheKey() string {
	bound := func(p *float64) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprintf("%g", *p)
	}
	return fmt.Sprintf("%slist:%s:%s:%s:%s:%d:%d", roomCachePrefix,
		q.Availability, q.Type, bound(q.MinPrice), bound(q.MaxPrice), q.Page, q.Limit)
}

// RoomService handles room browsing and administration.
type RoomService struct {
	repo        room.RoomRepository
	houses      house.HouseRepository
	workflow    *ImageWorkflow[*room.Room]
	sessions    *SessionRegistry
	cache       *cache.Cache
	placeholder string
	logger      *zap.Logger
}

// NewRoomService creates a new RoomService.
func NewRoomService(
	repo room.RoomRepository,
	houses house.HouseRepository,
	workflow *ImageWorkflow[*room.Room],
	sessions *SessionRegistry,
	cache *cache.Cache,
	placeholder string,
	logger *zap.Logger,
) *RoomService {
	return &RoomService{
		repo:        repo,
		houses:      houses,
		workflow:    workflow,
		sessions:    sessions,
		cache:       cache,
		placeholder: placeholder,
		logger:      logger,
	}
}

// ListRooms returns a page of rooms matching q.
func (s *RoomService) ListRooms(ctx context.Context, q RoomQuery) (*ListResult[*RoomDTO], error) {
	if q.Availability != "" && q.Availability != room.AvailabilityAvailable && q.Availability != room.AvailabilityRented {
		return nil, domain.NewValidationError("availability must be available or rented")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return nil, domain.NewValidationError("min_price cannot exceed max_price")
	}

	key := q.cacheKey()
	var cached ListResult[*RoomDTO]
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	filter := room.Filter{Availability: q.Availability, Type: q.Type, MinPrice: q.MinPrice, MaxPrice: q.MaxPrice}
	result, err := s.list(ctx, filter, q.Page, q.Limit)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, key, result)
	return result, nil
}

// ListAllRooms returns an unfiltered page of rooms for administration.
func (s *RoomService) ListAllRooms(ctx context.Context, page, limit int) (*ListResult[*RoomDTO], error) {
	return s.list(ctx, room.Filter{}, page, limit)
}

func (s *RoomService) list(ctx context.Context, filter room.Filter, page, limit int) (*ListResult[*RoomDTO], error) {
	rooms, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}
	items := make([]*RoomDTO, len(rooms))
	for i, r := range rooms {
		items[i] = toRoomDTO(r, s.placeholder)
	}
	return &ListResult[*RoomDTO]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// GetRoom returns one room.
func (s *RoomService) GetRoom(ctx context.Context, id uuid.UUID) (*RoomDTO, error) {
	key := roomCachePrefix + "detail:" + id.String()
	var cached RoomDTO
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toRoomDTO(r, s.placeholder)
	s.cache.SetJSON(ctx, key, dto)
	return dto, nil
}

// OpenSession starts an image edit session for an existing room, or for a
// new one when id is nil.
func (s *RoomService) OpenSession(ctx context.Context, id *uuid.UUID) (*SessionDTO, error) {
	sess := newSession(room.KindName, id)
	s.sessions.Add(sess)
	if err := s.workflow.Load(ctx, sess); err != nil {
		s.sessions.Close(sess.ID())
		return nil, err
	}
	s.logger.Info("room image session opened",
		zap.String("session_id", sess.ID().String()),
		zap.String("room_id", sess.EntityID().String()),
		zap.Bool("create", sess.IsCreate()),
	)
	return toSessionDTO(sess), nil
}

// CommitSession applies a session together with the submitted fields. The
// room's house number is taken from the selected house.
func (s *RoomService) CommitSession(ctx context.Context, sessionID uuid.UUID, req RoomRequest) (*CommitDTO[*RoomDTO], error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Kind() != room.KindName {
		return nil, domain.NewValidationError("image session does not belong to a room")
	}

	houseNumber, err := s.resolveHouseNumber(ctx, req.HouseID)
	if err != nil {
		return nil, err
	}

	details := room.Details{
		Number:      req.Number,
		Price:       req.Price,
		Description: sanitize.Text(req.Description),
		Type:        req.Type,
		Spots:       req.Spots,
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
		HouseID:     req.HouseID,
		HouseNumber: houseNumber,
	}

	var r *room.Room
	if sess.IsCreate() {
		r = room.NewRoom(sess.EntityID(), details)
	} else {
		r, err = s.repo.FindByID(ctx, sess.EntityID())
		if err != nil {
			return nil, err
		}
		if r.Version() != sess.LoadedVersion() {
			return nil, domain.NewConflictError("room was modified after the image session was opened")
		}
		r.Update(details)
	}

	res, err := s.workflow.Commit(ctx, sess, r)
	if err != nil {
		return nil, err
	}
	s.sessions.Close(sessionID)
	s.cache.InvalidateByPrefix(ctx, listingCachePrefix)

	return toCommitDTO(res, toRoomDTO(res.Entity, s.placeholder)), nil
}

// DeleteRoom deletes a room and its images.
func (s *RoomService) DeleteRoom(ctx context.Context, id uuid.UUID) (*DeleteDTO, error) {
	warnings, err := s.workflow.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateByPrefix(ctx, listingCachePrefix)
	return &DeleteDTO{ID: id, Warnings: toWarningDTOs(warnings)}, nil
}

func (s *RoomService) resolveHouseNumber(ctx context.Context, houseID uuid.UUID) (string, error) {
	if houseID == uuid.Nil {
		return "", nil
	}
	h, err := s.houses.FindByID(ctx, houseID)
	if err != nil {
		var derr *domain.DomainError
		if errors.As(err, &derr) && derr.Code == domain.CodeNotFound {
			return "", &gallery.ValidationError{Field: "house_id", Message: "selected house does not exist"}
		}
		return "", err
	}
	return h.Number(), nil
}
