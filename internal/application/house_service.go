package application

import (
	"context"
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

// Cache key prefixes. Every listing write invalidates listingCachePrefix.
const (
	listingCachePrefix = "listing:"
	houseCachePrefix   = listingCachePrefix + "houses:"
	roomCachePrefix    = listingCachePrefix + "rooms:"
)

// HouseRequest holds the scalar fields submitted with a house commit.
type HouseRequest struct {
	Number      string `json:"number"`
	Street      string `json:"street"`
	PostalCode  string `json:"postal_code"`
	Floor       int    `json:"floor"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (r HouseRequest) active() bool {
	return r.IsActive == nil || *r.IsActive
}

// HouseService handles house browsing and administration.
type HouseService struct {
	repo        house.HouseRepository
	rooms       room.RoomRepository
	workflow    *ImageWorkflow[*house.House]
	sessions    *SessionRegistry
	cache       *cache.Cache
	placeholder string
	logger      *zap.Logger
}

// NewHouseService creates a new HouseService.
func NewHouseService(
	repo house.HouseRepository,
	rooms room.RoomRepository,
	workflow *ImageWorkflow[*house.House],
	sessions *SessionRegistry,
	cache *cache.Cache,
	placeholder string,
	logger *zap.Logger,
) *HouseService {
	return &HouseService{
		repo:        repo,
		rooms:       rooms,
		workflow:    workflow,
		sessions:    sessions,
		cache:       cache,
		placeholder: placeholder,
		logger:      logger,
	}
}

// ListHouses returns a page of active houses matching search.
func (s *HouseService) ListHouses(ctx context.Context, search string, page, limit int) (*ListResult[*HouseDTO], error) {
	key := fmt.Sprintf("%slist:%s:%d:%d", houseCachePrefix, search, page, limit)
	var cached ListResult[*HouseDTO]
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.list(ctx, house.Filter{Search: search, ActiveOnly: true}, page, limit)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, key, result)
	return result, nil
}

// ListAllHouses returns a page of houses for administration. Inactive houses
// are included when showInactive is set.
func (s *HouseService) ListAllHouses(ctx context.Context, search string, showInactive bool, page, limit int) (*ListResult[*HouseDTO], error) {
	return s.list(ctx, house.Filter{Search: search, ActiveOnly: !showInactive}, page, limit)
}

func (s *HouseService) list(ctx context.Context, filter house.Filter, page, limit int) (*ListResult[*HouseDTO], error) {
	houses, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}
	items := make([]*HouseDTO, len(houses))
	for i, h := range houses {
		items[i] = toHouseDTO(h, s.placeholder)
	}
	return &ListResult[*HouseDTO]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// GetHouse returns a house with its rooms.
func (s *HouseService) GetHouse(ctx context.Context, id uuid.UUID) (*HouseDetailDTO, error) {
	key := houseCachePrefix + "detail:" + id.String()
	var cached HouseDetailDTO
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	h, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rooms, err := s.rooms.FindByHouseID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &HouseDetailDTO{HouseDTO: *toHouseDTO(h, s.placeholder), Rooms: make([]*RoomDTO, len(rooms))}
	for i, r := range rooms {
		detail.Rooms[i] = toRoomDTO(r, s.placeholder)
	}
	s.cache.SetJSON(ctx, key, detail)
	return detail, nil
}

// OpenSession starts an image edit session for an existing house, or for a
// new one when id is nil.
func (s *HouseService) OpenSession(ctx context.Context, id *uuid.UUID) (*SessionDTO, error) {
	sess := newSession(house.KindName, id)
	s.sessions.Add(sess)
	if err := s.workflow.Load(ctx, sess); err != nil {
		s.sessions.Close(sess.ID())
		return nil, err
	}
	s.logger.Info("house image session opened",
		zap.String("session_id", sess.ID().String()),
		zap.String("house_id", sess.EntityID().String()),
		zap.Bool("create", sess.IsCreate()),
	)
	return toSessionDTO(sess), nil
}

// CommitSession applies a session together with the submitted fields.
func (s *HouseService) CommitSession(ctx context.Context, sessionID uuid.UUID, req HouseRequest) (*CommitDTO[*HouseDTO], error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Kind() != house.KindName {
		return nil, domain.NewValidationError("image session does not belong to a house")
	}

	description := sanitize.Text(req.Description)
	var h *house.House
	if sess.IsCreate() {
		h = house.NewHouse(sess.EntityID(), req.Number, req.Street, req.PostalCode, req.Floor, description, req.active())
	} else {
		h, err = s.repo.FindByID(ctx, sess.EntityID())
		if err != nil {
			return nil, err
		}
		if h.Version() != sess.LoadedVersion() {
			return nil, domain.NewConflictError("house was modified after the image session was opened")
		}
		h.Update(req.Number, req.Street, req.PostalCode, req.Floor, description, req.active())
	}

	res, err := s.workflow.Commit(ctx, sess, h)
	if err != nil {
		return nil, err
	}
	s.sessions.Close(sessionID)
	s.cache.InvalidateByPrefix(ctx, listingCachePrefix)

	return toCommitDTO(res, toHouseDTO(res.Entity, s.placeholder)), nil
}

// DeleteHouse deletes a house without rooms and its images.
func (s *HouseService) DeleteHouse(ctx context.Context, id uuid.UUID) (*DeleteDTO, error) {
	rooms, err := s.rooms.FindByHouseID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(rooms) > 0 {
		return nil, domain.NewConflictError(fmt.Sprintf("house %s still has %d room(s)", id, len(rooms)))
	}

	warnings, err := s.workflow.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateByPrefix(ctx, listingCachePrefix)
	return &DeleteDTO{ID: id, Warnings: toWarningDTOs(warnings)}, nil
}

func newSession(kind string, id *uuid.UUID) *gallery.Session {
	if id == nil {
		return gallery.NewSession(kind, uuid.New(), true)
	}
	return gallery.NewSession(kind, *id, false)
}
