package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/casa-guarda/service-listing/internal/domain"
	"github.com/casa-guarda/service-listing/internal/domain/gallery"
	"github.com/casa-guarda/service-listing/internal/domain/house"
	"github.com/casa-guarda/service-listing/internal/domain/room"
)

func newRoomService(houses ...*house.House) (*RoomService, *fakeRoomRepo, *ImageSessionService) {
	rooms := newFakeRoomRepo()
	sessions := NewSessionRegistry(time.Hour, zap.NewNop())
	wf := NewImageWorkflow(room.NewKind("room-images"), rooms, newFakeObjects(), nil, zap.NewNop())
	svc := NewRoomService(rooms, newFakeHouseRepo(houses...), wf, sessions, nil, placeholder, zap.NewNop())
	return svc, rooms, NewImageSessionService(sessions, zap.NewNop())
}

func TestRoomService_CommitResolvesHouseNumber(t *testing.T) {
	h := seededHouse(nil, "")
	svc, rooms, images := newRoomService(h)
	ctx := context.Background()

	sess, err := svc.OpenSession(ctx, nil)
	require.NoError(t, err)
	_, err = images.StageFile(ctx, sess.ID, "room.png", pngBytes)
	require.NoError(t, err)

	res, err := svc.CommitSession(ctx, sess.ID, RoomRequest{
		Number: "2B", Price: 420, Description: "sunny", Type: "double", Spots: 2, HouseID: h.ID(),
	})
	require.NoError(t, err)
	assert.Equal(t, "12", res.Item.HouseNumber)
	assert.True(t, res.Item.IsAvailable)

	stored, err := rooms.FindByID(ctx, sess.EntityID)
	require.NoError(t, err)
	assert.Equal(t, "12", stored.HouseNumber())
}

func TestRoomService_CommitRejectsUnknownHouse(t *testing.T) {
	svc, _, images := newRoomService()
	ctx := context.Background()

	sess, err := svc.OpenSession(ctx, nil)
	require.NoError(t, err)
	_, err = images.StageFile(ctx, sess.ID, "room.png", pngBytes)
	require.NoError(t, err)

	_, err = svc.CommitSession(ctx, sess.ID, RoomRequest{
		Number: "2B", Price: 420, Description: "sunny", Type: "double", Spots: 2, HouseID: uuid.New(),
	})
	var verr *gallery.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "house_id", verr.Field)
}

func TestRoomService_ListRoomsFilters(t *testing.T) {
	svc, rooms, _ := newRoomService()
	ctx := context.Background()
	houseID := uuid.New()
	for _, d := range []room.Details{
		{Number: "1", Price: 250, Description: "d", Type: "single", Spots: 1, IsAvailable: true, HouseID: houseID},
		{Number: "2", Price: 400, Description: "d", Type: "double", Spots: 2, IsAvailable: true, HouseID: houseID},
		{Number: "3", Price: 300, Description: "d", Type: "single", Spots: 1, IsAvailable: false, HouseID: houseID},
	} {
		require.NoError(t, rooms.Save(ctx, room.NewRoom(uuid.New(), d)))
	}

	available, err := svc.ListRooms(ctx, RoomQuery{Availability: room.AvailabilityAvailable, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, available.Total)

	maxPrice := 320.0
	cheapSingles, err := svc.ListRooms(ctx, RoomQuery{Type: "single", MaxPrice: &maxPrice, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, cheapSingles.Total)

	minPrice := 500.0
	_, err = svc.ListRooms(ctx, RoomQuery{MinPrice: &minPrice, MaxPrice: &maxPrice, Page: 1, Limit: 10})
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)

	_, err = svc.ListRooms(ctx, RoomQuery{Availability: "soon", Page: 1, Limit: 10})
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeValidation, derr.Code)
}

func TestRoomQuery_CacheKeyDistinguishesBounds(t *testing.T) {
	lo, hi := 100.0, 200.0
	a := RoomQuery{MinPrice: &lo, Page: 1, Limit: 9}.cacheKey()
	b := RoomQuery{MaxPrice: &lo, Page: 1, Limit: 9}.cacheKey()
	c := RoomQuery{MinPrice: &lo, MaxPrice: &hi, Page: 1, Limit: 9}.cacheKey()
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, roomCachePrefix)
}
