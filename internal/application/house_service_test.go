package application

import (
	"context"
	"strings"
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

const placeholder = "/placeholder.svg"

type houseServiceFixture struct {
	houses   *fakeHouseRepo
	rooms    *fakeRoomRepo
	objects  *fakeObjects
	sessions *SessionRegistry
	service  *HouseService
	images   *ImageSessionService
}

func newHouseServiceFixture(houses ...*house.House) *houseServiceFixture {
	f := &houseServiceFixture{
		houses:   newFakeHouseRepo(houses...),
		rooms:    newFakeRoomRepo(),
		objects:  newFakeObjects(),
		sessions: NewSessionRegistry(time.Hour, zap.NewNop()),
	}
	wf := NewImageWorkflow(house.NewKind(houseBucket), f.houses, f.objects, nil, zap.NewNop())
	f.service = NewHouseService(f.houses, f.rooms, wf, f.sessions, nil, placeholder, zap.NewNop())
	f.images = NewImageSessionService(f.sessions, zap.NewNop())
	return f
}

func TestHouseService_CreateThroughSession(t *testing.T) {
	f := newHouseServiceFixture()
	ctx := context.Background()

	sess, err := f.service.OpenSession(ctx, nil)
	require.NoError(t, err)
	assert.True(t, sess.Create)
	assert.Empty(t, sess.Existing)

	staged, err := f.images.StageFile(ctx, sess.ID, "front.png", pngBytes)
	require.NoError(t, err)
	_, err = f.images.SetMainImage(ctx, sess.ID, staged.Handle)
	require.NoError(t, err)

	res, err := f.service.CommitSession(ctx, sess.ID, HouseRequest{
		Number:      "7",
		Street:      "Rua do Castelo",
		PostalCode:  "6300-100",
		Floor:       2,
		Description: "close to <b>campus</b><script>x()</script>",
	})
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, sess.EntityID, res.Item.ID)
	assert.True(t, res.Item.IsActive)
	assert.Equal(t, "close to campus", res.Item.Description)
	require.Len(t, res.Item.Images, 1)
	assert.Equal(t, res.Item.Images[0], res.Item.MainImage)
	assert.Equal(t, res.Item.MainImage, res.Item.DisplayImage)
	assert.Zero(t, f.sessions.Len())

	_, err = f.images.GetSession(ctx, sess.ID)
	assert.Error(t, err)
}

func TestHouseService_CommitValidationKeepsSession(t *testing.T) {
	f := newHouseServiceFixture()
	ctx := context.Background()

	sess, err := f.service.OpenSession(ctx, nil)
	require.NoError(t, err)

	_, err = f.service.CommitSession(ctx, sess.ID, HouseRequest{Number: "7", PostalCode: "6300-100"})
	require.Error(t, err)
	assert.Equal(t, 1, f.sessions.Len())
	assert.Zero(t, f.houses.persistCalls())
}

func TestHouseService_EditExisting(t *testing.T) {
	h := seededHouse([]string{"a.jpg", "b.jpg"}, "a.jpg")
	f := newHouseServiceFixture(h)
	ctx := context.Background()
	id := h.ID()

	sess, err := f.service.OpenSession(ctx, &id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, sess.Existing)
	assert.Equal(t, "a.jpg", sess.MainImage)

	_, err = f.images.RemoveExistingImage(ctx, sess.ID, "a.jpg")
	require.NoError(t, err)

	inactive := false
	res, err := f.service.CommitSession(ctx, sess.ID, HouseRequest{
		Number: "12", Street: "Rua Direita", PostalCode: "6300-001", Floor: 1, IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.False(t, res.Item.IsActive)
	assert.Equal(t, []string{"b.jpg"}, res.Item.Images)
	assert.Empty(t, res.Item.MainImage)
	assert.Equal(t, "b.jpg", res.Item.DisplayImage)
	assert.Equal(t, []string{"a.jpg"}, res.Deleted)
}

func TestHouseService_OverlongFieldFailsBeforeStorage(t *testing.T) {
	h := seededHouse([]string{"a.jpg", "b.jpg"}, "a.jpg")
	f := newHouseServiceFixture(h)
	ctx := context.Background()
	id := h.ID()

	sess, err := f.service.OpenSession(ctx, &id)
	require.NoError(t, err)
	_, err = f.images.RemoveExistingImage(ctx, sess.ID, "a.jpg")
	require.NoError(t, err)
	_, err = f.images.StageFile(ctx, sess.ID, "new.png", pngBytes)
	require.NoError(t, err)

	_, err = f.service.CommitSession(ctx, sess.ID, HouseRequest{
		Number: "12", Street: strings.Repeat("r", house.MaxStreetLen+1), PostalCode: "6300-001",
	})
	var verr *gallery.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "street", verr.Field)

	assert.Zero(t, f.objects.ioCalls(), "no upload or delete may run")
	assert.Zero(t, f.houses.persistCalls())
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, f.houses.get(id).Images())
	_, err = f.sessions.Get(sess.ID)
	assert.NoError(t, err, "session stays open for a retry")
}

func TestHouseService_CommitDetectsEditSinceOpen(t *testing.T) {
	h := seededHouse([]string{"a.jpg"}, "")
	f := newHouseServiceFixture(h)
	ctx := context.Background()
	id := h.ID()
	req := HouseRequest{Number: "12", Street: "Rua Direita", PostalCode: "6300-001"}

	first, err := f.service.OpenSession(ctx, &id)
	require.NoError(t, err)
	second, err := f.service.OpenSession(ctx, &id)
	require.NoError(t, err)

	_, err = f.service.CommitSession(ctx, second.ID, req)
	require.NoError(t, err)

	_, err = f.images.RemoveExistingImage(ctx, first.ID, "a.jpg")
	require.NoError(t, err)
	_, err = f.service.CommitSession(ctx, first.ID, req)
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeConflict, derr.Code)
	assert.Zero(t, f.objects.ioCalls())
	assert.Equal(t, []string{"a.jpg"}, f.houses.get(id).Images())
}

func TestHouseService_OpenSessionForMissingHouse(t *testing.T) {
	f := newHouseServiceFixture()
	id := uuid.New()

	_, err := f.service.OpenSession(context.Background(), &id)
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeNotFound, derr.Code)
	assert.Zero(t, f.sessions.Len())
}

func TestHouseService_RejectsRoomSession(t *testing.T) {
	f := newHouseServiceFixture()
	roomWF := NewImageWorkflow(room.NewKind("room-images"), f.rooms, f.objects, nil, zap.NewNop())
	rooms := NewRoomService(f.rooms, f.houses, roomWF, f.sessions, nil, placeholder, zap.NewNop())

	sess, err := rooms.OpenSession(context.Background(), nil)
	require.NoError(t, err)

	_, err = f.service.CommitSession(context.Background(), sess.ID, HouseRequest{Number: "1", Street: "x", PostalCode: "y"})
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeValidation, derr.Code)
}

func TestHouseService_ListAndGet(t *testing.T) {
	active := seededHouse([]string{"a.jpg"}, "")
	hidden := house.NewHouse(uuid.New(), "99", "Rua Escondida", "6300-999", 0, "", false)
	f := newHouseServiceFixture(active, hidden)
	ctx := context.Background()

	public, err := f.service.ListHouses(ctx, "", 1, 9)
	require.NoError(t, err)
	assert.EqualValues(t, 1, public.Total)
	assert.Equal(t, "a.jpg", public.Items[0].DisplayImage)

	all, err := f.service.ListAllHouses(ctx, "", true, 1, 9)
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Total)

	found, err := f.service.ListAllHouses(ctx, "escondida", true, 1, 9)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, placeholder, found.Items[0].DisplayImage)

	r := room.NewRoom(uuid.New(), room.Details{Number: "1A", Price: 300, Description: "d", Type: "single", Spots: 1, HouseID: active.ID(), HouseNumber: "12"})
	require.NoError(t, f.rooms.Save(ctx, r))

	detail, err := f.service.GetHouse(ctx, active.ID())
	require.NoError(t, err)
	require.Len(t, detail.Rooms, 1)
	assert.Equal(t, "1A", detail.Rooms[0].Number)
}

func TestHouseService_DeleteHouse(t *testing.T) {
	h := seededHouse([]string{"https://cdn.test/house-images/x/1"}, "")
	f := newHouseServiceFixture(h)
	ctx := context.Background()

	r := room.NewRoom(uuid.New(), room.Details{Number: "1A", Price: 300, Description: "d", Type: "single", Spots: 1, HouseID: h.ID()})
	require.NoError(t, f.rooms.Save(ctx, r))

	_, err := f.service.DeleteHouse(ctx, h.ID())
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeConflict, derr.Code)

	require.NoError(t, f.rooms.Delete(ctx, r.ID()))
	res, err := f.service.DeleteHouse(ctx, h.ID())
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []string{houseBucket + "/x/1"}, f.objects.removes)
}
