package application

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/casa-guarda/service-listing/internal/domain"
	"github.com/casa-guarda/service-listing/internal/domain/house"
	"github.com/casa-guarda/service-listing/internal/domain/profile"
	"github.com/casa-guarda/service-listing/internal/domain/room"
	"github.com/casa-guarda/service-listing/internal/platform/kafka"
)

var (
	errStorageDown = errors.New("storage unavailable")
	errDBDown      = errors.New("database unavailable")
)

const (
	timeout = 2 * time.Second
	tick    = 10 * time.Millisecond
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// --- object store ---

type fakeObjects struct {
	mu         sync.Mutex
	uploads    []string
	removes    []string
	failUpload map[int]error // keyed by 0-based upload call index
	failRemove map[string]error
	calls      int
	block      chan struct{}
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{failUpload: map[int]error{}, failRemove: map[string]error{}}
}

func (f *fakeObjects) Upload(_ context.Context, bucket, key, _ string, _ []byte) (string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.calls
	f.calls++
	if err, ok := f.failUpload[n]; ok {
		return "", err
	}
	f.uploads = append(f.uploads, bucket+"/"+key)
	return key, nil
}

func (f *fakeObjects) PublicURL(bucket, path string) string {
	return "https://cdn.test/" + bucket + "/" + path
}

func (f *fakeObjects) Remove(_ context.Context, bucket string, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		if err, ok := f.failRemove[k]; ok {
			return err
		}
		f.removes = append(f.removes, bucket+"/"+k)
	}
	return nil
}

func (f *fakeObjects) ioCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls + len(f.removes)
}

// --- event publisher ---

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	topics []string
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic string, ce kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, ce)
	return nil
}

func (p *fakePublisher) ofType(t string) []kafka.CloudEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []kafka.CloudEvent
	for _, ce := range p.events {
		if ce.Type == t {
			out = append(out, ce)
		}
	}
	return out
}

// --- house repository ---

type fakeHouseRepo struct {
	mu         sync.Mutex
	houses     map[uuid.UUID]*house.House
	saves      int
	updates    int
	deletes    int
	failSave   error
	failUpdate error
	failDelete error
	onFind     func()
}

func newFakeHouseRepo(houses ...*house.House) *fakeHouseRepo {
	r := &fakeHouseRepo{houses: map[uuid.UUID]*house.House{}}
	for _, h := range houses {
		r.houses[h.ID()] = h
	}
	return r
}

func (r *fakeHouseRepo) FindByID(_ context.Context, id uuid.UUID) (*house.House, error) {
	if r.onFind != nil {
		r.onFind()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.houses[id]
	if !ok {
		return nil, domain.NewNotFoundError("House", id.String())
	}
	return cloneHouse(h), nil
}

func (r *fakeHouseRepo) List(_ context.Context, filter house.Filter, page, limit int) ([]*house.House, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*house.House
	for _, h := range r.houses {
		if filter.ActiveOnly && !h.IsActive() {
			continue
		}
		q := strings.ToLower(filter.Search)
		if q != "" && !strings.Contains(strings.ToLower(h.Street()+" "+h.Number()+" "+h.PostalCode()), q) {
			continue
		}
		all = append(all, cloneHouse(h))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Number() < all[j].Number() })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *fakeHouseRepo) Save(_ context.Context, h *house.House) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.failSave != nil {
		return r.failSave
	}
	r.houses[h.ID()] = cloneHouse(h)
	return nil
}

func (r *fakeHouseRepo) Update(_ context.Context, h *house.House) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.failUpdate != nil {
		return r.failUpdate
	}
	if _, ok := r.houses[h.ID()]; !ok {
		return domain.NewNotFoundError("House", h.ID().String())
	}
	r.houses[h.ID()] = cloneHouse(h)
	return nil
}

func (r *fakeHouseRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	if r.failDelete != nil {
		return r.failDelete
	}
	delete(r.houses, id)
	return nil
}

func (r *fakeHouseRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.houses)), nil
}

func (r *fakeHouseRepo) persistCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves + r.updates
}

func (r *fakeHouseRepo) get(id uuid.UUID) *house.House {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.houses[id]
}

func cloneHouse(h *house.House) *house.House {
	return house.Reconstruct(h.ID(), h.Number(), h.Street(), h.PostalCode(), h.Floor(), h.Description(),
		h.IsActive(), h.Images(), h.MainImage(), h.Version(), h.CreatedAt(), h.UpdatedAt())
}

func seededHouse(images []string, mainImage string) *house.House {
	h := house.NewHouse(uuid.New(), "12", "Rua Direita", "6300-001", 1, "near campus", true)
	h.SetImages(images, mainImage)
	return h
}

// --- room repository ---

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*room.Room
}

func newFakeRoomRepo(rooms ...*room.Room) *fakeRoomRepo {
	r := &fakeRoomRepo{rooms: map[uuid.UUID]*room.Room{}}
	for _, rm := range rooms {
		r.rooms[rm.ID()] = rm
	}
	return r
}

func (r *fakeRoomRepo) FindByID(_ context.Context, id uuid.UUID) (*room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[id]
	if !ok {
		return nil, domain.NewNotFoundError("Room", id.String())
	}
	return cloneRoom(rm), nil
}

func (r *fakeRoomRepo) FindByHouseID(_ context.Context, houseID uuid.UUID) ([]*room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*room.Room
	for _, rm := range r.rooms {
		if rm.HouseID() == houseID {
			out = append(out, cloneRoom(rm))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number() < out[j].Number() })
	return out, nil
}

func (r *fakeRoomRepo) List(_ context.Context, filter room.Filter, page, limit int) ([]*room.Room, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*room.Room
	for _, rm := range r.rooms {
		switch filter.Availability {
		case room.AvailabilityAvailable:
			if !rm.IsAvailable() {
				continue
			}
		case room.AvailabilityRented:
			if rm.IsAvailable() {
				continue
			}
		}
		if filter.Type != "" && rm.Type() != filter.Type {
			continue
		}
		if filter.MinPrice != nil && rm.Price() < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && rm.Price() > *filter.MaxPrice {
			continue
		}
		all = append(all, cloneRoom(rm))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Number() < all[j].Number() })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *fakeRoomRepo) Save(_ context.Context, rm *room.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[rm.ID()] = cloneRoom(rm)
	return nil
}

func (r *fakeRoomRepo) Update(_ context.Context, rm *room.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[rm.ID()]; !ok {
		return domain.NewNotFoundError("Room", rm.ID().String())
	}
	r.rooms[rm.ID()] = cloneRoom(rm)
	return nil
}

func (r *fakeRoomRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
	return nil
}

func (r *fakeRoomRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rooms)), nil
}

func cloneRoom(rm *room.Room) *room.Room {
	return room.Reconstruct(rm.ID(), room.Details{
		Number:      rm.Number(),
		Price:       rm.Price(),
		Description: rm.Description(),
		Type:        rm.Type(),
		Spots:       rm.Spots(),
		IsAvailable: rm.IsAvailable(),
		HouseID:     rm.HouseID(),
		HouseNumber: rm.HouseNumber(),
	}, rm.Images(), rm.MainImage(), rm.Version(), rm.CreatedAt(), rm.UpdatedAt())
}

// --- profile repository ---

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles []*profile.Profile
	failSave error
}

func (r *fakeProfileRepo) FindByID(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.UserID() == id {
			return p, nil
		}
	}
	return nil, domain.NewNotFoundError("Profile", id.String())
}

func (r *fakeProfileRepo) FindByEmail(_ context.Context, email string) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Email() == strings.ToLower(email) {
			return p, nil
		}
	}
	return nil, domain.NewNotFoundError("Profile", email)
}

func (r *fakeProfileRepo) ListAll(context.Context) ([]*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.profiles), nil
}

func (r *fakeProfileRepo) Save(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave != nil {
		return r.failSave
	}
	r.profiles = append(r.profiles, p)
	return nil
}

func (r *fakeProfileRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.profiles {
		if p.UserID() == id {
			r.profiles[i] = profile.Reconstruct(p.UserID(), p.Email(), p.PasswordHash(), p.Role(),
				p.FirstName(), p.LastName(), p.PhoneNumber(), p.Country(), p.PreferredLanguage(),
				p.PictureURL(), active, p.CreatedAt())
			return nil
		}
	}
	return domain.NewNotFoundError("Profile", id.String())
}

func (r *fakeProfileRepo) CountByActive(context.Context) (map[bool]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[bool]int64{}
	for _, p := range r.profiles {
		counts[p.IsActive()]++
	}
	return counts, nil
}

func paginate[T any](all []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(all) {
		return []T{}
	}
	end := min(start+limit, len(all))
	return all[start:end]
}
