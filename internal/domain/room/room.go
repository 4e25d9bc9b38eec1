package room

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/casa-guarda/service-listing/internal/domain/gallery"
)

// KindName identifies rooms in image sessions and events.
const KindName = "room"

// Column limits of the rooms table.
const (
	MaxNumberLen = 20
	MaxTypeLen   = 30
	// MaxPrice is the largest value a NUMERIC(10,2) column holds.
	MaxPrice = 99999999.99
)

// Availability filter values.
const (
	AvailabilityAvailable = "available"
	AvailabilityRented    = "rented"
)

// Room is the aggregate root for a rentable room inside a house.
type Room struct {
	id          uuid.UUID
	number      string
	price       float64
	description string
	roomType    string
	spots       int
	isAvailable bool
	houseID     uuid.UUID
	houseNumber string
	images      []string
	mainImage   string
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// Details holds the scalar fields of a room as submitted by the admin form.
type Details struct {
	Number      string
	Price       float64
	Description string
	Type        string
	Spots       int
	IsAvailable bool
	HouseID     uuid.UUID
	HouseNumber string
}

// NewRoom creates a room without images.
func NewRoom(id uuid.UUID, d Details) *Room {
	now := time.Now().UTC()
	r := &Room{
		id:        id,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}
	r.apply(d)
	return r
}

// Reconstruct rebuilds a Room from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	d Details,
	images []string,
	mainImage string,
	version int64,
	createdAt, updatedAt time.Time,
) *Room {
	return &Room{
		id:          id,
		number:      d.Number,
		price:       d.Price,
		description: d.Description,
		roomType:    d.Type,
		spots:       d.Spots,
		isAvailable: d.IsAvailable,
		houseID:     d.HouseID,
		houseNumber: d.HouseNumber,
		images:      images,
		mainImage:   mainImage,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (r *Room) ID() uuid.UUID        { return r.id }
func (r *Room) Number() string       { return r.number }
func (r *Room) Price() float64       { return r.price }
func (r *Room) Description() string  { return r.description }
func (r *Room) Type() string         { return r.roomType }
func (r *Room) Spots() int           { return r.spots }
func (r *Room) IsAvailable() bool    { return r.isAvailable }
func (r *Room) HouseID() uuid.UUID   { return r.houseID }
func (r *Room) HouseNumber() string  { return r.houseNumber }
func (r *Room) Version() int64       { return r.version }
func (r *Room) CreatedAt() time.Time { return r.createdAt }
func (r *Room) UpdatedAt() time.Time { return r.updatedAt }

// --- gallery.Listing ---

func (r *Room) ListingID() uuid.UUID { return r.id }
func (r *Room) Images() []string     { return slices.Clone(r.images) }
func (r *Room) MainImage() string    { return r.mainImage }

func (r *Room) SetImages(images []string, mainImage string) {
	r.images = slices.Clone(images)
	r.mainImage = mainImage
}

// --- Behavior ---

// Update replaces the scalar fields.
func (r *Room) Update(d Details) {
	r.apply(d)
	r.version++
	r.updatedAt = time.Now().UTC()
}

func (r *Room) apply(d Details) {
	r.number = strings.TrimSpace(d.Number)
	r.price = d.Price
	r.description = strings.TrimSpace(d.Description)
	r.roomType = strings.TrimSpace(d.Type)
	r.spots = d.Spots
	r.isAvailable = d.IsAvailable
	r.houseID = d.HouseID
	r.houseNumber = d.HouseNumber
}

// NewKind returns the image workflow configuration for rooms. A room must
// keep at least one image.
func NewKind(bucket string) gallery.Kind[*Room] {
	return gallery.Kind[*Room]{
		Name:   KindName,
		Bucket: bucket,
		Rules: []gallery.Rule[*Room]{
			{Field: "number", Message: "room number is required", Valid: func(r *Room) bool { return r.number != "" }},
			{Field: "number", Message: "room number is too long", Valid: func(r *Room) bool { return gallery.FitsColumn(r.number, MaxNumberLen) }},
			{Field: "price", Message: "price must be a positive number", Valid: func(r *Room) bool { return r.price > 0 }},
			{Field: "price", Message: "price cannot exceed 99999999.99", Valid: func(r *Room) bool { return r.price <= MaxPrice }},
			{Field: "description", Message: "description is required", Valid: func(r *Room) bool { return r.description != "" }},
			{Field: "type", Message: "room type is required", Valid: func(r *Room) bool { return r.roomType != "" }},
			{Field: "type", Message: "room type is too long", Valid: func(r *Room) bool { return gallery.FitsColumn(r.roomType, MaxTypeLen) }},
			{Field: "spots", Message: "number of spots must be a positive number", Valid: func(r *Room) bool { return r.spots > 0 }},
			{Field: "spots", Message: "too many spots", Valid: func(r *Room) bool { return r.spots <= math.MaxInt32 }},
			{Field: "house_id", Message: "a house must be selected", Valid: func(r *Room) bool { return r.houseID != uuid.Nil }},
		},
		MinImages: 1,
	}
}
