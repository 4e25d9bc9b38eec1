package house

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/casa-guarda/service-listing/internal/domain/gallery"
)

// KindName identifies houses in image sessions and events.
const KindName = "house"

// Column widths of the houses table.
const (
	MaxNumberLen     = 20
	MaxStreetLen     = 200
	MaxPostalCodeLen = 20
)

// House is the aggregate root for a listed building.
type House struct {
	id          uuid.UUID
	number      string
	street      string
	postalCode  string
	floor       int
	description string
	isActive    bool
	images      []string
	mainImage   string
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewHouse creates an active house without images. Field rules are enforced
// by the image workflow through NewKind.
func NewHouse(id uuid.UUID, number, street, postalCode string, floor int, description string, isActive bool) *House {
	now := time.Now().UTC()
	return &House{
		id:          id,
		number:      strings.TrimSpace(number),
		street:      strings.TrimSpace(street),
		postalCode:  strings.TrimSpace(postalCode),
		floor:       floor,
		description: strings.TrimSpace(description),
		isActive:    isActive,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}
}

// Reconstruct rebuilds a House from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	number, street, postalCode string,
	floor int,
	description string,
	isActive bool,
	images []string,
	mainImage string,
	version int64,
	createdAt, updatedAt time.Time,
) *House {
	return &House{
		id:          id,
		number:      number,
		street:      street,
		postalCode:  postalCode,
		floor:       floor,
		description: description,
		isActive:    isActive,
		images:      images,
		mainImage:   mainImage,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (h *House) ID() uuid.UUID        { return h.id }
func (h *House) Number() string       { return h.number }
func (h *House) Street() string       { return h.street }
func (h *House) PostalCode() string   { return h.postalCode }
func (h *House) Floor() int           { return h.floor }
func (h *House) Description() string  { return h.description }
func (h *House) IsActive() bool       { return h.isActive }
func (h *House) Version() int64       { return h.version }
func (h *House) CreatedAt() time.Time { return h.createdAt }
func (h *House) UpdatedAt() time.Time { return h.updatedAt }

// --- gallery.Listing ---

func (h *House) ListingID() uuid.UUID { return h.id }
func (h *House) Images() []string     { return slices.Clone(h.images) }
func (h *House) MainImage() string    { return h.mainImage }

func (h *House) SetImages(images []string, mainImage string) {
	h.images = slices.Clone(images)
	h.mainImage = mainImage
}

// --- Behavior ---

// Update replaces the scalar fields with the values submitted by the edit form.
func (h *House) Update(number, street, postalCode string, floor int, description string, isActive bool) {
	h.number = strings.TrimSpace(number)
	h.street = strings.TrimSpace(street)
	h.postalCode = strings.TrimSpace(postalCode)
	h.floor = floor
	h.description = strings.TrimSpace(description)
	h.isActive = isActive
	h.version++
	h.updatedAt = time.Now().UTC()
}

// NewKind returns the image workflow configuration for houses.
func NewKind(bucket string) gallery.Kind[*House] {
	return gallery.Kind[*House]{
		Name:   KindName,
		Bucket: bucket,
		Rules: []gallery.Rule[*House]{
			{Field: "number", Message: "house number is required", Valid: func(h *House) bool { return h.number != "" }},
			{Field: "number", Message: "house number is too long", Valid: func(h *House) bool { return gallery.FitsColumn(h.number, MaxNumberLen) }},
			{Field: "street", Message: "street name is required", Valid: func(h *House) bool { return h.street != "" }},
			{Field: "street", Message: "street name is too long", Valid: func(h *House) bool { return gallery.FitsColumn(h.street, MaxStreetLen) }},
			{Field: "postal_code", Message: "postal code is required", Valid: func(h *House) bool { return h.postalCode != "" }},
			{Field: "postal_code", Message: "postal code is too long", Valid: func(h *House) bool { return gallery.FitsColumn(h.postalCode, MaxPostalCodeLen) }},
			{Field: "floor", Message: "floor must be between 0 and 2147483647", Valid: func(h *House) bool { return h.floor >= 0 && h.floor <= math.MaxInt32 }},
		},
	}
}
