package room

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casa-guarda/service-listing/internal/domain/gallery"
)

func validDetails() Details {
	return Details{
		Number:      "3",
		Price:       250,
		Description: "Single room with desk",
		Type:        "single",
		Spots:       1,
		IsAvailable: true,
		HouseID:     uuid.New(),
		HouseNumber: "12",
	}
}

func TestNewKind_Rules(t *testing.T) {
	kind := NewKind("room-images")

	tests := []struct {
		name   string
		mutate func(*Details)
		field  string
	}{
		{"missing number", func(d *Details) { d.Number = "" }, "number"},
		{"zero price", func(d *Details) { d.Price = 0 }, "price"},
		{"negative price", func(d *Details) { d.Price = -10 }, "price"},
		{"blank description", func(d *Details) { d.Description = "  " }, "description"},
		{"missing type", func(d *Details) { d.Type = "" }, "type"},
		{"no spots", func(d *Details) { d.Spots = 0 }, "spots"},
		{"no house", func(d *Details) { d.HouseID = uuid.Nil }, "house_id"},
		{"long number", func(d *Details) { d.Number = strings.Repeat("9", MaxNumberLen+1) }, "number"},
		{"price over column precision", func(d *Details) { d.Price = 100000000 }, "price"},
		{"long type", func(d *Details) { d.Type = strings.Repeat("t", MaxTypeLen+1) }, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDetails()
			tt.mutate(&d)
			var verr *gallery.ValidationError
			require.ErrorAs(t, kind.Validate(NewRoom(uuid.New(), d), 1), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestNewKind_RequiresAnImage(t *testing.T) {
	kind := NewKind("room-images")
	r := NewRoom(uuid.New(), validDetails())

	var verr *gallery.ValidationError
	require.ErrorAs(t, kind.Validate(r, 0), &verr)
	assert.Equal(t, "images", verr.Field)
	assert.NoError(t, kind.Validate(r, 1))
}

func TestUpdate_ReplacesDetails(t *testing.T) {
	r := NewRoom(uuid.New(), validDetails())
	d := validDetails()
	d.Price = 300
	d.IsAvailable = false

	r.Update(d)

	assert.Equal(t, 300.0, r.Price())
	assert.False(t, r.IsAvailable())
	assert.Equal(t, int64(2), r.Version())
}
