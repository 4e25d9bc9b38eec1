package gallery

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Listing is an entity owning an ordered image list and an optional main image.
type Listing interface {
	ListingID() uuid.UUID
	Images() []string
	MainImage() string
	Version() int64
	SetImages(images []string, mainImage string)
}

// Rule checks one required scalar field of an entity.
type Rule[T any] struct {
	Field   string
	Message string
	Valid   func(T) bool
}

// Kind configures the reconciliation workflow for one entity type.
type Kind[T any] struct {
	Name      string
	Bucket    string
	Rules     []Rule[T]
	MinImages int
}

// Validate runs the rules in order and returns a *ValidationError for the
// first one that fails. imageCount is the number of images the entity would
// keep after the commit.
func (k Kind[T]) Validate(v T, imageCount int) error {
	for _, r := range k.Rules {
		if !r.Valid(v) {
			return &ValidationError{Field: r.Field, Message: r.Message}
		}
	}
	if imageCount < k.MinImages {
		return &ValidationError{
			Field:   "images",
			Message: fmt.Sprintf("at least %d image(s) required", k.MinImages),
		}
	}
	return nil
}

// FitsColumn reports whether s fits a VARCHAR(n) column.
func FitsColumn(s string, n int) bool {
	return utf8.RuneCountInString(s) <= n
}
