package events

import (
	"time"

	"github.com/google/uuid"
)

// Source is the CloudEvent source of everything this service publishes.
const Source = "service-listing"

// Topics.
const (
	TopicListingEvents = "listing.events"
	TopicStorageEvents = "storage.events"
)

// Event types.
const (
	HouseSaved   = "listing.house.saved"
	HouseDeleted = "listing.house.deleted"
	RoomSaved    = "listing.room.saved"
	RoomDeleted  = "listing.room.deleted"
	ObjectOrphan = "storage.object.orphaned"
)

// Orphan reasons.
const (
	ReasonMarkedForDeletion = "marked_for_deletion"
	ReasonEntityDeleted     = "entity_deleted"
)

// ListingSavedEvent is published after a commit persists a listing.
type ListingSavedEvent struct {
	Kind       string    `json:"kind"`
	EntityID   uuid.UUID `json:"entity_id"`
	Created    bool      `json:"created"`
	Images     []string  `json:"images"`
	MainImage  string    `json:"main_image,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ListingDeletedEvent is published after a listing row is deleted.
type ListingDeletedEvent struct {
	Kind       string    `json:"kind"`
	EntityID   uuid.UUID `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ObjectOrphanedEvent reports a stored object whose best-effort delete failed.
type ObjectOrphanedEvent struct {
	Bucket     string    `json:"bucket"`
	Key        string    `json:"key"`
	Ref        string    `json:"ref"`
	Reason     string    `json:"reason"`
	EntityID   uuid.UUID `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SavedType returns the saved event type for a listing kind.
func SavedType(kind string) string { return "listing." + kind + ".saved" }

// DeletedType returns the deleted event type for a listing kind.
func DeletedType(kind string) string { return "listing." + kind + ".deleted" }
