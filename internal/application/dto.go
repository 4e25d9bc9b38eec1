package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/casa-guarda/service-listing/internal/domain/gallery"
	"github.com/casa-guarda/service-listing/internal/domain/house"
	"github.com/casa-guarda/service-listing/internal/domain/room"
)

// HouseDTO is the API representation of a house.
type HouseDTO struct {
	ID           uuid.UUID `json:"id"`
	Number       string    `json:"number"`
	Street       string    `json:"street"`
	PostalCode   string    `json:"postal_code"`
	Floor        int       `json:"floor"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"`
	Images       []string  `json:"images"`
	MainImage    string    `json:"main_image,omitempty"`
	DisplayImage string    `json:"display_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HouseDetailDTO is a house with its rooms.
type HouseDetailDTO struct {
	HouseDTO
	Rooms []*RoomDTO `json:"rooms"`
}

// RoomDTO is the API representation of a room.
type RoomDTO struct {
	ID           uuid.UUID `json:"id"`
	Number       string    `json:"number"`
	Price        float64   `json:"price"`
	Description  string    `json:"description"`
	Type         string    `json:"type"`
	Spots        int       `json:"spots"`
	IsAvailable  bool      `json:"is_available"`
	HouseID      uuid.UUID `json:"house_id"`
	HouseNumber  string    `json:"house_number"`
	Images       []string  `json:"images"`
	MainImage    string    `json:"main_image,omitempty"`
	DisplayImage string    `json:"display_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListResult is one page of items.
type ListResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// StagedFileDTO describes a staged file without its content.
type StagedFileDTO struct {
	Handle      string `json:"handle"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// SessionDTO is the API representation of an image edit session.
type SessionDTO struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	EntityID  uuid.UUID       `json:"entity_id"`
	Create    bool            `json:"create"`
	Existing  []string        `json:"existing_images"`
	Staged    []StagedFileDTO `json:"staged_files"`
	Marked    []string        `json:"marked_for_deletion"`
	MainImage string          `json:"main_image,omitempty"`
	Busy      bool            `json:"busy"`
}

// StorageWarningDTO reports an image that could not be deleted.
type StorageWarningDTO struct {
	Ref   string `json:"ref"`
	Key   string `json:"key"`
	Error string `json:"error"`
}

// CommitDTO is the outcome of a successful commit.
type CommitDTO[T any] struct {
	Item     T                      `json:"item"`
	Created  bool                   `json:"created"`
	Uploaded []gallery.UploadedFile `json:"uploaded"`
	Deleted  []string               `json:"deleted"`
	Warnings []StorageWarningDTO    `json:"warnings"`
}

// DeleteDTO is the outcome of a listing deletion.
type DeleteDTO struct {
	ID       uuid.UUID           `json:"id"`
	Warnings []StorageWarningDTO `json:"warnings"`
}

func toHouseDTO(h *house.House, placeholder string) *HouseDTO {
	images := h.Images()
	if images == nil {
		images = []string{}
	}
	return &HouseDTO{
		ID:           h.ID(),
		Number:       h.Number(),
		Street:       h.Street(),
		PostalCode:   h.PostalCode(),
		Floor:        h.Floor(),
		Description:  h.Description(),
		IsActive:     h.IsActive(),
		Images:       images,
		MainImage:    h.MainImage(),
		DisplayImage: gallery.DisplayImage(images, h.MainImage(), placeholder),
		CreatedAt:    h.CreatedAt(),
		UpdatedAt:    h.UpdatedAt(),
	}
}

func toRoomDTO(r *room.Room, placeholder string) *RoomDTO {
	images := r.Images()
	if images == nil {
		images = []string{}
	}
	return &RoomDTO{
		ID:           r.ID(),
		Number:       r.Number(),
		Price:        r.Price(),
		Description:  r.Description(),
		Type:         r.Type(),
		Spots:        r.Spots(),
		IsAvailable:  r.IsAvailable(),
		HouseID:      r.HouseID(),
		HouseNumber:  r.HouseNumber(),
		Images:       images,
		MainImage:    r.MainImage(),
		DisplayImage: gallery.DisplayImage(images, r.MainImage(), placeholder),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}

func toSessionDTO(sess *gallery.Session) *SessionDTO {
	snap := sess.Snapshot()
	staged := make([]StagedFileDTO, len(snap.Staged))
	for i, f := range snap.Staged {
		staged[i] = StagedFileDTO{Handle: f.Handle, Name: f.Name, ContentType: f.ContentType, Size: len(f.Data)}
	}
	return &SessionDTO{
		ID:        snap.ID,
		Kind:      snap.Kind,
		EntityID:  snap.EntityID,
		Create:    snap.Create,
		Existing:  nonNil(snap.Existing),
		Staged:    staged,
		Marked:    nonNil(snap.Marked),
		MainImage: snap.MainRef,
		Busy:      sess.IsBusy(),
	}
}

func toCommitDTO[E gallery.Listing, D any](res *CommitResult[E], item D) *CommitDTO[D] {
	uploaded := res.Uploaded
	if uploaded == nil {
		uploaded = []gallery.UploadedFile{}
	}
	return &CommitDTO[D]{
		Item:     item,
		Created:  res.Created,
		Uploaded: uploaded,
		Deleted:  nonNil(res.Deleted),
		Warnings: toWarningDTOs(res.Warnings),
	}
}

func toWarningDTOs(warnings []*gallery.StorageDeleteError) []StorageWarningDTO {
	out := make([]StorageWarningDTO, len(warnings))
	for i, w := range warnings {
		out[i] = StorageWarningDTO{Ref: w.Ref, Key: w.Key, Error: w.Err.Error()}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
