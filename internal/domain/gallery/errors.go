package gallery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrSessionBusy is returned when a commit is already running for the session.
	ErrSessionBusy = errors.New("image session has a commit in progress")
	// ErrSessionClosed is returned for any operation on a discarded session.
	ErrSessionClosed = errors.New("image session is closed")
)

// ValidationError is a local, pre-I/O failure naming the first invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// PreconditionError reports an operation on a reference that is not in the
// collection it was expected in.
type PreconditionError struct {
	Op  string
	Ref string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %q is not part of the session", e.Op, e.Ref)
}

// UploadedFile pairs a staged file name with the reference it was stored under.
type UploadedFile struct {
	Name string `json:"name"`
	Ref  string `json:"ref"`
}

// UploadError aborts a commit. Uploaded lists the files stored before the
// failure; they are left in storage.
type UploadError struct {
	Failed       string
	FailedHandle string
	Uploaded     []UploadedFile
	Err          error
}

func (e *UploadError) Error() string {
	if len(e.Uploaded) == 0 {
		return fmt.Sprintf("upload of %s failed: %v", e.Failed, e.Err)
	}
	names := make([]string, len(e.Uploaded))
	for i, u := range e.Uploaded {
		names[i] = u.Name
	}
	return fmt.Sprintf("upload of %s failed after storing [%s]: %v", e.Failed, strings.Join(names, ", "), e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// StorageDeleteError is a non-fatal failure to remove one stored image.
type StorageDeleteError struct {
	Ref string
	Key string
	Err error
}

func (e *StorageDeleteError) Error() string {
	return fmt.Sprintf("delete of %s failed: %v", e.Ref, e.Err)
}

func (e *StorageDeleteError) Unwrap() error { return e.Err }

// PersistenceError is a terminal commit failure at the relational store.
// Storage side effects of the same commit are not reverted.
type PersistenceError struct {
	Op       string
	EntityID uuid.UUID
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s of %s failed, changes were not saved: %v", e.Op, e.EntityID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
