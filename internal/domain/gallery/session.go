package gallery

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// PreviewPrefix marks a reference to a staged, not yet uploaded file.
const PreviewPrefix = "blob:"

// Staged files are held in memory until commit, so each session is capped.
const (
	MaxStagedFiles = 20
	MaxStagedBytes = 64 << 20
)

// IsPreviewHandle reports whether ref points at a staged file.
func IsPreviewHandle(ref string) bool {
	return strings.HasPrefix(ref, PreviewPrefix)
}

// StagedFile is a locally selected image waiting for upload.
type StagedFile struct {
	Handle      string
	Name        string
	ContentType string
	Data        []byte
}

// Snapshot is an immutable copy of a session's collections.
type Snapshot struct {
	ID       uuid.UUID
	Kind     string
	EntityID uuid.UUID
	Create   bool
	Existing []string
	Staged   []StagedFile
	Marked   []string
	MainRef  string
}

// Session tracks the image edits of one listing across an edit interaction.
// All mutations are in-memory and guarded by mu; only one commit may be in
// flight at a time.
type Session struct {
	id       uuid.UUID
	kind     string
	entityID uuid.UUID
	create   bool

	mu        sync.Mutex
	existing  []string
	staged    []StagedFile
	marked    []string
	mainRef   string
	loadToken uint64
	version   int64
	closed    bool
	touchedAt time.Time

	busy atomic.Bool
}

// NewSession creates an empty session. create marks sessions for entities
// that do not exist in the store yet.
func NewSession(kind string, entityID uuid.UUID, create bool) *Session {
	return &Session{
		id:        uuid.New(),
		kind:      kind,
		entityID:  entityID,
		create:    create,
		touchedAt: time.Now().UTC(),
	}
}

func (s *Session) ID() uuid.UUID       { return s.id }
func (s *Session) Kind() string        { return s.kind }
func (s *Session) EntityID() uuid.UUID { return s.entityID }
func (s *Session) IsCreate() bool      { return s.create }
func (s *Session) IsBusy() bool        { return s.busy.Load() }

// TouchedAt returns the time of the last successful operation.
func (s *Session) TouchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

// IsClosed reports whether the session has been discarded.
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// BeginLoad returns a token that must be passed to Load. Starting a new load
// invalidates earlier tokens.
func (s *Session) BeginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadToken++
	return s.loadToken
}

// Load applies the persisted images fetched for token, together with the
// entity version they were read at. Results arriving after Close or after a
// newer BeginLoad are discarded with ErrSessionClosed.
func (s *Session) Load(token uint64, images []string, mainImage string, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || token != s.loadToken {
		return ErrSessionClosed
	}

	existing := make([]string, 0, len(images))
	for _, img := range images {
		if img == "" || slices.Contains(existing, img) {
			continue
		}
		existing = append(existing, img)
	}
	s.existing = existing
	s.version = version
	s.marked = nil
	s.mainRef = ""
	if slices.Contains(existing, mainImage) {
		s.mainRef = mainImage
	}
	s.touchedAt = time.Now().UTC()
	return nil
}

// LoadedVersion returns the entity version the session was loaded from, or
// zero for sessions that were never loaded.
func (s *Session) LoadedVersion() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Close discards the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// StageFile appends a file after checking that its content is an image, and
// returns the preview handle identifying it.
func (s *Session) StageFile(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &ValidationError{Field: "images", Message: name + " is empty"}
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", &ValidationError{Field: "images", Message: name + " is not an image (" + mtype.String() + ")"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked(); err != nil {
		return "", err
	}
	if len(s.staged) >= MaxStagedFiles {
		return "", &ValidationError{Field: "images", Message: fmt.Sprintf("at most %d files can be staged at once", MaxStagedFiles)}
	}
	total := len(data)
	for _, f := range s.staged {
		total += len(f.Data)
	}
	if total > MaxStagedBytes {
		return "", &ValidationError{Field: "images", Message: fmt.Sprintf("staged files cannot exceed %d MB in total", MaxStagedBytes>>20)}
	}

	f := StagedFile{
		Handle:      PreviewPrefix + uuid.NewString(),
		Name:        name,
		ContentType: mtype.String(),
		Data:        data,
	}
	s.staged = append(s.staged, f)
	s.touchedAt = time.Now().UTC()
	return f.Handle, nil
}

// RemoveExisting moves ref from the existing images to the deletion set.
func (s *Session) RemoveExisting(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked(); err != nil {
		return err
	}

	i := slices.Index(s.existing, ref)
	if i < 0 {
		return &PreconditionError{Op: "remove existing image", Ref: ref}
	}
	s.existing = slices.Delete(s.existing, i, i+1)
	s.marked = append(s.marked, ref)
	if s.mainRef == ref {
		s.mainRef = ""
	}
	s.touchedAt = time.Now().UTC()
	return nil
}

// RemoveStaged drops the staged file with the given preview handle.
func (s *Session) RemoveStaged(handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked(); err != nil {
		return err
	}

	i := slices.IndexFunc(s.staged, func(f StagedFile) bool { return f.Handle == handle })
	if i < 0 {
		return &PreconditionError{Op: "remove staged file", Ref: handle}
	}
	s.removeStagedLocked(i)
	return nil
}

// RemoveStagedAt drops the staged file at position index.
func (s *Session) RemoveStagedAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked(); err != nil {
		return err
	}

	if index < 0 || index >= len(s.staged) {
		return &PreconditionError{Op: "remove staged file", Ref: "#" + strconv.Itoa(index)}
	}
	s.removeStagedLocked(index)
	return nil
}

func (s *Session) removeStagedLocked(i int) {
	handle := s.staged[i].Handle
	s.staged = slices.Delete(s.staged, i, i+1)
	if s.mainRef == handle {
		s.mainRef = ""
	}
	s.touchedAt = time.Now().UTC()
}

// SetMainImage designates ref as the main image. An empty ref clears it.
func (s *Session) SetMainImage(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked(); err != nil {
		return err
	}

	if ref != "" && !s.holdsLocked(ref) {
		return &PreconditionError{Op: "set main image", Ref: ref}
	}
	s.mainRef = ref
	s.touchedAt = time.Now().UTC()
	return nil
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// BeginCommit marks the session busy and returns the state to commit.
// EndCommit must be called once the commit finishes.
func (s *Session) BeginCommit() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrSessionClosed
	}
	if !s.busy.CompareAndSwap(false, true) {
		return Snapshot{}, ErrSessionBusy
	}
	return s.snapshotLocked(), nil
}

// EndCommit clears the busy flag. A successful commit closes the session;
// a failed one leaves every collection untouched for a retry.
func (s *Session) EndCommit(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if success {
		s.closed = true
	}
	s.touchedAt = time.Now().UTC()
	s.busy.Store(false)
}

func (s *Session) mutableLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.busy.Load() {
		return ErrSessionBusy
	}
	return nil
}

func (s *Session) holdsLocked(ref string) bool {
	if IsPreviewHandle(ref) {
		return slices.ContainsFunc(s.staged, func(f StagedFile) bool { return f.Handle == ref })
	}
	return slices.Contains(s.existing, ref)
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:       s.id,
		Kind:     s.kind,
		EntityID: s.entityID,
		Create:   s.create,
		Existing: slices.Clone(s.existing),
		Staged:   slices.Clone(s.staged),
		Marked:   slices.Clone(s.marked),
		MainRef:  s.mainRef,
	}
}
