package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casa-guarda/service-listing/internal/domain/gallery"
	"github.com/casa-guarda/service-listing/internal/events"
	"github.com/casa-guarda/service-listing/internal/platform/kafka"
	"github.com/casa-guarda/service-listing/internal/storage"
)

// ListingStore is the relational persistence the workflow needs for one
// listing kind.
type ListingStore[T gallery.Listing] interface {
	FindByID(ctx context.Context, id uuid.UUID) (T, error)
	Save(ctx context.Context, entity T) error
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventPublisher publishes CloudEvents. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error
}

// CommitResult describes a persisted commit.
type CommitResult[T gallery.Listing] struct {
	Entity   T
	Created  bool
	Uploaded []gallery.UploadedFile
	Deleted  []string
	Warnings []*gallery.StorageDeleteError
}

// ImageWorkflow reconciles an edit session against object storage and the
// relational store for one listing kind.
type ImageWorkflow[T gallery.Listing] struct {
	kind    gallery.Kind[T]
	store   ListingStore[T]
	objects storage.ObjectStore
	events  EventPublisher
	newID   func() uuid.UUID
	logger  *zap.Logger
}

// NewImageWorkflow creates a workflow. events may be nil.
func NewImageWorkflow[T gallery.Listing](
	kind gallery.Kind[T],
	store ListingStore[T],
	objects storage.ObjectStore,
	publisher EventPublisher,
	logger *zap.Logger,
) *ImageWorkflow[T] {
	return &ImageWorkflow[T]{
		kind:    kind,
		store:   store,
		objects: objects,
		events:  publisher,
		newID:   uuid.New,
		logger:  logger.With(zap.String("kind", kind.Name)),
	}
}

// Kind returns the workflow configuration.
func (w *ImageWorkflow[T]) Kind() gallery.Kind[T] { return w.kind }

// Load fills an edit session with the entity's current images. A session
// closed while the fetch was running discards the result.
func (w *ImageWorkflow[T]) Load(ctx context.Context, sess *gallery.Session) error {
	if sess.IsCreate() {
		return nil
	}
	token := sess.BeginLoad()
	entity, err := w.store.FindByID(ctx, sess.EntityID())
	if err != nil {
		return err
	}
	return sess.Load(token, entity.Images(), entity.MainImage(), entity.Version())
}

// Commit applies the session to entity: validate, upload staged files,
// delete marked images, rebuild the image list and persist. Any returned
// error leaves the session open for a retry.
func (w *ImageWorkflow[T]) Commit(ctx context.Context, sess *gallery.Session, entity T) (*CommitResult[T], error) {
	snap, err := sess.BeginCommit()
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() { sess.EndCommit(committed) }()

	if entity.ListingID() != snap.EntityID {
		return nil, &gallery.PreconditionError{Op: "commit", Ref: entity.ListingID().String()}
	}

	if err := w.kind.Validate(entity, len(snap.Existing)+len(snap.Staged)); err != nil {
		return nil, err
	}

	start := time.Now()
	uploaded, err := w.uploadStaged(ctx, snap)
	if err != nil {
		w.logger.Error("image upload failed, commit aborted",
			zap.String("entity_id", snap.EntityID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	deleted, warnings := w.removeRefs(ctx, snap.EntityID, snap.Marked, events.ReasonMarkedForDeletion)

	uploadedRefs := make([]string, len(uploaded))
	for i, u := range uploaded {
		uploadedRefs[i] = u.Ref
	}
	final := gallery.FinalImages(snap.Existing, snap.Marked, uploadedRefs)
	mainImage := gallery.ResolveMain(snap.MainRef, snap.Staged, uploadedRefs, final)
	entity.SetImages(final, mainImage)

	op := "update"
	persist := w.store.Update
	if snap.Create {
		op = "insert"
		persist = w.store.Save
	}
	if err := persist(ctx, entity); err != nil {
		w.logger.Error("listing persistence failed after storage changes",
			zap.String("entity_id", snap.EntityID.String()),
			zap.String("op", op),
			zap.Int("uploaded", len(uploaded)),
			zap.Int("deleted", len(deleted)),
			zap.Error(err),
		)
		return nil, &gallery.PersistenceError{Op: op, EntityID: snap.EntityID, Err: err}
	}
	committed = true

	w.logger.Info("image session committed",
		zap.String("session_id", snap.ID.String()),
		zap.String("entity_id", snap.EntityID.String()),
		zap.String("op", op),
		zap.Int("images", len(final)),
		zap.Int("uploaded", len(uploaded)),
		zap.Int("deleted", len(deleted)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("elapsed", time.Since(start)),
	)

	w.publish(ctx, events.TopicListingEvents, events.SavedType(w.kind.Name), snap.EntityID, events.ListingSavedEvent{
		Kind:       w.kind.Name,
		EntityID:   snap.EntityID,
		Created:    snap.Create,
		Images:     final,
		MainImage:  mainImage,
		OccurredAt: time.Now().UTC(),
	})

	return &CommitResult[T]{
		Entity:   entity,
		Created:  snap.Create,
		Uploaded: uploaded,
		Deleted:  deleted,
		Warnings: warnings,
	}, nil
}

// Delete removes the entity row, then makes a best-effort attempt to delete
// every stored image it referenced. Image failures are returned as warnings.
func (w *ImageWorkflow[T]) Delete(ctx context.Context, id uuid.UUID) ([]*gallery.StorageDeleteError, error) {
	entity, err := w.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	images := entity.Images()

	if err := w.store.Delete(ctx, id); err != nil {
		return nil, &gallery.PersistenceError{Op: "delete", EntityID: id, Err: err}
	}

	_, warnings := w.removeRefs(ctx, id, images, events.ReasonEntityDeleted)

	w.logger.Info("listing deleted",
		zap.String("entity_id", id.String()),
		zap.Int("images", len(images)),
		zap.Int("warnings", len(warnings)),
	)
	w.publish(ctx, events.TopicListingEvents, events.DeletedType(w.kind.Name), id, events.ListingDeletedEvent{
		Kind:       w.kind.Name,
		EntityID:   id,
		OccurredAt: time.Now().UTC(),
	})
	return warnings, nil
}

func (w *ImageWorkflow[T]) uploadStaged(ctx context.Context, snap gallery.Snapshot) ([]gallery.UploadedFile, error) {
	uploaded := make([]gallery.UploadedFile, 0, len(snap.Staged))
	for _, f := range snap.Staged {
		key := storage.ObjectKey(snap.EntityID, w.newID())
		path, err := w.objects.Upload(ctx, w.kind.Bucket, key, f.ContentType, f.Data)
		if err != nil {
			return nil, &gallery.UploadError{
				Failed:       f.Name,
				FailedHandle: f.Handle,
				Uploaded:     uploaded,
				Err:          err,
			}
		}
		uploaded = append(uploaded, gallery.UploadedFile{
			Name: f.Name,
			Ref:  w.objects.PublicURL(w.kind.Bucket, path),
		})
	}
	return uploaded, nil
}

// removeRefs deletes one object per ref. Failures are logged, published as
// orphans and collected; they never stop the loop.
func (w *ImageWorkflow[T]) removeRefs(ctx context.Context, entityID uuid.UUID, refs []string, reason string) ([]string, []*gallery.StorageDeleteError) {
	var (
		deleted  []string
		warnings []*gallery.StorageDeleteError
	)
	for _, ref := range refs {
		key := storage.KeyFromRef(w.kind.Bucket, ref)
		if err := w.objects.Remove(ctx, w.kind.Bucket, []string{key}); err != nil {
			warn := &gallery.StorageDeleteError{Ref: ref, Key: key, Err: err}
			warnings = append(warnings, warn)
			w.logger.Warn("failed to delete stored image",
				zap.String("entity_id", entityID.String()),
				zap.String("key", key),
				zap.Error(err),
			)
			w.publish(ctx, events.TopicStorageEvents, events.ObjectOrphan, entityID, events.ObjectOrphanedEvent{
				Bucket:     w.kind.Bucket,
				Key:        key,
				Ref:        ref,
				Reason:     reason,
				EntityID:   entityID,
				OccurredAt: time.Now().UTC(),
			})
			continue
		}
		deleted = append(deleted, ref)
	}
	return deleted, warnings
}

func (w *ImageWorkflow[T]) publish(ctx context.Context, topic, eventType string, subject uuid.UUID, data interface{}) {
	if w.events == nil {
		return
	}
	ce, err := kafka.NewCloudEvent(events.Source, eventType, data)
	if err != nil {
		w.logger.Error("failed to create cloud event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	ce.Subject = subject.String()
	if err := w.events.PublishEvent(ctx, topic, ce); err != nil {
		w.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
