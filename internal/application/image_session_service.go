package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StageResult is returned after staging a file.
type StageResult struct {
	Handle  string      `json:"handle"`
	Session *SessionDTO `json:"session"`
}

// ImageSessionService handles the in-memory edits of an open image session.
// Opening and committing a session is done by the kind's own service.
type ImageSessionService struct {
	sessions *SessionRegistry
	logger   *zap.Logger
}

// NewImageSessionService creates a new ImageSessionService.
func NewImageSessionService(sessions *SessionRegistry, logger *zap.Logger) *ImageSessionService {
	return &ImageSessionService{sessions: sessions, logger: logger}
}

// GetSession returns the current state of a session.
func (s *ImageSessionService) GetSession(_ context.Context, id uuid.UUID) (*SessionDTO, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return toSessionDTO(sess), nil
}

// StageFile adds an image to the session.
func (s *ImageSessionService) StageFile(_ context.Context, id uuid.UUID, name string, data []byte) (*StageResult, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	handle, err := sess.StageFile(name, data)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("file staged",
		zap.String("session_id", id.String()),
		zap.String("name", name),
		zap.Int("size", len(data)),
	)
	return &StageResult{Handle: handle, Session: toSessionDTO(sess)}, nil
}

// RemoveExistingImage marks a persisted image for deletion.
func (s *ImageSessionService) RemoveExistingImage(_ context.Context, id uuid.UUID, ref string) (*SessionDTO, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.RemoveExisting(ref); err != nil {
		return nil, err
	}
	return toSessionDTO(sess), nil
}

// RemoveStagedFile drops a staged file by preview handle.
func (s *ImageSessionService) RemoveStagedFile(_ context.Context, id uuid.UUID, handle string) (*SessionDTO, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.RemoveStaged(handle); err != nil {
		return nil, err
	}
	return toSessionDTO(sess), nil
}

// RemoveStagedFileAt drops the staged file at index.
func (s *ImageSessionService) RemoveStagedFileAt(_ context.Context, id uuid.UUID, index int) (*SessionDTO, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.RemoveStagedAt(index); err != nil {
		return nil, err
	}
	return toSessionDTO(sess), nil
}

// SetMainImage designates ref, or clears the main image when ref is empty.
func (s *ImageSessionService) SetMainImage(_ context.Context, id uuid.UUID, ref string) (*SessionDTO, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.SetMainImage(ref); err != nil {
		return nil, err
	}
	return toSessionDTO(sess), nil
}

// CloseSession discards a session and everything staged in it.
func (s *ImageSessionService) CloseSession(_ context.Context, id uuid.UUID) error {
	if _, err := s.sessions.Get(id); err != nil {
		return err
	}
	s.sessions.Close(id)
	s.logger.Info("image session closed", zap.String("session_id", id.String()))
	return nil
}
