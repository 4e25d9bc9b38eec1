package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casa-guarda/service-listing/internal/domain"
	"github.com/casa-guarda/service-listing/internal/domain/gallery"
)

// SessionRegistry holds open image edit sessions in memory.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*gallery.Session
	idleTTL  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewSessionRegistry creates a registry that expires sessions idle for
// longer than idleTTL.
func NewSessionRegistry(idleTTL time.Duration, logger *zap.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[uuid.UUID]*gallery.Session),
		idleTTL:  idleTTL,
		now:      time.Now,
		logger:   logger,
	}
}

// Add registers sess.
func (r *SessionRegistry) Add(sess *gallery.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID()] = sess
}

// Get returns the open session with id.
func (r *SessionRegistry) Get(id uuid.UUID) (*gallery.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok || sess.IsClosed() {
		return nil, domain.NewNotFoundError("Image session", id.String())
	}
	return sess, nil
}

// Close closes and forgets the session with id. Unknown ids are ignored.
func (r *SessionRegistry) Close(id uuid.UUID) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		sess.Close()
	}
}

// Len returns the number of registered sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions that are closed already or idle past the TTL.
// Sessions with a commit in flight are kept.
func (r *SessionRegistry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var expired []*gallery.Session
	for id, sess := range r.sessions {
		if sess.IsBusy() {
			continue
		}
		if sess.IsClosed() || sess.TouchedAt().Before(cutoff) {
			expired = append(expired, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("expired image sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is cancelled.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
