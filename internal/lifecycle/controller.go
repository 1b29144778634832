// Package lifecycle drives the autosave of an audit being edited: it saves
// the working draft on a fixed interval and on demand, and never lets a stale
// in-memory status regress a completed audit.
package lifecycle

import (
	"auditcore/pkg/domain"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the autosave period.
const DefaultInterval = 30 * time.Second

// Backend is the persistence collaborator of the controller.
type Backend interface {
	// GetStatus returns the currently persisted status of an audit.
	GetStatus(ctx context.Context, auditID string) (domain.Status, error)
	// Save persists a patch and the requested status.
	Save(ctx context.Context, auditID string, patch domain.Patch, status domain.Status) (domain.Audit, error)
}

// DraftFunc returns the working copy to persist. An empty patch still
// refreshes the status.
type DraftFunc func() (domain.Patch, error)

// FallbackRecorder counts autosaves that used the last known status.
type FallbackRecorder interface {
	AutosaveFallback()
}

type noopRecorder struct{}

func (noopRecorder) AutosaveFallback() {}

// Controller owns the autosave loop of one audit.
type Controller struct {
	backend  Backend
	auditID  string
	draft    DraftFunc
	interval time.Duration
	logger   *zap.Logger
	recorder FallbackRecorder

	mu   sync.Mutex
	last domain.Status
}

// Option configures a Controller.
type Option func(*Controller)

// WithInterval overrides the autosave period.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder sets the fallback recorder.
func WithRecorder(rec FallbackRecorder) Option {
	return func(c *Controller) {
		if rec != nil {
			c.recorder = rec
		}
	}
}

// WithStatus seeds the last known status, usually from the audit as loaded.
func WithStatus(s domain.Status) Option {
	return func(c *Controller) {
		if s.Valid() {
			c.last = s
		}
	}
}

// New returns a controller for one audit.
func New(backend Backend, auditID string, draft DraftFunc, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		auditID:  auditID,
		draft:    draft,
		interval: DefaultInterval,
		logger:   zap.NewNop(),
		recorder: noopRecorder{},
		last:     domain.StatusDraft,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns the last known status.
func (c *Controller) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Interval returns the autosave period.
func (c *Controller) Interval() time.Duration { return c.interval }

// autosaveStatus resolves the status written by an autosave: completed stays
// completed, anything else is in progress.
func autosaveStatus(current domain.Status) domain.Status {
	if current == domain.StatusCompleted {
		return domain.StatusCompleted
	}
	return domain.StatusInProgress
}

// SaveNow persists the draft. The persisted status is read right before the
// write; if that read fails the last known status is used instead so the
// draft is never dropped.
func (c *Controller) SaveNow(ctx context.Context) (domain.Audit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.backend.GetStatus(ctx, c.auditID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Audit{}, err
		}
		c.logger.Warn("autosave status read failed, using last known status",
			zap.String("audit_id", c.auditID),
			zap.String("status", string(c.last)),
			zap.Error(err))
		c.recorder.AutosaveFallback()
		current = c.last
	}
	return c.save(ctx, autosaveStatus(current))
}

// Complete persists the draft and requests completion.
func (c *Controller) Complete(ctx context.Context) (domain.Audit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, domain.StatusCompleted)
}

func (c *Controller) save(ctx context.Context, status domain.Status) (domain.Audit, error) {
	var patch domain.Patch
	if c.draft != nil {
		p, err := c.draft()
		if err != nil {
			return domain.Audit{}, fmt.Errorf("read draft: %w", err)
		}
		patch = p
	}
	saved, err := c.backend.Save(ctx, c.auditID, patch, status)
	if err != nil {
		return domain.Audit{}, err
	}
	c.last = saved.Status
	c.logger.Debug("audit saved",
		zap.String("audit_id", c.auditID),
		zap.String("status", string(saved.Status)))
	return saved, nil
}

// Run autosaves on every tick until ctx is done. Failed saves are logged and
// retried on the next tick.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := c.SaveNow(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.logger.Warn("autosave failed", zap.String("audit_id", c.auditID), zap.Error(err))
				if errors.Is(err, domain.ErrNotFound) {
					return err
				}
			}
		}
	}
}
