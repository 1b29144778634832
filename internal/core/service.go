package core

import (
	"auditcore/internal/infra/persistence/memory"
	"auditcore/internal/session"
	"auditcore/pkg/domain"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Service exposes the owner-scoped, transactional audit operations.
type Service struct {
	store   PersistentStore
	logger  *zap.Logger
	metrics MetricsRecorder
	clock   Clock
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  zap.NewNop(),
		metrics: noopMetrics{},
		clock:   ClockFunc(func() time.Time { return time.Now().UTC() }),
	}
	for _, opt := range opts {
		opt(s)
	}
	if clocked, ok := store.(interface{ SetNowFunc(func() time.Time) }); ok {
		clocked.SetNowFunc(s.clock.Now)
	}
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store. A nil
// engine gets the default lifecycle rules.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

func (s *Service) run(ctx context.Context, op string, fn func(context.Context) (Result, error)) (Result, error) {
	start := time.Now()
	res, err := fn(ctx)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))

	fields := []zap.Field{zap.String("operation", op), zap.String("user_id", session.UserID(ctx))}
	var violation RuleViolationError
	switch {
	case err == nil:
		s.logger.Debug("operation completed", fields...)
	case errors.As(err, &violation):
		s.logger.Info("operation blocked by rules", append(fields, zap.Error(err))...)
	case errors.Is(err, domain.ErrNotFound):
		s.logger.Debug("operation target not found", append(fields, zap.Error(err))...)
	default:
		s.logger.Warn("operation failed", append(fields, zap.Error(err))...)
	}
	return res, err
}

type auditFinder interface {
	FindAudit(id string) (Audit, bool)
}

// visibleAudit returns the audit when it exists and belongs to the caller.
// Audits owned by someone else are reported as not found.
func visibleAudit(ctx context.Context, finder auditFinder, id string) (Audit, error) {
	a, ok := finder.FindAudit(id)
	if !ok || !session.CanAccess(ctx, a.UserID) {
		return Audit{}, fmt.Errorf("audit %q: %w", id, domain.ErrNotFound)
	}
	return a, nil
}

// resolveStatus computes the status written alongside an update. A completed
// audit stays completed; otherwise the requested completion is honoured and
// every other write lands on in_progress.
func resolveStatus(current, requested Status) Status {
	if current == StatusCompleted || requested == StatusCompleted {
		return StatusCompleted
	}
	return StatusInProgress
}

// CreateAudit persists a new audit owned by the caller.
func (s *Service) CreateAudit(ctx context.Context, audit Audit) (Audit, Result, error) {
	var created Audit
	res, err := s.run(ctx, "create_audit", func(ctx context.Context) (Result, error) {
		if audit.Status != "" && !audit.Status.Valid() {
			return Result{}, fmt.Errorf("status %q: %w", audit.Status, domain.ErrInvalidStatus)
		}
		if owner := session.UserID(ctx); owner != "" {
			audit.UserID = owner
		}
		audit.ID = ""
		if audit.WallsInfo != nil {
			audit.WallsInfo.Normalize()
		}
		if audit.HouseInfo != nil {
			audit.HouseInfo.Normalize()
		}
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateAudit(audit)
			return err
		})
	})
	return created, res, err
}

// GetAudit returns one audit visible to the caller.
func (s *Service) GetAudit(ctx context.Context, id string) (Audit, error) {
	var out Audit
	_, err := s.run(ctx, "get_audit", func(ctx context.Context) (Result, error) {
		return Result{}, s.store.View(ctx, func(view TransactionView) error {
			var err error
			out, err = visibleAudit(ctx, view, id)
			return err
		})
	})
	return out, err
}

// ListAudits returns the caller's audits, most recently updated first.
func (s *Service) ListAudits(ctx context.Context) ([]Audit, error) {
	return s.SearchAudits(ctx, Query{})
}

// Query filters SearchAudits. Empty fields match everything; Status "all"
// disables status filtering.
type Query struct {
	Text   string
	Status string
}

func (q Query) matches(a Audit) bool {
	if status := strings.TrimSpace(q.Status); status != "" && status != "all" && string(a.Status) != status {
		return false
	}
	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text == "" {
		return true
	}
	for _, field := range []string{a.CustomerFirstName, a.CustomerLastName, a.CustomerAddress, a.CustomerCity} {
		if strings.Contains(strings.ToLower(field), text) {
			return true
		}
	}
	return false
}

// SearchAudits filters the caller's audits by customer text and status.
func (s *Service) SearchAudits(ctx context.Context, q Query) ([]Audit, error) {
	var out []Audit
	_, err := s.run(ctx, "search_audits", func(ctx context.Context) (Result, error) {
		if status := strings.TrimSpace(q.Status); status != "" && status != "all" && !Status(status).Valid() {
			return Result{}, fmt.Errorf("status %q: %w", status, domain.ErrInvalidStatus)
		}
		return Result{}, s.store.View(ctx, func(view TransactionView) error {
			for _, a := range view.ListAudits() {
				if session.CanAccess(ctx, a.UserID) && q.matches(a) {
					out = append(out, a)
				}
			}
			return nil
		})
	})
	return out, err
}

// SaveAudit applies a patch of scalar fields and sections to an audit and
// sets its status within the same transaction. requested may be empty.
func (s *Service) SaveAudit(ctx context.Context, id string, patch Patch, requested Status) (Audit, Result, error) {
	return s.update(ctx, "save_audit", id, requested, func(a *Audit) error {
		return domain.ApplyPatch(a, patch)
	})
}

// CompleteAudit marks an audit completed. The depressurization test must
// have been saved first.
func (s *Service) CompleteAudit(ctx context.Context, id string) (Audit, Result, error) {
	return s.update(ctx, "complete_audit", id, StatusCompleted, func(*Audit) error { return nil })
}

// AddFloor appends a storey to the audit's wall section.
func (s *Service) AddFloor(ctx context.Context, auditID string) (Floor, Audit, error) {
	var floor Floor
	updated, _, err := s.update(ctx, "add_floor", auditID, "", func(a *Audit) error {
		if a.WallsInfo == nil {
			a.WallsInfo = &domain.WallsInfo{}
		}
		floor = a.WallsInfo.AddFloor(s.clock.Now())
		return nil
	})
	return floor, updated, err
}

// RemoveFloor drops a non-fixed storey from the audit's wall section.
func (s *Service) RemoveFloor(ctx context.Context, auditID, floorID string) (Audit, error) {
	updated, _, err := s.update(ctx, "remove_floor", auditID, "", func(a *Audit) error {
		walls := a.Walls()
		walls.Floors = domain.EnsureFixedFloors(walls.Floors)
		if err := walls.RemoveFloor(floorID); err != nil {
			return err
		}
		a.WallsInfo = &walls
		return nil
	})
	return updated, err
}

func (s *Service) update(ctx context.Context, op, id string, requested Status, mutate func(*Audit) error) (Audit, Result, error) {
	var updated Audit
	res, err := s.run(ctx, op, func(ctx context.Context) (Result, error) {
		if requested != "" && !requested.Valid() {
			return Result{}, fmt.Errorf("status %q: %w", requested, domain.ErrInvalidStatus)
		}
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, err := visibleAudit(ctx, tx, id); err != nil {
				return err
			}
			var err error
			updated, err = tx.UpdateAudit(id, func(a *Audit) error {
				if err := mutate(a); err != nil {
					return err
				}
				a.Status = resolveStatus(a.Status, requested)
				return nil
			})
			return err
		})
	})
	return updated, res, err
}

// DeleteAudit removes an audit and its photo index entries, returning the
// removed photos so their binaries can be purged.
func (s *Service) DeleteAudit(ctx context.Context, id string) ([]Photo, Result, error) {
	var removed []Photo
	res, err := s.run(ctx, "delete_audit", func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, err := visibleAudit(ctx, tx, id); err != nil {
				return err
			}
			removed = tx.ListPhotos(id)
			return tx.DeleteAudit(id)
		})
	})
	if err != nil {
		removed = nil
	}
	return removed, res, err
}

// CreatePhoto indexes an uploaded photo under an audit the caller owns.
func (s *Service) CreatePhoto(ctx context.Context, photo Photo) (Photo, error) {
	var created Photo
	_, err := s.run(ctx, "create_photo", func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, err := visibleAudit(ctx, tx, photo.AuditID); err != nil {
				return err
			}
			var err error
			created, err = tx.CreatePhoto(photo)
			return err
		})
	})
	return created, err
}

// ListPhotos returns an audit's photos in report order, optionally limited to
// one category.
func (s *Service) ListPhotos(ctx context.Context, auditID string, category Category) ([]Photo, error) {
	var out []Photo
	_, err := s.run(ctx, "list_photos", func(ctx context.Context) (Result, error) {
		return Result{}, s.store.View(ctx, func(view TransactionView) error {
			if _, err := visibleAudit(ctx, view, auditID); err != nil {
				return err
			}
			for _, p := range view.ListPhotos(auditID) {
				if category == "" || p.Category == category {
					out = append(out, p)
				}
			}
			return nil
		})
	})
	return out, err
}

// GetPhoto returns one photo whose audit belongs to the caller.
func (s *Service) GetPhoto(ctx context.Context, id string) (Photo, error) {
	var out Photo
	_, err := s.run(ctx, "get_photo", func(ctx context.Context) (Result, error) {
		return Result{}, s.store.View(ctx, func(view TransactionView) error {
			var err error
			out, err = visiblePhoto(ctx, view, id)
			return err
		})
	})
	return out, err
}

// DeletePhoto removes a photo from the index and returns it.
func (s *Service) DeletePhoto(ctx context.Context, id string) (Photo, error) {
	var removed Photo
	_, err := s.run(ctx, "delete_photo", func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			if removed, err = visiblePhoto(ctx, tx, id); err != nil {
				return err
			}
			return tx.DeletePhoto(id)
		})
	})
	return removed, err
}

type photoFinder interface {
	auditFinder
	FindPhoto(id string) (Photo, bool)
}

func visiblePhoto(ctx context.Context, finder photoFinder, id string) (Photo, error) {
	p, ok := finder.FindPhoto(id)
	if !ok {
		return Photo{}, fmt.Errorf("photo %q: %w", id, domain.ErrNotFound)
	}
	if _, err := visibleAudit(ctx, finder, p.AuditID); err != nil {
		return Photo{}, fmt.Errorf("photo %q: %w", id, domain.ErrNotFound)
	}
	return p, nil
}
