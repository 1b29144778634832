// Package memory provides an in-memory implementation of the audit
// persistence store used for tests and ephemeral environments.
package memory

import (
	"auditcore/pkg/domain"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
)

var _ domain.PersistentStore = (*Store)(nil)

type (
	// Audit aliases domain.Audit for in-memory persistence operations.
	Audit = domain.Audit
	// Photo aliases domain.Photo.
	Photo = domain.Photo
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	audits map[string]Audit
	photos map[string]Photo
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Audits map[string]Audit `json:"audits"`
	Photos map[string]Photo `json:"photos"`
}

func newMemoryState() memoryState {
	return memoryState{
		audits: make(map[string]Audit),
		photos: make(map[string]Photo),
	}
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		audits: make(map[string]Audit, len(s.audits)),
		photos: make(map[string]Photo, len(s.photos)),
	}
	for k, v := range s.audits {
		out.audits[k] = v.Clone()
	}
	for k, v := range s.photos {
		out.photos[k] = v
	}
	return out
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	c := state.clone()
	return Snapshot{Audits: c.audits, Photos: c.photos}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Audits {
		state.audits[k] = v.Clone()
	}
	for k, v := range s.Photos {
		state.photos[k] = v
	}
	return state
}

// Store provides an in-memory transactional store for audits and photos.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the configured engine so services can register rules.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the clock used to stamp records.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListAudits() []Audit { return listAudits(v.state) }

func (v transactionView) FindAudit(id string) (Audit, bool) { return findAudit(v.state, id) }

func (v transactionView) ListPhotos(auditID string) []Photo { return listPhotos(v.state, auditID) }

func (v transactionView) FindPhoto(id string) (Photo, bool) {
	p, ok := v.state.photos[id]
	return p, ok
}

func listAudits(state *memoryState) []Audit {
	out := make([]Audit, 0, len(state.audits))
	for _, a := range state.audits {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func findAudit(state *memoryState, id string) (Audit, bool) {
	a, ok := state.audits[id]
	if !ok {
		return Audit{}, false
	}
	return a.Clone(), true
}

// listPhotos returns photos of one audit, or all photos when auditID is
// empty, in category then upload order.
func listPhotos(state *memoryState, auditID string) []Photo {
	out := make([]Photo, 0)
	for _, p := range state.photos {
		if auditID == "" || p.AuditID == auditID {
			out = append(out, p)
		}
	}
	domain.SortPhotos(out)
	return out
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) FindAudit(id string) (Audit, bool) { return findAudit(&tx.state, id) }

func (tx *transaction) FindPhoto(id string) (Photo, bool) {
	p, ok := tx.state.photos[id]
	return p, ok
}

func (tx *transaction) ListPhotos(auditID string) []Photo { return listPhotos(&tx.state, auditID) }

// CreateAudit stores a new audit within the transaction.
func (tx *transaction) CreateAudit(a Audit) (Audit, error) {
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.audits[a.ID]; exists {
		return Audit{}, fmt.Errorf("audit %q already exists", a.ID)
	}
	if a.Status == "" {
		a.Status = domain.StatusDraft
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.audits[a.ID] = a.Clone()
	tx.recordChange(Change{Entity: domain.EntityAudit, Action: domain.ActionCreate, After: a.Clone()})
	return a.Clone(), nil
}

// UpdateAudit mutates an audit using the provided mutator function. The id,
// owner and creation time cannot be changed by the mutator.
func (tx *transaction) UpdateAudit(id string, mutator func(*Audit) error) (Audit, error) {
	current, ok := tx.state.audits[id]
	if !ok {
		return Audit{}, fmt.Errorf("audit %q: %w", id, domain.ErrNotFound)
	}
	before := current.Clone()
	next := current.Clone()
	if err := mutator(&next); err != nil {
		return Audit{}, err
	}
	next.ID = id
	next.UserID = before.UserID
	next.CreatedAt = before.CreatedAt
	next.UpdatedAt = tx.now
	tx.state.audits[id] = next.Clone()
	tx.recordChange(Change{Entity: domain.EntityAudit, Action: domain.ActionUpdate, Before: before, After: next.Clone()})
	return next, nil
}

// DeleteAudit removes an audit and cascades to its photos.
func (tx *transaction) DeleteAudit(id string) error {
	current, ok := tx.state.audits[id]
	if !ok {
		return fmt.Errorf("audit %q: %w", id, domain.ErrNotFound)
	}
	for _, p := range listPhotos(&tx.state, id) {
		if err := tx.DeletePhoto(p.ID); err != nil {
			return err
		}
	}
	delete(tx.state.audits, id)
	tx.recordChange(Change{Entity: domain.EntityAudit, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// CreatePhoto indexes a photo under an existing audit.
func (tx *transaction) CreatePhoto(p Photo) (Photo, error) {
	if _, ok := tx.state.audits[p.AuditID]; !ok {
		return Photo{}, fmt.Errorf("audit %q: %w", p.AuditID, domain.ErrNotFound)
	}
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.photos[p.ID]; exists {
		return Photo{}, fmt.Errorf("photo %q already exists", p.ID)
	}
	if p.UploadedAt.IsZero() {
		p.UploadedAt = tx.now
		// Keep upload order when several photos share one clock reading.
		for _, other := range tx.state.photos {
			if other.AuditID == p.AuditID && !p.UploadedAt.After(other.UploadedAt) {
				p.UploadedAt = other.UploadedAt.Add(time.Nanosecond)
			}
		}
	}
	tx.state.photos[p.ID] = p
	tx.recordChange(Change{Entity: domain.EntityPhoto, Action: domain.ActionCreate, After: p})
	return p, nil
}

// DeletePhoto removes a photo from the index.
func (tx *transaction) DeletePhoto(id string) error {
	current, ok := tx.state.photos[id]
	if !ok {
		return fmt.Errorf("photo %q: %w", id, domain.ErrNotFound)
	}
	delete(tx.state.photos, id)
	tx.recordChange(Change{Entity: domain.EntityPhoto, Action: domain.ActionDelete, Before: current})
	return nil
}

// GetAudit retrieves an audit by ID.
func (s *Store) GetAudit(id string) (Audit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findAudit(&s.state, id)
}

// ListAudits returns all audits, most recently updated first.
func (s *Store) ListAudits() []Audit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAudits(&s.state)
}

// GetPhoto retrieves a photo by ID.
func (s *Store) GetPhoto(id string) (Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.photos[id]
	return p, ok
}

// ListPhotos returns the photos of one audit, or every photo when auditID is
// empty.
func (s *Store) ListPhotos(auditID string) []Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPhotos(&s.state, auditID)
}
