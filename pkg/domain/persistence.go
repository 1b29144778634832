package domain

import "context"

// Transaction exposes the operations a persistence implementation must
// support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateAudit(Audit) (Audit, error)
	UpdateAudit(id string, mutator func(*Audit) error) (Audit, error)
	DeleteAudit(id string) error
	CreatePhoto(Photo) (Photo, error)
	DeletePhoto(id string) error
	FindAudit(id string) (Audit, bool)
	FindPhoto(id string) (Photo, bool)
	ListPhotos(auditID string) []Photo
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListAudits() []Audit
	FindAudit(id string) (Audit, bool)
	ListPhotos(auditID string) []Photo
	FindPhoto(id string) (Photo, bool)
}

// PersistentStore is a minimal abstraction over durable backends.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetAudit(id string) (Audit, bool)
	ListAudits() []Audit
	GetPhoto(id string) (Photo, bool)
	ListPhotos(auditID string) []Photo
}
