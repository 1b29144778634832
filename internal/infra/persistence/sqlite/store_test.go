package sqlite

import (
	"auditcore/pkg/domain"
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audits.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		a, err := tx.CreateAudit(domain.Audit{ID: "a1", UserID: "u1", Details: domain.Details{CustomerLastName: "Roy"}})
		if err != nil {
			return err
		}
		_, err = tx.CreatePhoto(domain.Photo{ID: "p1", AuditID: a.ID, Category: domain.CategoryRenewables})
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if store.Path() != path || store.DB() == nil {
		t.Fatalf("unexpected accessors")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	got, ok := reopened.GetAudit("a1")
	if !ok || got.CustomerLastName != "Roy" {
		t.Fatalf("expected audit restored, got %+v (%v)", got, ok)
	}
	if photos := reopened.ListPhotos("a1"); len(photos) != 1 || photos[0].ID != "p1" {
		t.Fatalf("expected photo restored, got %+v", photos)
	}
}

func TestStoreLogsMalformedSectionsOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audits.db")
	seed, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	payload := `{"a1":{"id":"a1","status":"in_progress","ventilationInfo":"{oops"}}`
	if _, err := seed.DB().Exec(`INSERT INTO state(bucket,payload) VALUES(?,?)`, "audits", []byte(payload)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = seed.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	store, err := NewStore(path, nil, WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = store.Close() }()
	a, ok := store.GetAudit("a1")
	if !ok || a.VentilationInfo != nil {
		t.Fatalf("expected audit with empty ventilation, got %+v", a)
	}
	entries := logs.FilterMessage("dropped malformed audit section").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["audit_id"] != "a1" || fields["section"] != "ventilationInfo" {
		t.Fatalf("unexpected fields %v", fields)
	}
}
