package lifecycle

import (
	"auditcore/internal/core"
	"auditcore/pkg/domain"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type saveCall struct {
	patch  domain.Patch
	status domain.Status
}

type fakeBackend struct {
	mu        sync.Mutex
	persisted domain.Status
	statusErr error
	saves     []saveCall
}

func (f *fakeBackend) GetStatus(context.Context, string) (domain.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return "", f.statusErr
	}
	return f.persisted, nil
}

func (f *fakeBackend) Save(_ context.Context, id string, patch domain.Patch, status domain.Status) (domain.Audit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, saveCall{patch: patch, status: status})
	f.persisted = status
	return domain.Audit{ID: id, Status: status}, nil
}

func (f *fakeBackend) calls() []saveCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]saveCall(nil), f.saves...)
}

type countingRecorder struct{ n int }

func (c *countingRecorder) AutosaveFallback() { c.n++ }

func draftOf(section string, v any) DraftFunc {
	return func() (domain.Patch, error) {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return domain.Patch{section: raw}, nil
	}
}

func TestAutosaveKeepsCompletedStatus(t *testing.T) {
	backend := &fakeBackend{persisted: domain.StatusCompleted}
	c := New(backend, "a-1", draftOf("windowsInfo", map[string]string{"glazing": "3"}), WithStatus(domain.StatusInProgress))

	saved, err := c.SaveNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, saved.Status)
	require.Len(t, backend.calls(), 1)
	assert.Equal(t, domain.StatusCompleted, backend.calls()[0].status)
	assert.Contains(t, backend.calls()[0].patch, "windowsInfo")
	assert.Equal(t, domain.StatusCompleted, c.Status())
}

func TestAutosaveMovesDraftToInProgress(t *testing.T) {
	backend := &fakeBackend{persisted: domain.StatusDraft}
	c := New(backend, "a-1", nil)
	saved, err := c.SaveNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, saved.Status)
}

func TestAutosaveFallsBackToLastKnownStatus(t *testing.T) {
	for _, last := range []domain.Status{domain.StatusInProgress, domain.StatusCompleted} {
		obsCore, logs := observer.New(zapcore.WarnLevel)
		rec := &countingRecorder{}
		backend := &fakeBackend{statusErr: errors.New("connection refused")}
		c := New(backend, "a-1", nil, WithStatus(last), WithLogger(zap.New(obsCore)), WithRecorder(rec))

		saved, err := c.SaveNow(context.Background())
		require.NoError(t, err)
		assert.Equal(t, last, saved.Status)
		assert.Equal(t, 1, rec.n)
		entries := logs.FilterMessage("autosave status read failed, using last known status").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "a-1", entries[0].ContextMap()["audit_id"])
	}
}

func TestAutosaveStopsOnMissingAudit(t *testing.T) {
	backend := &fakeBackend{statusErr: domain.ErrNotFound}
	c := New(backend, "gone", nil)
	_, err := c.SaveNow(context.Background())
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, backend.calls())
	require.ErrorIs(t, c.Run(context.Background()), domain.ErrNotFound)
}

func TestDraftErrorAbortsSave(t *testing.T) {
	backend := &fakeBackend{persisted: domain.StatusInProgress}
	c := New(backend, "a-1", func() (domain.Patch, error) { return nil, errors.New("bad form") })
	_, err := c.SaveNow(context.Background())
	require.ErrorContains(t, err, "read draft")
	assert.Empty(t, backend.calls())
}

func TestRunSavesOnEveryTick(t *testing.T) {
	backend := &fakeBackend{persisted: domain.StatusDraft}
	c := New(backend, "a-1", nil, WithInterval(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return len(backend.calls()) >= 3 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	for _, call := range backend.calls() {
		assert.Equal(t, domain.StatusInProgress, call.status)
	}
}

func TestServiceBackendNeverDowngradesCompletedAudit(t *testing.T) {
	svc := core.NewInMemoryService(nil)
	ctx := context.Background()
	a, _, err := svc.CreateAudit(ctx, domain.Audit{})
	require.NoError(t, err)

	backend := ServiceBackend{Service: svc}
	editor := New(backend, a.ID, draftOf("depressurizationTest", map[string]string{"windowLeakage": "yes"}))
	_, err = editor.Complete(ctx)
	require.NoError(t, err)

	stale := New(backend, a.ID, draftOf("doorsInfo", map[string]string{"skin": "steel"}), WithStatus(domain.StatusInProgress))
	saved, err := stale.SaveNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, saved.Status)

	got, err := svc.GetAudit(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, domain.Value("steel"), got.Doors().Skin)
}

func TestCompleteRequiresFinalForm(t *testing.T) {
	svc := core.NewInMemoryService(nil)
	ctx := context.Background()
	a, _, err := svc.CreateAudit(ctx, domain.Audit{})
	require.NoError(t, err)

	c := New(ServiceBackend{Service: svc}, a.ID, nil)
	_, err = c.Complete(ctx)
	var violation domain.RuleViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, domain.StatusDraft, c.Status())
}
