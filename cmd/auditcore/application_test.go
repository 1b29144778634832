package main

import (
	"auditcore/internal/adapters/exports"
	"auditcore/internal/adapters/httpapi"
	"auditcore/internal/core"
	memorystore "auditcore/internal/infra/blob/memory"
	"auditcore/internal/photos"
	"auditcore/internal/session"
	"auditcore/pkg/domain"
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApplication()
	var out bytes.Buffer
	app.root.SetOut(&out)
	app.root.SetErr(&out)
	app.root.SetArgs(args)
	err := app.root.Execute()
	return out.String(), err
}

// writeConfig points storage at a sqlite file and blobs at a directory
// under dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "auditcore.yaml")
	body := fmt.Sprintf(`
storage:
  driver: sqlite
  sqlite_path: %s
blob:
  driver: fs
  fs_root: %s
log:
  level: error
codec:
  generator: Field Tool
`, filepath.Join(dir, "audits.db"), filepath.Join(dir, "blobs"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func seedAudit(t *testing.T, dir string) domain.Audit {
	t.Helper()
	store, err := core.OpenPersistentStore(core.StorageConfig{
		Driver:     core.StorageSQLite,
		SQLitePath: filepath.Join(dir, "audits.db"),
	}, nil, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, core.CloseStore(store)) }()

	svc := core.NewService(store)
	a, _, err := svc.CreateAudit(context.Background(), domain.Audit{Details: domain.Details{
		CustomerFirstName: "Ada",
		CustomerLastName:  "Lovelace",
		CustomerCity:      "Ottawa",
		CustomerProvince:  "ON",
	}})
	require.NoError(t, err)
	return a
}

func TestExportH2KThenInspect(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := writeConfig(t, dir)
	a := seedAudit(t, dir)

	out, err := run(t, "--config", cfg, "export", "h2k", "--audit", a.ID)
	require.NoError(t, err)
	name := "Lovelace_" + a.ID + ".h2k"
	assert.Contains(t, out, "wrote "+name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Generated by Field Tool")

	out, err = run(t, "inspect", name)
	require.NoError(t, err)
	assert.Contains(t, out, "# Generated by Field Tool")
	assert.Contains(t, out, "IDENTIFICATION")

	out, err = run(t, "inspect", name, "--section", "IDENTIFICATION")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace Residence")
	assert.Contains(t, out, "Ottawa, ON")

	_, err = run(t, "inspect", name, "--section", "NOPE")
	require.ErrorContains(t, err, "section NOPE not found")
}

func TestExportToStdoutAndRoster(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := writeConfig(t, dir)
	a := seedAudit(t, dir)

	out, err := run(t, "--config", cfg, "export", "h2k", "--audit", a.ID, "--out", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "[END_OF_FILE]\n"))

	out, err = run(t, "--config", cfg, "export", "roster")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+exports.RosterFilename)
	info, err := os.Stat(filepath.Join(dir, exports.RosterFilename))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExportMissingAudit(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := writeConfig(t, dir)

	_, err := run(t, "--config", cfg, "export", "pdf", "--audit", "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = run(t, "--config", cfg, "export", "pdf")
	require.ErrorContains(t, err, `"audit" not set`)
}

func TestConfigErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "--config", "missing.yaml", "inspect", "x.h2k")
	require.ErrorContains(t, err, "unable to load configuration")

	_, err = run(t, "--log-level", "loud", "inspect", "x.h2k")
	require.ErrorContains(t, err, "unable to create logger")
}

func TestDraftSyncOnce(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	svc := core.NewInMemoryService(nil)
	ix := photos.NewIndex(svc, memorystore.New())
	srv := httptest.NewServer(httpapi.New(svc, ix, exports.NewGenerator(svc, ix)).Routes())
	t.Cleanup(srv.Close)

	ctx := session.WithSession(context.Background(), session.Session{UserID: "u1"})
	a, _, err := svc.CreateAudit(ctx, domain.Audit{})
	require.NoError(t, err)

	draft := filepath.Join(dir, "draft.json")
	require.NoError(t, os.WriteFile(draft, []byte(`{"customerCity":"Moncton","customerProvince":"NB"}`), 0o600))

	out, err := run(t, "draft", "sync",
		"--server", srv.URL, "--audit", a.ID, "--file", draft, "--user", "u1", "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "saved "+a.ID+" (in_progress)")

	got, err := svc.GetAudit(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Moncton", got.CustomerCity)
	assert.Equal(t, domain.StatusInProgress, got.Status)

	_, err = run(t, "draft", "sync",
		"--server", srv.URL, "--audit", a.ID, "--file", draft, "--user", "u2", "--once")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, os.WriteFile(draft, []byte(`{not json`), 0o600))
	_, err = run(t, "draft", "sync",
		"--server", srv.URL, "--audit", a.ID, "--file", draft, "--user", "u1", "--once")
	require.ErrorContains(t, err, "draft.json")
}
