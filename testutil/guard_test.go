package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportViolations(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	write("a.go", "package a\n\nimport (\n\t\"fmt\"\n\t\"auditcore/internal/infra/blob/fs\"\n)\n")
	write("a_test.go", "package a\n\nimport \"auditcore/internal/core\"\n")
	write("notes.txt", `import "auditcore/internal/core"`)

	viols, err := ImportViolations(dir, InternalImport)
	require.NoError(t, err)
	assert.Equal(t, []string{"auditcore/internal/infra/blob/fs (in a.go)"}, viols)

	viols, err = ImportViolations(dir, StorageDriverImport)
	require.NoError(t, err)
	assert.Len(t, viols, 1)

	assert.False(t, InternalImport("auditcore/pkg/domain"))
	assert.False(t, StorageDriverImport("auditcore/internal/blob"))
}

func TestImportViolationsReportsErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.go"), []byte("package"), 0o600))
	_, err := ImportViolations(dir, InternalImport)
	require.Error(t, err)

	_, err = ImportViolations(filepath.Join(dir, "missing"), InternalImport)
	require.Error(t, err)
}
