package render

import (
	"auditcore/testutil"
	"testing"
)

func TestRenderersDoNotImportInternalPackages(t *testing.T) {
	for _, dir := range []string{".", "../h2k", "../report", "../roster"} {
		testutil.AssertNoDirectImports(t, dir, func(p string) bool {
			return testutil.InternalImport(p) && p != "auditcore/internal/export/render"
		}, "artifact renderers work on domain values only")
	}
}
