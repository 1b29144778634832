package httpapi

import (
	"auditcore/testutil"
	"testing"
)

func TestHandlersDoNotImportStorageDrivers(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.StorageDriverImport,
		"handlers reach storage through core.Service and blob.Store")
}
