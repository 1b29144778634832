package units_test

import (
	"auditcore/testutil"
	"strings"
	"testing"
)

func TestUnitsStandAlone(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", func(p string) bool {
		return strings.HasPrefix(p, "auditcore/")
	}, "unit conversion has no module dependencies")
}
