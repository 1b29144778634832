package roster

import (
	"auditcore/internal/export/render"
	"auditcore/pkg/domain"
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteRoster(t *testing.T) {
	updated := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	audits := []domain.Audit{
		{
			ID:     "a-1",
			Status: domain.StatusCompleted,
			Details: domain.Details{
				CustomerFirstName: "Ada",
				CustomerLastName:  "Lovelace",
				CustomerCity:      "Ottawa",
				CustomerProvince:  "ON",
				AuditType:         domain.AuditBeforeUpgrade,
				HomeType:          domain.HomeSingleDetached,
				AuditDate:         "2025-03-30",
			},
			UpdatedAt: updated,
		},
		{ID: "a-2", Status: domain.StatusDraft},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Rows(audits, map[string]int{"a-1": 3})))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{
		"a-1", "Ada Lovelace", "Ottawa", "ON", "Pre-Retrofit Assessment", "Single Detached",
		"Completed", "2025-03-30", "3", "2025-04-01T12:00:00Z",
	}, rows[1])
	assert.Equal(t, "a-2", rows[2][0])
	assert.Equal(t, render.NotSpecified, rows[2][1])
	assert.Equal(t, "Draft", rows[2][6])
	assert.Equal(t, "0", rows[2][8])
}

func TestWriteEmptyRoster(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
