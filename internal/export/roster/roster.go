// Package roster writes the program roster workbook: one row per audit.
package roster

import (
	"auditcore/internal/export/render"
	"auditcore/pkg/domain"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetName is the roster worksheet.
const SheetName = "Audits"

// Header lists the roster columns.
var Header = []string{
	"Audit ID",
	"Customer",
	"City",
	"Province",
	"Audit Type",
	"Home Type",
	"Status",
	"Audit Date",
	"Photo Count",
	"Last Update",
}

var columnWidths = []float64{38, 28, 18, 10, 28, 18, 14, 14, 12, 22}

// Row is one audit in the roster.
type Row struct {
	ID         string
	Customer   string
	City       string
	Province   string
	AuditType  string
	HomeType   string
	Status     string
	AuditDate  string
	PhotoCount int
	UpdatedAt  time.Time
}

// Rows builds roster rows from audits and per-audit photo counts.
func Rows(audits []domain.Audit, photoCounts map[string]int) []Row {
	rows := make([]Row, 0, len(audits))
	for _, a := range audits {
		rows = append(rows, Row{
			ID:         a.ID,
			Customer:   a.CustomerName(),
			City:       a.CustomerCity,
			Province:   a.CustomerProvince,
			AuditType:  render.Lookup(render.AuditTypes, domain.Value(a.AuditType), ""),
			HomeType:   render.Lookup(render.HomeTypes, domain.Value(a.HomeType), ""),
			Status:     render.Humanize(domain.Value(a.Status), ""),
			AuditDate:  a.AuditDate,
			PhotoCount: photoCounts[a.ID],
			UpdatedAt:  a.UpdatedAt,
		})
	}
	return rows
}

// Write renders rows as an xlsx workbook.
func Write(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		updated := ""
		if !r.UpdatedAt.IsZero() {
			updated = r.UpdatedAt.UTC().Format(time.RFC3339)
		}
		values := []any{
			r.ID,
			render.Str(r.Customer, ""),
			render.Str(r.City, ""),
			render.Str(r.Province, ""),
			render.Str(r.AuditType, ""),
			render.Str(r.HomeType, ""),
			render.Str(r.Status, ""),
			render.Str(r.AuditDate, ""),
			r.PhotoCount,
			render.Str(updated, ""),
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
