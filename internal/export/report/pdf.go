package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin   = 15.0
	bottomMargin = 15.0
	lineHeight   = 6.0
	labelWidth   = 70.0
	checkSize    = 3.5
	photoBoxH    = 105.0
)

var (
	brandBlue = [3]int{0, 82, 147}
	lightGrey = [3]int{240, 243, 246}
	textDark  = [3]int{33, 37, 41}
)

// document wraps fpdf with the report's drawing primitives. Text goes through
// the cp1252 translator of the core fonts.
type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newDocument(opts Options) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.SetCreationDate(opts.Now)
	pdf.SetCatalogSort(true)
	pdf.SetCreator(opts.Company, false)
	pdf.SetAuthor(opts.Company+" "+opts.CompanySubtitle, false)
	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		d.font("I", 8, textDark)
		pdf.CellFormat(0, 5, d.text(fmt.Sprintf("%s | Page %d", opts.Company, pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	return d
}

// text maps glyphs outside cp1252 before translation.
func (d *document) text(s string) string {
	s = strings.NewReplacer("≤", "<=", "≥", ">=", "–", "-", "—", "-").Replace(s)
	return d.tr(s)
}

func (d *document) title(s string) { d.pdf.SetTitle(s, true) }

func (d *document) font(style string, size float64, color [3]int) {
	d.pdf.SetFont("Helvetica", style, size)
	d.pdf.SetTextColor(color[0], color[1], color[2])
}

func (d *document) contentWidth() float64 {
	w, _ := d.pdf.GetPageSize()
	return w - 2*pageMargin
}

// ensure starts a new page when h does not fit on the current one.
func (d *document) ensure(h float64) {
	_, pageH := d.pdf.GetPageSize()
	if d.pdf.GetY()+h > pageH-bottomMargin {
		d.pdf.AddPage()
	}
}

func (d *document) cover(c Cover) {
	pdf := d.pdf
	pdf.AddPage()
	width := d.contentWidth()

	pdf.SetFillColor(brandBlue[0], brandBlue[1], brandBlue[2])
	pdf.Rect(0, 0, width+2*pageMargin, 45, "F")
	pdf.SetXY(pageMargin, 12)
	d.font("B", 26, [3]int{255, 255, 255})
	pdf.CellFormat(width, 11, d.text(c.Company), "", 1, "L", false, 0, "")
	d.font("", 11, [3]int{255, 255, 255})
	pdf.CellFormat(width, 6, d.text(c.Subtitle), "", 1, "L", false, 0, "")

	pdf.SetY(60)
	d.font("B", 22, brandBlue)
	pdf.CellFormat(width, 12, d.text(c.Heading), "", 1, "C", false, 0, "")
	d.font("", 13, textDark)
	pdf.CellFormat(width, 8, d.text(c.AuditLabel), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	for _, box := range c.Boxes {
		h := 9 + float64(len(box.Fields))*lineHeight + 3
		d.ensure(h)
		y := pdf.GetY()
		pdf.SetFillColor(lightGrey[0], lightGrey[1], lightGrey[2])
		pdf.SetDrawColor(brandBlue[0], brandBlue[1], brandBlue[2])
		pdf.Rect(pageMargin, y, width, h, "FD")
		pdf.SetXY(pageMargin+4, y+2)
		d.font("B", 11, brandBlue)
		pdf.CellFormat(width-8, 7, d.text(box.Title), "", 1, "L", false, 0, "")
		for _, f := range box.Fields {
			pdf.SetX(pageMargin + 4)
			d.field(f, width-8)
		}
		pdf.SetY(y + h + 5)
	}
}

func (d *document) field(f Field, width float64) {
	pdf := d.pdf
	x := pdf.GetX()
	d.font("B", 9.5, textDark)
	pdf.CellFormat(labelWidth, lineHeight, d.text(f.Label+":"), "", 0, "L", false, 0, "")
	d.font("", 9.5, textDark)
	pdf.MultiCell(width-labelWidth, lineHeight, d.text(f.Value), "", "L", false)
	pdf.SetX(x)
}

func (d *document) sections(blocks []Block) {
	if len(blocks) == 0 {
		return
	}
	d.pdf.AddPage()
	for _, b := range blocks {
		d.section(b)
	}
}

func (d *document) section(b Block) {
	pdf := d.pdf
	width := d.contentWidth()
	d.ensure(10 + 2*lineHeight)
	pdf.SetFillColor(brandBlue[0], brandBlue[1], brandBlue[2])
	d.font("B", 12, [3]int{255, 255, 255})
	pdf.CellFormat(width, 8, d.text(b.Title), "", 1, "L", true, 0, "")
	pdf.Ln(2)

	for _, c := range b.Checklists {
		d.checklist(c, width)
	}
	for _, f := range b.Fields {
		d.ensure(lineHeight)
		pdf.SetX(pageMargin)
		d.field(f, width)
	}
	pdf.Ln(4)
}

// checklist draws every option with a box, filled when checked, in two
// columns.
func (d *document) checklist(c ChecklistBlock, width float64) {
	pdf := d.pdf
	d.ensure(lineHeight * 2)
	d.font("B", 10, brandBlue)
	pdf.SetX(pageMargin)
	pdf.CellFormat(width, lineHeight, d.text(c.Title), "", 1, "L", false, 0, "")

	colW := width / 2
	for i, it := range c.Items {
		col := i % 2
		if col == 0 {
			d.ensure(lineHeight)
		}
		x := pageMargin + float64(col)*colW
		y := pdf.GetY()
		pdf.SetDrawColor(textDark[0], textDark[1], textDark[2])
		style := "D"
		if it.Checked {
			pdf.SetFillColor(brandBlue[0], brandBlue[1], brandBlue[2])
			style = "FD"
		}
		pdf.Rect(x+1, y+(lineHeight-checkSize)/2, checkSize, checkSize, style)
		pdf.SetXY(x+checkSize+3, y)
		d.font("", 9.5, textDark)
		ln := 0
		if col == 1 || i == len(c.Items)-1 {
			ln = 1
		}
		pdf.CellFormat(colW-checkSize-4, lineHeight, d.text(it.Label), "", ln, "L", false, 0, "")
	}
	pdf.Ln(2)
}

func (d *document) photoPages(pages []PhotoPage) {
	pdf := d.pdf
	width := d.contentWidth()
	for _, page := range pages {
		pdf.AddPage()
		d.font("B", 14, brandBlue)
		pdf.CellFormat(width, 10, d.text(page.Header()), "B", 1, "L", false, 0, "")
		pdf.Ln(4)
		for _, slot := range page.Slots {
			d.photo(slot, width)
		}
	}
}

func (d *document) photo(s PhotoSlot, width float64) {
	pdf := d.pdf
	d.font("B", 11, textDark)
	pdf.CellFormat(width, 7, d.text(s.Title), "", 1, "L", false, 0, "")
	d.font("", 9, textDark)
	pdf.CellFormat(width, 5, d.text(s.Caption), "", 1, "L", false, 0, "")

	y := pdf.GetY() + 2
	boxH := photoBoxH - 16
	if s.Image == nil || !d.image(s, pageMargin, y, width, boxH) {
		pdf.SetDrawColor(textDark[0], textDark[1], textDark[2])
		pdf.SetFillColor(lightGrey[0], lightGrey[1], lightGrey[2])
		pdf.Rect(pageMargin, y, width, boxH, "FD")
		pdf.SetXY(pageMargin, y+boxH/2-3)
		d.font("I", 10, textDark)
		pdf.CellFormat(width, 6, d.text(Placeholder), "", 1, "C", false, 0, "")
	}
	pdf.SetY(y + boxH + 6)
}

// image draws a converted photo scaled into the box. It reports false when
// fpdf rejects the image, leaving the document usable.
func (d *document) image(s PhotoSlot, x, y, boxW, boxH float64) bool {
	if s.Width <= 0 || s.Height <= 0 {
		return false
	}
	pdf := d.pdf
	name := "photo-" + s.Photo.ID
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(s.Image))
	if !pdf.Ok() {
		pdf.ClearError()
		return false
	}
	w, h := boxW, boxW*float64(s.Height)/float64(s.Width)
	if h > boxH {
		w, h = boxH*float64(s.Width)/float64(s.Height), boxH
	}
	pdf.ImageOptions(name, x+(boxW-w)/2, y, w, h, false, opts, 0, "")
	return true
}

func (d *document) output(w io.Writer) error {
	return d.pdf.Output(w)
}
