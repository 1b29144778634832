// Package report compiles an audit and its photos into the customer PDF.
//
// Compilation runs in steps: the caller resolves the audit and its photos,
// Build fetches and converts every photo and lays out the pages, and Render
// serializes the layout with fpdf. A photo that cannot be fetched or decoded
// keeps its slot and renders a placeholder.
package report

import (
	"auditcore/pkg/domain"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Report defaults.
const (
	DefaultFilenamePrefix  = "ENERVA_Audit_Report"
	DefaultCompany         = "ENERVA"
	DefaultCompanySubtitle = "Energy Solutions Inc."
)

// maxPhotoBytes bounds how much of one stored binary is read.
const maxPhotoBytes = 4 * domain.MaxPhotoBytes

// PhotoSource opens the stored binary of a photo.
type PhotoSource interface {
	OpenBinary(ctx context.Context, p domain.Photo) (io.ReadCloser, error)
}

// Options brands the report.
type Options struct {
	FilenamePrefix  string
	Company         string
	CompanySubtitle string
	// Now stamps the report date. Zero means the current time.
	Now time.Time
}

func (o Options) withDefaults() Options {
	if o.FilenamePrefix == "" {
		o.FilenamePrefix = DefaultFilenamePrefix
	}
	if o.Company == "" {
		o.Company = DefaultCompany
	}
	if o.CompanySubtitle == "" {
		o.CompanySubtitle = DefaultCompanySubtitle
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	o.Now = o.Now.UTC()
	return o
}

// Compiler builds reports.
type Compiler struct {
	photos PhotoSource
	logger *zap.Logger
	opts   Options
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the compiler logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOptions sets the report branding.
func WithOptions(opts Options) Option {
	return func(c *Compiler) { c.opts = opts }
}

// NewCompiler returns a compiler reading photo binaries from photos.
func NewCompiler(photos PhotoSource, opts ...Option) *Compiler {
	c := &Compiler{photos: photos, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Compiler) options() Options { return c.opts.withDefaults() }

// Filename returns the download name of an audit's report.
func Filename(prefix string, a domain.Audit, now time.Time) string {
	if prefix == "" {
		prefix = DefaultFilenamePrefix
	}
	return fmt.Sprintf("%s_%s_%s.pdf", prefix, a.ID, now.UTC().Format(time.DateOnly))
}

// Filename returns the download name for an audit with the compiler's prefix.
func (c *Compiler) Filename(a domain.Audit) string {
	opts := c.options()
	return Filename(opts.FilenamePrefix, a, opts.Now)
}

// Build fetches and converts every photo, in category and upload order, and
// lays out the report. It never fails on a single photo.
func (c *Compiler) Build(ctx context.Context, a domain.Audit, photos []domain.Photo) Layout {
	opts := c.options()
	date := opts.Now.Format(time.DateOnly)

	ordered := slices.Clone(photos)
	domain.SortPhotos(ordered)
	slots := make([]PhotoSlot, 0, len(ordered))
	for _, p := range ordered {
		slots = append(slots, c.slot(ctx, p))
	}
	return Layout{
		Cover:      cover(a, opts, date),
		Blocks:     blocks(a, date),
		PhotoPages: paginate(slots),
	}
}

func (c *Compiler) slot(ctx context.Context, p domain.Photo) PhotoSlot {
	s := PhotoSlot{
		Photo:   p,
		Title:   p.Category.Title() + " Photo",
		Caption: "File: " + p.OriginalName,
	}
	img, w, h, err := c.convert(ctx, p)
	if err != nil {
		c.logger.Warn("photo could not be embedded in report",
			zap.String("audit_id", p.AuditID),
			zap.String("photo_id", p.ID),
			zap.Error(err))
		s.Err = err
		return s
	}
	s.Image, s.Width, s.Height = img, w, h
	return s
}

// convert reads a photo and re-encodes it as a baseline JPEG, the one
// representation every PDF reader embeds without further filters.
func (c *Compiler) convert(ctx context.Context, p domain.Photo) ([]byte, int, int, error) {
	if c.photos == nil {
		return nil, 0, 0, fmt.Errorf("photo %s: no photo source", p.ID)
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, 0, err
	}
	rc, err := c.photos.OpenBinary(ctx, p)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("fetch photo: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxPhotoBytes))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("read photo: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode photo: %w", err)
	}
	// JPEG has no alpha; flatten transparent pixels onto white paper.
	b := img.Bounds()
	flat := image.NewRGBA(b)
	draw.Draw(flat, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, b, img, b.Min, draw.Over)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: 85}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), b.Dx(), b.Dy(), nil
}

// Compile builds the report for an audit and writes the PDF to w.
func (c *Compiler) Compile(ctx context.Context, w io.Writer, a domain.Audit, photos []domain.Photo) (Layout, error) {
	layout := c.Build(ctx, a, photos)
	if err := c.Render(w, a, layout); err != nil {
		return layout, err
	}
	return layout, nil
}

// Render serializes a layout as PDF.
func (c *Compiler) Render(w io.Writer, a domain.Audit, layout Layout) error {
	opts := c.options()
	doc := newDocument(opts)
	doc.title(strings.TrimSpace(layout.Cover.Heading + " " + a.ID))
	doc.cover(layout.Cover)
	doc.sections(layout.Blocks)
	doc.photoPages(layout.PhotoPages)
	if err := doc.output(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
