// Package exports produces the downloadable artifacts of an audit, either
// synchronously for a request or through the background job worker.
package exports

import (
	"auditcore/internal/core"
	"auditcore/internal/export/h2k"
	"auditcore/internal/export/report"
	"auditcore/internal/export/roster"
	"auditcore/internal/photos"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Format identifies an export artifact kind.
type Format string

const (
	FormatPDF    Format = "pdf"
	FormatH2K    Format = "h2k"
	FormatRoster Format = "xlsx"
)

// Content types of the artifacts.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeH2K  = "application/octet-stream"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// RosterFilename is the download name of the program roster.
const RosterFilename = "audit_roster.xlsx"

// ErrUnknownFormat rejects a format no exporter produces.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts the per-audit formats, including the "hot2000" alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "h2k", "hot2000":
		return FormatH2K, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Artifact names a generated file.
type Artifact struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// Recorder counts generated artifacts.
type Recorder interface {
	Export(format string, success bool)
}

type noopRecorder struct{}

func (noopRecorder) Export(string, bool) {}

// Generator renders audits into export artifacts.
type Generator struct {
	svc      *core.Service
	photos   *photos.Index
	report   report.Options
	codec    h2k.Options
	logger   *zap.Logger
	recorder Recorder
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger sets the generator logger.
func WithLogger(logger *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithRecorder sets the export counter.
func WithRecorder(rec Recorder) GeneratorOption {
	return func(g *Generator) {
		if rec != nil {
			g.recorder = rec
		}
	}
}

// WithReport sets the report branding.
func WithReport(opts report.Options) GeneratorOption {
	return func(g *Generator) { g.report = opts }
}

// WithCodec sets the generator and evaluator names of .h2k files.
func WithCodec(opts h2k.Options) GeneratorOption {
	return func(g *Generator) { g.codec = opts }
}

// NewGenerator returns a generator over the audit service and photo index.
func NewGenerator(svc *core.Service, ix *photos.Index, opts ...GeneratorOption) *Generator {
	g := &Generator{
		svc:      svc,
		photos:   ix,
		logger:   zap.NewNop(),
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Describe resolves the artifact an audit export would produce without
// rendering it.
func (g *Generator) Describe(ctx context.Context, auditID string, format Format) (Artifact, error) {
	a, err := g.svc.GetAudit(ctx, auditID)
	if err != nil {
		return Artifact{}, err
	}
	return g.describe(a, format, g.stamp())
}

func (g *Generator) describe(a core.Audit, format Format, opts stamp) (Artifact, error) {
	switch format {
	case FormatPDF:
		return Artifact{Filename: report.Filename(opts.report.FilenamePrefix, a, opts.report.Now), ContentType: ContentTypePDF}, nil
	case FormatH2K:
		return Artifact{Filename: h2k.Filename(a), ContentType: ContentTypeH2K}, nil
	}
	return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// stamp pins one generation timestamp so the filename and the content agree.
type stamp struct {
	report report.Options
	codec  h2k.Options
}

func (g *Generator) stamp() stamp {
	now := g.svc.Now().UTC()
	s := stamp{report: g.report, codec: g.codec}
	if s.report.Now.IsZero() {
		s.report.Now = now
	}
	if s.codec.Now.IsZero() {
		s.codec.Now = now
	}
	return s
}

// Write renders one audit in format to w.
func (g *Generator) Write(ctx context.Context, auditID string, format Format, w io.Writer) (Artifact, error) {
	art, err := g.write(ctx, auditID, format, w)
	g.recorder.Export(string(format), err == nil)
	if err != nil {
		return Artifact{}, err
	}
	g.logger.Info("audit exported",
		zap.String("audit_id", auditID),
		zap.String("format", string(format)),
		zap.String("filename", art.Filename))
	return art, nil
}

func (g *Generator) write(ctx context.Context, auditID string, format Format, w io.Writer) (Artifact, error) {
	a, err := g.svc.GetAudit(ctx, auditID)
	if err != nil {
		return Artifact{}, err
	}
	s := g.stamp()
	art, err := g.describe(a, format, s)
	if err != nil {
		return Artifact{}, err
	}
	switch format {
	case FormatH2K:
		if err := h2k.Write(w, a, s.codec); err != nil {
			return Artifact{}, fmt.Errorf("encode h2k: %w", err)
		}
	case FormatPDF:
		list, err := g.photos.List(ctx, auditID, "")
		if err != nil {
			return Artifact{}, err
		}
		compiler := report.NewCompiler(g.photos, report.WithLogger(g.logger), report.WithOptions(s.report))
		if _, err := compiler.Compile(ctx, w, a, list); err != nil {
			return Artifact{}, fmt.Errorf("render pdf: %w", err)
		}
	}
	return art, nil
}

// WriteRoster renders the program roster of every audit visible to the
// caller.
func (g *Generator) WriteRoster(ctx context.Context, w io.Writer) (Artifact, error) {
	art, err := g.writeRoster(ctx, w)
	g.recorder.Export(string(FormatRoster), err == nil)
	return art, err
}

func (g *Generator) writeRoster(ctx context.Context, w io.Writer) (Artifact, error) {
	audits, err := g.svc.ListAudits(ctx)
	if err != nil {
		return Artifact{}, err
	}
	counts := make(map[string]int, len(audits))
	for _, a := range audits {
		list, err := g.svc.ListPhotos(ctx, a.ID, "")
		if err != nil {
			return Artifact{}, err
		}
		counts[a.ID] = len(list)
	}
	if err := roster.Write(w, roster.Rows(audits, counts)); err != nil {
		return Artifact{}, err
	}
	return Artifact{Filename: RosterFilename, ContentType: ContentTypeXLSX}, nil
}
