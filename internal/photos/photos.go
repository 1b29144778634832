// Package photos stores audit photo binaries in the blob store and indexes
// them through the audit service.
package photos

import (
	"auditcore/internal/blob"
	"auditcore/internal/core"
	"auditcore/pkg/domain"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Upload rejection reasons.
const (
	ReasonUnsupportedMedia = "unsupported_media_type"
	ReasonTooLarge         = "too_large"
	ReasonInvalidCategory  = "invalid_category"
	ReasonEmpty            = "empty_file"
)

var (
	ErrUnsupportedMedia = errors.New("only image files are allowed")
	ErrTooLarge         = errors.New("file exceeds the maximum upload size")
	ErrInvalidCategory  = errors.New("unknown photo category")
	ErrEmptyFile        = errors.New("file is empty")
)

// ValidationError rejects one upload before anything is stored.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func reject(reason string, err error) error {
	return &ValidationError{Reason: reason, Err: err}
}

// File is one uploaded file as received from the transport.
type File struct {
	Name        string
	ContentType string
	// Size is the declared size; -1 when unknown.
	Size int64
	Body io.Reader
}

// UploadResult reports the outcome of one file in a batch.
type UploadResult struct {
	File  string        `json:"file"`
	Photo *domain.Photo `json:"photo,omitempty"`
	Err   error         `json:"-"`
}

// UploadRecorder counts upload outcomes.
type UploadRecorder interface {
	PhotoUpload(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) PhotoUpload(string) {}

// Index is the photo attachment index of the audits.
type Index struct {
	svc      *core.Service
	blobs    blob.Store
	logger   *zap.Logger
	recorder UploadRecorder
	maxBytes int64
	newName  func(ext string) string
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the index logger.
func WithLogger(logger *zap.Logger) Option {
	return func(ix *Index) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// WithMaxBytes overrides the upload size ceiling.
func WithMaxBytes(n int64) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.maxBytes = n
		}
	}
}

// WithRecorder sets the upload outcome recorder.
func WithRecorder(rec UploadRecorder) Option {
	return func(ix *Index) {
		if rec != nil {
			ix.recorder = rec
		}
	}
}

// NewIndex constructs an index over the service and blob store.
func NewIndex(svc *core.Service, blobs blob.Store, opts ...Option) *Index {
	ix := &Index{
		svc:      svc,
		blobs:    blobs,
		logger:   zap.NewNop(),
		recorder: noopRecorder{},
		maxBytes: domain.MaxPhotoBytes,
		newName:  func(ext string) string { return uuid.NewString() + ext },
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// MaxBytes returns the upload size ceiling.
func (ix *Index) MaxBytes() int64 { return ix.maxBytes }

// Key returns the blob key holding a photo's binary.
func Key(p domain.Photo) string {
	return path.Join("audits", p.AuditID, "photos", p.Filename)
}

// Upload validates one file, stores its binary and indexes it.
func (ix *Index) Upload(ctx context.Context, auditID, category string, f File) (domain.Photo, error) {
	p, err := ix.upload(ctx, auditID, category, f)
	var verr *ValidationError
	switch {
	case err == nil:
		ix.recorder.PhotoUpload("success")
	case errors.As(err, &verr):
		ix.recorder.PhotoUpload("rejected")
		ix.logger.Info("photo upload rejected",
			zap.String("audit_id", auditID),
			zap.String("file", f.Name),
			zap.String("reason", verr.Reason))
	default:
		ix.recorder.PhotoUpload("error")
	}
	return p, err
}

func (ix *Index) upload(ctx context.Context, auditID, category string, f File) (domain.Photo, error) {
	cat, err := domain.ParseCategory(category)
	if err != nil {
		return domain.Photo{}, reject(ReasonInvalidCategory, fmt.Errorf("%w: %q", ErrInvalidCategory, category))
	}
	if f.Size > ix.maxBytes {
		return domain.Photo{}, reject(ReasonTooLarge, ErrTooLarge)
	}
	data, err := io.ReadAll(io.LimitReader(f.Body, ix.maxBytes+1))
	if err != nil {
		return domain.Photo{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > ix.maxBytes {
		return domain.Photo{}, reject(ReasonTooLarge, ErrTooLarge)
	}
	if len(data) == 0 {
		return domain.Photo{}, reject(ReasonEmpty, ErrEmptyFile)
	}
	mimeType := mediaType(f.ContentType, data)
	if !strings.HasPrefix(mimeType, "image/") {
		return domain.Photo{}, reject(ReasonUnsupportedMedia, ErrUnsupportedMedia)
	}
	if _, err := ix.svc.GetAudit(ctx, auditID); err != nil {
		return domain.Photo{}, err
	}

	photo := domain.Photo{
		AuditID:      auditID,
		Category:     cat,
		Filename:     ix.newName(extension(f.Name, mimeType)),
		OriginalName: filepath.Base(f.Name),
		MimeType:     mimeType,
		Size:         int64(len(data)),
	}
	key := Key(photo)
	if _, err := ix.blobs.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: mimeType,
		Metadata:    map[string]string{"original-name": photo.OriginalName, "category": string(cat)},
	}); err != nil {
		return domain.Photo{}, fmt.Errorf("store photo: %w", err)
	}
	created, err := ix.svc.CreatePhoto(ctx, photo)
	if err != nil {
		if _, derr := ix.blobs.Delete(ctx, key); derr != nil {
			ix.logger.Warn("orphaned photo blob", zap.String("key", key), zap.Error(derr))
		}
		return domain.Photo{}, err
	}
	return created, nil
}

// UploadBatch uploads files one after another. Each file gets its own
// result so a batch can partially succeed.
func (ix *Index) UploadBatch(ctx context.Context, auditID, category string, files []File) []UploadResult {
	results := make([]UploadResult, 0, len(files))
	for _, f := range files {
		p, err := ix.Upload(ctx, auditID, category, f)
		res := UploadResult{File: f.Name, Err: err}
		if err == nil {
			res.Photo = &p
		}
		results = append(results, res)
	}
	return results
}

// List returns an audit's photos in report order. An empty category lists
// every photo.
func (ix *Index) List(ctx context.Context, auditID, category string) ([]domain.Photo, error) {
	var cat domain.Category
	if category != "" {
		parsed, err := domain.ParseCategory(category)
		if err != nil {
			return nil, reject(ReasonInvalidCategory, fmt.Errorf("%w: %q", ErrInvalidCategory, category))
		}
		cat = parsed
	}
	return ix.svc.ListPhotos(ctx, auditID, cat)
}

// Get returns one photo's index entry.
func (ix *Index) Get(ctx context.Context, id string) (domain.Photo, error) {
	return ix.svc.GetPhoto(ctx, id)
}

// Open returns a photo and a reader over its binary.
func (ix *Index) Open(ctx context.Context, id string) (domain.Photo, io.ReadCloser, error) {
	p, err := ix.svc.GetPhoto(ctx, id)
	if err != nil {
		return domain.Photo{}, nil, err
	}
	rc, err := ix.OpenBinary(ctx, p)
	if err != nil {
		return domain.Photo{}, nil, err
	}
	return p, rc, nil
}

// OpenBinary reads the stored binary of an already resolved photo.
func (ix *Index) OpenBinary(ctx context.Context, p domain.Photo) (io.ReadCloser, error) {
	_, rc, err := ix.blobs.Get(ctx, Key(p))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, fmt.Errorf("photo %q binary: %w", p.ID, domain.ErrNotFound)
		}
		return nil, err
	}
	return rc, nil
}

// Delete removes a photo from the index and then its binary.
func (ix *Index) Delete(ctx context.Context, id string) (domain.Photo, error) {
	p, err := ix.svc.DeletePhoto(ctx, id)
	if err != nil {
		return domain.Photo{}, err
	}
	if err := ix.Purge(ctx, []domain.Photo{p}); err != nil {
		ix.logger.Warn("photo blob cleanup failed", zap.String("photo_id", p.ID), zap.Error(err))
	}
	return p, nil
}

// DeleteAudit removes an audit together with its photos and purges their
// binaries.
func (ix *Index) DeleteAudit(ctx context.Context, auditID string) error {
	removed, _, err := ix.svc.DeleteAudit(ctx, auditID)
	if err != nil {
		return err
	}
	if err := ix.Purge(ctx, removed); err != nil {
		ix.logger.Warn("photo blob cleanup failed", zap.String("audit_id", auditID), zap.Error(err))
	}
	return nil
}

// Purge deletes the binaries of photos already removed from the index,
// such as those cascaded by an audit deletion. Missing binaries are ignored.
func (ix *Index) Purge(ctx context.Context, photos []domain.Photo) error {
	var errs []error
	for _, p := range photos {
		if _, err := ix.blobs.Delete(ctx, Key(p)); err != nil {
			errs = append(errs, fmt.Errorf("photo %s: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

func mediaType(declared string, data []byte) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			return strings.ToLower(mt)
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

func extension(name, mimeType string) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		return ext
	}
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
