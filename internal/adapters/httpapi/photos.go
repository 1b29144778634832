package httpapi

import (
	"auditcore/internal/photos"
	"auditcore/pkg/domain"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MaxBatchFiles bounds the files of one upload request.
const MaxBatchFiles = 20

// photoFields are the multipart field names carrying files.
var photoFields = []string{"photo", "photos"}

// uploadOutcome is one file's result in a multi-status batch response.
type uploadOutcome struct {
	File   string        `json:"file"`
	Status int           `json:"status"`
	Photo  *domain.Photo `json:"photo,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func (s *Server) uploadPhotos(w http.ResponseWriter, r *http.Request) {
	auditID := chi.URLParam(r, "id")
	limit := s.photos.MaxBytes()*MaxBatchFiles + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			s.writeError(w, r, err)
			return
		}
		s.writeError(w, r, badRequest("invalid multipart upload: "+err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	var headers []*multipart.FileHeader
	for _, field := range photoFields {
		headers = append(headers, r.MultipartForm.File[field]...)
	}
	switch {
	case len(headers) == 0:
		s.writeError(w, r, badRequest("no file uploaded"))
		return
	case len(headers) > MaxBatchFiles:
		s.writeError(w, r, badRequest(fmt.Sprintf("at most %d files per upload", MaxBatchFiles)))
		return
	}
	category := r.FormValue("category")

	files := make([]photos.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.writeError(w, r, fmt.Errorf("open upload %s: %w", fh.Filename, err))
			return
		}
		defer f.Close()
		files = append(files, photos.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	if len(files) == 1 {
		p, err := s.photos.Upload(r.Context(), auditID, category, files[0])
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
		return
	}

	results := s.photos.UploadBatch(r.Context(), auditID, category, files)
	out := make([]uploadOutcome, 0, len(results))
	for _, res := range results {
		o := uploadOutcome{File: res.File, Status: http.StatusCreated, Photo: res.Photo}
		if res.Err != nil {
			o.Status = statusFor(res.Err)
			o.Error = res.Err.Error()
			if o.Status == http.StatusInternalServerError {
				s.logger.Error("photo upload failed", zap.String("audit_id", auditID), zap.String("file", res.File), zap.Error(res.Err))
				o.Error = "internal server error"
			}
		}
		out = append(out, o)
	}
	writeJSON(w, http.StatusMultiStatus, map[string]any{"results": out})
}

func (s *Server) listPhotos(w http.ResponseWriter, r *http.Request) {
	auditID := chi.URLParam(r, "id")
	if _, err := s.audits.GetAudit(r.Context(), auditID); err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.photos.List(r.Context(), auditID, r.URL.Query().Get("category"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Photo{}
	}
	writeJSON(w, http.StatusOK, list)
}

// getPhoto streams a photo's binary.
func (s *Server) getPhoto(w http.ResponseWriter, r *http.Request) {
	p, rc, err := s.photos.Open(r.Context(), chi.URLParam(r, "photoID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", p.MimeType)
	if p.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(p.Size, 10))
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": p.OriginalName}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("photo stream interrupted", zap.String("photo_id", p.ID), zap.Error(err))
	}
}

func (s *Server) deletePhoto(w http.ResponseWriter, r *http.Request) {
	if _, err := s.photos.Delete(r.Context(), chi.URLParam(r, "photoID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
