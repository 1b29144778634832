package httpapi

import (
	"auditcore/internal/adapters/exports"
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func attachment(w http.ResponseWriter, art exports.Artifact, size int) {
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Filename}))
	if size > 0 {
		w.Header().Set("Content-Length", strconv.Itoa(size))
	}
}

// exportHandler renders an artifact in full before answering so a failure
// still produces a JSON error. Rendering is not cancelled when the client
// goes away, so photos never degrade to placeholders mid-document.
func (s *Server) exportHandler(format exports.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		ctx := context.WithoutCancel(r.Context())
		art, err := s.exports.Write(ctx, chi.URLParam(r, "id"), format, &buf)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		attachment(w, art, buf.Len())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

func (s *Server) roster(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	art, err := s.exports.WriteRoster(context.WithoutCancel(r.Context()), &buf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	attachment(w, art, buf.Len())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type exportRequest struct {
	Format string `json:"format"`
}

func (s *Server) enqueueExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	format, err := exports.ParseFormat(req.Format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	job, err := s.jobs.Enqueue(r.Context(), chi.URLParam(r, "id"), format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"export": job})
}

func (s *Server) getExport(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"export": job})
}

func (s *Server) downloadExport(w http.ResponseWriter, r *http.Request) {
	job, rc, err := s.jobs.Open(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()
	attachment(w, exports.Artifact{Filename: job.Filename, ContentType: job.ContentType}, int(job.Size))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("export download interrupted", zap.String("job_id", job.ID), zap.Error(err))
	}
}
