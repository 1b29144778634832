package httpapi

import (
	"auditcore/internal/core"
	"auditcore/pkg/domain"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// maxJSONBytes bounds an audit request body.
const maxJSONBytes = 4 << 20

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBytes))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return badRequest("invalid request payload: " + err.Error())
	}
	return nil
}

// createAudit rejects a body with any malformed section instead of storing
// the audit without it.
func (s *Server) createAudit(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := domain.ParseAudit(body)
	switch {
	case errors.Is(err, domain.ErrInvalidSection):
		s.writeError(w, r, err)
		return
	case err != nil:
		s.writeError(w, r, badRequest("invalid request payload: "+err.Error()))
		return
	}
	created, _, err := s.audits.CreateAudit(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listAudits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	audits, err := s.audits.SearchAudits(r.Context(), core.Query{Text: q.Get("q"), Status: q.Get("status")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if audits == nil {
		audits = []domain.Audit{}
	}
	writeJSON(w, http.StatusOK, audits)
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	a, err := s.audits.GetAudit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// saveAudit applies a form patch. An optional "status" key requests a
// lifecycle transition in the same write.
func (s *Server) saveAudit(w http.ResponseWriter, r *http.Request) {
	var patch domain.Patch
	if err := decodeBody(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	var requested domain.Status
	if raw, ok := patch["status"]; ok {
		if err := json.Unmarshal(raw, &requested); err != nil {
			s.writeError(w, r, badRequest("status must be a string"))
			return
		}
	}
	saved, _, err := s.audits.SaveAudit(r.Context(), chi.URLParam(r, "id"), patch, requested)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) completeAudit(w http.ResponseWriter, r *http.Request) {
	done, _, err := s.audits.CompleteAudit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, done)
}

func (s *Server) deleteAudit(w http.ResponseWriter, r *http.Request) {
	if err := s.photos.DeleteAudit(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) addFloor(w http.ResponseWriter, r *http.Request) {
	floor, a, err := s.audits.AddFloor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"floor": floor, "audit": a})
}

func (s *Server) removeFloor(w http.ResponseWriter, r *http.Request) {
	a, err := s.audits.RemoveFloor(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "floorID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
