package httpapi

import (
	"auditcore/internal/adapters/exports"
	"auditcore/internal/photos"
	"auditcore/pkg/domain"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// errBadRequest marks malformed request input.
var errBadRequest = errors.New("bad request")

type requestError struct {
	msg string
}

func (e requestError) Error() string { return e.msg }

func (e requestError) Unwrap() error { return errBadRequest }

func badRequest(msg string) error { return requestError{msg: msg} }

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	var (
		violation domain.RuleViolationError
		rejected  *photos.ValidationError
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &violation):
		return http.StatusConflict
	case errors.As(err, &rejected):
		switch rejected.Reason {
		case photos.ReasonUnsupportedMedia:
			return http.StatusUnsupportedMediaType
		case photos.ReasonTooLarge:
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, exports.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, exports.ErrQueueFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrInvalidSection),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrFixedFloor),
		errors.Is(err, exports.ErrUnknownFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// writeError renders err with its mapped status. Internal failures are
// logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeMessage(w, status, "internal server error")
		return
	}
	writeMessage(w, status, err.Error())
}
