package server

import (
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/astra/pkg/errors"
	"github.com/matzehuels/astra/pkg/observability"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// statusFor maps an error to its HTTP status and response body.
func statusFor(err error) (int, ErrorResponse) {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, ErrorResponse{
			Code:    errors.ErrCodeInvalidInput,
			Message: "the uploaded file is too large",
		}
	}

	code := errors.GetCode(err)
	switch {
	case errors.IsStaleReference(err):
		return http.StatusConflict, ErrorResponse{Code: code, Message: errors.UserMessage(err)}
	case errors.IsValidation(err), errors.IsFormatViolation(err), code == errors.ErrCodeNotFound:
		return http.StatusBadRequest, ErrorResponse{Code: code, Message: errors.UserMessage(err)}
	}
	return http.StatusInternalServerError, ErrorResponse{
		Code:    errors.ErrCodeInternal,
		Message: "internal error",
	}
}

// writeError reports err to the client. Server-side failures are logged with
// their cause; client errors only at debug level.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}
