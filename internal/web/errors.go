package web

// errors.go turns service errors into JSON error responses.
//
// The flow:
//  1. Handler gets an error from the service
//  2. Calls respondError(w, r, err)
//  3. core.MapError picks the user message, code and error class
//  4. The technical error is logged with the request ID
//  5. The class decides the HTTP status

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/JonMunkholm/csvmaps/internal/core"
	"github.com/JonMunkholm/csvmaps/internal/csvdata"
	"github.com/JonMunkholm/csvmaps/internal/logging"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Type      string `json:"type"`
	ErrorType string `json:"error_type"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Action    string `json:"action,omitempty"`
	Code      string `json:"code"`

	// Details carries the technical error for user-facing codes.
	Details string `json:"details,omitempty"`
}

// respondError logs err and writes the mapped error response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)
	status := statusFor(err, msg.Kind)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	resp := ErrorResponse{
		Type:      "error",
		ErrorType: string(msg.Kind),
		Error:     msg.Message,
		Message:   msg.Message,
		Action:    msg.Action,
		Code:      msg.Code,
	}
	if core.IsUserFacing(err) {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps an error class to an HTTP status.
func statusFor(err error, kind core.ErrorKind) int {
	switch kind {
	case core.KindBadRequest:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindBadData:
		return http.StatusUnprocessableEntity
	case core.KindRateLimited:
		return http.StatusTooManyRequests
	case core.KindDatasource:
		var pe *csvdata.ParseError
		switch {
		case errors.As(err, &pe):
			return http.StatusUnprocessableEntity
		case errors.Is(err, os.ErrNotExist):
			return http.StatusNotFound
		case errors.Is(err, context.DeadlineExceeded):
			return http.StatusGatewayTimeout
		case errors.Is(err, core.ErrMapsUnavailable), errors.Is(err, core.ErrCensusUnavailable):
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
