// Package httputil maps domain errors onto HTTP responses for the SDK's
// local HTTP surfaces (loopback callback listener, demo provider).
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "identitykit/pkg/domain-errors"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteError renders err as a JSON error body with a status derived from its
// domain code. Internal errors never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	body := errorResponse{Error: string(code)}
	var domainErr *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &domainErr) {
		body.Description = domainErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(code))
	_ = json.NewEncoder(w).Encode(body)
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidData:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeCanceled:
		return http.StatusConflict
	case dErrors.CodeStartFailed:
		return http.StatusServiceUnavailable
	case dErrors.CodeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
