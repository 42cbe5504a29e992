package errors

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNoRefreshToken  = errors.New("missing refresh token")
	ErrSessionExpired  = errors.New("session expired")
	ErrTokenInvalid    = errors.New("invalid token")
	ErrRefreshRejected = errors.New("refresh token rejected")
)

// APIError carries the backend's error envelope ({message}) alongside the
// HTTP status so callers can surface the server's own wording.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error statusCode=%d message=%s", e.StatusCode, e.Message)
}

func HandleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
