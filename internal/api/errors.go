package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			if apiErr := fromDomain(err); apiErr != nil {
				return apiErr
			}
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
			Details: errorDetails(errs),
		}
	}
}

// fromDomain converts a coded domain error, or nil when err carries none.
func fromDomain(err error) *APIError {
	var coded *domainerrors.Error
	if !errors.As(err, &coded) {
		return nil
	}
	return &APIError{
		status:  coded.HTTPStatus(),
		Code:    string(coded.Code),
		Message: coded.Message,
		Details: coded.Details,
	}
}

// fail turns a service error into a huma.StatusError so the response carries
// the status of the error code. Server-side failures are logged.
func (s *Server) fail(ctx context.Context, op string, err error) error {
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}

	if apiErr := fromDomain(err); apiErr != nil {
		if apiErr.status >= http.StatusInternalServerError {
			s.logger.ErrorContext(ctx, "Request failed", "op", op, "code", apiErr.Code, "error", err)
		}
		return apiErr
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &APIError{status: http.StatusServiceUnavailable, Code: string(domainerrors.CodeInternal), Message: "request canceled"}
	}

	s.logger.ErrorContext(ctx, "Unhandled error", "op", op, "error", err)
	return &APIError{
		status:  http.StatusInternalServerError,
		Code:    string(domainerrors.CodeInternal),
		Message: "internal server error",
	}
}

// errorDetails collects huma's per-field validation errors as location → message.
func errorDetails(errs []error) any {
	details := map[string]string{}
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if errors.As(err, &detail) {
			loc := detail.Location
			if loc == "" {
				loc = "body"
			}
			details[loc] = detail.Message
		}
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeDuplicateCategory)
	case http.StatusServiceUnavailable:
		return string(domainerrors.CodeStorageUnavailable)
	default:
		return string(domainerrors.CodeInternal)
	}
}
