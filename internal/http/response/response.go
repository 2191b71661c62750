// Package response provides the JSON envelope every API response is wrapped in,
// plus writers for the few responses produced outside of huma operations.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
)

// Version is the envelope format version, sent as "v".
const Version = 1

// Envelope provides a consistent JSON response structure.
// Success responses carry Data. Error responses carry Error, and detailed
// errors add the machine-readable Code, Message and Details.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data any) *Envelope {
	return &Envelope{Version: Version, Success: true, Data: data}
}

// Failure wraps an error message in an error envelope. Code and details are
// optional; when code is empty only the simple form is produced.
func Failure(code, message string, details any) *Envelope {
	env := &Envelope{Version: Version, Error: message}
	if code != "" {
		env.Code = code
		env.Message = message
		env.Details = details
	}
	return env
}

// JSON writes env with the given status code.
func JSON(w http.ResponseWriter, status int, env *Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(env); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, OK(data), logger)
}

// Error writes a simple error response with the given status code.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	JSON(w, status, Failure("", message, nil), logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, message, logger)
}

// TooManyRequests writes a 429 response. A positive retryAfter is sent as a
// Retry-After header rounded up to whole seconds.
func TooManyRequests(w http.ResponseWriter, message string, retryAfter time.Duration, logger *slog.Logger) {
	if retryAfter > 0 {
		secs := int((retryAfter + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	JSON(w, http.StatusTooManyRequests, Failure("RATE_LIMITED", message, nil), logger)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	JSON(w, http.StatusInternalServerError, Failure(string(domainerrors.CodeInternal), message, nil), logger)
}

// HandleError writes an appropriate HTTP response based on the error type.
// Coded errors are mapped to their HTTP status, unknown errors become 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var coded *domainerrors.Error
	if errors.As(err, &coded) {
		JSON(w, coded.HTTPStatus(), Failure(string(coded.Code), coded.Message, coded.Details), logger)
		return
	}

	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	InternalError(w, "internal server error", logger)
}
