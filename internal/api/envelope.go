package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagshelf/tagshelf/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in the standard envelope.
// Errors become {"v", "success": false, "error", "code", "message", "details"};
// anything else becomes {"v", "success": true, "data"}.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch body := v.(type) {
	case *response.Envelope:
		return body, nil
	case *APIError:
		return response.Failure(body.Code, body.Message, body.Details), nil
	case huma.StatusError:
		return response.Failure(statusToCode(body.GetStatus()), body.Error(), nil), nil
	}

	if code, err := strconv.Atoi(status); err == nil && code >= 400 {
		if e, ok := v.(error); ok {
			return response.Failure("", e.Error(), nil), nil
		}
	}

	return response.OK(v), nil
}
