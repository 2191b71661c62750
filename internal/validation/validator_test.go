package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/validation"
)

type categoryRequest struct {
	Label  string   `json:"label" validate:"required,max=64"`
	Values []string `json:"values" validate:"required,min=1"`
	Sort   string   `json:"sort,omitempty" validate:"omitempty,oneof=newest oldest"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(categoryRequest{Label: "Camera", Values: []string{"Leica"}})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       categoryRequest
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing label",
			req:       categoryRequest{Values: []string{"a"}},
			wantField: "label",
			wantMsg:   "is required",
		},
		{
			name:      "label too long",
			req:       categoryRequest{Label: string(make([]byte, 65)), Values: []string{"a"}},
			wantField: "label",
			wantMsg:   "must not exceed 64 characters",
		},
		{
			name:      "no values",
			req:       categoryRequest{Label: "Camera", Values: []string{}},
			wantField: "values",
			wantMsg:   "must have at least 1 entries",
		},
		{
			name:      "bad sort",
			req:       categoryRequest{Label: "Camera", Values: []string{"a"}, Sort: "random"},
			wantField: "sort",
			wantMsg:   "must be one of: newest oldest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(categoryRequest{Values: []string{"a"}})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "label")
	assert.NotContains(t, err.Error(), "Label")
}

func TestValidator_NestedPaths(t *testing.T) {
	v := validation.New()

	snap := &domain.Snapshot{
		Version: domain.SnapshotVersion,
		Items:   []*domain.MediaItem{{ID: "med-1"}, {}},
	}

	err := v.Validate(snap)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)
	assert.Equal(t, "is required", details["items[1].id"])
}
