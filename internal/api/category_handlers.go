package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagshelf/tagshelf/internal/domain"
)

func (s *Server) registerCategoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Description: "Returns the structured tag schema in display order",
		Tags:        []string{"Categories"},
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCategory",
		Method:        http.MethodPost,
		Path:          "/api/v1/categories",
		Summary:       "Create category",
		Description:   "Creates a structured category. The key is derived from the label",
		Tags:          []string{"Categories"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCategory",
		Method:      http.MethodPut,
		Path:        "/api/v1/categories/{key}",
		Summary:     "Update category",
		Description: "Replaces label, values and cardinality. A label or cardinality change clears the category on every item",
		Tags:        []string{"Categories"},
	}, s.handleUpdateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteCategory",
		Method:        http.MethodDelete,
		Path:          "/api/v1/categories/{key}",
		Summary:       "Delete category",
		Description:   "Removes a category from the schema, every item and the active filter",
		Tags:          []string{"Categories"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteCategory)
}

// === DTOs ===

// ListCategoriesResponse contains the schema.
type ListCategoriesResponse struct {
	Categories []*domain.Category `json:"categories" doc:"Categories in display order"`
}

// ListCategoriesOutput wraps the schema for Huma.
type ListCategoriesOutput struct {
	Body ListCategoriesResponse
}

// CategoryRequest is the request body for creating or replacing a category.
type CategoryRequest struct {
	Label  string   `json:"label" minLength:"1" maxLength:"100" doc:"Display label"`
	Values []string `json:"values" minItems:"1" doc:"Allowed values in display order"`
	Multi  bool     `json:"multi,omitempty" doc:"Allow several values per item"`
}

// CreateCategoryInput wraps the create category request for Huma.
type CreateCategoryInput struct {
	Body CategoryRequest
}

// UpdateCategoryInput wraps the update category request for Huma.
type UpdateCategoryInput struct {
	Key  string `path:"key" doc:"Category key"`
	Body CategoryRequest
}

// CategoryKeyInput identifies one category.
type CategoryKeyInput struct {
	Key string `path:"key" doc:"Category key"`
}

// CategoryOutput wraps a category for Huma.
type CategoryOutput struct {
	Body *domain.Category
}

// === Handlers ===

func (s *Server) handleListCategories(_ context.Context, _ *struct{}) (*ListCategoriesOutput, error) {
	return &ListCategoriesOutput{Body: ListCategoriesResponse{Categories: s.services.Catalog.Tags().Categories()}}, nil
}

func (s *Server) handleCreateCategory(ctx context.Context, input *CreateCategoryInput) (*CategoryOutput, error) {
	tags := s.services.Catalog.Tags()
	key, err := tags.AddCategory(ctx, input.Body.Label, input.Body.Values, input.Body.Multi)
	if err != nil {
		return nil, s.fail(ctx, "create_category", err)
	}
	cat, err := tags.Category(key)
	if err != nil {
		return nil, s.fail(ctx, "create_category", err)
	}
	return &CategoryOutput{Body: cat}, nil
}

func (s *Server) handleUpdateCategory(ctx context.Context, input *UpdateCategoryInput) (*CategoryOutput, error) {
	cat, err := s.services.Catalog.Tags().EditCategory(ctx, pathValue(input.Key), input.Body.Label, input.Body.Values, input.Body.Multi)
	if err != nil {
		return nil, s.fail(ctx, "update_category", err)
	}
	return &CategoryOutput{Body: cat}, nil
}

func (s *Server) handleDeleteCategory(ctx context.Context, input *CategoryKeyInput) (*struct{}, error) {
	if err := s.services.Catalog.Tags().DeleteCategory(ctx, pathValue(input.Key)); err != nil {
		return nil, s.fail(ctx, "delete_category", err)
	}
	return nil, nil
}
