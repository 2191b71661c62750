package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/normalize"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns the vocabulary sorted by name with usage counts",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags",
		Summary:     "Create tag",
		Description: "Adds a name to the vocabulary without tagging any item",
		Tags:        []string{"Tags"},
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "recentTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/recent",
		Summary:     "Recent tags",
		Description: "Returns the most recently used tags, newest first",
		Tags:        []string{"Tags"},
	}, s.handleRecentTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}",
		Summary:     "Get tag",
		Description: "Returns a vocabulary entry and its usage, e.g. to confirm a delete",
		Tags:        []string{"Tags"},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "renameTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{name}",
		Summary:     "Rename tag",
		Description: "Renames a tag on every item. Renaming onto an existing tag merges the two",
		Tags:        []string{"Tags"},
	}, s.handleRenameTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{name}",
		Summary:     "Delete tag",
		Description: "Removes a tag from every item, the vocabulary and the recent list",
		Tags:        []string{"Tags"},
	}, s.handleDeleteTag)
}

// === DTOs ===

// ListTagsResponse contains the vocabulary.
type ListTagsResponse struct {
	Tags []domain.TagEntry `json:"tags" doc:"Vocabulary entries"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name string `json:"name" minLength:"1" maxLength:"200" doc:"Tag name"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Body CreateTagRequest
}

// CreateTagResponse reports whether the vocabulary changed.
type CreateTagResponse struct {
	Tag     domain.TagEntry `json:"tag" doc:"The vocabulary entry"`
	Created bool            `json:"created" doc:"False when the tag already existed"`
}

// CreateTagOutput wraps the create tag response for Huma.
type CreateTagOutput struct {
	Status int
	Body   CreateTagResponse
}

// RecentTagsResponse contains the recent tag list.
type RecentTagsResponse struct {
	Tags []string `json:"tags" doc:"Most recently used first"`
}

// RecentTagsOutput wraps the recent tags response for Huma.
type RecentTagsOutput struct {
	Body RecentTagsResponse
}

// TagNameInput identifies one tag.
type TagNameInput struct {
	Name string `path:"name" doc:"Tag name"`
}

// TagOutput wraps a vocabulary entry for Huma.
type TagOutput struct {
	Body domain.TagEntry
}

// RenameTagRequest is the request body for renaming a tag.
type RenameTagRequest struct {
	Name string `json:"name" minLength:"1" maxLength:"200" doc:"New tag name"`
}

// RenameTagInput wraps the rename tag request for Huma.
type RenameTagInput struct {
	Name string `path:"name" doc:"Current tag name"`
	Body RenameTagRequest
}

// RenameTagOutput wraps the rename result for Huma.
type RenameTagOutput struct {
	Body domain.RenameResult
}

// DeleteTagResponse reports how many items lost the tag.
type DeleteTagResponse struct {
	Tag           string `json:"tag" doc:"Deleted tag"`
	ItemsAffected int    `json:"items_affected" doc:"Usage before deletion"`
}

// DeleteTagOutput wraps the delete tag response for Huma.
type DeleteTagOutput struct {
	Body DeleteTagResponse
}

// === Handlers ===

func (s *Server) handleListTags(_ context.Context, _ *struct{}) (*ListTagsOutput, error) {
	return &ListTagsOutput{Body: ListTagsResponse{Tags: s.services.Catalog.Tags().Vocabulary()}}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*CreateTagOutput, error) {
	name := normalize.TagName(input.Body.Name)
	if name == "" {
		return nil, s.fail(ctx, "create_tag", domainerrors.Validation("tag name is required"))
	}

	tags := s.services.Catalog.Tags()
	created, err := tags.AddTag(ctx, name)
	if err != nil {
		return nil, s.fail(ctx, "create_tag", err)
	}

	entry, err := tags.Tag(name)
	if err != nil {
		return nil, s.fail(ctx, "create_tag", err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return &CreateTagOutput{Status: status, Body: CreateTagResponse{Tag: entry, Created: created}}, nil
}

func (s *Server) handleRecentTags(_ context.Context, _ *struct{}) (*RecentTagsOutput, error) {
	recent := s.services.Catalog.Tags().Recent()
	if recent == nil {
		recent = []string{}
	}
	return &RecentTagsOutput{Body: RecentTagsResponse{Tags: recent}}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *TagNameInput) (*TagOutput, error) {
	entry, err := s.services.Catalog.Tags().Tag(pathValue(input.Name))
	if err != nil {
		return nil, s.fail(ctx, "get_tag", err)
	}
	return &TagOutput{Body: entry}, nil
}

func (s *Server) handleRenameTag(ctx context.Context, input *RenameTagInput) (*RenameTagOutput, error) {
	res, err := s.services.Catalog.Tags().RenameTag(ctx, pathValue(input.Name), input.Body.Name)
	if err != nil {
		return nil, s.fail(ctx, "rename_tag", err)
	}
	return &RenameTagOutput{Body: res}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *TagNameInput) (*DeleteTagOutput, error) {
	name := pathValue(input.Name)
	n, err := s.services.Catalog.Tags().DeleteTag(ctx, name)
	if err != nil {
		return nil, s.fail(ctx, "delete_tag", err)
	}
	return &DeleteTagOutput{Body: DeleteTagResponse{Tag: name, ItemsAffected: n}}, nil
}

// pathValue undoes escaping the router leaves in place, e.g. %2F in a tag name.
func pathValue(v string) string {
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}
