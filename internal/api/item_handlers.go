package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagshelf/tagshelf/internal/catalog"
	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
)

func (s *Server) registerItemRoutes() {
	// Base64 inflates uploads by a third.
	uploadLimit := s.opts.MaxUploadBytes*4/3 + 64<<10

	huma.Register(s.api, huma.Operation{
		OperationID: "listItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/items",
		Summary:     "List items",
		Description: "Returns items in insertion order",
		Tags:        []string{"Items"},
	}, s.handleListItems)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/items",
		Summary:       "Add item",
		Description:   "Uploads an image, generates its thumbnail and records its tags",
		Tags:          []string{"Items"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  uploadLimit,
	}, s.handleCreateItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "bulkTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/items/bulk-tags",
		Summary:     "Bulk tag items",
		Description: "Adds or removes one free tag on many items",
		Tags:        []string{"Items"},
	}, s.handleBulkTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getItem",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{id}",
		Summary:     "Get item",
		Tags:        []string{"Items"},
	}, s.handleGetItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateItem",
		Method:      http.MethodPatch,
		Path:        "/api/v1/items/{id}",
		Summary:     "Update item",
		Description: "Partially updates memo, free tags or structured tags",
		Tags:        []string{"Items"},
	}, s.handleUpdateItem)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteItem",
		Method:        http.MethodDelete,
		Path:          "/api/v1/items/{id}",
		Summary:       "Delete item",
		Tags:          []string{"Items"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "getItemThumbnail",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{id}/thumbnail",
		Summary:     "Get item thumbnail",
		Tags:        []string{"Items"},
	}, s.handleGetThumbnail)

	huma.Register(s.api, huma.Operation{
		OperationID: "getItemOriginal",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{id}/original",
		Summary:     "Get item original",
		Tags:        []string{"Items"},
	}, s.handleGetOriginal)
}

// === DTOs ===

// ItemResponse contains item data in API responses.
// Image payloads are served by the thumbnail and original endpoints.
type ItemResponse struct {
	ID             string         `json:"id" doc:"Item ID"`
	ContentType    string         `json:"content_type,omitempty" doc:"MIME type of the original"`
	BlurHash       string         `json:"blur_hash,omitempty" doc:"BlurHash placeholder"`
	ThumbnailURL   string         `json:"thumbnail_url,omitempty" doc:"Thumbnail location"`
	OriginalURL    string         `json:"original_url,omitempty" doc:"Original image location"`
	FreeTags       []string       `json:"free_tags" doc:"Free tags"`
	StructuredTags map[string]any `json:"structured_tags,omitempty" doc:"Category key to a value (single) or values (multi)"`
	Memo           string         `json:"memo" doc:"Memo"`
	CreatedAt      time.Time      `json:"created_at" doc:"Creation time"`
	UpdatedAt      time.Time      `json:"updated_at" doc:"Last update time"`
}

// ItemOutput wraps an item for Huma.
type ItemOutput struct {
	Body ItemResponse
}

// ListItemsInput contains pagination parameters.
type ListItemsInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
	Limit  int `query:"limit" minimum:"1" maximum:"500" default:"100" doc:"Maximum items to return"`
}

// ItemListResponse contains a page of items.
type ItemListResponse struct {
	Items []ItemResponse `json:"items" doc:"Items"`
	Total int            `json:"total" doc:"Number of matching items"`
}

// ItemListOutput wraps a list of items for Huma.
type ItemListOutput struct {
	Body ItemListResponse
}

// CreateItemRequest is the request body for adding an item.
type CreateItemRequest struct {
	Original       []byte         `json:"original" minLength:"1" doc:"Image bytes, base64 encoded (JPEG, PNG, GIF or WebP)"`
	FreeTags       []string       `json:"free_tags,omitempty" doc:"Free tags"`
	StructuredTags map[string]any `json:"structured_tags,omitempty" doc:"Category key to a value (single) or values (multi)"`
	Memo           string         `json:"memo,omitempty" maxLength:"10000" doc:"Memo"`
}

// CreateItemInput wraps the create item request for Huma.
type CreateItemInput struct {
	Body CreateItemRequest
}

// ItemIDInput identifies one item.
type ItemIDInput struct {
	ID string `path:"id" doc:"Item ID"`
}

// UpdateItemRequest is the request body for updating an item.
// Absent fields are left unchanged. A null or empty structured value removes the key.
type UpdateItemRequest struct {
	Memo           *string        `json:"memo,omitempty" maxLength:"10000" doc:"Memo"`
	FreeTags       *[]string      `json:"free_tags,omitempty" doc:"Replacement free tags"`
	StructuredTags map[string]any `json:"structured_tags,omitempty" doc:"Per-key structured updates"`
}

// UpdateItemInput wraps the update item request for Huma.
type UpdateItemInput struct {
	ID   string `path:"id" doc:"Item ID"`
	Body UpdateItemRequest
}

// BulkTagsRequest is the request body for bulk tagging.
type BulkTagsRequest struct {
	Action string   `json:"action" enum:"add,remove" doc:"add or remove"`
	Tag    string   `json:"tag" minLength:"1" maxLength:"200" doc:"Free tag"`
	IDs    []string `json:"ids" minItems:"1" doc:"Item IDs"`
}

// BulkTagsInput wraps the bulk tags request for Huma.
type BulkTagsInput struct {
	Body BulkTagsRequest
}

// BulkTagsOutput wraps the bulk result for Huma.
type BulkTagsOutput struct {
	Body catalog.BulkResult
}

// ImageOutput streams raw image bytes.
type ImageOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// === Handlers ===

func (s *Server) handleListItems(_ context.Context, input *ListItemsInput) (*ItemListOutput, error) {
	items := s.services.Catalog.Items()
	return &ItemListOutput{Body: page(items, input.Offset, input.Limit)}, nil
}

func (s *Server) handleCreateItem(ctx context.Context, input *CreateItemInput) (*ItemOutput, error) {
	if int64(len(input.Body.Original)) > s.opts.MaxUploadBytes {
		return nil, huma.NewError(http.StatusRequestEntityTooLarge, "image exceeds the upload limit")
	}

	structured, err := structuredIn(input.Body.StructuredTags)
	if err != nil {
		return nil, s.fail(ctx, "create_item", err)
	}

	// Thumbnails are generated before the catalog is locked.
	thumb, err := s.services.Thumbnailer.Generate(ctx, input.Body.Original)
	if err != nil {
		return nil, s.fail(ctx, "create_item", err)
	}

	item, err := s.services.Catalog.AddItem(ctx, catalog.NewItem{
		Thumbnail:      thumb.Data,
		Original:       input.Body.Original,
		ContentType:    http.DetectContentType(input.Body.Original),
		BlurHash:       thumb.BlurHash,
		FreeTags:       input.Body.FreeTags,
		StructuredTags: structured,
		Memo:           input.Body.Memo,
	})
	if err != nil {
		if item == nil {
			return nil, s.fail(ctx, "create_item", err)
		}
		// The item exists; only recording its tags as recent failed.
		s.logger.WarnContext(ctx, "Item added but tag usage not recorded", "item_id", item.ID, "error", err)
	}

	return &ItemOutput{Body: itemResponse(item)}, nil
}

func (s *Server) handleGetItem(ctx context.Context, input *ItemIDInput) (*ItemOutput, error) {
	item, err := s.services.Catalog.Item(input.ID)
	if err != nil {
		return nil, s.fail(ctx, "get_item", err)
	}
	return &ItemOutput{Body: itemResponse(item)}, nil
}

func (s *Server) handleUpdateItem(ctx context.Context, input *UpdateItemInput) (*ItemOutput, error) {
	structured, err := structuredIn(input.Body.StructuredTags)
	if err != nil {
		return nil, s.fail(ctx, "update_item", err)
	}

	item, err := s.services.Catalog.UpdateItem(ctx, input.ID, catalog.ItemPatch{
		Memo:           input.Body.Memo,
		FreeTags:       input.Body.FreeTags,
		StructuredTags: structured,
	})
	if err != nil {
		if item == nil {
			return nil, s.fail(ctx, "update_item", err)
		}
		s.logger.WarnContext(ctx, "Item updated but tag usage not recorded", "item_id", item.ID, "error", err)
	}
	return &ItemOutput{Body: itemResponse(item)}, nil
}

func (s *Server) handleDeleteItem(ctx context.Context, input *ItemIDInput) (*struct{}, error) {
	if err := s.services.Catalog.DeleteItem(ctx, input.ID); err != nil {
		return nil, s.fail(ctx, "delete_item", err)
	}
	return nil, nil
}

func (s *Server) handleBulkTags(ctx context.Context, input *BulkTagsInput) (*BulkTagsOutput, error) {
	var (
		res catalog.BulkResult
		err error
	)
	switch input.Body.Action {
	case "add":
		res, err = s.services.Catalog.BulkAddTag(ctx, input.Body.IDs, input.Body.Tag)
	case "remove":
		res, err = s.services.Catalog.BulkRemoveTag(ctx, input.Body.IDs, input.Body.Tag)
	default:
		return nil, s.fail(ctx, "bulk_tags", domainerrors.Validationf("unknown action %q", input.Body.Action))
	}
	if err != nil {
		return nil, s.fail(ctx, "bulk_tags", err)
	}
	return &BulkTagsOutput{Body: res}, nil
}

func (s *Server) handleGetThumbnail(ctx context.Context, input *ItemIDInput) (*ImageOutput, error) {
	item, err := s.services.Catalog.Item(input.ID)
	if err != nil {
		return nil, s.fail(ctx, "get_thumbnail", err)
	}
	if len(item.Thumbnail) == 0 {
		return nil, huma.Error404NotFound("item has no thumbnail")
	}
	return &ImageOutput{ContentType: "image/jpeg", CacheControl: CacheOneDayPrivate, Body: item.Thumbnail}, nil
}

func (s *Server) handleGetOriginal(ctx context.Context, input *ItemIDInput) (*ImageOutput, error) {
	item, err := s.services.Catalog.Item(input.ID)
	if err != nil {
		return nil, s.fail(ctx, "get_original", err)
	}
	if len(item.Original) == 0 {
		return nil, huma.Error404NotFound("item has no original")
	}
	ct := item.ContentType
	if ct == "" {
		ct = http.DetectContentType(item.Original)
	}
	return &ImageOutput{ContentType: ct, CacheControl: CacheOneDayPrivate, Body: item.Original}, nil
}

// === Mapping ===

func itemResponse(it *domain.MediaItem) ItemResponse {
	resp := ItemResponse{
		ID:          it.ID,
		ContentType: it.ContentType,
		BlurHash:    it.BlurHash,
		FreeTags:    it.FreeTags,
		Memo:        it.Memo,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
	if resp.FreeTags == nil {
		resp.FreeTags = []string{}
	}
	if len(it.Thumbnail) > 0 {
		resp.ThumbnailURL = "/api/v1/items/" + it.ID + "/thumbnail"
	}
	if len(it.Original) > 0 {
		resp.OriginalURL = "/api/v1/items/" + it.ID + "/original"
	}
	if len(it.StructuredTags) > 0 {
		resp.StructuredTags = make(map[string]any, len(it.StructuredTags))
		for k, v := range it.StructuredTags {
			resp.StructuredTags[k] = structuredOut(v)
		}
	}
	return resp
}

func page(items []*domain.MediaItem, offset, limit int) ItemListResponse {
	total := len(items)
	offset = min(offset, total)
	end := total
	if limit > 0 {
		end = min(offset+limit, total)
	}

	out := make([]ItemResponse, 0, end-offset)
	for _, it := range items[offset:end] {
		out = append(out, itemResponse(it))
	}
	return ItemListResponse{Items: out, Total: total}
}

// structuredOut renders a value the way it serializes: a string or null for
// single-select, an array for multi-select.
func structuredOut(v domain.StructuredValue) any {
	if v.Multi {
		if v.Values == nil {
			return []string{}
		}
		return v.Values
	}
	if v.Value == "" {
		return nil
	}
	return v.Value
}

// structuredIn parses loosely typed JSON values: null or a string for
// single-select, an array of strings for multi-select.
func structuredIn(in map[string]any) (map[string]domain.StructuredValue, error) {
	if len(in) == 0 {
		return nil, nil
	}

	out := make(map[string]domain.StructuredValue, len(in))
	for key, raw := range in {
		switch v := raw.(type) {
		case nil:
			out[key] = domain.SingleValue("")
		case string:
			out[key] = domain.SingleValue(v)
		case []any:
			vals := make([]string, 0, len(v))
			for _, e := range v {
				str, ok := e.(string)
				if !ok {
					return nil, domainerrors.Validationf("structured value for %q must be a list of strings", key)
				}
				vals = append(vals, str)
			}
			out[key] = domain.MultiValue(vals...)
		case []string:
			out[key] = domain.MultiValue(v...)
		default:
			return nil, domainerrors.Validationf("structured value for %q must be a string, null or a list of strings", key)
		}
	}
	return out, nil
}
