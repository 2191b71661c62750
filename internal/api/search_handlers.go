package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagshelf/tagshelf/internal/domain"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search items",
		Description: "Filters items by structured tags, free tags and text. With save set the query also becomes the active search",
		Tags:        []string{"Search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSearchState",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/state",
		Summary:     "Get active search",
		Tags:        []string{"Search"},
	}, s.handleGetSearchState)

	huma.Register(s.api, huma.Operation{
		OperationID: "setSearchState",
		Method:      http.MethodPut,
		Path:        "/api/v1/search/state",
		Summary:     "Set active search",
		Description: "Persists the active search so it survives restarts",
		Tags:        []string{"Search"},
	}, s.handleSetSearchState)
}

// === DTOs ===

// SearchRequest is a query. Every field is optional; an empty request
// matches every item, newest first.
type SearchRequest struct {
	Tags       []string            `json:"tags,omitempty" doc:"Free tag filter"`
	Mode       string              `json:"mode,omitempty" enum:"and,or" doc:"and: every tag, or: any tag"`
	Structured map[string][]string `json:"structured,omitempty" doc:"Category key to accepted values"`
	Text       string              `json:"text,omitempty" maxLength:"500" doc:"Whitespace separated terms, all must match"`
	Sort       string              `json:"sort,omitempty" enum:"newest,oldest" doc:"Creation time order"`
}

func (r SearchRequest) state() domain.SearchState {
	return domain.SearchState{
		Tags:       r.Tags,
		Mode:       domain.FilterMode(r.Mode),
		Structured: r.Structured,
		Text:       r.Text,
		Sort:       domain.SortOrder(r.Sort),
	}
}

// SearchInput wraps the search request for Huma.
type SearchInput struct {
	Save   bool `query:"save" doc:"Also make this the active search"`
	Offset int  `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
	Limit  int  `query:"limit" minimum:"1" maximum:"500" default:"100" doc:"Maximum items to return"`
	Body   SearchRequest
}

// SearchStateInput wraps a search state for Huma.
type SearchStateInput struct {
	Body SearchRequest
}

// SearchStateOutput wraps the active search state for Huma.
type SearchStateOutput struct {
	Body domain.SearchState
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*ItemListOutput, error) {
	c := s.services.Catalog
	if input.Save {
		if _, err := c.SetSearchState(ctx, input.Body.state()); err != nil {
			return nil, s.fail(ctx, "search", err)
		}
		return &ItemListOutput{Body: page(c.Search(), input.Offset, input.Limit)}, nil
	}
	return &ItemListOutput{Body: page(c.Query(input.Body.state()), input.Offset, input.Limit)}, nil
}

func (s *Server) handleGetSearchState(_ context.Context, _ *struct{}) (*SearchStateOutput, error) {
	return &SearchStateOutput{Body: s.services.Catalog.SearchState()}, nil
}

func (s *Server) handleSetSearchState(ctx context.Context, input *SearchStateInput) (*SearchStateOutput, error) {
	state, err := s.services.Catalog.SetSearchState(ctx, input.Body.state())
	if err != nil {
		return nil, s.fail(ctx, "set_search_state", err)
	}
	return &SearchStateOutput{Body: state}, nil
}
