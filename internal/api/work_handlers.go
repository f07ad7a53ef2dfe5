package api

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/api/dto"
	"github.com/galeriaarte/galeria-server/internal/domain"
	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
	"github.com/galeriaarte/galeria-server/internal/search"
)

func (s *Server) registerWorkRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listWorks",
		Method:      http.MethodGet,
		Path:        "/api/v1/works",
		Summary:     "List works",
		Description: "Returns all works, newest first, or the works matching a search query",
		Tags:        []string{"Works"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListWorks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWork",
		Method:      http.MethodGet,
		Path:        "/api/v1/works/{id}",
		Summary:     "Get work",
		Description: "Returns a work with its images",
		Tags:        []string{"Works"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetWork)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWorkBySlug",
		Method:      http.MethodGet,
		Path:        "/api/v1/works/slug/{slug}",
		Summary:     "Get work by slug",
		Description: "Returns the work published under a slug",
		Tags:        []string{"Works"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetWorkBySlug)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteWork",
		Method:        http.MethodDelete,
		Path:          "/api/v1/works/{id}",
		Summary:       "Delete work",
		Description:   "Deletes a work, its image rows and its stored images",
		Tags:          []string{"Works"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteWork)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteWorkImage",
		Method:      http.MethodDelete,
		Path:        "/api/v1/works/{id}/images",
		Summary:     "Delete work image",
		Description: "Detaches the image with the given URL and removes the stored file",
		Tags:        []string{"Works"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteWorkImage)

	huma.Register(s.api, huma.Operation{
		OperationID: "reorderWorkImages",
		Method:      http.MethodPut,
		Path:        "/api/v1/works/{id}/images/order",
		Summary:     "Reorder work images",
		Description: "Sets image positions to the order of the given URLs",
		Tags:        []string{"Works"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReorderWorkImages)

	huma.Register(s.api, huma.Operation{
		OperationID: "setFeaturedWorkImage",
		Method:      http.MethodPut,
		Path:        "/api/v1/works/{id}/images/featured",
		Summary:     "Set featured image",
		Description: "Flags one image as the work's primary image",
		Tags:        []string{"Works"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetFeaturedWorkImage)
}

// === DTOs ===

// ListWorksInput contains parameters for listing works.
type ListWorksInput struct {
	Query    string `query:"q" doc:"Full-text query over title and description"`
	Category string `query:"categoria" doc:"Category ID filter"`
	Limit    int    `query:"limit" minimum:"0" maximum:"200" doc:"Maximum search hits (search only)"`
}

// WorkListOutput wraps a list of works for Huma.
type WorkListOutput struct {
	Body dto.ListResponse[domain.Work]
}

// WorkOutput wraps a work for Huma.
type WorkOutput struct {
	Body domain.Work
}

// GetWorkInput contains parameters for getting a work.
type GetWorkInput struct {
	dto.IDParam
}

// GetWorkBySlugInput contains parameters for getting a work by slug.
type GetWorkBySlugInput struct {
	Slug string `path:"slug" doc:"Work slug"`
}

// DeleteWorkInput contains parameters for deleting a work.
type DeleteWorkInput struct {
	dto.IDParam
}

// DeleteWorkImageRequest names the image to remove.
type DeleteWorkImageRequest struct {
	URL string `json:"url" minLength:"1" doc:"Public URL of the image"`
}

// DeleteWorkImageInput wraps the delete image request for Huma.
type DeleteWorkImageInput struct {
	dto.IDParam
	Body DeleteWorkImageRequest
}

// ReorderWorkImagesRequest lists image URLs in their new order.
type ReorderWorkImagesRequest struct {
	URLs []string `json:"urls" minItems:"1" doc:"Image URLs in display order"`
}

// ReorderWorkImagesInput wraps the reorder request for Huma.
type ReorderWorkImagesInput struct {
	dto.IDParam
	Body ReorderWorkImagesRequest
}

// SetFeaturedImageRequest names the image to feature.
type SetFeaturedImageRequest struct {
	ImageID string `json:"image_id" format:"uuid" doc:"Image ID"`
}

// SetFeaturedImageInput wraps the featured image request for Huma.
type SetFeaturedImageInput struct {
	dto.IDParam
	Body SetFeaturedImageRequest
}

// === Handlers ===

func (s *Server) handleListWorks(ctx context.Context, input *ListWorksInput) (*WorkListOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}

	var categoryID *uuid.UUID
	if input.Category != "" {
		id, err := parseID("categoria", input.Category)
		if err != nil {
			return nil, err
		}
		categoryID = &id
	}

	query := strings.TrimSpace(input.Query)
	if query != "" && s.search != nil {
		works, err := s.searchWorks(ctx, query, input.Category, input.Limit)
		if err != nil {
			return nil, err
		}
		return &WorkListOutput{Body: dto.NewList(works)}, nil
	}

	works, err := s.allWorks(ctx)
	if err != nil {
		return nil, err
	}
	works = slices.DeleteFunc(works, func(w domain.Work) bool {
		if categoryID != nil && (w.CategoryID == nil || *w.CategoryID != *categoryID) {
			return true
		}
		return query != "" && !matchesQuery(w, query)
	})
	return &WorkListOutput{Body: dto.NewList(works)}, nil
}

func (s *Server) searchWorks(ctx context.Context, query, category string, limit int) ([]domain.Work, error) {
	params := search.DefaultSearchParams()
	params.Query = query
	params.CategoryID = category
	if limit > 0 {
		params.Limit = limit
	}

	result, err := s.search.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(result.Hits))
	for _, raw := range result.IDs() {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	return s.stores.Works.FetchByIDs(ctx, ids)
}

// allWorks serves the preloaded list when it is current and reads the
// table otherwise.
func (s *Server) allWorks(ctx context.Context) ([]domain.Work, error) {
	if p := s.preloader(); p != nil && p.Loaded() {
		return s.stores.Works.Works(), nil
	}
	return s.stores.Works.FetchAll(ctx)
}

// matchesQuery is the search fallback when no index is configured.
func matchesQuery(w domain.Work, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(w.Title), q) ||
		strings.Contains(strings.ToLower(w.Description), q)
}

func (s *Server) handleGetWork(ctx context.Context, input *GetWorkInput) (*WorkOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	if w, ok := s.stores.Works.Get(id); ok {
		return &WorkOutput{Body: w}, nil
	}
	w, err := s.stores.Works.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &WorkOutput{Body: w}, nil
}

func (s *Server) handleGetWorkBySlug(ctx context.Context, input *GetWorkBySlugInput) (*WorkOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}

	w, err := s.stores.Works.FetchBySlug(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	return &WorkOutput{Body: w}, nil
}

func (s *Server) handleDeleteWork(ctx context.Context, input *DeleteWorkInput) (*struct{}, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Works.Delete(ctx, id); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleDeleteWorkImage(ctx context.Context, input *DeleteWorkImageInput) (*WorkOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	if err := s.stores.Works.DeleteImage(ctx, id, input.Body.URL); err != nil {
		return nil, err
	}
	return s.workOutput(ctx, id)
}

func (s *Server) handleReorderWorkImages(ctx context.Context, input *ReorderWorkImagesInput) (*WorkOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	w, err := s.stores.Works.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	byURL := make(map[string]uuid.UUID, len(w.Images))
	for _, img := range w.Images {
		byURL[img.URL] = img.ID
	}
	ids := make([]uuid.UUID, 0, len(input.Body.URLs))
	for _, url := range input.Body.URLs {
		imageID, ok := byURL[url]
		if !ok {
			return nil, domainerrors.ValidationWithDetails("Datos inválidos", map[string]string{
				"urls": "La imagen " + url + " no pertenece a la obra",
			})
		}
		ids = append(ids, imageID)
	}

	if err := s.stores.Works.ReorderImages(ctx, id, ids); err != nil {
		return nil, err
	}
	return s.workOutput(ctx, id)
}

func (s *Server) handleSetFeaturedWorkImage(ctx context.Context, input *SetFeaturedImageInput) (*WorkOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}
	imageID, err := parseID("image_id", input.Body.ImageID)
	if err != nil {
		return nil, err
	}

	if err := s.stores.Works.SetPrimaryImage(ctx, id, imageID); err != nil {
		return nil, err
	}
	return s.workOutput(ctx, id)
}

// workOutput returns the held copy of a work, reading it when absent.
func (s *Server) workOutput(ctx context.Context, id uuid.UUID) (*WorkOutput, error) {
	if w, ok := s.stores.Works.Get(id); ok {
		return &WorkOutput{Body: w}, nil
	}
	w, err := s.stores.Works.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &WorkOutput{Body: w}, nil
}
