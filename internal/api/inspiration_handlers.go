package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/galeriaarte/galeria-server/internal/api/dto"
	"github.com/galeriaarte/galeria-server/internal/domain"
	"github.com/galeriaarte/galeria-server/internal/service"
	"github.com/galeriaarte/galeria-server/internal/validation"
)

func (s *Server) registerInspirationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listInspirations",
		Method:      http.MethodGet,
		Path:        "/api/v1/inspirations",
		Summary:     "List inspirations",
		Description: "Returns all inspirations, newest first, optionally only those tagged with a color",
		Tags:        []string{"Inspirations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListInspirations)

	huma.Register(s.api, huma.Operation{
		OperationID: "getInspiration",
		Method:      http.MethodGet,
		Path:        "/api/v1/inspirations/{id}",
		Summary:     "Get inspiration",
		Description: "Returns an inspiration with its colors",
		Tags:        []string{"Inspirations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetInspiration)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteInspiration",
		Method:        http.MethodDelete,
		Path:          "/api/v1/inspirations/{id}",
		Summary:       "Delete inspiration",
		Description:   "Deletes an inspiration, its color links and its stored image",
		Tags:          []string{"Inspirations"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteInspiration)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeInspirationImage",
		Method:      http.MethodDelete,
		Path:        "/api/v1/inspirations/{id}/image",
		Summary:     "Remove inspiration image",
		Description: "Clears the image of an inspiration and removes the stored file",
		Tags:        []string{"Inspirations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveInspirationImage)

	huma.Register(s.api, huma.Operation{
		OperationID: "getInspirationColors",
		Method:      http.MethodGet,
		Path:        "/api/v1/inspirations/{id}/colors",
		Summary:     "Get inspiration colors",
		Description: "Returns the colors of an inspiration by position",
		Tags:        []string{"Inspirations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetInspirationColors)

	huma.Register(s.api, huma.Operation{
		OperationID: "setInspirationColors",
		Method:      http.MethodPut,
		Path:        "/api/v1/inspirations/{id}/colors",
		Summary:     "Set inspiration colors",
		Description: "Replaces the colors of an inspiration",
		Tags:        []string{"Inspirations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetInspirationColors)
}

// === DTOs ===

// ListInspirationsInput contains parameters for listing inspirations.
type ListInspirationsInput struct {
	Color string `query:"color" doc:"Color ID filter"`
}

// InspirationListOutput wraps a list of inspirations for Huma.
type InspirationListOutput struct {
	Body dto.ListResponse[domain.Inspiration]
}

// InspirationOutput wraps an inspiration for Huma.
type InspirationOutput struct {
	Body domain.Inspiration
}

// InspirationIDInput identifies an inspiration.
type InspirationIDInput struct {
	dto.IDParam
}

// ColorListOutput wraps a list of colors for Huma.
type ColorListOutput struct {
	Body dto.ListResponse[domain.Color]
}

// SetInspirationColorsRequest lists the colors to keep.
type SetInspirationColorsRequest struct {
	Colors []string `json:"colores" doc:"Color IDs"`
}

// SetInspirationColorsInput wraps the set colors request for Huma.
type SetInspirationColorsInput struct {
	dto.IDParam
	Body SetInspirationColorsRequest
}

// === Handlers ===

func (s *Server) handleListInspirations(ctx context.Context, input *ListInspirationsInput) (*InspirationListOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}

	if input.Color != "" {
		colorID, err := parseID("color", input.Color)
		if err != nil {
			return nil, err
		}
		list, err := s.stores.Inspirations.FetchByColor(ctx, colorID)
		if err != nil {
			return nil, err
		}
		return &InspirationListOutput{Body: dto.NewList(list)}, nil
	}

	if p := s.preloader(); p != nil && p.Loaded() {
		return &InspirationListOutput{Body: dto.NewList(s.stores.Inspirations.Inspirations())}, nil
	}
	list, err := s.stores.Inspirations.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return &InspirationListOutput{Body: dto.NewList(list)}, nil
}

func (s *Server) handleGetInspiration(ctx context.Context, input *InspirationIDInput) (*InspirationOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	if insp, ok := s.stores.Inspirations.Get(id); ok {
		return &InspirationOutput{Body: insp}, nil
	}
	insp, err := s.stores.Inspirations.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &InspirationOutput{Body: insp}, nil
}

func (s *Server) handleDeleteInspiration(ctx context.Context, input *InspirationIDInput) (*struct{}, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Inspirations.Delete(ctx, id); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleRemoveInspirationImage(ctx context.Context, input *InspirationIDInput) (*InspirationOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	insp, err := s.services.Inspirations.RemoveImage(ctx, id)
	if err != nil {
		return nil, err
	}
	return &InspirationOutput{Body: insp}, nil
}

func (s *Server) handleGetInspirationColors(ctx context.Context, input *InspirationIDInput) (*ColorListOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	colors, err := s.services.Inspirations.Colors(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ColorListOutput{Body: dto.NewList(colors)}, nil
}

func (s *Server) handleSetInspirationColors(ctx context.Context, input *SetInspirationColorsInput) (*InspirationOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}
	colorIDs, err := service.ParseIDs(validation.FieldColors, input.Body.Colors)
	if err != nil {
		return nil, err
	}

	if err := s.services.Inspirations.SaveColors(ctx, id, colorIDs); err != nil {
		return nil, err
	}
	if insp, ok := s.stores.Inspirations.Get(id); ok {
		return &InspirationOutput{Body: insp}, nil
	}
	insp, err := s.stores.Inspirations.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &InspirationOutput{Body: insp}, nil
}
