package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/galeriaarte/galeria-server/internal/api/dto"
	"github.com/galeriaarte/galeria-server/internal/domain"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Description: "Returns the work categories sorted by name",
		Tags:        []string{"Catalog"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "listColors",
		Method:      http.MethodGet,
		Path:        "/api/v1/colors",
		Summary:     "List colors",
		Description: "Returns the palette sorted by position",
		Tags:        []string{"Catalog"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListColors)

	huma.Register(s.api, huma.Operation{
		OperationID: "getColor",
		Method:      http.MethodGet,
		Path:        "/api/v1/colors/{id}",
		Summary:     "Get color",
		Description: "Returns one color of the palette",
		Tags:        []string{"Catalog"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetColor)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createColor",
		Method:        http.MethodPost,
		Path:          "/api/v1/colors",
		Summary:       "Create color",
		Description:   "Adds a color to the palette",
		Tags:          []string{"Catalog"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateColor)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateColor",
		Method:      http.MethodPut,
		Path:        "/api/v1/colors/{id}",
		Summary:     "Update color",
		Description: "Overwrites a color of the palette",
		Tags:        []string{"Catalog"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateColor)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteColor",
		Method:        http.MethodDelete,
		Path:          "/api/v1/colors/{id}",
		Summary:       "Delete color",
		Description:   "Removes a color and its inspiration links",
		Tags:          []string{"Catalog"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteColor)
}

// === DTOs ===

// CategoryListOutput wraps a list of categories for Huma.
type CategoryListOutput struct {
	Body dto.ListResponse[domain.Category]
}

// ColorRequest is the request body for creating or updating a color.
type ColorRequest struct {
	Name     string `json:"nombre" validate:"required,max=50" doc:"Color name"`
	Hex      string `json:"codigo_hex" validate:"required,hexcolor" doc:"Hex code, e.g. #C0392B"`
	Position *int   `json:"posicion,omitempty" validate:"omitempty,gte=0" doc:"Sort position; defaults to the end of the palette"`
}

func (r ColorRequest) fields() domain.ColorFields {
	return domain.ColorFields{
		Name:     strings.TrimSpace(r.Name),
		Hex:      strings.ToUpper(strings.TrimSpace(r.Hex)),
		Position: r.Position,
	}
}

// CreateColorInput wraps the create color request for Huma.
type CreateColorInput struct {
	Body ColorRequest
}

// UpdateColorInput wraps the update color request for Huma.
type UpdateColorInput struct {
	dto.IDParam
	Body ColorRequest
}

// GetColorInput contains parameters for getting a color.
type GetColorInput struct {
	dto.IDParam
}

// DeleteColorInput contains parameters for deleting a color.
type DeleteColorInput struct {
	dto.IDParam
}

// ColorOutput wraps a color for Huma.
type ColorOutput struct {
	Body domain.Color
}

// === Handlers ===

func (s *Server) handleListCategories(ctx context.Context, _ *struct{}) (*CategoryListOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}

	if s.stores.Categories.Len() > 0 {
		return &CategoryListOutput{Body: dto.NewList(s.stores.Categories.Categories())}, nil
	}
	cats, err := s.stores.Categories.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return &CategoryListOutput{Body: dto.NewList(cats)}, nil
}

func (s *Server) handleListColors(ctx context.Context, _ *struct{}) (*ColorListOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}

	if s.stores.Colors.Len() > 0 {
		return &ColorListOutput{Body: dto.NewList(s.stores.Colors.Colors())}, nil
	}
	colors, err := s.stores.Colors.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return &ColorListOutput{Body: dto.NewList(colors)}, nil
}

func (s *Server) handleGetColor(ctx context.Context, input *GetColorInput) (*ColorOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	if c, ok := s.stores.Colors.Get(id); ok {
		return &ColorOutput{Body: c}, nil
	}
	c, err := s.stores.Colors.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ColorOutput{Body: c}, nil
}

func (s *Server) handleCreateColor(ctx context.Context, input *CreateColorInput) (*ColorOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	c, err := s.stores.Colors.Create(ctx, input.Body.fields())
	if err != nil {
		return nil, err
	}
	return &ColorOutput{Body: c}, nil
}

func (s *Server) handleUpdateColor(ctx context.Context, input *UpdateColorInput) (*ColorOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	c, err := s.stores.Colors.Update(ctx, id, input.Body.fields())
	if err != nil {
		return nil, err
	}
	return &ColorOutput{Body: c}, nil
}

func (s *Server) handleDeleteColor(ctx context.Context, input *DeleteColorInput) (*struct{}, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	if err := s.stores.Colors.Delete(ctx, id); err != nil {
		return nil, err
	}
	return nil, nil
}
