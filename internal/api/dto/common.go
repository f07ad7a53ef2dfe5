// Package dto provides request and response types shared by the gallery
// API operations. Huma uses them to generate the OpenAPI document.
package dto

// ListResponse is a list response with its total.
type ListResponse[T any] struct {
	Items []T `json:"items" doc:"List of items"`
	Total int `json:"total" doc:"Number of items"`
}

// NewList builds a ListResponse, never with null items.
func NewList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}

// IDParam is a path parameter for resource IDs.
type IDParam struct {
	ID string `path:"id" format:"uuid" doc:"Resource identifier"`
}

// MessageResponse is a simple success message response.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps a message response for huma.
type MessageOutput struct {
	Body MessageResponse
}
