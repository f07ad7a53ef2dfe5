package search

import (
	"github.com/galeriaarte/galeria-server/internal/domain"
)

// WorkDocument is the indexed form of a work.
type WorkDocument struct {
	ID          string
	Title       string
	Description string
	Category    string
	CategoryID  string
	Year        int
	Featured    bool
	CreatedAt   int64 // unix ms, for recency sorting
}

// NewWorkDocument converts a work to its indexed form.
func NewWorkDocument(w domain.Work) *WorkDocument {
	doc := &WorkDocument{
		ID:          w.ID.String(),
		Title:       w.Title,
		Description: w.Description,
		Category:    w.CategoryName,
		Year:        w.Year,
		Featured:    w.Featured,
		CreatedAt:   w.CreatedAt.UnixMilli(),
	}
	if w.CategoryID != nil {
		doc.CategoryID = w.CategoryID.String()
	}
	return doc
}

// ToMap returns the document keyed by the mapping's field names.
func (d *WorkDocument) ToMap() map[string]any {
	return map[string]any{
		"id":           d.ID,
		"titulo":       d.Title,
		"descripcion":  d.Description,
		"categoria":    d.Category,
		"categoria_id": d.CategoryID,
		"anio":         float64(d.Year),
		"destacado":    d.Featured,
		"created_at":   float64(d.CreatedAt),
	}
}
