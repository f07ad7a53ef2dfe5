package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Work is an artwork as presented to clients.
type Work struct {
	ID           uuid.UUID   `json:"id"`
	Title        string      `json:"titulo"`
	Description  string      `json:"descripcion"`
	Year         int         `json:"anio"`
	Width        float64     `json:"ancho"`
	Height       float64     `json:"alto"`
	CategoryID   *uuid.UUID  `json:"categoria_id,omitempty"`
	CategoryName string      `json:"categoria_nombre,omitempty"`
	Featured     bool        `json:"destacado"`
	Slug         string      `json:"slug"`
	Images       []WorkImage `json:"imagenes"`
	PrimaryImage *WorkImage  `json:"imagen_principal,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// WorkImage is one stored image of a work.
type WorkImage struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Position  int       `json:"posicion"`
	IsPrimary bool      `json:"es_principal"`
	BlurHash  string    `json:"blurhash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkFields is the set of columns a client may write on a work. Anything
// else a form carries is dropped before it reaches the backend.
type WorkFields struct {
	Title       string
	Description string
	Year        int
	Width       float64
	Height      float64
	CategoryID  *uuid.UUID
	Featured    bool
	Slug        string // optional; derived from Title when empty
}

// NewWork maps a joined work record to its view model.
func NewWork(rec WorkRecord) Work {
	w := Work{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Year:        rec.Year,
		Width:       rec.Width,
		Height:      rec.Height,
		CategoryID:  rec.CategoryID,
		Featured:    rec.Featured,
		Slug:        rec.Slug,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if rec.CategoryName != nil {
		w.CategoryName = *rec.CategoryName
	}
	w.Images = make([]WorkImage, 0, len(rec.Images))
	for _, img := range rec.Images {
		w.Images = append(w.Images, NewWorkImage(img))
	}
	w.SetImages(w.Images)
	return w
}

// NewWorkImage maps an image row to its view model.
func NewWorkImage(row WorkImageRow) WorkImage {
	img := WorkImage{
		ID:        row.ID,
		URL:       row.URL,
		Position:  row.Position,
		IsPrimary: row.IsPrimary,
		CreatedAt: row.CreatedAt,
	}
	if row.BlurHash != nil {
		img.BlurHash = *row.BlurHash
	}
	return img
}

// SetImages replaces the image list, orders it by position and recomputes
// the primary image.
func (w *Work) SetImages(images []WorkImage) {
	sorted := slices.Clone(images)
	if sorted == nil {
		sorted = []WorkImage{}
	}
	slices.SortStableFunc(sorted, func(a, b WorkImage) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	w.Images = sorted
	w.PrimaryImage = PrimaryImage(sorted)
}

// PrimaryImage returns the image flagged primary, or the earliest inserted
// image when none is flagged. Nil for an empty list.
func PrimaryImage(images []WorkImage) *WorkImage {
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		if images[i].IsPrimary {
			img := images[i]
			return &img
		}
	}
	first := images[0]
	for _, img := range images[1:] {
		if img.CreatedAt.Before(first.CreatedAt) {
			first = img
		}
	}
	return &first
}

// ImageURLs lists the URLs of every image of w.
func (w Work) ImageURLs() []string {
	urls := make([]string, 0, len(w.Images))
	for _, img := range w.Images {
		urls = append(urls, img.URL)
	}
	return urls
}
