package domain

import (
	"time"

	"github.com/google/uuid"
)

// Inspiration is a reference image tagged with palette colors.
type Inspiration struct {
	ID        uuid.UUID `json:"id"`
	ImageURL  string    `json:"imagen_url,omitempty"`
	Colors    []Color   `json:"colores"`
	CreatedAt time.Time `json:"created_at"`
}

// InspirationFields is the writable column set of an inspiration.
type InspirationFields struct {
	ImageURL *string
}

// NewInspiration maps a joined inspiration record to its view model.
func NewInspiration(rec InspirationRecord) Inspiration {
	insp := Inspiration{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		Colors:    make([]Color, 0, len(rec.Colors)),
	}
	if rec.ImageURL != nil {
		insp.ImageURL = *rec.ImageURL
	}
	for _, c := range rec.Colors {
		insp.Colors = append(insp.Colors, NewColor(c))
	}
	SortColors(insp.Colors)
	return insp
}

// ColorIDs returns the ids of the inspiration's colors in display order.
func (i Inspiration) ColorIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(i.Colors))
	for _, c := range i.Colors {
		ids = append(ids, c.ID)
	}
	return ids
}

// HasColor reports whether the inspiration is tagged with colorID.
func (i Inspiration) HasColor(colorID uuid.UUID) bool {
	for _, c := range i.Colors {
		if c.ID == colorID {
			return true
		}
	}
	return false
}
