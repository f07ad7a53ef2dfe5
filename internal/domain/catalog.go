package domain

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultColorPosition is assigned to colors created without a position,
// which places them after the curated palette.
const DefaultColorPosition = 99

// Category classifies works. Categories are reference data managed in the backend.
type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"nombre"`
	Slug string    `json:"slug"`
}

// Color is a palette entry used to tag inspirations.
type Color struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"nombre"`
	Hex      string    `json:"codigo_hex"`
	Position int       `json:"posicion"`
}

// ColorFields is the writable column set of a color.
type ColorFields struct {
	Name     string
	Hex      string
	Position *int
}

// NewCategory maps a category row to its view model.
func NewCategory(row CategoryRow) Category {
	return Category{ID: row.ID, Name: row.Name, Slug: Slugify(row.Name)}
}

// NewColor maps a color row to its view model.
func NewColor(row ColorRow) Color {
	return Color{ID: row.ID, Name: row.Name, Hex: strings.ToUpper(row.Hex), Position: row.Position}
}

// SortColors orders colors by position, then name.
func SortColors(colors []Color) {
	slices.SortStableFunc(colors, func(a, b Color) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// SortCategories orders categories by name using Spanish collation, so
// "Óleo" sorts next to "Oleo" rather than after "Z".
func SortCategories(categories []Category) {
	c := collate.New(language.Spanish, collate.IgnoreCase)
	slices.SortStableFunc(categories, func(a, b Category) int {
		return c.CompareString(a.Name, b.Name)
	})
}
