// Package domain holds the gallery's entities: backend row shapes, the view
// models served to clients, and the pure mappings between them.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Row types mirror backend tables column for column. The db tags are read by
// the repository scanner, the json tags by the realtime decoder (trigger
// payloads are row_to_json output). Nothing outside the repository and the
// stores should hold a row; clients receive view models.

// WorkRow is a row of the obras table.
type WorkRow struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Title       string     `db:"titulo" json:"titulo"`
	Description string     `db:"descripcion" json:"descripcion"`
	Year        int        `db:"anio" json:"anio"`
	Width       float64    `db:"ancho" json:"ancho"`
	Height      float64    `db:"alto" json:"alto"`
	CategoryID  *uuid.UUID `db:"categoria_id" json:"categoria_id"`
	Featured    bool       `db:"destacado" json:"destacado"`
	Slug        string     `db:"slug" json:"slug"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// WorkImageRow is a row of the obras_imagenes table.
type WorkImageRow struct {
	ID        uuid.UUID `db:"id" json:"id"`
	WorkID    uuid.UUID `db:"obra_id" json:"obra_id"`
	URL       string    `db:"url" json:"url"`
	Position  int       `db:"posicion" json:"posicion"`
	IsPrimary bool      `db:"es_principal" json:"es_principal"`
	BlurHash  *string   `db:"blurhash" json:"blurhash"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WorkRecord is a work row joined with its category name and image rows.
type WorkRecord struct {
	WorkRow
	CategoryName *string
	Images       []WorkImageRow
}

// InspirationRow is a row of the inspiraciones table.
type InspirationRow struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ImageURL  *string   `db:"imagen_url" json:"imagen_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// InspirationRecord is an inspiration row joined with its colors.
type InspirationRecord struct {
	InspirationRow
	Colors []ColorRow
}

// InspirationColorRow is a row of the inspiraciones_colores join table.
type InspirationColorRow struct {
	InspirationID uuid.UUID `db:"inspiracion_id" json:"inspiracion_id"`
	ColorID       uuid.UUID `db:"color_id" json:"color_id"`
}

// CategoryRow is a row of the categorias table.
type CategoryRow struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"nombre" json:"nombre"`
}

// ColorRow is a row of the colores table.
type ColorRow struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"nombre" json:"nombre"`
	Hex      string    `db:"codigo_hex" json:"codigo_hex"`
	Position int       `db:"posicion" json:"posicion"`
}
