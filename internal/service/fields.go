// Package service implements the admin workflows that span several stores
// and the image pipeline: creating a work with its images, replacing an
// inspiration's image and colors, and preloading the stores.
package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/domain"
	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
	"github.com/galeriaarte/galeria-server/internal/media/images"
	"github.com/galeriaarte/galeria-server/internal/validation"
)

// ImagePipeline stores and removes images. *images.Pipeline implements it.
type ImagePipeline interface {
	Upload(ctx context.Context, f images.File, opts images.UploadOptions) (images.Uploaded, error)
	Delete(ctx context.Context, url, bucket string) error
}

// Result carries the outcome of a workflow together with the non-fatal
// problems met on the way, such as an image that failed to upload.
type Result[T any] struct {
	Value    T        `json:"value"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Result[T]) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// htmlTagPattern detects pasted rich text in a description.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// descriptionMarkdown converts an HTML description to Markdown. Plain text
// is returned unchanged.
func descriptionMarkdown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}
	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}

// PrepareFields converts a validated work form into the whitelisted column
// set. Numeric text is parsed and the category must be a valid id.
func PrepareFields(form validation.WorkForm) (domain.WorkFields, error) {
	year, err := strconv.Atoi(strings.TrimSpace(form.Year))
	if err != nil {
		return domain.WorkFields{}, fieldError(validation.FieldYear, "Ingrese un año válido entre 1800 y 2100")
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(form.Width), 64)
	if err != nil {
		return domain.WorkFields{}, fieldError(validation.FieldWidth, "Ingrese un ancho válido entre 0 y 1000")
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(form.Height), 64)
	if err != nil {
		return domain.WorkFields{}, fieldError(validation.FieldHeight, "Ingrese un alto válido entre 0 y 1000")
	}

	fields := domain.WorkFields{
		Title:       strings.TrimSpace(form.Title),
		Description: descriptionMarkdown(form.Description),
		Year:        year,
		Width:       width,
		Height:      height,
		Featured:    form.Featured,
		Slug:        strings.TrimSpace(form.Slug),
	}
	if raw := strings.TrimSpace(form.Category); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return domain.WorkFields{}, fieldError(validation.FieldCategory, "La categoría no es válida")
		}
		fields.CategoryID = &id
	}
	return fields, nil
}

// ParseIDs parses a list of ids submitted as text.
func ParseIDs(field string, raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, fieldError(field, "Identificador no válido: "+s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func fieldError(field, msg string) error {
	return domainerrors.ValidationWithDetails("Revise los campos del formulario", map[string]string{field: msg})
}

func formError(errs validation.Errors) error {
	return domainerrors.ValidationWithDetails("Revise los campos del formulario", errs.Failed())
}
