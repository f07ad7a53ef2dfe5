package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/domain"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/media/images"
	"github.com/galeriaarte/galeria-server/internal/store"
	"github.com/galeriaarte/galeria-server/internal/validation"
)

// InspirationInput is one submission of the inspiration editor.
type InspirationInput struct {
	Colors []string     // color ids
	File   *images.File // replacement image, nil keeps the stored one
}

// InspirationService orchestrates inspiration edits across the inspiration
// and color stores and the image pipeline.
type InspirationService struct {
	inspirations *store.InspirationStore
	colors       *store.ColorStore
	images       ImagePipeline
	logger       *logger.Logger
}

// NewInspirationService creates an InspirationService.
func NewInspirationService(inspirations *store.InspirationStore, colors *store.ColorStore, pipeline ImagePipeline, log *logger.Logger) *InspirationService {
	return &InspirationService{
		inspirations: inspirations,
		colors:       colors,
		images:       pipeline,
		logger:       log.Component("inspiration-service"),
	}
}

// Create validates the form, creates the inspiration, stores its image and
// links its colors. An image that fails to upload leaves the inspiration
// without one and is reported as a warning.
func (s *InspirationService) Create(ctx context.Context, in InspirationInput) (*Result[domain.Inspiration], error) {
	form := validation.InspirationForm{HasImage: in.File != nil, Colors: in.Colors}
	errs := validation.Errors{}
	if !validation.ValidateInspirationForm(&form, errs, false) {
		return nil, formError(errs)
	}
	colorIDs, err := ParseIDs(validation.FieldColors, in.Colors)
	if err != nil {
		return nil, err
	}

	insp, err := s.inspirations.Create(ctx, domain.InspirationFields{})
	if err != nil {
		return nil, err
	}
	res := &Result[domain.Inspiration]{Value: insp}

	if _, err := s.ReplaceImage(ctx, insp.ID, *in.File); err != nil {
		res.warn(fmt.Sprintf("Error al subir la imagen: %v", err))
	}
	if err := s.colors.SaveInspirationColors(ctx, insp.ID, colorIDs); err != nil {
		res.warn(fmt.Sprintf("Error al asociar colores: %v", err))
	}

	if fresh, err := s.inspirations.Refresh(ctx, insp.ID); err == nil {
		res.Value = fresh
	}
	return res, nil
}

// Update replaces the colors of an inspiration and, when a file is given,
// its image. The previous image is removed after the new one is stored.
func (s *InspirationService) Update(ctx context.Context, id uuid.UUID, in InspirationInput) (*Result[domain.Inspiration], error) {
	current, err := s.inspirations.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	form := validation.InspirationForm{HasImage: in.File != nil, ImageURL: current.ImageURL, Colors: in.Colors}
	errs := validation.Errors{}
	if !validation.ValidateInspirationForm(&form, errs, true) {
		return nil, formError(errs)
	}
	colorIDs, err := ParseIDs(validation.FieldColors, in.Colors)
	if err != nil {
		return nil, err
	}

	res := &Result[domain.Inspiration]{Value: current}
	if in.File != nil {
		if _, err := s.ReplaceImage(ctx, id, *in.File); err != nil {
			return nil, err
		}
	}
	if err := s.SaveColors(ctx, id, colorIDs); err != nil {
		return nil, err
	}

	if fresh, err := s.inspirations.Refresh(ctx, id); err == nil {
		res.Value = fresh
	}
	return res, nil
}

// ReplaceImage stores f as the inspiration's image under the name
// inspiracion-<id> and removes the image it replaces.
func (s *InspirationService) ReplaceImage(ctx context.Context, id uuid.UUID, f images.File) (domain.Inspiration, error) {
	previous, err := s.inspirations.FetchByID(ctx, id)
	if err != nil {
		return domain.Inspiration{}, err
	}

	up, err := s.images.Upload(ctx, f, images.UploadOptions{
		Bucket: images.BucketInspirations,
		Title:  "inspiracion-" + id.String(),
	})
	if err != nil {
		s.logger.WithError(err).Warn("inspiration image upload failed", "inspiration_id", id)
		return domain.Inspiration{}, err
	}

	insp, err := s.inspirations.Update(ctx, id, domain.InspirationFields{ImageURL: &up.URL})
	if err != nil {
		s.inspirations.RemoveImage(ctx, up.URL)
		return domain.Inspiration{}, err
	}
	if previous.ImageURL != "" && previous.ImageURL != up.URL {
		s.inspirations.RemoveImage(ctx, previous.ImageURL)
	}
	return insp, nil
}

// RemoveImage clears the inspiration's image and removes the stored object.
func (s *InspirationService) RemoveImage(ctx context.Context, id uuid.UUID) (domain.Inspiration, error) {
	current, err := s.inspirations.FetchByID(ctx, id)
	if err != nil {
		return domain.Inspiration{}, err
	}
	if current.ImageURL == "" {
		return current, nil
	}

	insp, err := s.inspirations.Update(ctx, id, domain.InspirationFields{ImageURL: nil})
	if err != nil {
		return domain.Inspiration{}, err
	}
	s.inspirations.RemoveImage(ctx, current.ImageURL)
	return insp, nil
}

// SaveColors replaces the colors of an inspiration.
func (s *InspirationService) SaveColors(ctx context.Context, id uuid.UUID, colorIDs []uuid.UUID) error {
	if err := s.colors.SaveInspirationColors(ctx, id, colorIDs); err != nil {
		return err
	}
	_, err := s.inspirations.Refresh(ctx, id)
	return err
}

// Colors returns the colors of an inspiration by position.
func (s *InspirationService) Colors(ctx context.Context, id uuid.UUID) ([]domain.Color, error) {
	return s.colors.ColorsForInspiration(ctx, id)
}

// Delete removes an inspiration, its color links and its stored image.
func (s *InspirationService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.inspirations.Delete(ctx, id)
}
