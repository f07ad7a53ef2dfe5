package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/domain"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/media/images"
	"github.com/galeriaarte/galeria-server/internal/store"
	"github.com/galeriaarte/galeria-server/internal/validation"
)

// NoFeatured marks a submission without a featured image choice.
const NoFeatured = -1

// WorkInput is one submission of the work editor.
type WorkInput struct {
	Form  validation.WorkForm
	Files []images.File // new images, appended after the kept ones

	// Featured indexes the final image list: kept images in order, then
	// the new files. NoFeatured leaves the primary flag alone.
	Featured int

	Removed []string // URLs of existing images to delete (update only)
	Order   []string // desired order of the kept URLs (update only)
}

// WorkService orchestrates work edits across the work store and the image
// pipeline.
type WorkService struct {
	works  *store.WorkStore
	images ImagePipeline
	logger *logger.Logger
}

// NewWorkService creates a WorkService.
func NewWorkService(works *store.WorkStore, pipeline ImagePipeline, log *logger.Logger) *WorkService {
	return &WorkService{works: works, images: pipeline, logger: log.Component("work-service")}
}

// Create validates the form, creates the work and uploads its images one
// at a time. A failed image is reported as a warning and the rest continue.
func (s *WorkService) Create(ctx context.Context, in WorkInput) (*Result[domain.Work], error) {
	in.Form.NewImages = len(in.Files)
	errs := validation.Errors{}
	if !validation.ValidateWorkForm(&in.Form, errs, false, 0) {
		return nil, formError(errs)
	}
	fields, err := PrepareFields(in.Form)
	if err != nil {
		return nil, err
	}

	w, err := s.works.Create(ctx, fields)
	if err != nil {
		return nil, err
	}

	res := &Result[domain.Work]{Value: w}
	uploaded := s.uploadImages(ctx, res, w.ID, fields.Title, in.Files, 0)
	if !slices.ContainsFunc(uploaded, stored) {
		res.warn("La obra se guardó sin imágenes")
	}
	s.setFeatured(ctx, res, w.ID, uploaded, in.Featured)

	res.Value = s.current(ctx, w)
	return res, nil
}

// Update applies field changes, deletes removed images, reorders the kept
// ones, uploads new images after them and sets the featured image.
func (s *WorkService) Update(ctx context.Context, id uuid.UUID, in WorkInput) (*Result[domain.Work], error) {
	current, err := s.works.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	kept := keptImages(current.Images, in.Removed, in.Order)
	in.Form.NewImages = len(in.Files)
	errs := validation.Errors{}
	if !validation.ValidateWorkForm(&in.Form, errs, true, len(kept)) {
		return nil, formError(errs)
	}
	fields, err := PrepareFields(in.Form)
	if err != nil {
		return nil, err
	}

	w, err := s.works.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	res := &Result[domain.Work]{Value: w}

	for _, url := range in.Removed {
		if !slices.Contains(current.ImageURLs(), url) {
			continue
		}
		if err := s.works.DeleteImage(ctx, id, url); err != nil {
			res.warn(fmt.Sprintf("No se pudo eliminar una imagen: %v", err))
		}
	}

	if len(kept) > 0 && (len(in.Order) > 0 || len(in.Removed) > 0) {
		ids := make([]uuid.UUID, 0, len(kept))
		for _, img := range kept {
			ids = append(ids, img.ID)
		}
		if err := s.works.ReorderImages(ctx, id, ids); err != nil {
			s.logger.WithError(err).Warn("failed to reorder images", "work_id", id)
			res.warn("No se pudo actualizar el orden de las imágenes")
		}
	}

	uploaded := s.uploadImages(ctx, res, id, fields.Title, in.Files, len(kept))
	s.setFeatured(ctx, res, id, append(kept, uploaded...), in.Featured)

	res.Value = s.current(ctx, w)
	return res, nil
}

// AddImages uploads files after the work's current images. featured
// indexes the new files; NoFeatured leaves the primary flag alone.
func (s *WorkService) AddImages(ctx context.Context, id uuid.UUID, files []images.File, featured int) (*Result[domain.Work], error) {
	current, err := s.works.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fieldError(validation.FieldImages, "Debes subir al menos una imagen")
	}

	res := &Result[domain.Work]{Value: current}
	uploaded := s.uploadImages(ctx, res, id, current.Title, files, len(current.Images))
	s.setFeatured(ctx, res, id, uploaded, featured)

	res.Value = s.current(ctx, current)
	return res, nil
}

// Delete removes a work, its image rows and its stored images.
func (s *WorkService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.works.Delete(ctx, id)
}

// uploadImages stores files sequentially from position start. The result
// is aligned with files; a failed file leaves a zero WorkImage in its slot.
func (s *WorkService) uploadImages(ctx context.Context, res *Result[domain.Work], workID uuid.UUID, title string, files []images.File, start int) []domain.WorkImage {
	uploaded := make([]domain.WorkImage, len(files))
	for i, f := range files {
		up, err := s.images.Upload(ctx, f, images.UploadOptions{Bucket: images.BucketWorks, Title: title})
		if err != nil {
			s.logger.WithError(err).Warn("image upload failed", "work_id", workID, "file", f.Name)
			res.warn(fmt.Sprintf("Error al subir una imagen: %v", err))
			continue
		}

		row := domain.WorkImageRow{WorkID: workID, URL: up.URL, Position: start + i}
		if up.BlurHash != "" {
			row.BlurHash = &up.BlurHash
		}
		img, err := s.works.AddImage(ctx, row)
		if err != nil {
			res.warn(fmt.Sprintf("Error al registrar una imagen: %v", err))
			if err := s.images.Delete(ctx, up.URL, images.BucketWorks); err != nil {
				s.logger.WithError(err).Warn("failed to remove orphaned image", "url", up.URL)
			}
			continue
		}
		uploaded[i] = img
	}
	return uploaded
}

// stored reports whether an upload slot holds an attached image.
func stored(img domain.WorkImage) bool { return img.ID != uuid.Nil }

func (s *WorkService) setFeatured(ctx context.Context, res *Result[domain.Work], workID uuid.UUID, ordered []domain.WorkImage, featured int) {
	if featured < 0 || featured >= len(ordered) || !stored(ordered[featured]) {
		return
	}
	if err := s.works.SetPrimaryImage(ctx, workID, ordered[featured].ID); err != nil {
		res.warn("No se pudo actualizar la imagen destacada")
	}
}

// current returns the latest copy of w, which reflects image changes.
func (s *WorkService) current(ctx context.Context, w domain.Work) domain.Work {
	if held, ok := s.works.Get(w.ID); ok {
		return held
	}
	if fresh, err := s.works.FetchByID(ctx, w.ID); err == nil {
		return fresh
	}
	return w
}

// keptImages drops removed images and arranges the rest by order. URLs
// missing from order keep their relative position after the ordered ones.
func keptImages(all []domain.WorkImage, removed, order []string) []domain.WorkImage {
	kept := slices.DeleteFunc(slices.Clone(all), func(img domain.WorkImage) bool {
		return slices.Contains(removed, img.URL)
	})
	if len(order) == 0 {
		return kept
	}
	rank := func(img domain.WorkImage) int {
		if i := slices.Index(order, img.URL); i >= 0 {
			return i
		}
		return len(order)
	}
	slices.SortStableFunc(kept, func(a, b domain.WorkImage) int { return rank(a) - rank(b) })
	return kept
}
