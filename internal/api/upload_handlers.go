package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/galeriaarte/galeria-server/internal/http/response"
	"github.com/galeriaarte/galeria-server/internal/service"
	"github.com/galeriaarte/galeria-server/internal/validation"
)

// Multipart field names of the editor forms.
const (
	fieldFeatured = "destacada"  // index of the featured image in the final list
	fieldRemoved  = "eliminadas" // URLs of images to delete
	fieldOrder    = "orden"      // kept image URLs in display order
)

// registerUploadRoutes mounts the multipart routes. Huma does not model
// repeated file fields, so these are plain chi handlers writing the same
// envelope.
func (s *Server) registerUploadRoutes() {
	s.router.Group(func(r chi.Router) {
		r.Use(requireUser(s.logger))
		r.Use(uploadRateLimit(s.uploadLimiter, s.logger))

		r.Post("/api/v1/works", s.handleCreateWork)
		r.Put("/api/v1/works/{id}", s.handleUpdateWork)
		r.Post("/api/v1/works/{id}/images", s.handleAddWorkImages)
		r.Post("/api/v1/inspirations", s.handleCreateInspiration)
		r.Put("/api/v1/inspirations/{id}", s.handleUpdateInspiration)
	})
}

func (s *Server) handleCreateWork(w http.ResponseWriter, r *http.Request) {
	in, err := s.workInput(w, r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	res, err := s.services.Works.Create(r.Context(), in)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, res.Value, res.Warnings, s.logger)
}

func (s *Server) handleUpdateWork(w http.ResponseWriter, r *http.Request) {
	id, err := parseID("id", chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	in, err := s.workInput(w, r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	in.Removed = formValues(r, fieldRemoved)
	in.Order = formValues(r, fieldOrder)

	res, err := s.services.Works.Update(r.Context(), id, in)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Write(w, http.StatusOK, response.Envelope{Success: true, Data: res.Value, Warnings: res.Warnings}, s.logger)
}

func (s *Server) handleAddWorkImages(w http.ResponseWriter, r *http.Request) {
	id, err := parseID("id", chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if err := parseForm(w, r, maxUploadBytes); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	files, err := formFiles(r, validation.FieldImages)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	featured, err := formInt(r, fieldFeatured, service.NoFeatured)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	res, err := s.services.Works.AddImages(r.Context(), id, files, featured)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, res.Value, res.Warnings, s.logger)
}

// workInput reads the work editor form.
func (s *Server) workInput(w http.ResponseWriter, r *http.Request) (service.WorkInput, error) {
	if err := parseForm(w, r, maxUploadBytes); err != nil {
		return service.WorkInput{}, err
	}
	files, err := formFiles(r, validation.FieldImages)
	if err != nil {
		return service.WorkInput{}, err
	}
	featured, err := formInt(r, fieldFeatured, service.NoFeatured)
	if err != nil {
		return service.WorkInput{}, err
	}

	return service.WorkInput{
		Form: validation.WorkForm{
			Title:       r.FormValue(validation.FieldTitle),
			Description: r.FormValue(validation.FieldDescription),
			Year:        r.FormValue(validation.FieldYear),
			Width:       r.FormValue(validation.FieldWidth),
			Height:      r.FormValue(validation.FieldHeight),
			Category:    r.FormValue(validation.FieldCategory),
			Featured:    formBool(r, "destacado"),
			Slug:        r.FormValue("slug"),
		},
		Files:    files,
		Featured: featured,
	}, nil
}

func (s *Server) handleCreateInspiration(w http.ResponseWriter, r *http.Request) {
	in, err := inspirationInput(w, r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	res, err := s.services.Inspirations.Create(r.Context(), in)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, res.Value, res.Warnings, s.logger)
}

func (s *Server) handleUpdateInspiration(w http.ResponseWriter, r *http.Request) {
	id, err := parseID("id", chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	in, err := inspirationInput(w, r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	res, err := s.services.Inspirations.Update(r.Context(), id, in)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Write(w, http.StatusOK, response.Envelope{Success: true, Data: res.Value, Warnings: res.Warnings}, s.logger)
}

// inspirationInput reads the inspiration editor form.
func inspirationInput(w http.ResponseWriter, r *http.Request) (service.InspirationInput, error) {
	if err := parseForm(w, r, maxUploadBytes); err != nil {
		return service.InspirationInput{}, err
	}
	file, err := formFile(r, validation.FieldImage)
	if err != nil {
		return service.InspirationInput{}, err
	}
	return service.InspirationInput{
		Colors: formValues(r, validation.FieldColors),
		File:   file,
	}, nil
}
