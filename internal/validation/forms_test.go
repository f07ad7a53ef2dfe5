package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/galeriaarte/galeria-server/internal/validation"
)

func validWorkForm() validation.WorkForm {
	return validation.WorkForm{
		Title:       "Sunset, Vol. 2",
		Description: "Óleo sobre tela",
		Year:        "2020",
		Width:       "50",
		Height:      "70.5",
		Category:    "4b1c9b0e-2f7e-4c61-8d8a-6c1e0f3b9a11",
		NewImages:   1,
	}
}

func TestWorkValidator_Fields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *validation.WorkForm)
		field   string
		wantMsg string
	}{
		{name: "blank title", mutate: func(f *validation.WorkForm) { f.Title = "   " }, field: "titulo", wantMsg: "El título es obligatorio"},
		{name: "blank description", mutate: func(f *validation.WorkForm) { f.Description = "" }, field: "descripcion", wantMsg: "La descripción es obligatoria"},
		{name: "missing year", mutate: func(f *validation.WorkForm) { f.Year = "" }, field: "anio", wantMsg: "El año es obligatorio"},
		{name: "year too old", mutate: func(f *validation.WorkForm) { f.Year = "1799" }, field: "anio", wantMsg: "Ingrese un año válido entre 1800 y 2100"},
		{name: "year too new", mutate: func(f *validation.WorkForm) { f.Year = "2101" }, field: "anio", wantMsg: "Ingrese un año válido entre 1800 y 2100"},
		{name: "year not a number", mutate: func(f *validation.WorkForm) { f.Year = "mil" }, field: "anio", wantMsg: "Ingrese un año válido entre 1800 y 2100"},
		{name: "missing width", mutate: func(f *validation.WorkForm) { f.Width = "" }, field: "ancho", wantMsg: "El ancho es obligatorio"},
		{name: "zero width", mutate: func(f *validation.WorkForm) { f.Width = "0" }, field: "ancho", wantMsg: "Ingrese un ancho válido entre 0 y 1000"},
		{name: "height too large", mutate: func(f *validation.WorkForm) { f.Height = "1000.1" }, field: "alto", wantMsg: "Ingrese un alto válido entre 0 y 1000"},
		{name: "missing category", mutate: func(f *validation.WorkForm) { f.Category = "" }, field: "categoria", wantMsg: "La categoría es obligatoria"},
		{name: "no images", mutate: func(f *validation.WorkForm) { f.NewImages = 0 }, field: "imagenes", wantMsg: "Debes subir al menos una imagen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validWorkForm()
			tt.mutate(&form)
			errs := validation.Errors{}

			ok := validation.ValidateWorkForm(&form, errs, false, 0)

			assert.False(t, ok)
			assert.Equal(t, map[string]string{tt.field: tt.wantMsg}, errs.Failed())
		})
	}
}

func TestWorkValidator_BoundariesPass(t *testing.T) {
	form := validWorkForm()
	form.Year = "1800"
	form.Width = "1000"
	form.Height = "0.1"
	errs := validation.Errors{}

	assert.True(t, validation.ValidateWorkForm(&form, errs, false, 0))
	assert.True(t, errs.Valid())
}

func TestWorkValidator_ImagesWhenEditing(t *testing.T) {
	form := validWorkForm()
	form.NewImages = 0
	errs := validation.Errors{}

	assert.True(t, validation.ValidateWorkForm(&form, errs, true, 2), "existing images satisfy the rule")
	assert.False(t, validation.ValidateWorkForm(&form, errs, true, 0))
	assert.Equal(t, "Debes subir al menos una imagen", errs["imagenes"])
	assert.False(t, validation.ValidateWorkForm(&form, errs, false, 2), "existing images only count when editing")
}

func TestWorkValidator_RunsEveryField(t *testing.T) {
	form := validation.WorkForm{}
	errs := validation.Errors{}

	assert.False(t, validation.ValidateWorkForm(&form, errs, false, 0))
	assert.Len(t, errs.Failed(), 7)
}

func TestWorkValidator_ClearsFixedFields(t *testing.T) {
	form := validWorkForm()
	form.Title = ""
	errs := validation.Errors{}
	v := validation.NewWorkValidator(&form, errs, false)

	assert.False(t, v.ValidateTitle())
	form.Title = "Amanecer"
	assert.True(t, v.ValidateTitle())
	assert.Equal(t, "", errs["titulo"])

	errs["anio"] = "stale"
	v.ClearErrors()
	assert.True(t, errs.Valid())
}

func TestInspirationValidator(t *testing.T) {
	tests := []struct {
		name      string
		form      validation.InspirationForm
		isEditing bool
		want      bool
		wantErrs  map[string]string
	}{
		{
			name:     "new without image",
			form:     validation.InspirationForm{Colors: []string{"c1"}},
			want:     false,
			wantErrs: map[string]string{"imagen": "Debes subir una imagen"},
		},
		{
			name:      "editing with stored image",
			form:      validation.InspirationForm{ImageURL: "https://cdn/x.jpg", Colors: []string{"c1"}},
			isEditing: true,
			want:      true,
			wantErrs:  map[string]string{},
		},
		{
			name:     "stored image ignored when creating",
			form:     validation.InspirationForm{ImageURL: "https://cdn/x.jpg", Colors: []string{"c1"}},
			want:     false,
			wantErrs: map[string]string{"imagen": "Debes subir una imagen"},
		},
		{
			name:     "no colors",
			form:     validation.InspirationForm{HasImage: true},
			want:     false,
			wantErrs: map[string]string{"colores": "Debes seleccionar al menos un color"},
		},
		{
			name:     "both missing",
			form:     validation.InspirationForm{},
			want:     false,
			wantErrs: map[string]string{"imagen": "Debes subir una imagen", "colores": "Debes seleccionar al menos un color"},
		},
		{
			name:     "complete",
			form:     validation.InspirationForm{HasImage: true, Colors: []string{"c1", "c2"}},
			want:     true,
			wantErrs: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validation.Errors{}
			assert.Equal(t, tt.want, validation.ValidateInspirationForm(&tt.form, errs, tt.isEditing))
			assert.Equal(t, tt.wantErrs, errs.Failed())
		})
	}
}
