package validation

import (
	"strconv"
	"strings"
)

// Errors maps a form field to its message. An empty message means the
// field is valid; validators clear their own entry on success.
type Errors map[string]string

// Valid reports whether no field carries a message.
func (e Errors) Valid() bool {
	for _, msg := range e {
		if msg != "" {
			return false
		}
	}
	return true
}

// Failed returns the fields that carry a message.
func (e Errors) Failed() map[string]string {
	out := make(map[string]string)
	for field, msg := range e {
		if msg != "" {
			out[field] = msg
		}
	}
	return out
}

func (e Errors) check(field string, ok bool, msg string) bool {
	if ok {
		e[field] = ""
	} else {
		e[field] = msg
	}
	return ok
}

// Form fields.
const (
	FieldTitle       = "titulo"
	FieldDescription = "descripcion"
	FieldYear        = "anio"
	FieldWidth       = "ancho"
	FieldHeight      = "alto"
	FieldCategory    = "categoria"
	FieldImages      = "imagenes"
	FieldImage       = "imagen"
	FieldColors      = "colores"
)

var forms = New()

// WorkForm is the raw state of the work editor. Numeric inputs arrive as
// text.
type WorkForm struct {
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	Year        string `json:"anio"`
	Width       string `json:"ancho"`
	Height      string `json:"alto"`
	Category    string `json:"categoria"`
	Featured    bool   `json:"destacado"`
	Slug        string `json:"slug"`
	NewImages   int    `json:"-"` // files attached to this submission
}

// WorkValidator validates a WorkForm field by field into errs.
type WorkValidator struct {
	form      *WorkForm
	errs      Errors
	isEditing bool
}

// NewWorkValidator binds a work form and its error map.
func NewWorkValidator(form *WorkForm, errs Errors, isEditing bool) *WorkValidator {
	return &WorkValidator{form: form, errs: errs, isEditing: isEditing}
}

// ValidateTitle requires a non-blank title.
func (w *WorkValidator) ValidateTitle() bool {
	return w.errs.check(FieldTitle, forms.Var(strings.TrimSpace(w.form.Title), "required"), "El título es obligatorio")
}

// ValidateDescription requires a non-blank description.
func (w *WorkValidator) ValidateDescription() bool {
	return w.errs.check(FieldDescription, forms.Var(strings.TrimSpace(w.form.Description), "required"), "La descripción es obligatoria")
}

// ValidateYear requires a year between 1800 and 2100.
func (w *WorkValidator) ValidateYear() bool {
	raw := strings.TrimSpace(w.form.Year)
	if raw == "" {
		return w.errs.check(FieldYear, false, "El año es obligatorio")
	}
	year, err := strconv.Atoi(raw)
	return w.errs.check(FieldYear, err == nil && forms.Var(year, "gte=1800,lte=2100"), "Ingrese un año válido entre 1800 y 2100")
}

// ValidateWidth requires a width in (0, 1000].
func (w *WorkValidator) ValidateWidth() bool {
	return w.dimension(FieldWidth, w.form.Width, "El ancho es obligatorio", "Ingrese un ancho válido entre 0 y 1000")
}

// ValidateHeight requires a height in (0, 1000].
func (w *WorkValidator) ValidateHeight() bool {
	return w.dimension(FieldHeight, w.form.Height, "El alto es obligatorio", "Ingrese un alto válido entre 0 y 1000")
}

func (w *WorkValidator) dimension(field, raw, missing, invalid string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return w.errs.check(field, false, missing)
	}
	n, err := strconv.ParseFloat(raw, 64)
	return w.errs.check(field, err == nil && forms.Var(n, "gt=0,lte=1000"), invalid)
}

// ValidateCategory requires a category.
func (w *WorkValidator) ValidateCategory() bool {
	return w.errs.check(FieldCategory, forms.Var(strings.TrimSpace(w.form.Category), "required"), "La categoría es obligatoria")
}

// ValidateImages requires at least one new image, unless editing a work
// that already has images.
func (w *WorkValidator) ValidateImages(existingImages int) bool {
	if w.isEditing && existingImages > 0 {
		return w.errs.check(FieldImages, true, "")
	}
	return w.errs.check(FieldImages, forms.Var(w.form.NewImages, "gte=1"), "Debes subir al menos una imagen")
}

// ValidateForm runs every field validator and reports whether all passed.
func (w *WorkValidator) ValidateForm(existingImages int) bool {
	results := []bool{
		w.ValidateTitle(),
		w.ValidateDescription(),
		w.ValidateYear(),
		w.ValidateWidth(),
		w.ValidateHeight(),
		w.ValidateCategory(),
		w.ValidateImages(existingImages),
	}
	return allTrue(results)
}

// ClearErrors resets every work field message.
func (w *WorkValidator) ClearErrors() {
	for _, f := range []string{FieldTitle, FieldDescription, FieldYear, FieldWidth, FieldHeight, FieldCategory, FieldImages} {
		w.errs[f] = ""
	}
}

// ValidateWorkForm validates a complete work form into errs.
func ValidateWorkForm(form *WorkForm, errs Errors, isEditing bool, existingImages int) bool {
	return NewWorkValidator(form, errs, isEditing).ValidateForm(existingImages)
}

// InspirationForm is the raw state of the inspiration editor.
type InspirationForm struct {
	HasImage bool     `json:"-"` // a new file is attached
	ImageURL string   `json:"imagen_url"`
	Colors   []string `json:"colores"`
}

// InspirationValidator validates an InspirationForm into errs.
type InspirationValidator struct {
	form      *InspirationForm
	errs      Errors
	isEditing bool
}

// NewInspirationValidator binds an inspiration form and its error map.
func NewInspirationValidator(form *InspirationForm, errs Errors, isEditing bool) *InspirationValidator {
	return &InspirationValidator{form: form, errs: errs, isEditing: isEditing}
}

// ValidateImage requires a new image, unless editing an inspiration that
// already has one.
func (v *InspirationValidator) ValidateImage() bool {
	if v.isEditing && v.form.ImageURL != "" {
		return v.errs.check(FieldImage, true, "")
	}
	return v.errs.check(FieldImage, v.form.HasImage, "Debes subir una imagen")
}

// ValidateColors requires at least one color.
func (v *InspirationValidator) ValidateColors() bool {
	return v.errs.check(FieldColors, forms.Var(v.form.Colors, "min=1"), "Debes seleccionar al menos un color")
}

// ValidateForm runs every field validator and reports whether all passed.
func (v *InspirationValidator) ValidateForm() bool {
	return allTrue([]bool{v.ValidateImage(), v.ValidateColors()})
}

// ClearErrors resets every inspiration field message.
func (v *InspirationValidator) ClearErrors() {
	v.errs[FieldImage] = ""
	v.errs[FieldColors] = ""
}

// ValidateInspirationForm validates a complete inspiration form into errs.
func ValidateInspirationForm(form *InspirationForm, errs Errors, isEditing bool) bool {
	return NewInspirationValidator(form, errs, isEditing).ValidateForm()
}

func allTrue(results []bool) bool {
	for _, ok := range results {
		if !ok {
			return false
		}
	}
	return true
}
