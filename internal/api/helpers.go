package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
	"github.com/galeriaarte/galeria-server/internal/media/images"
)

// parseID parses a UUID, reporting failures against field.
func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, domainerrors.ValidationWithDetails("Datos inválidos", map[string]string{
			field: "Debe ser un identificador válido",
		})
	}
	return id, nil
}

// parseForm reads a multipart body of at most maxBytes.
func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return domainerrors.Validationf("formulario inválido: %v", err)
	}
	return nil
}

// formFiles reads every file sent under field, sniffing its content type.
func formFiles(r *http.Request, field string) ([]images.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	files := make([]images.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// formFile reads the first file sent under field, or nil.
func formFile(r *http.Request, field string) (*images.File, error) {
	files, err := formFiles(r, field)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return &files[0], nil
}

func readFile(fh *multipart.FileHeader) (images.File, error) {
	src, err := fh.Open()
	if err != nil {
		return images.File{}, domainerrors.Validationf("no se pudo leer %s: %v", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return images.File{}, domainerrors.Validationf("no se pudo leer %s: %v", fh.Filename, err)
	}
	return images.NewFile(fh.Filename, data), nil
}

// formValues returns the values of field. A single value holding a comma
// separated list is split.
func formValues(r *http.Request, field string) []string {
	var out []string
	for _, v := range r.MultipartForm.Value[field] {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// formInt parses an optional integer field, returning def when absent.
func formInt(r *http.Request, field string, def int) (int, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domainerrors.ValidationWithDetails("Datos inválidos", map[string]string{
			field: fmt.Sprintf("Debe ser un número entero: %q", raw),
		})
	}
	return n, nil
}

// formBool reports whether a checkbox-style field is set.
func formBool(r *http.Request, field string) bool {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(field))) {
	case "1", "true", "on", "si", "sí":
		return true
	default:
		return false
	}
}
