package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galeriaarte/galeria-server/internal/api/dto"
	"github.com/galeriaarte/galeria-server/internal/domain"
)

func TestListCategories(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/categories", ts.auth())

	require.Equal(t, http.StatusOK, resp.Code)
	list := decodeData[dto.ListResponse[domain.Category]](t, resp.Body.Bytes())
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Óleo", list.Items[0].Name)
	assert.Equal(t, "oleo", list.Items[0].Slug)

	ts.api.Get("/api/v1/categories", ts.auth())
	assert.Equal(t, 1, ts.categories.Reads(), "served from the store once loaded")
}

func TestColors(t *testing.T) {
	ts := setupTestServer(t)

	t.Run("list by position", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/colors", ts.auth())

		require.Equal(t, http.StatusOK, resp.Code)
		list := decodeData[dto.ListResponse[domain.Color]](t, resp.Body.Bytes())
		require.Len(t, list.Items, 2)
		assert.Equal(t, []string{"Azul", "Rojo"}, []string{list.Items[0].Name, list.Items[1].Name})
	})

	t.Run("create", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/colors", ts.auth(), map[string]any{"nombre": "Ocre", "codigo_hex": "#cc7722", "posicion": 0})

		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		c := decodeData[domain.Color](t, resp.Body.Bytes())
		assert.Equal(t, "#CC7722", c.Hex)

		list := decodeData[dto.ListResponse[domain.Color]](t, ts.api.Get("/api/v1/colors", ts.auth()).Body.Bytes())
		assert.Equal(t, "Ocre", list.Items[0].Name)
	})

	t.Run("create rejects invalid hex", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/colors", ts.auth(), map[string]any{"nombre": "Raro", "codigo_hex": "azul"})

		require.Equal(t, http.StatusBadRequest, resp.Code)
		env := decode(t, resp.Body.Bytes())
		assert.Equal(t, "VALIDATION", env.Code)
		assert.Equal(t, "Debe ser un color hexadecimal válido", env.Details["codigo_hex"])
	})

	t.Run("get", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/colors/"+ts.red.ID.String(), ts.auth())

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, "Rojo", decodeData[domain.Color](t, resp.Body.Bytes()).Name)

		resp = ts.api.Get("/api/v1/colors/"+uuid.NewString(), ts.auth())
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("update", func(t *testing.T) {
		resp := ts.api.Put("/api/v1/colors/"+ts.red.ID.String(), ts.auth(), map[string]any{"nombre": "Carmín", "codigo_hex": "#960018"})

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, "Carmín", decodeData[domain.Color](t, resp.Body.Bytes()).Name)
	})

	t.Run("delete", func(t *testing.T) {
		resp := ts.api.Delete("/api/v1/colors/"+ts.blue.ID.String(), ts.auth())
		assert.Equal(t, http.StatusNoContent, resp.Code)

		resp = ts.api.Delete("/api/v1/colors/"+uuid.NewString(), ts.auth())
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
