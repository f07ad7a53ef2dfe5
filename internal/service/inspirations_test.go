package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galeriaarte/galeria-server/internal/domain"
	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/media/images"
	"github.com/galeriaarte/galeria-server/internal/store"
	"github.com/galeriaarte/galeria-server/internal/store/storetest"
)

type inspirationFixture struct {
	svc          *InspirationService
	inspirations *store.InspirationStore
	table        *storetest.InspirationTable
	pipeline     *fakePipeline
	red, blue    domain.ColorRow
}

func newInspirationFixture(t *testing.T) *inspirationFixture {
	t.Helper()
	f := &inspirationFixture{
		table:    storetest.NewInspirationTable(),
		pipeline: &fakePipeline{fail: map[string]bool{}},
		red:      domain.ColorRow{ID: uuid.New(), Name: "Rojo", Hex: "#ff0000", Position: 2},
		blue:     domain.ColorRow{ID: uuid.New(), Name: "Azul", Hex: "#0000ff", Position: 1},
	}
	colorTable := storetest.NewColorTable(f.red, f.blue)
	colorTable.LinkTo(f.table)

	f.inspirations = store.NewInspirationStore(f.table, f.pipeline, logger.Discard(), nil)
	colors := store.NewColorStore(colorTable, logger.Discard(), nil)
	f.svc = NewInspirationService(f.inspirations, colors, f.pipeline, logger.Discard())
	return f
}

func image(name string) *images.File {
	return &images.File{Name: name, ContentType: "image/png", Data: []byte(name)}
}

func TestInspirationService_Create(t *testing.T) {
	f := newInspirationFixture(t)

	res, err := f.svc.Create(context.Background(), InspirationInput{
		Colors: []string{f.red.ID.String(), f.blue.ID.String()},
		File:   image("mar.png"),
	})
	require.NoError(t, err)

	assert.Empty(t, res.Warnings)
	assert.Equal(t, "https://cdn.test/inspiraciones-imagenes/inspiracion-"+res.Value.ID.String()+"-1.jpg", res.Value.ImageURL)
	assert.Equal(t, []uuid.UUID{f.blue.ID, f.red.ID}, res.Value.ColorIDs(), "ordered by position")

	held, ok := f.inspirations.Get(res.Value.ID)
	require.True(t, ok)
	assert.Equal(t, res.Value, held)
}

func TestInspirationService_CreateValidation(t *testing.T) {
	tests := []struct {
		name string
		in   InspirationInput
		want map[string]string
	}{
		{
			name: "nothing submitted",
			want: map[string]string{"imagen": "Debes subir una imagen", "colores": "Debes seleccionar al menos un color"},
		},
		{
			name: "no colors",
			in:   InspirationInput{File: image("mar.png")},
			want: map[string]string{"colores": "Debes seleccionar al menos un color"},
		},
		{
			name: "unknown color id format",
			in:   InspirationInput{File: image("mar.png"), Colors: []string{"rojo"}},
			want: map[string]string{"colores": "Identificador no válido: rojo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInspirationFixture(t)

			_, err := f.svc.Create(context.Background(), tt.in)

			var derr *domainerrors.Error
			require.True(t, domainerrors.As(err, &derr))
			assert.Equal(t, tt.want, derr.Details)
			assert.Zero(t, f.inspirations.Len())
		})
	}
}

func TestInspirationService_CreateUploadFailureWarns(t *testing.T) {
	f := newInspirationFixture(t)
	f.pipeline.fail["mar.png"] = true

	res, err := f.svc.Create(context.Background(), InspirationInput{Colors: []string{f.blue.ID.String()}, File: image("mar.png")})
	require.NoError(t, err)

	assert.Equal(t, []string{"Error al subir la imagen: unsupported image"}, res.Warnings)
	assert.Empty(t, res.Value.ImageURL)
	assert.Equal(t, []uuid.UUID{f.blue.ID}, res.Value.ColorIDs())
}

func TestInspirationService_UpdateReplacesImage(t *testing.T) {
	f := newInspirationFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, InspirationInput{Colors: []string{f.red.ID.String()}, File: image("mar.png")})
	require.NoError(t, err)
	oldURL := created.Value.ImageURL

	res, err := f.svc.Update(ctx, created.Value.ID, InspirationInput{
		Colors: []string{f.blue.ID.String()},
		File:   image("bosque.png"),
	})
	require.NoError(t, err)

	assert.NotEqual(t, oldURL, res.Value.ImageURL)
	assert.Equal(t, []uuid.UUID{f.blue.ID}, res.Value.ColorIDs())
	assert.Equal(t, []string{"inspiraciones-imagenes/" + oldURL}, f.pipeline.deletions())
}

func TestInspirationService_UpdateKeepsImage(t *testing.T) {
	f := newInspirationFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, InspirationInput{Colors: []string{f.red.ID.String()}, File: image("mar.png")})
	require.NoError(t, err)

	res, err := f.svc.Update(ctx, created.Value.ID, InspirationInput{Colors: []string{f.red.ID.String(), f.blue.ID.String()}})
	require.NoError(t, err)

	assert.Equal(t, created.Value.ImageURL, res.Value.ImageURL)
	assert.Len(t, res.Value.Colors, 2)
	assert.Empty(t, f.pipeline.deletions())
}

func TestInspirationService_RemoveImage(t *testing.T) {
	f := newInspirationFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, InspirationInput{Colors: []string{f.red.ID.String()}, File: image("mar.png")})
	require.NoError(t, err)

	insp, err := f.svc.RemoveImage(ctx, created.Value.ID)
	require.NoError(t, err)

	assert.Empty(t, insp.ImageURL)
	row, ok := f.table.Row(created.Value.ID)
	require.True(t, ok)
	assert.Nil(t, row.ImageURL)
	assert.Equal(t, []string{"inspiraciones-imagenes/" + created.Value.ImageURL}, f.pipeline.deletions())

	// Removing again is a no-op.
	_, err = f.svc.RemoveImage(ctx, created.Value.ID)
	require.NoError(t, err)
	assert.Len(t, f.pipeline.deletions(), 1)
}

func TestInspirationService_ColorsAndDelete(t *testing.T) {
	f := newInspirationFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, InspirationInput{Colors: []string{f.red.ID.String(), f.blue.ID.String()}, File: image("mar.png")})
	require.NoError(t, err)

	colors, err := f.svc.Colors(ctx, created.Value.ID)
	require.NoError(t, err)
	require.Len(t, colors, 2)
	assert.Equal(t, "Azul", colors[0].Name, "ordered by position")

	require.NoError(t, f.svc.Delete(ctx, created.Value.ID))
	_, ok := f.inspirations.Get(created.Value.ID)
	assert.False(t, ok)
	assert.Empty(t, f.table.ColorsOf(created.Value.ID))
	assert.Len(t, f.pipeline.deletions(), 1)
}
