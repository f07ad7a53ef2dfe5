package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galeriaarte/galeria-server/internal/domain"
	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/realtime"
	"github.com/galeriaarte/galeria-server/internal/store/storetest"
)

func colorNames(colors []domain.Color) []string {
	names := make([]string, len(colors))
	for i, c := range colors {
		names[i] = c.Name
	}
	return names
}

func palette() []domain.ColorRow {
	return []domain.ColorRow{
		{ID: uuid.New(), Name: "Rojo", Hex: "#ff0000", Position: 1},
		{ID: uuid.New(), Name: "Verde", Hex: "#00ff00", Position: 2},
		{ID: uuid.New(), Name: "Azul", Hex: "#0000ff", Position: 3},
	}
}

func TestColorStore_FetchAllSortsByPosition(t *testing.T) {
	s := NewColorStore(storetest.NewColorTable(palette()...), logger.Discard(), nil)

	colors, err := s.FetchAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Rojo", "Verde", "Azul"}, colorNames(colors))
	assert.Equal(t, "#FF0000", colors[0].Hex)
}

func TestColorStore_FetchByID(t *testing.T) {
	rows := palette()
	s := NewColorStore(storetest.NewColorTable(rows...), logger.Discard(), nil)
	ctx := context.Background()

	c, err := s.FetchByID(ctx, rows[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Verde", c.Name)
	assert.Zero(t, s.Len(), "list untouched")

	_, err = s.FetchByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.ErrorIs(t, s.Err(), domainerrors.ErrNotFound)
}

func TestColorStore_CreateDefaultsPosition(t *testing.T) {
	s := NewColorStore(storetest.NewColorTable(palette()...), logger.Discard(), nil)
	ctx := context.Background()
	_, err := s.FetchAll(ctx)
	require.NoError(t, err)

	pos := 0
	first, err := s.Create(ctx, domain.ColorFields{Name: "Negro", Hex: "#000000", Position: &pos})
	require.NoError(t, err)
	last, err := s.Create(ctx, domain.ColorFields{Name: "Blanco", Hex: "#ffffff"})
	require.NoError(t, err)

	assert.Equal(t, 0, first.Position)
	assert.Equal(t, domain.DefaultColorPosition, last.Position)
	assert.Equal(t, []string{"Negro", "Rojo", "Verde", "Azul", "Blanco"}, colorNames(s.Colors()))
}

func TestColorStore_UpdateResorts(t *testing.T) {
	rows := palette()
	s := NewColorStore(storetest.NewColorTable(rows...), logger.Discard(), nil)
	ctx := context.Background()
	_, err := s.FetchAll(ctx)
	require.NoError(t, err)

	pos := 10
	_, err = s.Update(ctx, rows[0].ID, domain.ColorFields{Name: "Rojo", Hex: "#ff0000", Position: &pos})
	require.NoError(t, err)

	assert.Equal(t, []string{"Verde", "Azul", "Rojo"}, colorNames(s.Colors()))
}

func TestColorStore_Delete(t *testing.T) {
	rows := palette()
	s := NewColorStore(storetest.NewColorTable(rows...), logger.Discard(), nil)
	ctx := context.Background()
	_, err := s.FetchAll(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, rows[1].ID))
	assert.Equal(t, []string{"Rojo", "Azul"}, colorNames(s.Colors()))

	err = s.Delete(ctx, rows[1].ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.ErrorIs(t, s.Err(), domainerrors.ErrNotFound)
}

func TestColorStore_InspirationColors(t *testing.T) {
	rows := palette()
	s := NewColorStore(storetest.NewColorTable(rows...), logger.Discard(), nil)
	ctx := context.Background()
	inspID := uuid.New()

	require.NoError(t, s.SaveInspirationColors(ctx, inspID, []uuid.UUID{rows[2].ID, rows[0].ID}))

	colors, err := s.ColorsForInspiration(ctx, inspID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rojo", "Azul"}, colorNames(colors), "ordered by position")
}

func TestColorStore_RealtimeInsertKeepsPositionOrder(t *testing.T) {
	s := NewColorStore(storetest.NewColorTable(palette()...), logger.Discard(), nil)
	hub := realtime.NewHub(logger.Discard())
	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	defer s.Subscribe(hub)()

	hub.Publish(storetest.Change(t, TableColors, realtime.Insert,
		domain.ColorRow{ID: uuid.New(), Name: "Amarillo", Hex: "#ffff00", Position: 2}, nil))
	hub.Publish(storetest.Change(t, TableColors, realtime.Insert,
		domain.ColorRow{ID: uuid.New(), Name: "Negro", Hex: "#000000", Position: 0}, nil))

	assert.Equal(t, []string{"Negro", "Rojo", "Amarillo", "Verde", "Azul"}, colorNames(s.Colors()))
}

func TestColorStore_RealtimeUpdateAndDelete(t *testing.T) {
	rows := palette()
	s := NewColorStore(storetest.NewColorTable(rows...), logger.Discard(), nil)
	hub := realtime.NewHub(logger.Discard())
	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	defer s.Subscribe(hub)()

	moved := rows[2]
	moved.Position = 0
	hub.Publish(storetest.Change(t, TableColors, realtime.Update, moved, rows[2]))
	assert.Equal(t, []string{"Azul", "Rojo", "Verde"}, colorNames(s.Colors()))

	hub.Publish(storetest.Change(t, TableColors, realtime.Delete, nil, rows[0]))
	assert.Equal(t, []string{"Azul", "Verde"}, colorNames(s.Colors()))

	// Changes on other tables are not delivered.
	hub.Publish(storetest.Change(t, TableCategories, realtime.Delete, nil, rows[1]))
	assert.Len(t, s.Colors(), 2)
}
