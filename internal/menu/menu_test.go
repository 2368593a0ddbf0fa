package menu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfood/internal/files"
)

func TestWeek_AddSlotAndSummary(t *testing.T) {
	t.Parallel()

	w := Week{{Recipe: "Soup", Note: "monday lunch"}}
	w2 := w.AddSlot()
	assert.Len(t, w, 1)
	require.Len(t, w2, 2)
	assert.False(t, w2[1].Assigned())
	assert.Equal(t, []string{"Soup : monday lunch"}, w2.Summary())
}

func TestExtras_AddRemove(t *testing.T) {
	t.Parallel()

	x, ok := Extras{}.Add("  shampoo ")
	require.True(t, ok)
	assert.Equal(t, Extras{"shampoo"}, x)

	_, ok = x.Add("   ")
	assert.False(t, ok)

	x, _ = x.Add("soap")
	x, ok = x.Remove(0)
	require.True(t, ok)
	assert.Equal(t, Extras{"soap"}, x)

	_, ok = x.Remove(5)
	assert.False(t, ok)
	_, ok = x.Remove(-1)
	assert.False(t, ok)
}

func TestFileStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewFileStore(files.NewMemoryStore(), "folder")

	week, err := store.LoadWeek(ctx)
	require.NoError(t, err)
	assert.Empty(t, week)

	extras, err := store.LoadExtras(ctx)
	require.NoError(t, err)
	assert.Empty(t, extras)

	require.NoError(t, store.SaveWeek(ctx, Week{{Recipe: "Gratin dauphinois", Note: "dîner"}, {}}))
	require.NoError(t, store.SaveExtras(ctx, Extras{"lessive"}))

	week, err = store.LoadWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, Week{{Recipe: "Gratin dauphinois", Note: "dîner"}, {}}, week)

	extras, err = store.LoadExtras(ctx)
	require.NoError(t, err)
	assert.Equal(t, Extras{"lessive"}, extras)
}
