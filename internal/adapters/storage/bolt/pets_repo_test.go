package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pet-profile-service/internal/domain/pets"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*PetsRepo, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pets.db")
	r, err := Open(path)
	require.NoError(t, err)
	return r, path
}

func TestPetsRepoCRUD(t *testing.T) {
	r, _ := openTemp(t)
	defer r.Close()
	ctx := context.Background()

	age := 3
	p := pets.Pet{ID: "p1", OwnerID: "u1", Name: "Rex", Species: "dog", Breed: "lab", Age: &age, CreatedAt: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, r.Create(ctx, p))
	require.Error(t, r.Create(ctx, p), "duplicate id")
	require.NoError(t, r.Create(ctx, pets.Pet{ID: "p2", OwnerID: "u2", Name: "Tom", Species: "cat"}))
	require.NoError(t, r.Ping(ctx))

	got, err := r.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, p, got)

	_, err = r.GetByID(ctx, "user")
	require.ErrorIs(t, err, pets.ErrNotFound)

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	none, err := r.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)

	five := 5
	updated, err := r.Update(ctx, "p1", pets.Patch{Age: pets.OptionalInt{Present: true, Value: &five}})
	require.NoError(t, err)
	require.Equal(t, 5, *updated.Age)
	require.Equal(t, "Rex", updated.Name)
	require.Equal(t, p.CreatedAt, updated.CreatedAt)

	_, err = r.Update(ctx, "missing", pets.Patch{})
	require.ErrorIs(t, err, pets.ErrNotFound)

	require.NoError(t, r.Delete(ctx, "p1"))
	require.NoError(t, r.Delete(ctx, "p1"))
	_, err = r.GetByID(ctx, "p1")
	require.ErrorIs(t, err, pets.ErrNotFound)
}

func TestPetsRepo_PersistsAcrossReopen(t *testing.T) {
	r, path := openTemp(t)
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, pets.Pet{ID: "p1", OwnerID: "u1", Name: "Rex", Species: "dog"}))
	require.NoError(t, r.Close())

	r2, err := Open(path)
	require.NoError(t, err)
	defer r2.Close()

	got, err := r2.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Rex", got.Name)
}
