package favorites

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nutrimind/internal/recipe"
)

// failingBackend fails every call with err.
type failingBackend struct {
	err error
}

func (f *failingBackend) Load(ctx context.Context, key string) ([]byte, error) {
	return nil, f.err
}

func (f *failingBackend) Save(ctx context.Context, key string, data []byte) error {
	return f.err
}

// saveFailsBackend loads normally but refuses writes.
type saveFailsBackend struct {
	*MemoryBackend
}

func (s *saveFailsBackend) Save(ctx context.Context, key string, data []byte) error {
	return errors.New("disk full")
}

// flakyBackend fails the first failLoads calls to Load.
type flakyBackend struct {
	*MemoryBackend
	failLoads int
}

func (f *flakyBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if f.failLoads > 0 {
		f.failLoads--
		return nil, errors.New("i/o timeout")
	}
	return f.MemoryBackend.Load(ctx, key)
}

// gatedBackend blocks loads for one key until release is closed.
type gatedBackend struct {
	*MemoryBackend
	key     string
	release chan struct{}
}

func (g *gatedBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if key == g.key {
		<-g.release
	}
	return g.MemoryBackend.Load(ctx, key)
}

func seeded(t *testing.T, profile string, recipes ...recipe.Recipe) *MemoryBackend {
	t.Helper()
	backend := NewMemoryBackend()
	store := NewStore(backend, zap.NewNop())
	for _, r := range recipes {
		_, _, err := store.Toggle(context.Background(), profile, r)
		require.NoError(t, err)
	}
	return backend
}

func TestStore_HydrateAbsent(t *testing.T) {
	store := NewStore(NewMemoryBackend(), zap.NewNop())
	set := store.Hydrate(context.Background(), "p1")
	assert.Equal(t, 0, set.Len())
}

func TestStore_HydrateCorrupted(t *testing.T) {
	ctx := context.Background()
	for _, data := range []string{`{not json`, `{"id":"a"}`, `"hello"`} {
		backend := NewMemoryBackend()
		require.NoError(t, backend.Save(ctx, Key("p1"), []byte(data)))

		store := NewStore(backend, zap.NewNop())
		assert.Equal(t, 0, store.Hydrate(ctx, "p1").Len(), "data %q", data)
	}
}

func TestStore_HydrateBackendError(t *testing.T) {
	store := NewStore(&failingBackend{err: errors.New("connection refused")}, zap.NewNop())
	assert.Equal(t, 0, store.Favorites(context.Background(), "p1").Len())
}

func TestStore_TogglePersists(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := NewStore(backend, zap.NewNop())

	set, favorited, err := store.Toggle(ctx, "p1", sample("a", "Soup"))
	require.NoError(t, err)
	assert.True(t, favorited)
	assert.Equal(t, 1, set.Len())

	// A fresh store over the same backend sees the persisted favorite.
	reloaded := NewStore(backend, zap.NewNop()).Favorites(ctx, "p1")
	assert.True(t, reloaded.Contains("a"))

	set, favorited, err = store.Toggle(ctx, "p1", sample("a", "Soup"))
	require.NoError(t, err)
	assert.False(t, favorited)
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, 0, NewStore(backend, zap.NewNop()).Favorites(ctx, "p1").Len())
}

func TestStore_ProfilesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend(), zap.NewNop())

	_, _, err := store.Toggle(ctx, "p1", sample("a", "Soup"))
	require.NoError(t, err)

	assert.True(t, store.Favorites(ctx, "p1").Contains("a"))
	assert.False(t, store.Favorites(ctx, "p2").Contains("a"))
}

func TestStore_ToggleRequiresID(t *testing.T) {
	store := NewStore(NewMemoryBackend(), zap.NewNop())
	_, _, err := store.Toggle(context.Background(), "p1", recipe.Recipe{Name: "No id"})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestStore_ToggleSaveFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&saveFailsBackend{MemoryBackend: NewMemoryBackend()}, zap.NewNop())

	_, _, err := store.Toggle(ctx, "p1", sample("a", "Soup"))
	require.Error(t, err)
	assert.False(t, store.Favorites(ctx, "p1").Contains("a"))
}

func TestFileBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	data, err := backend.Load(ctx, Key("p1"))
	require.NoError(t, err)
	assert.Nil(t, data)

	store := NewStore(backend, zap.NewNop())
	_, _, err = store.Toggle(ctx, "p1", sample("a", "Soup"))
	require.NoError(t, err)
	_, _, err = store.Toggle(ctx, "p1", sample("b", "Bread"))
	require.NoError(t, err)

	set := NewStore(backend, zap.NewNop()).Hydrate(ctx, "p1")
	require.Equal(t, 2, set.Len())
	assert.Equal(t, "a", set.Recipes()[0].ID)
	assert.Equal(t, "b", set.Recipes()[1].ID)
}

func TestStore_FailedReadIsNotCachedOrOverwritten(t *testing.T) {
	ctx := context.Background()
	memory := seeded(t, "p1", sample("a", "Soup"), sample("b", "Bread"), sample("c", "Salad"))
	backend := &flakyBackend{MemoryBackend: memory, failLoads: 1}
	store := NewStore(backend, zap.NewNop())

	_, _, err := store.Toggle(ctx, "p1", sample("d", "Stew"))
	require.ErrorIs(t, err, ErrUnavailable)

	stored := NewStore(memory, zap.NewNop()).Favorites(ctx, "p1")
	assert.Equal(t, 3, stored.Len())

	set, favorited, err := store.Toggle(ctx, "p1", sample("d", "Stew"))
	require.NoError(t, err)
	assert.True(t, favorited)
	assert.Equal(t, 4, set.Len())
	assert.Equal(t, 4, NewStore(memory, zap.NewNop()).Favorites(ctx, "p1").Len())
}

func TestStore_FavoritesRetriesAfterFailedRead(t *testing.T) {
	ctx := context.Background()
	memory := seeded(t, "p1", sample("a", "Soup"))
	store := NewStore(&flakyBackend{MemoryBackend: memory, failLoads: 1}, zap.NewNop())

	assert.Equal(t, 0, store.Favorites(ctx, "p1").Len())
	assert.True(t, store.Favorites(ctx, "p1").Contains("a"))
}

func TestStore_SlowProfileDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	backend := &gatedBackend{MemoryBackend: NewMemoryBackend(), key: Key("slow"), release: make(chan struct{})}
	store := NewStore(backend, zap.NewNop())

	slowDone := make(chan struct{})
	go func() {
		store.Favorites(ctx, "slow")
		close(slowDone)
	}()

	fastDone := make(chan struct{})
	go func() {
		_, _, err := store.Toggle(ctx, "fast", sample("a", "Soup"))
		assert.NoError(t, err)
		close(fastDone)
	}()

	select {
	case <-fastDone:
	case <-time.After(2 * time.Second):
		t.Fatal("toggle for another profile waited on a slow load")
	}

	close(backend.release)
	<-slowDone
}
