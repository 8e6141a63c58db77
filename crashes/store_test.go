package crashes

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jitsucom/crashnative/storages"
	"github.com/jitsucom/crashnative/timestamp"
	"github.com/stretchr/testify/require"
)

type failingStorage struct {
	*storages.InMemory
	panicOnWrite bool
}

func (fs *failingStorage) WriteFile(ctx context.Context, folder, name string, content io.Reader) error {
	if fs.panicOnWrite {
		panic("disk is gone")
	}
	return errors.New("no space left on device")
}

func testStore(storage storages.FileStorage) *Store {
	return NewStore(storage, "", SDKInfo{Name: "crashnative", Version: "1.0.0"}, func() Environment {
		return Environment{Package: "com.example.app", Version: "2.1", OS: "linux", Model: "test"}
	}, nil)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := testStore(storages.NewInMemory())

	record := store.RecordFromError(errors.New("boom"), Details{Description: "pressed the button", UserID: "u1", Contact: "a@b.c"})
	require.NoError(t, store.Save(ctx, record))

	names, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{FileName(record.ID)}, names)

	loaded, err := store.Load(ctx, names[0])
	require.NoError(t, err)
	require.Equal(t, record.Log, loaded.Log)
	require.Equal(t, "pressed the button", loaded.Description)
	require.Equal(t, "u1", loaded.UserID)
	require.Equal(t, "a@b.c", loaded.Contact)
	require.Equal(t, "crashnative", loaded.SDKName)
	require.Equal(t, "1.0.0", loaded.SDKVersion)
	require.True(t, strings.HasPrefix(loaded.Log, "Package: com.example.app\nVersion: 2.1\nOS: linux\nModel: test\n"))
	require.Contains(t, loaded.Log, "boom")
}

func TestListPendingIgnoresForeignFiles(t *testing.T) {
	ctx := context.Background()
	storage := storages.NewInMemory()
	store := testStore(storage)

	require.NoError(t, storage.WriteFile(ctx, DefaultFolder, "notes.txt", strings.NewReader("x")))
	require.NoError(t, store.Save(ctx, store.NewRecord("log", Details{})))

	names, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, names, 1)
	require.True(t, IsCrashFile(names[0]))
}

func TestSaveSafeNeverPanics(t *testing.T) {
	var handled []error
	for _, panicOnWrite := range []bool{false, true} {
		store := NewStore(&failingStorage{InMemory: storages.NewInMemory(), panicOnWrite: panicOnWrite}, "", SDKInfo{Name: "n", Version: "v"}, nil,
			func(err error) { handled = append(handled, err) })

		require.NotPanics(t, func() {
			require.False(t, store.SaveSafe(context.Background(), store.NewRecord("log", Details{})))
		})
	}
	require.Len(t, handled, 2)
}

func TestLoadCorruptRecord(t *testing.T) {
	ctx := context.Background()
	storage := storages.NewInMemory()
	store := testStore(storage)

	require.NoError(t, storage.WriteFile(ctx, DefaultFolder, FileName("broken"), strings.NewReader("{not json")))
	_, err := store.Load(ctx, FileName("broken"))
	require.True(t, errors.Is(err, ErrCorruptRecord))

	require.NoError(t, storage.WriteFile(ctx, DefaultFolder, FileName("empty"), strings.NewReader(`{"id":"empty"}`)))
	_, err = store.Load(ctx, FileName("empty"))
	require.True(t, errors.Is(err, ErrCorruptRecord))
}

func TestSweepTempRemovesStaleSaves(t *testing.T) {
	ctx := context.Background()
	storage := storages.NewInMemory()
	store := testStore(storage)

	require.NoError(t, storage.WriteFile(ctx, DefaultFolder, "stale.tmp", strings.NewReader("{")))
	require.NoError(t, storage.WriteFile(ctx, DefaultFolder, "fresh.tmp", strings.NewReader("{")))
	storage.Touch(DefaultFolder, "stale.tmp", timestamp.Now().Add(-time.Hour))

	store.SweepTemp(ctx)

	exists, err := storage.FileExists(ctx, DefaultFolder, "stale.tmp")
	require.NoError(t, err)
	require.False(t, exists)
	exists, err = storage.FileExists(ctx, DefaultFolder, "fresh.tmp")
	require.NoError(t, err)
	require.True(t, exists)
}
