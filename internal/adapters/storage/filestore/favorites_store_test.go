package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

var (
	quoteA = domain.Quote{
		Text:   "Well begun is half done.",
		Author: "Aristotle",
		Link:   "http://forismatic.com/en/a/",
	}
	quoteB = domain.Quote{
		Text:       "Simplicity is the ultimate sophistication.",
		Author:     "Leonardo da Vinci",
		SenderName: "anon",
		SenderLink: "http://example.com/anon",
		Link:       "http://forismatic.com/en/b/",
	}
)

func newStore(t *testing.T, dir string, pretty bool) *FavoritesStore {
	t.Helper()

	store, err := New(Config{
		Dir:    dir,
		Pretty: pretty,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	return store
}

func TestNew_Defaults(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir, false)

	assert.Equal(t, filepath.Join(dir, "savedFavourites"), store.Path())
	assert.Equal(t, "favorites-store", store.Name())
}

func TestNew_DefaultDirUnderUserConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	store, err := New(Config{})
	require.NoError(t, err)

	base, err := os.UserConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "quotebook", "savedFavourites"), store.Path())
}

func TestNew_RejectsPathInFileName(t *testing.T) {
	for _, name := range []string{"../escape", "sub/file", ".."} {
		_, err := New(Config{Dir: t.TempDir(), FileName: name})
		require.Error(t, err, name)
		assert.True(t, domain.IsValidation(err))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	store := newStore(t, t.TempDir(), false)

	favorites, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Zero(t, favorites.Len())

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, domain.OpLoad, perr.Op)
	assert.Equal(t, store.Path(), perr.Path)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		quotes []domain.Quote
	}{
		{"empty", nil},
		{"single", []domain.Quote{quoteA}},
		{"ordered", []domain.Quote{quoteB, quoteA}},
		{"duplicates kept", []domain.Quote{quoteA, quoteB, quoteA, quoteA}},
		{"empty fields", []domain.Quote{{Text: "only text"}}},
		{"unicode", []domain.Quote{{Text: "Ce qui ne me tue pas me rend plus fort, é", Author: "日本"}}},
	}

	for _, pretty := range []bool{false, true} {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				store := newStore(t, t.TempDir(), pretty)
				want := domain.NewFavorites(tt.quotes...)

				require.NoError(t, store.Save(context.Background(), want))

				got, err := store.Load(context.Background())
				require.NoError(t, err)

				if diff := cmp.Diff(want.All(), got.All()); diff != "" {
					t.Errorf("round trip mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestSave_EmptyWritesArray(t *testing.T) {
	store := newStore(t, t.TempDir(), true)

	require.NoError(t, store.Save(context.Background(), domain.Favorites{}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestSave_WireFormat(t *testing.T) {
	store := newStore(t, t.TempDir(), true)

	require.NoError(t, store.Save(context.Background(), domain.NewFavorites(quoteB)))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var raw []map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, map[string]string{
		"quoteText":   quoteB.Text,
		"quoteAuthor": quoteB.Author,
		"senderName":  quoteB.SenderName,
		"senderLink":  quoteB.SenderLink,
		"quoteLink":   quoteB.Link,
	}, raw[0])
	assert.Contains(t, string(data), "\n  ", "pretty output is indented")
}

func TestSave_CreatesDirectoryAndRestrictsMode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "quotebook")
	store := newStore(t, dir, false)

	require.NoError(t, store.Save(context.Background(), domain.NewFavorites(quoteA)))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o600), info.Mode().Perm())
}

func TestSave_RestartLoadsPreviousCollection(t *testing.T) {
	dir := t.TempDir()

	first := newStore(t, dir, true)
	require.NoError(t, first.Save(context.Background(), domain.NewFavorites(quoteA, quoteB)))

	restarted := newStore(t, dir, true)
	got, err := restarted.Load(context.Background())
	require.NoError(t, err)

	if diff := cmp.Diff([]domain.Quote{quoteA, quoteB}, got.All()); diff != "" {
		t.Errorf("restart mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_OverwritesWithLatest(t *testing.T) {
	store := newStore(t, t.TempDir(), false)

	require.NoError(t, store.Save(context.Background(), domain.NewFavorites(quoteA, quoteB)))
	require.NoError(t, store.Save(context.Background(), domain.NewFavorites(quoteB)))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Quote{quoteB}, got.All())
}

func TestSave_FailedRenameLeavesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir, false)
	require.NoError(t, store.Save(context.Background(), domain.NewFavorites(quoteA)))

	store.rename = func(string, string) error { return errors.New("disk on fire") }

	err := store.Save(context.Background(), domain.NewFavorites(quoteA, quoteB))
	require.Error(t, err)

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, domain.OpSave, perr.Op)
	assert.Contains(t, err.Error(), "disk on fire")

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Quote{quoteA}, got.All())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must be removed")
	assert.Equal(t, "savedFavourites", entries[0].Name())
}

func TestSave_DirIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store := newStore(t, blocker, false)

	err := store.Save(context.Background(), domain.NewFavorites(quoteA))
	require.Error(t, err)
	assert.True(t, domain.IsPersistence(err))

	assert.Error(t, store.Check(context.Background()))
}

func TestSave_CanceledContext(t *testing.T) {
	store := newStore(t, t.TempDir(), false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Save(ctx, domain.NewFavorites(quoteA))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, store.Path())
}

func TestLoad_CorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"not json", "favorites!", "decoding favorites"},
		{"truncated", `[{"quoteText":"a"`, "decoding favorites"},
		{"object instead of array", `{"quoteText":"a"}`, "decoding favorites"},
		{"null literal", `null`, "expected a JSON array"},
		{"trailing data", `[] []`, "trailing data"},
		{"trailing bracket", `[]]`, "trailing data"},
		{"missing key", `[{"quoteText":"a","quoteAuthor":"b","senderName":"","senderLink":""}]`, "[0].quoteLink"},
		{"wrong type", `[{"quoteText":1,"quoteAuthor":"b","senderName":"","senderLink":"","quoteLink":""}]`, "decoding favorites"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t, t.TempDir(), false)
			require.NoError(t, os.WriteFile(store.Path(), []byte(tt.content), 0o600))

			_, err := store.Load(context.Background())
			require.Error(t, err)
			assert.True(t, domain.IsPersistence(err))
			assert.False(t, domain.IsNotFound(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCheck_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")
	store := newStore(t, dir, false)

	require.NoError(t, store.Check(context.Background()))
	assert.DirExists(t, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch file must be removed")
}
