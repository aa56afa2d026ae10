// Package filestore persists the favorites collection as a single JSON file.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

const (
	// DefaultFileName is the name of the favorites file.
	DefaultFileName = "savedFavourites"

	// appDirName is the per-user directory created under os.UserConfigDir.
	appDirName = "quotebook"

	filePerm = 0o600
	dirPerm  = 0o700
)

// Config configures a FavoritesStore.
type Config struct {
	// Dir holds the favorites file. Empty means DefaultDir().
	Dir string

	// FileName defaults to DefaultFileName.
	FileName string

	// Pretty writes indented JSON.
	Pretty bool

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// FavoritesStore implements ports.FavoritesRepository on the local filesystem.
// Saves replace the file atomically, so Load observes either the previous
// or the new collection and never a partial write.
type FavoritesStore struct {
	dir    string
	path   string
	pretty bool
	logger *slog.Logger

	// mu serializes saves so two renames cannot interleave.
	mu sync.Mutex

	// rename is os.Rename outside of tests.
	rename func(oldpath, newpath string) error
}

// DefaultDir returns the per-user application data directory for favorites.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}

	return filepath.Join(base, appDirName), nil
}

// New creates a store. The directory is not touched until the first Save
// or Check.
func New(cfg Config) (*FavoritesStore, error) {
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}

	name := cfg.FileName
	if name == "" {
		name = DefaultFileName
	}

	if name != filepath.Base(name) || name == "." || name == ".." {
		return nil, domain.NewValidationErrorWithValue("file_name", "must be a bare file name", name)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FavoritesStore{
		dir:    dir,
		path:   filepath.Join(dir, name),
		pretty: cfg.Pretty,
		logger: logger.With(slog.String("component", "filestore.FavoritesStore")),
		rename: os.Rename,
	}, nil
}

// Path returns the resolved favorites file path.
func (s *FavoritesStore) Path() string {
	return s.path
}

// quoteRecord is the on-disk shape of one favorite. It uses the same keys as
// the quote endpoint so a saved file reads like the responses it came from.
type quoteRecord struct {
	QuoteText   *string `json:"quoteText"`
	QuoteAuthor *string `json:"quoteAuthor"`
	SenderName  *string `json:"senderName"`
	SenderLink  *string `json:"senderLink"`
	QuoteLink   *string `json:"quoteLink"`
}

func toRecord(q domain.Quote) quoteRecord {
	return quoteRecord{
		QuoteText:   &q.Text,
		QuoteAuthor: &q.Author,
		SenderName:  &q.SenderName,
		SenderLink:  &q.SenderLink,
		QuoteLink:   &q.Link,
	}
}

func (r quoteRecord) toDomain(index int) (domain.Quote, error) {
	fields := []struct {
		key   string
		value *string
	}{
		{"quoteText", r.QuoteText},
		{"quoteAuthor", r.QuoteAuthor},
		{"senderName", r.SenderName},
		{"senderLink", r.SenderLink},
		{"quoteLink", r.QuoteLink},
	}

	for _, f := range fields {
		if f.value == nil {
			return domain.Quote{}, domain.NewValidationError(
				fmt.Sprintf("[%d].%s", index, f.key), "missing from favorites file")
		}
	}

	return domain.Quote{
		Text:       *r.QuoteText,
		Author:     *r.QuoteAuthor,
		SenderName: *r.SenderName,
		SenderLink: *r.SenderLink,
		Link:       *r.QuoteLink,
	}, nil
}

// Load reads the whole favorites file. A missing file is reported as a
// *domain.PersistenceError that also matches domain.ErrNotFound and
// fs.ErrNotExist.
// Implements ports.FavoritesRepository.
func (s *FavoritesStore) Load(ctx context.Context) (domain.Favorites, error) {
	if err := ctx.Err(); err != nil {
		return domain.Favorites{}, domain.NewPersistenceError(domain.OpLoad, s.path, err)
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Favorites{}, domain.NewPersistenceError(domain.OpLoad, s.path,
			fmt.Errorf("%w: %w", domain.ErrNotFound, err))
	}
	if err != nil {
		return domain.Favorites{}, domain.NewPersistenceError(domain.OpLoad, s.path, err)
	}

	favorites, err := decode(data)
	if err != nil {
		return domain.Favorites{}, domain.NewPersistenceError(domain.OpLoad, s.path, err)
	}

	s.logger.DebugContext(ctx, "favorites loaded",
		slog.String("path", s.path),
		slog.Int("count", favorites.Len()))

	return favorites, nil
}

func decode(data []byte) (domain.Favorites, error) {
	var records []quoteRecord

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&records); err != nil {
		return domain.Favorites{}, fmt.Errorf("decoding favorites: %w", err)
	}

	if records == nil {
		return domain.Favorites{}, errors.New("decoding favorites: expected a JSON array")
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.Favorites{}, errors.New("decoding favorites: trailing data after array")
	}

	quotes := make([]domain.Quote, 0, len(records))
	for i, r := range records {
		q, err := r.toDomain(i)
		if err != nil {
			return domain.Favorites{}, err
		}
		quotes = append(quotes, q)
	}

	return domain.NewFavorites(quotes...), nil
}

func (s *FavoritesStore) encode(favorites domain.Favorites) ([]byte, error) {
	quotes := favorites.All()
	records := make([]quoteRecord, 0, len(quotes))
	for _, q := range quotes {
		records = append(records, toRecord(q))
	}

	if s.pretty {
		return json.MarshalIndent(records, "", "  ")
	}

	return json.Marshal(records)
}

// Save writes the entire collection, replacing the previous file atomically.
// On failure the previous file is left untouched and the temp file removed.
// Implements ports.FavoritesRepository.
func (s *FavoritesStore) Save(ctx context.Context, favorites domain.Favorites) error {
	if err := ctx.Err(); err != nil {
		return domain.NewPersistenceError(domain.OpSave, s.path, err)
	}

	data, err := s.encode(favorites)
	if err != nil {
		return domain.NewPersistenceError(domain.OpSave, s.path, fmt.Errorf("encoding favorites: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeAtomic(data); err != nil {
		return domain.NewPersistenceError(domain.OpSave, s.path, err)
	}

	s.logger.DebugContext(ctx, "favorites saved",
		slog.String("path", s.path),
		slog.Int("count", favorites.Len()),
		slog.Int("bytes", len(data)))

	return nil
}

func (s *FavoritesStore) writeAtomic(data []byte) error {
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("create favorites dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Clean up on failure; after a successful rename tmpPath no longer exists.
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, filePerm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := s.rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename favorites file: %w", err)
	}

	return nil
}

// Name returns the health check name.
// Implements ports.HealthChecker.
func (s *FavoritesStore) Name() string {
	return "favorites-store"
}

// Check verifies the favorites directory exists or can be created, and
// accepts new files.
// Implements ports.HealthChecker.
func (s *FavoritesStore) Check(_ context.Context) error {
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return domain.NewUnavailableError(s.Name(), err.Error())
	}

	tmp, err := os.CreateTemp(s.dir, ".writable-*")
	if err != nil {
		return domain.NewUnavailableError(s.Name(), fmt.Sprintf("directory not writable: %v", err))
	}

	name := tmp.Name()
	_ = tmp.Close()

	if err := os.Remove(name); err != nil {
		return domain.NewUnavailableError(s.Name(), err.Error())
	}

	return nil
}
