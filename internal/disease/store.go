package disease

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vetcare-data/outbreak.report/internal/fsutil"
	"github.com/vetcare-data/outbreak.report/internal/security"
)

// ErrNoSavedModel reports that the store holds no bundle for the
// requested model name.
var ErrNoSavedModel = errors.New("no saved model found")

// Store persists trained bundles as JSON files named
// <model>_<YYYYMMDD-HHMMSS>.json. "Latest" is the lexicographic
// maximum over that pattern, which orders by creation time.
type Store struct {
	dir string
	fs  fsutil.FileSystem
}

// NewStore creates a Store rooted at dir on the OS filesystem,
// creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithFS(dir, fsutil.OSFileSystem{})
}

// NewStoreWithFS creates a Store over an explicit filesystem. Tests
// use the in-memory filesystem.
func NewStoreWithFS(dir string, fs fsutil.FileSystem) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating model directory: %w", err)
	}
	return &Store{dir: dir, fs: fs}, nil
}

// Save writes the bundle under a timestamped filename and returns the
// path written.
func (s *Store) Save(b *Bundle, now time.Time) (string, error) {
	if b == nil {
		return "", fmt.Errorf("no bundle to save")
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding bundle: %w", err)
	}
	name := fmt.Sprintf("%s_%s.json", security.SanitizeFilename(b.ModelName), now.Format("20060102-150405"))
	path := filepath.Join(s.dir, name)
	if err := s.fs.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing bundle: %w", err)
	}
	return path, nil
}

// Load reads one bundle file. The path is caller-supplied and must
// resolve inside the store directory.
func (s *Store) Load(path string) (*Bundle, error) {
	if err := security.ValidatePathWithinDirectory(path, s.dir); err != nil {
		return nil, fmt.Errorf("model path rejected: %w", err)
	}
	return s.readBundle(path)
}

func (s *Store) readBundle(path string) (*Bundle, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decoding bundle %s: %w", path, err)
	}
	return &b, nil
}

// LoadLatest resolves and loads the most recent bundle for the model
// name, returning ErrNoSavedModel when none exists.
func (s *Store) LoadLatest(name string) (*Bundle, string, error) {
	entries, err := s.fs.ListDir(s.dir)
	if err != nil {
		return nil, "", fmt.Errorf("listing model directory: %w", err)
	}
	var candidates []string
	for _, e := range entries {
		if strings.HasPrefix(e, name+"_") && strings.HasSuffix(e, ".json") {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil, "", fmt.Errorf("%w for %q", ErrNoSavedModel, name)
	}
	sort.Strings(candidates)
	// Candidates are base names listed from s.dir, so the joined path
	// cannot name a file outside the store directory.
	latest := filepath.Join(s.dir, candidates[len(candidates)-1])
	b, err := s.readBundle(latest)
	if err != nil {
		return nil, "", err
	}
	return b, latest, nil
}
