package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/spf13/afero"
)

// ErrNotFound is returned when a portrait or prompt file does not exist.
var ErrNotFound = errors.New("file not found")

// Store reads and writes portrait files under a single directory.
type Store struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
// A nil fs means the operating system filesystem.
func NewStore(fs afero.Fs, dir string, logger *slog.Logger) (*Store, error) {
	s, err := OpenStore(fs, dir, logger)
	if err != nil {
		return nil, err
	}
	if exists, _ := afero.DirExists(s.fs, dir); !exists {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// OpenStore creates a Store rooted at dir without touching the filesystem.
// It serves read-only commands; a missing directory reads as empty.
func OpenStore(fs afero.Fs, dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("output directory cannot be empty")
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, dir: dir, logger: logger.With("component", "storage")}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// ImagePath returns the path of the portrait for subject and style.
func (s *Store) ImagePath(subject string, style domain.Style) string {
	return filepath.Join(s.dir, domain.ImageFilename(subject, style))
}

// PromptPath returns the path of the prompt saved next to the portrait.
func (s *Store) PromptPath(subject string, style domain.Style) string {
	return filepath.Join(s.dir, domain.PromptFilename(subject, style))
}

// Exists reports whether the portrait for subject and style is on disk.
func (s *Store) Exists(subject string, style domain.Style) bool {
	ok, err := afero.Exists(s.fs, s.ImagePath(subject, style))
	if err != nil {
		s.logger.Warn("failed to stat portrait", "subject", subject, "style", style, "error", err)
		return false
	}
	return ok
}

// Status reports, for each style, whether its portrait exists.
func (s *Store) Status(subject string, styles []domain.Style) map[domain.Style]bool {
	status := make(map[domain.Style]bool, len(styles))
	for _, style := range styles {
		status[style] = s.Exists(subject, style)
	}
	return status
}

// SaveImage encodes img as PNG and writes it, replacing any previous file.
func (s *Store) SaveImage(subject string, style domain.Style, img image.Image) (string, error) {
	if img == nil {
		return "", errors.New("image cannot be nil")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode portrait: %w", err)
	}
	path := s.ImagePath(subject, style)
	if err := afero.WriteFile(s.fs, path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.logger.Info("saved portrait", "path", path, "bytes", buf.Len())
	return path, nil
}

// SavePrompt writes the prompt that produced a portrait.
func (s *Store) SavePrompt(subject string, style domain.Style, prompt string) (string, error) {
	path := s.PromptPath(subject, style)
	if err := afero.WriteFile(s.fs, path, []byte(prompt), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.logger.Debug("saved prompt", "path", path)
	return path, nil
}

// ReadImage returns the PNG bytes of a portrait.
func (s *Store) ReadImage(subject string, style domain.Style) ([]byte, error) {
	return s.read(s.ImagePath(subject, style))
}

// ReadPrompt returns the saved prompt of a portrait.
func (s *Store) ReadPrompt(subject string, style domain.Style) ([]byte, error) {
	return s.read(s.PromptPath(subject, style))
}

// LoadImage decodes a stored portrait.
func (s *Store) LoadImage(subject string, style domain.Style) (image.Image, error) {
	data, err := s.ReadImage(subject, style)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.ImagePath(subject, style), err)
	}
	return img, nil
}

// List returns the sorted names of every file stored for subject.
func (s *Store) List(subject string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.dir, err)
	}

	prefixes := make([]string, 0, len(domain.AllStyles()))
	for _, style := range domain.AllStyles() {
		prefixes = append(prefixes, domain.BaseFilename(subject, style))
	}

	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(entry.Name(), prefix) {
				files = append(files, entry.Name())
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// Writable reports whether new files can be created in the output directory.
// A directory that does not exist yet is probed through its nearest existing
// parent, since NewStore would create it there.
func (s *Store) Writable() bool {
	dir := filepath.Clean(s.dir)
	for {
		if ok, _ := afero.DirExists(s.fs, dir); ok {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}

	f, err := afero.TempFile(s.fs, dir, ".write-check-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	if err := s.fs.Remove(name); err != nil {
		s.logger.Warn("failed to remove write check file", "path", name, "error", err)
	}
	return true
}

func (s *Store) read(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
