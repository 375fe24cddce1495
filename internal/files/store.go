package files

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store writes uploaded files under BaseDir and hands back the public
// URL they are served from. Names are random so customers cannot guess
// each other's receipts.
type Store struct {
	BaseDir string
	BaseURL string
}

func NewStore(baseDir, baseURL string) *Store {
	return &Store{BaseDir: baseDir, BaseURL: baseURL}
}

func (s *Store) Save(folder string, data []byte, ext string) (string, error) {
	dir := filepath.Join(s.BaseDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("files: create dir %s: %w", dir, err)
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("files: write %s: %w", name, err)
	}

	return s.BaseURL + "/" + folder + "/" + name, nil
}
