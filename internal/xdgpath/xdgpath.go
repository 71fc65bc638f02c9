// Package xdgpath resolves and bootstraps docbert's data directory.
//
// Resolution order (spec.md §6): $DOCBERT_DATA_DIR if set, else the
// platform's XDG data home with subdirectory "docbert". The directory
// and its three store paths are created on demand; absence is never a
// failure, only an occasion to create.
package xdgpath

import (
	"os"
	"path/filepath"
	"runtime"

	docerrors "github.com/docbert/docbert/internal/errors"
)

const appDirName = "docbert"

// ConfigDBName, EmbeddingsDBName, TextIndexDirName are the fixed
// on-disk artifact names inside the data directory (spec.md §6).
const (
	ConfigDBName     = "config.db"
	EmbeddingsDBName = "embeddings.db"
	TextIndexDirName = "tantivy"
)

// Resolve returns the docbert data directory without creating it.
func Resolve() (string, error) {
	if dir := os.Getenv("DOCBERT_DATA_DIR"); dir != "" {
		return dir, nil
	}

	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appDirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", docerrors.New(docerrors.ErrCodeDataDirResolve,
			"cannot resolve home directory", err)
	}

	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appDirName), nil
		}
		return filepath.Join(home, "AppData", "Local", appDirName), nil
	}

	return filepath.Join(home, ".local", "share", appDirName), nil
}

// Paths holds the data directory and the paths to all three on-disk
// stores inside it.
type Paths struct {
	DataDir      string
	ConfigDB     string
	EmbeddingsDB string
	TextIndexDir string
}

// Bootstrap resolves the data directory, creates it (and nothing
// inside it — the individual stores create their own files) if
// missing, and returns the derived store paths.
func Bootstrap() (Paths, error) {
	dir, err := Resolve()
	if err != nil {
		return Paths{}, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, docerrors.New(docerrors.ErrCodeDataDirCreate,
			"cannot create data directory", err).WithDetail("path", dir)
	}

	return Paths{
		DataDir:      dir,
		ConfigDB:     filepath.Join(dir, ConfigDBName),
		EmbeddingsDB: filepath.Join(dir, EmbeddingsDBName),
		TextIndexDir: filepath.Join(dir, TextIndexDirName),
	}, nil
}
