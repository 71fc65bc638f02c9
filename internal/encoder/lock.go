package encoder

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	docerrors "github.com/docbert/docbert/internal/errors"
)

// downloadLock is a cross-process exclusive lock guarding model
// materialization, adapted directly from the teacher's
// internal/embed/lock.go FileLock: the lock file lives at
// <dir>/.download.lock so two docbert processes racing to load the
// same model serialize instead of corrupting a half-written model dir.
type downloadLock struct {
	path  string
	flock *flock.Flock
}

func newDownloadLock(dir string) *downloadLock {
	path := filepath.Join(dir, ".download.lock")
	return &downloadLock{path: path, flock: flock.New(path)}
}

func (l *downloadLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return docerrors.New(docerrors.ErrCodeEncoderLoad, "cannot create download lock directory", err)
	}
	if err := l.flock.Lock(); err != nil {
		return docerrors.New(docerrors.ErrCodeEncoderLoad, "cannot acquire model download lock", err)
	}
	return nil
}

func (l *downloadLock) Unlock() error {
	return l.flock.Unlock()
}
