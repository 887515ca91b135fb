package report

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// WriteArtifact renders into path under an advisory file lock, so
// concurrent analyses pointed at the same artifact path cannot
// interleave writes.
func WriteArtifact(path string, render func(w *os.File) error) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("output %s is being written by another process", path)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(path + ".lock")
	}()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		// A truncated artifact looks valid; do not leave it behind.
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
