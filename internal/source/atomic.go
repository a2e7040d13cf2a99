package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// AtomicFile is an output file that only becomes visible under its final
// name on Commit. Aborted or interrupted writes leave nothing behind at the
// destination, so a half-written dataset can never be mistaken for a
// finished one.
type AtomicFile struct {
	path string
	tmp  *os.File
	buf  *bufio.Writer
	gz   *gzip.Writer
	w    io.Writer
	done bool
}

// CreateAtomic opens a temporary file next to path. When the path ends in
// .gz the content is gzip-compressed.
func CreateAtomic(path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	a := &AtomicFile{path: path, tmp: tmp}
	a.buf = bufio.NewWriterSize(tmp, 1<<20)
	a.w = a.buf
	if Compression(path) == "gzip" {
		a.gz, _ = gzip.NewWriterLevel(a.buf, gzip.BestSpeed)
		a.w = a.gz
	}
	return a, nil
}

// Path is the final destination.
func (a *AtomicFile) Path() string { return a.path }

func (a *AtomicFile) Write(p []byte) (int, error) { return a.w.Write(p) }

// Commit flushes, syncs and renames the temporary file into place.
func (a *AtomicFile) Commit() error {
	if a.done {
		return fmt.Errorf("%s: already closed", a.path)
	}
	a.done = true
	if a.gz != nil {
		if err := a.gz.Close(); err != nil {
			a.discard()
			return fmt.Errorf("compressing %s: %w", a.path, err)
		}
	}
	if err := a.buf.Flush(); err != nil {
		a.discard()
		return fmt.Errorf("writing %s: %w", a.path, err)
	}
	if err := a.tmp.Sync(); err != nil {
		a.discard()
		return fmt.Errorf("syncing %s: %w", a.path, err)
	}
	if err := a.tmp.Close(); err != nil {
		os.Remove(a.tmp.Name())
		return fmt.Errorf("closing %s: %w", a.path, err)
	}
	if err := os.Rename(a.tmp.Name(), a.path); err != nil {
		os.Remove(a.tmp.Name())
		return fmt.Errorf("renaming into %s: %w", a.path, err)
	}
	return nil
}

// Abort discards everything written. Calling it after Commit is a no-op,
// which makes `defer f.Abort()` safe.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	a.discard()
}

func (a *AtomicFile) discard() {
	a.tmp.Close()
	os.Remove(a.tmp.Name())
}
