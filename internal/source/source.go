// Package source streams raw flow records from CSV files, transparently
// decompressing gzip and zstd inputs.
package source

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const readBufferSize = 4 << 20

// Reader yields CSV records one at a time. The header row is consumed by
// Open and available through Header.
type Reader struct {
	csv    *csv.Reader
	header []string
	closer []io.Closer
	row    int
	done   bool
}

// Open opens a CSV file for streaming. Files ending in .gz or .zst are
// decompressed on the fly.
func Open(path string) (*Reader, error) {
	return open(path, true)
}

// OpenHeaderless opens a CSV file whose first row is already data, as in
// the raw dataset exports.
func OpenHeaderless(path string) (*Reader, error) {
	return open(path, false)
}

func open(path string, header bool) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	r, err := newReader(f, Compression(path), header)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	r.closer = append(r.closer, f)
	return r, nil
}

// OpenStream opens path and returns its decompressed content.
func OpenStream(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	body, closers, err := decompress(f, Compression(path))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &stream{Reader: body, closer: append(closers, f)}, nil
}

type stream struct {
	io.Reader
	closer []io.Closer
}

func (s *stream) Close() error { return closeAll(s.closer) }

// Compression returns the codec implied by a file name: "gzip", "zstd" or "".
func Compression(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return "gzip"
	case ".zst", ".zstd":
		return "zstd"
	default:
		return ""
	}
}

// NewReader wraps an already open stream. codec is "", "gzip" or "zstd".
// The first row is taken as the header.
func NewReader(in io.Reader, codec string) (*Reader, error) {
	return newReader(in, codec, true)
}

func newReader(in io.Reader, codec string, header bool) (*Reader, error) {
	body, closers, err := decompress(in, codec)
	if err != nil {
		return nil, err
	}
	r := &Reader{closer: closers}

	r.csv = csv.NewReader(body)
	r.csv.Comma = ','
	r.csv.FieldsPerRecord = -1
	r.csv.ReuseRecord = true

	if !header {
		return r, nil
	}
	h, err := r.csv.Read()
	if err == io.EOF {
		r.done = true
		return r, nil
	}
	if err != nil {
		closeAll(r.closer)
		return nil, fmt.Errorf("reading header: %w", err)
	}
	r.header = append([]string(nil), h...)
	return r, nil
}

func decompress(in io.Reader, codec string) (io.Reader, []io.Closer, error) {
	var body io.Reader = bufio.NewReaderSize(in, readBufferSize)
	switch codec {
	case "":
		return body, nil, nil
	case "gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip stream: %w", err)
		}
		return gz, []io.Closer{gz}, nil
	case "zstd":
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd stream: %w", err)
		}
		return zr, []io.Closer{zr.IOReadCloser()}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression %q", codec)
	}
}

// Header returns the skipped header row, nil for an empty or headerless file.
func (r *Reader) Header() []string { return r.header }

// Row is the 1-based number of the last data row returned by Next.
func (r *Reader) Row() int { return r.row }

// Next returns the next data row, or io.EOF. The returned slice is reused by
// the following call.
func (r *Reader) Next() ([]string, error) {
	if r.done {
		return nil, io.EOF
	}
	rec, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			r.done = true
			return nil, io.EOF
		}
		return nil, fmt.Errorf("row %d: %w", r.row+1, err)
	}
	r.row++
	return rec, nil
}

// Close releases the decompressor and the file.
func (r *Reader) Close() error {
	err := closeAll(r.closer)
	r.closer = nil
	return err
}

func closeAll(closers []io.Closer) error {
	var first error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Rows is a stream of raw records ending with io.EOF.
type Rows interface {
	Next() ([]string, error)
	Close() error
}

// File is a re-openable row source backed by a path, so the same records can
// be streamed once per normalization pass.
type File string

// Name returns the file path.
func (f File) Name() string { return string(f) }

// Open starts a new pass over the file.
func (f File) Open() (Rows, error) {
	r, err := Open(string(f))
	if err != nil {
		return nil, err
	}
	return r, nil
}
