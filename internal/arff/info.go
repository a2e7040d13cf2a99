package arff

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/zeebo/blake3"
)

// Info is the per-file summary written next to each dataset.
type Info struct {
	RunID  string
	Normal int64
	Attack int64
	Digest string
}

// WriteInfo writes the human-readable summary side-file.
func WriteInfo(w io.Writer, info Info) error {
	_, err := fmt.Fprintf(w,
		"Total normal instances = %d\nTotal DDoS attack instances = %d\nFinal number of instances (normal + attack) = %d\n",
		info.Normal, info.Attack, info.Normal+info.Attack)
	if err != nil {
		return err
	}
	if info.Digest != "" {
		if _, err := fmt.Fprintf(w, "BLAKE3 digest = %s\n", info.Digest); err != nil {
			return err
		}
	}
	if info.RunID != "" {
		if _, err := fmt.Fprintf(w, "Run = %s\n", info.RunID); err != nil {
			return err
		}
	}
	return nil
}

// DigestWriter hashes everything written through it.
type DigestWriter struct {
	w io.Writer
	h hash.Hash
}

// NewDigestWriter wraps w with a BLAKE3 hasher.
func NewDigestWriter(w io.Writer) *DigestWriter {
	return &DigestWriter{w: w, h: blake3.New()}
}

func (d *DigestWriter) Write(p []byte) (int, error) {
	n, err := d.w.Write(p)
	d.h.Write(p[:n])
	return n, err
}

// Sum returns the hex digest of the bytes written so far.
func (d *DigestWriter) Sum() string { return hex.EncodeToString(d.h.Sum(nil)) }
