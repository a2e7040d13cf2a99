package core

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

// HistoryConfig holds job history log settings.
type HistoryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dir         string `yaml:"dir"`
	Compress    bool   `yaml:"compress"`     // gzip compress (default true)
	RotateBytes int64  `yaml:"rotate_bytes"` // rotate file after N bytes (default 64MB)
}

// DefaultHistoryConfig returns defaults for the job history log.
func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Dir:         "./data/history",
		Compress:    true,
		RotateBytes: 64 * 1024 * 1024,
	}
}

// historyRecord is the NDJSON envelope written to history files.
type historyRecord struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"ts"`
	Data      json.RawMessage `json:"data"`
}

// History appends finished job events to NDJSON files, one file per run
// segment. It implements Publisher.
type History struct {
	cfg    HistoryConfig
	runID  string
	logger zerolog.Logger

	mu           sync.Mutex
	currentFile  *os.File
	currentGz    *gzip.Writer
	currentPath  string
	currentBytes int64
	segment      int
	files        []string
	written      int64
}

// NewHistory creates the history directory. Files are opened lazily on the
// first record.
func NewHistory(cfg HistoryConfig, runID string, logger zerolog.Logger) (*History, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating history dir %s: %w", cfg.Dir, err)
	}
	if cfg.RotateBytes <= 0 {
		cfg.RotateBytes = DefaultHistoryConfig().RotateBytes
	}
	return &History{
		cfg:    cfg,
		runID:  runID,
		logger: logger.With().Str("component", "history").Logger(),
	}, nil
}

// PublishJob appends one record.
func (h *History) PublishJob(event *JobEvent) error {
	if h == nil {
		return nil
	}
	data, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling job event: %w", err)
	}
	line, err := json.Marshal(historyRecord{
		Type:      "job",
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("marshaling history record: %w", err)
	}
	line = append(line, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.currentFile == nil {
		if err := h.openFileLocked(); err != nil {
			return fmt.Errorf("opening history file: %w", err)
		}
	}

	var n int
	if h.currentGz != nil {
		n, err = h.currentGz.Write(line)
	} else {
		n, err = h.currentFile.Write(line)
	}
	if err != nil {
		return fmt.Errorf("writing history record: %w", err)
	}
	h.currentBytes += int64(n)
	h.written++

	if h.currentBytes >= h.cfg.RotateBytes {
		h.closeFileLocked()
	}
	return nil
}

func (h *History) openFileLocked() error {
	ext := ".ndjson"
	if h.cfg.Compress {
		ext = ".ndjson.gz"
	}
	h.segment++
	filename := fmt.Sprintf("flowprep-%s-%03d%s", h.runID, h.segment, ext)
	path := filepath.Join(h.cfg.Dir, filename)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	h.currentFile = f
	h.currentPath = path
	h.currentBytes = 0
	h.files = append(h.files, path)
	if h.cfg.Compress {
		h.currentGz, _ = gzip.NewWriterLevel(f, gzip.BestSpeed)
	}
	h.logger.Debug().Str("file", filename).Msg("opened history file")
	return nil
}

func (h *History) closeFileLocked() {
	if h.currentGz != nil {
		if err := h.currentGz.Close(); err != nil {
			h.logger.Warn().Err(err).Str("file", h.currentPath).Msg("closing gzip stream")
		}
		h.currentGz = nil
	}
	if h.currentFile != nil {
		h.currentFile.Close()
		h.currentFile = nil
	}
}

// Files returns every file written so far.
func (h *History) Files() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.files...)
}

// Close flushes and closes the current file.
func (h *History) Close() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeFileLocked()
	h.logger.Debug().Int64("records", h.written).Int("files", len(h.files)).Msg("history closed")
	return nil
}

// ReadHistory decodes the job events stored in a history file.
func ReadHistory(path string) ([]*JobEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	var events []*JobEvent
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for line := 1; sc.Scan(); line++ {
		var rec historyRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}
		if rec.Type != "job" {
			continue
		}
		e, err := UnmarshalJobEvent(rec.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}
		events = append(events, e)
	}
	return events, sc.Err()
}

// Publishers fans one event out to several publishers. Every publisher is
// tried; the first error is returned.
type Publishers []Publisher

// PublishJob implements Publisher.
func (ps Publishers) PublishJob(event *JobEvent) error {
	var first error
	for _, p := range ps {
		if err := p.PublishJob(event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
