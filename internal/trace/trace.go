package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"isoworld/internal/streaming"
)

// Writer appends JSON lines to a zstd compressed file. The file is created on
// the first write.
type Writer struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		if err := w.openLocked(); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode trace entry: %w", err)
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create trace dir: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("trace encoder: %w", err)
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	return nil
}

// Close flushes and closes the file, returning the first error.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	if w.w != nil {
		errs = append(errs, w.w.Flush())
	}
	if w.enc != nil {
		errs = append(errs, w.enc.Close())
		w.enc = nil
	}
	if w.f != nil {
		errs = append(errs, w.f.Close())
		w.f = nil
	}
	w.w = nil
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("close trace: %w", err)
		}
	}
	return nil
}

// Entry is one recorded streaming tick.
type Entry struct {
	Seq    int                  `json:"seq"`
	At     time.Time            `json:"at"`
	Report streaming.TickReport `json:"report"`
}

// TickLogger records the tick reports of one engine.
type TickLogger struct {
	w   *Writer
	seq int
}

// NewTickLogger writes to <dir>/<name>.jsonl.zst.
func NewTickLogger(dir, name string) *TickLogger {
	return &TickLogger{w: NewWriter(filepath.Join(dir, name+".jsonl.zst"))}
}

// WriteTick records report. Ticks that changed nothing are skipped.
func (l *TickLogger) WriteTick(at time.Time, report streaming.TickReport) error {
	l.seq++
	if !report.Changed() && !report.Reset {
		return nil
	}
	return l.w.Write(Entry{Seq: l.seq, At: at.UTC(), Report: report})
}

func (l *TickLogger) Path() string { return l.w.Path() }
func (l *TickLogger) Close() error { return l.w.Close() }

// ReadEntries decodes every entry of a tick trace.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("trace decoder: %w", err)
	}
	defer dec.Close()

	var entries []Entry
	jd := json.NewDecoder(dec)
	for {
		var e Entry
		if err := jd.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return entries, fmt.Errorf("decode trace: %w", err)
		}
		entries = append(entries, e)
	}
}
