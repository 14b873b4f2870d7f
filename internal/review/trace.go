package review

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// TraceSink receives intermediate pipeline artifacts (reconstructed
// tables, raw LLM responses) for offline inspection. Implementations must
// never fail the pipeline.
type TraceSink interface {
	Record(name string, data []byte)
}

// NopSink discards all trace records.
type NopSink struct{}

func (NopSink) Record(string, []byte) {}

// DirSink writes each trace record to a timestamped file in a directory.
type DirSink struct {
	dir string
	seq atomic.Uint64
}

// NewDirSink creates the directory if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create trace dir: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

func (s *DirSink) Record(name string, data []byte) {
	n := s.seq.Add(1)
	file := fmt.Sprintf("%s_%04d_%s.txt", time.Now().Format("20060102T150405"), n, name)
	if err := os.WriteFile(filepath.Join(s.dir, file), data, 0o644); err != nil {
		slog.Warn("write trace record", "file", file, "error", err)
	}
}
