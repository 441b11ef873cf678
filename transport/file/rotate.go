package file

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// ─────────────────────────────────────────────────────────────────────────────
// RotateConfig
// ─────────────────────────────────────────────────────────────────────────────

// RotateConfig controls size-based rotation of the record file.
type RotateConfig struct {
	// FilePath is the active file name (required).
	FilePath string

	// MaxBytes triggers rotation before a write would push the active file
	// past this size. Zero disables rotation.
	MaxBytes int64

	// MaxBackups is the number of rotated files to keep. Zero keeps all.
	MaxBackups int
}

// ─────────────────────────────────────────────────────────────────────────────
// RotatingFile
// ─────────────────────────────────────────────────────────────────────────────

// RotatingFile is an io.WriteCloser that appends to FilePath and, once
// MaxBytes is reached, shifts it to FilePath.1 (FilePath.1 to FilePath.2 and
// so on). It is safe for concurrent use.
type RotatingFile struct {
	mu     sync.Mutex
	cfg    RotateConfig
	file   *os.File
	size   int64
	logger *slog.Logger
}

// NewRotatingFile opens (or creates) cfg.FilePath, creating parent
// directories as needed.
func NewRotatingFile(cfg RotateConfig, logger *slog.Logger) (*RotatingFile, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("transport/file: rotate: FilePath is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}

	if dir := filepath.Dir(cfg.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("transport/file: rotate: mkdir %s: %w", dir, err)
		}
	}

	rf := &RotatingFile{cfg: cfg, logger: logger}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

// Write implements io.Writer. An empty active file is never rotated, so a
// single oversized record still lands somewhere.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return 0, os.ErrClosed
	}
	if rf.cfg.MaxBytes > 0 && rf.size > 0 && rf.size+int64(len(p)) > rf.cfg.MaxBytes {
		if err := rf.rotate(); err != nil {
			rf.logger.Error("transport/file: rotate failed", "file", rf.cfg.FilePath, "error", err.Error())
			if rf.file == nil {
				return 0, err
			}
		}
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

// Close closes the active file.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

func (rf *RotatingFile) open() error {
	f, err := os.OpenFile(rf.cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("transport/file: rotate: open %s: %w", rf.cfg.FilePath, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("transport/file: rotate: stat %s: %w", rf.cfg.FilePath, err)
	}
	rf.file = f
	rf.size = info.Size()
	return nil
}

func (rf *RotatingFile) backupName(i int) string {
	return rf.cfg.FilePath + "." + strconv.Itoa(i)
}

// rotate closes the active file, shifts the backups up by one, drops the ones
// beyond MaxBackups and reopens a fresh active file.
func (rf *RotatingFile) rotate() error {
	if err := rf.file.Close(); err != nil {
		rf.logger.Warn("transport/file: rotate: close error", "error", err.Error())
	}
	rf.file = nil

	highest := 0
	for {
		if _, err := os.Stat(rf.backupName(highest + 1)); err != nil {
			break
		}
		highest++
	}

	for i := highest; i >= 1; i-- {
		if rf.cfg.MaxBackups > 0 && i >= rf.cfg.MaxBackups {
			if err := os.Remove(rf.backupName(i)); err == nil {
				rf.logger.Debug("transport/file: pruned old backup", "file", rf.backupName(i))
			}
			continue
		}
		_ = os.Rename(rf.backupName(i), rf.backupName(i+1))
	}

	if err := os.Rename(rf.cfg.FilePath, rf.backupName(1)); err != nil && !os.IsNotExist(err) {
		rf.logger.Warn("transport/file: rotate: rename error", "error", err.Error())
	}

	rf.logger.Info("transport/file: rotated", "file", rf.cfg.FilePath, "bytes", rf.size)
	return rf.open()
}
