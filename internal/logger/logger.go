package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

var debugEnabled atomic.Bool

// Rotator implements io.Writer and rotates the file once it would exceed MaxSize.
type Rotator struct {
	Filename   string
	MaxSize    int64 // Bytes
	MaxBackups int
	file       *os.File
	size       int64
	mu         sync.Mutex
}

// Setup routes the standard logger to stdout and a rotating file.
// If the file cannot be opened, logging stays on stdout.
func Setup(filename string, maxSizeMB int64, maxBackups int) *Rotator {
	rotator := NewRotator(filename, maxSizeMB*1024*1024, maxBackups)
	if err := rotator.openExistingOrNew(); err != nil {
		log.Printf("Failed to open log file, using stdout only: %v", err)
		return nil
	}

	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	return rotator
}

// NewRotator returns a Rotator; the file is opened on first write.
func NewRotator(filename string, maxSize int64, maxBackups int) *Rotator {
	return &Rotator{
		Filename:   filename,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
	}
}

// SetLevel enables Debugf output when level is DEBUG.
func SetLevel(level string) {
	debugEnabled.Store(strings.EqualFold(level, "DEBUG"))
}

// Debugf logs only at DEBUG level.
func Debugf(format string, v ...any) {
	if !debugEnabled.Load() {
		return
	}
	log.Output(2, "DEBUG: "+fmt.Sprintf(format, v...))
}

func (r *Rotator) openExistingOrNew() error {
	info, err := os.Stat(r.Filename)
	if os.IsNotExist(err) {
		return r.openNew()
	}
	if err != nil {
		return err
	}

	f, err := os.OpenFile(r.Filename, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = info.Size()
	return nil
}

func (r *Rotator) openNew() error {
	f, err := os.OpenFile(r.Filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = 0
	return nil
}

// Write satisfies io.Writer.
func (r *Rotator) Write(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err = r.openExistingOrNew(); err != nil {
			return 0, err
		}
	}

	if r.size > 0 && r.size+int64(len(p)) > r.MaxSize {
		if err := r.rotate(); err != nil {
			// Keep writing to whatever is open rather than drop lines.
			fmt.Fprintf(os.Stderr, "Log rotation failed: %v\n", err)
		}
	}

	n, err = r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// Close closes the current file.
func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// rotate shifts log.1 -> log.2 ... and reopens an empty log.
func (r *Rotator) rotate() error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}

	if r.MaxBackups < 1 {
		return r.openNew()
	}

	for i := r.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", r.Filename, i)
		if _, err := os.Stat(oldPath); os.IsNotExist(err) {
			continue
		}
		os.Rename(oldPath, fmt.Sprintf("%s.%d", r.Filename, i+1))
	}

	if _, err := os.Stat(r.Filename); err == nil {
		os.Rename(r.Filename, r.Filename+".1")
	}

	return r.openNew()
}
