// Package archive persists backtest output into compressed archives under
// the program-data root and reads it back.
//
// Every archive holds two entries: the engine log text and the result
// document. Archives are addressed by a path relative to the root, e.g.
// "Backtests/backtest3.zip".
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"

	"backtestvault/internal/domain"
)

// Archive layout.
const (
	Folder       = "Backtests"
	FileTemplate = "backtest.zip"
	LogEntry     = "Logs.log"
	ResultEntry  = "Result.json"
)

// ErrCorrupt is returned when an archive exists but its content cannot be
// decoded.
var ErrCorrupt = errors.New("corrupt archive")

// Bundle is the content of an archive.
type Bundle struct {
	Logs     string
	HasLogs  bool
	Document []byte
	Result   *domain.Result
}

// Store writes archives below a program-data root. Writers are serialized
// by the store; readers are not.
type Store struct {
	mu   sync.Mutex
	root string
	log  *slog.Logger
}

// NewStore creates a store rooted at root.
func NewStore(root string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{root: root, log: log}
}

// Dir returns the directory holding the archives.
func (s *Store) Dir() string { return filepath.Join(s.root, Folder) }

// UniqueFileName appends 1, 2, 3, ... to the base name of template until
// the resulting path does not exist, and returns that path.
func UniqueFileName(template string) (string, error) {
	dir := filepath.Dir(template)
	ext := filepath.Ext(template)
	stem := strings.TrimSuffix(filepath.Base(template), ext)

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, stem+strconv.Itoa(n)+ext)
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}
	}
}

// Write stores logs and the result document in a new archive and returns
// its path relative to the root. An existing file is never overwritten.
func (s *Store) Write(ctx context.Context, logs, result string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := s.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating archive dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		path, err := UniqueFileName(filepath.Join(dir, FileTemplate))
		if err != nil {
			return "", err
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			// Created by another process since the check.
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", path, err)
		}

		if err := writeEntries(f, logs, result); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("closing %s: %w", path, err)
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return "", err
		}
		rel = filepath.ToSlash(rel)
		s.log.Debug("archive written", "path", rel, "bytes", len(logs)+len(result))
		return rel, nil
	}
}

func writeEntries(w io.Writer, logs, result string) error {
	zw := zip.NewWriter(w)
	for _, e := range []struct{ name, body string }{
		{LogEntry, logs},
		{ResultEntry, result},
	} {
		ew, err := zw.Create(e.name)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(ew, e.body); err != nil {
			return err
		}
	}
	return zw.Close()
}

// Persist archives the logs and result document of bt, records the archive
// path on bt and clears the in-memory text. A run without a result
// document is left untouched.
func (s *Store) Persist(ctx context.Context, bt *domain.Backtest) error {
	if bt.Result == "" {
		return nil
	}
	rel, err := s.Write(ctx, bt.Logs, bt.Result)
	if err != nil {
		return err
	}
	bt.ArchivePath = rel
	bt.Logs = ""
	bt.Result = ""
	return nil
}

// Path resolves a root-relative archive path.
func (s *Store) Path(rel string) (string, error) {
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("archive path %q escapes the data root", rel)
	}
	return filepath.Join(s.root, local), nil
}

// Load reads the archive at the root-relative path rel.
func (s *Store) Load(ctx context.Context, rel string) (*Bundle, error) {
	if rel == "" {
		return nil, nil
	}
	path, err := s.Path(rel)
	if err != nil {
		return nil, err
	}
	return Load(ctx, path)
}

// Remove deletes the archive at the root-relative path rel. A missing
// archive is not an error.
func (s *Store) Remove(ctx context.Context, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rel == "" {
		return nil
	}
	path, err := s.Path(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", rel, err)
	}
	return nil
}

// Load reads the archive at path. A missing archive or a missing result
// entry yields (nil, nil). Content that cannot be decoded yields an error
// wrapping ErrCorrupt.
func Load(ctx context.Context, path string) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	zr, err := zip.OpenReader(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	defer zr.Close()

	var logFile, resultFile *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case LogEntry:
			logFile = f
		case ResultEntry:
			resultFile = f
		}
	}
	if resultFile == nil {
		return nil, nil
	}

	doc, err := readEntry(resultFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	result, err := domain.DecodeResult(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	b := &Bundle{Document: doc, Result: result}
	if logFile != nil {
		logs, err := readEntry(logFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
		}
		b.Logs = string(logs)
		b.HasLogs = true
	}
	return b, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
