// Package archive unpacks zip archives for the ArchiveExtract script function.
package archive

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

// DefaultMaxFileSize caps a single extracted entry.
const DefaultMaxFileSize int64 = 2 << 30

// Extractor writes archive entries below a destination directory.
type Extractor struct {
	// MaxFileSize rejects entries that expand past this many bytes.
	MaxFileSize int64
	Logger      *log.Logger
}

// New returns an extractor with default limits.
func New(logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Extractor{MaxFileSize: DefaultMaxFileSize, Logger: logger}
}

// Extract unpacks archivePath into destDir, creating it when needed.
// Entries that would land outside destDir and symbolic links are refused.
func (e *Extractor) Extract(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return e.fail(archivePath, fmt.Errorf("open archive: %w", err))
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return e.fail(archivePath, fmt.Errorf("create destination: %w", err))
	}

	written := 0
	for _, f := range r.File {
		if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
			return e.fail(archivePath, fmt.Errorf("entry %q escapes destination", f.Name))
		}
		target := filepath.Join(destDir, filepath.FromSlash(f.Name))
		mode := f.Mode()

		switch {
		case mode&fs.ModeSymlink != 0:
			e.Logger.Printf("archive %s: skipping symlink %s", archivePath, f.Name)
			continue
		case f.FileInfo().IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return e.fail(archivePath, fmt.Errorf("create %s: %w", f.Name, err))
			}
			continue
		}

		if err := e.writeFile(f, target); err != nil {
			return e.fail(archivePath, err)
		}
		written++
	}
	e.Logger.Printf("archive %s: extracted %d files to %s", archivePath, written, destDir)
	return nil
}

func (e *Extractor) writeFile(f *zip.File, target string) error {
	limit := e.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	if f.UncompressedSize64 > uint64(limit) {
		return fmt.Errorf("entry %s is larger than %d bytes", f.Name, limit)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", f.Name, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer src.Close()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", f.Name, err)
	}
	n, err := io.Copy(dst, io.LimitReader(src, limit+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", f.Name, err)
	}
	if n > limit {
		return fmt.Errorf("entry %s is larger than %d bytes", f.Name, limit)
	}
	return nil
}

func (e *Extractor) fail(archivePath string, err error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeCollaborator, "extract "+archivePath,
		map[string]string{"Action": "Extracting " + filepath.Base(archivePath)}, err)
}
