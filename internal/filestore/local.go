// Package filestore saves complaint attachments on the local filesystem.
//
// The core never reads attachment bytes: Save turns an upload into an
// opaque reference string, and that string is all a Complaint stores.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidRef is returned when a reference does not name a stored file.
	ErrInvalidRef = errors.New("invalid attachment reference")
	// ErrUnsupportedType rejects uploads outside allowedExt.
	ErrUnsupportedType = errors.New("unsupported attachment type")
)

// allowedExt lists the attachment types complaints accept.
var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Local stores files under a single base directory.
type Local struct {
	basePath string
	log      *slog.Logger
	now      func() time.Time
}

// NewLocal creates the base directory if needed.
func NewLocal(basePath string, log *slog.Logger) (*Local, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create %s: %w", basePath, err)
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Local{basePath: basePath, log: log, now: time.Now}, nil
}

// Save writes r under a unique name derived from filename and returns the
// reference to store. The name is "<timestamp>_<uuid>_<clean name>" so
// two uploads of "photo.jpg" never collide.
func (l *Local) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	clean := sanitize(filename)
	ext := strings.ToLower(filepath.Ext(clean))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref := fmt.Sprintf("%s_%s_%s", l.now().Format("20060102150405"), uuid.New().String()[:8], clean)
	dst := filepath.Join(l.basePath, ref)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("filestore: create %s: %w", ref, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("filestore: write %s: %w", ref, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("filestore: close %s: %w", ref, err)
	}

	l.log.Info("attachment stored", slog.String("ref", ref))
	return ref, nil
}

// Path resolves a reference to the file on disk. References containing
// path separators are rejected.
func (l *Local) Path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || ref != sanitize(ref) {
		return "", ErrInvalidRef
	}
	p := filepath.Join(l.basePath, ref)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidRef, ref)
	}
	return p, nil
}

// Delete removes a stored file. Missing files are not an error.
func (l *Local) Delete(ref string) error {
	p, err := l.Path(ref)
	if errors.Is(err, ErrInvalidRef) {
		return nil
	}
	return os.Remove(p)
}

// sanitize keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with "_".
func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "file"
	}
	return name
}
