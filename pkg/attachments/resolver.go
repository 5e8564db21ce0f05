// Package attachments resolves file references sent by the chat client to
// the text content that is inlined into the conversation.
//
// Files live in a single upload directory managed outside the relay. A
// reference carries the path the upload endpoint returned ("/uploads/x")
// and the stored filename; both forms resolve to a file inside the upload
// directory and nothing outside it.
package attachments

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"mercator-hq/chatrelay/pkg/config"
)

var (
	// ErrNotFound is returned when the referenced file does not exist.
	ErrNotFound = errors.New("attachment not found")

	// ErrInvalidPath is returned when a reference escapes the upload directory.
	ErrInvalidPath = errors.New("attachment path outside upload directory")

	// ErrTooLarge is returned when the file exceeds the configured size limit.
	ErrTooLarge = errors.New("attachment too large")
)

// uploadsPrefix is the URL path prefix the upload endpoint hands out.
const uploadsPrefix = "uploads/"

// Ref is a file reference as sent by the client.
type Ref struct {
	Path     string
	Filename string
}

// Empty reports whether the reference names no file.
func (r *Ref) Empty() bool {
	return r == nil || r.Path == ""
}

// Resolver reads referenced files from the upload directory.
// It is safe for concurrent use.
type Resolver struct {
	dir         string
	maxBytes    int64
	convertHTML bool
}

// NewResolver creates a resolver from attachments configuration.
func NewResolver(cfg config.AttachmentsConfig) *Resolver {
	r := &Resolver{
		dir:         cfg.UploadDir,
		maxBytes:    cfg.MaxFileBytes,
		convertHTML: cfg.ConvertHTML,
	}
	if r.dir == "" {
		r.dir = config.DefaultUploadDir
	}
	if r.maxBytes <= 0 {
		r.maxBytes = config.DefaultMaxFileBytes
	}
	return r
}

// Dir returns the upload directory.
func (r *Resolver) Dir() string {
	return r.dir
}

// Locate maps a reference to a file path inside the upload directory.
//
// "/uploads/name" and "uploads/name" address name in the upload directory.
// Any other path falls back to the reference's filename.
func (r *Resolver) Locate(ref Ref) (string, error) {
	rel := strings.TrimPrefix(ref.Path, "/")
	if strings.HasPrefix(rel, uploadsPrefix) {
		rel = strings.TrimPrefix(rel, uploadsPrefix)
	} else {
		rel = ref.Filename
	}

	rel = filepath.FromSlash(rel)
	if rel == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, ref.Path)
	}

	return filepath.Join(r.dir, rel), nil
}

// Read returns the text content of the referenced file. HTML files are
// converted to Markdown when conversion is enabled.
func (r *Resolver) Read(ref Ref) (string, error) {
	path, err := r.Locate(ref)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to open attachment: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}
	if info.Size() > r.maxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, info.Size(), r.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(f, r.maxBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read attachment: %w", err)
	}

	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}

	if r.convertHTML && isHTML(path) {
		markdown, err := htmltomarkdown.ConvertString(text)
		if err != nil {
			slog.Warn("failed to convert HTML attachment, using raw content",
				"path", path,
				"error", err,
			)
			return text, nil
		}
		return markdown, nil
	}

	return text, nil
}

func isHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}
