package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a source has no value for a secret.
var ErrNotFound = errors.New("secret not found")

// Source looks up secret values by name.
type Source interface {
	// Lookup returns the secret value, or an error wrapping ErrNotFound when
	// the source does not hold it.
	Lookup(ctx context.Context, name string) (string, error)

	// Name identifies the source in logs.
	Name() string
}

// EnvSource reads secrets from environment variables. The secret name is
// upper-cased, hyphens become underscores and Prefix is prepended.
type EnvSource struct {
	Prefix string
}

// Lookup implements Source.
func (s EnvSource) Lookup(_ context.Context, name string) (string, error) {
	key := s.Variable(name)
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: environment variable %s is not set", ErrNotFound, key)
	}
	return value, nil
}

// Variable returns the environment variable holding name.
func (s EnvSource) Variable(name string) string {
	return s.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// Name implements Source.
func (s EnvSource) Name() string { return "env" }

// FileSource reads secrets from files in Dir, one secret per file. Values
// are trimmed of surrounding whitespace.
type FileSource struct {
	Dir string
}

// Lookup implements Source. It refuses names that escape Dir, anything that
// is not a regular file, and files readable by group or others.
func (s FileSource) Lookup(_ context.Context, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid secret name %q", name)
	}

	path := filepath.Join(s.Dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: no file %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret %q is not a regular file", name)
	}
	if perm := info.Mode().Perm(); perm != 0o600 && perm != 0o400 {
		return "", fmt.Errorf("insecure permissions on %s: %o (expected 0600 or 0400)", path, perm)
	}

	// #nosec G304 - name is a single path element inside Dir
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Name implements Source.
func (s FileSource) Name() string { return "file" }
