package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"mercator-hq/chatrelay/pkg/config"
)

var refPattern = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Resolver looks secrets up across sources in order and memoizes the
// values it finds.
type Resolver struct {
	sources []Source

	mu     sync.Mutex
	values map[string]string
}

// NewResolver creates a resolver over sources, tried in order.
func NewResolver(sources ...Source) *Resolver {
	return &Resolver{
		sources: sources,
		values:  make(map[string]string),
	}
}

// FromConfig builds the resolver described by cfg. Sources are tried in
// the order file, Parameter Store, environment; the first two only when
// configured.
func FromConfig(ctx context.Context, cfg config.CredentialsConfig) (*Resolver, error) {
	var sources []Source
	if cfg.Dir != "" {
		sources = append(sources, FileSource{Dir: cfg.Dir})
	}
	if cfg.SSMPrefix != "" {
		src, err := NewDefaultSSMSource(ctx, cfg.SSMPrefix)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	sources = append(sources, EnvSource{Prefix: cfg.EnvPrefix})
	return NewResolver(sources...), nil
}

// Secret returns the value of the named secret from the first source that
// holds it. A source failing for any reason other than ErrNotFound stops
// the search.
func (r *Resolver) Secret(ctx context.Context, name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.values[name]; ok {
		return v, nil
	}

	for _, src := range r.sources {
		v, err := src.Lookup(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("secret %q from %s: %w", name, src.Name(), err)
		}
		slog.DebugContext(ctx, "secret resolved", "name", name, "source", src.Name())
		r.values[name] = v
		return v, nil
	}

	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Expand replaces every ${secret:name} reference in s. Strings without
// references are returned unchanged.
func (r *Resolver) Expand(ctx context.Context, s string) (string, error) {
	if !strings.Contains(s, "${secret:") {
		return s, nil
	}

	var errs []error
	out := refPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := strings.TrimSpace(refPattern.FindStringSubmatch(ref)[1])
		v, err := r.Secret(ctx, name)
		if err != nil {
			errs = append(errs, err)
			return ref
		}
		return v
	})
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return out, nil
}

// ExpandConfig resolves secret references in the relay default credential
// and in every provider's api_key and header values, in place.
func (r *Resolver) ExpandConfig(ctx context.Context, cfg *config.Config) error {
	var errs []error

	expand := func(field string, dst *string) {
		v, err := r.Expand(ctx, *dst)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			return
		}
		*dst = v
	}

	expand("relay.default_api_key", &cfg.Relay.DefaultAPIKey)

	for name, p := range cfg.Providers {
		expand("providers."+name+".api_key", &p.APIKey)
		if len(p.Headers) > 0 {
			headers := make(map[string]string, len(p.Headers))
			for k, v := range p.Headers {
				expand("providers."+name+".headers."+k, &v)
				headers[k] = v
			}
			p.Headers = headers
		}
		cfg.Providers[name] = p
	}

	return errors.Join(errs...)
}
