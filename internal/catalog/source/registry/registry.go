// File: internal/catalog/source/registry/registry.go
package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"

	"replisync/internal/config"
)

// Source reads catalog documents from one kind of location
type Source interface {
	Open(ctx context.Context, loc Location) (io.ReadCloser, error)
	Close() error
}

// Defines the function signature for creating a new catalog source client
type SourceInitializer func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Source, error)

type SourceRegistration struct {
	Initializer SourceInitializer
}

var (
	// Stores the registrations, keyed by URL scheme (lowercase)
	sourceRegistry = make(map[string]SourceRegistration)
	registryMu     sync.RWMutex
)

// Allows a source implementation package to register itself during initialization (init())
func RegisterSource(scheme string, registration SourceRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()

	normalized := strings.ToLower(scheme)
	if _, exists := sourceRegistry[normalized]; exists {
		panic(fmt.Sprintf("catalog source %s already registered", normalized))
	}
	if registration.Initializer == nil {
		panic(fmt.Sprintf("catalog source %s registration missing Initializer", normalized))
	}

	sourceRegistry[normalized] = registration
}

// Returns a sorted list of all registered schemes
func GetSupportedSchemes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	schemes := make([]string, 0, len(sourceRegistry))
	for name := range sourceRegistry {
		schemes = append(schemes, name)
	}
	sort.Strings(schemes)
	return schemes
}

func GetRegistration(scheme string) (SourceRegistration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	registration, exists := sourceRegistry[strings.ToLower(scheme)]
	return registration, exists
}

// Location is a parsed catalog location. For the file scheme Bucket is empty and Key is the path.
type Location struct {
	Raw    string
	Scheme string
	Bucket string
	Key    string
}

// Parses a catalog location. Anything without a scheme is treated as a local file path.
func ParseLocation(raw string) (Location, error) {
	if raw == "" {
		return Location{}, fmt.Errorf("catalog location cannot be empty")
	}
	if !strings.Contains(raw, "://") {
		return Location{Raw: raw, Scheme: "file", Key: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("invalid catalog location %q: %w", raw, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "file" {
		return Location{Raw: raw, Scheme: scheme, Key: u.Path}, nil
	}

	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Location{}, fmt.Errorf("invalid catalog location %q: expected %s://<bucket>/<object>", raw, scheme)
	}
	return Location{Raw: raw, Scheme: scheme, Bucket: u.Host, Key: key}, nil
}
