package subliminal

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"golang.org/x/text/language"
)

// Provider is one subtitle source. Implementations perform their own
// network I/O, pagination, and auth; the engine treats them as black boxes.
type Provider interface {
	// Name returns the provider name used as the prefix of composite ids.
	Name() string

	// ListSubtitles returns the candidate subtitles the provider has for
	// the video in any of the requested languages. Result order is
	// provider-determined.
	ListSubtitles(ctx context.Context, video *Video, languages []language.Tag) ([]*Subtitle, error)

	// Download fetches the subtitle file and attaches its raw bytes to the
	// handle's Content field in place. The bytes may still be an archive or
	// a non-UTF-8 encoding; the engine normalizes them afterwards.
	Download(ctx context.Context, sub *Subtitle) error
}

// ProviderConfig holds the settings a provider factory needs.
type ProviderConfig struct {
	// HTTPClient is the shared client with timeout, proxy, compression and
	// retry behavior already applied.
	HTTPClient *http.Client

	// BaseURL overrides the provider's default endpoint. Used by tests to
	// point at a local server.
	BaseURL string

	// APIKey authenticates against providers that require one.
	APIKey string

	// UserAgent is sent with every request.
	UserAgent string
}

// Factory is a constructor that creates a Provider from config.
type Factory func(cfg ProviderConfig) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register registers a provider factory under the given name.
// It panics if the name is already registered or the factory is nil.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if f == nil {
		panic("subliminal: Register factory is nil")
	}
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("subliminal: provider %q already registered", name))
	}
	factories[name] = f
}

// Open creates a Provider using the named factory and the given config.
func Open(name string, cfg ProviderConfig) (Provider, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("subliminal: unknown provider %q (registered: %v)", name, RegisteredProviders())
	}
	return f(cfg)
}

// RegisteredProviders returns a sorted list of registered provider names.
func RegisteredProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
