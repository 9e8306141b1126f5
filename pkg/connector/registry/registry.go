// Package registry provides a global registry for connector factories.
// Connector packages register themselves from init() and are looked up
// by name at runtime.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/flowgate-io/flowgate/pkg/config"
	"github.com/flowgate-io/flowgate/pkg/connector/core"
	"github.com/flowgate-io/flowgate/pkg/errors"
)

// SourceFactory creates a source connector from configuration.
type SourceFactory func(cfg *config.BaseConfig) (core.Source, error)

// DestinationFactory creates a destination connector from configuration.
type DestinationFactory func(cfg *config.BaseConfig) (core.Destination, error)

var (
	mu           sync.RWMutex
	sources      = make(map[string]SourceFactory)
	destinations = make(map[string]DestinationFactory)
)

// RegisterSource registers a source factory under the given name.
// Panics on duplicate registration, which indicates a programming error.
func RegisterSource(name string, factory SourceFactory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := sources[name]; exists {
		panic(fmt.Sprintf("source %q already registered", name))
	}
	sources[name] = factory
}

// RegisterDestination registers a destination factory under the given name.
func RegisterDestination(name string, factory DestinationFactory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := destinations[name]; exists {
		panic(fmt.Sprintf("destination %q already registered", name))
	}
	destinations[name] = factory
}

// CreateSource instantiates the named source connector.
func CreateSource(name string, cfg *config.BaseConfig) (core.Source, error) {
	mu.RLock()
	factory, ok := sources[name]
	mu.RUnlock()

	if !ok {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "unknown source %q", name)
	}
	return factory(cfg)
}

// CreateDestination instantiates the named destination connector.
func CreateDestination(name string, cfg *config.BaseConfig) (core.Destination, error) {
	mu.RLock()
	factory, ok := destinations[name]
	mu.RUnlock()

	if !ok {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "unknown destination %q", name)
	}
	return factory(cfg)
}

// ListSources returns the names of all registered sources, sorted.
func ListSources() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListDestinations returns the names of all registered destinations, sorted.
func ListDestinations() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(destinations))
	for name := range destinations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
