package convert

import (
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/nulltoken/heimdall2/errors"
)

// Registry manages the converters available for dispatch, keyed by the
// format name each one handles.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter
	version    string // build version converters declare compatibility against
}

// NewRegistry creates a registry that validates converter compatibility
// against the given build version.
func NewRegistry(buildVersion string) *Registry {
	return &Registry{
		converters: make(map[string]Converter),
		version:    buildVersion,
	}
}

// Register adds a converter. It fails when the format name is already
// taken or the converter's version constraint rejects this build.
func (r *Registry) Register(conv Converter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	metadata := conv.Metadata()
	if metadata.Name == "" {
		return errors.Wrap(errors.ErrInvalidInput, "converter metadata has no name")
	}
	if _, exists := r.converters[metadata.Name]; exists {
		return errors.Wrapf(errors.ErrConverterExists, "%s", metadata.Name)
	}
	if err := r.validateVersion(metadata); err != nil {
		return err
	}

	r.converters[metadata.Name] = conv
	return nil
}

// Get retrieves the converter for a format name.
func (r *Registry) Get(name string) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.converters[name]
	return conv, ok
}

// Names returns the registered format names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.converters))
	for name := range r.converters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the metadata of all registered converters sorted by name.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Metadata, 0, len(r.converters))
	for _, conv := range r.converters {
		out = append(out, conv.Metadata())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered converters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.converters)
}

// validateVersion checks the converter's declared constraint against the
// registry's build version.
func (r *Registry) validateVersion(metadata Metadata) error {
	if metadata.APIVersion == "" {
		// No version constraint specified
		return nil
	}

	buildVer, err := semver.NewVersion(r.version)
	if err != nil {
		return errors.Wrapf(err, "invalid build version %s", r.version)
	}

	constraint, err := semver.NewConstraint(metadata.APIVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s for %s", metadata.APIVersion, metadata.Name)
	}

	if !constraint.Check(buildVer) {
		return errors.Wrapf(errors.ErrIncompatibleConverter,
			"%s requires %s, but this build is %s", metadata.Name, metadata.APIVersion, r.version)
	}

	return nil
}

// Global registry instance, set once by the process entry point.
var (
	defaultRegistry *Registry
	registryMu      sync.RWMutex
)

// SetDefault installs the global registry. Calling it twice is a
// programming error.
func SetDefault(registry *Registry) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if defaultRegistry != nil {
		panic("default converter registry already initialized")
	}
	defaultRegistry = registry
}

// Default returns the global registry, or nil before SetDefault.
func Default() *Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return defaultRegistry
}

// Register adds a converter to the global registry.
func Register(conv Converter) error {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if defaultRegistry == nil {
		return errors.New("default converter registry not initialized")
	}
	return defaultRegistry.Register(conv)
}
