package toolchain

import (
	"errors"
	"os/exec"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ErrUnknownLanguage is returned when no toolchain is registered for an id.
var ErrUnknownLanguage = errors.New("toolchain: unknown language")

// Registry holds the toolchain specs known to this process.
type Registry struct {
	mu        sync.RWMutex
	specs     map[string]Spec
	available map[string]bool
	lookPath  func(string) (string, error)
}

// NewRegistry creates a registry pre-populated with the default toolchains.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	r.registerDefaults()
	return r
}

// NewEmptyRegistry creates a registry with no toolchains.
func NewEmptyRegistry() *Registry {
	return &Registry{
		specs:     make(map[string]Spec),
		available: make(map[string]bool),
		lookPath:  exec.LookPath,
	}
}

// Register adds or replaces a spec. Newly registered specs are assumed available
// until Verify says otherwise.
func (r *Registry) Register(spec Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.ID] = spec
	r.available[spec.ID] = true
}

// Resolve returns the spec for a language id.
func (r *Registry) Resolve(id string) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[id]
	if !ok {
		return Spec{}, ErrUnknownLanguage
	}
	return spec, nil
}

// Available reports whether every binary the language needs was found on the search path.
func (r *Registry) Available(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.available[id]
}

// List returns all specs ordered by id.
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]Spec, 0, len(r.specs))
	for _, s := range r.specs {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })
	return specs
}

// Verify probes each toolchain's binaries and records which languages are usable.
// Missing binaries are a host configuration fault; they are logged, not fatal.
func (r *Registry) Verify(logger *zap.Logger) map[string][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	missing := make(map[string][]string)
	for id, spec := range r.specs {
		ok := true
		for _, bin := range spec.Binaries() {
			if _, err := r.lookPath(bin); err != nil {
				missing[id] = append(missing[id], bin)
				ok = false
			}
		}
		r.available[id] = ok
		if !ok {
			logger.Warn("Toolchain unavailable",
				zap.String("language", id),
				zap.Strings("missing", missing[id]),
			)
		}
	}
	return missing
}

func (r *Registry) registerDefaults() {
	r.Register(Spec{
		ID:              "python",
		Name:            "Python",
		Version:         "3",
		SourceExtension: ".py",
		RunCmd:          "python3 {src}",
	})

	r.Register(Spec{
		ID:              "javascript",
		Name:            "JavaScript",
		Version:         "Node.js",
		SourceExtension: ".js",
		RunCmd:          "node {src}",
	})

	r.Register(Spec{
		ID:              "cpp",
		Name:            "C++",
		Version:         "17",
		SourceExtension: ".cpp",
		CompileCmd:      "g++ -std=c++17 -O2 -o {bin} {src}",
		RunCmd:          "{bin}",
	})

	r.Register(Spec{
		ID:              "c",
		Name:            "C",
		Version:         "11",
		SourceExtension: ".c",
		CompileCmd:      "gcc -std=c11 -O2 -o {bin} {src} -lm",
		RunCmd:          "{bin}",
	})

	r.Register(Spec{
		ID:              "java",
		Name:            "Java",
		Version:         "17",
		SourceExtension: ".java",
		CompileCmd:      "javac -d {dir} {src}",
		RunCmd:          "java -cp {dir} {entry}",
		EntryPoint:      EntryFromSource,
		Dedicated:       true,
	})
}
