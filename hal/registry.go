package hal

import "sync"

var (
	// backendsMu protects the backends map.
	backendsMu sync.RWMutex

	// backends stores registered backend implementations by name.
	backends = make(map[string]Backend)
)

// RegisterBackend registers a backend implementation under name. This is
// typically called from a backend package's init() function. Registering
// the same name twice replaces the previous registration.
func RegisterBackend(name string, backend Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = backend
}

// GetBackend returns a registered backend by name.
// Returns (nil, false) if no backend is registered under that name.
func GetBackend(name string) (Backend, bool) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	b, ok := backends[name]
	return b, ok
}

// AvailableBackends returns the names of all registered backends. The
// order is non-deterministic.
func AvailableBackends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	result := make([]string, 0, len(backends))
	for name := range backends {
		result = append(result, name)
	}
	return result
}
