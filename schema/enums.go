package schema

import "sync"

// Enum is a host enumeration a column may map onto, either by member index
// (stored as integer) or by member name (stored as text).
type Enum struct {
	Name    string
	Members []string
}

// IndexOf returns the position of a member name, or -1.
func (e *Enum) IndexOf(member string) int {
	for i, m := range e.Members {
		if m == member {
			return i
		}
	}
	return -1
}

// EnumRegistry holds the host enumerations visible to a file's declarations.
// Registration happens up front; lookups during resolution are read-only.
type EnumRegistry struct {
	mu    sync.RWMutex
	enums map[string]*Enum
}

// NewEnumRegistry creates an empty registry.
func NewEnumRegistry() *EnumRegistry {
	return &EnumRegistry{enums: make(map[string]*Enum)}
}

// Register adds or replaces an enumeration by name.
func (r *EnumRegistry) Register(name string, members ...string) *Enum {
	e := &Enum{Name: name, Members: members}
	r.mu.Lock()
	r.enums[name] = e
	r.mu.Unlock()
	return e
}

// Lookup returns the named enumeration or nil. Safe on a nil registry so
// resolution can run without one.
func (r *EnumRegistry) Lookup(name string) *Enum {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enums[name]
}
