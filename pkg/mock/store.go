package mock

import (
	"encoding/json"
	"sync"
)

// RootKey is the key of the single instance of each root operation type.
const RootKey = "ROOT"

// Ref identifies one mocked object: its type and a key unique within that type.
type Ref struct {
	TypeName string
	Key      string
}

// RootRef returns the Ref of a root operation type such as "Query".
func RootRef(typeName string) Ref {
	return Ref{TypeName: typeName, Key: RootKey}
}

// Store remembers generated field values so an object keeps returning the same
// mock data across queries. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored for field on ref.
	Get(ref Ref, field string) (any, bool)
	// Set stores value for field on ref.
	Set(ref Ref, field string, value any)
}

// FieldKey is the store key of a field called with args. Fields called with
// different arguments are stored separately.
func FieldKey(field string, args map[string]any) string {
	if len(args) == 0 {
		return field
	}
	// encoding/json sorts map keys, giving a canonical form.
	b, err := json.Marshal(args)
	if err != nil {
		return field
	}
	return field + "(" + string(b) + ")"
}

// MemoryStore is an in-memory Store.
// It is thread-safe via an internal RWMutex.
type MemoryStore struct {
	values map[Ref]map[string]any
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[Ref]map[string]any),
	}
}

// Get returns the value stored for field on ref.
func (s *MemoryStore) Get(ref Ref, field string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[ref][field]
	return v, ok
}

// Set stores value for field on ref, replacing any previous value.
func (s *MemoryStore) Set(ref Ref, field string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.values[ref]
	if !ok {
		fields = make(map[string]any)
		s.values[ref] = fields
	}
	fields[field] = value
}

// Has reports whether any value is stored for ref.
func (s *MemoryStore) Has(ref Ref) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.values[ref]
	return ok
}

// Reset removes every stored value.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[Ref]map[string]any)
}
