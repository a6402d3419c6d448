package persona

// Store exposes persona lookup for dispatch handlers.
type Store interface {
	ByRole(role Role) Persona
	List() []Persona
}

// MemoryStore is an immutable role table loaded once at startup.
type MemoryStore struct {
	items map[Role]Persona
}

// NewMemoryStore copies items so later mutation of the argument is not observed.
func NewMemoryStore(items map[Role]Persona) *MemoryStore {
	copied := make(map[Role]Persona, len(items))
	for role, p := range items {
		copied[role] = p
	}
	return &MemoryStore{items: copied}
}

// ByRole returns the persona for role. Unknown roles yield the zero
// Persona, which carries no id and therefore no attribution.
func (s *MemoryStore) ByRole(role Role) Persona {
	return s.items[role]
}

// List returns the personas in role order.
func (s *MemoryStore) List() []Persona {
	out := make([]Persona, 0, len(Roles))
	for _, role := range Roles {
		if p, ok := s.items[role]; ok {
			out = append(out, p)
		}
	}
	return out
}
