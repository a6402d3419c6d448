package persona

import (
	"testing"

	"github.com/zhouzirui/paw-relay/backend/internal/config"
)

func TestSeedAndList(t *testing.T) {
	store := NewMemoryStore(Seed(config.PersonaConfig{
		Billing: config.PersonaEntry{ID: "p-billing", Name: "Riley"},
		Order:   config.PersonaEntry{Name: "Peter"},
		Sales:   config.PersonaEntry{ID: "p-sales", Name: "Laura"},
		Care:    config.PersonaEntry{ID: "p-care", Name: "Jessica"},
	}))

	list := store.List()
	if len(list) != len(Roles) {
		t.Fatalf("expected %d personas, got %d", len(Roles), len(list))
	}
	want := []string{"Riley", "Peter", "Laura", "Jessica"}
	for i, p := range list {
		if p.Name != want[i] {
			t.Fatalf("expected %s at %d, got %s", want[i], i, p.Name)
		}
	}

	if store.ByRole(Order).Attributed() {
		t.Fatalf("expected order persona without id to be unattributed")
	}
	if !store.ByRole(Care).Attributed() {
		t.Fatalf("expected care persona to be attributed")
	}
}

func TestUnknownRoleIsZero(t *testing.T) {
	store := NewMemoryStore(nil)
	if p := store.ByRole(Billing); p.Attributed() || p.Name != "" {
		t.Fatalf("expected zero persona, got %+v", p)
	}
	if len(store.List()) != 0 {
		t.Fatalf("expected empty list")
	}
}

func TestStoreCopiesInput(t *testing.T) {
	items := map[Role]Persona{Care: {ID: "p-care", Name: "Jessica"}}
	store := NewMemoryStore(items)
	items[Care] = Persona{ID: "changed"}

	if got := store.ByRole(Care).ID; got != "p-care" {
		t.Fatalf("expected p-care, got %s", got)
	}
}
