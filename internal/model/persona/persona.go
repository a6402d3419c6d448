package persona

import "github.com/zhouzirui/paw-relay/backend/internal/config"

// Role names a responder identity.
type Role string

const (
	Billing Role = "billing"
	Order   Role = "order"
	Sales   Role = "sales"
	Care    Role = "care"
)

// Roles lists every known role in display order.
var Roles = []Role{Billing, Order, Sales, Care}

// Persona is a responder identity provisioned on the page.
type Persona struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Attributed reports whether messages can carry this persona's id.
func (p Persona) Attributed() bool {
	return p.ID != ""
}

// Seed builds the role table from configuration.
func Seed(cfg config.PersonaConfig) map[Role]Persona {
	return map[Role]Persona{
		Billing: {ID: cfg.Billing.ID, Name: cfg.Billing.Name},
		Order:   {ID: cfg.Order.ID, Name: cfg.Order.Name},
		Sales:   {ID: cfg.Sales.ID, Name: cfg.Sales.Name},
		Care:    {ID: cfg.Care.ID, Name: cfg.Care.Name},
	}
}
