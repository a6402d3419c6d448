// Package dispatch maps payload identifiers to response handlers.
//
// A Table is a fixed map from payload to Handler. Handlers are pure
// functions of the session and the immutable persona/locale configuration,
// so the same payload and session always produce the same response. A table
// that does not know a payload reports no match; the Router decides what
// to answer then.
package dispatch

import (
	"sort"

	"github.com/zhouzirui/paw-relay/backend/internal/model/messenger"
	"github.com/zhouzirui/paw-relay/backend/internal/model/persona"
	"github.com/zhouzirui/paw-relay/backend/internal/model/session"
	"github.com/zhouzirui/paw-relay/backend/internal/service/i18n"
	"github.com/zhouzirui/paw-relay/backend/internal/service/survey"
)

// Request is the input of a handler.
type Request struct {
	Session *session.Session
	Payload string
}

// Handler composes zero or more units for a request.
type Handler func(req Request) []messenger.Unit

// Deps is the read-only configuration shared by handlers.
type Deps struct {
	Personas persona.Store
	Catalog  *i18n.Catalog
	Survey   *survey.Generator
}

// t renders a catalog key in the session's locale.
func (d Deps) t(s *session.Session, key string, vars i18n.Vars) string {
	return d.Catalog.T(s.Locale(), key, vars)
}

// Table is a named payload -> handler map.
type Table struct {
	name     string
	handlers map[string]Handler
}

// NewTable copies handlers into a new table.
func NewTable(name string, handlers map[string]Handler) *Table {
	copied := make(map[string]Handler, len(handlers))
	for payload, h := range handlers {
		copied[payload] = h
	}
	return &Table{name: name, handlers: copied}
}

// Name identifies the table in logs and metrics.
func (t *Table) Name() string {
	return t.name
}

// Payloads lists the payloads this table answers, sorted.
func (t *Table) Payloads() []string {
	out := make([]string, 0, len(t.handlers))
	for payload := range t.handlers {
		out = append(out, payload)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the handler registered for req.Payload. The boolean is
// false when the payload is unknown to this table.
func (t *Table) Dispatch(req Request) (messenger.Response, bool) {
	h, ok := t.handlers[req.Payload]
	if !ok {
		return nil, false
	}
	return messenger.Response(h(req)), true
}
