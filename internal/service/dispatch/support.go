package dispatch

import (
	"github.com/zhouzirui/paw-relay/backend/internal/model/messenger"
	"github.com/zhouzirui/paw-relay/backend/internal/model/persona"
	"github.com/zhouzirui/paw-relay/backend/internal/service/i18n"
)

// Support payloads.
const (
	SupportHelp    = "SUPPORT_HELP"
	SupportOrder   = "SUPPORT_ORDER"
	SupportInquiry = "SUPPORT_INQUIRY"
	SupportBilling = "SUPPORT_BILLING"
	SupportSales   = "SUPPORT_SALES"
	SupportOther   = "SUPPORT_OTHER"
	SupportEnd     = "SUPPORT_END"
)

// Support answers the customer support menu. Each topic is handed to the
// persona responsible for it.
func Support(d Deps) *Table {
	return NewTable("support", map[string]Handler{
		SupportHelp: func(req Request) []messenger.Unit {
			s := req.Session
			return []messenger.Unit{messenger.QuickReplies(
				d.t(s, "support.prompt", i18n.Vars{"userFirstName": s.FirstName()}),
				[]messenger.QuickReply{
					messenger.TextReply(d.t(s, "support.order", nil), SupportOrder),
					messenger.TextReply(d.t(s, "support.inquiry", nil), SupportInquiry),
					messenger.TextReply(d.t(s, "support.billing", nil), SupportBilling),
					messenger.TextReply(d.t(s, "support.other", nil), SupportOther),
				},
			)}
		},
		SupportOrder:   d.issue(persona.Order, "support.order"),
		SupportInquiry: d.issue(persona.Order, "support.order"),
		SupportBilling: d.issue(persona.Billing, "support.billing"),
		SupportSales: func(req Request) []messenger.Unit {
			agent := d.Personas.ByRole(persona.Sales)
			return []messenger.Unit{messenger.TextWithPersona(
				d.t(req.Session, "support.style", i18n.Vars{
					"userFirstName":  req.Session.FirstName(),
					"agentFirstName": agent.Name,
				}),
				agent.ID,
			)}
		},
		SupportOther: func(req Request) []messenger.Unit {
			agent := d.Personas.ByRole(persona.Care)
			return []messenger.Unit{messenger.TextWithPersona(
				d.t(req.Session, "support.default", i18n.Vars{
					"userFirstName":  req.Session.FirstName(),
					"agentFirstName": agent.Name,
				}),
				agent.ID,
			)}
		},
		SupportEnd: func(req Request) []messenger.Unit {
			agent := d.Personas.ByRole(persona.Care)
			return []messenger.Unit{
				messenger.TextWithPersona(d.t(req.Session, "support.end", nil), agent.ID),
				d.Survey.AgentRating(agent.Name, req.Session.Locale()),
			}
		},
	})
}

// issue hands a topic to the persona for role.
func (d Deps) issue(role persona.Role, topicKey string) Handler {
	return func(req Request) []messenger.Unit {
		agent := d.Personas.ByRole(role)
		return []messenger.Unit{messenger.TextWithPersona(
			d.t(req.Session, "support.issue", i18n.Vars{
				"userFirstName":  req.Session.FirstName(),
				"agentFirstName": agent.Name,
				"topic":          d.t(req.Session, topicKey, nil),
			}),
			agent.ID,
		)}
	}
}
