package dispatch

import (
	"github.com/zhouzirui/paw-relay/backend/internal/model/messenger"
	"github.com/zhouzirui/paw-relay/backend/internal/service/i18n"
)

// GetStarted is the payload of the Messenger "Get Started" button.
const GetStarted = "GET_STARTED"

// Menu answers the entry points of a conversation.
func Menu(d Deps) *Table {
	return NewTable("menu", map[string]Handler{
		GetStarted: func(req Request) []messenger.Unit {
			s := req.Session
			return []messenger.Unit{messenger.QuickReplies(
				d.t(s, "get_started.welcome", i18n.Vars{"userFirstName": s.FirstName()}),
				[]messenger.QuickReply{
					messenger.TextReply(d.t(s, "get_started.help", nil), SupportHelp),
					messenger.TextReply(d.t(s, "get_started.sales", nil), SupportSales),
				},
			)}
		},
	})
}
