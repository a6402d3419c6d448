package dispatch

import (
	"strconv"

	"github.com/zhouzirui/paw-relay/backend/internal/model/messenger"
	"github.com/zhouzirui/paw-relay/backend/internal/model/persona"
	"github.com/zhouzirui/paw-relay/backend/internal/service/i18n"
	"github.com/zhouzirui/paw-relay/backend/internal/service/survey"
)

// Rating thanks the user for a satisfaction score.
func Rating(d Deps) *Table {
	thank := func(req Request) []messenger.Unit {
		score, ok := survey.ParseScore(req.Payload)
		if !ok {
			return nil
		}
		agent := d.Personas.ByRole(persona.Care)
		return []messenger.Unit{messenger.TextWithPersona(
			d.t(req.Session, "survey.confirmation", i18n.Vars{"score": strconv.Itoa(score)}),
			agent.ID,
		)}
	}

	handlers := make(map[string]Handler, survey.MaxScore)
	for score := 1; score <= survey.MaxScore; score++ {
		handlers[survey.Payload(score)] = thank
	}
	return NewTable("survey", handlers)
}
