package survey

import (
	"strconv"
	"strings"

	"github.com/zhouzirui/paw-relay/backend/internal/model/messenger"
	"github.com/zhouzirui/paw-relay/backend/internal/service/i18n"
)

// PayloadPrefix prefixes the satisfaction rating payloads CSAT_1..CSAT_5.
const PayloadPrefix = "CSAT_"

// MaxScore is the highest rating offered.
const MaxScore = 5

// Generator builds satisfaction survey units.
type Generator struct {
	catalog *i18n.Catalog
}

// NewGenerator returns a Generator using catalog for prompts.
func NewGenerator(catalog *i18n.Catalog) *Generator {
	return &Generator{catalog: catalog}
}

// AgentRating asks the user to rate agentName with a quick-reply scale.
func (g *Generator) AgentRating(agentName, locale string) messenger.Unit {
	options := make([]messenger.QuickReply, 0, MaxScore)
	for score := MaxScore; score >= 1; score-- {
		options = append(options, messenger.TextReply(
			strings.Repeat("⭐", score),
			Payload(score),
		))
	}

	return messenger.QuickReplies(
		g.catalog.T(locale, "survey.prompt", i18n.Vars{"agentFirstName": agentName}),
		options,
	)
}

// Payload returns the rating payload for score.
func Payload(score int) string {
	return PayloadPrefix + strconv.Itoa(score)
}

// ParseScore extracts the score from a rating payload.
func ParseScore(payload string) (int, bool) {
	raw, ok := strings.CutPrefix(payload, PayloadPrefix)
	if !ok {
		return 0, false
	}
	score, err := strconv.Atoi(raw)
	if err != nil || score < 1 || score > MaxScore {
		return 0, false
	}
	return score, true
}
