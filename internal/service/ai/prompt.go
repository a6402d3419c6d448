package ai

import (
	"fmt"
	"strings"
)

// PromptTemplate defines the system prompt used for one locale.
type PromptTemplate struct {
	SystemPrompt string
	ContextRules []string
}

// templates 按语言区分，缺省使用 en_US。
var templates = map[string]PromptTemplate{
	"en_US": {
		SystemPrompt: `You are %s, a customer care agent for Cologne.Dog, a shop for dog accessories. You are chatting with %s on Messenger.`,
		ContextRules: []string{
			"Answer in English in at most three short sentences.",
			"Stay friendly and on topic; for orders, billing or sales, suggest typing \"help\" to open the support menu.",
			"Never invent order numbers, prices or delivery dates.",
		},
	},
	"de_DE": {
		SystemPrompt: `Du bist %s, Kundenbetreuung bei Cologne.Dog, einem Shop für Hundezubehör. Du chattest mit %s im Messenger.`,
		ContextRules: []string{
			"Antworte auf Deutsch in höchstens drei kurzen Sätzen.",
			"Bleib freundlich und beim Thema; bei Bestellungen, Rechnungen oder Verkauf empfiehl \"Hilfe\" zu schreiben.",
			"Erfinde keine Bestellnummern, Preise oder Liefertermine.",
		},
	},
}

// BuildSystemPrompt renders the system prompt for the agent talking to the user.
func BuildSystemPrompt(agentName, userFirstName, locale string) string {
	tpl, ok := templates[locale]
	if !ok {
		tpl = templates["en_US"]
	}

	if userFirstName == "" {
		userFirstName = "a customer"
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(tpl.SystemPrompt, agentName, userFirstName))
	builder.WriteString("\n\n")
	for _, rule := range tpl.ContextRules {
		builder.WriteString("- ")
		builder.WriteString(rule)
		builder.WriteString("\n")
	}
	return strings.TrimRight(builder.String(), "\n")
}
