package intent

import "strings"

// Label is a coarse intent recognised in free text.
type Label string

const (
	None     Label = ""
	Greeting Label = "greeting"
	Help     Label = "help"
	Order    Label = "order"
	Billing  Label = "billing"
	Sales    Label = "sales"
	Goodbye  Label = "goodbye"
)

// Decision is the best-scoring intent for an utterance.
type Decision struct {
	Intent Label
	Score  int
}

// Matched reports whether any intent scored.
func (d Decision) Matched() bool {
	return d.Intent != None && d.Score > 0
}

var keywordBuckets = map[Label][]string{
	Greeting: {
		"hi", "hello", "hey", "hallo", "moin", "servus", "good morning", "guten tag", "get started", "start",
	},
	Help: {
		"help", "support", "problem", "issue", "question", "hilfe", "frage", "agent", "human", "mensch",
	},
	Order: {
		"order", "delivery", "shipping", "package", "tracking", "where is my", "bestellung", "lieferung",
		"paket", "versand", "sendung",
	},
	Billing: {
		"bill", "billing", "invoice", "refund", "charge", "payment", "paid", "rechnung", "zahlung",
		"erstattung", "abbuchung",
	},
	Sales: {
		"buy", "price", "cost", "offer", "discount", "size", "collar", "leash", "harness", "kaufen",
		"preis", "angebot", "größe", "halsband", "leine", "geschirr",
	},
	Goodbye: {
		"bye", "goodbye", "thanks", "thank you", "that's all", "tschüss", "danke", "ciao",
	},
}

// Specific intents outrank generic ones on equal score.
var priority = map[Label]int{
	Billing:  6,
	Order:    5,
	Sales:    4,
	Help:     3,
	Goodbye:  2,
	Greeting: 1,
}

// Analyze scores text against the keyword buckets. Single words match on
// word boundaries, phrases on substrings.
func Analyze(text string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Decision{}
	}

	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(normalized, isSeparator) {
		words[w] = true
	}

	scores := make(map[Label]int)
	for label, keywords := range keywordBuckets {
		for _, kw := range keywords {
			if strings.Contains(kw, " ") {
				if strings.Contains(normalized, kw) {
					scores[label] += 3
				}
				continue
			}
			if words[kw] {
				scores[label] += 2
			}
		}
	}

	best := Decision{}
	for label, score := range scores {
		if score > best.Score || (score == best.Score && priority[label] > priority[best.Intent]) {
			best = Decision{Intent: label, Score: score}
		}
	}
	return best
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', ',', '.', '!', '?', ';', ':', '"', '(', ')':
		return true
	}
	return false
}
