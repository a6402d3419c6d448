package survey

import (
	"testing"

	"github.com/zhouzirui/paw-relay/backend/internal/service/i18n"
)

func TestAgentRatingOffersFiveScores(t *testing.T) {
	catalog, err := i18n.Load("en_US")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	unit := NewGenerator(catalog).AgentRating("Jessica", "en_US")
	if unit.Message.Text != "How did Jessica do today?" {
		t.Fatalf("unexpected prompt %q", unit.Message.Text)
	}
	if len(unit.Message.QuickReplies) != MaxScore {
		t.Fatalf("expected %d options, got %d", MaxScore, len(unit.Message.QuickReplies))
	}
	if unit.Message.QuickReplies[0].Payload != "CSAT_5" {
		t.Fatalf("expected best score first, got %s", unit.Message.QuickReplies[0].Payload)
	}
}

func TestParseScore(t *testing.T) {
	cases := map[string]struct {
		score int
		ok    bool
	}{
		"CSAT_1":  {1, true},
		"CSAT_5":  {5, true},
		"CSAT_0":  {0, false},
		"CSAT_6":  {0, false},
		"CSAT_x":  {0, false},
		"SUPPORT": {0, false},
	}
	for payload, want := range cases {
		score, ok := ParseScore(payload)
		if score != want.score || ok != want.ok {
			t.Fatalf("ParseScore(%q) = %d, %v; want %d, %v", payload, score, ok, want.score, want.ok)
		}
	}
}
