package intent

import "testing"

func TestAnalyzeGreeting(t *testing.T) {
	decision := Analyze("Hi there!")
	if decision.Intent != Greeting {
		t.Fatalf("expected greeting, got %q", decision.Intent)
	}
}

func TestAnalyzeBillingBeatsHelp(t *testing.T) {
	decision := Analyze("I need help with my invoice")
	if decision.Intent != Billing {
		t.Fatalf("expected billing, got %q", decision.Intent)
	}
}

func TestAnalyzeGermanOrder(t *testing.T) {
	decision := Analyze("Wo ist meine Bestellung?")
	if decision.Intent != Order {
		t.Fatalf("expected order, got %q", decision.Intent)
	}
}

func TestAnalyzeWordBoundaries(t *testing.T) {
	// "this" contains "hi" but must not count as a greeting.
	decision := Analyze("this")
	if decision.Matched() {
		t.Fatalf("expected no match, got %q", decision.Intent)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	if Analyze("   ").Matched() {
		t.Fatal("expected empty text to match nothing")
	}
}
