package llm

import (
	"testing"

	"github.com/talgya/bazaar/internal/negotiation"
)

func TestExtractJSONDirect(t *testing.T) {
	obj, ok := ExtractJSON(`{"action": "offer", "offer_price": 42.5, "message_public": "hi", "rationale_private": "r"}`)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if obj["action"] != "offer" {
		t.Fatalf("action = %v", obj["action"])
	}
}

func TestExtractJSONMarkdownFence(t *testing.T) {
	text := "Sure, here is my move:\n```json\n{\"action\": \"accept\", \"offer_price\": null, \"message_public\": \"deal\", \"rationale_private\": \"good price\"}\n```\nHope that helps!"
	obj, ok := ExtractJSON(text)
	if !ok {
		t.Fatal("expected fenced JSON to parse")
	}
	if obj["action"] != "accept" {
		t.Fatalf("action = %v", obj["action"])
	}
}

func TestExtractJSONBraceSpan(t *testing.T) {
	text := `I think I'll counter. {"action": "counter", "offer_price": 75, "message_public": "meet me halfway", "rationale_private": "anchor"} That's my final answer.`
	obj, ok := ExtractJSON(text)
	if !ok {
		t.Fatal("expected embedded JSON to parse")
	}
	if obj["offer_price"].(float64) != 75 {
		t.Fatalf("offer_price = %v", obj["offer_price"])
	}
}

func TestExtractJSONRepair(t *testing.T) {
	// single quotes, unquoted keys, trailing comma
	text := `{action: 'offer', offer_price: 10.5, message_public: 'take it', rationale_private: 'opening',}`
	obj, ok := ExtractJSON(text)
	if !ok {
		t.Fatal("expected repair to succeed")
	}
	if obj["action"] != "offer" || obj["offer_price"].(float64) != 10.5 {
		t.Fatalf("repaired object = %v", obj)
	}
}

func TestExtractJSONGarbage(t *testing.T) {
	if _, ok := ExtractJSON("I refuse to answer in JSON."); ok {
		t.Fatal("expected failure on non-JSON text")
	}
}

func TestValidateActionMissingField(t *testing.T) {
	obj := map[string]any{"action": "offer", "offer_price": 5.0, "message_public": "x"}
	if err := ValidateAction(obj); err == nil {
		t.Fatal("expected missing-field error")
	}
}

func TestValidateActionBadAction(t *testing.T) {
	obj := map[string]any{
		"action": "haggle", "offer_price": 5.0,
		"message_public": "x", "rationale_private": "y",
	}
	if err := ValidateAction(obj); err == nil {
		t.Fatal("expected invalid-action error")
	}
}

func TestValidateActionOfferNeedsPrice(t *testing.T) {
	obj := map[string]any{
		"action": "offer", "offer_price": nil,
		"message_public": "x", "rationale_private": "y",
	}
	if err := ValidateAction(obj); err == nil {
		t.Fatal("expected error for offer without price")
	}
}

func TestValidateActionNegativePrice(t *testing.T) {
	obj := map[string]any{
		"action": "counter", "offer_price": -3.0,
		"message_public": "x", "rationale_private": "y",
	}
	if err := ValidateAction(obj); err == nil {
		t.Fatal("expected error for non-positive price")
	}
}

func TestValidateActionCoercesAcceptPrice(t *testing.T) {
	obj := map[string]any{
		"action": "accept", "offer_price": 99.0,
		"message_public": "x", "rationale_private": "y",
	}
	if err := ValidateAction(obj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["offer_price"] != nil {
		t.Fatalf("expected price nulled on accept, got %v", obj["offer_price"])
	}
}

func TestValidateActionStringifiesMessages(t *testing.T) {
	obj := map[string]any{
		"action": "reject", "offer_price": nil,
		"message_public": 12.0, "rationale_private": true,
	}
	if err := ValidateAction(obj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := obj["message_public"].(string); !ok {
		t.Fatal("message_public not coerced to string")
	}
}

func TestParseActionRoundTrip(t *testing.T) {
	act, err := ParseAction(`{"action": "counter", "offer_price": 88.25, "message_public": "closer", "rationale_private": "concede slowly"}`)
	if err != nil {
		t.Fatalf("ParseAction: %v", err)
	}
	if act.Type != negotiation.ActionCounter {
		t.Fatalf("type = %v", act.Type)
	}
	if act.OfferPrice == nil || *act.OfferPrice != 88.25 {
		t.Fatalf("price = %v", act.OfferPrice)
	}
	if act.MessagePublic != "closer" {
		t.Fatalf("message = %q", act.MessagePublic)
	}
}

func TestParseActionRejectHasNilPrice(t *testing.T) {
	act, err := ParseAction(`{"action": "reject", "offer_price": null, "message_public": "no", "rationale_private": "too low"}`)
	if err != nil {
		t.Fatalf("ParseAction: %v", err)
	}
	if act.Type != negotiation.ActionReject || act.OfferPrice != nil {
		t.Fatalf("act = %+v", act)
	}
}
