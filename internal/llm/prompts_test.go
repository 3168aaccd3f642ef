package llm

import (
	"strings"
	"testing"

	"github.com/talgya/bazaar/internal/market"
	"github.com/talgya/bazaar/internal/negotiation"
)

func promptCtx(role negotiation.Role) negotiation.Context {
	budget := 120.0
	margin := 0.2
	offer := 85.5
	ctx := negotiation.Context{
		Item:      market.Item{ID: "item_000", Name: "Widget A", ReferencePrice: 90},
		Role:      role,
		Round:     2,
		MaxRounds: 10,
		LastOffer: &offer,
		History: []negotiation.Turn{
			{Round: 0, Role: negotiation.RoleBuyer, Action: negotiation.Action{
				Type: negotiation.ActionOffer, OfferPrice: negotiation.Price(50), MessagePublic: "opening",
			}},
			{Round: 1, Role: negotiation.RoleSeller, Action: negotiation.Action{
				Type: negotiation.ActionCounter, OfferPrice: &offer, MessagePublic: "too low",
			}},
		},
	}
	if role == negotiation.RoleBuyer {
		ctx.ReservationPrice = 100
		ctx.Budget = &budget
	} else {
		ctx.ReservationPrice = 60
		ctx.TargetMargin = &margin
	}
	return ctx
}

func TestBuildReactivePromptBuyer(t *testing.T) {
	p := BuildReactivePrompt(promptCtx(negotiation.RoleBuyer))
	for _, want := range []string{
		`You are a buyer negotiating over "Widget A" (reference price $90.00)`,
		"Your maximum willingness-to-pay (value): $100.00",
		"Your budget limit: $120.00",
		"Hard ceiling (min of value, budget): $100.00",
		"Round 3 of 10.",
		"Opponent's last offer: $85.50",
		"Round 0: buyer offer at $50.00",
		"Round 1: seller counter at $85.50",
		"Respond with ONLY the JSON object.",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestBuildReactivePromptSellerFirstMove(t *testing.T) {
	ctx := promptCtx(negotiation.RoleSeller)
	ctx.Round = 0
	ctx.LastOffer = nil
	ctx.History = nil

	p := BuildReactivePrompt(ctx)
	for _, want := range []string{
		"You are a seller",
		"Your minimum acceptable price (cost): $60.00",
		"Your target profit margin: 20%",
		"Opponent's last offer: None (you go first)",
		"(none yet)",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestBuildDeliberativePrompt(t *testing.T) {
	p := BuildDeliberativePrompt(promptCtx(negotiation.RoleSeller))
	for _, want := range []string{
		"Round 3/10 (7 rounds remaining after this).",
		"1. BELIEFS",
		"2. TARGET",
		"3. STRATEGY",
		"4. ACTION",
		"Put ALL reasoning inside rationale_private.",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestBuildMemoryContext(t *testing.T) {
	if got := BuildMemoryContext(nil); got != "" {
		t.Fatalf("empty memories should give empty context, got %q", got)
	}

	price := 72.0
	text := BuildMemoryContext([]Memory{
		{ItemName: "Widget A", DealMade: true, DealPrice: &price, Rounds: 3, OpponentStyle: "eager"},
		{ItemName: "Gadget B", DealMade: false, Rounds: 10},
	})
	for _, want := range []string{
		"past negotiation experiences",
		"1. Item: Widget A | Outcome: DEAL at $72.00 | Rounds: 3 | Opponent style: eager",
		"2. Item: Gadget B | Outcome: NO DEAL | Rounds: 10 | Opponent style: unknown",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("memory context missing %q:\n%s", want, text)
		}
	}
}
