package llm

import (
	"fmt"
	"strings"

	"github.com/talgya/bazaar/internal/negotiation"
)

func formatHistory(history []negotiation.Turn) string {
	if len(history) == 0 {
		return "  (none yet)"
	}
	var b strings.Builder
	for i, turn := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		if turn.Action.OfferPrice != nil {
			fmt.Fprintf(&b, "  Round %d: %s %s at $%.2f - %q",
				turn.Round, turn.Role, turn.Action.Type, *turn.Action.OfferPrice, turn.Action.MessagePublic)
		} else {
			fmt.Fprintf(&b, "  Round %d: %s %s - %q",
				turn.Round, turn.Role, turn.Action.Type, turn.Action.MessagePublic)
		}
	}
	return b.String()
}

func buyerConstraints(ctx negotiation.Context) string {
	budget := ctx.ReservationPrice
	if ctx.Budget != nil {
		budget = *ctx.Budget
	}
	cap := ctx.ReservationPrice
	if budget < cap {
		cap = budget
	}
	return fmt.Sprintf(
		"Your maximum willingness-to-pay (value): $%.2f\n"+
			"Your budget limit: $%.2f\n"+
			"Hard ceiling (min of value, budget): $%.2f\n"+
			"Goal: buy as CHEAPLY as possible. Never offer above $%.2f.",
		ctx.ReservationPrice, budget, cap, cap)
}

func sellerConstraints(ctx negotiation.Context) string {
	var margin float64
	if ctx.TargetMargin != nil {
		margin = *ctx.TargetMargin
	}
	return fmt.Sprintf(
		"Your minimum acceptable price (cost): $%.2f\n"+
			"Your target profit margin: %.0f%%\n"+
			"Goal: sell as EXPENSIVELY as possible. Never offer or accept below $%.2f.",
		ctx.ReservationPrice, margin*100, ctx.ReservationPrice)
}

func constraintsFor(ctx negotiation.Context) string {
	if ctx.Role == negotiation.RoleBuyer {
		return buyerConstraints(ctx)
	}
	return sellerConstraints(ctx)
}

func lastOfferLine(ctx negotiation.Context) string {
	if ctx.LastOffer != nil {
		return fmt.Sprintf("$%.2f", *ctx.LastOffer)
	}
	return "None (you go first)"
}

// BuildReactivePrompt produces a single-shot prompt asking for the next
// action given the public negotiation state.
func BuildReactivePrompt(ctx negotiation.Context) string {
	return fmt.Sprintf(
		"You are a %s negotiating over %q (reference price $%.2f).\n\n"+
			"%s\n\n"+
			"Round %d of %d.\n"+
			"Opponent's last offer: %s\n\n"+
			"History:\n%s\n\n"+
			"%s\n\n"+
			"Decide your next action. Respond with ONLY the JSON object.",
		ctx.Role, ctx.Item.Name, ctx.Item.ReferencePrice,
		constraintsFor(ctx),
		ctx.Round+1, ctx.MaxRounds,
		lastOfferLine(ctx),
		formatHistory(ctx.History),
		SchemaDescription)
}

// BuildDeliberativePrompt adds an explicit reasoning scaffold that the
// model is told to keep inside rationale_private.
func BuildDeliberativePrompt(ctx negotiation.Context) string {
	remaining := ctx.MaxRounds - ctx.Round - 1
	return fmt.Sprintf(
		"You are a %s negotiating for %q (ref price $%.2f).\n\n"+
			"%s\n\n"+
			"Round %d/%d (%d rounds remaining after this).\n"+
			"Opponent's last offer: %s\n\n"+
			"History:\n%s\n\n"+
			"Before deciding, reason through these steps INSIDE your rationale_private field:\n"+
			"1. BELIEFS - What is the opponent's likely reservation price?\n"+
			"2. TARGET  - What price would be ideal given remaining rounds?\n"+
			"3. STRATEGY - Concede, hold firm, accept, or reject?\n"+
			"4. ACTION  - Specific action and price.\n\n"+
			"%s\n\n"+
			"Respond with ONLY the JSON object. Put ALL reasoning inside rationale_private.",
		ctx.Role, ctx.Item.Name, ctx.Item.ReferencePrice,
		constraintsFor(ctx),
		ctx.Round+1, ctx.MaxRounds, remaining,
		lastOfferLine(ctx),
		formatHistory(ctx.History),
		SchemaDescription)
}

// Memory is a summarized past negotiation injected into prompts by
// memory-augmented agents.
type Memory struct {
	ItemName      string
	DealMade      bool
	DealPrice     *float64
	Rounds        int
	OpponentStyle string
}

// BuildMemoryContext formats past experiences for prompt injection.
// Returns the empty string when there is nothing to recall.
func BuildMemoryContext(memories []Memory) string {
	if len(memories) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Your past negotiation experiences (most relevant first):\n")
	for i, mem := range memories {
		outcome := "NO DEAL"
		if mem.DealMade {
			outcome = "DEAL"
		}
		price := ""
		if mem.DealPrice != nil {
			price = fmt.Sprintf(" at $%.2f", *mem.DealPrice)
		}
		style := mem.OpponentStyle
		if style == "" {
			style = "unknown"
		}
		fmt.Fprintf(&b, "  %d. Item: %s | Outcome: %s%s | Rounds: %d | Opponent style: %s\n",
			i+1, mem.ItemName, outcome, price, mem.Rounds, style)
	}
	return b.String()
}
