package agents

import (
	"fmt"

	"github.com/talgya/bazaar/internal/market"
	"github.com/talgya/bazaar/internal/negotiation"
)

// RuleBasedAgent plays a linear-concession strategy: it opens
// aggressively and concedes toward its reservation price as rounds pass.
// It needs no model backend and is fully deterministic.
type RuleBasedAgent struct{}

func NewRuleBasedAgent() *RuleBasedAgent { return &RuleBasedAgent{} }

func (a *RuleBasedAgent) Type() string { return "rule_based" }

func (a *RuleBasedAgent) Decide(ctx negotiation.Context) negotiation.Action {
	if ctx.Role == negotiation.RoleBuyer {
		return a.decideBuyer(ctx)
	}
	return a.decideSeller(ctx)
}

func (a *RuleBasedAgent) decideBuyer(ctx negotiation.Context) negotiation.Action {
	// a zero budget means unset; the value alone caps the buyer
	cap := ctx.ReservationPrice
	if ctx.Budget != nil && *ctx.Budget > 0 && *ctx.Budget < cap {
		cap = *ctx.Budget
	}

	initial := cap * 0.5
	progress := float64(ctx.Round) / float64(max(ctx.MaxRounds-1, 1))
	target := initial + (cap-initial)*progress

	if ctx.LastOffer != nil && *ctx.LastOffer <= target {
		return negotiation.Action{
			Type:             negotiation.ActionAccept,
			MessagePublic:    "I accept your offer.",
			RationalePrivate: fmt.Sprintf("Offer $%.2f <= target $%.2f", *ctx.LastOffer, target),
		}
	}

	if ctx.Round >= ctx.MaxRounds-1 {
		if ctx.LastOffer != nil && *ctx.LastOffer <= cap {
			return negotiation.Action{
				Type:             negotiation.ActionAccept,
				MessagePublic:    "Fine, I'll take it.",
				RationalePrivate: "Last round, accepting within constraints.",
			}
		}
		return negotiation.Action{
			Type:             negotiation.ActionReject,
			MessagePublic:    "We couldn't reach an agreement.",
			RationalePrivate: "Last round, offer exceeds constraints.",
		}
	}

	price := market.Round2(min(target, cap))
	kind := negotiation.ActionCounter
	if ctx.Round == 0 {
		kind = negotiation.ActionOffer
	}
	return negotiation.Action{
		Type:             kind,
		OfferPrice:       &price,
		MessagePublic:    fmt.Sprintf("I propose $%.2f.", price),
		RationalePrivate: fmt.Sprintf("target=%.2f cap=%.2f progress=%.2f", target, cap, progress),
	}
}

func (a *RuleBasedAgent) decideSeller(ctx negotiation.Context) negotiation.Action {
	// a zero margin means unset; fall back to the stock 15%
	cost := ctx.ReservationPrice
	margin := 0.15
	if ctx.TargetMargin != nil && *ctx.TargetMargin > 0 {
		margin = *ctx.TargetMargin
	}

	initial := cost * (1 + 2*margin)
	progress := float64(ctx.Round) / float64(max(ctx.MaxRounds-1, 1))
	target := initial - (initial-cost)*progress

	if ctx.LastOffer != nil && *ctx.LastOffer >= target {
		return negotiation.Action{
			Type:             negotiation.ActionAccept,
			MessagePublic:    "Deal!",
			RationalePrivate: fmt.Sprintf("Offer $%.2f >= target $%.2f", *ctx.LastOffer, target),
		}
	}

	if ctx.Round >= ctx.MaxRounds-1 {
		if ctx.LastOffer != nil && *ctx.LastOffer >= cost {
			return negotiation.Action{
				Type:             negotiation.ActionAccept,
				MessagePublic:    "Alright, let's close this deal.",
				RationalePrivate: "Last round, accepting above cost.",
			}
		}
		return negotiation.Action{
			Type:             negotiation.ActionReject,
			MessagePublic:    "Sorry, we can't agree on a price.",
			RationalePrivate: "Last round, offer below cost.",
		}
	}

	price := market.Round2(max(target, cost))
	kind := negotiation.ActionCounter
	if ctx.Round == 0 {
		kind = negotiation.ActionOffer
	}
	return negotiation.Action{
		Type:             kind,
		OfferPrice:       &price,
		MessagePublic:    fmt.Sprintf("How about $%.2f?", price),
		RationalePrivate: fmt.Sprintf("target=%.2f cost=%.2f progress=%.2f", target, cost, progress),
	}
}
