package negotiation

import (
	"fmt"

	"github.com/talgya/bazaar/internal/market"
)

// Verdict is the outcome of validating one action.
type Verdict struct {
	Valid         bool
	Reason        string
	ViolationKind string
}

func invalid(kind, format string, args ...any) Verdict {
	return Verdict{Reason: fmt.Sprintf(format, args...), ViolationKind: kind}
}

// Judge is the single legality gate for negotiation actions. It validates
// each action against the global price bounds and the acting party's
// economic constraints, corrects illegal first-round moves, and replaces
// invalid actions with a rejection plus an audit record. No other component
// may bypass it.
type Judge struct {
	MinPrice float64
	MaxPrice float64
}

// Validate checks an action against all hard constraints, in order: price
// presence, global bounds, then role-specific budget/value or cost limits.
// Rejections are always legal.
func (j Judge) Validate(role Role, action Action, buyer market.BuyerState, seller market.SellerState, lastOffer *float64, round int) Verdict {
	if action.Type == ActionOffer || action.Type == ActionCounter {
		if action.OfferPrice == nil {
			return invalid(ViolationLogic, "offer/counter must include a price")
		}
		price := *action.OfferPrice

		if price < j.MinPrice || price > j.MaxPrice {
			return invalid(ViolationBounds,
				"Price $%.2f outside bounds [$%.2f, $%.2f]", price, j.MinPrice, j.MaxPrice)
		}

		if role == RoleBuyer {
			if price > buyer.Budget {
				return invalid(ViolationBudget,
					"Buyer offer $%.2f exceeds budget $%.2f", price, buyer.Budget)
			}
			if price > buyer.Value {
				return invalid(ViolationBudget,
					"Buyer offer $%.2f exceeds value $%.2f", price, buyer.Value)
			}
		}

		if role == RoleSeller && price < seller.Cost {
			return invalid(ViolationCost,
				"Seller offer $%.2f below cost $%.2f", price, seller.Cost)
		}
	}

	if action.Type == ActionAccept {
		if lastOffer == nil {
			return invalid(ViolationLogic, "Cannot accept without a prior offer")
		}
		offer := *lastOffer
		if role == RoleBuyer {
			if offer > buyer.Budget {
				return invalid(ViolationBudget,
					"Cannot accept $%.2f: exceeds budget $%.2f", offer, buyer.Budget)
			}
			if offer > buyer.Value {
				return invalid(ViolationBudget,
					"Cannot accept $%.2f: exceeds value $%.2f", offer, buyer.Value)
			}
		}
		if role == RoleSeller && offer < seller.Cost {
			return invalid(ViolationCost,
				"Cannot accept $%.2f: below cost $%.2f", offer, seller.Cost)
		}
	}

	return Verdict{Valid: true}
}

// correctFirstRound rewrites illegal opening moves: a counter becomes an
// offer, and an accept/reject becomes an offer at a deterministic fallback
// price unless the action already carried one.
func (j Judge) correctFirstRound(action Action, role Role, buyer market.BuyerState, seller market.SellerState) Action {
	if action.Type == ActionCounter {
		action.Type = ActionOffer
	}
	if action.Type == ActionAccept || action.Type == ActionReject {
		price := action.OfferPrice
		if price == nil {
			fallback := market.Round2(buyer.Value * 0.5)
			if role == RoleSeller {
				fallback = market.Round2(seller.Cost * 1.5)
			}
			price = Price(fallback)
		}
		action = Action{
			Type:             ActionOffer,
			OfferPrice:       price,
			MessagePublic:    "Opening offer.",
			RationalePrivate: "Corrected from accept/reject on round 0.",
		}
	}
	return action
}

// Enforce applies the first-round correction policy, validates the result,
// and on violation substitutes a rejection while returning a risk event
// describing the attempted action. The session always completes.
func (j Judge) Enforce(role Role, action Action, buyer market.BuyerState, seller market.SellerState, lastOffer *float64, round, tick int) (Action, *RiskEvent) {
	if round == 0 {
		action = j.correctFirstRound(action, role, buyer, seller)
	}

	verdict := j.Validate(role, action, buyer, seller, lastOffer, round)
	if verdict.Valid {
		return action, nil
	}

	risk := &RiskEvent{
		Round:           round,
		Role:            role,
		ViolationKind:   verdict.ViolationKind,
		Reason:          verdict.Reason,
		AttemptedAction: action.Type,
		AttemptedPrice:  action.OfferPrice,
		Tick:            tick,
	}

	corrected := Action{
		Type:             ActionReject,
		MessagePublic:    "I cannot continue this negotiation.",
		RationalePrivate: "Auto-corrected: " + verdict.Reason,
	}
	return corrected, risk
}
