// Package negotiation implements the alternating-offers protocol: the
// session state machine, the action judge that keeps agent behavior
// economically legal, and the result/transcript model.
package negotiation

import (
	"time"

	"github.com/talgya/bazaar/internal/market"
)

// Role identifies which side of the table is acting.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// ActionType is the kind of move an agent makes in one round.
type ActionType string

const (
	ActionOffer   ActionType = "offer"
	ActionCounter ActionType = "counter"
	ActionAccept  ActionType = "accept"
	ActionReject  ActionType = "reject"
)

// Action is one move produced by a decision strategy. OfferPrice is nil for
// accept/reject. The judge may replace the whole action before it is
// recorded.
type Action struct {
	Type             ActionType `json:"action"`
	OfferPrice       *float64   `json:"offer_price"`
	MessagePublic    string     `json:"message_public"`
	RationalePrivate string     `json:"rationale_private"`
}

// Price returns a new optional price value.
func Price(v float64) *float64 {
	return &v
}

// Turn is one recorded move. Immutable once appended to a transcript.
type Turn struct {
	Round     int       `json:"round"`
	Role      Role      `json:"role"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// TerminationReason classifies how a session ended.
type TerminationReason string

const (
	ReasonAccepted TerminationReason = "accepted"
	ReasonRejected TerminationReason = "rejected"
	ReasonTimeout  TerminationReason = "timeout"
	// ReasonInvalid is reserved for wire compatibility; the judge's
	// substitution policy terminates illegal sessions as rejected instead.
	ReasonInvalid TerminationReason = "invalid"
)

// Violation kinds recorded in risk events.
const (
	ViolationBounds = "bounds"
	ViolationBudget = "budget"
	ViolationCost   = "cost"
	ViolationLogic  = "logic"
)

// RiskEvent records a constraint violation that was caught and corrected.
type RiskEvent struct {
	Round           int        `json:"round"`
	Role            Role       `json:"role"`
	ViolationKind   string     `json:"violation_type"`
	Reason          string     `json:"reason"`
	AttemptedAction ActionType `json:"attempted_action"`
	AttemptedPrice  *float64   `json:"attempted_price"`
	Tick            int        `json:"time_step"`
}

// Result is the terminal record of one session. Created exactly once by
// Session.Run and never mutated after.
type Result struct {
	Item          market.Item       `json:"item"`
	BuyerID       string            `json:"buyer_id"`
	SellerID      string            `json:"seller_id"`
	DealMade      bool              `json:"deal_made"`
	DealPrice     *float64          `json:"deal_price"`
	Termination   TerminationReason `json:"termination_reason"`
	RoundsTaken   int               `json:"rounds_taken"`
	Transcript    []Turn            `json:"history"`
	BuyerValue    float64           `json:"buyer_value"`
	SellerCost    float64           `json:"seller_cost"`
	BuyerSurplus  float64           `json:"buyer_surplus"`
	SellerSurplus float64           `json:"seller_surplus"`
	RiskEvents    []RiskEvent       `json:"risk_events"`
	Tick          int               `json:"time_step"`
}

// Context is the information visible to a decision strategy when acting.
// The transcript is a copy; mutating it has no effect on the session.
type Context struct {
	Item             market.Item
	Role             Role
	Round            int
	MaxRounds        int
	History          []Turn
	LastOffer        *float64
	ReservationPrice float64  // value for buyer, cost for seller
	Budget           *float64 // buyer only
	TargetMargin     *float64 // seller only
}

// Agent is the decision capability consulted each round. Decide must always
// return a structurally valid action; strategies map their own internal
// failures to safe fallback actions rather than surfacing errors here.
type Agent interface {
	Decide(ctx Context) Action
	Type() string
}

// OutcomeRecorder is an optional capability for strategies that learn across
// sessions. Absence is not an error.
type OutcomeRecorder interface {
	RecordOutcome(r Result)
}

// TurnLogger receives each recorded turn as it happens. Used for positional
// event logging; may be nil.
type TurnLogger interface {
	LogTurn(turn Turn, tick int, itemID, buyerID, sellerID string)
}
