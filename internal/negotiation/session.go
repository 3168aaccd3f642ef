package negotiation

import (
	"time"

	"github.com/talgya/bazaar/internal/market"
)

// SessionConfig carries the protocol parameters for one session.
type SessionConfig struct {
	MaxRounds int
	MinPrice  float64
	MaxPrice  float64
	Tick      int
	TurnLog   TurnLogger // optional
}

// Session runs one complete buyer/seller negotiation over one item. It owns
// the transcript, the standing offer, and the round counter for its
// lifetime; validation is delegated to the Judge.
//
// Rounds alternate strictly: even rounds are the buyer's, odd rounds the
// seller's. Accepting settles at the opponent's most recent standing offer.
type Session struct {
	buyerAgent  Agent
	sellerAgent Agent
	item        market.Item
	buyer       market.BuyerState
	seller      market.SellerState
	cfg         SessionConfig
	judge       Judge

	transcript []Turn
	riskEvents []RiskEvent
	lastOffer  *float64
	complete   bool
	result     *Result
}

// NewSession builds a session; Run drives it to a terminal outcome.
func NewSession(buyerAgent, sellerAgent Agent, item market.Item, buyer market.BuyerState, seller market.SellerState, cfg SessionConfig) *Session {
	return &Session{
		buyerAgent:  buyerAgent,
		sellerAgent: sellerAgent,
		item:        item,
		buyer:       buyer,
		seller:      seller,
		cfg:         cfg,
		judge:       Judge{MinPrice: cfg.MinPrice, MaxPrice: cfg.MaxPrice},
	}
}

// Complete reports whether Run has finished.
func (s *Session) Complete() bool {
	return s.complete
}

// Result returns the terminal record, or nil before Run completes.
func (s *Session) Result() *Result {
	return s.result
}

// Run executes the full negotiation and returns the terminal result.
func (s *Session) Run() Result {
	for round := 0; round < s.cfg.MaxRounds; round++ {
		role := RoleBuyer
		agent := s.buyerAgent
		if round%2 == 1 {
			role = RoleSeller
			agent = s.sellerAgent
		}

		action := agent.Decide(s.context(role, round))

		action, risk := s.judge.Enforce(role, action, s.buyer, s.seller, s.lastOffer, round, s.cfg.Tick)
		if risk != nil {
			s.riskEvents = append(s.riskEvents, *risk)
		}

		turn := Turn{
			Round:     round,
			Role:      role,
			Action:    action,
			Timestamp: time.Now(),
		}
		s.transcript = append(s.transcript, turn)

		if s.cfg.TurnLog != nil {
			s.cfg.TurnLog.LogTurn(turn, s.cfg.Tick, s.item.ID, s.buyer.ID, s.seller.ID)
		}

		switch action.Type {
		case ActionAccept:
			return s.finish(s.settle(round + 1))
		case ActionReject:
			return s.finish(s.build(false, nil, round+1, ReasonRejected, 0, 0))
		}

		if action.OfferPrice != nil {
			s.lastOffer = action.OfferPrice
		}
	}

	return s.finish(s.build(false, nil, s.cfg.MaxRounds, ReasonTimeout, 0, 0))
}

// context exposes an immutable view of the session to the acting strategy.
func (s *Session) context(role Role, round int) Context {
	history := make([]Turn, len(s.transcript))
	copy(history, s.transcript)

	ctx := Context{
		Item:      s.item,
		Role:      role,
		Round:     round,
		MaxRounds: s.cfg.MaxRounds,
		History:   history,
		LastOffer: s.lastOffer,
	}
	if role == RoleBuyer {
		ctx.ReservationPrice = s.buyer.Value
		ctx.Budget = Price(s.buyer.Budget)
	} else {
		ctx.ReservationPrice = s.seller.Cost
		ctx.TargetMargin = Price(s.seller.TargetMargin)
	}
	return ctx
}

// settle closes a deal at the opponent's last standing offer and computes
// both surpluses from it. The judge guarantees the price is feasible for
// both sides, so the formulas are applied directly.
func (s *Session) settle(rounds int) Result {
	var buyerSurplus, sellerSurplus float64
	if s.lastOffer != nil {
		buyerSurplus = s.buyer.Value - *s.lastOffer
		sellerSurplus = *s.lastOffer - s.seller.Cost
	}
	return s.build(true, s.lastOffer, rounds, ReasonAccepted, buyerSurplus, sellerSurplus)
}

func (s *Session) build(dealMade bool, price *float64, rounds int, reason TerminationReason, buyerSurplus, sellerSurplus float64) Result {
	return Result{
		Item:          s.item,
		BuyerID:       s.buyer.ID,
		SellerID:      s.seller.ID,
		DealMade:      dealMade,
		DealPrice:     price,
		Termination:   reason,
		RoundsTaken:   rounds,
		Transcript:    s.transcript,
		BuyerValue:    s.buyer.Value,
		SellerCost:    s.seller.Cost,
		BuyerSurplus:  buyerSurplus,
		SellerSurplus: sellerSurplus,
		RiskEvents:    s.riskEvents,
		Tick:          s.cfg.Tick,
	}
}

func (s *Session) finish(r Result) Result {
	s.result = &r
	s.complete = true
	return r
}
