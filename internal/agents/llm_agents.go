package agents

import (
	"log/slog"

	"github.com/talgya/bazaar/internal/llm"
	"github.com/talgya/bazaar/internal/market"
	"github.com/talgya/bazaar/internal/negotiation"
)

// Generator is the slice of the model backend the agents need.
type Generator interface {
	Generate(prompt string) (string, error)
}

// fallbackAction is the safe default when the model output cannot be
// parsed even after a retry. On the opening round it still makes a
// plausible offer so the session is not wasted; afterwards it rejects.
func fallbackAction(ctx negotiation.Context) negotiation.Action {
	if ctx.Round == 0 {
		var price float64
		if ctx.Role == negotiation.RoleBuyer {
			price = ctx.ReservationPrice * 0.6
			if ctx.Budget != nil && *ctx.Budget < price {
				price = *ctx.Budget
			}
		} else {
			price = ctx.ReservationPrice * 1.3
		}
		price = market.Round2(price)
		return negotiation.Action{
			Type:             negotiation.ActionOffer,
			OfferPrice:       &price,
			MessagePublic:    "Here's my opening offer.",
			RationalePrivate: "Fallback: LLM parsing failure.",
		}
	}
	return negotiation.Action{
		Type:             negotiation.ActionReject,
		MessagePublic:    "I'll have to pass.",
		RationalePrivate: "Fallback: LLM parsing failure.",
	}
}

// callAndParse runs the shared generate-parse-retry pipeline: one call,
// one retry with a format-error nudge, then the deterministic fallback.
// It never returns an error; sessions always get a usable action.
func callAndParse(backend Generator, prompt string, ctx negotiation.Context) negotiation.Action {
	raw, err := backend.Generate(prompt)
	if err != nil {
		slog.Error("llm backend error, using fallback", "error", err)
		return fallbackAction(ctx)
	}

	act, err := llm.ParseAction(raw)
	if err == nil {
		return act
	}
	slog.Warn("llm response rejected", "error", err)

	raw, err = backend.Generate(prompt + "\n\n" + llm.FormatErrorPrompt)
	if err != nil {
		slog.Error("llm backend error on retry, using fallback", "error", err)
		return fallbackAction(ctx)
	}

	act, err = llm.ParseAction(raw)
	if err == nil {
		return act
	}
	slog.Error("llm failed to produce valid JSON after retry, using fallback", "error", err)
	return fallbackAction(ctx)
}

// ReactiveAgent is the single-shot model agent: one prompt, one action.
type ReactiveAgent struct {
	backend Generator
}

func NewReactiveAgent(backend Generator) *ReactiveAgent {
	return &ReactiveAgent{backend: backend}
}

func (a *ReactiveAgent) Type() string { return "llm_reactive" }

func (a *ReactiveAgent) Decide(ctx negotiation.Context) negotiation.Action {
	return callAndParse(a.backend, llm.BuildReactivePrompt(ctx), ctx)
}

// DeliberativeAgent forces structured belief, target, and strategy
// reasoning inside the rationale_private field before the model commits
// to an action.
type DeliberativeAgent struct {
	backend Generator
}

func NewDeliberativeAgent(backend Generator) *DeliberativeAgent {
	return &DeliberativeAgent{backend: backend}
}

func (a *DeliberativeAgent) Type() string { return "llm_deliberative" }

func (a *DeliberativeAgent) Decide(ctx negotiation.Context) negotiation.Action {
	return callAndParse(a.backend, llm.BuildDeliberativePrompt(ctx), ctx)
}
