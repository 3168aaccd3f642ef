package agents

import (
	"github.com/talgya/bazaar/internal/llm"
	"github.com/talgya/bazaar/internal/negotiation"
)

// MemoryStore holds summaries of past negotiations for prompt injection.
type MemoryStore struct {
	memories []llm.Memory
	k        int
}

func NewMemoryStore(k int) *MemoryStore {
	if k <= 0 {
		k = 5
	}
	return &MemoryStore{k: k}
}

func (m *MemoryStore) Add(mem llm.Memory) {
	m.memories = append(m.memories, mem)
}

func (m *MemoryStore) Len() int { return len(m.memories) }

// Retrieve returns up to k relevant memories. Memories about the same
// item win; otherwise the most recent ones are used.
func (m *MemoryStore) Retrieve(itemName string) []llm.Memory {
	if len(m.memories) == 0 {
		return nil
	}
	if itemName != "" {
		var same []llm.Memory
		for _, mem := range m.memories {
			if mem.ItemName == itemName {
				same = append(same, mem)
			}
		}
		if len(same) > 0 {
			return lastK(same, m.k)
		}
	}
	return lastK(m.memories, m.k)
}

func lastK(mems []llm.Memory, k int) []llm.Memory {
	if len(mems) <= k {
		return mems
	}
	return mems[len(mems)-k:]
}

// MemoryAgent wraps the deliberative prompt with episodic memory: past
// negotiation summaries are injected ahead of the prompt, and each
// finished session is recorded with a rough opponent-style label.
type MemoryAgent struct {
	backend Generator
	memory  *MemoryStore
}

func NewMemoryAgent(backend Generator, store *MemoryStore) *MemoryAgent {
	if store == nil {
		store = NewMemoryStore(5)
	}
	return &MemoryAgent{backend: backend, memory: store}
}

func (a *MemoryAgent) Type() string { return "memory" }

func (a *MemoryAgent) Decide(ctx negotiation.Context) negotiation.Action {
	prompt := llm.BuildDeliberativePrompt(ctx)
	if text := llm.BuildMemoryContext(a.memory.Retrieve(ctx.Item.Name)); text != "" {
		prompt = text + "\n" + prompt
	}
	return callAndParse(a.backend, prompt, ctx)
}

// RecordOutcome stores a summary of a finished negotiation, tagging the
// opponent as eager, moderate, stubborn, or aggressive based on how the
// session ended.
func (a *MemoryAgent) RecordOutcome(result negotiation.Result) {
	var style string
	switch {
	case result.DealMade && result.RoundsTaken <= 3:
		style = "eager"
	case result.DealMade:
		style = "moderate"
	case result.Termination == negotiation.ReasonTimeout:
		style = "stubborn"
	default:
		style = "aggressive"
	}

	a.memory.Add(llm.Memory{
		ItemName:      result.Item.Name,
		DealMade:      result.DealMade,
		DealPrice:     result.DealPrice,
		Rounds:        result.RoundsTaken,
		OpponentStyle: style,
	})
}
