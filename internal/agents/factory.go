package agents

import (
	"fmt"

	"github.com/talgya/bazaar/internal/negotiation"
)

// Factory builds agents by type name. Memory agents created through the
// same factory share one store per side, so experience accumulates
// across sessions and ticks.
type Factory struct {
	Backend      Generator
	BuyerMemory  *MemoryStore
	SellerMemory *MemoryStore
}

func NewFactory(backend Generator, memoryK int) *Factory {
	return &Factory{
		Backend:      backend,
		BuyerMemory:  NewMemoryStore(memoryK),
		SellerMemory: NewMemoryStore(memoryK),
	}
}

// New returns an agent of the given kind for the given role.
func (f *Factory) New(kind string, role negotiation.Role) (negotiation.Agent, error) {
	switch kind {
	case "rule_based":
		return NewRuleBasedAgent(), nil
	case "llm_reactive":
		if f.Backend == nil {
			return nil, fmt.Errorf("agent type %q requires an llm backend", kind)
		}
		return NewReactiveAgent(f.Backend), nil
	case "llm_deliberative":
		if f.Backend == nil {
			return nil, fmt.Errorf("agent type %q requires an llm backend", kind)
		}
		return NewDeliberativeAgent(f.Backend), nil
	case "memory":
		if f.Backend == nil {
			return nil, fmt.Errorf("agent type %q requires an llm backend", kind)
		}
		store := f.BuyerMemory
		if role == negotiation.RoleSeller {
			store = f.SellerMemory
		}
		return NewMemoryAgent(f.Backend, store), nil
	default:
		return nil, fmt.Errorf("unknown agent type %q", kind)
	}
}
