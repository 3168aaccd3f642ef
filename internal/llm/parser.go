package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/talgya/bazaar/internal/negotiation"
)

var (
	fenceRe        = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\n?\\s*```")
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKeyRe  = regexp.MustCompile(`([{,])\s*(\w+)\s*:`)
	validActionSet = map[string]negotiation.ActionType{
		"offer":   negotiation.ActionOffer,
		"counter": negotiation.ActionCounter,
		"accept":  negotiation.ActionAccept,
		"reject":  negotiation.ActionReject,
	}
)

// ExtractJSON pulls a JSON object out of raw model output that may carry
// surrounding prose, markdown fences, or minor syntax glitches.
//
// It tries, in order: a direct parse, each fenced code block, the widest
// brace-delimited span, and a heuristic repair of that span.
func ExtractJSON(text string) (map[string]any, bool) {
	text = strings.TrimSpace(text)

	if obj, ok := tryUnmarshal(text); ok {
		return obj, true
	}

	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		if obj, ok := tryUnmarshal(strings.TrimSpace(m[1])); ok {
			return obj, true
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		candidate := text[start : end+1]
		if obj, ok := tryUnmarshal(candidate); ok {
			return obj, true
		}
		if obj, ok := attemptRepair(candidate); ok {
			return obj, true
		}
	}
	return nil, false
}

func tryUnmarshal(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// attemptRepair applies best-effort fixups for common model mistakes:
// single quotes, trailing commas, and unquoted keys.
func attemptRepair(s string) (map[string]any, bool) {
	s = strings.ReplaceAll(s, "'", `"`)
	s = trailingComma.ReplaceAllString(s, "$1")
	s = unquotedKeyRe.ReplaceAllString(s, `$1 "$2":`)
	return tryUnmarshal(s)
}

// ValidateAction checks obj against the action schema and applies the
// permitted coercions: a non-null price on accept/reject is dropped, and
// message fields are stringified. A nil error means obj is usable.
func ValidateAction(obj map[string]any) error {
	for _, key := range []string{"action", "offer_price", "message_public", "rationale_private"} {
		if _, ok := obj[key]; !ok {
			return fmt.Errorf("missing required field: %s", key)
		}
	}

	action, _ := obj["action"].(string)
	if _, ok := validActionSet[action]; !ok {
		return fmt.Errorf("invalid action %q", action)
	}

	price := obj["offer_price"]
	switch action {
	case "offer", "counter":
		num, ok := price.(float64)
		if !ok {
			return fmt.Errorf("offer_price must be a number for action %q", action)
		}
		if num <= 0 {
			return fmt.Errorf("offer_price must be positive")
		}
	case "accept", "reject":
		if price != nil {
			obj["offer_price"] = nil
		}
	}

	if _, ok := obj["message_public"].(string); !ok {
		obj["message_public"] = fmt.Sprint(obj["message_public"])
	}
	if _, ok := obj["rationale_private"].(string); !ok {
		obj["rationale_private"] = fmt.Sprint(obj["rationale_private"])
	}

	if err := actionSchema.Validate(obj); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}

// ToAction converts a validated object into a negotiation action.
func ToAction(obj map[string]any) negotiation.Action {
	act := negotiation.Action{
		Type:             validActionSet[obj["action"].(string)],
		MessagePublic:    obj["message_public"].(string),
		RationalePrivate: obj["rationale_private"].(string),
	}
	if num, ok := obj["offer_price"].(float64); ok {
		act.OfferPrice = &num
	}
	return act
}

// ParseAction runs the full extract-validate-convert pipeline on raw
// model output.
func ParseAction(text string) (negotiation.Action, error) {
	obj, ok := ExtractJSON(text)
	if !ok {
		return negotiation.Action{}, fmt.Errorf("no JSON object found in response")
	}
	if err := ValidateAction(obj); err != nil {
		return negotiation.Action{}, err
	}
	return ToAction(obj), nil
}
