package llm

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// actionSchemaJSON is the structural contract for model-produced actions.
// Price feasibility against budgets and costs is the judge's job; the
// schema only guards shape.
const actionSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["action", "offer_price", "message_public", "rationale_private"],
  "properties": {
    "action": {"enum": ["offer", "counter", "accept", "reject"]},
    "offer_price": {"type": ["number", "null"]}
  },
  "if": {
    "properties": {"action": {"enum": ["offer", "counter"]}}
  },
  "then": {
    "properties": {"offer_price": {"type": "number", "exclusiveMinimum": 0}}
  }
}`

var actionSchema = jsonschema.MustCompileString("action.schema.json", actionSchemaJSON)

// SchemaDescription is appended to every prompt so the model knows the
// required output shape.
const SchemaDescription = `You MUST respond with ONLY a JSON object (no markdown, no extra text) matching this schema:
{
  "action": "offer" | "counter" | "accept" | "reject",
  "offer_price": <number or null>,
  "message_public": "<message to opponent>",
  "rationale_private": "<your private reasoning>"
}
Rules:
- action must be one of: "offer", "counter", "accept", "reject"
- If action is "offer" or "counter", offer_price must be a positive number
- If action is "accept" or "reject", offer_price must be null
- message_public is shown to your opponent
- rationale_private is private and NOT shown to anyone`

// FormatErrorPrompt is the retry nudge used after an unparseable response.
const FormatErrorPrompt = `Your previous response was NOT valid JSON. You MUST respond with ONLY a valid JSON object.
Do NOT wrap it in markdown code blocks. Do NOT include any text before or after the JSON.

Required format:
{
  "action": "offer" | "counter" | "accept" | "reject",
  "offer_price": <number or null>,
  "message_public": "<string>",
  "rationale_private": "<string>"
}`
