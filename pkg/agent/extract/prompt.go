package extract

import (
	"fmt"
	"strings"
)

const systemInstruction = "You are an intake analyzer for a medical equipment maintenance assistant. " +
	"You extract structured facts from a technician's message. You never invent values: " +
	"a field you cannot find in the message is simply absent."

// outputSchema is the JSON Schema the completion service validates its
// structured output against.
const outputSchema = `{
  "type": "object",
  "properties": {
    "manufacturer": {"type": "string"},
    "equipment_name": {"type": "string"},
    "error_code": {"type": "string"},
    "symptom": {"type": "string"},
    "asset_tag": {"type": "string"},
    "department": {"type": "string"},
    "needs_clarification": {"type": "boolean"},
    "clarification_message": {"type": "string"},
    "is_non_medical": {"type": "boolean"}
  },
  "required": ["needs_clarification", "is_non_medical"],
  "additionalProperties": false
}`

func composePrompt(currentTurn string) string {
	var prompt strings.Builder

	prompt.WriteString("<extraction_task>\n")
	prompt.WriteString("From the user's message below, extract the following fields when present:\n")
	prompt.WriteString("  manufacturer: equipment maker (e.g. \"Drager\", \"GE Healthcare\")\n")
	prompt.WriteString("  equipment_name: device model or family (e.g. \"Evita V500\")\n")
	prompt.WriteString("  error_code: displayed error or alarm code (e.g. \"E-112\")\n")
	prompt.WriteString("  symptom: free-text failure description in the user's words\n")
	prompt.WriteString("  asset_tag: internal inventory tag (e.g. \"ICU-0042\")\n")
	prompt.WriteString("  department: hospital department mentioned (e.g. \"ICU\", \"Radiology\")\n")
	prompt.WriteString("</extraction_task>\n\n")

	prompt.WriteString("<decision_rules>\n")
	prompt.WriteString("Set is_non_medical=true when the request is NOT about medical equipment\n")
	prompt.WriteString("maintenance (office IT, personal devices, general chit-chat).\n")
	prompt.WriteString("Set needs_clarification=true ONLY when the message gives neither an\n")
	prompt.WriteString("identifiable device nor a usable symptom; put a short follow-up question\n")
	prompt.WriteString("in clarification_message. Prefer extracting over asking.\n")
	prompt.WriteString("</decision_rules>\n\n")

	prompt.WriteString("<user_message>\n")
	prompt.WriteString(currentTurn)
	prompt.WriteString("\n</user_message>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON matching the field names above. Omit fields\n")
	prompt.WriteString("you did not find. No preamble, no explanation outside the JSON.\n")
	prompt.WriteString("</output_format>\n")

	return prompt.String()
}

// ClarificationFallback is the deterministic message used when extraction
// fails structurally and no model-authored clarification exists.
func ClarificationFallback() string {
	return fmt.Sprintf(
		"Could you tell me a bit more about the equipment? %s",
		"The manufacturer, model, and any error code on the display all help.",
	)
}
