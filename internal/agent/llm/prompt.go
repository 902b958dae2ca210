package llm

import (
	"fmt"
	"strings"

	"github.com/feichai0017/docintel/internal/models"
)

const systemPrompt = `You classify business documents. Pick exactly one document type from the taxonomy and,
when that type lists sub-types, exactly one of its sub-types. Use "" as subType when the type has none.
Return ONLY a JSON object: {"type": string, "subType": string, "confidence": number between 0 and 1, "reasoning": string}.`

// BuildUserPrompt renders the taxonomy and the (truncated) document text
func BuildUserPrompt(text string, taxonomy []models.DocumentType, maxChars int) string {
	var b strings.Builder
	b.WriteString("Taxonomy:\n")
	for _, t := range taxonomy {
		fmt.Fprintf(&b, "- %s", t.Name)
		if t.Description != "" {
			fmt.Fprintf(&b, ": %s", t.Description)
		}
		b.WriteString("\n")
		for _, s := range t.SubTypes {
			fmt.Fprintf(&b, "  - %s", s.Name)
			if s.Description != "" {
				fmt.Fprintf(&b, ": %s", s.Description)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nDocument text:\n")
	if maxChars > 0 {
		if runes := []rune(text); len(runes) > maxChars {
			text = string(runes[:maxChars])
		}
	}
	b.WriteString(text)
	return b.String()
}
