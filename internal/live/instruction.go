package live

import (
	"fmt"
	"strings"

	"github.com/yoockh/barta/internal/models"
)

// SystemInstruction primes the voice agent with the current intent and the
// knowledge base.
func SystemInstruction(intent string, templates []models.Template) string {
	kb := make([]string, 0, len(templates))
	for _, t := range templates {
		kb = append(kb, t.Name+": "+t.Content)
	}
	return fmt.Sprintf("You are Barta-AI, a professional voice agent.\n"+
		"Current Context Focus: %s.\n"+
		"Knowledge Base: %s.\n"+
		"If the user asks about %s, prioritize information from the relevant knowledge base items.\n"+
		"Be helpful, concise, and professional.",
		intent, strings.Join(kb, "; "), intent)
}
