package retrieval

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/medrag/pkg/unit"
)

// Separator is placed between units in aggregated context.
const Separator = "\n\n--- Retrieved Chunk ---\n\n"

// EmptyContext is the context used when nothing was retrieved for target.
func EmptyContext(target string) string {
	return fmt.Sprintf("No context retrieved from the targeted file: %s. Cannot generate analysis.", target)
}

// Aggregate renders retrieved units as a single context string, preserving
// their order.
func Aggregate(units []unit.Retrieved, target string) string {
	if len(units) == 0 {
		return EmptyContext(target)
	}

	parts := make([]string, 0, len(units))
	for _, u := range units {
		source := u.Metadata.Source
		if source == "" {
			source = "N/A"
		}
		modality := string(u.Metadata.Type)
		if modality == "" {
			modality = "unknown"
		}
		parts = append(parts, fmt.Sprintf("Source: %s (Type: %s, Score: %.4f)\nContent: %s",
			source, modality, u.Score, strings.TrimSpace(u.Text)))
	}
	return strings.Join(parts, Separator)
}
