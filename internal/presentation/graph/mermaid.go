package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepper/pkg/domain"
)

// statusClasses maps a step status to its Mermaid class.
var statusClasses = map[domain.StepStatus]string{
	domain.StatusComplete:   "complete",
	domain.StatusError:      "error",
	domain.StatusIncomplete: "incomplete",
	domain.StatusProgress:   "progress",
	domain.StatusSave:       "progress",
	domain.StatusNext:       "progress",
}

// GenerateMermaid produces a Mermaid flowchart of the wizard's progress:
// - Visited steps: [Rectangle] labelled with their status
// - Unvisited steps: ([Stadium])
// - The review step: {{Hexagon}}
// Steps are styled by status and the current step is highlighted.
func GenerateMermaid(state domain.StepperState) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for key := domain.StepBasicDetails; key <= domain.StepReview; key++ {
		id := nodeID(key)
		rec, visited := state.Step(key)

		opener, closer := "([", "])"
		switch {
		case key == domain.StepReview:
			opener, closer = "{{", "}}"
		case visited:
			opener, closer = "[", "]"
		}

		label := fmt.Sprintf("%d. %s", key, key)
		if visited {
			label += fmt.Sprintf(" <br/> %s", rec.Status)
			if n := len(rec.MissingFields); n > 0 {
				label += fmt.Sprintf(" (%d missing)", n)
			}
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

		if key < domain.StepReview {
			fmt.Fprintf(&sb, "    %s --> %s\n", id, nodeID(key+1))
		}
	}

	sb.WriteString("\n    %% Progress Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef complete fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef progress fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef incomplete fill:#fff3e0,stroke:#ef6c00,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef error fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current stroke:#fbc02d,stroke-width:4px;\n")

	for _, rec := range state.Steps {
		if class, ok := statusClasses[rec.Status]; ok && rec.Key.Valid() {
			fmt.Fprintf(&sb, "    class %s %s;\n", nodeID(rec.Key), class)
		}
		if rec.IsDirty && rec.Key.Valid() {
			fmt.Fprintf(&sb, "    style %s stroke-dasharray: 5 5;\n", nodeID(rec.Key))
		}
	}
	if state.CurrentStep.Valid() {
		fmt.Fprintf(&sb, "    class %s current;\n", nodeID(state.CurrentStep))
	}

	return sb.String()
}

func nodeID(key domain.StepKey) string {
	return fmt.Sprintf("step%d", key)
}
