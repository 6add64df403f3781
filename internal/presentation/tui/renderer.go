package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
// It uses a dark theme by default, but could be configurable.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Markdown describes the active step of a view: the progress of every step, the
// values of the section and the errors that blocked the last navigation.
func Markdown(view *stepper.View) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Step %d of %d: %s\n\n", view.Step, domain.StepReview, view.Step)

	sb.WriteString("| Step | Status |\n| --- | --- |\n")
	for key := domain.StepBasicDetails; key <= domain.StepReview; key++ {
		status := "-"
		if rec, ok := view.State.Step(key); ok {
			status = string(rec.Status)
			if rec.IsDirty {
				status += " (unsaved)"
			}
		}
		marker := ""
		if key == view.Step {
			marker = " ◀"
		}
		fmt.Fprintf(&sb, "| %d. %s%s | %s |\n", key, key, marker, status)
	}

	sb.WriteString("\n## Values\n\n")
	fields := flatten("", view.Values, nil)
	if len(fields) == 0 {
		sb.WriteString("_No values yet._\n")
	} else {
		sb.WriteString("| Field | Value |\n| --- | --- |\n")
		for _, f := range fields {
			fmt.Fprintf(&sb, "| `%s` | %s |\n", f.path, escape(f.value))
		}
	}

	if len(view.Errors) > 0 {
		sb.WriteString("\n## Errors\n\n")
		for _, err := range view.Errors {
			fmt.Fprintf(&sb, "- `%s`: %s\n", err.Field, err.Message)
		}
	}

	return sb.String()
}

type field struct {
	path  string
	value string
}

func flatten(prefix string, v any, out []field) []field {
	switch v := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			out = flatten(path, v[k], out)
		}
	case []any:
		for i, item := range v {
			out = flatten(fmt.Sprintf("%s[%d]", prefix, i), item, out)
		}
	case nil:
	case string:
		if v != "" {
			out = append(out, field{prefix, v})
		}
	default:
		out = append(out, field{prefix, fmt.Sprint(v)})
	}
	return out
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
