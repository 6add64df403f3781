package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/stepper/pkg/ports"
)

// PromptConfirmer answers the navigation gates by asking on the terminal. It reads
// the answer from the same line feed as the shell.
type PromptConfirmer struct {
	lines <-chan string
	out   io.Writer
}

// NewPromptConfirmer creates a confirmer reading answers from lines.
func NewPromptConfirmer(lines <-chan string, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{lines: lines, out: out}
}

func (p *PromptConfirmer) Confirm(ctx context.Context, req ports.ConfirmRequest) (ports.Decision, error) {
	switch req.Kind {
	case ports.ConfirmIncomplete:
		fmt.Fprintf(p.out, "Step %d (%s) has missing or invalid fields: %s\n", req.Step, req.Step, strings.Join(req.Fields, ", "))
		answer, err := p.ask(ctx, "Continue anyway? [y/N] ")
		if err != nil {
			return ports.DecisionCancel, err
		}
		if answer == "y" || answer == "yes" {
			return ports.DecisionContinue, nil
		}
		return ports.DecisionCancel, nil

	case ports.ConfirmUnsaved:
		fmt.Fprintf(p.out, "Step %d (%s) has unsaved changes.\n", req.Step, req.Step)
		for {
			answer, err := p.ask(ctx, "[s]ave, [d]iscard or [c]ancel? ")
			if err != nil {
				return ports.DecisionCancel, err
			}
			switch answer {
			case "s", "save":
				return ports.DecisionSave, nil
			case "d", "discard":
				return ports.DecisionDiscard, nil
			case "", "c", "cancel":
				return ports.DecisionCancel, nil
			}
		}
	}
	return ports.DecisionCancel, nil
}

func (p *PromptConfirmer) ask(ctx context.Context, question string) (string, error) {
	fmt.Fprint(p.out, question)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			return "", errInterrupted
		}
		// An unreadable answer counts as no answer.
		clean, _ := SanitizeLine(line)
		return strings.ToLower(strings.TrimSpace(clean)), nil
	}
}
