package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/internal/presentation/graph"
	"github.com/aretw0/stepper/internal/presentation/tui"
	"github.com/aretw0/stepper/pkg/domain"
)

const help = `Commands:
  set <path>=<value>   edit a field, e.g. set contacts.legal.email=legal@acme.example
  next                 validate the step and move forward
  prev                 move back one step
  jump <step>          go to a step by number or section name
  reset [section]      reset a section (default: the current one, "all" for everything)
  show                 render the current step
  validate             check the current step without moving
  state                print the wizard state as JSON
  graph                print the progress as a Mermaid flowchart
  status               fetch the network submission status
  clear                drop the form and start over
  quit                 leave the wizard (progress is kept)`

// Shell is the line-oriented front-end of a session.
type Shell struct {
	stepper *stepper.Stepper
	lines   <-chan string
	out     io.Writer
	render  func(string) (string, error)
}

// NewShell creates a shell over the stepper. Render turns markdown into terminal
// output and may be nil for plain markdown.
func NewShell(st *stepper.Stepper, lines <-chan string, out io.Writer, render func(string) (string, error)) *Shell {
	if render == nil {
		render = func(md string) (string, error) { return md, nil }
	}
	return &Shell{stepper: st, lines: lines, out: out, render: render}
}

// Run shows the current step and executes commands until quit, end of input or
// cancellation.
func (s *Shell) Run(ctx context.Context) error {
	s.show()
	for {
		fmt.Fprint(s.out, "> ")

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-s.lines:
			if !ok {
				return errInterrupted
			}
			line = l
		}

		quit, err := s.Exec(ctx, line)
		if err != nil {
			if isInterrupted(err) {
				return err
			}
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Exec runs a single command.
func (s *Shell) Exec(ctx context.Context, line string) (quit bool, err error) {
	line, err = SanitizeLine(line)
	if err != nil {
		return false, err
	}
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "q", "quit", "exit":
		return true, nil
	case "help", "?":
		fmt.Fprintln(s.out, help)
		return false, nil
	case "show", "view":
		s.show()
		return false, nil

	case "set":
		path, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return false, errors.New("usage: set <path>=<value>")
		}
		if err := s.stepper.SetValue(ctx, strings.TrimSpace(path), parseValue(strings.TrimSpace(raw))); err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "%s updated\n", strings.TrimSpace(path))
		return false, nil

	case "next", "n":
		return false, s.navigate(s.stepper.NextStep(ctx, nil))
	case "prev", "previous", "back", "p":
		return false, s.navigate(s.stepper.PreviousStep(ctx, nil))
	case "jump", "j":
		target, err := domain.ParseStepKey(arg)
		if err != nil {
			return false, err
		}
		return false, s.navigate(s.stepper.JumpToStep(ctx, target))

	case "reset":
		section := s.stepper.State().CurrentStep.Section()
		if arg != "" {
			if section, err = domain.ParseSection(arg); err != nil {
				return false, err
			}
		}
		if err := s.stepper.ResetSection(ctx, section); err != nil {
			return false, err
		}
		s.show()
		return false, nil

	case "clear":
		if err := s.stepper.ClearStepperState(ctx); err != nil {
			return false, err
		}
		s.show()
		return false, nil

	case "validate":
		result, err := s.stepper.Validate()
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "%s: %s\n", result.Step, tui.Status(string(result.Status())))
		for _, e := range result.Errors {
			fmt.Fprintf(s.out, "  - %s: %s\n", e.Field, e.Message)
		}
		return false, nil

	case "state":
		data, err := json.MarshalIndent(s.stepper.State(), "", "  ")
		if err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, string(data))
		return false, nil

	case "graph":
		fmt.Fprint(s.out, graph.GenerateMermaid(s.stepper.State()))
		return false, nil

	case "status":
		status, err := s.stepper.SubmitStatus(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "testnet: %s\nmainnet: %s\n", orNever(status.TestnetSubmitted), orNever(status.MainnetSubmitted))
		return false, nil
	}

	return false, fmt.Errorf("unknown command %q (type help)", cmd)
}

// navigate reports a blocked navigation as validation feedback and shows the
// resulting step otherwise.
func (s *Shell) navigate(err error) error {
	var navErr *stepper.NavigationError
	switch {
	case errors.As(err, &navErr):
		fmt.Fprintf(s.out, "Staying on step %d (%s).\n", navErr.From, navErr.From)
		for _, e := range navErr.Errors {
			fmt.Fprintf(s.out, "  - %s: %s\n", e.Field, e.Message)
		}
		return nil
	case errors.Is(err, domain.ErrNavigationDeclined):
		fmt.Fprintln(s.out, "Navigation cancelled.")
		return nil
	case err != nil:
		return err
	}
	s.show()
	return nil
}

func (s *Shell) show() {
	view, err := s.stepper.View()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	out, err := s.render(tui.Markdown(view))
	if err != nil {
		out = tui.Markdown(view)
	}
	fmt.Fprint(s.out, out)
}

// parseValue keeps scalars as text, the form decoder converts them, and decodes
// JSON lists and objects.
func parseValue(raw string) any {
	if strings.HasPrefix(raw, "[") || strings.HasPrefix(raw, "{") {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v
		}
	}
	return raw
}

func orNever(ts string) string {
	if ts == "" {
		return "not submitted"
	}
	return ts
}
