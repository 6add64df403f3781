package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/aretw0/stepper/internal/config"
	"github.com/aretw0/stepper/internal/presentation/tui"
	"github.com/aretw0/stepper/pkg/ports"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	SessionID string
	Fresh     bool
	Debug     bool
	In        io.Reader
	Out       io.Writer
}

// Execute opens the session and drives it from the terminal until the user quits.
func Execute(parent context.Context, cfg *config.Config, opts RunOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.Debug {
		cfg.Log.Level = "debug"
	}

	ctx := NewSignalContext(parent)
	defer ctx.Cancel()

	logger := CreateLogger(cfg.Log)
	lines := readLines(ctx, opts.In)

	notify := ports.NotifyFunc(func(_ context.Context, n ports.Notification) {
		if n.Err != nil {
			printSystemMessage(opts.Out, "[%s] %s: %s (%v)", n.Level, n.Title, n.Message, n.Err)
			return
		}
		printSystemMessage(opts.Out, "[%s] %s: %s", n.Level, n.Title, n.Message)
	})

	stack, err := NewStack(cfg, logger, NewPromptConfirmer(lines, opts.Out), notify)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.Warn("close cache", "err", err)
		}
	}()

	if opts.Fresh {
		if err := stack.Engine.Cache().Clear(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("reset session %s: %w", opts.SessionID, err)
		}
	}

	st, err := stack.Engine.Open(ctx, opts.SessionID)
	if err != nil {
		return handleExecutionError(err)
	}

	interactive := isTerminal(opts.In) && isTerminal(opts.Out)
	render := func(md string) (string, error) { return md, nil }
	if interactive {
		tui.PrintBanner(opts.Out)
		render = tui.NewRenderer()
	}
	printSystemMessage(opts.Out, "Session %s (type help for commands)", opts.SessionID)
	logger.Debug("session opened", slog.String("session_id", opts.SessionID), slog.Bool("interactive", interactive))

	err = NewShell(st, lines, opts.Out, render).Run(ctx)
	if sig := ctx.Signal(); sig != nil {
		printSystemMessage(opts.Out, "Received %v, progress is kept in session %s", sig, opts.SessionID)
	}
	return handleExecutionError(err)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
