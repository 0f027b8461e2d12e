package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/presentation/tui"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/runner"
	tea "github.com/charmbracelet/bubbletea"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	SessionID string
	JSON      bool
	Quiet     bool
	Fresh     bool

	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
}

// Execute runs the line-oriented calculator until the input ends.
func Execute(ctx context.Context, stack *Stack, opts RunOptions) error {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	quiet := opts.Quiet || opts.JSON
	interactive := runner.IsTerminal(opts.Stdin) && runner.IsTerminal(opts.Stdout)

	if opts.Fresh && opts.SessionID != "" {
		if err := stack.Sessions.Delete(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session %s: %w", opts.SessionID, err)
		}
	}

	if !quiet && interactive {
		tui.PrintBanner(opts.Stdout)
	}
	if !quiet && opts.SessionID != "" && !stack.Shared {
		printSystemMessage(opts.Stdout, "No redis configured: session '%s' ends with this process.", opts.SessionID)
	}

	r := runner.NewRunner(createRunnerOptions(stack, opts, interactive)...)
	err := r.Run(ctx)

	if !quiet && err == nil && opts.SessionID != "" && stack.Shared {
		printSystemMessage(opts.Stdout, "Session '%s' saved.", opts.SessionID)
	}
	return handleExecutionError(err)
}

// createRunnerOptions prepares the functional options for the Runner.
func createRunnerOptions(stack *Stack, opts RunOptions, interactive bool) []runner.Option {
	ropts := []runner.Option{
		runner.WithEngine(stack.Engine),
		runner.WithLogger(stack.Logger),
	}

	if opts.SessionID != "" {
		ropts = append(ropts,
			runner.WithSessionID(opts.SessionID),
			runner.WithStore(stack.Sessions),
		)
	}

	if opts.JSON {
		ropts = append(ropts, runner.WithInputHandler(runner.NewJSONHandler(opts.Stdin, opts.Stdout)))
	} else {
		var hopts []runner.TextHandlerOption
		if interactive {
			hopts = append(hopts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
		}
		ropts = append(ropts, runner.WithInputHandler(runner.NewTextHandler(opts.Stdin, opts.Stdout, hopts...)))
	}

	return ropts
}

// RunTUI starts the full-screen keypad. With a session ID the session is
// resumed and saved after every key.
func RunTUI(ctx context.Context, stack *Stack, sessionID string) error {
	var sess *abacus.Session
	var appOpts []tui.AppOption

	if sessionID == "" {
		sess = stack.Engine.NewSession("")
	} else {
		state, err := stack.Sessions.LoadOrStart(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to init session: %w", err)
		}
		sess = stack.Engine.Resume(state)
		appOpts = append(appOpts, tui.WithSaveFunc(func(ctx context.Context, st *domain.State) error {
			return stack.Sessions.Save(ctx, sessionID, st)
		}))
	}

	err := tui.NewApp(ctx, sess, appOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return handleExecutionError(err)
}
