package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/ports"
)

// ErrNoEngine is returned by Run when the runner was built without WithEngine.
var ErrNoEngine = errors.New("runner: no engine configured")

// Runner handles the read-eval-print loop of one calculator session.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler on Stdin/Stdout is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Store persists the session after every line.
	// If nil, sessions are ephemeral.
	Store ports.StateStore

	// SessionID names the session in Store.
	SessionID string

	// InterruptSource behaves like Ctrl+C when it fires.
	InterruptSource <-chan struct{}

	engine  *abacus.Engine
	session *abacus.Session
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Session returns the session driven by the last Run, or nil before Run.
func (r *Runner) Session() *abacus.Session {
	return r.session
}

// Run executes the loop until the input is exhausted, the user quits or ctx is done.
//
// An interrupt (SIGINT or InterruptSource) clears the current expression; a
// second interrupt on an idle session ends the loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.engine == nil {
		return ErrNoEngine
	}

	// 1. Setup Phase
	handler := r.resolveHandler()
	sess, err := r.resolveSession(ctx)
	if err != nil {
		return err
	}
	r.session = sess

	signals := NewSignalManager()
	defer signals.Stop()

	// 2. Loop
	for {
		line, interrupted, err := r.read(ctx, handler, signals)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if interrupted {
			if sess.Mode() == domain.ModeIdle {
				r.Logger.Debug("runner interrupted on idle session, leaving")
				return nil
			}
			r.Logger.Debug("runner interrupted, clearing expression", "buffer", sess.Buffer())
			sess.Clear()
			signals.Reset()
			if err := r.commit(ctx, handler, sess); err != nil {
				return err
			}
			continue
		}

		quit, err := r.handleLine(ctx, handler, sess, line)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// read waits for the next line. interrupted is true when a signal or the
// interrupt source cancelled the read. Host cancellation is reported as io.EOF.
func (r *Runner) read(ctx context.Context, handler IOHandler, signals *SignalManager) (string, bool, error) {
	inputCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(signals.Context(), cancel)
	defer stop()

	if r.InterruptSource != nil {
		go func() {
			select {
			case <-r.InterruptSource:
				cancel()
			case <-inputCtx.Done():
			}
		}()
	}

	line, err := handler.Input(inputCtx)
	if err == nil {
		return line, false, nil
	}
	if ctx.Err() != nil {
		return "", false, io.EOF
	}

	// Ctrl+C may surface as a read error just before the signal context is cancelled.
	signals.CheckRace()
	if inputCtx.Err() != nil {
		return "", true, nil
	}
	if errors.Is(err, io.EOF) {
		return "", false, io.EOF
	}
	return "", false, fmt.Errorf("input error: %w", err)
}

func (r *Runner) handleLine(ctx context.Context, handler IOHandler, sess *abacus.Session, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	if line == "exit" || line == "quit" {
		return true, nil
	}

	if !strings.HasPrefix(line, ":") {
		if err := sess.PressScript(ctx, line); err != nil {
			r.Logger.Debug("line rejected", "line", line, "err", err)
			if err := handler.SystemOutput(ctx, fmt.Sprintf("Error: %v", err)); err != nil {
				return false, err
			}
		}
		// Keys before a rejected one stay applied, so the state is shown either way.
		return false, r.commit(ctx, handler, sess)
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	switch strings.ToLower(cmd) {
	case "q", "quit", "exit":
		return true, nil

	case "h", "history":
		return false, handler.SystemOutput(ctx, FormatHistory(sess.History()))

	case "s", "select":
		index, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return false, handler.SystemOutput(ctx, "Usage: `:select N` (0 is the newest entry)")
		}
		if err := sess.SelectHistoryAt(index); err != nil {
			return false, handler.SystemOutput(ctx, fmt.Sprintf("Error: %v", err))
		}
		return false, r.commit(ctx, handler, sess)

	case "clearhistory":
		sess.ClearHistory()
		return false, r.commit(ctx, handler, sess)

	case "help", "?":
		return false, handler.SystemOutput(ctx, helpText)

	default:
		return false, handler.SystemOutput(ctx, fmt.Sprintf("Unknown command `:%s`. Type `:help`.", cmd))
	}
}

const helpText = `## Commands

- ` + "`:history`" + ` list finished calculations, newest first
- ` + "`:select N`" + ` load history entry N as the current value
- ` + "`:clearhistory`" + ` forget every finished calculation
- ` + "`:quit`" + ` leave

Any other line is pressed as keys, e.g. ` + "`12+3×4=`" + ` or ` + "`2 pi sin`" + `.`

// FormatHistory renders history entries as a Markdown list, newest first, with their selection index.
func FormatHistory(entries []domain.HistoryEntry) string {
	if len(entries) == 0 {
		return "_No calculations yet._"
	}
	var b strings.Builder
	b.WriteString("## History\n\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "- [%d] `%s` = **%s**\n", i, e.Expression, e.Result)
	}
	return b.String()
}

// commit shows the session and persists it.
func (r *Runner) commit(ctx context.Context, handler IOHandler, sess *abacus.Session) error {
	state := sess.State()
	if err := handler.Output(ctx, state); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return r.saveState(ctx, state)
}

func (r *Runner) saveState(ctx context.Context, state *domain.State) error {
	if r.Store == nil || r.SessionID == "" {
		return nil
	}
	if err := r.Store.Save(ctx, r.SessionID, state); err != nil {
		return fmt.Errorf("critical persistence error: %w", err)
	}
	r.Logger.Debug("state saved", "session_id", r.SessionID, "buffer", state.Buffer)
	return nil
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r.Handler
}

// resolveSession resumes the stored session or starts a new one.
func (r *Runner) resolveSession(ctx context.Context) (*abacus.Session, error) {
	if r.Store == nil || r.SessionID == "" {
		return r.engine.NewSession(r.SessionID), nil
	}

	state, err := r.Store.Load(ctx, r.SessionID)
	if err == nil {
		r.Logger.Debug("session resumed", "session_id", r.SessionID)
		return r.engine.Resume(state), nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to load session %s: %w", r.SessionID, err)
	}
	return r.engine.NewSession(r.SessionID), nil
}
