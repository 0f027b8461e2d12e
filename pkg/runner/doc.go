/*
Package runner implements the interactive read-eval-print loop of the calculator.

Each input line is a key script (see package keys) applied to one abacus.Session.
After every line the handler shows the buffer and the preview. Lines starting
with ':' are meta commands:

	:history        list finished calculations, newest first
	:select N       load history entry N as the current value
	:clearhistory   forget every finished calculation
	:help           list the commands
	:quit           leave the loop (also "exit" and "quit")

# Key Components

  - Runner: the loop. It owns the session and optionally persists it to a ports.StateStore.
  - IOHandler: decouples how lines are read and states are shown.
  - TextHandler: prompt-and-print for terminals and pipes.
  - JSONHandler: NDJSON requests in, domain.State out, for scripted hosts.

# Usage

	r := runner.NewRunner(
		runner.WithEngine(abacus.New()),
		runner.WithSessionID("desk"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
