/*
Package abacus is the computation engine of a scientific calculator.

It turns a stream of key-presses into an editable expression buffer, a live
preview of its value, and a short history of finished calculations. Rendering
is left to the host: a CLI, a terminal keypad, an HTTP service or an AI agent
all drive the same engine.

# Concept

A session is a small state machine with three positions: idle (nothing typed),
entering (building an expression) and awaiting_next (showing a result; the next
digit starts over). Every key recomputes the preview with a restricted
arithmetic parser. Mistakes never abort the session: while typing, the preview
falls back to the raw text; on "=" or a function key, it shows "Error".

# Usage

Hosts that own their session use Session directly:

	eng := abacus.New()
	s := eng.NewSession("local")
	_ = s.PressScript(ctx, "2+3×4=")
	fmt.Println(s.Preview()) // 14

Hosts that serve many sessions keep domain.State snapshots in a store and use
the stateless methods:

	state := eng.NewState("user-42")
	state, err := eng.PressScript(ctx, state, "(1+2)÷4=")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(state.Preview, state.History)
*/
package abacus
