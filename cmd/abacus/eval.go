package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/abacus/pkg/runner"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval <expression>...",
	Short: "Evaluate an expression or a key script once",
	Long: `Evaluates an arithmetic expression such as "2+3*4" or "2×π" and prints the result.
With --keys the arguments are pressed as keys on a fresh session instead, so
functions and partial input behave like on the keypad: abacus eval --keys "9 √".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		input, err := runner.SanitizeInput(strings.Join(args, " "))
		if err != nil {
			return err
		}
		keysMode, _ := cmd.Flags().GetBool("keys")
		jsonMode, _ := cmd.Flags().GetBool("json")
		out := cmd.OutOrStdout()

		if !keysMode {
			result, err := stack.Engine.Evaluate(input)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, result)
			return nil
		}

		state, err := stack.Engine.PressScript(cmd.Context(), stack.Engine.NewState(""), input)
		if err != nil {
			return err
		}
		if jsonMode {
			enc := json.NewEncoder(out)
			enc.SetEscapeHTML(false)
			return enc.Encode(state)
		}
		if state.Error != "" {
			return fmt.Errorf("%s: %s", state.Preview, state.Error)
		}
		fmt.Fprintln(out, state.Preview)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().Bool("keys", false, "Treat the arguments as a key script")
	evalCmd.Flags().Bool("json", false, "Print the resulting state as JSON (with --keys)")
}
