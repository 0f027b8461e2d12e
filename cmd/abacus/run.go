package main

import (
	"github.com/aretw0/abacus/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the line-oriented calculator",
	Long: `Reads key scripts line by line and prints the buffer and the preview after each.
Meta commands: :history, :select N, :clearhistory, :help, :quit.

With --json every input line is {"keys": "..."} or {"command": "history"} and
every output line is the session state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		jsonMode, _ := cmd.Flags().GetBool("json")
		quiet, _ := cmd.Flags().GetBool("quiet")
		fresh, _ := cmd.Flags().GetBool("fresh")

		return cli.Execute(cmd.Context(), stack, cli.RunOptions{
			SessionID: sessionID,
			JSON:      jsonMode,
			Quiet:     quiet,
			Fresh:     fresh,
			Stdin:     cmd.InOrStdin(),
			Stdout:    cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("session", "s", "", "Session ID to resume and save (needs redis to outlive the process)")
	runCmd.Flags().Bool("json", false, "NDJSON input and output")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress banner and system messages")
	runCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
}
