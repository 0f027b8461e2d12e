package main

import (
	"github.com/aretw0/abacus/internal/cli"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive keypad",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		return cli.RunTUI(cmd.Context(), stack, sessionID)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().StringP("session", "s", "", "Session ID to resume and save")
}
