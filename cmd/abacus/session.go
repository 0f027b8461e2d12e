package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/abacus/internal/cli"
	"github.com/spf13/cobra"
)

var errNoSharedStore = errors.New("session commands need a shared store: set redis.addr or ABACUS_REDIS_ADDR")

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage shared sessions",
	Long:  `List, inspect, and remove the calculator sessions kept in Redis.`,
}

// sharedStack loads the stack and refuses in-memory stores, which would always be empty here.
func sharedStack(cmd *cobra.Command) (*cli.Stack, error) {
	stack, err := loadStack(cmd)
	if err != nil {
		return nil, err
	}
	if !stack.Shared {
		_ = stack.Close()
		return nil, errNoSharedStore
	}
	return stack, nil
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := sharedStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		sessions, err := stack.Sessions.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No active sessions found.")
			return nil
		}

		fmt.Fprintln(out, "Active Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := sharedStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		state, err := stack.Sessions.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}

		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling state: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [session-id...]",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("give at least one session ID or --all")
		}

		stack, err := sharedStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		if all {
			if args, err = stack.Sessions.List(cmd.Context()); err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}
		}

		var errs []error
		for _, sessionID := range args {
			if err := stack.Sessions.Delete(cmd.Context(), sessionID); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", sessionID, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionRmCmd.Flags().Bool("all", false, "Remove every session")
}
