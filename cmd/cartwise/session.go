package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/cartwise/internal/cli"
	"github.com/aretw0/cartwise/pkg/ports"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, and remove sessions held by the configured checkpoint store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	Run: func(cmd *cobra.Command, args []string) {
		store, closeStore := getStore(cmd)
		defer closeStore()

		sessions, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing sessions: %v\n", err)
			os.Exit(1)
		}

		if len(sessions) == 0 {
			fmt.Println("No active sessions found.")
			return
		}

		fmt.Println("Active Sessions:")
		for _, s := range sessions {
			fmt.Println("- " + s)
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <thread-id>",
	Short: "Inspect the checkpoint of a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		threadID := args[0]
		store, closeStore := getStore(cmd)
		defer closeStore()

		cp, err := store.Load(cmd.Context(), threadID)
		if err != nil {
			fmt.Printf("Error loading session '%s': %v\n", threadID, err)
			os.Exit(1)
		}

		data, err := json.MarshalIndent(cp, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling checkpoint: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(data))
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <thread-id>...",
	Short: "Remove one or more sessions",
	Args: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		store, closeStore := getStore(cmd)
		defer closeStore()

		if all, _ := cmd.Flags().GetBool("all"); all {
			ids, err := store.List(cmd.Context())
			if err != nil {
				fmt.Printf("Error listing sessions: %v\n", err)
				os.Exit(1)
			}
			args = ids
		}

		hasError := false
		for _, threadID := range args {
			if err := store.Delete(cmd.Context(), threadID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", threadID, err)
				hasError = true
			} else {
				fmt.Printf("Removed session '%s'\n", threadID)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionRmCmd.Flags().Bool("all", false, "Remove every session")
}

func getStore(cmd *cobra.Command) (ports.CheckpointStore, func() error) {
	store, closeStore, err := cli.OpenStore(loadConfig(cmd))
	if err != nil {
		fmt.Printf("Error opening store: %v\n", err)
		os.Exit(1)
	}
	return store, closeStore
}
