package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/cartwise/internal/cli"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start <request>",
	Short: "Start a shopping session",
	Long: `Starts a new session for the given request and walks you through its reviews.
Press enter to accept a proposal, type a JSON answer to edit it, or 'exit' to
leave the session suspended and resume it later.`,
	Example: `  cartwise start "ingredients for guacamole under $15"
  cartwise start --headless "a dozen eggs and whole milk"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd)
		opts.Input = strings.Join(args, " ")
		opts.ThreadID, _ = cmd.Flags().GetString("thread")

		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().String("thread", "", "Thread ID for the new session (generated when empty)")
	addRunFlags(startCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("headless", false, "Accept every review without prompting")
	cmd.Flags().Bool("json", false, "Print the outcome as JSON and stop at the first review")
}

func runOptions(cmd *cobra.Command) cli.RunOptions {
	configPath, _ := cmd.Flags().GetString("config")
	headless, _ := cmd.Flags().GetBool("headless")
	jsonMode, _ := cmd.Flags().GetBool("json")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.RunOptions{
		ConfigPath: configPath,
		Headless:   headless,
		JSON:       jsonMode,
		Debug:      debug,
	}
}
