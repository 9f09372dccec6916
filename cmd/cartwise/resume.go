package main

import (
	"fmt"
	"os"

	"github.com/aretw0/cartwise/internal/cli"
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <thread-id>",
	Short: "Resume a suspended session",
	Long: `Shows the pending review of a session and continues it.
With --data the answer is sent directly, which suits scripts paired with --json.
Sessions only survive between runs with the file or redis store.`,
	Example: `  cartwise resume 7f9c2d
  cartwise resume 7f9c2d --json --data '{"action": "accept", "review_id": "7f9c2d:2"}'`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd)
		opts.ThreadID = args[0]
		opts.Data, _ = cmd.Flags().GetString("data")

		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().String("data", "", "Resume data as a JSON object")
	addRunFlags(resumeCmd)
}
