package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/cartwise"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Cartwise",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cartwise version %s\n", strings.TrimSpace(cartwise.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
