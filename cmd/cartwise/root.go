package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/aretw0/cartwise/internal/cli"
	"github.com/aretw0/cartwise/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cartwise",
	Short: "Cartwise turns shopping requests into an optimized cart",
	Long: `Cartwise reads a free-form shopping request, works out what to buy,
finds products within budget and builds a checkout link.
It pauses at review checkpoints so you can adjust its proposals.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Printf("Error loading %s: %v\n", envFile, err)
			os.Exit(1)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file loaded before the configuration")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable verbose logging to stderr")
}

func loadConfig(cmd *cobra.Command) config.Config {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// loadApp builds the engine for commands that run sessions.
func loadApp(cmd *cobra.Command) *cli.App {
	debug, _ := cmd.Flags().GetBool("debug")
	app, err := cli.NewApp(loadConfig(cmd), debug)
	if err != nil {
		fmt.Printf("Error initializing cartwise: %v\n", err)
		os.Exit(1)
	}
	return app
}
