package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/aretw0/cartwise/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Exposes the shopping pipeline as a JSON API over HTTP, with session events over SSE.`,
	Run: func(cmd *cobra.Command, args []string) {
		app := loadApp(cmd)
		defer app.Close()

		addr := app.Config.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		handlerOpts := []httpAdapter.Option{httpAdapter.WithLogger(app.Logger)}
		if app.Config.Server.Metrics {
			handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(app.Metrics.Handler()))
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           httpAdapter.NewHandler(app.Engine, handlerOpts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Cartwise Server on %s\n", srv.Addr)
			fmt.Printf("Store: %s\n", app.Config.Store.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Cartwise Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8000", "Address to listen on (overrides server.addr)")
}
