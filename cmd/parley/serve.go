package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/parley"
	httpAdapter "github.com/aretw0/parley/internal/adapters/http"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interview HTTP server",
	Long:  `Starts the parley engine in server mode, exposing a JSON API over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		redisPassword, _ := cmd.Flags().GetString("redis-password")
		redisDB, _ := cmd.Flags().GetInt("redis-db")
		storeDir, _ := cmd.Flags().GetString("store-dir")
		debug, _ := cmd.Flags().GetBool("debug")

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger := logging.New(level)

		var store ports.StateStore
		switch {
		case redisAddr != "":
			redisStore := redis.New(redisAddr, redisPassword, redisDB)
			defer redisStore.Close()
			store = redisStore
		case storeDir != "":
			store = file.NewStore(storeDir)
		}

		opts := []parley.Option{parley.WithLogger(logger)}
		if store != nil {
			opts = append(opts, parley.WithStore(store))
		}

		engine, err := parley.New(configPath, opts...)
		if err != nil {
			fmt.Printf("Error initializing parley: %v\n", err)
			os.Exit(1)
		}

		handler := httpAdapter.NewHandler(engine, logger)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Parley Server on %s\n", srv.Addr)
			fmt.Printf("Serving interviews from: %s\n", configPath)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			// Error when starting HTTP server.
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Parley Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for state storage (empty for in-memory)")
	serveCmd.Flags().String("redis-password", "", "Redis password")
	serveCmd.Flags().Int("redis-db", 0, "Redis database number")
	serveCmd.Flags().String("store-dir", "", "Directory for file-based state storage")
}
