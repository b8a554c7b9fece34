package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/ninegrid/internal/api"
	"github.com/kiesman99/ninegrid/internal/server"
	"github.com/kiesman99/ninegrid/internal/slicer"
	"github.com/kiesman99/ninegrid/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the slicing API",
	Long: `Start an HTTP server that provides a REST API for nine-grid slicing.

POST /api/v1/slice answers with the archive directly. Interactive clients
create a session, upload into it and fetch tiles, the canvas preview, the
archive or a proof sheet from it. Idle sessions are dropped after
--session-ttl.

Examples:
  # Start server on default port 8080
  ninegrid serve

  # Start server on custom port
  ninegrid serve --port 3000

  # Start server with custom bind address and a smaller size cap
  ninegrid serve --bind 0.0.0.0 --port 8080 --max-dimension 2048`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")
	serveCmd.Flags().Duration("session-ttl", 30*time.Minute, "drop sessions idle for longer than this")

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("server.session-ttl", serveCmd.Flags().Lookup("session-ttl"))
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")
	sessionTTL := viper.GetDuration("server.session-ttl")

	addr := fmt.Sprintf("%s:%d", bind, port)

	opts, err := sliceOptions()
	if err != nil {
		return err
	}

	var pub server.Publisher
	cfg, err := storageConfig()
	if err != nil {
		return err
	}
	if cfg.Enabled() {
		p, err := storage.NewPublisher(cmd.Context(), cfg, log.Default())
		if err != nil {
			return err
		}
		pub = p
	}

	// Create Chi router
	r := chi.NewRouter()

	// Add middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(timeout))

	// CORS middleware for API access
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Create server implementation
	apiServer := server.NewServer(version, slicer.New(opts, newLogger(cmd)), pub)

	api.HandlerWithOptions(apiServer, api.ChiServerOptions{
		BaseURL:          "/api/v1",
		BaseRouter:       r,
		ErrorHandlerFunc: apiServer.ParamError,
	})

	// Legacy health endpoint (without /api/v1 prefix)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/v1/health", http.StatusMovedPermanently)
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()

	// Session cleanup
	if sessionTTL > 0 {
		go func() {
			ticker := time.NewTicker(sessionTTL / 2)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := apiServer.SweepSessions(sessionTTL); n > 0 {
						log.Printf("Dropped %d idle sessions", n)
					}
				}
			}
		}()
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		fmt.Fprintf(cmd.ErrOrStderr(), "\nShutting down server...\n")
		stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "Starting ninegrid server on %s\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Health check: http://%s/api/v1/health\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Slice endpoint: http://%s/api/v1/slice\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Sessions: http://%s/api/v1/sessions\n", addr)
	if pub == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Publishing disabled (no s3.bucket configured)\n")
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}

	return nil
}
