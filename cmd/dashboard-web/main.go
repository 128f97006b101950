package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"emergency-dashboard/internal/backend"
	"emergency-dashboard/internal/config"
	"emergency-dashboard/internal/logging"
	"emergency-dashboard/internal/workflow"
)

//go:embed all:static
var staticFS embed.FS

// CLI flags
var (
	portFlag    int
	backendFlag string
)

var rootCmd = &cobra.Command{
	Use:   "dashboard-web",
	Short: "Operator dashboard for emergency incident triage",
	Long: `Dashboard Web starts a local web server for emergency incident triage.
Upload an incident video, review the extracted frames and analysis, pick the
emergency services to dispatch, and save the confirmed incident.

Examples:
  dashboard-web
  dashboard-web --port 9090
  dashboard-web --backend http://localhost:8000`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides DASHBOARD_PORT)")
	rootCmd.Flags().StringVar(&backendFlag, "backend", "", "Incident API base URL (overrides DASHBOARD_BACKEND_URL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	cfg, err := config.LoadDashboard()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if portFlag != 0 {
		cfg.Port = portFlag
	}
	if backendFlag != "" {
		cfg.BackendURL = backendFlag
	}

	srvState := &server{
		sessions: workflow.NewManager(backend.NewClient(cfg.BackendURL)),
	}

	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/session", srvState.handleCreateSession)
	mux.HandleFunc("/api/session/", srvState.handleSessionRoutes)

	// Static dashboard UI
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to access embedded UI")
	}
	fileServer := http.FileServer(http.FS(staticSub))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		fileServer.ServeHTTP(w, r)
	})

	handler := withLogging(withCORS(mux))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Minute, // video uploads
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.Info().Int("port", cfg.Port).Str("backend", cfg.BackendURL).Msg("Starting dashboard")
	fmt.Printf("\n  Emergency Dashboard: http://localhost:%d\n\n", cfg.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// --- Middleware ---

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The dashboard is a local operator tool; only localhost origins.
		origin := r.Header.Get("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
