package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"emergency-dashboard/internal/analysis"
	"emergency-dashboard/internal/config"
	"emergency-dashboard/internal/dispatchcall"
	"emergency-dashboard/internal/logging"
	"emergency-dashboard/internal/store"
)

// CLI flags
var (
	portFlag  int
	localFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "incident-api",
	Short: "Backend API for the emergency incident dashboard",
	Long: `Incident API backs the emergency dashboard: it issues video upload URLs,
runs frame extraction and AI analysis on uploaded incident videos, persists
confirmed incidents, and serves the past-incident history.

Examples:
  incident-api
  incident-api --port 9000
  incident-api --local`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides INCIDENT_API_PORT)")
	rootCmd.Flags().BoolVar(&localFlag, "local", false, "Store videos and incidents locally instead of AWS")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	if localFlag {
		os.Setenv("INCIDENT_LOCAL_STORE", "true")
	}
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if portFlag != 0 {
		cfg.Port = portFlag
	}

	ctx := context.Background()
	api, err := buildServer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/get-upload-url", api.handleGetUploadURL)
	mux.HandleFunc("/api/local-upload/", api.handleLocalUpload)
	mux.HandleFunc("/api/process-video", api.handleProcessVideo)
	mux.HandleFunc("/api/save-incident", api.handleSaveIncident)
	mux.HandleFunc("/api/past-incidents", api.handlePastIncidents)
	mux.HandleFunc("/api/phone-call", api.handlePhoneCall)

	handler := withLogging(withCORS(mux))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Minute, // video uploads in local mode
		WriteTimeout: 10 * time.Minute, // analysis can be slow
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", cfg.Port).Bool("local", cfg.LocalStore).Msg("Starting incident API")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// buildServer wires storage, analysis, and telephony according to the
// configuration: AWS-backed in production, local-mode otherwise.
func buildServer(ctx context.Context, cfg *config.API) (*apiServer, error) {
	api := &apiServer{
		caller:        dispatchcall.NewClient(cfg.VapiAuthToken, cfg.VapiPhoneID),
		dispatchPhone: cfg.DispatchPhone,
	}

	if cfg.LocalStore {
		dir := filepath.Join(os.TempDir(), "incident-videos")
		local, err := newLocalVideoStore(dir, fmt.Sprintf("http://localhost:%d", cfg.Port))
		if err != nil {
			return nil, err
		}
		api.videos = local
		api.local = local
		api.incidents = store.NewMemoryStore()
		log.Info().Str("dir", dir).Msg("Local mode: videos on disk, incidents in memory")
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		api.videos = newS3VideoStore(s3.NewFromConfig(awsCfg), cfg.VideoBucket)
		api.incidents = store.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.IncidentTable)
	}

	if cfg.GeminiAPIKey != "" {
		analyzer, err := analysis.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		api.analyzer = analyzer
		log.Info().Str("model", cfg.GeminiModel).Msg("Gemini analysis enabled")
	} else {
		api.analyzer = analysis.StaticAnalyzer{}
		log.Warn().Msg("GEMINI_API_KEY not set; using static analysis")
	}

	return api, nil
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
		// The dashboard server talks to this API server-side; browser CORS
		// only matters for local development against the UI dev server.
		origin := r.Header.Get("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
