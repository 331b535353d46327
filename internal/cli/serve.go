package cli

import (
	"fmt"

	"clyptusrank/internal/ai"
	"clyptusrank/internal/analysis"
	"clyptusrank/internal/config"
	"clyptusrank/internal/ingestion"
	"clyptusrank/internal/refine"
	"clyptusrank/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing analysis and skill refinement.

Available endpoints:
- POST   /analyze                   multipart resume + job description, opens a session
- POST   /rescore                   score resume text against job description text
- GET    /sessions/{id}             current session result
- POST   /sessions/{id}/skills      add a skill and rescore
- DELETE /sessions/{id}             discard a session
- GET    /sessions/{id}/report      report download (?format=text|markdown|json)
- GET    /sessions/{id}/resume.pdf  updated resume download
- GET    /health                    health check
- GET    /stats                     server statistics

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.mode", "tls-mode")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	applyServeFlags(cmd, cfg)

	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, shutdown, err := startObservability(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdown()

	aiService, err := ai.NewService(cfg, om, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Close(); err != nil {
			logger.LogError(err, "Failed to close AI service")
		}
	}()

	maxFileSize := cfg.App.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = config.DefaultMaxFileSize
	}

	sessions := refine.NewStore(cfg.Server.SessionTTL, cfg.Server.SessionSweep, cfg.Server.MaxSessions, om, logger)

	serverCfg := server.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Version:         Version,
		TLSConfig:       cfg.Server.TLS,
		APIKeys:         cfg.Server.APIKeys,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxFileSize:     maxFileSize,
		RateLimit:       &cfg.Server.RateLimit,
	}
	deps := server.Dependencies{
		Analyzer:      analysis.NewAnalyzer(ingestion.NewIngester(logger), aiService, aiService, maxFileSize, om, logger),
		Scorer:        aiService,
		AIStatus:      aiService,
		Sessions:      sessions,
		Observability: om,
	}

	logger.Info("Starting server",
		"session_ttl", cfg.Server.SessionTTL.String(),
		"max_sessions", cfg.Server.MaxSessions)
	return server.NewServer(cfg, serverCfg, deps, logger).Start()
}

// applyServeFlags copies explicitly set flags over the loaded configuration,
// which was read before the command line was parsed
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	set := func(name string, target *string) {
		if flags.Changed(name) {
			*target, _ = flags.GetString(name)
		}
	}
	set("port", &cfg.Server.Port)
	set("host", &cfg.Server.Host)
	set("tls-mode", &cfg.Server.TLS.Mode)
	set("cert-file", &cfg.Server.TLS.CertFile)
	set("key-file", &cfg.Server.TLS.KeyFile)
}
