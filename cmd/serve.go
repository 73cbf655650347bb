package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/dmrelay/internal/config"
	"github.com/ziadkadry99/dmrelay/internal/db"
	"github.com/ziadkadry99/dmrelay/internal/deliveries"
	"github.com/ziadkadry99/dmrelay/internal/graph"
	"github.com/ziadkadry99/dmrelay/internal/langdetect"
	"github.com/ziadkadry99/dmrelay/internal/llm"
	"github.com/ziadkadry99/dmrelay/internal/reply"
	"github.com/ziadkadry99/dmrelay/internal/server"
	"github.com/ziadkadry99/dmrelay/internal/webhook"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Starts the HTTP server exposing GET/POST /webhook, GET /convert-token and
GET /healthz. When the delivery log is enabled, GET /api/deliveries lists
recent outcomes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		srv, cleanup, err := buildServer(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "override server.port")
	rootCmd.AddCommand(serveCmd)
}

// buildServer wires the pipeline into an HTTP server. cleanup releases the
// delivery log database, if one was opened.
func buildServer(ctx context.Context, cfg *config.Config, log *slog.Logger) (*server.Server, func(), error) {
	cleanup := func() {}

	provider, err := llm.NewProvider(cfg.Generation)
	if err != nil {
		return nil, cleanup, fmt.Errorf("creating generation provider: %w", err)
	}

	detector := langdetect.New(cfg.DefaultLanguage, cfg.Detection.MinRunes, langdetect.WithLogger(log))
	generator := reply.NewGenerator(provider, reply.Options{
		Model:           cfg.Generation.ResolvedModel(),
		DefaultLanguage: cfg.DefaultLanguage,
		MaxLength:       cfg.Generation.MaxLength,
		Timeout:         time.Duration(cfg.Generation.TimeoutSeconds) * time.Second,
		Logger:          log,
	})
	platform := graph.NewClient(cfg.Graph)

	srv := server.New(cfg.Server, log)
	opts := webhook.Options{
		VerifyToken: cfg.Graph.VerifyToken,
		Logger:      log,
	}

	if cfg.Deliveries.Enabled {
		database, err := db.Open(cfg.Deliveries.Path)
		if err != nil {
			return nil, cleanup, fmt.Errorf("opening delivery log: %w", err)
		}
		cleanup = func() { database.Close() }
		log.Debug("Delivery log opened", "path", database.Path())

		store := deliveries.NewStore(database)
		if cfg.Deliveries.RetentionDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -cfg.Deliveries.RetentionDays)
			if n, err := store.DeleteBefore(ctx, cutoff); err != nil {
				log.Warn("Failed to prune delivery log", "error", err)
			} else if n > 0 {
				log.Info("Pruned delivery log", "deleted", n, "retention_days", cfg.Deliveries.RetentionDays)
			}
		}
		opts.Recorder = store
		deliveries.RegisterRoutes(srv.Router(), store)
	}

	webhook.RegisterRoutes(srv.Router(), webhook.NewController(detector, generator, platform, opts))

	warnMissingCredentials(cfg, log)
	log.Info("Relay configured",
		"provider", provider.Name(),
		"model", cfg.Generation.ResolvedModel(),
		"default_language", cfg.DefaultLanguage,
		"deliveries", cfg.Deliveries.Enabled)

	return srv, cleanup, nil
}

// warnMissingCredentials logs each absent credential. A missing credential
// only fails the requests that need it.
func warnMissingCredentials(cfg *config.Config, log *slog.Logger) {
	values := map[string]string{
		"VERIFY_TOKEN":    cfg.Graph.VerifyToken,
		"USER_ID":         cfg.Graph.UserID,
		"INSTAGRAM_TOKEN": cfg.Graph.AccessToken,
		"APP_ID":          cfg.Graph.AppID,
		"APP_SECRET":      cfg.Graph.AppSecret,
	}
	for _, name := range []string{"VERIFY_TOKEN", "USER_ID", "INSTAGRAM_TOKEN", "APP_ID", "APP_SECRET"} {
		if values[name] == "" {
			log.Warn("Credential not configured", "variable", name)
		}
	}
}
