package gateway

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tinyland-inc/botfleet/cmd/botfleet/internal"
	"github.com/tinyland-inc/botfleet/pkg/accounts"
	"github.com/tinyland-inc/botfleet/pkg/commands"
	"github.com/tinyland-inc/botfleet/pkg/config"
	"github.com/tinyland-inc/botfleet/pkg/dedup"
	"github.com/tinyland-inc/botfleet/pkg/dispatch"
	"github.com/tinyland-inc/botfleet/pkg/events"
	"github.com/tinyland-inc/botfleet/pkg/handler"
	"github.com/tinyland-inc/botfleet/pkg/httpapi"
	"github.com/tinyland-inc/botfleet/pkg/logger"
	"github.com/tinyland-inc/botfleet/pkg/platform"
	"github.com/tinyland-inc/botfleet/pkg/platform/console"
	"github.com/tinyland-inc/botfleet/pkg/platform/discord"
	"github.com/tinyland-inc/botfleet/pkg/platform/slack"
	"github.com/tinyland-inc/botfleet/pkg/platform/telegram"
	"github.com/tinyland-inc/botfleet/pkg/resolver"
	"github.com/tinyland-inc/botfleet/pkg/schedule"
	"github.com/tinyland-inc/botfleet/pkg/session"
)

func gatewayCmd(debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		// Missing required configuration is the one fatal startup error.
		return fmt.Errorf("error loading config: %w", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if debug {
		logger.SetLevel(logger.DEBUG)
	}
	if cfg.Logging.File != "" {
		if err := logger.EnableFileLogging(cfg.Logging.File); err != nil {
			logger.WarnCF("gateway", "File logging disabled", map[string]any{
				"error": err.Error(),
			})
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := accounts.NewStore(cfg.AccountsPath())
	if err != nil {
		return fmt.Errorf("error loading accounts: %w", err)
	}
	identities := accounts.NewIdentityStore(cfg.IdentitiesPath())

	registry, err := buildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("error building registry: %w", err)
	}
	nCommands, nEvents := registry.Size()
	logger.InfoCF("gateway", "Registry loaded", map[string]any{
		"commands": nCommands,
		"events":   nEvents,
	})

	cache := dedup.New(cfg.DedupTTL())
	go cache.Run(ctx, cfg.DedupSweep())

	dispatcher := dispatch.New(registry, cache, cfg.Prefix)

	clients := platform.NewClientSet(
		telegram.NewClient(),
		discord.NewClient(),
		slack.NewClient(),
		console.NewClient(),
	)

	manager := session.NewManager(
		clients,
		store,
		identities,
		dispatcher,
		cfg.Owner.ConversationID,
		session.RetryPolicy{Initial: cfg.RetryInitial(), Max: cfg.RetryMax()},
	)
	manager.StartAll(ctx)
	logger.InfoCF("gateway", "Sessions starting", map[string]any{
		"accounts":  store.Len(),
		"platforms": clients.Names(),
	})

	scheduler := schedule.New()
	scheduler.Add(schedule.Task{
		Name: "auto_greet",
		Expr: cfg.Schedule.AutoGreet,
		Run: func(ctx context.Context) {
			if err := manager.NotifyOwner(ctx, "Still here and watching the fleet."); err != nil {
				logger.WarnCF("gateway", "Auto-greet failed", map[string]any{
					"error": err.Error(),
				})
			}
		},
	})
	scheduler.Add(schedule.Task{
		Name: "auto_restart",
		Expr: cfg.Schedule.AutoRestart,
		Run: func(ctx context.Context) {
			manager.RestartAll(ctx)
		},
	})
	go scheduler.Run(ctx)

	server := httpapi.NewServer(cfg.GatewayAddr(), manager)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCF("gateway", "Shutting down", map[string]any{"signal": sig.String()})
	case err := <-serverErr:
		if err != nil {
			logger.ErrorCF("gateway", "API server failed", map[string]any{"error": err.Error()})
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WarnCF("gateway", "API shutdown failed", map[string]any{"error": err.Error()})
	}

	cancel()
	manager.StopAll()
	logger.InfoC("gateway", "Goodbye")
	return nil
}

// buildRegistry assembles the built-in commands and events. Registry
// construction fails loudly on duplicate names.
func buildRegistry(cfg *config.Config) (*handler.Registry, error) {
	res := resolver.New(cfg.Download.ResolverURL, cfg.DownloadTimeout())

	help := commands.NewHelpCommand(cfg.Prefix)
	registry, err := handler.NewRegistry(
		[]handler.Command{
			commands.NewURLCommand(res, cfg.URLStatusPath(), cfg.DownloadTimeout()),
			commands.NewPingCommand(),
			commands.NewUptimeCommand(time.Now()),
			help,
		},
		[]handler.EventHandler{
			events.NewWelcomeEvent(),
		},
	)
	if err != nil {
		return nil, err
	}
	help.SetRegistry(registry)
	return registry, nil
}
