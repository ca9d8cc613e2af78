package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jujucrew/jubot/internal/bot"
	"github.com/jujucrew/jubot/internal/config"
	"github.com/jujucrew/jubot/internal/dialog"
	"github.com/jujucrew/jubot/internal/domain"
	"github.com/jujucrew/jubot/internal/gateway"
	"github.com/jujucrew/jubot/internal/httpserver"
	"github.com/jujucrew/jubot/internal/httpserver/deps"
	"github.com/jujucrew/jubot/internal/logger"
	"github.com/jujucrew/jubot/internal/steam"
	"github.com/jujucrew/jubot/internal/store/jsonfile"
	"github.com/jujucrew/jubot/internal/version"
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	server  *httpserver.Server
	gateway *gateway.Client
	bot     *bot.Bot
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	store, err := jsonfile.New(cfg.DataDir, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open data dir %s: %v", cfg.DataDir, err)
		os.Exit(1)
	}

	catalog := steam.NewClient(loggerClient)
	sessions := dialog.NewRegistry()
	engine := dialog.NewEngine(catalog, sessions, cfg.SelectTimeout, cfg.SearchLimit, loggerClient)

	gw := gateway.New(cfg.GatewayURL, cfg.Token, loggerClient)

	b := bot.New(bot.Options{
		Prefix:      cfg.Prefix,
		AdminRoleID: cfg.AdminRoleID,
	}, engine, store, gw, loggerClient)

	d := deps.Deps{
		Logger:    loggerClient,
		StartTime: time.Now(),
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: version.GoVersion,
		Store:     store,
		GatewayUp: gw.IsConnected,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:     cfg,
		logger:  loggerClient,
		server:  server,
		gateway: gw,
		bot:     b,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting jubot v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("jubot %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Hooks must be in place before the first frame arrives.
	a.gateway.OnMessage = func(msg domain.Message) {
		a.bot.HandleMessage(ctx, msg)
	}
	a.gateway.OnDisconnected = func() {
		a.logger.Warn("gateway link lost, reconnecting")
	}
	a.gateway.OnError = func(err error) {
		a.logger.Warnf("gateway: %v", err)
	}

	if err := a.gateway.Connect(ctx); err != nil {
		return fmt.Errorf("gateway connect: %w", err)
	}
	a.logger.Info("gateway connected", logger.String("url", a.cfg.GatewayURL))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.gateway.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ jubot stopped cleanly")
	return nil
}
