package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Merethin/Windstorm/internal/bot"
	"github.com/Merethin/Windstorm/internal/config"
	"github.com/Merethin/Windstorm/internal/db"
	"github.com/Merethin/Windstorm/internal/events"
	"github.com/Merethin/Windstorm/internal/game"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Windstorm bot",
		Long:  "Connects to Discord and the event broker, then serves chase sessions until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "windstorm.yaml", "path to Windstorm config file")
	return cmd
}

func runBot(configPath string) error {
	// Best-effort .env load; secrets may also live in the config file.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("windstorm: load .env: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gdb, err := db.Open(cfg.DB.Path)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}
	roles, err := db.NewSetupRoleStore(gdb)
	if err != nil {
		return err
	}

	registry := game.NewRegistry()

	ingestor, err := events.NewIngestor(events.IngestorOpts{
		URL:      cfg.AMQP.URL,
		Registry: registry,
	})
	if err != nil {
		return err
	}

	b, err := bot.New(bot.BotOpts{
		Token:    cfg.Discord.Token,
		Registry: registry,
		Roles:    roles,
		Nation:   cfg.Nation,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	go func() {
		if err := ingestor.Run(ctx); err != nil {
			log.Printf("windstorm: ingestor: %v", err)
			cancel()
		}
	}()

	return b.Run(ctx)
}
