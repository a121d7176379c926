// Package main is the entry point for the giveaway bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"giveaway-bot/internal/bot"
	"giveaway-bot/internal/config"
	"giveaway-bot/internal/fsm"
	"giveaway-bot/internal/pkg/db"
	"giveaway-bot/internal/pkg/timeutil"
	"giveaway-bot/internal/repository"
	"giveaway-bot/internal/scheduler"
	"giveaway-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	giveawayRepo := repository.NewGiveawayRepository(dbPool.Pool)
	participantRepo := repository.NewParticipantRepository(dbPool.Pool)
	winnerRepo := repository.NewWinnerRepository(dbPool.Pool)
	adminRepo := repository.NewAdminRepository(dbPool.Pool)
	channelRepo := repository.NewChannelRepository(dbPool.Pool)

	// Seed the main admin from configuration
	if err := adminRepo.EnsureMainAdmin(ctx, cfg.Admin.MainID); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed main admin")
	}

	// Telebot has to exist before the services: the messenger publishing
	// giveaway posts wraps it
	teleBot, err := bot.NewTelebot(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	timeParser := timeutil.NewParser(cfg.Timezone)
	messenger := bot.NewMessenger(teleBot, timeParser)

	// Initialize scheduler and services
	sched := scheduler.New(giveawayRepo, cfg.Scheduler.RetryAttempts, cfg.Scheduler.RetryBackoff)

	giveawayService := service.NewGiveawayService(giveawayRepo, participantRepo, winnerRepo, messenger, sched)
	participantService := service.NewParticipantService(giveawayRepo, participantRepo)
	rosterService := service.NewRosterService(adminRepo, channelRepo, messenger)

	sched.SetFinisher(giveawayService)

	// Rebuild finish timers lost in the restart. Overdue giveaways are
	// finished immediately.
	recovered, err := sched.RecoverOnStartup(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to recover scheduled finishes")
	}
	log.Info().Int("count", recovered).Msg("Finish timers recovered")

	// Retention sweeper for old finished giveaways
	retention := time.Duration(cfg.Retention.Days) * 24 * time.Hour
	go sched.RunSweeper(ctx, retention, cfg.Retention.SweepInterval)

	// Assemble bot handlers
	telegramBot := bot.New(teleBot, &bot.Dependencies{
		Config:       cfg,
		Giveaways:    giveawayService,
		Participants: participantService,
		Roster:       rosterService,
		Forms:        fsm.NewStore(),
		TimeParser:   timeParser,
	})

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	sched.Shutdown()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create admins table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS admins (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL UNIQUE,
			username VARCHAR(255),
			first_name VARCHAR(255),
			is_main_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: admins table created")

	// Migration 2: Create channels table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS channels (
			id BIGSERIAL PRIMARY KEY,
			channel_id BIGINT NOT NULL UNIQUE,
			channel_name VARCHAR(255) NOT NULL,
			channel_username VARCHAR(255),
			added_by BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: channels table created")

	// Migration 3: Create giveaways table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS giveaways (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			media_type VARCHAR(50),
			media_file_id TEXT,
			channel_id BIGINT NOT NULL,
			message_id BIGINT,
			start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			end_time TIMESTAMPTZ NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			winner_places INT NOT NULL DEFAULT 1,
			created_by BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_giveaways_status_end ON giveaways(status, end_time);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: giveaways table created")

	// Migration 4: Create participants table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS participants (
			id BIGSERIAL PRIMARY KEY,
			giveaway_id BIGINT NOT NULL REFERENCES giveaways(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL,
			username VARCHAR(255),
			first_name VARCHAR(255),
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (giveaway_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_participants_giveaway ON participants(giveaway_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: participants table created")

	// Migration 5: Create winners table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS winners (
			id BIGSERIAL PRIMARY KEY,
			giveaway_id BIGINT NOT NULL REFERENCES giveaways(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL,
			username VARCHAR(255),
			first_name VARCHAR(255),
			place INT NOT NULL,
			won_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (giveaway_id, place)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: winners table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
