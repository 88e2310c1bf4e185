package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/NotCool09/myowobot/internal/bot"
	"github.com/NotCool09/myowobot/internal/cache"
	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/clock"
	"github.com/NotCool09/myowobot/internal/command"
	"github.com/NotCool09/myowobot/internal/config"
	"github.com/NotCool09/myowobot/internal/dashboard"
	"github.com/NotCool09/myowobot/internal/economy"
	"github.com/NotCool09/myowobot/internal/effects"
	"github.com/NotCool09/myowobot/internal/pkg/db"
	"github.com/NotCool09/myowobot/internal/service"
	"github.com/NotCool09/myowobot/internal/store"
	"github.com/NotCool09/myowobot/internal/worker"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot, the dashboard and the worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts.cfg)
		},
	}
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !opts.cfg.Database.Enabled() {
				return errors.New("DATABASE_URL is not set")
			}
			pool, err := db.NewPool(cmd.Context(), &opts.cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()
			return store.Migrate(cmd.Context(), pool)
		},
	}
}

// openStore selects the Postgres store when a database is configured and
// the in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config, d store.Defaults) (store.Store, error) {
	if !cfg.Database.Enabled() {
		log.Warn().Msg("DATABASE_URL not set, data will not survive a restart")
		return store.NewMemory(d), nil
	}
	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return store.NewPostgres(pool, d), nil
}

// openEffects returns the effects registry, persisted to Redis when one is
// configured.
func openEffects(ctx context.Context, cfg *config.Config, clk clock.Clock) (*effects.Registry, func(), error) {
	if cfg.Redis.Addr == "" {
		return effects.NewRegistry(clk), func() {}, nil
	}
	es := cache.NewEffectStore(cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, clk)
	if err := es.Ping(ctx); err != nil {
		_ = es.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("Persisting shop effects to Redis")
	return effects.NewRegistry(clk, effects.WithPersister(es)), func() { _ = es.Close() }, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	loc, err := cfg.Economy.Location()
	if err != nil {
		return err
	}
	clk := clock.New(loc)
	cat := catalog.Default()

	st, err := openStore(ctx, cfg, store.Defaults{
		StartBalance: cfg.Economy.StartBalance,
		StartRank:    cat.LevelRank(1).Name,
		Now:          clk.Now,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	reg, closeEffects, err := openEffects(ctx, cfg, clk)
	if err != nil {
		return err
	}
	defer closeEffects()

	seed := cfg.Economy.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	engine := service.NewEngine(service.Options{
		Store:   st,
		Clock:   clk,
		Effects: reg,
		Catalog: cat,
		Rand:    economy.NewRand(seed),
		OwnerID: cfg.Admin.OwnerID,
	})
	defer engine.Close()
	facade := command.New(engine)

	tg, err := bot.New(ctx, &bot.Dependencies{Config: cfg, Engine: engine, Facade: facade})
	if err != nil {
		return err
	}

	w, err := worker.New(engine)
	if err != nil {
		return err
	}
	w.Start()

	dash := dashboard.New(st, cat, cfg.Admin)
	go func() {
		if err := dash.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("Dashboard stopped")
		}
	}()

	go tg.Start()
	log.Info().Strs("commands", facade.Commands()).Msg("owobot is running")

	<-ctx.Done()
	log.Info().Msg("Received shutdown signal")

	tg.Stop()
	if err := dash.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Failed to stop dashboard")
	}
	if err := w.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop worker")
	}
	log.Info().Msg("owobot stopped gracefully")
	return nil
}
