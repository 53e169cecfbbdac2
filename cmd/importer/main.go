package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"hal_bridge/internal/adapters/legacy"
	"hal_bridge/internal/adapters/observability"
	redisad "hal_bridge/internal/adapters/redis"
	"hal_bridge/internal/app"
	"hal_bridge/internal/domain"
	"hal_bridge/internal/shared"
	mysqlrepo "hal_bridge/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("base", cfg.LegacyBase).
		Str("listing_type", cfg.LegacyListing).
		Int("page_size", cfg.LegacyPageSize).
		Int("max_pages", cfg.LegacyMaxPages).
		Msg("importer starting")

	reg := observability.InitRegistry()
	if srv := observability.Serve(cfg.MetricsAddr, reg); srv != nil {
		defer srv.Close()
	}

	// 2) store: unreachable is fatal before any fetch happens
	db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("document store unavailable")
	}
	defer db.Close()
	log.Info().Msg("db ping ok")
	repo := mysqlrepo.New(db)

	// 3) optional fetch cache
	var cache domain.Cache
	if cfg.RedisAddr != "" && cfg.LegacyCacheTTL > 0 {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable; fetching without cache")
			_ = rc.Close()
		} else {
			cache = rc
			defer rc.Close()
		}
		cancel()
	}

	client, err := legacy.New(legacy.Options{
		BaseURL:     cfg.LegacyBase,
		User:        cfg.LegacyUser,
		Password:    cfg.LegacyPassword,
		RPS:         cfg.LegacyRPS,
		MaxRetries:  cfg.LegacyMaxRetries,
		BackoffBase: cfg.LegacyBackoffBase,
		BackoffMax:  cfg.LegacyBackoffMax,
		MaxPages:    cfg.LegacyMaxPages,
		Cache:       cache,
		CacheTTL:    cfg.LegacyCacheTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize legacy client")
	}

	rep, err := app.NewImportService(client, repo, cfg.LegacyListing, cfg.LegacyPageSize).Run(ctx)
	logImportReport(rep)
	if err != nil {
		log.Fatal().Err(err).Str("kind", string(domain.KindOf(err))).Msg("import aborted")
	}
	log.Info().Dur("took", rep.Finished.Sub(rep.Started)).Msg("import completed")
}

func logImportReport(rep app.ImportReport) {
	for _, st := range []app.StageReport{rep.Posts, rep.Listings} {
		ev := log.Info()
		if st.Status != app.StageOK {
			ev = log.Warn().Str("kind", string(st.Kind)).Str("err", st.Err)
		}
		ev.Str("stage", st.Name).
			Str("status", string(st.Status)).
			Int("fetched", st.Fetched).
			Int("migrated", st.Migrated()).
			Int("inserted", st.Inserted).
			Int("updated", st.Updated).
			Int("failed", st.Failed).
			Int("rejected", st.Rejected).
			Msg("summary")
	}
}
