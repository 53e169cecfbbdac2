package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"hal_bridge/internal/adapters/observability"
	"hal_bridge/internal/adapters/writers"
	"hal_bridge/internal/app"
	"hal_bridge/internal/domain"
	"hal_bridge/internal/shared"
	mysqlrepo "hal_bridge/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	log.Info().Str("dir", cfg.ExportDir).Str("site", cfg.SiteURL).Msg("exporter starting")

	reg := observability.InitRegistry()
	if srv := observability.Serve(cfg.MetricsAddr, reg); srv != nil {
		defer srv.Close()
	}

	db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("document store unavailable")
	}
	defer db.Close()

	svc := app.NewExportService(mysqlrepo.New(db), cfg.ExportDir, writers.Channel{
		Title:       cfg.SiteTitle,
		Link:        cfg.SiteURL,
		Description: cfg.SiteDescription,
		Language:    cfg.SiteLanguage,
	})

	rep, err := svc.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("kind", string(domain.KindOf(err))).Msg("export aborted")
	}

	for _, f := range rep.Files {
		ev := log.Info()
		if f.Status != app.StageOK {
			ev = log.Error().Str("err", f.Err)
		}
		ev.Str("format", f.Format).Str("path", f.Path).Int("records", f.Records).Str("status", string(f.Status)).Msg("summary")
	}
	log.Info().
		Int("companies", rep.Companies).
		Int("blog_posts", rep.BlogPosts).
		Int("files_failed", len(rep.Failed())).
		Dur("took", rep.Finished.Sub(rep.Started)).
		Msg("export completed")
}
