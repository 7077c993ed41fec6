package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"

	"github.com/saeidalz13/battleship-arena/api"
	"github.com/saeidalz13/battleship-arena/archive"
	"github.com/saeidalz13/battleship-arena/db"
	"github.com/saeidalz13/battleship-arena/db/sqlc"
	"github.com/saeidalz13/battleship-arena/internal"
	"github.com/saeidalz13/battleship-arena/internal/config"
	mb "github.com/saeidalz13/battleship-arena/models/battleship"
	mc "github.com/saeidalz13/battleship-arena/models/connection"
)

const sessionCleanupInterval time.Duration = time.Minute * 5

func setupLogger(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Stage == config.StageDev {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// newArchiveStore picks the durable store for finished matches. queries
// is nil when no database is configured.
func newArchiveStore(ctx context.Context, cfg config.Config, queries sqlc.Querier) (archive.Store, error) {
	switch cfg.ArchiveBackend {
	case config.ArchiveBackendPostgres:
		if queries == nil {
			return nil, errors.New("postgres archive backend needs a database connection")
		}
		return archive.NewPostgresStore(queries), nil

	case config.ArchiveBackendS3:
		client, err := archive.NewS3Client(ctx, archive.S3Config{
			Bucket:          cfg.S3.Bucket,
			Key:             cfg.S3.Key,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyId:     cfg.S3.AccessKeyId,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return archive.NewS3Store(client, cfg.S3.Bucket, cfg.S3.Key), nil

	default:
		return archive.NewFileStore(cfg.ArchiveFile), nil
	}
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(err)
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		queries   sqlc.Querier
		analytics *sqlc.AnalyticsManager
		// api.Analytics stays a nil interface when there is no database
		serverAnalytics api.Analytics
	)
	if cfg.DatabaseURL != "" {
		psqlDb := db.MustConnectToDb(cfg.DatabaseURL, cfg.MigrationsDir)
		defer psqlDb.Close()

		serverIpNet, err := internal.ServerIpNet()
		if err != nil {
			log.Warn().Err(err).Msg("falling back to loopback for analytics")
			serverIpNet = internal.LoopbackIpNet()
		}

		dbManager := sqlc.NewDbManager(sqlc.New(psqlDb), pqtype.Inet{IPNet: serverIpNet, Valid: true})
		queries = dbManager.Queries
		analytics = dbManager.Analytics
		serverAnalytics = analytics
	}

	store, err := newArchiveStore(ctx, cfg, queries)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.ArchiveBackend).Msg("failed to set up archive store")
	}

	writer := archive.NewWriter(store, archive.WithOnWritten(func(ctx context.Context, rec mb.ArchiveRecord) {
		if analytics == nil || !rec.Completed {
			return
		}
		if err := analytics.IncrementMatchesFinishedCount(ctx); err != nil {
			log.Error().Err(err).Str("match_id", rec.MatchId).Msg("failed to increment finished matches")
		}
	}))
	// The writer outlives the server so records queued during shutdown
	// are still written.
	writerCtx, stopWriter := context.WithCancel(context.Background())
	go writer.Run(writerCtx)

	clock := clockwork.NewRealClock()
	sessionManager := mc.NewBattleshipSessionManager(clock, mc.DefaultIdleTimeout)
	matchManager := mb.NewBattleshipMatchManager(
		mb.WithClock(clock),
		mb.WithTurnDuration(cfg.TurnDuration),
		mb.WithEventSink(sessionManager),
		mb.WithArchiver(writer),
	)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		panic(err)
	}
	if err := matchManager.ScheduleSweep(scheduler, mb.DefaultSweepInterval); err != nil {
		panic(err)
	}
	if err := sessionManager.ScheduleCleanup(scheduler, sessionCleanupInterval); err != nil {
		panic(err)
	}
	scheduler.Start()

	server := api.NewServer(
		sessionManager,
		matchManager,
		api.WithPort(cfg.Port),
		api.WithStage(cfg.Stage),
		api.WithPublicURL(cfg.PublicURL),
		api.WithAnalytics(serverAnalytics),
		api.WithArchiveStore(store),
	)

	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
	}

	if err := scheduler.Shutdown(); err != nil {
		log.Error().Err(err).Msg("failed to shut down scheduler")
	}
	stopWriter()
	<-writer.Done()
	log.Info().Msg("bye")
}
