package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fiapx/fiapx-frame-sampler/internal/infra/archive"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/config"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/email"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/metrics"
	miniostorage "github.com/fiapx/fiapx-frame-sampler/internal/infra/minio"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/postgres"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/rabbitmq"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/tracing"
	"github.com/fiapx/fiapx-frame-sampler/internal/sampling"
	"github.com/fiapx/fiapx-frame-sampler/internal/usecase"
	"github.com/fiapx/fiapx-frame-sampler/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting fiapx-frame-sampler", zap.String("version", version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing is optional.
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, version)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:      cfg.MinIOEndpoint,
		AccessKey:     cfg.MinIOAccessKey,
		SecretKey:     cfg.MinIOSecretKey,
		UseSSL:        cfg.MinIOUseSSL,
		UploadBucket:  cfg.MinIOUploadBucket,
		ArchiveBucket: cfg.MinIOZipBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	extractor := ffmpeg.NewExtractor(
		ffmpeg.NewOpener(cfg.FFmpegPath, cfg.FFprobeTimeout, log),
		sampling.NewSampler(sampling.NewResizingWriter(sampling.NewJPEGWriter(cfg.JPEGQuality), cfg.MaxFrameWidth)),
		log,
	)
	archiver := archive.NewZipBuilder(cfg.TempDir, cfg.CompressionLevel, log)

	uc := usecase.NewProcessVideoUseCase(
		postgres.NewJobRepository(pool),
		storage,
		extractor,
		archiver,
		rabbitmq.NewStatusPublisher(pub),
		rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ),
		email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log),
		log,
		usecase.ProcessVideoConfig{
			TempDir:          cfg.TempDir,
			MaxRetries:       cfg.MaxRetries,
			DefaultInterval:  cfg.DefaultIntervalSeconds,
			MaxVideoBytes:    cfg.MaxVideoBytes,
			ArchiveURLExpiry: cfg.ArchiveURLExpiry,
		},
	)

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQExtractionQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("consuming frame extraction requests",
		zap.String("queue", cfg.RabbitMQExtractionQueue),
		zap.Int("workers", cfg.WorkerCount),
		zap.Float64("default_interval_seconds", cfg.DefaultIntervalSeconds),
	)

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	pub.Close()
	log.Info("fiapx-frame-sampler stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
