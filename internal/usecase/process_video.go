package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/fiapx/fiapx-frame-sampler/internal/usecase"

// ProcessVideoUseCase turns one frames.extraction message into an uploaded
// archive of sampled frames.
type ProcessVideoUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	extractor port.FrameExtractor
	archiver  port.ArchiveBuilder
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	cfg       ProcessVideoConfig
}

type ProcessVideoConfig struct {
	TempDir          string
	MaxRetries       int
	DefaultInterval  float64
	MaxVideoBytes    int64
	ArchiveURLExpiry time.Duration
}

func NewProcessVideoUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	extractor port.FrameExtractor,
	archiver port.ArchiveBuilder,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessVideoConfig,
) *ProcessVideoUseCase {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.DefaultInterval <= 0 {
		cfg.DefaultInterval = 2
	}
	return &ProcessVideoUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		archiver:  archiver,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
	}
}

// request is a decoded message with defaults applied.
type request struct {
	msg         entity.FrameExtractionMessage
	raw         []byte
	interval    float64
	archiveName string
}

// Execute handles one delivery. A nil return acks the message: success, or a
// permanent failure already routed to the DLQ. A non-nil return asks for a retry.
func (uc *ProcessVideoUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ProcessVideoUseCase.Execute")
	defer span.End()

	started := time.Now()

	var msg entity.FrameExtractionMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		uc.sendToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error(), uc.logger)
		return nil
	}
	if msg.JobID == uuid.Nil || msg.VideoKey == "" {
		uc.logger.Error("message missing job_id or video_key", zap.ByteString("body", rawMsg))
		uc.sendToDLQ(ctx, rawMsg, "invalid_message: job_id and video_key are required", uc.logger)
		return nil
	}

	req := uc.newRequest(msg, rawMsg)

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
		attribute.Float64("job.interval_seconds", req.interval),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.findOrCreateJob(ctx, req)
	if err != nil {
		log.Error("failed to load job record", zap.Error(err))
		return err
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ", zap.Int("attempt", job.Attempt))
		return uc.handlePermanentFailure(ctx, job, req, fmt.Errorf("max retries exceeded: %s", job.ErrorMessage), log)
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	if err := uc.validate(req); err != nil {
		log.Warn("rejecting request", zap.Error(err))
		return uc.handleFailure(ctx, job, req, err, log)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.runPipeline(ctx, job, req, log); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return uc.handleFailure(ctx, job, req, err, log)
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(started).Seconds())
	return nil
}

func (uc *ProcessVideoUseCase) newRequest(msg entity.FrameExtractionMessage, raw []byte) request {
	interval := msg.IntervalSeconds
	if interval == 0 {
		interval = uc.cfg.DefaultInterval
	}

	name := strings.TrimSpace(msg.ArchiveName)
	if name == "" {
		name = fmt.Sprintf("frames_%s.zip", msg.JobID)
	} else if !strings.EqualFold(filepath.Ext(name), ".zip") {
		name += ".zip"
	}

	return request{msg: msg, raw: raw, interval: interval, archiveName: name}
}

func (uc *ProcessVideoUseCase) findOrCreateJob(ctx context.Context, req request) (*entity.Job, error) {
	job, err := uc.repo.FindByID(ctx, req.msg.JobID)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, port.ErrJobNotFound) {
		return nil, fmt.Errorf("find job: %w", err)
	}

	job = entity.NewJob(req.msg.JobID, req.msg.UserID, req.msg.VideoKey, req.msg.FileSize, req.interval, uc.cfg.MaxRetries)
	if err := uc.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

func (uc *ProcessVideoUseCase) validate(req request) error {
	if !entity.IsSupportedVideo(req.msg.VideoKey) {
		return entity.AtStage(entity.StageValidation,
			fmt.Errorf("%w: unsupported video format %q", entity.ErrInvalidInput, path.Ext(req.msg.VideoKey)))
	}
	if uc.cfg.MaxVideoBytes > 0 && req.msg.FileSize > uc.cfg.MaxVideoBytes {
		return entity.AtStage(entity.StageValidation,
			fmt.Errorf("%w: video is %d bytes, limit is %d", entity.ErrInvalidInput, req.msg.FileSize, uc.cfg.MaxVideoBytes))
	}
	if req.interval <= 0 || math.IsNaN(req.interval) || math.IsInf(req.interval, 0) {
		return entity.AtStage(entity.StageValidation,
			fmt.Errorf("%w: interval must be positive, got %v", entity.ErrInvalidInput, req.interval))
	}
	return nil
}

func (uc *ProcessVideoUseCase) runPipeline(ctx context.Context, job *entity.Job, req request, log *zap.Logger) error {
	workDir := filepath.Join(uc.cfg.TempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("%w: create workdir: %w", entity.ErrIO, err)
	}
	defer os.RemoveAll(workDir)

	videoPath := filepath.Join(workDir, "input"+strings.ToLower(path.Ext(req.msg.VideoKey)))
	err := uc.stage(ctx, "download_video", entity.StageDownload, func(ctx context.Context) error {
		return uc.storage.DownloadVideo(ctx, req.msg.VideoKey, videoPath)
	})
	if err != nil {
		return err
	}

	framesDir := filepath.Join(workDir, "frames")
	progress := newProgressReporter(job.ID.String(), log)
	defer progress.done()

	var result *entity.ExtractionResult
	err = uc.stage(ctx, "extract_frames", entity.StageExtraction, func(ctx context.Context) error {
		var err error
		result, err = uc.extractor.ExtractFrames(ctx, videoPath, req.interval, framesDir, progress.report)
		return err
	})
	if err != nil {
		return err
	}
	metrics.FramesSavedTotal.Add(float64(result.SavedCount))
	metrics.FramesDecodedTotal.Add(float64(result.FramesConsumed))

	// Workers share the archive directory, so the local file carries the job id.
	var archivePath string
	err = uc.stage(ctx, "build_archive", entity.StageArchiving, func(ctx context.Context) error {
		var err error
		archivePath, err = uc.archiver.BuildArchive(ctx, result.OutputDir, job.ID.String()+"_"+req.archiveName)
		return err
	})
	if archivePath != "" {
		defer os.Remove(archivePath)
	}
	if err != nil {
		return err
	}

	zipKey := fmt.Sprintf("%s/%s/%s", req.msg.UserID, job.ID, req.archiveName)
	err = uc.stage(ctx, "upload_archive", entity.StageUpload, func(ctx context.Context) error {
		return uc.uploadArchive(ctx, archivePath, zipKey)
	})
	if err != nil {
		return err
	}

	job.MarkCompleted(zipKey, result)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	status := entity.NewStatusMessage(job)
	status.DownloadURL = uc.archiveURL(ctx, zipKey, log)
	uc.publishStatus(ctx, status, log)

	log.Info("job completed",
		zap.Int("frame_count", result.SavedCount),
		zap.Int("frame_step", result.FrameStep),
		zap.Int("frames_decoded", result.FramesConsumed),
		zap.Int("images_per_minute", entity.EstimateImagesPerMinute(req.interval)),
		zap.Duration("video_duration", result.Info.Duration),
		zap.String("zip_key", zipKey),
	)
	return nil
}

// stage runs fn inside a span, records its duration and tags its error with stage.
func (uc *ProcessVideoUseCase) stage(ctx context.Context, spanName, stage string, fn func(context.Context) error) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attribute.String("stage", stage)))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return entity.AtStage(stage, err)
	}
	return nil
}

func (uc *ProcessVideoUseCase) uploadArchive(ctx context.Context, archivePath, zipKey string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("%w: open archive: %w", entity.ErrIO, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat archive: %w", entity.ErrIO, err)
	}
	metrics.ArchiveBytes.Observe(float64(st.Size()))

	return uc.storage.UploadArchive(ctx, zipKey, f, st.Size())
}

func (uc *ProcessVideoUseCase) archiveURL(ctx context.Context, zipKey string, log *zap.Logger) string {
	if uc.cfg.ArchiveURLExpiry <= 0 {
		return ""
	}
	u, err := uc.storage.ArchiveURL(ctx, zipKey, uc.cfg.ArchiveURLExpiry)
	if err != nil {
		log.Warn("failed to presign archive url", zap.Error(err))
		return ""
	}
	return u
}

func (uc *ProcessVideoUseCase) handleFailure(ctx context.Context, job *entity.Job, req request, err error, log *zap.Logger) error {
	if entity.IsPermanent(err) {
		return uc.handlePermanentFailure(ctx, job, req, err, log)
	}
	return uc.handleRetryableFailure(ctx, job, req, err, log)
}

func (uc *ProcessVideoUseCase) handleRetryableFailure(ctx context.Context, job *entity.Job, req request, err error, log *zap.Logger) error {
	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, req, err, log)
	}

	job.MarkFailed(err)
	if uerr := uc.repo.Update(ctx, job); uerr != nil {
		log.Error("failed to record failure", zap.Error(uerr))
	}

	metrics.FailuresTotal.WithLabelValues(stageLabel(job.FailedStage), "false").Inc()
	uc.publishStatus(ctx, entity.NewStatusMessage(job), log)

	log.Warn("job attempt failed, will retry",
		zap.Error(err),
		zap.String("stage", job.FailedStage),
		zap.Int("attempt", job.Attempt),
		zap.Int("max_attempts", job.MaxAttempts),
	)
	return fmt.Errorf("retryable failure (attempt %d/%d): %w", job.Attempt, job.MaxAttempts, err)
}

func (uc *ProcessVideoUseCase) handlePermanentFailure(ctx context.Context, job *entity.Job, req request, err error, log *zap.Logger) error {
	job.MarkFailed(err)
	if uerr := uc.repo.Update(ctx, job); uerr != nil {
		log.Error("failed to record failure", zap.Error(uerr))
	}

	uc.sendToDLQ(ctx, req.raw, err.Error(), log)
	uc.publishStatus(ctx, entity.NewStatusMessage(job), log)

	metrics.FailuresTotal.WithLabelValues(stageLabel(job.FailedStage), "true").Inc()
	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	log.Error("job failed permanently",
		zap.Error(err),
		zap.String("stage", job.FailedStage),
		zap.Int("attempt", job.Attempt),
	)

	if nerr := uc.notifier.NotifyFailure(ctx, req.msg.UserEmail, job.ID.String(), req.msg.VideoKey, job.FailedStage, err.Error()); nerr != nil {
		log.Warn("failure notification not delivered", zap.Error(nerr))
	}
	return nil
}

func (uc *ProcessVideoUseCase) sendToDLQ(ctx context.Context, raw []byte, reason string, log *zap.Logger) {
	if err := uc.dlq.PublishToDLQ(ctx, raw, reason); err != nil {
		log.Error("failed to publish to DLQ", zap.Error(err))
	}
}

func (uc *ProcessVideoUseCase) publishStatus(ctx context.Context, msg entity.FrameStatusMessage, log *zap.Logger) {
	if err := uc.publisher.PublishStatus(ctx, msg); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

func stageLabel(stage string) string {
	if stage == "" {
		return "unknown"
	}
	return stage
}
