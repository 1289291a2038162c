package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobColumns = `id, user_id, video_key, zip_key, status, interval_seconds,
	frame_step, frame_count, file_size, video_duration, attempt, max_attempts,
	failed_stage, error_message, created_at, updated_at, completed_at`

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	query := `INSERT INTO processing_jobs (` + jobColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoKey, job.ZipKey, string(job.Status),
		job.IntervalSeconds, job.FrameStep, job.FrameCount, job.FileSize,
		job.VideoDuration, job.Attempt, job.MaxAttempts,
		job.FailedStage, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE processing_jobs SET
			status=$2, zip_key=$3, interval_seconds=$4, frame_step=$5,
			frame_count=$6, video_duration=$7, attempt=$8, failed_stage=$9,
			error_message=$10, updated_at=$11, completed_at=$12
		WHERE id=$1`

	tag, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ZipKey, job.IntervalSeconds,
		job.FrameStep, job.FrameCount, job.VideoDuration, job.Attempt,
		job.FailedStage, job.ErrorMessage, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update job %s: %w", job.ID, port.ErrJobNotFound)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM processing_jobs WHERE id=$1`

	job, err := scanJob(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find job %s: %w", id, port.ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	return job, nil
}

func scanJob(row pgx.Row) (*entity.Job, error) {
	job := &entity.Job{}
	var status string
	err := row.Scan(
		&job.ID, &job.UserID, &job.VideoKey, &job.ZipKey, &status,
		&job.IntervalSeconds, &job.FrameStep, &job.FrameCount, &job.FileSize,
		&job.VideoDuration, &job.Attempt, &job.MaxAttempts,
		&job.FailedStage, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}
