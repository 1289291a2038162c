package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Job is the persisted record of one frame extraction request.
type Job struct {
	ID              uuid.UUID
	UserID          string
	VideoKey        string
	ZipKey          string
	Status          JobStatus
	IntervalSeconds float64
	FrameStep       int
	FrameCount      int
	FileSize        int64
	VideoDuration   float64
	Attempt         int
	MaxAttempts     int
	FailedStage     string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

func NewJob(id uuid.UUID, userID, videoKey string, fileSize int64, interval float64, maxAttempts int) *Job {
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now().UTC()
	return &Job{
		ID:              id,
		UserID:          userID,
		VideoKey:        videoKey,
		FileSize:        fileSize,
		IntervalSeconds: interval,
		Status:          JobStatusPending,
		MaxAttempts:     maxAttempts,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (j *Job) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.FailedStage = ""
	j.ErrorMessage = ""
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) MarkCompleted(zipKey string, res *ExtractionResult) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ZipKey = zipKey
	j.FrameCount = res.SavedCount
	j.FrameStep = res.FrameStep
	j.VideoDuration = res.Info.Duration.Seconds()
	j.UpdatedAt = now
	j.CompletedAt = &now
}

// MarkFailed records err and the stage it came from.
func (j *Job) MarkFailed(err error) {
	j.Status = JobStatusFailed
	j.FailedStage = StageOf(err)
	j.ErrorMessage = err.Error()
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
