package entity

import "github.com/google/uuid"

// FrameExtractionMessage is the inbound message from the frames.extraction queue.
// IntervalSeconds and ArchiveName are optional; the worker fills in defaults.
type FrameExtractionMessage struct {
	JobID           uuid.UUID `json:"job_id"`
	UserID          string    `json:"user_id"`
	VideoKey        string    `json:"video_key"`
	FileSize        int64     `json:"file_size"`
	UserEmail       string    `json:"user_email"`
	IntervalSeconds float64   `json:"interval_seconds,omitempty"`
	ArchiveName     string    `json:"archive_name,omitempty"`
}

// FrameStatusMessage is the outbound message published to the frames.status queue.
type FrameStatusMessage struct {
	JobID           uuid.UUID `json:"job_id"`
	UserID          string    `json:"user_id"`
	Status          JobStatus `json:"status"`
	VideoKey        string    `json:"video_key"`
	ZipKey          string    `json:"zip_key,omitempty"`
	DownloadURL     string    `json:"download_url,omitempty"`
	FrameCount      int       `json:"frame_count,omitempty"`
	FrameStep       int       `json:"frame_step,omitempty"`
	IntervalSeconds float64   `json:"interval_seconds,omitempty"`
	Duration        float64   `json:"duration_seconds,omitempty"`
	FailedStage     string    `json:"failed_stage,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	Attempt         int       `json:"attempt"`
	MaxAttempts     int       `json:"max_attempts"`
}

func NewStatusMessage(job *Job) FrameStatusMessage {
	return FrameStatusMessage{
		JobID:           job.ID,
		UserID:          job.UserID,
		Status:          job.Status,
		VideoKey:        job.VideoKey,
		ZipKey:          job.ZipKey,
		FrameCount:      job.FrameCount,
		FrameStep:       job.FrameStep,
		IntervalSeconds: job.IntervalSeconds,
		Duration:        job.VideoDuration,
		FailedStage:     job.FailedStage,
		ErrorMessage:    job.ErrorMessage,
		Attempt:         job.Attempt,
		MaxAttempts:     job.MaxAttempts,
	}
}
