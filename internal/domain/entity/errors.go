package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers bad sampling intervals, unusable frame rates and
	// containers ffmpeg cannot decode.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIO covers filesystem and decoder read/write failures.
	ErrIO = errors.New("io error")

	// ErrEmptyResult is returned when a source opened fine but yielded no frames.
	ErrEmptyResult = errors.New("empty result")
)

const (
	StageValidation = "validation"
	StageDownload   = "download"
	StageExtraction = "extraction"
	StageArchiving  = "archiving"
	StageUpload     = "upload"
)

// StageError tags an error with the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// AtStage wraps err in a StageError. A nil err stays nil.
func AtStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) && se.Stage == stage {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage recorded on err, or "" when there is none.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// IsPermanent reports whether retrying the same request can never succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrEmptyResult)
}
