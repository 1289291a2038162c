// Package sampling selects which frames of a video stream are persisted.
//
// A run walks the source exactly once. Frame i is saved when i is a multiple
// of the frame step, under the next free sequence number, so the output of a
// run is frame_0000.jpg, frame_0001.jpg, ... with no gaps.
package sampling

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
)

type Sampler struct {
	writer port.FrameWriter
}

func NewSampler(writer port.FrameWriter) *Sampler {
	if writer == nil {
		writer = NewJPEGWriter(DefaultJPEGQuality)
	}
	return &Sampler{writer: writer}
}

// Sample drains src and saves every step-th frame into outputDir.
// On a read or write failure the partial result is returned with the error.
// A source that yields no frame at all fails with entity.ErrEmptyResult.
func (s *Sampler) Sample(src port.VideoSource, step int, outputDir string, progress port.ProgressFunc) (*entity.ExtractionResult, error) {
	if step < 1 {
		return nil, fmt.Errorf("%w: frame step must be >= 1, got %d", entity.ErrInvalidInput, step)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output dir: %w", entity.ErrIO, err)
	}

	info := src.Info()
	res := &entity.ExtractionResult{
		FrameStep: step,
		OutputDir: outputDir,
		Info:      info,
	}

	for {
		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, classify(fmt.Errorf("read frame %d: %w", res.FramesConsumed, err))
		}

		if res.FramesConsumed%step == 0 {
			path := filepath.Join(outputDir, FrameName(res.SavedCount))
			if err := s.writer.WriteFrame(path, frame.Image); err != nil {
				return res, classify(fmt.Errorf("write %s: %w", filepath.Base(path), err))
			}
			res.FramePaths = append(res.FramePaths, path)
			res.SavedCount++
		}
		res.FramesConsumed++

		if progress != nil {
			progress(Fraction(res.FramesConsumed, info.DeclaredFrames))
		}
	}

	if res.FramesConsumed == 0 {
		return res, fmt.Errorf("%w: no frames could be read from the video", entity.ErrEmptyResult)
	}
	if progress != nil {
		progress(1)
	}
	return res, nil
}

// Fraction is consumed/declared clamped to [0,1]; 0 when declared is unknown.
func Fraction(consumed, declared int) float64 {
	if declared <= 0 || consumed <= 0 {
		return 0
	}
	return min(float64(consumed)/float64(declared), 1)
}

// classify keeps an error already tagged by the source and tags anything else as I/O.
func classify(err error) error {
	if errors.Is(err, entity.ErrInvalidInput) || errors.Is(err, entity.ErrIO) || errors.Is(err, entity.ErrEmptyResult) {
		return err
	}
	return fmt.Errorf("%w: %w", entity.ErrIO, err)
}
