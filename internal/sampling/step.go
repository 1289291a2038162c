package sampling

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
)

const (
	framePrefix = "frame_"
	frameExt    = ".jpg"
)

// ComputeFrameStep converts a sampling interval into the number of source
// frames between two saved frames. An unknown or non-positive frame rate is
// rejected instead of guessed. An interval shorter than half a frame keeps
// every frame.
func ComputeFrameStep(frameRate, intervalSeconds float64) (int, error) {
	if err := ValidateInterval(intervalSeconds); err != nil {
		return 0, err
	}
	if !isFinitePositive(frameRate) {
		return 0, fmt.Errorf("%w: video frame rate is unknown or not positive (%v)", entity.ErrInvalidInput, frameRate)
	}

	step := math.Round(frameRate * intervalSeconds)
	if step > math.MaxInt32 {
		return 0, fmt.Errorf("%w: sampling interval %vs is too large", entity.ErrInvalidInput, intervalSeconds)
	}
	if step < 1 {
		return 1, nil
	}
	return int(step), nil
}

// ValidateInterval rejects intervals that are not a finite positive number of seconds.
func ValidateInterval(intervalSeconds float64) error {
	if !isFinitePositive(intervalSeconds) {
		return fmt.Errorf("%w: sampling interval must be a positive number of seconds, got %v", entity.ErrInvalidInput, intervalSeconds)
	}
	return nil
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// FrameName returns the file name for the seq-th saved image, e.g. frame_0007.jpg.
func FrameName(seq int) string {
	return fmt.Sprintf("%s%04d%s", framePrefix, seq, frameExt)
}

// ParseFrameName is the inverse of FrameName.
func ParseFrameName(name string) (int, bool) {
	if !strings.HasPrefix(name, framePrefix) || !strings.HasSuffix(name, frameExt) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, framePrefix), frameExt)
	if len(digits) < 4 {
		return 0, false
	}
	seq, err := strconv.Atoi(digits)
	if err != nil || FrameName(seq) != name {
		return 0, false
	}
	return seq, true
}

// ExpectedCount is the number of frames a run saves from n consumed frames.
func ExpectedCount(n, step int) int {
	if n <= 0 || step <= 0 {
		return 0
	}
	return (n + step - 1) / step
}
