package entity

import (
	"image"
	"path/filepath"
	"strings"
	"time"
)

// VideoInfo is the container metadata reported for a video source.
// DeclaredFrames is advisory: some containers misreport it and it is 0 when unknown.
type VideoInfo struct {
	FrameRate      float64
	DeclaredFrames int
	Width          int
	Height         int
	Duration       time.Duration
	Codec          string
}

// Frame is one decoded picture. Index starts at 0 and increases by one per frame.
type Frame struct {
	Index int
	Image image.Image
}

// ExtractionResult describes one sampling run.
type ExtractionResult struct {
	SavedCount     int
	FramesConsumed int
	FrameStep      int
	OutputDir      string
	FramePaths     []string
	Info           VideoInfo
}

var supportedVideoExts = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
	".mkv": true,
}

// IsSupportedVideo reports whether name carries one of the accepted container extensions.
func IsSupportedVideo(name string) bool {
	return supportedVideoExts[strings.ToLower(filepath.Ext(name))]
}

// EstimateImagesPerMinute gives the expected image count for one minute of footage.
func EstimateImagesPerMinute(intervalSeconds float64) int {
	if intervalSeconds <= 0 {
		return 0
	}
	return int(60 / intervalSeconds)
}
