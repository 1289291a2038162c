package ffmpeg

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

type probeStream struct {
	CodecType    string            `json:"codec_type"`
	CodecName    string            `json:"codec_name"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	RFrameRate   string            `json:"r_frame_rate"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	NbFrames     string            `json:"nb_frames"`
	Duration     string            `json:"duration"`
	Tags         map[string]string `json:"tags"`
	SideDataList []probeSideData   `json:"side_data_list"`
}

type probeSideData struct {
	SideDataType string  `json:"side_data_type"`
	Rotation     float64 `json:"rotation"`
}

// Probe reads container metadata with ffprobe. Failure to probe, or a file
// without a video stream, is reported as entity.ErrInvalidInput.
func Probe(videoPath string, timeout time.Duration) (entity.VideoInfo, error) {
	out, err := ffmpeggo.ProbeWithTimeout(videoPath, timeout, ffmpeggo.KwArgs{})
	if err != nil {
		return entity.VideoInfo{}, fmt.Errorf("%w: ffprobe %s: %w", entity.ErrInvalidInput, videoPath, err)
	}
	return parseProbe([]byte(out))
}

func parseProbe(data []byte) (entity.VideoInfo, error) {
	var probe probeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return entity.VideoInfo{}, fmt.Errorf("%w: parse ffprobe output: %w", entity.ErrInvalidInput, err)
	}

	var video *probeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "video" {
			video = &probe.Streams[i]
			break
		}
	}
	if video == nil {
		return entity.VideoInfo{}, fmt.Errorf("%w: no video stream found", entity.ErrInvalidInput)
	}

	info := entity.VideoInfo{
		Width:  video.Width,
		Height: video.Height,
		Codec:  video.CodecName,
	}
	if isQuarterTurn(streamRotation(video)) {
		info.Width, info.Height = info.Height, info.Width
	}

	info.FrameRate = parseFrameRate(video.AvgFrameRate)
	if info.FrameRate == 0 {
		info.FrameRate = parseFrameRate(video.RFrameRate)
	}

	seconds := parseSeconds(video.Duration)
	if seconds == 0 {
		seconds = parseSeconds(probe.Format.Duration)
	}
	info.Duration = time.Duration(seconds * float64(time.Second))

	if n, err := strconv.Atoi(video.NbFrames); err == nil && n > 0 {
		info.DeclaredFrames = n
	} else if seconds > 0 && info.FrameRate > 0 {
		info.DeclaredFrames = int(math.Round(seconds * info.FrameRate))
	}

	return info, nil
}

// parseFrameRate parses ffprobe rates such as "30000/1001" or "25". "0/0" yields 0.
func parseFrameRate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return positiveOrZero(n)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return positiveOrZero(n / d)
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return positiveOrZero(v)
}

func positiveOrZero(v float64) float64 {
	if v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) {
		return v
	}
	return 0
}

func streamRotation(s *probeStream) float64 {
	for _, sd := range s.SideDataList {
		if sd.Rotation != 0 {
			return sd.Rotation
		}
	}
	if r, err := strconv.ParseFloat(s.Tags["rotate"], 64); err == nil {
		return r
	}
	return 0
}

func isQuarterTurn(deg float64) bool {
	r := math.Mod(math.Abs(math.Round(deg)), 180)
	return r == 90
}
