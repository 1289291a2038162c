package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

const stderrTail = 4096

// Opener decodes videos by piping raw RGBA frames out of an ffmpeg process.
type Opener struct {
	ffmpegPath   string
	probeTimeout time.Duration
	logger       *zap.Logger
}

func NewOpener(ffmpegPath string, probeTimeout time.Duration, logger *zap.Logger) *Opener {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Opener{ffmpegPath: ffmpegPath, probeTimeout: probeTimeout, logger: logger}
}

func (o *Opener) Open(ctx context.Context, videoPath string) (port.VideoSource, error) {
	f, err := os.Open(videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open video: %w", entity.ErrIO, err)
	}
	f.Close()

	info, err := Probe(videoPath, o.probeTimeout)
	if err != nil {
		return nil, err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: video stream reports no frame size", entity.ErrInvalidInput)
	}

	cmd := exec.CommandContext(ctx, o.ffmpegPath, decodeArgs(videoPath)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg stdout: %w", entity.ErrIO, err)
	}
	stderr := &tailBuffer{limit: stderrTail}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %w", entity.ErrIO, err)
	}

	o.logger.Debug("ffmpeg decoder started",
		zap.String("video", videoPath),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Float64("fps", info.FrameRate),
		zap.Int("declared_frames", info.DeclaredFrames),
	)

	return &processSource{
		ctx:    ctx,
		cmd:    cmd,
		stderr: stderr,
		frames: newFrameReader(stdout, info),
	}, nil
}

func decodeArgs(videoPath string) []string {
	return ffmpeggo.Input(videoPath).
		Output("pipe:1", ffmpeggo.KwArgs{
			"format":  "rawvideo",
			"pix_fmt": "rgba",
			"vsync":   "0",
		}).
		GlobalArgs("-nostdin", "-loglevel", "error").
		GetArgs()
}

// processSource ties a frameReader to the lifetime of the ffmpeg process feeding it.
type processSource struct {
	ctx     context.Context
	cmd     *exec.Cmd
	stderr  *tailBuffer
	frames  *frameReader
	waited  bool
	waitErr error
}

func (s *processSource) Info() entity.VideoInfo {
	return s.frames.info
}

func (s *processSource) Next() (*entity.Frame, error) {
	frame, err := s.frames.next()
	if !errors.Is(err, io.EOF) {
		return frame, err
	}

	if werr := s.wait(); werr != nil {
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: decoding aborted: %w", entity.ErrIO, ctxErr)
		}
		if s.frames.index == 0 {
			return nil, fmt.Errorf("%w: ffmpeg could not decode video: %v: %s", entity.ErrInvalidInput, werr, s.stderr)
		}
		return nil, fmt.Errorf("%w: ffmpeg failed after frame %d: %v: %s", entity.ErrIO, s.frames.index, werr, s.stderr)
	}
	return nil, io.EOF
}

// Close stops ffmpeg if it is still running. It is safe to call more than once.
func (s *processSource) Close() error {
	if s.waited {
		return nil
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.wait()
	return nil
}

func (s *processSource) wait() error {
	if !s.waited {
		s.waitErr = s.cmd.Wait()
		s.waited = true
	}
	return s.waitErr
}

// frameReader slices a raw RGBA byte stream into frames. The image buffer is
// reused between calls.
type frameReader struct {
	r     io.Reader
	info  entity.VideoInfo
	img   *image.RGBA
	index int
}

func newFrameReader(r io.Reader, info entity.VideoInfo) *frameReader {
	return &frameReader{
		r:    r,
		info: info,
		img:  image.NewRGBA(image.Rect(0, 0, info.Width, info.Height)),
	}
}

func (fr *frameReader) next() (*entity.Frame, error) {
	_, err := io.ReadFull(fr.r, fr.img.Pix)
	switch {
	case err == io.EOF:
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: truncated frame %d (expected %d bytes)", entity.ErrIO, fr.index, len(fr.img.Pix))
	case err != nil:
		return nil, fmt.Errorf("%w: read frame %d: %w", entity.ErrIO, fr.index, err)
	}

	frame := &entity.Frame{Index: fr.index, Image: fr.img}
	fr.index++
	return frame, nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}
