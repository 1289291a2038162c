package sampling

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource yields total frames of 4x4 pixels whose red channel encodes the index.
type fakeSource struct {
	info   entity.VideoInfo
	total  int
	failAt int
	next   int
	closed bool
}

func newFakeSource(total int, fps float64, declared int) *fakeSource {
	return &fakeSource{
		info:   entity.VideoInfo{FrameRate: fps, DeclaredFrames: declared, Width: 4, Height: 4},
		total:  total,
		failAt: -1,
	}
}

func (s *fakeSource) Info() entity.VideoInfo { return s.info }

func (s *fakeSource) Next() (*entity.Frame, error) {
	if s.next == s.failAt {
		return nil, errors.New("corrupt packet")
	}
	if s.next >= s.total {
		return nil, io.EOF
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(s.next % 256), G: uint8(s.next / 256), B: 0x40, A: 0xff})
		}
	}
	f := &entity.Frame{Index: s.next, Image: img}
	s.next++
	return f, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

// recordingWriter remembers which source frames were written.
type recordingWriter struct {
	indexes []int
	names   []string
	failOn  int
}

func (w *recordingWriter) WriteFrame(path string, img image.Image) error {
	if w.failOn > 0 && len(w.names) == w.failOn {
		return errors.New("disk full")
	}
	r, g, _, _ := img.At(0, 0).RGBA()
	w.indexes = append(w.indexes, int(r>>8)+int(g>>8)*256)
	w.names = append(w.names, filepath.Base(path))
	return nil
}

func TestComputeFrameStep(t *testing.T) {
	tests := []struct {
		name     string
		fps      float64
		interval float64
		want     int
		wantErr  error
	}{
		{name: "30fps every 2s", fps: 30, interval: 2, want: 60},
		{name: "ntsc rounds", fps: 29.97, interval: 1, want: 30},
		{name: "fractional interval", fps: 25, interval: 0.5, want: 13},
		{name: "sub-frame interval keeps every frame", fps: 24, interval: 0.01, want: 1},
		{name: "zero interval", fps: 30, interval: 0, wantErr: entity.ErrInvalidInput},
		{name: "negative interval", fps: 30, interval: -1, wantErr: entity.ErrInvalidInput},
		{name: "unknown frame rate", fps: 0, interval: 2, wantErr: entity.ErrInvalidInput},
		{name: "negative frame rate", fps: -25, interval: 2, wantErr: entity.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeFrameStep(tt.fps, tt.interval)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSampleSavesEveryStepFrame(t *testing.T) {
	w := &recordingWriter{}
	src := newFakeSource(100, 25, 100)

	res, err := NewSampler(w).Sample(src, 25, t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, res.SavedCount)
	assert.Equal(t, 100, res.FramesConsumed)
	assert.Equal(t, []int{0, 25, 50, 75}, w.indexes)
	assert.Equal(t, []string{"frame_0000.jpg", "frame_0001.jpg", "frame_0002.jpg", "frame_0003.jpg"}, w.names)
}

func TestSampleTenSecondsAtThirtyFPS(t *testing.T) {
	step, err := ComputeFrameStep(30, 2)
	require.NoError(t, err)
	require.Equal(t, 60, step)

	w := &recordingWriter{}
	res, err := NewSampler(w).Sample(newFakeSource(300, 30, 300), step, t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, 5, res.SavedCount)
	assert.Equal(t, []int{0, 60, 120, 180, 240}, w.indexes)
	assert.Equal(t, "frame_0004.jpg", w.names[4])
}

func TestSampleIntervalLongerThanVideo(t *testing.T) {
	step, err := ComputeFrameStep(30, 60)
	require.NoError(t, err)

	w := &recordingWriter{}
	res, err := NewSampler(w).Sample(newFakeSource(90, 30, 90), step, t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SavedCount)
	assert.Equal(t, []int{0}, w.indexes)
}

func TestSampleCountMatchesCeil(t *testing.T) {
	for _, n := range []int{1, 2, 7, 59, 60, 61, 119, 120, 301} {
		for _, step := range []int{1, 2, 3, 25, 60, 500} {
			res, err := NewSampler(&recordingWriter{}).Sample(newFakeSource(n, 30, n), step, t.TempDir(), nil)
			require.NoError(t, err)
			assert.Equalf(t, ExpectedCount(n, step), res.SavedCount, "n=%d step=%d", n, step)
		}
	}
}

func TestSampleEmptySource(t *testing.T) {
	var calls int
	res, err := NewSampler(&recordingWriter{}).Sample(newFakeSource(0, 30, 0), 30, t.TempDir(), func(float64) { calls++ })

	require.ErrorIs(t, err, entity.ErrEmptyResult)
	require.NotNil(t, res)
	assert.Zero(t, res.SavedCount)
	assert.Zero(t, calls)
}

func TestSampleReadErrorKeepsPartialResult(t *testing.T) {
	src := newFakeSource(100, 10, 100)
	src.failAt = 35

	w := &recordingWriter{}
	res, err := NewSampler(w).Sample(src, 10, t.TempDir(), nil)

	require.ErrorIs(t, err, entity.ErrIO)
	assert.Contains(t, err.Error(), "corrupt packet")
	assert.Equal(t, 4, res.SavedCount)
	assert.Equal(t, 35, res.FramesConsumed)
}

func TestSampleReadErrorKeepsSourceClassification(t *testing.T) {
	src := &erroringSource{err: entity.ErrInvalidInput}
	_, err := NewSampler(&recordingWriter{}).Sample(src, 1, t.TempDir(), nil)

	require.ErrorIs(t, err, entity.ErrInvalidInput)
	assert.NotErrorIs(t, err, entity.ErrIO)
}

func TestSampleWriteError(t *testing.T) {
	w := &recordingWriter{failOn: 2}
	res, err := NewSampler(w).Sample(newFakeSource(50, 10, 50), 10, t.TempDir(), nil)

	require.ErrorIs(t, err, entity.ErrIO)
	assert.Contains(t, err.Error(), "frame_0002.jpg")
	assert.Equal(t, 2, res.SavedCount)
}

func TestSampleRejectsZeroStep(t *testing.T) {
	_, err := NewSampler(&recordingWriter{}).Sample(newFakeSource(10, 30, 10), 0, t.TempDir(), nil)
	require.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestSampleProgressToleratesWrongDeclaredTotal(t *testing.T) {
	// container claims 40 frames but holds 100
	src := newFakeSource(100, 30, 40)

	var fractions []float64
	res, err := NewSampler(&recordingWriter{}).Sample(src, 30, t.TempDir(), func(f float64) {
		fractions = append(fractions, f)
	})
	require.NoError(t, err)

	assert.Equal(t, 100, res.FramesConsumed)
	assert.Equal(t, 4, res.SavedCount)
	require.Len(t, fractions, 101)
	prev := 0.0
	for _, f := range fractions {
		assert.GreaterOrEqual(t, f, prev)
		assert.LessOrEqual(t, f, 1.0)
		prev = f
	}
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
}

func TestSampleCreatesOutputDirAndKeepsExistingFiles(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "frames")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "keep.txt"), []byte("x"), 0o644))

	res, err := NewSampler(nil).Sample(newFakeSource(10, 5, 10), 5, out, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SavedCount)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"frame_0000.jpg", "frame_0001.jpg", "keep.txt"}, names)
}

func TestSampleIsIdempotent(t *testing.T) {
	run := func() []string {
		res, err := NewSampler(NewJPEGWriter(90)).Sample(newFakeSource(40, 10, 40), 10, t.TempDir(), nil)
		require.NoError(t, err)
		return res.FramePaths
	}

	first, second := run(), run()
	require.Len(t, first, 4)
	require.Len(t, second, 4)
	for i := range first {
		assert.Equal(t, filepath.Base(first[i]), filepath.Base(second[i]))
		a, err := os.ReadFile(first[i])
		require.NoError(t, err)
		b, err := os.ReadFile(second[i])
		require.NoError(t, err)
		assert.True(t, bytes.Equal(a, b), "frame %d differs between runs", i)
	}
}

func TestFrameNameRoundTrip(t *testing.T) {
	assert.Equal(t, "frame_0000.jpg", FrameName(0))
	assert.Equal(t, "frame_0042.jpg", FrameName(42))
	assert.Equal(t, "frame_12345.jpg", FrameName(12345))

	seq, ok := ParseFrameName("frame_0042.jpg")
	assert.True(t, ok)
	assert.Equal(t, 42, seq)

	seq, ok = ParseFrameName("frame_12345.jpg")
	assert.True(t, ok)
	assert.Equal(t, 12345, seq)

	for _, bad := range []string{
		"frame_42.jpg", "frame_00a1.jpg", "img_0001.jpg", "frame_0001.png",
		"frame_+123.jpg", "frame_-123.jpg", "frame_00042.jpg",
	} {
		_, ok := ParseFrameName(bad)
		assert.False(t, ok, bad)
	}
}

func TestFraction(t *testing.T) {
	assert.Equal(t, 0.0, Fraction(10, 0))
	assert.Equal(t, 0.5, Fraction(5, 10))
	assert.Equal(t, 1.0, Fraction(15, 10))
}

type erroringSource struct {
	err error
}

func (s *erroringSource) Info() entity.VideoInfo       { return entity.VideoInfo{FrameRate: 30} }
func (s *erroringSource) Next() (*entity.Frame, error) { return nil, s.err }
func (s *erroringSource) Close() error                 { return nil }
