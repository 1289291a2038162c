package sampling

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sizeRecorder struct {
	sizes []image.Point
}

func (r *sizeRecorder) WriteFrame(_ string, img image.Image) error {
	r.sizes = append(r.sizes, img.Bounds().Size())
	return nil
}

func TestResizingWriterDownscales(t *testing.T) {
	rec := &sizeRecorder{}
	w := NewResizingWriter(rec, 320)

	require.NoError(t, w.WriteFrame("a.jpg", image.NewRGBA(image.Rect(0, 0, 1920, 1080))))
	require.NoError(t, w.WriteFrame("b.jpg", image.NewRGBA(image.Rect(0, 0, 200, 100))))

	assert.Equal(t, []image.Point{{320, 180}, {200, 100}}, rec.sizes)
}

func TestResizingWriterDisabled(t *testing.T) {
	rec := &sizeRecorder{}
	assert.Same(t, rec, NewResizingWriter(rec, 0))
}

func TestScaledSize(t *testing.T) {
	w, h := scaledSize(1000, 1, 10)
	assert.Equal(t, 10, w)
	assert.Equal(t, 1, h)

	w, h = scaledSize(640, 480, 320)
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)
}

// colorRecorder keeps the top-left pixel of every frame, keyed by path.
type colorRecorder struct {
	mu     sync.Mutex
	pixels map[string]color.RGBA
}

func (r *colorRecorder) WriteFrame(path string, img image.Image) error {
	c := color.RGBAModel.Convert(img.At(img.Bounds().Min.X, img.Bounds().Min.Y)).(color.RGBA)
	r.mu.Lock()
	r.pixels[path] = c
	r.mu.Unlock()
	return nil
}

func TestResizingWriterConcurrentJobsKeepTheirPixels(t *testing.T) {
	rec := &colorRecorder{pixels: make(map[string]color.RGBA)}
	w := NewResizingWriter(rec, 16)

	jobs := map[string]color.RGBA{
		"red":  {R: 255, A: 255},
		"blue": {B: 255, A: 255},
	}

	var wg sync.WaitGroup
	for name, c := range jobs {
		wg.Add(1)
		go func(name string, c color.RGBA) {
			defer wg.Done()
			src := image.NewRGBA(image.Rect(0, 0, 64, 32))
			draw.Draw(src, src.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
			for i := 0; i < 200; i++ {
				assert.NoError(t, w.WriteFrame(fmt.Sprintf("%s/%d", name, i), src))
			}
		}(name, c)
	}
	wg.Wait()

	require.Len(t, rec.pixels, 400)
	for path, got := range rec.pixels {
		name, _, _ := strings.Cut(path, "/")
		if name == "red" {
			assert.True(t, got.R > 200 && got.B < 50, "%s: %v", path, got)
		} else {
			assert.True(t, got.B > 200 && got.R < 50, "%s: %v", path, got)
		}
	}
}
