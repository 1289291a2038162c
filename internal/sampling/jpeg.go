package sampling

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"os"
)

const DefaultJPEGQuality = 95

// JPEGWriter encodes frames as baseline JPEG files.
type JPEGWriter struct {
	Quality int
}

func NewJPEGWriter(quality int) *JPEGWriter {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &JPEGWriter{Quality: quality}
}

func (w *JPEGWriter) WriteFrame(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}

	bw := bufio.NewWriter(f)
	if err := jpeg.Encode(bw, img, &jpeg.Options{Quality: w.Quality}); err != nil {
		f.Close()
		return fmt.Errorf("encode jpeg: %w", err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush image file: %w", err)
	}
	return f.Close()
}
