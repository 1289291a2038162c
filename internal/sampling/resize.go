package sampling

import (
	"image"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	"golang.org/x/image/draw"
)

// ResizingWriter downscales frames wider than MaxWidth, keeping the aspect
// ratio, before handing them to the wrapped writer. It is safe for
// concurrent use; every call scales into its own image.
type ResizingWriter struct {
	next     port.FrameWriter
	maxWidth int
}

// NewResizingWriter returns next unchanged when maxWidth is not positive.
func NewResizingWriter(next port.FrameWriter, maxWidth int) port.FrameWriter {
	if maxWidth <= 0 {
		return next
	}
	return &ResizingWriter{next: next, maxWidth: maxWidth}
}

func (w *ResizingWriter) WriteFrame(path string, img image.Image) error {
	b := img.Bounds()
	if b.Dx() <= w.maxWidth {
		return w.next.WriteFrame(path, img)
	}

	width, height := scaledSize(b.Dx(), b.Dy(), w.maxWidth)
	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)
	return w.next.WriteFrame(path, scaled)
}

func scaledSize(width, height, maxWidth int) (int, int) {
	h := (height*maxWidth + width/2) / width
	if h < 1 {
		h = 1
	}
	return maxWidth, h
}
