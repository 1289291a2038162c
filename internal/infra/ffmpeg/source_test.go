package ffmpeg

import (
	"bytes"
	"image"
	"io"
	"strings"
	"testing"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFrames(w, h, n int) []byte {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		buf.Write(bytes.Repeat([]byte{byte(i), 0, 0, 255}, w*h))
	}
	return buf.Bytes()
}

func TestFrameReaderSplitsStream(t *testing.T) {
	info := entity.VideoInfo{Width: 3, Height: 2, FrameRate: 30}
	fr := newFrameReader(bytes.NewReader(rawFrames(3, 2, 3)), info)

	for i := 0; i < 3; i++ {
		frame, err := fr.next()
		require.NoError(t, err)
		assert.Equal(t, i, frame.Index)
		assert.Equal(t, image.Rect(0, 0, 3, 2), frame.Image.Bounds())
		r, _, _, _ := frame.Image.At(2, 1).RGBA()
		assert.Equal(t, uint32(i), r>>8)
	}

	_, err := fr.next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrameReaderTruncatedFrame(t *testing.T) {
	data := rawFrames(4, 4, 2)
	fr := newFrameReader(bytes.NewReader(data[:len(data)-5]), entity.VideoInfo{Width: 4, Height: 4})

	_, err := fr.next()
	require.NoError(t, err)

	_, err = fr.next()
	require.ErrorIs(t, err, entity.ErrIO)
	assert.Contains(t, err.Error(), "truncated frame 1")
}

func TestTailBufferKeepsEnd(t *testing.T) {
	b := &tailBuffer{limit: 8}
	_, _ = b.Write([]byte("0123456789"))
	_, _ = b.Write([]byte("ab"))
	assert.Equal(t, "456789ab", b.String())
}

func TestDecodeArgs(t *testing.T) {
	args := strings.Join(decodeArgs("/videos/in.mp4"), " ")

	assert.Contains(t, args, "-i /videos/in.mp4")
	assert.Contains(t, args, "-f rawvideo")
	assert.Contains(t, args, "-pix_fmt rgba")
	assert.Contains(t, args, "pipe:1")
}
