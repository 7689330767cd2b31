package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDownscale_LargeImageIsResized(t *testing.T) {
	p := NewProcessor(80, 100)

	out, changed, err := p.Downscale(pngBytes(t, 400, 200))
	require.NoError(t, err)
	assert.True(t, changed)

	w, h, err := Dimensions(out)
	require.NoError(t, err)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestDownscale_SmallImageUntouched(t *testing.T) {
	p := NewProcessor(80, 100)
	in := pngBytes(t, 50, 40)

	out, changed, err := p.Downscale(in)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, in, out)
}

func TestDownscale_Disabled(t *testing.T) {
	p := NewProcessor(0, 0)
	in := []byte("not an image at all")

	out, changed, err := p.Downscale(in)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, in, out)
}

func TestDownscale_Garbage(t *testing.T) {
	_, _, err := NewProcessor(80, 100).Downscale([]byte("garbage"))
	assert.Error(t, err)
}
