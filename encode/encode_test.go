package encode

import (
	"bytes"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/papyrus-lang/papyrus/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("png")
	require.NoError(t, err)
	assert.Equal(t, PNG, f)
	assert.Equal(t, "png", f.Ext())

	f, err = ParseFormat("jpg")
	require.NoError(t, err)
	assert.Equal(t, JPEG, f)
	assert.Equal(t, "jpg", f.Ext())

	_, err = ParseFormat("bmp")
	assert.Error(t, err)
}

func TestWritePNGRoundTrip(t *testing.T) {
	c := vm.NewCanvas(2, 2)
	c.Set(0, 0, 0xFF0000FF) // opaque red
	c.Set(1, 1, 0x00FF00FF) // opaque green

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, c, PNG))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, img.Bounds().Dx())
	require.Equal(t, 2, img.Bounds().Dy())

	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
	assert.Equal(t, uint32(0xffff), a)

	r, g, b, _ = img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0), b)
}

func TestWriteJPEGFlattensAlpha(t *testing.T) {
	c := vm.NewCanvas(1, 1)
	c.Set(0, 0, 0x112233FF)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, c, JPEG))

	img, err := jpeg.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy())
}
