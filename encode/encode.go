// Package encode turns a vm.Canvas into PNG or JPEG bytes — the image
// encoding boundary service of spec §1/§6, kept deliberately thin: the
// core (lexer through vm) hands it a finished pixel buffer and a writer.
package encode

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/papyrus-lang/papyrus/vm"
)

// Format selects an output codec.
type Format int

const (
	PNG Format = iota
	JPEG
)

// Ext returns the file extension conventionally used for a format.
func (f Format) Ext() string {
	if f == JPEG {
		return "jpg"
	}
	return "png"
}

// ParseFormat maps a CLI-facing format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	}
	return PNG, fmt.Errorf("encode: unknown image format %q", name)
}

// toImage converts a Canvas to an image.NRGBA, preserving alpha — the
// common source image for either codec.
func toImage(c *vm.Canvas) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			r, g, b, a := c.RGBA(x, y)
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: a})
		}
	}
	return img
}

// Write encodes c as format and writes it to w. JPEG carries no alpha
// channel — per spec §6 ("Output images use RGB order with alpha dropped
// for formats without alpha") the encoder flattens onto opaque black
// before handing the image to image/jpeg, since Papyrus performs no
// blending anywhere else in the pipeline either.
func Write(w io.Writer, c *vm.Canvas, format Format) error {
	img := toImage(c)
	switch format {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, flattenOpaque(img), &jpeg.Options{Quality: jpeg.DefaultQuality})
	}
	return fmt.Errorf("encode: unknown format %d", format)
}

// flattenOpaque drops alpha by compositing onto black, since image/jpeg
// has no alpha channel to carry it in.
func flattenOpaque(src *image.NRGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, src.NRGBAAt(x, y))
		}
	}
	return dst
}
