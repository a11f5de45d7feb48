package atlas

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/tiff"
)

// DepthImage is a square-or-not float depth buffer. Row 0 is the bottom.
type DepthImage struct {
	W, H int
	Pix  []float32
}

// NewDepthImage allocates a buffer filled with clear.
func NewDepthImage(w, h int, clear float32) *DepthImage {
	d := &DepthImage{W: w, H: h, Pix: make([]float32, w*h)}
	for i := range d.Pix {
		d.Pix[i] = clear
	}
	return d
}

// At returns the depth at pixel (x, y), clamping to the edges.
func (d *DepthImage) At(x, y int) float32 {
	if d == nil || d.W == 0 || d.H == 0 {
		return 0
	}
	x = clampInt(x, 0, d.W-1)
	y = clampInt(y, 0, d.H-1)
	return d.Pix[y*d.W+x]
}

// Sample does a nearest-pixel lookup at uv in [0,1]².
func (d *DepthImage) Sample(u, v float64) float32 {
	if d == nil {
		return 0
	}
	x := int(math.Floor(u * float64(d.W)))
	y := int(math.Floor(v * float64(d.H)))
	return d.At(x, y)
}

// Gray16 converts to a 16-bit image with the usual top-down row order.
func (d *DepthImage) Gray16() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, d.W, d.H))
	for y := 0; y < d.H; y++ {
		row := d.H - 1 - y
		for x := 0; x < d.W; x++ {
			v := float64(d.Pix[row*d.W+x])
			if math.IsNaN(v) {
				v = 0
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(math.Max(0, math.Min(1, v)) * 0xffff))})
		}
	}
	return img
}

// EncodePNG writes the atlas as a 16-bit grayscale PNG.
func (d *DepthImage) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, d.Gray16()); err != nil {
		return fmt.Errorf("atlas: encode png: %w", err)
	}
	return nil
}

// EncodeTIFF writes the atlas as a deflate-compressed 16-bit TIFF.
func (d *DepthImage) EncodeTIFF(w io.Writer) error {
	if err := tiff.Encode(w, d.Gray16(), &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("atlas: encode tiff: %w", err)
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
