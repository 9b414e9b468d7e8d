package raster

import (
	"image"
	"image/color"
)

// BGR is a color raster of 8-bit triples stored blue first, the channel
// order the position raster's sibling image carries on the wire. The
// channel reversal between logical RGB colors and the stored bytes happens
// in SetXY and GetXY and nowhere else.
type BGR struct {
	width  int
	height int
	data   []uint8
}

// NewBGR creates a color raster of the given dimensions, all channels zero.
func NewBGR(width, height int) *BGR {
	return &BGR{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*3),
	}
}

func (ci *BGR) kxy(x, y int) int {
	return ((y * ci.width) + x) * 3
}

// Width returns the horizontal dimension of the raster.
func (ci *BGR) Width() int {
	return ci.width
}

// Height returns the vertical dimension of the raster.
func (ci *BGR) Height() int {
	return ci.height
}

// Format returns the packed format of the raster, always 8UC3.
func (ci *BGR) Format() Format {
	return FormatColor
}

// In returns whether the given coordinate is inside the raster.
func (ci *BGR) In(x, y int) bool {
	return x >= 0 && x < ci.width && y >= 0 && y < ci.height
}

// SetXY stores the given color at (x, y), reversing its channels into the
// stored B, G, R order.
func (ci *BGR) SetXY(x, y int, c color.NRGBA) {
	k := ci.kxy(x, y)
	ci.data[k] = c.B
	ci.data[k+1] = c.G
	ci.data[k+2] = c.R
}

// GetXY reads the color at (x, y) back out in logical RGB order.
func (ci *BGR) GetXY(x, y int) color.NRGBA {
	k := ci.kxy(x, y)
	return color.NRGBA{R: ci.data[k+2], G: ci.data[k+1], B: ci.data[k], A: 255}
}

// Bytes returns the live backing of the raster, three bytes per pixel in
// B, G, R order, rows first.
func (ci *BGR) Bytes() []uint8 {
	return ci.data
}

// ToImage renders the raster as a standard library image.
func (ci *BGR) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, ci.width, ci.height))
	for y := 0; y < ci.height; y++ {
		for x := 0; x < ci.width; x++ {
			img.SetNRGBA(x, y, ci.GetXY(x, y))
		}
	}
	return img
}
