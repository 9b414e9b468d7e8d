package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
)

// Position is a raster of 64-bit float triples holding the 3D position every
// pixel of its sibling color raster was observed at. Channels are the x, y, z
// world coordinates, rows first.
type Position struct {
	width  int
	height int
	data   []float64
}

// NewPosition creates a position raster of the given dimensions with every
// pixel at the origin.
func NewPosition(width, height int) *Position {
	return &Position{
		width:  width,
		height: height,
		data:   make([]float64, width*height*3),
	}
}

func (pi *Position) kxy(x, y int) int {
	return ((y * pi.width) + x) * 3
}

// Width returns the horizontal dimension of the raster.
func (pi *Position) Width() int {
	return pi.width
}

// Height returns the vertical dimension of the raster.
func (pi *Position) Height() int {
	return pi.height
}

// Format returns the packed format of the raster, always 64FC3.
func (pi *Position) Format() Format {
	return FormatPosition
}

// In returns whether the given coordinate is inside the raster.
func (pi *Position) In(x, y int) bool {
	return x >= 0 && x < pi.width && y >= 0 && y < pi.height
}

// SetVec stores the given 3D position at (x, y).
func (pi *Position) SetVec(x, y int, v r3.Vector) {
	k := pi.kxy(x, y)
	pi.data[k] = v.X
	pi.data[k+1] = v.Y
	pi.data[k+2] = v.Z
}

// Vec reads the 3D position at (x, y).
func (pi *Position) Vec(x, y int) r3.Vector {
	k := pi.kxy(x, y)
	return r3.Vector{X: pi.data[k], Y: pi.data[k+1], Z: pi.data[k+2]}
}

// Doubles returns the live backing of the raster, three float64 per pixel in
// x, y, z order, rows first.
func (pi *Position) Doubles() []float64 {
	return pi.data
}

// MinMax returns the smallest and largest finite value of the given channel.
// NaN and infinite cells are skipped.
func (pi *Position) MinMax(ch int) (float64, float64) {
	min := math.MaxFloat64
	max := -math.MaxFloat64

	for y := 0; y < pi.height; y++ {
		for x := 0; x < pi.width; x++ {
			v := pi.data[pi.kxy(x, y)+ch]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}

	return min, max
}

// ToPrettyPicture renders the given channel as a hue ramp for eyeballing a
// position raster, usually channel 2 to see depth. Cells with no finite
// value stay black.
func (pi *Position) ToPrettyPicture(ch int) image.Image {
	min, max := pi.MinMax(ch)

	img := image.NewNRGBA(image.Rect(0, 0, pi.width, pi.height))

	span := max - min
	if span <= 0 {
		span = 1
	}

	for y := 0; y < pi.height; y++ {
		for x := 0; x < pi.width; x++ {
			v := pi.data[pi.kxy(x, y)+ch]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}

			ratio := (v - min) / span
			hue := 30 + (200.0 * ratio)
			r, g, b := colorful.Hsv(hue, 1.0, 1.0).RGB255()
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}

	return img
}
