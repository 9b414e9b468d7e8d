// Package raster provides the 2D raster siblings of a structured point
// cloud: a position raster of 64-bit float triples and a color raster of
// 8-bit B,G,R triples, the converters between clouds and raster pairs, and
// element-wise masking of color rasters.
package raster

import "strconv"

// Depth identifies the per-channel numeric class of a raster format.
type Depth int

// The channel depth classes a Format can carry. The numeric codes are the
// ones conventional image processing backends pack into their type words, so
// a format read off a foreign buffer labels itself the way that backend
// would.
const (
	DepthU8 Depth = iota
	DepthS8
	DepthU16
	DepthS16
	DepthS32
	DepthF32
	DepthF64
	DepthUser
)

// depthMask covers the three bits of a packed format that hold the Depth.
const depthMask = 0x7

// Format is a packed raster format code: the low three bits hold the channel
// depth class, the bits above hold the channel count minus one.
type Format int

// MakeFormat packs a depth class and a channel count into a Format.
func MakeFormat(d Depth, channels int) Format {
	return Format(int(d)&depthMask | (channels-1)<<3)
}

// The formats of the rasters this package produces.
var (
	// FormatColor is the color raster format, 8UC3.
	FormatColor = MakeFormat(DepthU8, 3)
	// FormatPosition is the position raster format, 64FC3.
	FormatPosition = MakeFormat(DepthF64, 3)
)

// Depth returns the channel depth class of the format.
func (f Format) Depth() Depth {
	return Depth(int(f) & depthMask)
}

// Channels returns the channel count of the format.
func (f Format) Channels() int {
	return (int(f) >> 3) + 1
}

// String renders the format in the conventional depth-then-channels notation,
// "8UC3" or "64FC1". Depth classes this package does not recognize render as
// "User"; String never fails.
func (f Format) String() string {
	var r string
	switch f.Depth() {
	case DepthU8:
		r = "8U"
	case DepthS8:
		r = "8S"
	case DepthU16:
		r = "16U"
	case DepthS16:
		r = "16S"
	case DepthS32:
		r = "32S"
	case DepthF32:
		r = "32F"
	case DepthF64:
		r = "64F"
	default:
		r = "User"
	}
	return r + "C" + strconv.Itoa(f.Channels())
}
