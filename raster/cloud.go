package raster

import (
	"image/color"
	"math"

	"github.com/pkg/errors"

	"github.com/viam-labs/cloudseg/pointcloud"
)

// CloudToRasters projects a structured cloud onto a fresh position raster
// and a fresh color raster of the cloud's dimensions. The cell at (x, y)
// holds the position and color of the cloud point at (x, y), so the two
// rasters and the cloud stay index-aligned. Points without color project as
// black. The cloud is never modified.
func CloudToRasters(cloud *pointcloud.Structured) (*Position, *BGR, error) {
	if cloud.Width() == 1 && cloud.Height() == 1 {
		return nil, nil, errors.New("cloud has no 2D organization to project")
	}
	if int64(cloud.Width()) > math.MaxInt32 || int64(cloud.Height()) > math.MaxInt32 {
		return nil, nil, errors.Errorf("cloud dimensions %dx%d exceed the raster range",
			cloud.Width(), cloud.Height())
	}

	position := NewPosition(cloud.Width(), cloud.Height())
	colors := NewBGR(cloud.Width(), cloud.Height())
	for y := 0; y < cloud.Height(); y++ {
		for x := 0; x < cloud.Width(); x++ {
			p, d := cloud.At(x, y)
			position.SetVec(x, y, p)
			if d != nil && d.HasColor() {
				r, g, b := d.RGB255()
				colors.SetXY(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
			}
		}
	}
	return position, colors, nil
}

// CloudFromRasters rebuilds a structured cloud from an index-aligned color
// and position raster pair, attaching the given header untouched. The two
// rasters must have identical dimensions. Because nothing vouches for the
// geometry in the position raster, the result is marked not dense.
func CloudFromRasters(colors *BGR, position *Position, header pointcloud.Header) (*pointcloud.Structured, error) {
	if colors.Width() != position.Width() || colors.Height() != position.Height() {
		return nil, errors.Errorf("color raster size (%dx%d) does not match position raster size (%dx%d)",
			colors.Width(), colors.Height(), position.Width(), position.Height())
	}

	cloud, err := pointcloud.NewStructured(colors.Width(), colors.Height())
	if err != nil {
		return nil, err
	}
	for y := 0; y < colors.Height(); y++ {
		for x := 0; x < colors.Width(); x++ {
			cloud.Set(x, y, position.Vec(x, y), pointcloud.NewColoredData(colors.GetXY(x, y)))
		}
	}
	cloud.SetDense(false)
	cloud.SetHeader(header)
	return cloud, nil
}
