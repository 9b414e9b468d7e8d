package pointcloud

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// PointAndData is a tiny struct coupling a point with whatever data rides
// along with it. It is the arena element of a structured cloud.
type PointAndData struct {
	P r3.Vector
	D Data
}

// Structured is a point cloud with an explicit two dimensional organization:
// height rows of width points each, backed by a flat arena. The grid cell at
// (x, y) lives at arena index y*width+x, so column x corresponds to the image
// column and row y to the image row of whatever sensor produced the cloud.
type Structured struct {
	width  int
	height int
	points []PointAndData

	meta      MetaData
	header    Header
	viewpoint Viewpoint
	dense     bool
}

// NewStructured creates a cloud of the given dimensions with every point at
// the origin and no data attached.
func NewStructured(width, height int) (*Structured, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("structured cloud dimensions must be positive, got %dx%d", width, height)
	}
	return &Structured{
		width:     width,
		height:    height,
		points:    make([]PointAndData, width*height),
		meta:      NewMetaData(),
		viewpoint: NewViewpoint(),
		dense:     true,
	}, nil
}

// kxy maps a grid coordinate to its arena index. Both coordinates are checked
// so that an out of range x can never alias silently into the next row.
func (cloud *Structured) kxy(x, y int) int {
	if x < 0 || x >= cloud.width || y < 0 || y >= cloud.height {
		panic(fmt.Sprintf("point (%d, %d) outside of %dx%d cloud", x, y, cloud.width, cloud.height))
	}
	return (y * cloud.width) + x
}

// Width returns the number of points per row.
func (cloud *Structured) Width() int {
	return cloud.width
}

// Height returns the number of rows.
func (cloud *Structured) Height() int {
	return cloud.height
}

// Size returns the total number of points in the cloud.
func (cloud *Structured) Size() int {
	return cloud.width * cloud.height
}

// MetaData returns meta data.
func (cloud *Structured) MetaData() MetaData {
	return cloud.meta
}

// Header returns the acquisition metadata attached to the cloud.
func (cloud *Structured) Header() Header {
	return cloud.header
}

// SetHeader attaches acquisition metadata to the cloud.
func (cloud *Structured) SetHeader(h Header) {
	cloud.header = h
}

// Viewpoint returns the sensor pose the cloud was acquired from.
func (cloud *Structured) Viewpoint() Viewpoint {
	return cloud.viewpoint
}

// SetViewpoint sets the sensor pose the cloud was acquired from.
func (cloud *Structured) SetViewpoint(vp Viewpoint) {
	cloud.viewpoint = vp
}

// Dense reports whether every point in the cloud is known to hold valid
// geometry. Clouds rebuilt from rasters or read from files report false.
func (cloud *Structured) Dense() bool {
	return cloud.dense
}

// SetDense records whether the cloud is free of invalid points.
func (cloud *Structured) SetDense(dense bool) {
	cloud.dense = dense
}

// In returns whether the given grid coordinate is inside the cloud.
func (cloud *Structured) In(x, y int) bool {
	return x >= 0 && x < cloud.width && y >= 0 && y < cloud.height
}

// At returns the point and data at the given grid coordinate. It panics when
// the coordinate is outside the grid; use In first when unsure.
func (cloud *Structured) At(x, y int) (r3.Vector, Data) {
	pd := cloud.points[cloud.kxy(x, y)]
	return pd.P, pd.D
}

// Set places the given point at the given grid coordinate, merging its bounds
// and payload presence into the cloud meta data.
func (cloud *Structured) Set(x, y int, p r3.Vector, d Data) {
	cloud.points[cloud.kxy(x, y)] = PointAndData{P: p, D: d}
	cloud.meta.Merge(p, d)
}

// Iterate visits every grid cell in row major order and calls the given
// function for each. If the supplied function returns false, iteration stops.
func (cloud *Structured) Iterate(fn func(x, y int, p r3.Vector, d Data) bool) {
	for y := 0; y < cloud.height; y++ {
		for x := 0; x < cloud.width; x++ {
			pd := cloud.points[(y*cloud.width)+x]
			if !fn(x, y, pd.P, pd.D) {
				return
			}
		}
	}
}
