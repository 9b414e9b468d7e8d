// Package pointcloud defines a structured point cloud, a two dimensional grid
// of colored 3D points as produced by depth cameras and structured light
// scanners, along with PCD and LAS file transport for it.
package pointcloud

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Header carries acquisition metadata that rides along with a cloud. The
// cloud never interprets it; whoever produced the cloud owns its meaning.
type Header struct {
	// Stamp is the acquisition time of the cloud.
	Stamp time.Time
	// FrameID names the coordinate frame the points are expressed in.
	FrameID string
}

// Viewpoint is the sensor pose a cloud was acquired from, as recorded in the
// VIEWPOINT header of a PCD file.
type Viewpoint struct {
	Origin      r3.Vector
	Orientation quat.Number
}

// NewViewpoint returns a viewpoint at the origin with the identity
// orientation.
func NewViewpoint() Viewpoint {
	return Viewpoint{Orientation: quat.Number{Real: 1}}
}

// MetaData is data about the cloud.
type MetaData struct {
	HasColor bool
	HasValue bool

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData creates a new MetaData.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the meta values based on the new point.
func (meta *MetaData) Merge(v r3.Vector, data Data) {
	if data != nil {
		if data.HasColor() {
			meta.HasColor = true
		}
		if data.HasValue() {
			meta.HasValue = true
		}
	}

	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}

	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}
}
