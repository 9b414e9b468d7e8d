// Package ml bridges rasters and the tensors an ML model service consumes
// and produces.
package ml

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/viam-labs/cloudseg/raster"
)

// Tensors are a data structure to hold the input and output map of tensors
// that a model will use.
type Tensors map[string]*tensor.Dense

// TensorFromBGR copies a color raster into a (height, width, 3) uint8 tensor
// whose trailing channels keep the raster's b, g, r order. The tensor owns
// its backing, so the raster is free to change afterward.
func TensorFromBGR(ci *raster.BGR) *tensor.Dense {
	data := make([]uint8, len(ci.Bytes()))
	copy(data, ci.Bytes())
	return tensor.New(
		tensor.WithShape(ci.Height(), ci.Width(), 3),
		tensor.WithBacking(data),
	)
}

// TensorFromPosition copies a position raster into a (height, width, 3)
// float64 tensor. The tensor owns its backing.
func TensorFromPosition(pi *raster.Position) *tensor.Dense {
	data := make([]float64, len(pi.Doubles()))
	copy(data, pi.Doubles())
	return tensor.New(
		tensor.WithShape(pi.Height(), pi.Width(), 3),
		tensor.WithBacking(data),
	)
}

// MaskFromTensor converts a mask tensor coming back from a model into a
// raster mask. The tensor must be 8-bit, shaped (height, width),
// (height, width, 1) or (height, width, 3); single channel masks broadcast
// across all three raster channels.
func MaskFromTensor(t *tensor.Dense) (*raster.BGR, error) {
	data, ok := t.Data().([]uint8)
	if !ok {
		return nil, errors.Errorf("mask must be 8-bit (8UC1 or 8UC3), got %v", FormatOf(t))
	}
	shape := t.Shape()
	channels := 1
	switch {
	case len(shape) == 2:
	case len(shape) == 3 && (shape[2] == 1 || shape[2] == 3):
		channels = shape[2]
	default:
		return nil, errors.Errorf("mask tensor has unusable shape %v", shape)
	}
	height, width := shape[0], shape[1]
	if len(data) != height*width*channels {
		return nil, errors.Errorf("mask tensor data length %d does not match shape %v", len(data), shape)
	}

	mask := raster.NewBGR(width, height)
	dst := mask.Bytes()
	if channels == 3 {
		copy(dst, data)
		return mask, nil
	}
	for i, v := range data {
		dst[i*3] = v
		dst[(i*3)+1] = v
		dst[(i*3)+2] = v
	}
	return mask, nil
}

// FormatOf reports the packed raster format equivalent of a tensor: depth
// from the element type, channel count from the trailing dimension of a 3D
// shape. Element types with no raster depth report as User, which keeps
// FormatOf total over anything a model can send back.
func FormatOf(t *tensor.Dense) raster.Format {
	var d raster.Depth
	switch t.Data().(type) {
	case []uint8:
		d = raster.DepthU8
	case []int8:
		d = raster.DepthS8
	case []uint16:
		d = raster.DepthU16
	case []int16:
		d = raster.DepthS16
	case []int32:
		d = raster.DepthS32
	case []float32:
		d = raster.DepthF32
	case []float64:
		d = raster.DepthF64
	default:
		d = raster.DepthUser
	}
	channels := 1
	if shape := t.Shape(); len(shape) == 3 {
		channels = shape[2]
	}
	return raster.MakeFormat(d, channels)
}

// TensorNames returns all the names of the tensors.
func TensorNames(t Tensors) []string {
	names := []string{}
	for name := range t {
		names = append(names, name)
	}
	return names
}
