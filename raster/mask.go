package raster

import (
	"math"

	"github.com/pkg/errors"
)

// ApplyMask multiplies the input raster by the mask element-wise and returns
// the product as a fresh raster, leaving both arguments untouched. Products
// past the top of the 8-bit range saturate at 255. The mask must have the
// same dimensions as the input.
func ApplyMask(input, mask *BGR) (*BGR, error) {
	if input.Width() != mask.Width() || input.Height() != mask.Height() {
		return nil, errors.Errorf("mask size (%dx%d) does not match input size (%dx%d)",
			mask.Width(), mask.Height(), input.Width(), input.Height())
	}

	out := NewBGR(input.Width(), input.Height())
	in := input.Bytes()
	mk := mask.Bytes()
	dst := out.Bytes()
	for i, v := range in {
		p := int(v) * int(mk[i])
		if p > math.MaxUint8 {
			p = math.MaxUint8
		}
		dst[i] = uint8(p)
	}
	return out, nil
}
