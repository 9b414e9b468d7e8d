package inference

import (
	"testing"

	"go.viam.com/test"
	"gorgonia.org/tensor"

	"github.com/viam-labs/cloudseg/ml"
)

func TestTensorsProtoRoundTrip(t *testing.T) {
	// one of each conversion path: plain, unsafe int8, and the 16-bit
	// types that ride in uint32 wrappers
	in := ml.Tensors{
		"mask":     tensor.New(tensor.WithShape(2, 3), tensor.WithBacking([]uint8{0, 1, 255, 1, 0, 1})),
		"signed":   tensor.New(tensor.WithShape(3), tensor.WithBacking([]int8{-128, 0, 127})),
		"short":    tensor.New(tensor.WithShape(2), tensor.WithBacking([]int16{-32768, 32767})),
		"ushort":   tensor.New(tensor.WithShape(2), tensor.WithBacking([]uint16{0, 65535})),
		"scores":   tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]float32{-1.5, 0, 0.25, 2})),
		"position": tensor.New(tensor.WithShape(1, 2, 3), tensor.WithBacking([]float64{1.5, -2, 3, 0, 0.125, -9})),
	}

	pbt, err := TensorsToProto(in)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(pbt.Tensors), test.ShouldEqual, len(in))

	out, err := ProtoToTensors(pbt)
	test.That(t, err, test.ShouldBeNil)
	for name, want := range in {
		got, ok := out[name]
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, got.Data(), test.ShouldResemble, want.Data())
		test.That(t, []int(got.Shape()), test.ShouldResemble, []int(want.Shape()))
	}
}

func TestProtoToTensorsNil(t *testing.T) {
	_, err := ProtoToTensors(nil)
	test.That(t, err, test.ShouldNotBeNil)
}
