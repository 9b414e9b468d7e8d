package pointcloud

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func newTestCloud(t *testing.T) *Structured {
	t.Helper()
	cloud, err := NewStructured(3, 2)
	test.That(t, err, test.ShouldBeNil)
	// all coordinates exactly representable in float32
	cloud.Set(0, 0, NewVector(-0.5, 1.25, 0), NewColoredData(color.NRGBA{255, 0, 0, 255}))
	cloud.Set(1, 0, NewVector(0.5, 2, 1.5), NewColoredData(color.NRGBA{0, 255, 0, 255}))
	cloud.Set(2, 0, NewVector(582, 12, 0), NewColoredData(color.NRGBA{0, 0, 255, 255}))
	cloud.Set(0, 1, NewVector(7, 6, 1), NewColoredData(color.NRGBA{200, 250, 5, 255}))
	cloud.Set(1, 1, NewVector(1, 2, 9), NewColoredData(color.NRGBA{61, 62, 63, 255}))
	cloud.Set(2, 1, NewVector(1, 2, -9), NewColoredData(color.NRGBA{1, 2, 3, 255}))
	return cloud
}

func testPCDRoundTrip(t *testing.T, outputType PCDType) {
	t.Helper()
	cloud := newTestCloud(t)
	cloud.SetViewpoint(Viewpoint{
		Origin:      r3.Vector{X: 1.5, Y: 2.5, Z: -3},
		Orientation: quat.Number{Real: 0.5, Imag: 0.5, Jmag: -0.5, Kmag: 0.5},
	})

	var buf bytes.Buffer
	err := ToPCD(cloud, &buf, outputType)
	test.That(t, err, test.ShouldBeNil)

	got, err := ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Width(), test.ShouldEqual, cloud.Width())
	test.That(t, got.Height(), test.ShouldEqual, cloud.Height())
	test.That(t, got.Dense(), test.ShouldBeFalse)
	test.That(t, got.Viewpoint(), test.ShouldResemble, cloud.Viewpoint())
	test.That(t, got.MetaData().HasColor, test.ShouldBeTrue)

	cloud.Iterate(func(x, y int, p r3.Vector, d Data) bool {
		gp, gd := got.At(x, y)
		test.That(t, gp, test.ShouldResemble, p)
		test.That(t, gd, test.ShouldNotBeNil)
		wr, wg, wb := d.RGB255()
		gr, gg, gb := gd.RGB255()
		test.That(t, []uint8{gr, gg, gb}, test.ShouldResemble, []uint8{wr, wg, wb})
		return true
	})
}

func TestPCDRoundTripAscii(t *testing.T) {
	testPCDRoundTrip(t, PCDAscii)
}

func TestPCDRoundTripBinary(t *testing.T) {
	testPCDRoundTrip(t, PCDBinary)
}

func TestPCDNoColor(t *testing.T) {
	cloud, err := NewStructured(2, 2)
	test.That(t, err, test.ShouldBeNil)
	cloud.Set(0, 0, NewVector(1, 2, 3), NewBasicData())
	cloud.Set(1, 0, NewVector(4, 5, 6), NewBasicData())
	cloud.Set(0, 1, NewVector(-1, -2, -3), NewBasicData())
	cloud.Set(1, 1, NewVector(0, 0.25, 0.5), NewBasicData())

	for _, outputType := range []PCDType{PCDAscii, PCDBinary} {
		var buf bytes.Buffer
		err = ToPCD(cloud, &buf, outputType)
		test.That(t, err, test.ShouldBeNil)
		out := buf.String()
		test.That(t, out, test.ShouldContainSubstring, "FIELDS x y z\n")
		test.That(t, out, test.ShouldContainSubstring, "WIDTH 2\n")
		test.That(t, out, test.ShouldContainSubstring, "HEIGHT 2\n")

		got, err := ReadPCD(&buf)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.MetaData().HasColor, test.ShouldBeFalse)
		p, _ := got.At(1, 1)
		test.That(t, p, test.ShouldResemble, r3.Vector{X: 0, Y: 0.25, Z: 0.5})
	}
}

func TestPCDCompressedUnsupported(t *testing.T) {
	cloud := newTestCloud(t)
	var buf bytes.Buffer
	err := ToPCD(cloud, &buf, PCDCompressed)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "compressed")
}

// pcl writes the rgb field as TYPE F, the packed int living in the float's
// bits. Make sure we unpack those files too.
func TestReadPCDPclAscii(t *testing.T) {
	packed := (128 << 16) | (64 << 8) | 32
	rgb := math.Float32frombits(uint32(packed))
	data := fmt.Sprintf("1.5 -2 0.5 %v\n", rgb)
	file := "VERSION 0.7\n" +
		"FIELDS x y z rgb\n" +
		"SIZE 4 4 4 4\n" +
		"TYPE F F F F\n" +
		"COUNT 1 1 1 1\n" +
		"WIDTH 1\n" +
		"HEIGHT 1\n" +
		"VIEWPOINT 0 0 0 1 0 0 0\n" +
		"POINTS 1\n" +
		"DATA ascii\n" + data

	got, err := ReadPCD(strings.NewReader(file))
	test.That(t, err, test.ShouldBeNil)
	p, d := got.At(0, 0)
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 1.5, Y: -2, Z: 0.5})
	r, g, b := d.RGB255()
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{128, 64, 32})
}

func TestReadPCDHeaderErrors(t *testing.T) {
	mismatched := "VERSION .7\n" +
		"FIELDS x y z\n" +
		"SIZE 4 4 4\n" +
		"TYPE F F F\n" +
		"COUNT 1 1 1\n" +
		"WIDTH 2\n" +
		"HEIGHT 2\n" +
		"VIEWPOINT 0 0 0 1 0 0 0\n" +
		"POINTS 3\n" +
		"DATA ascii\n"
	_, err := ReadPCD(strings.NewReader(mismatched))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "does not match WIDTH*HEIGHT")

	badVersion := "VERSION 5\nFIELDS x y z\n"
	_, err = ReadPCD(strings.NewReader(badVersion))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported pcd version")

	badFields := "VERSION .7\nFIELDS a b c\n"
	_, err = ReadPCD(strings.NewReader(badFields))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported pcd fields")
}
