package raster

import (
	"testing"

	"go.viam.com/test"
)

func TestFormatString(t *testing.T) {
	for _, tc := range []struct {
		format Format
		want   string
	}{
		{MakeFormat(DepthU8, 1), "8UC1"},
		{MakeFormat(DepthU8, 3), "8UC3"},
		{MakeFormat(DepthS8, 2), "8SC2"},
		{MakeFormat(DepthU16, 1), "16UC1"},
		{MakeFormat(DepthS16, 4), "16SC4"},
		{MakeFormat(DepthS32, 1), "32SC1"},
		{MakeFormat(DepthF32, 2), "32FC2"},
		{MakeFormat(DepthF64, 3), "64FC3"},
		{MakeFormat(DepthUser, 1), "UserC1"},
		{MakeFormat(DepthUser, 2), "UserC2"},
	} {
		test.That(t, tc.format.String(), test.ShouldEqual, tc.want)
	}
}

// the packed codes line up with the type words conventional backends use, so
// a code read off a foreign buffer describes itself correctly
func TestFormatPacking(t *testing.T) {
	test.That(t, FormatColor, test.ShouldEqual, Format(16))
	test.That(t, FormatPosition, test.ShouldEqual, Format(22))
	test.That(t, Format(16).String(), test.ShouldEqual, "8UC3")
	test.That(t, Format(22).String(), test.ShouldEqual, "64FC3")
	test.That(t, Format(0).String(), test.ShouldEqual, "8UC1")

	f := MakeFormat(DepthF32, 4)
	test.That(t, f.Depth(), test.ShouldEqual, DepthF32)
	test.That(t, f.Channels(), test.ShouldEqual, 4)

	// every unrecognized depth class degrades to User instead of failing
	test.That(t, Format(7).String(), test.ShouldEqual, "UserC1")
	test.That(t, Format(7|1<<3).String(), test.ShouldEqual, "UserC2")
}
