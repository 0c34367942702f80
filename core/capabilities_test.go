// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"

	vk "github.com/devblok/vulkan"
	qt "github.com/frankban/quicktest"
)

func TestDesiredImageCount(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		min, max, want uint32
	}{
		{min: 2, max: 8, want: 3},
		{min: 2, max: 0, want: 3},
		{min: 3, max: 3, want: 3},
		{min: 1, max: 2, want: 2},
	}
	for _, test := range tests {
		got := desiredImageCount(test.min, test.max)
		c.Check(got, qt.Equals, test.want, qt.Commentf("min %d max %d", test.min, test.max))
		c.Check(got >= test.min, qt.IsTrue)
		if test.max > 0 {
			c.Check(got <= test.max, qt.IsTrue)
		} else {
			c.Check(got, qt.Equals, test.min+1)
		}
	}
}

func TestFirstSurfaceFormat(t *testing.T) {
	c := qt.New(t)
	got := firstSurfaceFormat(vk.SurfaceFormat{
		Format:     vk.FormatR8g8b8a8Srgb,
		ColorSpace: vk.ColorSpaceSrgbNonlinear,
	})
	c.Assert(got.Format, qt.Equals, vk.FormatR8g8b8a8Srgb)
	c.Assert(got.ColorSpace, qt.Equals, vk.ColorSpaceSrgbNonlinear)

	got = firstSurfaceFormat(vk.SurfaceFormat{
		Format:     vk.FormatUndefined,
		ColorSpace: vk.ColorSpaceSrgbNonlinear,
	})
	c.Assert(got.Format, qt.Equals, vk.FormatB8g8r8a8Unorm)
	c.Assert(got.ColorSpace, qt.Equals, vk.ColorSpaceSrgbNonlinear)
}

func TestSurfaceResolutionUndefinedExtent(t *testing.T) {
	c := qt.New(t)
	got := surfaceResolution(vk.Extent2D{Width: 0xFFFFFFFF, Height: 0xFFFFFFFF}, 800, 600)
	c.Assert(got.Width, qt.Equals, uint32(800))
	c.Assert(got.Height, qt.Equals, uint32(600))
}

func TestSurfaceResolutionReportedExtent(t *testing.T) {
	c := qt.New(t)
	got := surfaceResolution(vk.Extent2D{Width: 1024, Height: 768}, 800, 600)
	c.Assert(got.Width, qt.Equals, uint32(1024))
	c.Assert(got.Height, qt.Equals, uint32(768))
}

func TestPreTransform(t *testing.T) {
	c := qt.New(t)
	identity := vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit)
	rotate := vk.SurfaceTransformFlags(vk.SurfaceTransformRotate90Bit)

	c.Assert(preTransform(identity|rotate, vk.SurfaceTransformRotate90Bit), qt.Equals, vk.SurfaceTransformIdentityBit)
	c.Assert(preTransform(rotate, vk.SurfaceTransformRotate90Bit), qt.Equals, vk.SurfaceTransformRotate90Bit)
}

func TestChoosePresentMode(t *testing.T) {
	c := qt.New(t)
	c.Assert(choosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}), qt.Equals, vk.PresentModeMailbox)
	c.Assert(choosePresentMode([]vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}), qt.Equals, vk.PresentModeFifo)
	c.Assert(choosePresentMode(nil), qt.Equals, vk.PresentModeFifo)
}

func TestChooseCompositeAlpha(t *testing.T) {
	c := qt.New(t)
	supported := vk.CompositeAlphaFlags(vk.CompositeAlphaInheritBit | vk.CompositeAlphaPreMultipliedBit)
	c.Assert(chooseCompositeAlpha(supported), qt.Equals, vk.CompositeAlphaPreMultipliedBit)
	c.Assert(chooseCompositeAlpha(0), qt.Equals, vk.CompositeAlphaOpaqueBit)
}

func TestFindQueueNeedsGraphicsAndPresent(t *testing.T) {
	c := qt.New(t)
	graphics := vk.QueueFlags(vk.QueueGraphicsBit)
	compute := vk.QueueFlags(vk.QueueComputeBit)

	adapters := []queueCandidate{
		{families: []vk.QueueFlags{compute, graphics}},
		{families: []vk.QueueFlags{graphics | compute, graphics}},
	}
	present := map[[2]int]bool{
		{0, 0}: true,
		{1, 1}: true,
	}

	adapter, family, ok := findQueue(adapters, func(a int, f uint32) bool {
		return present[[2]int{a, int(f)}]
	})
	c.Assert(ok, qt.IsTrue)
	c.Assert(adapter, qt.Equals, 1)
	c.Assert(family, qt.Equals, uint32(1))
	c.Assert(adapters[adapter].families[family]&graphics, qt.Not(qt.Equals), vk.QueueFlags(0))
	c.Assert(present[[2]int{adapter, int(family)}], qt.IsTrue)
}

func TestFindQueueAbsent(t *testing.T) {
	c := qt.New(t)
	adapters := []queueCandidate{
		{families: []vk.QueueFlags{vk.QueueFlags(vk.QueueGraphicsBit)}},
		{families: []vk.QueueFlags{vk.QueueFlags(vk.QueueTransferBit)}},
	}

	_, _, ok := findQueue(adapters, func(a int, f uint32) bool { return a == 1 })
	c.Assert(ok, qt.IsFalse)

	_, _, ok = findQueue(nil, func(int, uint32) bool { return true })
	c.Assert(ok, qt.IsFalse)
}
