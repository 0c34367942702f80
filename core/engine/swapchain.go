// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package engine

import (
	"fmt"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/vkframe/core"
	"github.com/devblok/vkframe/core/buffer"
)

// DepthFormat is the format of the depth attachment.
const DepthFormat = vk.FormatD16Unorm

type depthImage struct {
	image  vk.Image
	view   vk.ImageView
	memory vk.DeviceMemory
}

// swapchain holds everything that depends on the surface extent.
type swapchain struct {
	swapchain    vk.Swapchain
	info         core.SwapchainInfo
	images       []vk.Image
	views        []vk.ImageView
	depth        depthImage
	framebuffers []vk.Framebuffer
}

func swapchainImages(device vk.Device, sc vk.Swapchain) ([]vk.Image, error) {
	var count uint32
	if err := vk.Error(vk.GetSwapchainImages(device, sc, &count, nil)); err != nil {
		return nil, fmt.Errorf("vk.GetSwapchainImages(count): %w", err)
	}
	images := make([]vk.Image, count)
	if err := vk.Error(vk.GetSwapchainImages(device, sc, &count, images)); err != nil {
		return nil, fmt.Errorf("vk.GetSwapchainImages(images): %w", err)
	}
	return images, nil
}

func createImageView(device vk.Device, image vk.Image, format vk.Format, aspect vk.ImageAspectFlagBits) (vk.ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(device, &ivci, nil, &view)); err != nil {
		return nil, fmt.Errorf("vk.CreateImageView(): %w", err)
	}
	return view, nil
}

func createDepthImage(device vk.Device, memory vk.PhysicalDeviceMemoryProperties, extent vk.Extent2D) (depthImage, error) {
	var depth depthImage

	ici := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    DepthFormat,
		Extent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	if err := vk.Error(vk.CreateImage(device, &ici, nil, &depth.image)); err != nil {
		return depth, fmt.Errorf("vk.CreateImage(depth): %w", err)
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, depth.image, &req)
	req.Deref()

	memType, err := buffer.FindMemoryType(memory, req.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(device, depth.image, nil)
		return depthImage{}, err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memType,
	}
	if err := vk.Error(vk.AllocateMemory(device, &mai, nil, &depth.memory)); err != nil {
		vk.DestroyImage(device, depth.image, nil)
		return depthImage{}, fmt.Errorf("vk.AllocateMemory(depth): %w", err)
	}
	if err := vk.Error(vk.BindImageMemory(device, depth.image, depth.memory, 0)); err != nil {
		depth.destroy(device)
		return depthImage{}, fmt.Errorf("vk.BindImageMemory(depth): %w", err)
	}

	view, err := createImageView(device, depth.image, DepthFormat, vk.ImageAspectDepthBit)
	if err != nil {
		depth.destroy(device)
		return depthImage{}, err
	}
	depth.view = view
	return depth, nil
}

// destroy releases the view, then the image, then its memory.
func (d *depthImage) destroy(device vk.Device) {
	if d.view != nil {
		vk.DestroyImageView(device, d.view, nil)
	}
	if d.image != nil {
		vk.DestroyImage(device, d.image, nil)
	}
	if d.memory != nil {
		vk.FreeMemory(device, d.memory, nil)
	}
	*d = depthImage{}
}

func renderPassAttachments(color vk.Format) []vk.AttachmentDescription {
	return []vk.AttachmentDescription{
		{
			Format:         color,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		},
		{
			Format:         DepthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutDepthStencilAttachmentOptimal,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}
}

func createRenderPass(device vk.Device, color vk.Format) (vk.RenderPass, error) {
	attachments := renderPassAttachments(color)

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
		PDepthStencilAttachment: &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(device, &rpci, nil, &renderPass)); err != nil {
		return nil, fmt.Errorf("vk.CreateRenderPass(): %w", err)
	}
	return renderPass, nil
}

func createFramebuffers(device vk.Device, renderPass vk.RenderPass, views []vk.ImageView, depth vk.ImageView, extent vk.Extent2D) ([]vk.Framebuffer, error) {
	framebuffers := make([]vk.Framebuffer, 0, len(views))
	for idx, view := range views {
		attachments := []vk.ImageView{view, depth}
		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		}

		var framebuffer vk.Framebuffer
		if err := vk.Error(vk.CreateFramebuffer(device, &fci, nil, &framebuffer)); err != nil {
			for _, fb := range framebuffers {
				vk.DestroyFramebuffer(device, fb, nil)
			}
			return nil, fmt.Errorf("vk.CreateFramebuffer()[%d]: %w", idx, err)
		}
		framebuffers = append(framebuffers, framebuffer)
	}
	return framebuffers, nil
}

// buildSwapchain creates the swapchain and every object sized after it.
// The old swapchain, if any, is retired but not destroyed.
func buildSwapchain(dev *core.Device, renderPass vk.RenderPass, old vk.Swapchain) (*swapchain, error) {
	device := dev.Inner()

	sc, info, err := dev.Swapchain(old)
	if err != nil {
		return nil, err
	}
	s := &swapchain{swapchain: sc, info: info}

	if s.images, err = swapchainImages(device, sc); err != nil {
		s.destroy(device, nil)
		return nil, err
	}

	for _, image := range s.images {
		view, err := createImageView(device, image, info.Format.Format, vk.ImageAspectColorBit)
		if err != nil {
			s.destroy(device, nil)
			return nil, err
		}
		s.views = append(s.views, view)
	}

	if s.depth, err = createDepthImage(device, dev.Properties().Memory, info.Extent); err != nil {
		s.destroy(device, nil)
		return nil, err
	}

	if renderPass != nil {
		if s.framebuffers, err = createFramebuffers(device, renderPass, s.views, s.depth.view, info.Extent); err != nil {
			s.destroy(device, nil)
			return nil, err
		}
	}
	return s, nil
}

// destroy tears down in the order framebuffers, render pass, depth
// image, present views and swapchain. renderPass may be nil.
func (s *swapchain) destroy(device vk.Device, renderPass vk.RenderPass) {
	for _, fb := range s.framebuffers {
		vk.DestroyFramebuffer(device, fb, nil)
	}
	s.framebuffers = nil

	if renderPass != nil {
		vk.DestroyRenderPass(device, renderPass, nil)
	}

	s.depth.destroy(device)

	for _, view := range s.views {
		vk.DestroyImageView(device, view, nil)
	}
	s.views = nil
	s.images = nil

	if s.swapchain != nil {
		vk.DestroySwapchain(device, s.swapchain, nil)
		s.swapchain = nil
	}
}
