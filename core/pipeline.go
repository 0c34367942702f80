// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"unsafe"

	vk "github.com/devblok/vulkan"
)

// PushConstants collects push constant ranges of a pipeline layout.
type PushConstants struct {
	ranges []vk.PushConstantRange
}

// Add appends a range of size bytes at offset, visible to stages.
func (p *PushConstants) Add(offset, size uint32, stages vk.ShaderStageFlagBits) *PushConstants {
	p.ranges = append(p.ranges, vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(stages),
		Offset:     offset,
		Size:       size,
	})
	return p
}

// Ranges returns the collected ranges.
func (p *PushConstants) Ranges() []vk.PushConstantRange {
	return p.ranges
}

// PushConstantRange is a range sized for one value of T.
func PushConstantRange[T any](offset uint32, stages vk.ShaderStageFlagBits) vk.PushConstantRange {
	var zero T
	return vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(stages),
		Offset:     offset,
		Size:       uint32(unsafe.Sizeof(zero)),
	}
}

// Viewport is the viewport and scissor covering a whole surface.
type Viewport struct {
	Viewports []vk.Viewport
	Scissors  []vk.Rect2D
}

// NewViewport creates a viewport for the extent, depth 0 to 1.
func NewViewport(extent vk.Extent2D) Viewport {
	return Viewport{
		Viewports: []vk.Viewport{{
			X:        0,
			Y:        0,
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		}},
		Scissors: []vk.Rect2D{{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		}},
	}
}

// State describes the viewport to pipeline creation.
func (v Viewport) State() vk.PipelineViewportStateCreateInfo {
	return vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: uint32(len(v.Viewports)),
		PViewports:    v.Viewports,
		ScissorCount:  uint32(len(v.Scissors)),
		PScissors:     v.Scissors,
	}
}

// Record sets the viewport and scissor in the command buffer.
func (v Viewport) Record(cmd vk.CommandBuffer) {
	vk.CmdSetViewport(cmd, 0, uint32(len(v.Viewports)), v.Viewports)
	vk.CmdSetScissor(cmd, 0, uint32(len(v.Scissors)), v.Scissors)
}

// PipelineDescription is everything a graphics pipeline is built from.
type PipelineDescription struct {
	Stages     Stages
	Bindings   []vk.VertexInputBindingDescription
	Attributes []vk.VertexInputAttributeDescription
	Viewport   Viewport
	Layout     vk.PipelineLayout
	RenderPass vk.RenderPass
}

// NewPipelineLayout creates a layout over descriptor set layouts and push constants.
func NewPipelineLayout(device vk.Device, sets []vk.DescriptorSetLayout, push []vk.PushConstantRange) (vk.PipelineLayout, error) {
	plci := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(sets)),
		PSetLayouts:            sets,
		PushConstantRangeCount: uint32(len(push)),
		PPushConstantRanges:    push,
	}

	var layout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(device, &plci, nil, &layout)); err != nil {
		return nil, fmt.Errorf("vk.CreatePipelineLayout(): %w", err)
	}
	return layout, nil
}

// NewGraphicsPipeline creates a triangle-list pipeline with depth testing,
// back-face culling and dynamic viewport and scissor.
func NewGraphicsPipeline(device vk.Device, desc PipelineDescription) (vk.Pipeline, error) {
	viewportState := desc.Viewport.State()
	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(desc.Stages)),
		PStages:    desc.Stages.Infos(),
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(desc.Bindings)),
			PVertexBindingDescriptions:      desc.Bindings,
			VertexAttributeDescriptionCount: uint32(len(desc.Attributes)),
			PVertexAttributeDescriptions:    desc.Attributes,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &viewportState,
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:   vk.FrontFaceCounterClockwise,
			LineWidth:   1.0,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:  vk.True,
			DepthWriteEnable: vk.True,
			DepthCompareOp:   vk.CompareOpLessOrEqual,
			Back: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
			Front: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: 0xF,
				BlendEnable:    vk.False,
			}},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateViewport,
				vk.DynamicStateScissor,
			},
		},
		Layout:     desc.Layout,
		RenderPass: desc.RenderPass,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := vk.Error(vk.CreateGraphicsPipelines(device, nil, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return nil, fmt.Errorf("vk.CreateGraphicsPipelines(): %w", err)
	}
	return pipelines[0], nil
}
