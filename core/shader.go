// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	vk "github.com/devblok/vulkan"
	"github.com/gobuffalo/packd"
)

const shaderEntryPoint = "main\x00"

// Stage is a compiled shader module bound to the pipeline stage it runs in.
type Stage struct {
	Name   string
	Stage  vk.ShaderStageFlagBits
	Module vk.ShaderModule
}

// Info describes the stage to pipeline creation. Every stage
// enters at main.
func (s Stage) Info() vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  s.Stage,
		Module: s.Module,
		PName:  shaderEntryPoint,
	}
}

// Stages is the ordered set of shader stages of one pipeline.
type Stages []Stage

// Infos returns the create infos of every stage.
func (s Stages) Infos() []vk.PipelineShaderStageCreateInfo {
	infos := make([]vk.PipelineShaderStageCreateInfo, 0, len(s))
	for _, stage := range s {
		infos = append(infos, stage.Info())
	}
	return infos
}

// Destroy destroys the shader modules. Pipelines built from them stay valid.
func (s Stages) Destroy(device vk.Device) {
	for _, stage := range s {
		vk.DestroyShaderModule(device, stage.Module, nil)
	}
}

// LoadStages reads compiled shaders named name.vert.spv or name.frag.spv
// from src and creates a module for each.
func LoadStages(dev *Device, src packd.Finder, files ...string) (Stages, error) {
	var stages Stages
	for _, file := range files {
		name, kind, ok := shaderTypeFromName(file)
		if !ok {
			stages.Destroy(dev.device)
			return nil, fmt.Errorf("shader %s: unsupported shader name", file)
		}

		code, err := src.Find(file)
		if err != nil {
			stages.Destroy(dev.device)
			return nil, fmt.Errorf("shader %s: %w", file, err)
		}

		module, err := dev.ShaderModule(code)
		if err != nil {
			stages.Destroy(dev.device)
			return nil, fmt.Errorf("shader %s: %w", file, err)
		}
		stages = append(stages, Stage{
			Name:   name,
			Stage:  kind.Stage(),
			Module: module,
		})
	}
	return stages, nil
}
