// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strings"
	"unsafe"
)

const shaderSuffix = ".spv"

// shaderTypeFromName parses names of the form name.type.spv.
// It is important that the file name does not contain more than two dots,
// the first is always the name of the shader, second is type, and the third one
// ensures that the shader is compiled.
func shaderTypeFromName(file string) (string, ShaderType, bool) {
	if idx := strings.LastIndex(file, "/"); idx >= 0 {
		file = file[idx+1:]
	}
	if !strings.HasSuffix(file, shaderSuffix) {
		return "", UnknownShaderType, false
	}

	nodes := strings.Split(strings.TrimSuffix(file, shaderSuffix), ".")
	if len(nodes) != 2 {
		return "", UnknownShaderType, false
	}

	switch nodes[1] {
	case "vert":
		return nodes[0], VertexShaderType, true
	case "frag":
		return nodes[0], FragmentShaderType, true
	default:
		return "", UnknownShaderType, false
	}
}

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func safeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}

// dedupStrings merges lists keeping the first occurrence of each
// name, ignoring the trailing terminator.
func dedupStrings(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, s := range list {
			key := strings.TrimSuffix(s, "\x00")
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}
