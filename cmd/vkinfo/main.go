// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"os"
	"unsafe"

	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkframe/core"
	"github.com/devblok/vkframe/device"
)

var (
	debug  = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	indent = flag.Bool("indent", false, "Indent the JSON output")
)

// headless lets an instance be created without a window.
type headless struct{}

func (headless) RequiredExtensions() []string { return nil }
func (headless) ProcAddr() unsafe.Pointer     { return nil }
func (headless) Size() (uint32, uint32)       { return 0, 0 }
func (headless) CreateSurface(vk.Instance) (vk.Surface, error) {
	return nil, errors.New("no window")
}

func main() {
	flag.Parse()

	cfg := core.DefaultConfiguration()
	cfg.Instance.DebugMode = *debug
	sys := core.NewSystem(core.DefaultApplicationInfo, cfg)
	defer sys.Cleanup()

	ih, err := sys.Instance(headless{})
	if err != nil {
		log.Fatal(err)
	}

	var info []device.PhysicalDeviceInfo
	if err := ih.With(func(inst *core.Instance) error {
		info = device.Query(inst.PhysicalDevices(), nil)
		return nil
	}); err != nil {
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	if *indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(info); err != nil {
		log.Fatal(err)
	}
}
