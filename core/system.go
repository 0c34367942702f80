// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	vk "github.com/devblok/vulkan"
	"github.com/sirupsen/logrus"

	"github.com/devblok/vkframe/core/handle"
)

var requiredDeviceExtensions = []string{
	vk.KhrSwapchainExtensionName,
}

// NewSystem creates the process wide entry point that issues
// instances, surfaces and devices.
func NewSystem(app *vk.ApplicationInfo, cfg Configuration) *System {
	if app == nil {
		app = DefaultApplicationInfo
	}
	return &System{
		app:      app,
		cfg:      cfg,
		registry: handle.NewRegistry(),
		log:      logrus.StandardLogger(),
	}
}

// System owns every instance, surface and device it created,
// and tears them down in reverse dependency order.
type System struct {
	app      *vk.ApplicationInfo
	cfg      Configuration
	registry *handle.Registry
	log      logrus.FieldLogger
}

// SetLogger replaces the logger, including the one validation
// messages are reported to.
func (s *System) SetLogger(l logrus.FieldLogger) {
	s.log = l
	setDebugLogger(l)
}

// Logger returns the logger in use.
func (s *System) Logger() logrus.FieldLogger {
	return s.log
}

// Registry returns the registry every resource is tracked in.
func (s *System) Registry() *handle.Registry {
	return s.registry
}

// Configuration returns the configuration the system was created with.
func (s *System) Configuration() Configuration {
	return s.cfg
}

// Instance creates an API instance for the window.
func (s *System) Instance(w Window) (*InstanceHandle, error) {
	inst, err := createInstance(s.app, s.cfg.Instance, w)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"extensions": inst.extensions,
		"layers":     inst.layers,
		"adapters":   len(inst.devices),
	}).Debug("instance created")

	return handle.New(s.registry, handle.KindInstance, handle.Root, inst, (*Instance).destroy)
}

// Surface binds the instance's window to it.
func (s *System) Surface(ih *InstanceHandle) (*SurfaceHandle, error) {
	var srf *Surface
	if err := ih.With(func(inst *Instance) error {
		if inst.window == nil {
			return ErrNoWindow
		}
		surface, err := inst.window.CreateSurface(inst.instance)
		if err != nil {
			return fmt.Errorf("window.CreateSurface(): %w", err)
		}
		srf = &Surface{
			surface:    surface,
			instance:   ih,
			vkInstance: inst.instance,
			window:     inst.window,
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return handle.New(s.registry, handle.KindSurface, ih.Key(), srf, (*Surface).destroy)
}

// Device picks the first adapter with a queue family that supports
// both graphics and present to the surface, and creates a logical
// device on it. Returns ErrNoSuitableDevice when there is none.
func (s *System) Device(sh *SurfaceHandle) (*DeviceHandle, error) {
	var dev *Device
	if err := sh.With(func(srf *Surface) error {
		var adapters []vk.PhysicalDevice
		if err := srf.instance.With(func(inst *Instance) error {
			adapters = inst.devices
			return nil
		}); err != nil {
			return err
		}

		adapter, family, ok := findQueue(queueCandidates(adapters), func(a int, f uint32) bool {
			var supported vk.Bool32
			if err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(adapters[a], f, srf.surface, &supported)); err != nil {
				return false
			}
			return supported.B()
		})
		if !ok {
			return ErrNoSuitableDevice
		}

		physical := adapters[adapter]
		extensions := dedupStrings(requiredDeviceExtensions, s.cfg.Renderer.DeviceExtensions)
		device, err := createDevice(physical, family, extensions)
		if err != nil {
			return err
		}

		var queue vk.Queue
		vk.GetDeviceQueue(device, family, 0, &queue)

		pool, err := createCommandPool(device, family)
		if err != nil {
			vk.DestroyDevice(device, nil)
			return err
		}

		dev = &Device{
			physical:    physical,
			device:      device,
			queue:       queue,
			queueFamily: family,
			commandPool: pool,
			properties:  newDeviceProperties(physical),
			surface:     sh,
			instance:    srf.instance,
			vkSurface:   srf.surface,
			window:      srf.window,
		}
		s.log.WithFields(logrus.Fields{
			"adapter":     dev.properties.Name,
			"queueFamily": family,
		}).Info("device created")
		return nil
	}); err != nil {
		return nil, err
	}

	return handle.New(s.registry, handle.KindDevice, sh.Key(), dev, (*Device).destroy)
}

// Cleanup destroys every device, then every surface, then every
// instance. All issued handles are invalid afterwards.
func (s *System) Cleanup() error {
	var first error
	for _, kind := range []handle.Kind{handle.KindDevice, handle.KindSurface, handle.KindInstance} {
		if err := s.registry.ReleaseKind(kind); err != nil && first == nil {
			first = err
		}
	}
	return first
}
