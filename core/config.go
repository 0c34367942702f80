// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override the configuration.
const (
	EnvFramesPerSecond = "VKFRAME_FPS"
	EnvScreenWidth     = "VKFRAME_WIDTH"
	EnvScreenHeight    = "VKFRAME_HEIGHT"
	EnvDebugMode       = "VKFRAME_DEBUG"
	EnvFenceTimeout    = "VKFRAME_FENCE_TIMEOUT"
	EnvAcquireTimeout  = "VKFRAME_ACQUIRE_TIMEOUT"
	EnvShaderBundle    = "VKFRAME_SHADERS"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration     `toml:"time"`
	Instance InstanceConfiguration `toml:"instance"`
	Renderer RendererConfiguration `toml:"renderer"`
	Engine   EngineConfiguration   `toml:"engine"`
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int `toml:"fps"`

	// EventPollDelay is the delay between window event polls, in milliseconds
	EventPollDelay int `toml:"event_poll_delay"`
}

// InstanceConfiguration is used to configure the API instance
type InstanceConfiguration struct {
	DebugMode  bool     `toml:"debug"`
	Extensions []string `toml:"extensions"`
	Layers     []string `toml:"layers"`
}

// RendererConfiguration is used to configure the device and window
type RendererConfiguration struct {
	DeviceExtensions []string `toml:"device_extensions"`

	ScreenWidth  uint32 `toml:"width"`
	ScreenHeight uint32 `toml:"height"`

	// ShaderBundle is a kar archive with compiled shaders.
	// When empty, the shaders embedded in the binary are used.
	ShaderBundle string `toml:"shader_bundle"`
}

// EngineConfiguration bounds the blocking points of a frame.
// Timeouts are in milliseconds.
type EngineConfiguration struct {
	FenceTimeout   int `toml:"fence_timeout"`
	AcquireTimeout int `toml:"acquire_timeout"`
}

// DefaultConfiguration returns the configuration used when nothing overrides it.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  5,
		},
		Renderer: RendererConfiguration{
			ScreenWidth:  800,
			ScreenHeight: 600,
		},
		Engine: EngineConfiguration{
			FenceTimeout:   1000,
			AcquireTimeout: 1000,
		},
	}
}

// LoadFile reads a TOML file on top of the defaults.
func LoadFile(path string) (Configuration, error) {
	cfg := DefaultConfiguration()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads the given .env files into the process environment
// and reloads envy so the values are visible to LoadEnv.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		return err
	}
	envy.Reload()
	return nil
}

// LoadEnv overrides configuration values from environment variables.
func (c *Configuration) LoadEnv() error {
	var err error
	if c.Time.FramesPerSecond, err = envInt(EnvFramesPerSecond, c.Time.FramesPerSecond); err != nil {
		return err
	}
	if c.Engine.FenceTimeout, err = envInt(EnvFenceTimeout, c.Engine.FenceTimeout); err != nil {
		return err
	}
	if c.Engine.AcquireTimeout, err = envInt(EnvAcquireTimeout, c.Engine.AcquireTimeout); err != nil {
		return err
	}

	width, err := envInt(EnvScreenWidth, int(c.Renderer.ScreenWidth))
	if err != nil {
		return err
	}
	height, err := envInt(EnvScreenHeight, int(c.Renderer.ScreenHeight))
	if err != nil {
		return err
	}
	c.Renderer.ScreenWidth, c.Renderer.ScreenHeight = uint32(width), uint32(height)

	if v := envy.Get(EnvDebugMode, ""); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebugMode, err)
		}
		c.Instance.DebugMode = debug
	}
	c.Renderer.ShaderBundle = envy.Get(EnvShaderBundle, c.Renderer.ShaderBundle)
	return nil
}

func envInt(key string, def int) (int, error) {
	v := envy.Get(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
