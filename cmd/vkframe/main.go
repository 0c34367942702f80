// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:generate glslangValidator -V shaders/shader.vert -o shaders/shader.vert.spv
//go:generate glslangValidator -V shaders/shader.frag -o shaders/shader.frag.spv

package main

import (
	"errors"
	"flag"
	"io/ioutil"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/gobuffalo/packd"
	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkframe/core"
	"github.com/devblok/vkframe/core/engine"
	"github.com/devblok/vkframe/input"
	"github.com/devblok/vkframe/model"
	"github.com/devblok/vkframe/utility/kar"
	"github.com/devblok/vkframe/window/sdlwindow"
)

func init() {
	runtime.LockOSThread()
}

var (
	configFile = flag.String("config", "", "TOML configuration file")
	envFile    = flag.String("env", "", "Load environment variables from a .env file")
	modelFile  = flag.String("model", "", "Collada (.dae) mesh to show in place of the last rectangle")
	debug      = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	verbose    = flag.Bool("v", false, "Log debug messages")
	cpuProfile = flag.String("cpuprof", "", "Profile CPU usage to file")
)

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := configuration()
	if err != nil {
		log.Fatal(err)
	}
	if err := run(cfg); errors.Is(err, core.ErrNoSuitableDevice) {
		log.WithError(err).Fatal("no suitable device")
	} else if err != nil {
		log.Fatal(err)
	}
}

// configuration layers the defaults, the TOML file, the .env file
// and the environment, in that order.
func configuration() (core.Configuration, error) {
	cfg := core.DefaultConfiguration()
	if *configFile != "" {
		var err error
		if cfg, err = core.LoadFile(*configFile); err != nil {
			return cfg, err
		}
	}
	if *envFile != "" {
		if err := core.LoadDotEnv(*envFile); err != nil {
			return cfg, err
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		return cfg, err
	}
	if *debug {
		cfg.Instance.DebugMode = true
	}
	return cfg, nil
}

// shaderSource returns the kar bundle when one is configured,
// otherwise the shaders next to the binary sources.
func shaderSource(cfg core.RendererConfiguration) (packd.Finder, func() error, error) {
	if cfg.ShaderBundle == "" {
		return packr.NewBox("./shaders"), func() error { return nil }, nil
	}
	ar, err := kar.OpenFile(cfg.ShaderBundle)
	if err != nil {
		return nil, nil, err
	}
	return ar, ar.Close, nil
}

func loadMesh(path string) (*model.Mesh, error) {
	if path == "" {
		return nil, nil
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mesh, err := model.ImportCollada(data)
	if err != nil {
		return nil, err
	}
	return &mesh, nil
}

func run(cfg core.Configuration) error {
	mesh, err := loadMesh(*modelFile)
	if err != nil {
		return err
	}
	shaders, closeShaders, err := shaderSource(cfg.Renderer)
	if err != nil {
		return err
	}
	defer closeShaders()

	quit, err := sdlwindow.Init()
	if err != nil {
		return err
	}
	defer quit()

	window, err := sdlwindow.New("vkframe", cfg.Renderer.ScreenWidth, cfg.Renderer.ScreenHeight)
	if err != nil {
		return err
	}
	defer window.Destroy()

	sys := core.NewSystem(core.DefaultApplicationInfo, cfg)
	sys.SetLogger(log.StandardLogger())

	ih, err := sys.Instance(window)
	if err != nil {
		return err
	}
	sh, err := sys.Surface(ih)
	if err != nil {
		sys.Cleanup()
		return err
	}
	dh, err := sys.Device(sh)
	if err != nil {
		sys.Cleanup()
		return err
	}
	e, err := engine.New(sys, dh, cfg.Engine)
	if err != nil {
		sys.Cleanup()
		return err
	}
	defer func() {
		if err := e.Cleanup(); err != nil {
			log.WithError(err).Error("cleanup failed")
		}
	}()

	group := newGroup(mesh)
	sc, err := newScene(e, group, shaders)
	if err != nil {
		return err
	}
	frame, err := e.NewFrame()
	if err != nil {
		return err
	}
	if err := e.Setup(); err != nil {
		return err
	}

	return loop(cfg, window, e, sc, frame, input.NewController(group, log.StandardLogger()))
}

type sizer interface {
	Size() (width, height uint32)
}

type rebuilder interface {
	Rebuild() error
}

// rebuildSwapchain rebuilds e once w has a drawable area again and
// reports whether the rebuild is still pending.
func rebuildSwapchain(w sizer, e rebuilder) (bool, error) {
	if width, height := w.Size(); width == 0 || height == 0 {
		return true, nil
	}
	if err := e.Rebuild(); err != nil {
		return false, err
	}
	return false, nil
}

func loop(cfg core.Configuration, window *sdlwindow.Window, e *engine.Engine, sc *scene, frame *engine.Frame, ctl *input.Controller) error {
	timeService := core.NewTime(cfg.Time)
	defer timeService.Stop()

	var (
		queue   input.Queue
		rebuild bool
	)
	for {
		select {
		case <-timeService.EventTicker().C:
			window.Poll(&queue)
		case <-timeService.FpsTicker().C:
			out, err := ctl.Apply(queue.Drain())
			if err != nil {
				return err
			}
			if out.Quit {
				log.Info("quit requested")
				return nil
			}
			if out.Resized || rebuild {
				if rebuild, err = rebuildSwapchain(window, e); err != nil {
					return err
				}
				if rebuild {
					continue
				}
			}

			err = sc.frame(frame, timeService.Elapsed())
			switch {
			case err == nil:
			case errors.Is(err, engine.ErrOutOfDate):
				rebuild = true
			case errors.Is(err, engine.ErrFrameStalled):
				log.WithError(err).Warn("frame skipped")
			default:
				return err
			}
		}
	}
}
