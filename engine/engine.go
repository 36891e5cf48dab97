// Package engine wires the window, the renderer and the world into a running application.
// The window's event loop owns the main OS thread; the world, the synchronizer and the
// renderer run on a single render goroutine.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/camera"
	"github.com/Carmen-Shannon/glace/engine/input"
	"github.com/Carmen-Shannon/glace/engine/light"
	"github.com/Carmen-Shannon/glace/engine/loader"
	"github.com/Carmen-Shannon/glace/engine/model"
	"github.com/Carmen-Shannon/glace/engine/profiler"
	"github.com/Carmen-Shannon/glace/engine/renderer"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/glace/engine/renderer/resource_sync"
	"github.com/Carmen-Shannon/glace/engine/settings"
	"github.com/Carmen-Shannon/glace/engine/ui"
	"github.com/Carmen-Shannon/glace/engine/window"
	"github.com/Carmen-Shannon/glace/engine/world"
)

// Engine is the main entry point. It owns the window, the GPU context and the world.
type Engine interface {
	// World returns the ECS world. It may only be touched before Run or from systems.
	World() *world.World

	// Window returns the platform window.
	Window() window.Window

	// Renderer returns the frame orchestrator.
	Renderer() *renderer.Renderer

	// Overlay returns the UI overlay, to which extra panels may be added before Run.
	Overlay() *ui.Overlay

	// Loader returns the asynchronous model loader.
	Loader() loader.Loader

	// Spawn starts loading a model file and returns the entity it will be attached to.
	// The entity gets the Model once the load finishes; a failed load leaves it Unloaded.
	// Like World, it may only be called before Run or from systems.
	//
	// Parameters:
	//   - path: the OBJ or glTF file
	//   - t: the entity's transform
	//
	// Returns:
	//   - world.Entity: the entity
	Spawn(path string, t model.Transform) world.Entity

	// SpawnModel spawns an already built model. It may only be called before Run or from systems.
	//
	// Parameters:
	//   - m: the model
	//   - t: the entity's transform
	//
	// Returns:
	//   - world.Entity: the entity
	SpawnModel(m model.Model, t model.Transform) world.Entity

	// Despawn releases an entity's GPU resources and removes it. Before Run it acts at once;
	// while running it only queues the entity, which the render goroutine removes at the start
	// of its next frame, so it is safe from any goroutine.
	//
	// Parameters:
	//   - e: the entity to remove
	//
	// Returns:
	//   - error: error if the entity is not alive, reported only when acting at once
	Despawn(e world.Entity) error

	// Run starts the render goroutine and blocks in the window's event loop until the window
	// closes or Quit is called.
	//
	// Returns:
	//   - error: the error that stopped the render goroutine, if any
	Run() error

	// Quit stops the engine. Safe to call multiple times and from any goroutine.
	Quit()
}

type engine struct {
	resizeChannel chan [2]uint32

	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once
	errMu       sync.Mutex
	err         error

	running   atomic.Bool
	despawnMu sync.Mutex
	despawns  []world.Entity

	window  window.Window
	input   *input.State
	backend gpu.Backend

	ctx      *renderer.Context
	renderer *renderer.Renderer
	sync     *resource_sync.Synchronizer
	overlay  *ui.Overlay
	loader   loader.Loader
	world    *world.World
	fly      *camera.FlyController
	profiler *profiler.Profiler

	settingsFile string
	settings     *settings.Settings
	hotReload    bool
	watcher      *settings.Watcher
	applied      *settings.Settings

	defaultScene     bool
	uiMemoryFile     string
	profilingEnabled bool
	renderFrameLimit time.Duration
	systems          []userSystem

	start     time.Time
	lastFrame time.Time
}

type userSystem struct {
	stage world.Stage
	name  string
	fn    func(*world.World)
}

// NewEngine opens the window, creates the GPU device and assembles the world. It must be
// called on the main goroutine, which Run then keeps for the event loop.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the ready engine
//   - error: error if settings cannot be read or no window, adapter or device can be created
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := newEngine(options...)
	if err := e.loadSettings(); err != nil {
		return nil, err
	}

	win, err := window.NewWindow(
		window.WithTitle(e.settings.Window.Title),
		window.WithSize(e.settings.Window.Width, e.settings.Window.Height),
		window.WithInput(e.input),
	)
	if err != nil {
		return nil, err
	}
	e.window = win

	be, err := gpu.NewWGPUBackend(win.SurfaceDescriptor(), false)
	if err != nil {
		win.Close()
		return nil, fmt.Errorf("create gpu backend: %w", err)
	}
	if err := e.assemble(be, uint32(win.Width()), uint32(win.Height())); err != nil {
		be.Release()
		win.Close()
		return nil, err
	}
	win.SetResizeCallback(func(width, height int) {
		e.requestResize(uint32(width), uint32(height))
	})

	if e.hotReload && e.settingsFile != "" {
		watcher, err := settings.NewWatcher(e.settingsFile)
		if err != nil {
			common.Logger().Warn("settings hot reload disabled", "error", err)
		} else {
			e.watcher = watcher
			e.world.AddSystem(world.StagePreUpdate, "settings reload", watcher.System())
		}
	}
	return e, nil
}

func newEngine(options ...EngineBuilderOption) *engine {
	e := &engine{
		resizeChannel: make(chan [2]uint32, 1),
		quitChannel:   make(chan struct{}),
		input:         input.NewState(),
		world:         world.New(),
		settingsFile:  settings.DefaultFile,
		hotReload:     true,
		defaultScene:  true,
		uiMemoryFile:  ui.DefaultMemoryFile,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *engine) loadSettings() error {
	if e.settings != nil {
		return nil
	}
	s, err := settings.Load(e.settingsFile)
	if err != nil {
		return err
	}
	e.settings = &s
	return nil
}

// assemble builds the GPU context, renderer, overlay and every system on top of a backend.
func (e *engine) assemble(be gpu.Backend, width, height uint32) error {
	if err := e.loadSettings(); err != nil {
		return err
	}
	s := *e.settings
	e.backend = be

	ctx, err := renderer.NewContext(be, width, height,
		renderer.WithMSAA(renderer.MSAASampleCount(s.Render.MSAA)),
		renderer.WithPresentMode(renderer.ParsePresentMode(s.Render.PresentMode)),
	)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	e.ctx = ctx

	e.overlay, err = ui.NewOverlay(be, ctx.Layouts(), ctx.Pipelines(), ui.WithMemoryFile(e.uiMemoryFile))
	if err != nil {
		common.Logger().Warn("ui memory ignored", "error", err)
		e.overlay, err = ui.NewOverlay(be, ctx.Layouts(), ctx.Pipelines(),
			ui.WithMemoryFile(e.uiMemoryFile), ui.WithMemory(&ui.Memory{}))
		if err != nil {
			ctx.Release()
			return fmt.Errorf("engine: %w", err)
		}
	}
	e.renderer, err = renderer.NewRenderer(ctx,
		renderer.WithOverlay(e.overlay),
		renderer.WithFamily(pipeline.FamilyUI, ui.Family(ctx.Layouts())),
	)
	if err != nil {
		ctx.Release()
		return fmt.Errorf("engine: %w", err)
	}
	e.sync = resource_sync.New(be, ctx.Layouts())
	if e.loader == nil {
		e.loader = loader.NewLoader()
	}
	e.fly = camera.NewFlyController(camera.WithSpeed(s.Camera.Speed))
	e.profiler = profiler.NewProfiler(profiler.WithLogging(e.profilingEnabled))

	w := e.world
	world.SetResource(w, s)
	world.SetResource(w, world.Viewport{Width: width, Height: height})
	world.SetResource(w, camera.New(
		camera.WithEye(common.Vec3{0, 4, 12}),
		camera.WithLookAt(common.Vec3{}),
		camera.WithAspect(world.Viewport{Width: width, Height: height}.Aspect()),
		camera.WithClip(s.Camera.Near, s.Camera.Far),
	))
	world.SetResource(w, light.Orbit{Enabled: s.Light.Rotate, Speed: s.Light.Speed})

	e.overlay.AddPanel(settingsPanel(w))
	e.overlay.AddPanel(statsPanel(w))

	if e.defaultScene {
		w.AddSystem(world.StageStartup, "default scene", e.defaultSceneSystem)
	}
	w.AddSystem(world.StagePreUpdate, "apply settings", e.applySettings)
	w.AddSystem(world.StagePreUpdate, "spawn loaded models", e.spawnLoaded)
	w.AddSystem(world.StageUpdate, "fly camera", camera.FlySystem(e.fly))
	w.AddSystem(world.StageUpdate, "light orbit", light.OrbitSystem)
	for _, us := range e.systems {
		w.AddSystem(us.stage, us.name, us.fn)
	}
	w.AddSystem(world.StagePostUpdate, "ui", e.overlay.System())
	w.AddSystem(world.StagePostUpdate, "resource sync", e.sync.Run)
	e.renderer.Install(w)
	return nil
}

func (e *engine) World() *world.World          { return e.world }
func (e *engine) Window() window.Window        { return e.window }
func (e *engine) Renderer() *renderer.Renderer { return e.renderer }
func (e *engine) Overlay() *ui.Overlay         { return e.overlay }
func (e *engine) Loader() loader.Loader        { return e.loader }

func (e *engine) Despawn(ent world.Entity) error {
	if !e.running.Load() {
		return e.sync.Despawn(e.world, ent)
	}
	e.despawnMu.Lock()
	e.despawns = append(e.despawns, ent)
	e.despawnMu.Unlock()
	return nil
}

// drainDespawns removes the entities queued by Despawn while running.
func (e *engine) drainDespawns() {
	e.despawnMu.Lock()
	pending := e.despawns
	e.despawns = nil
	e.despawnMu.Unlock()
	for _, ent := range pending {
		if err := e.sync.Despawn(e.world, ent); err != nil {
			common.Logger().Warn("despawn failed", "entity", ent.Index(), "error", err)
		}
	}
}

func (e *engine) Run() error {
	e.running.Store(true)
	e.wg.Add(1)
	go e.handleRender()
	e.window.ProcessMessages()
	e.signalQuit()
	e.wg.Wait()
	e.running.Store(false)

	e.shutdown()
	if err := e.window.Close(); err != nil {
		common.Logger().Warn("window close failed", "error", err)
	}
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

func (e *engine) Quit() {
	e.signalQuit()
	if e.window != nil {
		e.window.RequestClose()
	}
}

// signalQuit closes the quit channel exactly once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) fail(err error) {
	e.errMu.Lock()
	e.err = errors.Join(e.err, err)
	e.errMu.Unlock()
	e.Quit()
}

// requestResize hands the newest framebuffer size to the render goroutine, replacing any size
// it has not picked up yet.
func (e *engine) requestResize(width, height uint32) {
	size := [2]uint32{width, height}
	select {
	case e.resizeChannel <- size:
	default:
		select {
		case <-e.resizeChannel:
		default:
		}
		e.resizeChannel <- size
	}
}

// handleRender runs frames until quit. A panic is logged and stops the engine.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("render goroutine recovered from panic", "panic", r)
			e.fail(fmt.Errorf("render goroutine panic: %v", r))
		}
	}()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}
		frameStart := time.Now()
		e.frame(frameStart)

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// frame runs one world update: resize bookkeeping, queued despawns, per-frame resources, then
// every stage.
func (e *engine) frame(now time.Time) {
	if e.start.IsZero() {
		e.start = now
		e.lastFrame = now
	}
	select {
	case size := <-e.resizeChannel:
		if _, err := renderer.HandleResize(e.world, e.ctx, size[0], size[1]); err != nil {
			common.Logger().Error("resize failed", "error", err)
		}
	default:
	}
	e.drainDespawns()

	w := e.world
	world.SetResource(w, world.Time{
		Delta:   float32(now.Sub(e.lastFrame).Seconds()),
		Elapsed: now.Sub(e.start).Seconds(),
	})
	e.lastFrame = now
	world.SetResource(w, e.input.Snapshot())
	if e.profiler.Tick() {
		world.SetResource(w, e.profiler.Stats())
	}
	w.Update()
}

// shutdown saves the overlay placement and releases GPU resources in dependency order.
func (e *engine) shutdown() {
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			common.Logger().Warn("settings watcher close failed", "error", err)
		}
	}
	if err := e.overlay.SaveMemory(); err != nil {
		common.Logger().Warn("ui memory not saved", "error", err)
	}
	e.overlay.Release()
	for _, ent := range e.world.Query() {
		if err := e.sync.Despawn(e.world, ent); err != nil {
			common.Logger().Warn("despawn failed", "entity", ent.Index(), "error", err)
		}
	}
	e.sync.Release()
	e.renderer.Release()
	e.ctx.Release()
	e.backend.Release()
}
