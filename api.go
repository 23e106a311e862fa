// Package ui runs an interactive 3D scene described by a config file: it assembles the scene, renders it
// continuously in a window with damped orbit controls, and exposes a live-tweaking debug panel whose edits write
// straight through to the scene objects.
package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/Yeicor/scene-ui/internal/assets"
	"github.com/Yeicor/scene-ui/internal/config"
	"github.com/Yeicor/scene-ui/internal/orbit"
	"github.com/Yeicor/scene-ui/internal/panel"
	"github.com/Yeicor/scene-ui/internal/raster"
	"github.com/Yeicor/scene-ui/internal/remote"
	"github.com/Yeicor/scene-ui/internal/scene"
	"github.com/barkimedes/go-deepcopy"
)

// Surface is the output a session draws to. The default is a CPU rasterizer sized like the window.
type Surface interface {
	Resize(w, h int) bool
	Size() (int, int)
	Draw(sc *scene.Scene, cam *scene.Camera) *image.NRGBA
}

// Session owns everything a running scene needs: the scene graph, camera, output surface, controls, panel and
// the pending asset loads. All mutation happens on the goroutine that drives the session (the ebiten loop, or
// the caller of Update/Frame in tests).
type Session struct {
	cfg      *config.Scene
	scene    *scene.Scene
	camera   *scene.Camera
	surface  Surface
	controls *orbit.Controls
	registry *panel.Registry // nil if the panel is disabled
	loader   *assets.Loader
	textures map[string]*scene.Texture // By config name
	models   map[string][]*scene.Mesh  // By model path, for hot reloading
	pending  []pendingAsset
	ready    chan struct{} // Closed once the render loop may start
	loop     *frameLoop
	lastImg  *image.NRGBA
	envErr   error // Why the environment never attached, if it failed
	lastEdit string
	ui       overlayState

	// Options
	startMode  config.StartMode
	hotReload  bool
	remoteAddr string
	workers    int

	// Optional services
	watcher      *assets.Watcher
	reloads      map[string]func() // By absolute path
	remote       *remote.PanelService
	remoteCancel context.CancelFunc
	remoteBound  string // Actual listen address
}

//-----------------------------------------------------------------------------
// CONFIGURATION
//-----------------------------------------------------------------------------

// Option configures a Session, overriding the scene file.
type Option func(s *Session)

// OptStartMode chooses whether the render loop starts right away or waits for the environment map.
func OptStartMode(mode config.StartMode) Option {
	return func(s *Session) {
		s.startMode = mode
	}
}

// OptSurface replaces the default rasterizer.
func OptSurface(surface Surface) Option {
	return func(s *Session) {
		s.surface = surface
	}
}

// OptHotReload watches model, texture and environment files and reloads them when they change.
func OptHotReload(enabled bool) Option {
	return func(s *Session) {
		s.hotReload = enabled
	}
}

// OptRemotePanel serves the debug panel over net/rpc on the given TCP address (e.g. "127.0.0.1:7070").
func OptRemotePanel(addr string) Option {
	return func(s *Session) {
		s.remoteAddr = addr
	}
}

// OptLoaderWorkers limits the number of concurrent asset loads (defaults to the number of CPUs).
func OptLoaderWorkers(n int) Option {
	return func(s *Session) {
		s.workers = n
	}
}

//-----------------------------------------------------------------------------
// SESSION
//-----------------------------------------------------------------------------

// NewSession assembles the scene described by cfg (the defaults if nil), builds the debug panel if enabled and
// issues the asynchronous asset loads. It does not open any window: see Run.
// The session works on its own copy of cfg, so the caller may reuse or edit it afterwards.
func NewSession(cfg *config.Scene, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	} else {
		cp, err := deepcopy.Anything(cfg)
		if err != nil {
			return nil, fmt.Errorf("copying the scene config: %w", err)
		}
		cfg = cp.(*config.Scene)
	}
	s := &Session{
		cfg:        cfg,
		textures:   map[string]*scene.Texture{},
		models:     map[string][]*scene.Mesh{},
		ready:      make(chan struct{}),
		startMode:  cfg.Start,
		hotReload:  cfg.HotReload,
		remoteAddr: cfg.Panel.Remote,
	}
	for _, opt := range opts {
		opt(s)
	}
	switch s.startMode {
	case config.StartImmediate:
	case config.StartAfterEnvironment:
		if cfg.Environment.Path == "" {
			return nil, fmt.Errorf("%w: start mode %q without an environment map", config.ErrInvalid, s.startMode)
		}
	default:
		return nil, fmt.Errorf("%w: unknown start mode %q", config.ErrInvalid, s.startMode)
	}
	if s.remoteAddr != "" && !cfg.Panel.Enabled {
		return nil, fmt.Errorf("%w: the remote panel needs the panel to be enabled", config.ErrInvalid)
	}

	s.loader = assets.NewLoader(s.workers)
	s.loader.Exposure = cfg.Environment.Exposure
	s.loader.MaxWidth = cfg.Environment.MaxWidth
	if s.surface == nil {
		s.surface = raster.NewSurface(cfg.Window.Width, cfg.Window.Height)
	}
	if err := s.assemble(); err != nil {
		return nil, err
	}
	s.controls = newControls(s.camera, cfg.Controls)
	if cfg.Panel.Enabled {
		reg, err := s.buildPanel()
		if err != nil {
			return nil, err
		}
		s.registry = reg
	}
	s.loop = newFrameLoop(s.ready, s.controls, s.draw)
	if s.startMode == config.StartImmediate {
		s.open()
	}

	if s.hotReload {
		if err := s.startWatcher(); err != nil { // Not fatal: the scene still works without it
			log.Println("[Session] Hot reload disabled:", err)
		}
	}
	if s.remoteAddr != "" {
		if err := s.startRemote(); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

func newControls(cam *scene.Camera, cfg config.Controls) *orbit.Controls {
	c := orbit.New(cam)
	c.EnableDamping = cfg.Damping
	c.DampingFactor = cfg.DampingFactor
	c.RotateSpeed = cfg.RotateSpeed
	c.ZoomSpeed = cfg.ZoomSpeed
	c.PanSpeed = cfg.PanSpeed
	c.MinDistance = cfg.MinDistance
	if cfg.MaxDistance > 0 {
		c.MaxDistance = cfg.MaxDistance
	}
	return c
}

// Scene returns the live scene graph.
func (s *Session) Scene() *scene.Scene {
	return s.scene
}

// Camera returns the live camera.
func (s *Session) Camera() *scene.Camera {
	return s.camera
}

// Registry returns the debug panel controls, or nil if the panel is disabled.
func (s *Session) Registry() *panel.Registry {
	return s.registry
}

// Ready is closed once the render loop is allowed to start.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Frames returns the number of completed render loop iterations.
func (s *Session) Frames() uint64 {
	return s.loop.frames
}

// LastFrame returns the image of the last completed iteration (nil before the first one).
func (s *Session) LastFrame() *image.NRGBA {
	return s.lastImg
}

// WaitAssets blocks until every asset load issued so far completes (or ctx is done) and attaches them.
// It must be called from the goroutine that owns the session.
func (s *Session) WaitAssets(ctx context.Context) error {
	for len(s.pending) > 0 {
		select {
		case <-s.pending[0].done:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.pollAssets()
	}
	return nil
}

// Close stops the optional services (remote panel, file watcher). Pending loads finish on their own.
func (s *Session) Close() error {
	var errs []error
	if s.remote != nil {
		s.remote.Close()
		s.remoteCancel()
	}
	if s.watcher != nil {
		errs = append(errs, s.watcher.Close())
	}
	return errors.Join(errs...)
}

// open releases the start gate. It is safe to call more than once.
func (s *Session) open() {
	select {
	case <-s.ready:
	default:
		close(s.ready)
		log.Println("[Session] Render loop started after", time.Since(s.loop.created).Round(time.Millisecond))
	}
}
