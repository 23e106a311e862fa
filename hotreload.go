package ui

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/Yeicor/scene-ui/internal/assets"
	"github.com/Yeicor/scene-ui/internal/config"
	"github.com/Yeicor/scene-ui/internal/scene"
)

// startWatcher watches every local asset file of the scene. Changes are picked up by pollReloads.
func (s *Session) startWatcher() error {
	w, err := assets.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = w
	s.reloads = map[string]func(){}
	watch := func(path string, reload func()) {
		if path == "" || strings.Contains(path, "://") {
			return
		}
		abs, err := filepath.Abs(path)
		if err == nil {
			err = w.Add(abs)
		}
		if err != nil {
			log.Println("[Session] Not watching", path+":", err)
			return
		}
		s.reloads[abs] = reload
	}

	for _, mc := range s.cfg.Meshes {
		if mc.Geometry.Kind != config.GeometryModel {
			continue
		}
		path, fit := mc.Geometry.Path, mc.Geometry.Fit
		watch(path, func() { s.reloadModel(path, fit) })
	}
	for name, tex := range s.textures {
		watch(tex.Path, func() { s.reloadTexture(name, tex) })
	}
	if path := s.cfg.Environment.Path; path != "" {
		watch(path, func() { s.reloadEnvironment(path) })
	}
	log.Println("[Session] Hot reload watching", len(s.reloads), "files")
	return nil
}

// pollReloads issues a reload for every changed file, without blocking.
func (s *Session) pollReloads() {
	if s.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-s.watcher.Changes():
			if !ok {
				return // Closed
			}
			if reload, ok := s.reloads[path]; ok {
				log.Println("[Session] Reloading", path)
				reload()
			}
		default:
			return
		}
	}
}

func (s *Session) reloadModel(path string, fit bool) {
	f := s.loader.ReloadModel(path, fit)
	s.pending = append(s.pending, pendingAsset{name: path, done: f.Done(), attach: func() {
		geom, err := f.Result()
		if err != nil {
			return // Keep the previous geometry
		}
		for _, m := range s.models[path] {
			m.Geometry = geom
		}
	}})
}

// reloadTexture swaps the image of the texture in place, so every slot referencing it sees the change.
func (s *Session) reloadTexture(name string, tex *scene.Texture) {
	f := s.loader.ReloadImage(tex.Path, false)
	s.pending = append(s.pending, pendingAsset{name: name, done: f.Done(), attach: func() {
		if t, err := f.Result(); err == nil {
			tex.SetImage(t.Image())
		}
	}})
}

func (s *Session) reloadEnvironment(path string) {
	f := s.loader.ReloadImage(path, true)
	s.pending = append(s.pending, pendingAsset{name: path, done: f.Done(), attach: func() {
		t, err := f.Result()
		if err != nil {
			return
		}
		if env := s.scene.Environment(); env != nil {
			env.SetImage(t.Image())
			return
		}
		if err = s.scene.SetEnvironment(t); err != nil {
			log.Println("[Session] Environment map reload failed:", err)
			return
		}
		s.envErr = nil
		s.open()
	}})
}
