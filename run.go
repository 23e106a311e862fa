package ui

import (
	"errors"
	"log"
	"os"
	"os/signal"

	"github.com/Yeicor/scene-ui/internal/config"
	"github.com/hajimehoshi/ebiten/v2"
)

// Run opens the window and blocks driving the session until the window is closed or the process is interrupted.
// The session is closed on return.
func (s *Session) Run() error {
	defer func() {
		if err := s.Close(); err != nil {
			log.Println("[Session] Close:", err)
		}
	}()
	ebiten.SetWindowTitle(s.cfg.Title)
	ebiten.SetWindowSize(s.cfg.Window.Width, s.cfg.Window.Height)
	if s.cfg.Window.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	ebiten.SetRunnableOnUnfocused(true)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, signals()...)
	defer signal.Stop(stop)

	err := ebiten.RunGame(&sessionEbitenGame{Session: s, stop: stop})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// RunFile loads a scene file and runs it.
func RunFile(path string, opts ...Option) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	s, err := NewSession(cfg, opts...)
	if err != nil {
		return err
	}
	return s.Run()
}
