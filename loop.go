package ui

import (
	"context"
	"errors"
	"time"

	"github.com/subchen/go-trylock/v2"
)

// ErrFrameOverlap is returned when an iteration of the render loop starts before the previous one returned.
var ErrFrameOverlap = errors.New("render loop: iteration started while the previous one was still running")

// controlsUpdater advances the damped camera controls by one step.
type controlsUpdater interface {
	Update() bool
}

// frameLoop runs the render loop iterations: update the controls, then draw. Iterations are strictly sequential
// and none runs before the start gate is open.
type frameLoop struct {
	guard interface {
		TryLock(ctx context.Context) bool
		Unlock()
	}
	ready    <-chan struct{}
	controls controlsUpdater
	draw     func()
	frames   uint64
	created  time.Time
	lastDraw time.Time
}

func newFrameLoop(ready <-chan struct{}, controls controlsUpdater, draw func()) *frameLoop {
	return &frameLoop{
		guard:    trylock.New(),
		ready:    ready,
		controls: controls,
		draw:     draw,
		created:  time.Now(),
	}
}

// started reports whether the start gate is open.
func (l *frameLoop) started() bool {
	select {
	case <-l.ready:
		return true
	default:
		return false
	}
}

// iterate runs one iteration if the loop has started, reporting whether it drew.
func (l *frameLoop) iterate() (bool, error) {
	if !l.started() {
		return false, nil
	}
	// Quick check to avoid overlapping iterations (the previous draw must return first)
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	if !l.guard.TryLock(ctx) {
		return false, ErrFrameOverlap
	}
	defer l.guard.Unlock()
	l.controls.Update()
	l.draw()
	l.frames++
	l.lastDraw = time.Now()
	return true, nil
}

// draw is the draw step of an iteration: the current scene through the current camera.
func (s *Session) draw() {
	s.lastImg = s.surface.Draw(s.scene, s.camera)
}

// Frame runs one render loop iteration, as the host does once per display refresh. It draws nothing until the
// start gate is open and reports whether it drew.
func (s *Session) Frame() (bool, error) {
	return s.loop.iterate()
}
