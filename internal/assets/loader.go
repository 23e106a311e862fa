// Package assets loads models, textures and environment maps from disk. Long loads run on a worker pool
// and are returned as futures, so the caller decides when (and on which goroutine) to attach the results.
package assets

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Yeicor/scene-ui/internal/scene"
	"github.com/cenkalti/backoff/v4"
	"github.com/fogleman/fauxgl"
)

// ErrFormat is returned for unsupported file extensions.
var ErrFormat = errors.New("unsupported asset format")

// Loader runs asset loads in the background.
type Loader struct {
	pool   worker.DynamicWorkerPool
	nextID atomic.Int64
	// Environment map decoding options
	Exposure float64
	MaxWidth int
}

// NewLoader creates a loader with up to workers concurrent loads (NumCPU if <= 0).
// Idle workers exit on their own, so a loader needs no explicit shutdown.
func NewLoader(workers int) *Loader {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Loader{
		pool:     worker.NewDynamicWorkerPool(workers, 64, 1*time.Second),
		Exposure: 1,
		MaxWidth: 1024,
	}
}

// LoadModel reads a mesh in the background. No retries: a failure is only reported through the future.
func (l *Loader) LoadModel(path string, fit bool) *Future[*fauxgl.Mesh] {
	return submit(l, path, func() (*fauxgl.Mesh, error) {
		return ReadModel(path, fit)
	})
}

// LoadEnvironment reads an equirectangular environment map in the background. No retries.
func (l *Loader) LoadEnvironment(path string) *Future[*scene.Texture] {
	exposure, maxWidth := l.Exposure, l.MaxWidth
	return submit(l, path, func() (*scene.Texture, error) {
		return ReadEnvironment(path, exposure, maxWidth)
	})
}

// LoadTexture reads a texture synchronously.
func (l *Loader) LoadTexture(path string) (*scene.Texture, error) {
	return ReadTexture(path)
}

// ReloadModel is LoadModel retrying with exponential backoff, for files that may still be being written.
func (l *Loader) ReloadModel(path string, fit bool) *Future[*fauxgl.Mesh] {
	return submit(l, path, func() (*fauxgl.Mesh, error) {
		return retry(func() (*fauxgl.Mesh, error) { return ReadModel(path, fit) })
	})
}

// ReloadImage decodes a texture or environment map file again, retrying with exponential backoff.
func (l *Loader) ReloadImage(path string, environment bool) *Future[*scene.Texture] {
	exposure, maxWidth := l.Exposure, l.MaxWidth
	return submit(l, path, func() (*scene.Texture, error) {
		return retry(func() (*scene.Texture, error) {
			if environment {
				return ReadEnvironment(path, exposure, maxWidth)
			}
			return ReadTexture(path)
		})
	})
}

func submit[T any](l *Loader, name string, load func() (T, error)) *Future[T] {
	f := NewFuture[T]()
	id := int(l.nextID.Add(1))
	l.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (res any, err error) {
			var v T
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("loading %s panicked: %v", name, r)
				}
				if err != nil {
					log.Println("[Assets] Failed to load", name+":", err)
				}
				f.Resolve(v, err)
			}()
			v, err = load()
			return v, err
		},
	})
	return f
}

func retry[T any](load func() (T, error)) (T, error) {
	var res T
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = 3 * time.Second
	err := backoff.Retry(func() error {
		var err error
		res, err = load()
		if errors.Is(err, ErrFormat) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
	return res, err
}
