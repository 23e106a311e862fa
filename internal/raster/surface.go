// Package raster draws a scene.Scene into an image on the CPU, using fauxgl for rasterization.
package raster

import (
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/Yeicor/scene-ui/internal/scene"
	"github.com/fogleman/fauxgl"
)

// Surface is the drawing target: a color and depth buffer of a fixed size that is reused between frames.
type Surface struct {
	ctx *fauxgl.Context
}

// NewSurface allocates a w x h surface (at least 1x1).
func NewSurface(w, h int) *Surface {
	return &Surface{ctx: fauxgl.NewContext(max(1, w), max(1, h))}
}

// Size returns the current buffer size in pixels.
func (s *Surface) Size() (int, int) {
	return s.ctx.Width, s.ctx.Height
}

// Resize reallocates the buffers if the size changed, reporting whether it did. Non-positive sizes are ignored.
func (s *Surface) Resize(w, h int) bool {
	if w <= 0 || h <= 0 || (w == s.ctx.Width && h == s.ctx.Height) {
		return false
	}
	s.ctx = fauxgl.NewContext(w, h) // Rebuild rendering context only when needed
	return true
}

// Draw renders one frame of sc as seen by cam and returns the color buffer. The image is reused by the next Draw.
func (s *Surface) Draw(sc *scene.Scene, cam *scene.Camera) *image.NRGBA {
	ctx := s.ctx
	ctx.ClearDepthBuffer()
	env := sc.Environment()
	if sc.Background && env != nil {
		drawBackground(ctx.ColorBuffer, cam, env)
	} else {
		ctx.ClearColorBufferWith(sc.BackgroundColor)
	}

	lights := sc.Lights()
	for _, m := range sc.Meshes() {
		if !m.Visible || m.Geometry == nil || m.Material == nil {
			continue
		}
		ctx.Shader = newStandardShader(cam, m, lights, env)
		ctx.Wireframe = m.Material.Wireframe
		ctx.DrawMesh(m.Geometry) // This is already multithread
	}

	camMatrix := cam.Matrix()
	for _, h := range sc.Helpers() {
		if !h.Visible || h.Light == nil {
			continue
		}
		half := fauxgl.V(h.Size, h.Size, h.Size).MulScalar(0.5)
		p := h.Light.WorldPosition()
		c, _ := h.Light.Contribution(p)
		ctx.Shader = fauxgl.NewSolidColorShader(camMatrix, opaque(lightColor(h.Light, c)))
		ctx.Wireframe = true
		ctx.DrawMesh(fauxgl.NewCubeOutlineForBox(fauxgl.Box{Min: p.Sub(half), Max: p.Add(half)}))
	}
	ctx.Wireframe = false
	return ctx.ColorBuffer
}

// lightColor is the hue of a light regardless of its intensity, used to paint its helper.
func lightColor(l scene.Light, fallback fauxgl.Color) fauxgl.Color {
	switch l := l.(type) {
	case *scene.DirectionalLight:
		return l.Color
	case *scene.PointLight:
		return l.Color
	}
	return fallback
}

// drawBackground paints the environment map as seen through the camera, one row per job on all CPUs.
func drawBackground(dst *image.NRGBA, cam *scene.Camera, env *scene.Texture) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	forward := cam.Target.Sub(cam.Position)
	if forward.Length() == 0 {
		forward = fauxgl.Vector{Z: -1}
	}
	forward = forward.Normalize()
	right := forward.Cross(cam.Up)
	if right.Length() == 0 {
		right = fauxgl.Vector{X: 1}
	}
	right = right.Normalize()
	up := right.Cross(forward)
	tanY := math.Tan(cam.Fov * math.Pi / 360)
	tanX := tanY * cam.Aspect

	rows := make(chan int)
	wg := &sync.WaitGroup{}
	for i := 0; i < runtime.NumCPU(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				sy := (1 - 2*(float64(y)+0.5)/float64(h)) * tanY
				for x := 0; x < w; x++ {
					sx := (2*(float64(x)+0.5)/float64(w) - 1) * tanX
					dir := forward.Add(right.MulScalar(sx)).Add(up.MulScalar(sy))
					c := opaque(SampleEquirect(env, dir)).NRGBA()
					i := dst.PixOffset(b.Min.X+x, b.Min.Y+y)
					dst.Pix[i+0], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = c.R, c.G, c.B, c.A
				}
			}
		}()
	}
	for y := 0; y < h; y++ {
		rows <- y
	}
	close(rows)
	wg.Wait()
}
