package ui

import (
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
)

// sessionEbitenGame hides the private ebiten implementation while behaving like a *Session internally
type sessionEbitenGame struct {
	*Session
	frame *ebiten.Image // Upload target for the rendered frame (recreated on resize)
	stop  <-chan os.Signal
}

// Update is the host scheduler step that runs between render loop iterations: asset completions, hot reloads,
// remote panel edits and user input are all applied here, so the next Draw sees them.
func (g *sessionEbitenGame) Update() error {
	select {
	case sig := <-g.stop:
		log.Println("[Session] Received", sig, "- exiting")
		return ebiten.Termination
	default:
	}
	g.pollAssets()
	g.pollReloads()
	g.ApplyRemote()
	g.onUpdateInputs()
	return nil
}

func (g *sessionEbitenGame) Draw(screen *ebiten.Image) {
	drawn, err := g.loop.iterate()
	if err != nil {
		log.Println("[Session] Skipped frame:", err)
	}
	if drawn {
		g.present(screen)
	}
	g.drawUI(screen)
}

func (g *sessionEbitenGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight // Use all available pixels, no re-scaling
}

// present uploads the last rendered frame to the screen.
func (g *sessionEbitenGame) present(screen *ebiten.Image) {
	img := g.lastImg
	if img == nil {
		return
	}
	b := img.Bounds()
	if g.frame == nil || g.frame.Bounds().Dx() != b.Dx() || g.frame.Bounds().Dy() != b.Dy() {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(b.Dx(), b.Dy())
	}
	g.frame.WritePixels(img.Pix) // NRGBA: ebiten expects premultiplied alpha, but frames are always opaque
	op := &ebiten.DrawImageOptions{}
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	op.GeoM.Scale(float64(sw)/float64(b.Dx()), float64(sh)/float64(b.Dy()))
	screen.DrawImage(g.frame, op)
}
