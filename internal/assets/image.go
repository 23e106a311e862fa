package assets

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"path/filepath"
	"strings"

	"github.com/Yeicor/scene-ui/internal/scene"
	"github.com/mdouchement/hdr"
	_ "github.com/mdouchement/hdr/codec/rgbe"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ReadImage decodes any registered image format, including Radiance .hdr files, from a file or an http(s) URL.
func ReadImage(path string) (image.Image, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: image %s", ErrFormat, filepath.Base(path))
		}
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// ReadTexture loads a UV-mapped texture, named after its file.
func ReadTexture(path string) (*scene.Texture, error) {
	img, err := ReadImage(path)
	if err != nil {
		return nil, err
	}
	t := scene.NewTexture(textureName(path), img)
	t.Path = path
	return t, nil
}

// ReadEnvironment loads an equirectangular environment map. High dynamic range images are tone mapped with
// the given exposure, and anything wider than maxWidth (if > 0) is downscaled.
func ReadEnvironment(path string, exposure float64, maxWidth int) (*scene.Texture, error) {
	img, err := ReadImage(path)
	if err != nil {
		return nil, err
	}
	if h, ok := img.(hdr.Image); ok {
		img = toneMap(h, exposure)
	}
	if b := img.Bounds(); maxWidth > 0 && b.Dx() > maxWidth {
		dst := image.NewNRGBA(image.Rect(0, 0, maxWidth, max(1, b.Dy()*maxWidth/b.Dx())))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
	}
	t := scene.NewTexture(textureName(path), img)
	t.Path = path
	t.Mapping = scene.MappingEquirectangularReflection
	return t, nil
}

func textureName(path string) string {
	base := filepath.Base(path)
	if isRemote(path) {
		base = path[strings.LastIndex(path, "/")+1:]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// toneMap converts linear radiance to display colors (ACES filmic curve, then gamma).
func toneMap(h hdr.Image, exposure float64) *image.NRGBA {
	b := h.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := h.HDRAt(x, y).HDRRGBA()
			i := dst.PixOffset(x-b.Min.X, y-b.Min.Y)
			dst.Pix[i+0] = toneMapChannel(r * exposure)
			dst.Pix[i+1] = toneMapChannel(g * exposure)
			dst.Pix[i+2] = toneMapChannel(bl * exposure)
			dst.Pix[i+3] = 0xff
		}
	}
	return dst
}

func toneMapChannel(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	const a, b, c, d, e = 2.51, 0.03, 2.43, 0.59, 0.14
	v = (v * (a*v + b)) / (v*(c*v+d) + e)
	v = math.Pow(min(v, 1), 1/2.2)
	return uint8(math.Round(v * 255))
}
