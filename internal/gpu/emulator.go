package gpu

import (
	"fmt"
	"math"
	"sync"

	"shakalnost/internal/core"
)

type texture struct {
	width, height, channels int
	pix                     []uint8 // top-to-bottom
}

// Emulator renders the displacement fragment program on the CPU. It keeps
// the renderer's conventions: texture coordinates start at the bottom-left
// and Readback returns rows bottom-to-top.
type Emulator struct {
	mu       sync.Mutex
	textures map[Texture]*texture
	next     Texture
}

// NewEmulator creates an empty Emulator.
func NewEmulator() *Emulator {
	return &Emulator{textures: make(map[Texture]*texture)}
}

// UploadTexture implements Accelerator.
func (e *Emulator) UploadTexture(img core.PixelBuffer) (Texture, error) {
	if err := img.Validate(); err != nil {
		return 0, fmt.Errorf("upload texture: %w", err)
	}
	return e.store(&texture{
		width:    img.Width,
		height:   img.Height,
		channels: img.Channels,
		pix:      img.Clone().Pix,
	}), nil
}

func (e *Emulator) store(t *texture) Texture {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next++
	e.textures[e.next] = t
	return e.next
}

func (e *Emulator) lookup(tex Texture) (*texture, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.textures[tex]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTexture, tex)
	}
	return t, nil
}

// RunDisplacement implements Accelerator. The result is a new texture of
// the same size as src.
func (e *Emulator) RunDisplacement(src Texture, amount, seed int) (Texture, error) {
	in, err := e.lookup(src)
	if err != nil {
		return 0, err
	}

	w, h, ch := in.width, in.height, in.channels
	out := &texture{width: w, height: h, channels: ch, pix: make([]uint8, len(in.pix))}

	strength := float64(amount) / 100
	scale := 4 + strength*8
	fseed := float64(seed)

	for y := 0; y < h; y++ {
		v := 1 - (float64(y)+0.5)/float64(h)
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			du := shaderNoise(u*scale, v*scale, fseed) * strength * 0.15
			dv := shaderNoise(u*scale+100, v*scale+100, fseed) * strength * 0.15

			su := clamp01(u + du)
			sv := clamp01(v + dv)
			sx := core.ClampCoord(int(su*float64(w)), w)
			sy := core.ClampCoord(int((1-sv)*float64(h)), h)

			d := (y*w + x) * ch
			s := (sy*w + sx) * ch
			copy(out.pix[d:d+ch], in.pix[s:s+ch])
		}
	}
	return e.store(out), nil
}

// Readback implements Accelerator.
func (e *Emulator) Readback(tex Texture, dst []uint8) error {
	t, err := e.lookup(tex)
	if err != nil {
		return err
	}
	if len(dst) < len(t.pix) {
		return fmt.Errorf("readback buffer holds %d bytes, need %d", len(dst), len(t.pix))
	}
	stride := t.width * t.channels
	for y := 0; y < t.height; y++ {
		copy(dst[y*stride:(y+1)*stride], t.pix[(t.height-1-y)*stride:(t.height-y)*stride])
	}
	return nil
}

// Release implements Accelerator.
func (e *Emulator) Release(tex Texture) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.textures[tex]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, tex)
	}
	delete(e.textures, tex)
	return nil
}

// Live returns the number of textures not yet released.
func (e *Emulator) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.textures)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

func fract(v float64) float64 {
	return v - math.Floor(v)
}

// shaderHash returns a pseudo-random gradient in [-1, 1]^2 for a lattice point.
func shaderHash(px, py, seed float64) (float64, float64) {
	qx := px*(127.1+seed) + py*(311.7+seed)
	qy := px*(269.5+seed) + py*(183.3+seed)
	return -1 + 2*fract(math.Sin(qx)*43758.5453123), -1 + 2*fract(math.Sin(qy)*43758.5453123)
}

// shaderNoise is 2-D gradient noise with smoothstep interpolation.
func shaderNoise(x, y, seed float64) float64 {
	ix, iy := math.Floor(x), math.Floor(y)
	fx, fy := x-ix, y-iy
	ux := fx * fx * (3 - 2*fx)
	uy := fy * fy * (3 - 2*fy)

	corner := func(cx, cy float64) float64 {
		gx, gy := shaderHash(ix+cx, iy+cy, seed)
		return gx*(fx-cx) + gy*(fy-cy)
	}
	bottom := corner(0, 0) + (corner(1, 0)-corner(0, 0))*ux
	top := corner(0, 1) + (corner(1, 1)-corner(0, 1))*ux
	return bottom + (top-bottom)*uy
}
