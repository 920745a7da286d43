package sim

import (
	"image"
	"sync"
)

// ImagePool recycles frame-sized RGBA buffers for consumers that need a
// frame to outlive the engine's next call to Frame.
type ImagePool struct {
	pool sync.Pool
	rect image.Rectangle
}

func NewImagePool(w, h int) *ImagePool {
	rect := image.Rect(0, 0, w, h)
	return &ImagePool{
		rect: rect,
		pool: sync.Pool{
			New: func() interface{} {
				return image.NewRGBA(rect)
			},
		},
	}
}

func (p *ImagePool) Get() *image.RGBA {
	return p.pool.Get().(*image.RGBA)
}

// Put returns img to the pool. Images of another size are dropped.
func (p *ImagePool) Put(img *image.RGBA) {
	if img != nil && img.Rect == p.rect {
		p.pool.Put(img)
	}
}

func (p *ImagePool) GetAndCopy(src *image.RGBA) *image.RGBA {
	dst := p.Get()
	copy(dst.Pix, src.Pix)
	return dst
}
