package storage

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/marbling/internal/dynamo"
)

// FrameWriter encodes frames to numbered PNG files in the background.
type FrameWriter struct {
	dir     string
	scale   int
	release func(*image.RGBA)
	g       errgroup.Group
	written int
}

// NewFrameWriter writes into dir, upscaling by scale (minimum 1) with at
// most workers encodes in flight. release, if non-nil, receives each image
// once it has been encoded.
func NewFrameWriter(dir string, scale, workers int, release func(*image.RGBA)) (*FrameWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if scale < 1 {
		scale = 1
	}
	w := &FrameWriter{dir: dir, scale: scale, release: release}
	w.g.SetLimit(dynamo.Workers(workers))
	return w, nil
}

// Write takes ownership of img until it is released. It blocks while the
// encoder is saturated.
func (w *FrameWriter) Write(index uint64, img *image.RGBA) {
	path := filepath.Join(w.dir, fmt.Sprintf("frame_%06d.png", index))
	w.written++
	w.g.Go(func() error {
		defer func() {
			if w.release != nil {
				w.release(img)
			}
		}()
		return WritePNG(path, img, w.scale)
	})
}

// Close waits for pending encodes and returns the first error.
func (w *FrameWriter) Close() (int, error) {
	return w.written, w.g.Wait()
}

// WritePNG encodes img to path, upscaled by an integer factor.
func WritePNG(path string, img image.Image, scale int) error {
	if scale > 1 {
		img = Upscale(img, scale)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Upscale resamples img to scale times its size.
func Upscale(img image.Image, scale int) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
