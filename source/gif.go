package source

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"
)

// defaultGIFFPS is assumed for animations without frame delays.
const defaultGIFFPS = 10

// GIFDecoder turns an animated GIF into full frames.
type GIFDecoder struct {
	g      *gif.GIF
	canvas *image.RGBA
	next   int
}

var _ FrameDecoder = &GIFDecoder{}

// NewGIFDecoder reads the whole animation from r.
func NewGIFDecoder(r io.Reader) (*GIFDecoder, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode GIF: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("GIF has no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}

	return &GIFDecoder{
		g:      g,
		canvas: image.NewRGBA(bounds),
	}, nil
}

// FPS derives the frame rate from the mean frame delay.
func (d *GIFDecoder) FPS() float64 {
	total := 0
	for _, delay := range d.g.Delay {
		total += delay
	}
	if total == 0 {
		return defaultGIFFPS
	}
	// Delays are in hundredths of a second.
	return 100 * float64(len(d.g.Delay)) / float64(total)
}

// Next composes the next frame onto the canvas and returns a copy of it.
func (d *GIFDecoder) Next() (image.Image, error) {
	if d.next >= len(d.g.Image) {
		return nil, io.EOF
	}

	i := d.next
	d.next++

	frame := d.g.Image[i]
	var previous *image.RGBA
	disposal := byte(0)
	if i < len(d.g.Disposal) {
		disposal = d.g.Disposal[i]
	}
	if disposal == gif.DisposalPrevious {
		previous = cloneRGBA(d.canvas)
	}

	draw.Draw(d.canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
	out := cloneRGBA(d.canvas)

	switch disposal {
	case gif.DisposalBackground:
		draw.Draw(d.canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		d.canvas = previous
	}

	return out, nil
}

func cloneRGBA(m *image.RGBA) *image.RGBA {
	dup := image.NewRGBA(m.Rect)
	copy(dup.Pix, m.Pix)
	return dup
}
