// Package pixbuf provides width by height grids of fixed size channel tuples
// with two interchangeable storage layouts.
package pixbuf

import (
	"fmt"
	"image"
	"image/color"
	"slices"
)

// Channel is the element type of a pixel channel.
type Channel interface {
	~uint8 | ~uint16
}

// MaxValue returns the largest value a channel of type T can hold.
func MaxValue[T Channel]() T {
	var zero T
	return ^zero
}

// Buffer is read and written one pixel at a time. Pixel and SetPixel copy
// exactly Channels() values.
type Buffer[T Channel] interface {
	Width() int
	Height() int
	Channels() int
	InBounds(x, y int) bool
	Pixel(x, y int, dst []T) error
	SetPixel(x, y int, src []T) error
	// Raw returns a copy of the content, row-major with interleaved
	// channels.
	Raw() []T
}

// OutOfRangeError reports access to a pixel outside the buffer.
type OutOfRangeError struct {
	X, Y          int
	Width, Height int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("pixel (%d,%d) outside %dx%d buffer", e.X, e.Y, e.Width, e.Height)
}

type dims struct {
	width, height, channels int
}

func (d dims) Width() int    { return d.width }
func (d dims) Height() int   { return d.height }
func (d dims) Channels() int { return d.channels }

func (d dims) InBounds(x, y int) bool {
	return 0 <= x && x < d.width && 0 <= y && y < d.height
}

func (d dims) check(x, y int, n int) error {
	if !d.InBounds(x, y) {
		return &OutOfRangeError{X: x, Y: y, Width: d.width, Height: d.height}
	}
	if n < d.channels {
		return fmt.Errorf("pixel (%d,%d): need %d channels, got %d", x, y, d.channels, n)
	}
	return nil
}

// Flat stores pixels in one row-major slice. The pixel at (x, y) starts at
// Pix[(y*width+x)*channels].
type Flat[T Channel] struct {
	dims
	Pix []T
}

var (
	_ Buffer[uint8] = &Flat[uint8]{}
	_ Buffer[uint8] = &Grid[uint8]{}
)

// NewFlat wraps pix, which must hold width*height*channels values.
func NewFlat[T Channel](pix []T, width, height, channels int) (*Flat[T], error) {
	if width < 0 || height < 0 || channels < 1 {
		return nil, fmt.Errorf("invalid buffer shape %dx%dx%d", width, height, channels)
	}
	if len(pix) != width*height*channels {
		return nil, fmt.Errorf("buffer holds %d values, want %d", len(pix), width*height*channels)
	}
	return &Flat[T]{dims: dims{width, height, channels}, Pix: pix}, nil
}

func (f *Flat[T]) Pixel(x, y int, dst []T) error {
	if err := f.check(x, y, len(dst)); err != nil {
		return err
	}
	i := (y*f.width + x) * f.channels
	copy(dst, f.Pix[i:i+f.channels])
	return nil
}

func (f *Flat[T]) SetPixel(x, y int, src []T) error {
	if err := f.check(x, y, len(src)); err != nil {
		return err
	}
	i := (y*f.width + x) * f.channels
	copy(f.Pix[i:i+f.channels], src)
	return nil
}

func (f *Flat[T]) Raw() []T {
	return slices.Clone(f.Pix)
}

// Grid stores pixels as Pix[x][y][channel].
type Grid[T Channel] struct {
	dims
	Pix [][][]T
}

// NewGrid allocates a zeroed grid.
func NewGrid[T Channel](width, height, channels int) (*Grid[T], error) {
	if width < 0 || height < 0 || channels < 1 {
		return nil, fmt.Errorf("invalid buffer shape %dx%dx%d", width, height, channels)
	}

	backing := make([]T, width*height*channels)
	pix := make([][][]T, width)
	for x := range pix {
		pix[x] = make([][]T, height)
		for y := range pix[x] {
			i := (x*height + y) * channels
			pix[x][y] = backing[i : i+channels : i+channels]
		}
	}
	return &Grid[T]{dims: dims{width, height, channels}, Pix: pix}, nil
}

func (g *Grid[T]) Pixel(x, y int, dst []T) error {
	if err := g.check(x, y, len(dst)); err != nil {
		return err
	}
	copy(dst, g.Pix[x][y])
	return nil
}

func (g *Grid[T]) SetPixel(x, y int, src []T) error {
	if err := g.check(x, y, len(src)); err != nil {
		return err
	}
	copy(g.Pix[x][y], src)
	return nil
}

func (g *Grid[T]) Raw() []T {
	raw := make([]T, 0, g.width*g.height*g.channels)
	for y := range g.height {
		for x := range g.width {
			raw = append(raw, g.Pix[x][y]...)
		}
	}
	return raw
}

// FlatFromImage copies the RGB channels of img into a new flat buffer.
// Alpha is dropped.
func FlatFromImage(img image.Image) *Flat[uint8] {
	b := img.Bounds()
	f, _ := NewFlat(make([]uint8, b.Dx()*b.Dy()*3), b.Dx(), b.Dy(), 3)
	fill(img, f.SetPixel)
	return f
}

// GridFromImage copies the RGB channels of img into a new grid buffer.
func GridFromImage(img image.Image) *Grid[uint8] {
	b := img.Bounds()
	g, _ := NewGrid[uint8](b.Dx(), b.Dy(), 3)
	fill(img, g.SetPixel)
	return g
}

func fill(img image.Image, set func(x, y int, src []uint8) error) {
	b := img.Bounds()
	px := make([]uint8, 3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			px[0], px[1], px[2] = c.R, c.G, c.B
			_ = set(x-b.Min.X, y-b.Min.Y, px)
		}
	}
}

// ToImage renders a three channel 8-bit buffer as an image.
func ToImage(buf Buffer[uint8]) (*image.NRGBA, error) {
	if buf.Channels() != 3 {
		return nil, fmt.Errorf("cannot render %d channel buffer", buf.Channels())
	}

	img := image.NewNRGBA(image.Rect(0, 0, buf.Width(), buf.Height()))
	raw := buf.Raw()
	for i, j := 0, 0; i < len(raw); i, j = i+3, j+4 {
		img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = raw[i], raw[i+1], raw[i+2], 0xff
	}
	return img, nil
}
