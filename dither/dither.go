// Package dither implements error diffusion over pixbuf buffers.
package dither

import (
	"context"
	"fmt"

	"pixelart/pixbuf"
)

// Offset is one neighbor that receives Weight times the quantization error
// of the current pixel.
type Offset struct {
	DX, DY int
	Weight float64
}

// Kernel is a diffusion pattern. Weights need not sum to one.
type Kernel struct {
	Name    string
	Offsets []Offset
}

// Atkinson spreads 6/8 of the error; the remaining 2/8 is dropped.
var Atkinson = Kernel{
	Name: "atkinson",
	Offsets: []Offset{
		{DX: 1, DY: 0, Weight: 1.0 / 8},
		{DX: 2, DY: 0, Weight: 1.0 / 8},
		{DX: -1, DY: 1, Weight: 1.0 / 8},
		{DX: 0, DY: 1, Weight: 1.0 / 8},
		{DX: 1, DY: 1, Weight: 1.0 / 8},
		{DX: 0, DY: 2, Weight: 1.0 / 8},
	},
}

var FloydSteinberg = Kernel{
	Name: "floyd-steinberg",
	Offsets: []Offset{
		{DX: 1, DY: 0, Weight: 7.0 / 16},
		{DX: -1, DY: 1, Weight: 3.0 / 16},
		{DX: 0, DY: 1, Weight: 5.0 / 16},
		{DX: 1, DY: 1, Weight: 1.0 / 16},
	},
}

var SierraLite = Kernel{
	Name: "sierra-lite",
	Offsets: []Offset{
		{DX: 1, DY: 0, Weight: 2.0 / 4},
		{DX: -1, DY: 1, Weight: 1.0 / 4},
		{DX: 0, DY: 1, Weight: 1.0 / 4},
	},
}

// Kernels lists the available kernels by name.
var Kernels = map[string]Kernel{
	Atkinson.Name:       Atkinson,
	FloydSteinberg.Name: FloydSteinberg,
	SierraLite.Name:     SierraLite,
}

// ReduceFunc maps the channels of one pixel to the reduced color. It may
// reuse dst for its result.
type ReduceFunc[T pixbuf.Channel] func(dst, src []T) []T

// ProcessingError aborts a dithering pass.
type ProcessingError struct {
	X, Y int
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("dithering failed at (%d,%d): %v", e.X, e.Y, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Ditherer reduces a buffer in place, top to bottom and left to right.
type Ditherer[T pixbuf.Channel] struct {
	Kernel Kernel
	Reduce ReduceFunc[T]
}

// Dither runs one pass over buf. The context is checked once per row.
func (d *Ditherer[T]) Dither(ctx context.Context, buf pixbuf.Buffer[T]) error {
	width, height, channels := buf.Width(), buf.Height(), buf.Channels()
	maxValue := float64(pixbuf.MaxValue[T]())

	original := make([]T, channels)
	reduced := make([]T, channels)
	neighbor := make([]T, channels)
	quantError := make([]float64, channels)

	for y := range height {
		if err := ctx.Err(); err != nil {
			return err
		}

		for x := range width {
			if err := buf.Pixel(x, y, original); err != nil {
				return &ProcessingError{X: x, Y: y, Err: err}
			}

			reduced = d.Reduce(reduced, original)
			if len(reduced) != channels {
				return &ProcessingError{X: x, Y: y,
					Err: fmt.Errorf("reduced color has %d channels, buffer has %d", len(reduced), channels)}
			}

			if err := buf.SetPixel(x, y, reduced); err != nil {
				return &ProcessingError{X: x, Y: y, Err: err}
			}

			for i := range channels {
				quantError[i] = float64(original[i]) - float64(reduced[i])
			}

			for _, o := range d.Kernel.Offsets {
				nx, ny := x+o.DX, y+o.DY
				if !buf.InBounds(nx, ny) {
					continue
				}
				if err := buf.Pixel(nx, ny, neighbor); err != nil {
					return &ProcessingError{X: nx, Y: ny, Err: err}
				}
				for i := range channels {
					neighbor[i] = clamp[T](float64(neighbor[i])+quantError[i]*o.Weight, maxValue)
				}
				if err := buf.SetPixel(nx, ny, neighbor); err != nil {
					return &ProcessingError{X: nx, Y: ny, Err: err}
				}
			}
		}
	}

	return nil
}

func clamp[T pixbuf.Channel](v, hi float64) T {
	switch {
	case v < 0:
		return 0
	case v > hi:
		return T(hi)
	}
	return T(v)
}
