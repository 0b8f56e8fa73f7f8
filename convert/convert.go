// Package convert turns pictures into tile maps.
package convert

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"sync"

	"pixelart/approx"
	"pixelart/catalog"
	"pixelart/dither"
	"pixelart/pixbuf"
	"pixelart/tilegrid"
)

// Layout selects the pixel buffer backing used while dithering.
type Layout string

const (
	LayoutFlat Layout = "flat"
	LayoutGrid Layout = "grid"
)

// PreviewExt is appended to the tile map path to name its preview.
const PreviewExt = ".png"

// Converter dithers one picture at a time against a shared catalog index.
// It is safe for concurrent use; every call gets its own memo.
type Converter struct {
	Index   *approx.Index
	MaxMemo int
	Kernel  dither.Kernel
	Layout  Layout
	// Width and Height bound the tile map size; zero is unbounded.
	Width  int
	Height int
	// Preview also stores the dithered picture as a PNG next to the map.
	Preview bool
	Logger  *slog.Logger
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Convert dithers img and writes its tile map to dest.
func (c *Converter) Convert(ctx context.Context, img image.Image, dest string) error {
	grid, buf, err := c.Dither(ctx, img)
	if err != nil {
		return err
	}

	if err := tilegrid.WriteFile(dest, grid); err != nil {
		return fmt.Errorf("could not save tile map: %w", err)
	}
	if !c.Preview {
		return nil
	}

	// A map without its preview would be skipped by the next run.
	preview, err := pixbuf.ToImage(buf)
	if err == nil {
		err = writePreview(dest+PreviewExt, preview)
	}
	if err != nil {
		if rmErr := os.Remove(dest); rmErr != nil {
			c.logger().Warn("could not remove tile map", "dest", dest, "error", rmErr)
		}
		return err
	}
	return nil
}

// Dither reduces img to catalog colors and returns its tile map along with
// the dithered pixels.
func (c *Converter) Dither(ctx context.Context, img image.Image) (*tilegrid.Grid, pixbuf.Buffer[uint8], error) {
	if c.Index == nil {
		return nil, nil, &approx.ConfigurationError{Reason: "no catalog index"}
	}

	img = fit(c.logger(), img, c.Width, c.Height)
	b := img.Bounds()
	if b.Dx() > math.MaxUint16 || b.Dy() > math.MaxUint16 {
		return nil, nil, fmt.Errorf("picture too large for a tile map: %dx%d", b.Dx(), b.Dy())
	}

	a, err := c.Index.Approximater(c.MaxMemo)
	if err != nil {
		return nil, nil, err
	}

	var buf pixbuf.Buffer[uint8]
	switch c.Layout {
	case LayoutGrid:
		buf = pixbuf.GridFromImage(img)
	default:
		buf = pixbuf.FlatFromImage(img)
	}

	kernel := c.Kernel
	if len(kernel.Offsets) == 0 {
		kernel = dither.Atkinson
	}
	d := dither.Ditherer[uint8]{Kernel: kernel, Reduce: reducer(a)}
	if err := d.Dither(ctx, buf); err != nil {
		return nil, nil, fmt.Errorf("could not dither: %w", err)
	}

	grid, err := Records(buf, a)
	if err != nil {
		return nil, nil, err
	}
	return grid, buf, nil
}

func reducer(a *approx.Approximater) dither.ReduceFunc[uint8] {
	return func(dst, src []uint8) []uint8 {
		if len(src) < 3 {
			return dst[:0]
		}
		c := a.Closest(catalog.RGB{R: src[0], G: src[1], B: src[2]})
		return append(dst[:0], c.R, c.G, c.B)
	}
}

// Records looks up the tile of every pixel of a dithered buffer, column by
// column.
func Records(buf pixbuf.Buffer[uint8], a *approx.Approximater) (*tilegrid.Grid, error) {
	grid := tilegrid.New(uint16(buf.Width()), uint16(buf.Height()))
	px := make([]uint8, buf.Channels())
	for x := range buf.Width() {
		for y := range buf.Height() {
			if err := buf.Pixel(x, y, px); err != nil {
				return nil, err
			}
			c := catalog.RGB{R: px[0], G: px[1], B: px[2]}
			rec, ok := a.TileRecord(c)
			if !ok {
				return nil, fmt.Errorf("pixel (%d,%d) color %v is not in the catalog", x, y, c)
			}
			grid.Records = append(grid.Records, tilegrid.Record{
				Wall:  rec.Wall,
				Torch: rec.Torch,
				ID:    rec.ID,
				Paint: rec.Paint,
			})
		}
	}
	return grid, nil
}

func writePreview(path string, img image.Image) error {
	enc := png.Encoder{
		CompressionLevel: png.BestCompression,
		BufferPool:       pngPool,
	}
	if err := tilegrid.WriteAtomic(path, func(w io.Writer) error {
		return enc.Encode(w, img)
	}); err != nil {
		return fmt.Errorf("could not save preview: %w", err)
	}
	return nil
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
