package source_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelart/source"
)

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), color.White)
	writePNG(t, filepath.Join(dir, "a.PNG"), color.Black)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.gif"), []byte("GIF89a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))

	entries, err := source.Directory(dir).Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Join(dir, "a.PNG"), entries[0].Name)
	assert.Equal(t, filepath.Join(dir, "b.png"), entries[1].Name)

	img, err := entries[1].Load()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b})
}

func TestDirectoryMissing(t *testing.T) {
	_, err := source.Directory(filepath.Join(t.TempDir(), "missing")).Entries(context.Background())
	assert.Error(t, err)
}

func TestPhoto(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	writePNG(t, path, color.Black)

	entries, err := source.Photo(path).Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	_, err = entries[0].Load()
	assert.NoError(t, err)

	_, err = source.Photo(dir).Entries(context.Background())
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))
	entries, err = source.Photo(bad).Entries(context.Background())
	require.NoError(t, err, "decoding happens on Load")
	_, err = entries[0].Load()
	assert.Error(t, err)
}

type fakeDecoder struct {
	fps    float64
	frames int
	next   int
}

func (d *fakeDecoder) FPS() float64 { return d.fps }

func (d *fakeDecoder) Next() (image.Image, error) {
	if d.next >= d.frames {
		return nil, io.EOF
	}
	d.next++
	return image.NewGray(image.Rect(0, 0, d.next, 1)), nil
}

func TestVideoSampling(t *testing.T) {
	for _, tc := range []struct {
		name   string
		native float64
		target float64
		frames int
		step   int
		kept   []string
	}{
		{"thirty to ten", 30, 10, 7, 3, []string{"clip#0", "clip#3", "clip#6"}},
		{"target above native", 10, 25, 3, 1, []string{"clip#0", "clip#1", "clip#2"}},
		{"uneven", 25, 10, 5, 2, []string{"clip#0", "clip#2", "clip#4"}},
		{"no target", 30, 0, 2, 1, []string{"clip#0", "clip#1"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			v := &source.Video{
				Name:      "clip",
				Decoder:   &fakeDecoder{fps: tc.native, frames: tc.frames},
				TargetFPS: tc.target,
			}
			assert.Equal(t, tc.step, v.Step())

			entries, err := v.Entries(context.Background())
			require.NoError(t, err)

			var names []string
			for _, e := range entries {
				names = append(names, e.Name)
			}
			assert.Equal(t, tc.kept, names)
		})
	}
}

func TestVideoFrameRelease(t *testing.T) {
	v := &source.Video{Name: "clip", Decoder: &fakeDecoder{fps: 10, frames: 2}, TargetFPS: 10}
	entries, err := v.Entries(context.Background())
	require.NoError(t, err)

	img, err := entries[1].Load()
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())

	entries[1].Release()
	_, err = entries[1].Load()
	assert.Error(t, err)
}

func encodeGIF(t *testing.T) []byte {
	t.Helper()
	pal := color.Palette{color.Black, color.White, color.RGBA{R: 0xff, A: 0xff}}

	first := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	second := image.NewPaletted(image.Rect(1, 0, 2, 1), pal)
	second.SetColorIndex(1, 0, 2)

	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, &gif.GIF{
		Image: []*image.Paletted{first, second},
		Delay: []int{5, 5},
		Config: image.Config{
			ColorModel: pal,
			Width:      2,
			Height:     2,
		},
	}))
	return buf.Bytes()
}

func TestGIFDecoder(t *testing.T) {
	dec, err := source.NewGIFDecoder(bytes.NewReader(encodeGIF(t)))
	require.NoError(t, err)
	assert.InDelta(t, 20.0, dec.FPS(), 1e-9)

	first, err := dec.Next()
	require.NoError(t, err)
	second, err := dec.Next()
	require.NoError(t, err)
	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, image.Rect(0, 0, 2, 2), second.Bounds())
	assert.Equal(t, color.RGBA{A: 0xff}, color.RGBAModel.Convert(first.At(1, 0)))
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, color.RGBAModel.Convert(second.At(1, 0)))
	assert.Equal(t, color.RGBA{A: 0xff}, color.RGBAModel.Convert(second.At(0, 1)), "earlier frame shows through")
}

func TestGIFDecoderInvalid(t *testing.T) {
	_, err := source.NewGIFDecoder(bytes.NewReader([]byte("GIF89a")))
	assert.Error(t, err)
}
