package catalog_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelart/catalog"
)

const sample = `0:4:0:#fddf8f:x:Wooden:Wall
1:1:2:808080:x:Stone:Block

1:30:0:#ff0000:x:Red:Brick
`

func TestParse(t *testing.T) {
	cat, err := catalog.Parse(strings.NewReader(sample), catalog.Options{TorchIDs: []uint16{30}})
	require.NoError(t, err)

	want := catalog.Catalog{
		{ID: 4, Wall: true, Paint: 0, Color: catalog.RGB{R: 0xfd, G: 0xdf, B: 0x8f}, Name: "Wooden Wall"},
		{ID: 1, Wall: false, Paint: 2, Color: catalog.RGB{R: 0x80, G: 0x80, B: 0x80}, Name: "Stone Block"},
		{ID: 30, Wall: false, Torch: true, Color: catalog.RGB{R: 0xff}, Name: "Red Brick"},
	}
	if diff := cmp.Diff(want, cat); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []catalog.RGB{{R: 0xfd, G: 0xdf, B: 0x8f}, {R: 0x80, G: 0x80, B: 0x80}, {R: 0xff}}, cat.Colors())
}

func TestParseEmpty(t *testing.T) {
	cat, err := catalog.Parse(strings.NewReader("\n\n"), catalog.Options{})
	require.NoError(t, err)
	assert.Empty(t, cat)
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		text string
		line int
	}{
		{"fields", "0:4:0:#ffffff:x:Wooden", 1},
		{"color", "0:4:0:#fffzff:x:Wooden:Wall", 1},
		{"short color", "0:4:0:#fff:x:Wooden:Wall", 1},
		{"id", "0:four:0:#ffffff:x:Wooden:Wall", 1},
		{"id range", "0:70000:0:#ffffff:x:Wooden:Wall", 1},
		{"paint", "0:4:300:#ffffff:x:Wooden:Wall", 1},
		{"second line", "0:4:0:#ffffff:x:Wooden:Wall\n\n0:4", 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cat, err := catalog.Parse(strings.NewReader(tc.text), catalog.Options{})
			assert.Nil(t, cat)

			var perr *catalog.CatalogParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tc.line, perr.Line)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiles.txt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cat, err := catalog.Load(path, catalog.Options{})
	require.NoError(t, err)
	assert.Len(t, cat, 3)

	_, err = catalog.Load(filepath.Join(t.TempDir(), "missing.txt"), catalog.Options{})
	assert.Error(t, err)
}

func TestRGB(t *testing.T) {
	c := catalog.RGB{R: 0x12, G: 0xab, B: 0xff}
	assert.Equal(t, "#12abff", c.String())

	r, g, b, a := c.RGBA()
	assert.Equal(t, []uint32{0x1212, 0xabab, 0xffff, 0xffff}, []uint32{r, g, b, a})

	parsed, err := catalog.ParseHex("12ABFF")
	require.NoError(t, err)
	assert.Equal(t, c, parsed)
}

func TestPALRoundTrip(t *testing.T) {
	cat, err := catalog.Parse(strings.NewReader(sample), catalog.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := catalog.WritePAL(&buf, cat)
	require.NoError(t, err)
	assert.EqualValues(t, buf.Len(), n)
	assert.Equal(t, 8+4+8+4+4*len(cat), buf.Len())
	assert.Equal(t, []byte("RIFF"), buf.Bytes()[:4])
	assert.Equal(t, []byte("PAL data"), buf.Bytes()[8:16])

	colors, err := catalog.ReadPAL(&buf)
	require.NoError(t, err)
	assert.Equal(t, cat.Colors(), colors)
}

func TestReadPALRejectsOtherForms(t *testing.T) {
	doc := []byte("RIFF\x04\x00\x00\x00WAVE")
	_, err := catalog.ReadPAL(bytes.NewReader(doc))
	assert.Error(t, err)
}
