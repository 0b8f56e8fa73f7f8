/*
Package catalog holds the palette of game tiles a picture is reduced to.

A catalog is loaded from a text file with one tile per line. Fields are
separated by ':':

	0:4:0:#fddf8f:x:Wooden:Wall

The first field is "0" for a wall and anything else for a block, followed by
the tile id, the paint id, the tile color in hex, an unused field and the two
halves of the tile name. Extra trailing fields are ignored.
*/
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const minFields = 7

// RGB is an opaque 8-bit color. It implements color.Color.
type RGB struct {
	R, G, B uint8
}

func (c RGB) RGBA() (uint32, uint32, uint32, uint32) {
	return uint32(c.R) * 0x101, uint32(c.G) * 0x101, uint32(c.B) * 0x101, 0xffff
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// TileRecord is one placeable tile and the color it is drawn with.
type TileRecord struct {
	ID    uint16
	Wall  bool
	Torch bool
	Paint uint8
	Color RGB
	Name  string
}

// Catalog is an ordered list of tiles. Records are addressed by position.
type Catalog []TileRecord

// Colors returns the record colors in catalog order.
func (c Catalog) Colors() []RGB {
	colors := make([]RGB, len(c))
	for i, rec := range c {
		colors[i] = rec.Color
	}
	return colors
}

// CatalogParseError reports a malformed catalog line. Line is 1-based.
type CatalogParseError struct {
	Line int
	Text string
	Err  error
}

func (e *CatalogParseError) Error() string {
	return fmt.Sprintf("catalog line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *CatalogParseError) Unwrap() error {
	return e.Err
}

// Options tune how records are derived from catalog lines.
type Options struct {
	// TorchIDs lists the tile ids that get a torch attached.
	TorchIDs []uint16
}

// Parse reads a catalog. A single malformed line fails the whole load.
func Parse(r io.Reader, opts Options) (Catalog, error) {
	torches := make(map[uint16]struct{}, len(opts.TorchIDs))
	for _, id := range opts.TorchIDs {
		torches[id] = struct{}{}
	}

	var cat Catalog
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		rec, err := parseLine(text)
		if err != nil {
			return nil, &CatalogParseError{Line: line, Text: text, Err: err}
		}
		_, rec.Torch = torches[rec.ID]
		cat = append(cat, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read catalog: %w", err)
	}

	return cat, nil
}

// Load reads the catalog file at path.
func Load(path string, opts Options) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open catalog %q: %w", path, err)
	}
	defer f.Close()

	cat, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("could not load catalog %q: %w", path, err)
	}
	return cat, nil
}

func parseLine(text string) (TileRecord, error) {
	parts := strings.Split(text, ":")
	if len(parts) < minFields {
		return TileRecord{}, fmt.Errorf("expected at least %d fields, got %d", minFields, len(parts))
	}

	id, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return TileRecord{}, fmt.Errorf("invalid tile id: %w", err)
	}

	paint, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return TileRecord{}, fmt.Errorf("invalid paint id: %w", err)
	}

	c, err := ParseHex(parts[3])
	if err != nil {
		return TileRecord{}, err
	}

	return TileRecord{
		ID:    uint16(id),
		Wall:  parts[0] == "0",
		Paint: uint8(paint),
		Color: c,
		Name:  parts[5] + " " + parts[6],
	}, nil
}

// ParseHex parses "#rrggbb" or "rrggbb".
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q: want 6 hex digits", s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}
