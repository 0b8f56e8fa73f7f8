/*
Package tilegrid implements the binary tile map format read by the game
tooling.

The file starts with three little-endian 16-bit values: a reserved start
offset (always 0 when written by this package), the width and the height.
One 5 byte record follows per pixel, columns first (x outer, y inner): wall
flag, torch flag, 16-bit tile id and paint id. A file is therefore exactly
6 + 5*width*height bytes long.
*/
package tilegrid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	headerSize = 6
	recordSize = 5
)

var (
	errShortHeader = errors.New("tilegrid: not enough data for header")
	errRecordCount = errors.New("tilegrid: record count does not match dimensions")
)

// Record is the tile placed at one pixel.
type Record struct {
	Wall  bool
	Torch bool
	ID    uint16
	Paint uint8
}

// Grid is a decoded tile map.
type Grid struct {
	WidthStart uint16
	Width      uint16
	Height     uint16
	Records    []Record
}

// New returns a grid with room for width*height records.
func New(width, height uint16) *Grid {
	return &Grid{
		Width:   width,
		Height:  height,
		Records: make([]Record, 0, int(width)*int(height)),
	}
}

// Size returns the encoded size of g in bytes.
func (g *Grid) Size() int {
	return headerSize + recordSize*len(g.Records)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// MarshalBinary encodes g. The record count must match the dimensions.
func (g *Grid) MarshalBinary() ([]byte, error) {
	if len(g.Records) != int(g.Width)*int(g.Height) {
		return nil, errRecordCount
	}

	b := make([]byte, 0, g.Size())
	b = binary.LittleEndian.AppendUint16(b, g.WidthStart)
	b = binary.LittleEndian.AppendUint16(b, g.Width)
	b = binary.LittleEndian.AppendUint16(b, g.Height)
	for _, r := range g.Records {
		b = append(b, boolByte(r.Wall), boolByte(r.Torch))
		b = binary.LittleEndian.AppendUint16(b, r.ID)
		b = append(b, r.Paint)
	}
	return b, nil
}

// UnmarshalBinary decodes a tile map. A trailing partial record is ignored.
func (g *Grid) UnmarshalBinary(b []byte) error {
	if len(b) < headerSize {
		return errShortHeader
	}

	g.WidthStart = binary.LittleEndian.Uint16(b[0:])
	g.Width = binary.LittleEndian.Uint16(b[2:])
	g.Height = binary.LittleEndian.Uint16(b[4:])

	g.Records = make([]Record, 0, (len(b)-headerSize)/recordSize)
	for i := headerSize; i+recordSize <= len(b); i += recordSize {
		g.Records = append(g.Records, Record{
			Wall:  b[i] != 0,
			Torch: b[i+1] != 0,
			ID:    binary.LittleEndian.Uint16(b[i+2:]),
			Paint: b[i+4],
		})
	}
	return nil
}

// Encode writes g to w.
func Encode(w io.Writer, g *Grid) error {
	b, err := g.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("could not write tile grid: %w", err)
	}
	return nil
}

// Decode reads a whole tile map from r.
func Decode(r io.Reader) (*Grid, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read tile grid: %w", err)
	}

	g := new(Grid)
	if err := g.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return g, nil
}
