package tilegrid

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CompressedExt marks tile maps stored inside a zstd frame.
const CompressedExt = ".zst"

// WriteFile stores g at path, replacing any existing file. The grid is
// written to a temporary file in the same directory which is renamed over
// path only once it is complete, so path never holds a partial map.
func WriteFile(path string, g *Grid) error {
	b, err := g.MarshalBinary()
	if err != nil {
		return err
	}

	return WriteAtomic(path, func(w io.Writer) error {
		if !strings.HasSuffix(path, CompressedExt) {
			_, err := w.Write(b)
			return err
		}

		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return err
		}
		if _, err := enc.Write(b); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	})
}

// WriteAtomic creates path from the content produced by write using a
// temporary file and a rename.
func WriteAtomic(path string, write func(io.Writer) error) (err error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	outFile, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary destination for %q: %w", path, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination for %q: %w", path, defErr)
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), path); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", path, defErr)
			}
		}
		if !canRename || err != nil {
			os.Remove(outFile.Name())
		}
	}()

	if err = write(outFile); err != nil {
		return fmt.Errorf("could not write destination %q: %w", path, err)
	}
	if err = outFile.Sync(); err != nil {
		return fmt.Errorf("could not flush temporary destination for %q: %w", path, err)
	}

	canRename = true
	return nil
}

// ReadFile loads the tile map at path, decompressing it when the name ends
// in CompressedExt.
func ReadFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open tile grid %q: %w", path, err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, CompressedExt) {
		return Decode(f)
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("could not open compressed tile grid %q: %w", path, err)
	}
	defer dec.Close()

	return Decode(dec)
}
