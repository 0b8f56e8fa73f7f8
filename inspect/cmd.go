// Package inspect holds the commands that look at tile maps, palettes and
// journals.
package inspect

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"pixelart/catalog"
	"pixelart/journal"
	"pixelart/tilegrid"
)

type GridCmd struct {
	Path string `arg:"" help:"Tile map file" type:"existingfile"`
	Dump bool   `help:"Print every record" default:"false"`
}

func (c *GridCmd) Run(logger *slog.Logger) error {
	g, err := tilegrid.ReadFile(c.Path)
	if err != nil {
		return err
	}

	s := Summarize(g)
	logger.Info("tile map", "file", c.Path, "width", g.Width, "height", g.Height,
		"records", len(g.Records), "walls", s.Walls, "torches", s.Torches, "tiles", len(s.IDs))
	if s.Missing > 0 {
		logger.Warn("tile map is short", "missing", s.Missing)
	}

	if c.Dump {
		return Dump(os.Stdout, g)
	}
	return nil
}

// Summary counts what a tile map is made of.
type Summary struct {
	Walls   int
	Torches int
	// IDs counts records per tile id.
	IDs map[uint16]int
	// Missing is the number of records the header promises but the file
	// lacks.
	Missing int
}

func Summarize(g *tilegrid.Grid) Summary {
	s := Summary{IDs: make(map[uint16]int)}
	for _, r := range g.Records {
		if r.Wall {
			s.Walls++
		}
		if r.Torch {
			s.Torches++
		}
		s.IDs[r.ID]++
	}
	s.Missing = max(0, int(g.Width)*int(g.Height)-len(g.Records))
	return s
}

// Dump prints one line per record with its position.
func Dump(w io.Writer, g *tilegrid.Grid) error {
	for i, r := range g.Records {
		x, y := i, 0
		if g.Height > 0 {
			x, y = i/int(g.Height), i%int(g.Height)
		}
		if _, err := fmt.Fprintf(w, "%d\t%d\twall=%t\ttorch=%t\tid=%d\tpaint=%d\n",
			x, y, r.Wall, r.Torch, r.ID, r.Paint); err != nil {
			return err
		}
	}
	return nil
}

type PalCmd struct {
	Path string `arg:"" help:"RIFF PAL file" type:"existingfile"`
}

func (c *PalCmd) Run(logger *slog.Logger) error {
	f, err := os.Open(c.Path)
	if err != nil {
		return fmt.Errorf("could not open palette %q: %w", c.Path, err)
	}
	defer f.Close()

	colors, err := catalog.ReadPAL(f)
	if err != nil {
		return err
	}

	logger.Info("palette", "file", c.Path, "colors", len(colors))
	for i, col := range colors {
		fmt.Printf("%d\t%s\n", i, col)
	}
	return nil
}

type ExportPalCmd struct {
	Tiles    string   `help:"Tile catalog file" required:"" type:"existingfile"`
	TorchIDs []uint16 `help:"Tile ids that get a torch attached" name:"torch-ids"`
	Out      string   `arg:"" help:"PAL file to write"`
}

func (c *ExportPalCmd) Run(logger *slog.Logger) error {
	cat, err := catalog.Load(c.Tiles, catalog.Options{TorchIDs: c.TorchIDs})
	if err != nil {
		return err
	}

	if err := tilegrid.WriteAtomic(c.Out, func(w io.Writer) error {
		_, err := catalog.WritePAL(w, cat)
		return err
	}); err != nil {
		return err
	}

	logger.Info("exported palette", "file", c.Out, "colors", len(cat))
	return nil
}

type JournalCmd struct {
	Path string `arg:"" help:"Journal database" type:"existingfile"`
}

func (c *JournalCmd) Run(ctx context.Context, logger *slog.Logger) error {
	j, err := journal.Open(c.Path)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Entries(ctx)
	if err != nil {
		return fmt.Errorf("could not list journal %q: %w", c.Path, err)
	}

	for _, e := range entries {
		fmt.Printf("%d\t%s\t%s\t%s\t%s\n", e.Index, e.Status, e.Dest, e.Name, e.Error)
	}
	logger.Info("journal", "file", c.Path, "entries", len(entries))
	return nil
}

// CLICmd groups the inspection commands.
type CLICmd struct {
	Grid      GridCmd      `cmd:"" help:"Describe a tile map"`
	Pal       PalCmd       `cmd:"" help:"List the colors of a PAL file"`
	ExportPal ExportPalCmd `cmd:"" name:"export-pal" help:"Write the catalog colors as a PAL file"`
	Journal   JournalCmd   `cmd:"" help:"List the outcomes recorded in a journal"`
}
