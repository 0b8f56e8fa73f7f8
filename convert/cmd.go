package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/schollz/progressbar/v3"

	"pixelart/approx"
	"pixelart/batch"
	"pixelart/catalog"
	"pixelart/dither"
	"pixelart/journal"
	"pixelart/source"
)

type Params struct {
	Tiles       string        `help:"Tile catalog file" required:"" type:"existingfile"`
	TorchIDs    []uint16      `help:"Tile ids that get a torch attached" name:"torch-ids"`
	Dest        string        `help:"Destination folder for tile maps" default:"."`
	Pattern     string        `help:"Tile map file name, %d is replaced by the item index. Defaults to photo%d.txt, or frame%d.txt for videos"`
	Concurrency int           `help:"Conversions running at once, 0 for one per CPU" default:"0"`
	Memo        int           `help:"Color memo size of each conversion" default:"1000"`
	Kernel      string        `help:"Error diffusion kernel" enum:"atkinson,floyd-steinberg,sierra-lite" default:"atkinson"`
	Layout      string        `help:"Pixel buffer layout" enum:"flat,grid" default:"flat"`
	Width       int           `help:"Max tile map width, 0 keeps the picture width" group:"resize"`
	Height      int           `help:"Max tile map height, 0 keeps the picture height" group:"resize"`
	Preview     bool          `help:"Also save the dithered picture as PNG next to each tile map" default:"false"`
	Journal     string        `help:"SQLite journal remembering converted items across runs"`
	Timeout     time.Duration `help:"Time limit of a single conversion, 0 for none" default:"0s"`
	Progress    bool          `help:"Show a progress bar" default:"true" negatable:""`
}

func (p *Params) validate() error {
	var err error
	if p.Dest, err = filepath.Abs(p.Dest); err != nil {
		return fmt.Errorf("invalid destination path %q: %w", p.Dest, err)
	}

	switch {
	case p.Width < 0:
		return fmt.Errorf("invalid width: %d", p.Width)
	case p.Height < 0:
		return fmt.Errorf("invalid height: %d", p.Height)
	case p.Concurrency < 0:
		return fmt.Errorf("invalid concurrency: %d", p.Concurrency)
	case p.Timeout < 0:
		return fmt.Errorf("invalid timeout: %s", p.Timeout)
	}

	if p.Pattern != "" && strings.Count(p.Pattern, "%d") != 1 {
		return fmt.Errorf("file name pattern %q needs exactly one %%d", p.Pattern)
	}
	return nil
}

func (p *Params) run(ctx context.Context, logger *slog.Logger, src batch.Source, pattern string) error {
	cat, err := catalog.Load(p.Tiles, catalog.Options{TorchIDs: p.TorchIDs})
	if err != nil {
		return err
	}
	logger.Info("loaded catalog", "tiles", len(cat), "file", p.Tiles)

	idx, err := approx.NewIndex(cat)
	if err != nil {
		return err
	}
	if _, err := idx.Approximater(p.Memo); err != nil {
		return err
	}

	if err := os.MkdirAll(p.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", p.Dest, err)
	}

	if p.Pattern != "" {
		pattern = p.Pattern
	}

	conv := &Converter{
		Index:   idx,
		MaxMemo: p.Memo,
		Kernel:  dither.Kernels[p.Kernel],
		Layout:  Layout(p.Layout),
		Width:   p.Width,
		Height:  p.Height,
		Preview: p.Preview,
		Logger:  logger,
	}

	pipe := &batch.Pipeline{
		Dest:        p.Dest,
		Pattern:     pattern,
		Concurrency: p.Concurrency,
		ItemTimeout: p.Timeout,
		Convert:     conv.Convert,
		Logger:      logger,
	}

	if p.Journal != "" {
		j, err := journal.Open(p.Journal)
		if err != nil {
			return fmt.Errorf("could not open journal %q: %w", p.Journal, err)
		}
		defer j.Close()
		pipe.Journal = j
	}

	if p.Progress {
		var bar *progressbar.ProgressBar
		pipe.OnStart = func(total int) {
			bar = progressbar.Default(int64(total), "converting")
		}
		pipe.OnResult = func(batch.Result) {
			bar.Add(1)
		}
	}

	report, err := pipe.Run(ctx, src)
	if err != nil {
		return err
	}

	if report.Failed > 0 {
		return fmt.Errorf("error converting %d of %d items", report.Failed, len(report.Results))
	}
	return nil
}

type PhotoCmd struct {
	Params
	Path string `arg:"" help:"Photo to convert" type:"existingfile"`
}

func (c *PhotoCmd) Validate(kctx *kong.Context) error {
	return c.validate()
}

func (c *PhotoCmd) Run(ctx context.Context, logger *slog.Logger) error {
	return c.run(ctx, logger.With("photo", c.Path), source.Photo(c.Path), batch.DefaultPattern)
}

type DirCmd struct {
	Params
	Path string `arg:"" help:"Folder of .jpg and .png photos" type:"existingdir"`
}

func (c *DirCmd) Validate(kctx *kong.Context) error {
	return c.validate()
}

func (c *DirCmd) Run(ctx context.Context, logger *slog.Logger) error {
	return c.run(ctx, logger.With("dir", c.Path), source.Directory(c.Path), batch.DefaultPattern)
}

type VideoCmd struct {
	Params
	Path string  `arg:"" help:"Animated GIF to sample" type:"existingfile"`
	FPS  float64 `help:"Frames per second to keep" default:"1"`
}

func (c *VideoCmd) Validate(kctx *kong.Context) error {
	if c.FPS <= 0 {
		return fmt.Errorf("invalid frame rate: %v", c.FPS)
	}
	if ext := strings.ToLower(filepath.Ext(c.Path)); ext != ".gif" {
		return fmt.Errorf("unsupported video container %q: only animated GIF is decoded", ext)
	}
	return c.validate()
}

func (c *VideoCmd) Run(ctx context.Context, logger *slog.Logger) error {
	f, err := os.Open(c.Path)
	if err != nil {
		return fmt.Errorf("could not open video %q: %w", c.Path, err)
	}
	dec, err := source.NewGIFDecoder(f)
	f.Close()
	if err != nil {
		return err
	}

	video := &source.Video{Name: c.Path, Decoder: dec, TargetFPS: c.FPS}
	logger = logger.With("video", c.Path)
	logger.Info("sampling video", "fps", dec.FPS(), "target", c.FPS, "step", video.Step())

	return c.run(ctx, logger, video, "frame%d.txt")
}

// CLICmd groups the conversion commands.
type CLICmd struct {
	Photo PhotoCmd `cmd:"" help:"Convert a single photo"`
	Dir   DirCmd   `cmd:"" help:"Convert every .jpg and .png photo of a folder"`
	Video VideoCmd `cmd:"" help:"Convert frames sampled from an animated GIF"`
}
