package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"pixelart/convert"
	"pixelart/inspect"
)

type cli struct {
	Verbose bool `help:"Log debug messages" short:"v"`

	Convert convert.CLICmd `cmd:"" help:"Turn photos or video frames into tile maps"`
	Inspect inspect.CLICmd `cmd:"" help:"Look at tile maps, palettes and journals"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var conf cli
	kctx := kong.Parse(&conf,
		kong.Name("pixelart"),
		kong.Description("Dither pictures into tile maps for building games."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	level := slog.LevelInfo
	if conf.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Debug("running", "command", kctx.Command())

	if err := kctx.Run(logger); err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
