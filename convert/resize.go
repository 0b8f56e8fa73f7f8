package convert

import (
	"image"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
)

// fit scales img down so that it fits into width x height while keeping its
// aspect ratio. A zero bound leaves that side unconstrained. Pictures that
// already fit are returned unchanged; they are never enlarged.
func fit(logger *slog.Logger, img image.Image, width, height int) image.Image {
	srcBounds := img.Bounds()
	srcWidth := float64(srcBounds.Dx())
	srcHeight := float64(srcBounds.Dy())

	scale := 1.0
	if width > 0 && srcWidth > float64(width) {
		scale = float64(width) / srcWidth
	}
	if height > 0 && srcHeight*scale > float64(height) {
		scale = float64(height) / srcHeight
	}
	if scale == 1 {
		return img
	}

	destWidth := max(1, int(math.Round(srcWidth*scale)))
	destHeight := max(1, int(math.Round(srcHeight*scale)))

	logger.Debug("resizing", "width", destWidth, "height", destHeight)
	dest := image.NewRGBA(image.Rect(0, 0, destWidth, destHeight))
	draw.CatmullRom.Scale(dest, dest.Bounds(), img, srcBounds, draw.Src, nil)

	return dest
}
