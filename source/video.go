package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"pixelart/batch"
)

// FrameDecoder produces the decoded frames of a video one after the other.
// Next returns io.EOF after the last frame.
type FrameDecoder interface {
	FPS() float64
	Next() (image.Image, error)
}

// Video samples the frames of a decoder down to a target frame rate.
type Video struct {
	Name      string
	Decoder   FrameDecoder
	TargetFPS float64
}

// Step returns how many decoded frames make up one kept frame: every
// Step()-th frame is kept, starting with the first.
func (v *Video) Step() int {
	if v.TargetFPS <= 0 {
		return 1
	}
	return max(1, int(math.Floor(v.Decoder.FPS()/v.TargetFPS)))
}

// Entries decodes the whole video and keeps the sampled frames in memory.
// Each frame is dropped once its item is done.
func (v *Video) Entries(ctx context.Context) ([]batch.Entry, error) {
	step := v.Step()

	var entries []batch.Entry
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := v.Decoder.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		} else if err != nil {
			return nil, fmt.Errorf("could not decode frame %d: %w", n, err)
		}

		if n%step != 0 {
			continue
		}
		entries = append(entries, frameEntry(fmt.Sprintf("%s#%d", v.Name, n), frame))
	}
}

func frameEntry(name string, frame image.Image) batch.Entry {
	return batch.Entry{
		Name: name,
		Load: func() (image.Image, error) {
			if frame == nil {
				return nil, errors.New("frame already released")
			}
			return frame, nil
		},
		Release: func() {
			frame = nil
		},
	}
}
