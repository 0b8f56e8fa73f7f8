// Package source lists the pictures a batch converts: a single photo, the
// photos of a directory or the sampled frames of a video.
package source

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"pixelart/batch"
)

// DirExts are the extensions picked up from a directory.
var DirExts = []string{".jpg", ".png"}

// Decode reads and decodes the picture at path.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}
	return img, nil
}

func fileEntry(path string) batch.Entry {
	return batch.Entry{
		Name: path,
		Load: func() (image.Image, error) {
			return Decode(path)
		},
	}
}

// Photo is a single picture file of any registered format.
type Photo string

func (p Photo) Entries(context.Context) ([]batch.Entry, error) {
	info, err := os.Stat(string(p))
	if err != nil {
		return nil, fmt.Errorf("invalid photo %q: %w", string(p), err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("invalid photo %q: not a regular file", string(p))
	}
	return []batch.Entry{fileEntry(string(p))}, nil
}

// Directory is every .jpg and .png file directly inside a folder, in name
// order. Subdirectories are not visited.
type Directory string

func (d Directory) Entries(context.Context) ([]batch.Entry, error) {
	files, err := os.ReadDir(string(d))
	if err != nil {
		return nil, fmt.Errorf("unable to read folder %q: %w", string(d), err)
	}

	var entries []batch.Entry
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if !slices.Contains(DirExts, strings.ToLower(filepath.Ext(file.Name()))) {
			continue
		}
		entries = append(entries, fileEntry(filepath.Join(string(d), file.Name())))
	}
	return entries, nil
}
