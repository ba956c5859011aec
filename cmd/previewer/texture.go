package main

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/crtweb/slangcore/common"
)

// loadInputImage decodes the harness's sample input texture. PNG/JPEG go
// through common.DecodeTextureFile; BMP is decoded here via
// golang.org/x/image/bmp, the format stdlib's image package does not
// register a decoder for, the same way esimov-caire reaches for it
// alongside the stdlib png/jpeg decoders.
func loadInputImage(path string) (common.TextureStagingData, error) {
	if strings.ToLower(filepath.Ext(path)) != ".bmp" {
		return common.DecodeTextureFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("previewer: open %q: %w", path, err)
	}
	defer f.Close()

	img, err := bmp.Decode(f)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("previewer: decode bmp %q: %w", path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return common.TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
