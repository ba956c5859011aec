// package common contains plain data types shared across the preset resolver,
// the Slang-to-GLSL compiler, and the pipeline runtime. They are not
// interface-wrapped; they simply express commonly used data shapes so that
// packages do not need to import each other just to pass a pixel buffer around.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// TextureStagingData holds RGBA8 pixel data for a texture pending GPU upload.
// Used both for preset-declared TextureSpec assets and for the host-supplied
// "Original" source texture in offline preview/test harnesses.
type TextureStagingData struct {
	// Pixels is the raw RGBA byte buffer, 4 bytes per pixel, row-major, no padding.
	Pixels []byte
	// Width is the texture width in pixels.
	Width uint32
	// Height is the texture height in pixels.
	Height uint32
}

// DecodeTextureFile loads a PNG or JPEG file from disk and returns it as
// straight RGBA8 staging data suitable for upload through a gpu.Context.
//
// Parameters:
//   - path: filesystem path to a PNG or JPEG image
//
// Returns:
//   - TextureStagingData: decoded RGBA8 pixels and dimensions
//   - error: error if the file cannot be read or decoded
func DecodeTextureFile(path string) (TextureStagingData, error) {
	f, err := os.Open(path)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("common: open texture file %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("common: decode texture file %q: %w", path, err)
	}
	return decodeImage(img), nil
}

// DecodeTextureBytes decodes an in-memory PNG or JPEG buffer into straight
// RGBA8 staging data.
//
// Parameters:
//   - data: raw encoded image bytes
//
// Returns:
//   - TextureStagingData: decoded RGBA8 pixels and dimensions
//   - error: error if the bytes cannot be decoded
func DecodeTextureBytes(data []byte) (TextureStagingData, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("common: decode texture bytes: %w", err)
	}
	return decodeImage(img), nil
}

func decodeImage(img image.Image) TextureStagingData {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}
}
