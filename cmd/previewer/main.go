// Command previewer is a native, on-screen harness for manually verifying a
// preset against a real OpenGL driver: it loads one sample image as the
// "Original" input, drives Session.RenderFrame once per frame, and presents
// the final pass's output in a visible window. It exists for eyeballing
// output during development, not for automated testing.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/crtweb/slangcore/engine/profiler"
	"github.com/crtweb/slangcore/gpu"
	"github.com/crtweb/slangcore/gpu/glctx"
	"github.com/crtweb/slangcore/session"
)

func main() {
	presetPath := flag.String("preset", "", "path to the root .slangp preset")
	inputPath := flag.String("input", "", "path to a PNG/JPEG/BMP sample image to use as the input frame")
	width := flag.Int("width", 1280, "preview window width")
	height := flag.Int("height", 720, "preview window height")
	flag.Parse()

	if *presetPath == "" || *inputPath == "" {
		fmt.Fprintln(os.Stderr, "previewer: -preset and -input are required")
		os.Exit(2)
	}

	staging, err := loadInputImage(*inputPath)
	if err != nil {
		log.Fatal("previewer: loading input image", "err", err)
	}

	ctx, err := glctx.New(*width, *height, true)
	if err != nil {
		log.Fatal("previewer: opening window", "err", err)
	}
	defer ctx.Close()

	inputHandle, err := ctx.CreateTexture(gpu.TextureSpec{
		Width:        int(staging.Width),
		Height:       int(staging.Height),
		Format:       gpu.TextureFormatRGBA8,
		FilterLinear: true,
	})
	if err != nil {
		log.Fatal("previewer: allocating input texture", "err", err)
	}
	if err := ctx.UploadTexture(inputHandle, int(staging.Width), int(staging.Height), staging.Pixels); err != nil {
		log.Fatal("previewer: uploading input texture", "err", err)
	}

	presetDir := filepath.Dir(*presetPath)
	loader := newFSLoader(presetDir)
	rootName := filepath.Base(*presetPath)

	sess, err := session.Load(ctx, rootName, loader.Load,
		int(staging.Width), int(staging.Height), *width, *height)
	if err != nil {
		log.Fatal("previewer: building pipeline", "preset", *presetPath, "err", err)
	}
	defer sess.Close()

	for _, d := range sess.Diagnostics() {
		log.Warn("previewer: pass demoted to identity passthrough", "pass", d.PassIndex, "err", d.Err)
	}

	sess.SetInput(inputHandle, int(staging.Width), int(staging.Height))

	prof := profiler.NewProfiler()
	for !ctx.ShouldClose() {
		ctx.PollEvents()
		sess.RenderFrame()
		ctx.SwapBuffers()
		prof.Tick()
	}
}
