// Command slangc is an offline preset-to-pipeline compiler: it resolves a
// .slangp preset, cross-compiles every pass through the Slang-to-GLSL
// pipeline, compiles and links each pass's GLSL against a headless OpenGL
// context to catch driver-level rejections, and reports the result. A pass
// that fails to compile or link is not a fatal error — the same graceful
// degradation the runtime itself performs — it is reported as a demoted
// pass in the diagnostics box.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/crtweb/slangcore/gpu/glctx"
	"github.com/crtweb/slangcore/pipeline"
	"github.com/crtweb/slangcore/session"
)

func main() {
	presetPath := flag.String("preset", "", "path to the root .slangp preset")
	configPath := flag.String("config", "slangc.toml", "path to an optional slangc.toml project file")
	watch := flag.Bool("watch", false, "re-resolve and re-prepare on every source/include change")
	flag.Parse()

	if *presetPath == "" {
		fmt.Fprintln(os.Stderr, "slangc: -preset is required")
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("slangc: loading config", "err", err)
	}

	presetDir := filepath.Dir(*presetPath)
	loader := newFSLoader(presetDir, cfg.IncludeRoots)
	rootName := filepath.Base(*presetPath)

	ctx, err := glctx.New(1, 1, false)
	if err != nil {
		log.Fatal("slangc: opening headless GL context", "err", err)
	}
	defer ctx.Close()

	sess, err := session.Load(ctx, rootName, loader.Load,
		cfg.SourceWidth, cfg.SourceHeight, cfg.ViewportWidth, cfg.ViewportHeight,
		session.WithBuilder(pipeline.NewBuilder(0)))
	if err != nil {
		log.Fatal("slangc: building pipeline", "preset", *presetPath, "err", err)
	}
	defer sess.Close()

	log.Info("slangc: pipeline built", "session", sess.ID(), "preset", *presetPath)
	fmt.Println(renderDiagnostics(*presetPath, sess.Diagnostics()))

	if !*watch {
		return
	}
	runWatch(sess, loader, *presetPath)
}
