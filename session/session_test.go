package session

import (
	"strings"
	"testing"

	"github.com/crtweb/slangcore/gpu"
)

// fakeContext is a minimal in-memory gpu.Context, enough to exercise
// Session's Load/RenderFrame/Reload/SetViewport wiring without a real GL
// driver.
type fakeContext struct {
	nextHandle uint32
	drawCalls  int
}

func (f *fakeContext) alloc() uint32 { f.nextHandle++; return f.nextHandle }

func (f *fakeContext) CreateTexture(spec gpu.TextureSpec) (gpu.TextureHandle, error) {
	return gpu.TextureHandle(f.alloc()), nil
}
func (f *fakeContext) DeleteTexture(handle gpu.TextureHandle) {}
func (f *fakeContext) UploadTexture(handle gpu.TextureHandle, width, height int, data []byte) error {
	return nil
}
func (f *fakeContext) CreateFramebuffer(color gpu.TextureHandle) (gpu.FramebufferHandle, error) {
	return gpu.FramebufferHandle(f.alloc()), nil
}
func (f *fakeContext) DeleteFramebuffer(handle gpu.FramebufferHandle) {}
func (f *fakeContext) CreateProgram(source gpu.ProgramSource) (gpu.ProgramHandle, error) {
	return gpu.ProgramHandle(f.alloc()), nil
}
func (f *fakeContext) DeleteProgram(handle gpu.ProgramHandle)               {}
func (f *fakeContext) UseProgram(handle gpu.ProgramHandle)                 {}
func (f *fakeContext) BindFramebuffer(handle gpu.FramebufferHandle, w, h int) {}
func (f *fakeContext) BindTexture(unit int, handle gpu.TextureHandle)       {}
func (f *fakeContext) BindSamplerUnit(program gpu.ProgramHandle, name string, unit int) {}
func (f *fakeContext) SetUniform1f(name string, value float32)             {}
func (f *fakeContext) SetUniform2f(name string, x, y float32)              {}
func (f *fakeContext) SetUniform4f(name string, x, y, z, w float32)        {}
func (f *fakeContext) SetUniformMat4(name string, m []float32)             {}
func (f *fakeContext) DrawFullscreenQuad()                                 { f.drawCalls++ }
func (f *fakeContext) Flush()                                              {}
func (f *fakeContext) Clear()                                              {}

var _ gpu.Context = &fakeContext{}

func samplingShader(samplers ...string) string {
	var b strings.Builder
	for i, name := range samplers {
		b.WriteString("layout(set = 0, binding = ")
		b.WriteString(string(rune('0' + i)))
		b.WriteString(") uniform sampler2D ")
		b.WriteString(name)
		b.WriteString(";\n")
	}
	b.WriteString("#pragma parameter HSM_BG_OPACITY \"Background Opacity\" 1.0 0.0 1.0 0.05\n")
	b.WriteString("#pragma stage vertex\nvoid main() { gl_Position = Position; }\n#pragma stage fragment\nvoid main() { FragColor = ")
	for _, name := range samplers {
		b.WriteString("texture(" + name + ", TexCoord) + ")
	}
	b.WriteString("vec4(HSM_BG_OPACITY); }\n")
	return b.String()
}

func loaderFor(files map[string]string) Loader {
	return func(path string) (string, error) {
		src, ok := files[path]
		if !ok {
			return "", &notFoundError{path: path}
		}
		return src, nil
	}
}

type notFoundError struct{ path string }

func (e *notFoundError) Error() string { return "no source for " + e.path }

func testFiles() map[string]string {
	return map[string]string{
		"root.slangp": "shader0 = pass0.slang\nHSM_BG_OPACITY = 0.5\n",
		"pass0.slang": samplingShader("Source"),
	}
}

func TestLoadSeedsParamStoreFromDefaultsAndPresetOverride(t *testing.T) {
	ctx := &fakeContext{}
	s, err := Load(ctx, "root.slangp", loaderFor(testFiles()), 64, 48, 640, 480)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer s.Close()

	v, ok := s.GetParameter("HSM_BG_OPACITY")
	if !ok {
		t.Fatal("expected HSM_BG_OPACITY to resolve")
	}
	if v != 0.5 {
		t.Errorf("HSM_BG_OPACITY = %v, want 0.5 (preset override over 1.0 default)", v)
	}
}

func TestSetParameterOverridesPreset(t *testing.T) {
	ctx := &fakeContext{}
	s, err := Load(ctx, "root.slangp", loaderFor(testFiles()), 64, 48, 640, 480)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer s.Close()

	s.SetParameter("HSM_BG_OPACITY", 0.25)
	v, _ := s.GetParameter("HSM_BG_OPACITY")
	if v != 0.25 {
		t.Errorf("HSM_BG_OPACITY = %v, want 0.25 after host override", v)
	}

	s.RenderFrame()
	v, _ = s.GetParameter("HSM_BG_OPACITY")
	if v != 0.25 {
		t.Errorf("host override should persist across RenderFrame, got %v", v)
	}
}

func TestRenderFrameDraws(t *testing.T) {
	ctx := &fakeContext{}
	s, err := Load(ctx, "root.slangp", loaderFor(testFiles()), 64, 48, 640, 480)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer s.Close()

	s.SetInput(gpu.TextureHandle(1), 64, 48)
	s.RenderFrame()
	if ctx.drawCalls != 1 {
		t.Errorf("expected 1 draw call for a single-pass preset, got %d", ctx.drawCalls)
	}
}

func TestReloadKeepsPreviousSessionOnFailure(t *testing.T) {
	ctx := &fakeContext{}
	files := testFiles()
	s, err := Load(ctx, "root.slangp", loaderFor(files), 64, 48, 640, 480)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer s.Close()

	v, _ := s.GetParameter("HSM_BG_OPACITY")

	delete(files, "pass0.slang")
	if err := s.Reload(); err == nil {
		t.Fatal("expected Reload to fail once pass0.slang is missing")
	}

	s.RenderFrame()
	if ctx.drawCalls != 1 {
		t.Errorf("expected the pipeline from before the failed reload to still render, got %d draw calls", ctx.drawCalls)
	}
	v2, _ := s.GetParameter("HSM_BG_OPACITY")
	if v2 != v {
		t.Errorf("a failed reload should not disturb ParamStore, got %v want %v", v2, v)
	}
}

func TestSetViewportRebuildsPipeline(t *testing.T) {
	ctx := &fakeContext{}
	s, err := Load(ctx, "root.slangp", loaderFor(testFiles()), 64, 48, 640, 480)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer s.Close()

	s.SetViewport(1280, 720)
	s.RenderFrame()
	if ctx.drawCalls != 1 {
		t.Errorf("expected 1 draw call after viewport resize, got %d", ctx.drawCalls)
	}
}
