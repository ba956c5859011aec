package scheduler

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/crtweb/slangcore/common"
	"github.com/crtweb/slangcore/gpu"
	"github.com/crtweb/slangcore/paramstore"
	"github.com/crtweb/slangcore/pipeline"
	"github.com/crtweb/slangcore/preset"
)

func wrapModeFrom(w preset.WrapMode) gpu.WrapMode {
	switch w {
	case preset.WrapModeRepeat:
		return gpu.WrapModeRepeat
	case preset.WrapModeMirroredRepeat:
		return gpu.WrapModeMirroredRepeat
	case preset.WrapModeClampToBorder:
		return gpu.WrapModeClampToBorder
	default:
		return gpu.WrapModeClampToEdge
	}
}

// identityVertexGLSL/identityFragmentGLSL are the pre-compiled fallback
// program's sources: a straight Source-to-target copy, used when a real
// pass's program fails to compile or link (spec.md §7/§4.7 "the scheduler
// substitutes a pre-compiled identity program").
const identityVertexGLSL = `#version 300 es
precision highp float;
layout(location=0) in vec4 Position;
layout(location=1) in vec2 TexCoord;
out vec2 vTexCoord;
void main() {
	vTexCoord = TexCoord;
	gl_Position = Position;
}
`

const identityFragmentGLSL = `#version 300 es
precision highp float;
in vec2 vTexCoord;
uniform sampler2D uTex;
out vec4 FragColor;
void main() {
	FragColor = texture(uTex, vTexCoord);
}
`

// Scheduler executes a built pipeline.Graph against a gpu.Context, once per
// frame, per spec.md §4.7. A single Scheduler may drive many successive
// Graphs over its lifetime (one per preset load/reload/resize); Prepare
// realizes a Graph's GPU resources and Release tears them down again.
type Scheduler interface {
	// Prepare compiles every pass's program and allocates every render
	// target and feedback buffer a Graph declares, clearing each to zero.
	// A pass whose program fails to compile/link is demoted to the shared
	// identity passthrough and reported in the returned diagnostics; this
	// never aborts Prepare for the remaining passes.
	Prepare(ctx gpu.Context, graph *pipeline.Graph) []PassDiagnostic

	// Release deletes every GPU resource Prepare allocated for graph:
	// programs, pass targets, and feedback buffers. Call before discarding
	// a Graph on reload or viewport resize.
	Release(ctx gpu.Context, graph *pipeline.Graph)

	// RenderFrame executes one frame: for each pass in declared order,
	// upload uniforms, bind textures per the resolved semantic bindings,
	// bind the pass's target (or the viewport framebuffer for a
	// RenderToViewport pass), and draw the fullscreen quad. After the last
	// pass, every alias with a feedback buffer swaps current/previous.
	RenderFrame(ctx gpu.Context, graph *pipeline.Graph, store paramstore.Store, in FrameInputs, viewportWidth, viewportHeight int)

	// FrameCount returns the monotonically increasing frame counter.
	FrameCount() uint64

	// ResetFrameCount reseeds the frame counter to zero, called on preset
	// change per spec.md §4.7's ordering guarantee.
	ResetFrameCount()
}

type passState struct {
	program      gpu.ProgramHandle
	useIdentity  bool
	compileErr   error
}

type graphState struct {
	passes []passState
}

type scheduler struct {
	frameCount uint64

	identityProgram gpu.ProgramHandle
	identityReady   bool

	historyStub      gpu.TextureHandle
	historyStubReady bool

	states map[*pipeline.Graph]*graphState
}

// NewScheduler creates a Scheduler with no graphs prepared yet.
func NewScheduler() Scheduler {
	return &scheduler{states: make(map[*pipeline.Graph]*graphState)}
}

var _ Scheduler = &scheduler{}

func (s *scheduler) ensureIdentityProgram(ctx gpu.Context) gpu.ProgramHandle {
	if s.identityReady {
		return s.identityProgram
	}
	prog, err := ctx.CreateProgram(gpu.ProgramSource{VertexGLSL: identityVertexGLSL, FragmentGLSL: identityFragmentGLSL})
	if err != nil {
		log.Error("scheduler: identity fallback program failed to compile, this should never happen", "err", err)
		return 0
	}
	s.identityProgram = prog
	s.identityReady = true
	return prog
}

func (s *scheduler) ensureHistoryStub(ctx gpu.Context) gpu.TextureHandle {
	if s.historyStubReady {
		return s.historyStub
	}
	handle, err := ctx.CreateTexture(gpu.TextureSpec{Width: 1, Height: 1, Format: gpu.TextureFormatRGBA8})
	if err != nil {
		log.Error("scheduler: history stub texture allocation failed", "err", err)
		return 0
	}
	if err := ctx.UploadTexture(handle, 1, 1, []byte{0, 0, 0, 0}); err != nil {
		log.Error("scheduler: history stub texture upload failed", "err", err)
	}
	s.historyStub = handle
	s.historyStubReady = true
	return handle
}

func (s *scheduler) Prepare(ctx gpu.Context, graph *pipeline.Graph) []PassDiagnostic {
	var diags []PassDiagnostic
	gs := &graphState{passes: make([]passState, len(graph.Passes))}

	for i := range graph.Passes {
		pass := &graph.Passes[i]
		prog, err := ctx.CreateProgram(gpu.ProgramSource{
			VertexGLSL:   pass.Compiled.VertexGLSL,
			FragmentGLSL: pass.Compiled.FragmentGLSL,
		})
		if err != nil {
			diags = append(diags, PassDiagnostic{PassIndex: pass.Index, Err: err})
			log.Warn("scheduler: pass failed to compile/link, substituting identity passthrough", "pass", pass.Index, "alias", pass.Alias, "err", err)
			gs.passes[i] = passState{program: s.ensureIdentityProgram(ctx), useIdentity: true, compileErr: err}
			continue
		}
		for unit, sb := range pass.Compiled.SamplerBindings {
			ctx.BindSamplerUnit(prog, sb.Name, unit)
		}
		gs.passes[i] = passState{program: prog}
	}

	for i := range graph.Passes {
		pass := &graph.Passes[i]
		if fb, ok := graph.Feedbacks[pass.Alias]; ok {
			s.realizeTarget(ctx, fb.Current)
			s.realizeTarget(ctx, fb.Previous)
			continue
		}
		if pass.RenderToViewport {
			continue
		}
		s.realizeTarget(ctx, pass.Target)
	}

	s.states[graph] = gs
	return diags
}

func (s *scheduler) realizeTarget(ctx gpu.Context, t *pipeline.RenderTarget) {
	if t == nil || t.TextureHandle != 0 {
		return
	}
	format := gpu.TextureFormatRGBA8
	if t.Format == pipeline.ColorFormatRGBA16F {
		format = gpu.TextureFormatRGBA16F
	}
	tex, err := ctx.CreateTexture(gpu.TextureSpec{
		Width: t.Width, Height: t.Height, Format: format,
		FilterLinear: t.FilterLinear, Mipmap: t.Mipmap, Wrap: wrapModeFrom(t.Wrap),
	})
	if err != nil {
		log.Error("scheduler: render target texture allocation failed", "width", t.Width, "height", t.Height, "err", err)
		return
	}
	fbo, err := ctx.CreateFramebuffer(tex)
	if err != nil {
		log.Error("scheduler: render target framebuffer allocation failed", "err", err)
		ctx.DeleteTexture(tex)
		return
	}
	t.TextureHandle = uint32(tex)
	t.FramebufferHandle = uint32(fbo)

	ctx.BindFramebuffer(fbo, t.Width, t.Height)
	ctx.Clear()
}

func (s *scheduler) Release(ctx gpu.Context, graph *pipeline.Graph) {
	gs, ok := s.states[graph]
	if ok {
		for _, ps := range gs.passes {
			if !ps.useIdentity && ps.program != 0 {
				ctx.DeleteProgram(ps.program)
			}
		}
		delete(s.states, graph)
	}

	for i := range graph.Passes {
		pass := &graph.Passes[i]
		if pass.Target != nil {
			s.releaseTarget(ctx, pass.Target)
		}
	}
	for _, fb := range graph.Feedbacks {
		s.releaseTarget(ctx, fb.Current)
		s.releaseTarget(ctx, fb.Previous)
	}
}

func (s *scheduler) releaseTarget(ctx gpu.Context, t *pipeline.RenderTarget) {
	if t.TextureHandle == 0 {
		return
	}
	ctx.DeleteTexture(gpu.TextureHandle(t.TextureHandle))
	ctx.DeleteFramebuffer(gpu.FramebufferHandle(t.FramebufferHandle))
	t.TextureHandle = 0
	t.FramebufferHandle = 0
}

func (s *scheduler) FrameCount() uint64 {
	return s.frameCount
}

func (s *scheduler) ResetFrameCount() {
	s.frameCount = 0
}

// currentTargetFor returns the render target a pass's output is read from
// this frame: a feedback-backed alias's Current buffer, or the pass's own
// fixed target.
func currentTargetFor(graph *pipeline.Graph, passIndex int) *pipeline.RenderTarget {
	pass := &graph.Passes[passIndex]
	if fb, ok := graph.Feedbacks[pass.Alias]; ok {
		return fb.Current
	}
	return pass.Target
}

func (s *scheduler) RenderFrame(ctx gpu.Context, graph *pipeline.Graph, store paramstore.Store, in FrameInputs, viewportWidth, viewportHeight int) {
	gs, ok := s.states[graph]
	if !ok {
		log.Error("scheduler: RenderFrame called before Prepare for this graph")
		return
	}

	identity := make([]float32, 16)
	common.Identity(identity)

	for i := range graph.Passes {
		pass := &graph.Passes[i]
		ps := gs.passes[i]

		ctx.UseProgram(ps.program)

		outW, outH := viewportWidth, viewportHeight
		if pass.Target != nil && !pass.RenderToViewport {
			if t := currentTargetFor(graph, i); t != nil {
				outW, outH = t.Width, t.Height
			}
		}
		srcW, srcH := s.passInputSize(graph, i, in)

		if !ps.useIdentity {
			s.uploadUniforms(ctx, pass, store, in, identity, outW, outH, srcW, srcH)
			s.bindSamplers(ctx, graph, pass, in)
		} else {
			// Identity fallback: bind whatever this pass would have sampled
			// as "Source" (or Original for pass 0) to the one sampler the
			// fallback program declares. The final pass is special-cased
			// per spec.md §4.7: its link failure always falls back to
			// blitting Original, never the second-to-last pass's output.
			srcHandle := in.Original
			if i > 0 && i != len(graph.Passes)-1 {
				if t := currentTargetFor(graph, i-1); t != nil {
					srcHandle = gpu.TextureHandle(t.TextureHandle)
				}
			}
			ctx.BindTexture(0, srcHandle)
		}

		if pass.RenderToViewport {
			ctx.BindFramebuffer(0, viewportWidth, viewportHeight)
		} else if t := currentTargetFor(graph, i); t != nil {
			ctx.BindFramebuffer(gpu.FramebufferHandle(t.FramebufferHandle), t.Width, t.Height)
		}

		ctx.DrawFullscreenQuad()
	}

	for _, fb := range graph.Feedbacks {
		fb.Current, fb.Previous = fb.Previous, fb.Current
	}

	ctx.Flush()
	s.frameCount++
}

// passInputSize returns the dimensions of whatever this pass's "Source"
// binding resolves to: the host's Original texture for pass 0, or the
// previous pass's current target otherwise.
func (s *scheduler) passInputSize(graph *pipeline.Graph, passIndex int, in FrameInputs) (int, int) {
	if passIndex == 0 {
		return in.OriginalWidth, in.OriginalHeight
	}
	if t := currentTargetFor(graph, passIndex-1); t != nil {
		return t.Width, t.Height
	}
	return in.OriginalWidth, in.OriginalHeight
}

func (s *scheduler) uploadUniforms(ctx gpu.Context, pass *pipeline.Pass, store paramstore.Store, in FrameInputs, identity []float32, outW, outH, srcW, srcH int) {
	for _, u := range pass.Compiled.UniformBindings {
		switch u.Name {
		case "MVP":
			ctx.SetUniformMat4("MVP", identity)
		case "OutputSize":
			setSizeUniform(ctx, "OutputSize", outW, outH)
		case "OriginalSize":
			setSizeUniform(ctx, "OriginalSize", in.OriginalWidth, in.OriginalHeight)
		case "SourceSize":
			setSizeUniform(ctx, "SourceSize", srcW, srcH)
		case "FrameDirection":
			ctx.SetUniform1f("FrameDirection", float32(in.FrameDirection))
		case "FrameCount":
			ctx.SetUniform1f("FrameCount", float32(s.frameCount))
		default:
			if v, ok := store.Get(u.Name); ok {
				ctx.SetUniform1f(u.Name, float32(v))
			}
		}
	}
}

func setSizeUniform(ctx gpu.Context, name string, w, h int) {
	if w == 0 || h == 0 {
		ctx.SetUniform4f(name, float32(w), float32(h), 0, 0)
		return
	}
	ctx.SetUniform4f(name, float32(w), float32(h), 1/float32(w), 1/float32(h))
}

func (s *scheduler) bindSamplers(ctx gpu.Context, graph *pipeline.Graph, pass *pipeline.Pass, in FrameInputs) {
	bindingByName := make(map[string]pipeline.SemanticBinding, len(pass.Bindings))
	for _, b := range pass.Bindings {
		bindingByName[b.Name] = b
	}

	for unit, sb := range pass.Compiled.SamplerBindings {
		binding, ok := bindingByName[sb.Name]
		if !ok {
			continue
		}
		ctx.BindTexture(unit, s.resolveBinding(ctx, graph, binding, in))
	}
}

func (s *scheduler) resolveBinding(ctx gpu.Context, graph *pipeline.Graph, binding pipeline.SemanticBinding, in FrameInputs) gpu.TextureHandle {
	switch binding.Source {
	case pipeline.BindingSourceOriginal:
		return in.Original
	case pipeline.BindingSourcePreviousPass, pipeline.BindingSourceAlias:
		if t := currentTargetFor(graph, binding.PassIndex); t != nil {
			return gpu.TextureHandle(t.TextureHandle)
		}
		return 0
	case pipeline.BindingSourceAliasFeedback:
		if fb, ok := graph.Feedbacks[binding.TextureName]; ok && fb.Previous != nil {
			return gpu.TextureHandle(fb.Previous.TextureHandle)
		}
		return 0
	case pipeline.BindingSourceHistory:
		if h, ok := in.History[binding.HistoryDepth]; ok {
			return h
		}
		return s.ensureHistoryStub(ctx)
	case pipeline.BindingSourceExternalTexture:
		return in.ExternalTextures[binding.TextureName]
	default:
		return 0
	}
}

// FormatPassDiagnostic renders a one-line diagnostic for a pass, used by
// hosts that surface Prepare's diagnostics (e.g. cmd/slangc's report).
func FormatPassDiagnostic(d PassDiagnostic) string {
	return fmt.Sprintf("pass %d: %v", d.PassIndex, d.Err)
}
