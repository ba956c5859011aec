// package session implements the §6 host API: the Session type that wires
// PresetResolver, PipelineBuilder, ParamStore, and Scheduler together
// behind the six calls a host actually makes (load, set_input,
// set_viewport, set_parameter, render_frame, reload).
package session

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/crtweb/slangcore/gpu"
	"github.com/crtweb/slangcore/paramstore"
	"github.com/crtweb/slangcore/pipeline"
	"github.com/crtweb/slangcore/preset"
	"github.com/crtweb/slangcore/scheduler"
)

// Loader fetches the raw text of a preset, shader, or include file by path.
// Disk/HTTP fetch is an external collaborator per spec.md §1; the host
// supplies this callback and Session never reads the filesystem itself.
type Loader func(path string) (string, error)

// Session is one loaded preset's live runtime: its resolved pipeline, its
// realized GPU resources, and the parameter store the host reads and
// writes between frames.
type Session interface {
	// ID returns this Session's stable identifier, used in every log line
	// so multiple concurrent sessions can be told apart.
	ID() string

	// SetInput supplies the host's current input frame ("Original") and its
	// dimensions, read by pass 0's Source/Original bindings and the
	// OriginalSize/SourceSize uniforms.
	SetInput(handle gpu.TextureHandle, width, height int)

	// SetViewport updates the final pass's render target dimensions. A
	// changed size triggers render target reallocation before the next
	// RenderFrame.
	SetViewport(width, height int)

	// SetParameter applies the host override tier of ParamStore. Persists
	// across RenderFrame calls until changed again.
	SetParameter(name string, value float64)

	// GetParameter resolves name through all three ParamStore tiers.
	GetParameter(name string) (float64, bool)

	// RenderFrame runs the Scheduler for one frame against the current
	// pipeline graph.
	RenderFrame()

	// Reload reruns PresetResolver -> PipelineBuilder -> Scheduler.Prepare
	// against the same root preset path. On failure the previous session
	// state keeps serving frames and the error is returned; a failed reload
	// never leaves Session without a working pipeline.
	Reload() error

	// Diagnostics returns the most recent Prepare's per-pass compile/link
	// failures (each demoted to an identity passthrough), so a host can
	// surface "pass 2 failed to link" without the pipeline dying.
	Diagnostics() []scheduler.PassDiagnostic

	// Close releases every GPU resource the current pipeline graph holds.
	Close()
}

type session struct {
	mu sync.Mutex

	id string

	ctx        gpu.Context
	rootPreset string
	load       Loader
	resolver   preset.Resolver
	builder    pipeline.Builder
	scheduler  scheduler.Scheduler
	paramStore paramstore.Store

	graph       *pipeline.Graph
	diagnostics []scheduler.PassDiagnostic

	inputHandle      gpu.TextureHandle
	inputWidth       int
	inputHeight      int
	viewportWidth    int
	viewportHeight   int
	externalTextures map[string]gpu.TextureHandle
}

// Option configures a Session at Load time.
type Option func(*session)

// WithExternalTextures supplies the already-uploaded handles for every
// preset-declared TextureSpec, keyed by TextureSpec.Name.
func WithExternalTextures(textures map[string]gpu.TextureHandle) Option {
	return func(s *session) { s.externalTextures = textures }
}

// WithBuilder overrides the PipelineBuilder (e.g. a custom worker pool size
// or backend.Options), primarily for tests.
func WithBuilder(b pipeline.Builder) Option {
	return func(s *session) { s.builder = b }
}

// Load resolves rootPresetPath, builds the pipeline against the initial
// input/viewport dimensions, and realizes it against ctx. On error, no
// Session is returned — there is no "previous session" to retain on the
// very first load.
//
// Parameters:
//   - ctx: the gpu.Context the Scheduler will drive every frame
//   - rootPresetPath: the root .slangp path, passed to load
//   - load: fetches preset/shader/include/texture text by path
//   - inputWidth/Height: the host's initial input texture dimensions
//   - viewportWidth/Height: the host's initial canvas dimensions
//
// Returns:
//   - Session: the ready-to-render session
//   - error: a *preset.Error, *frontend.Error, *backend.Error, or
//     *pipeline.Error from the first build
func Load(ctx gpu.Context, rootPresetPath string, load Loader, inputWidth, inputHeight, viewportWidth, viewportHeight int, opts ...Option) (Session, error) {
	s := &session{
		id:             uuid.NewString(),
		ctx:            ctx,
		rootPreset:     rootPresetPath,
		load:           load,
		resolver:       preset.NewResolver(),
		scheduler:      scheduler.NewScheduler(),
		paramStore:     paramstore.NewStore(),
		inputWidth:     inputWidth,
		inputHeight:    inputHeight,
		viewportWidth:  viewportWidth,
		viewportHeight: viewportHeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.builder == nil {
		s.builder = pipeline.NewBuilder(0)
	}

	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *session) ID() string { return s.id }

// build resolves the preset and (re)builds and (re)prepares the pipeline
// graph, releasing any previously held graph once the new one has been
// prepared. Seeds ParamStore
// defaults from every pass's #pragma parameter declarations and reapplies
// the resolved preset's own parameter overrides.
func (s *session) build() error {
	p, err := s.resolver.Resolve(s.rootPreset, preset.Loader(s.load))
	if err != nil {
		return fmt.Errorf("session %s: resolving %q: %w", s.id, s.rootPreset, err)
	}

	graph, err := s.builder.Build(p, pipeline.ShaderLoader(s.load), s.inputWidth, s.inputHeight, s.viewportWidth, s.viewportHeight)
	if err != nil {
		return fmt.Errorf("session %s: building pipeline: %w", s.id, err)
	}

	for _, pass := range graph.Passes {
		for _, def := range pass.Compiled.ParameterDefs {
			s.paramStore.SetDefault(def.ID, def.Default)
		}
	}
	s.paramStore.ClearPresetOverrides()
	for name, value := range p.Parameters {
		s.paramStore.SetPresetOverride(name, value)
	}

	diags := s.scheduler.Prepare(s.ctx, graph)
	for _, d := range diags {
		log.Warn("session: pass demoted to identity passthrough", "session", s.id, "pass", d.PassIndex, "err", d.Err)
	}

	if s.graph != nil {
		s.scheduler.Release(s.ctx, s.graph)
	}
	s.graph = graph
	s.diagnostics = diags
	s.scheduler.ResetFrameCount()
	return nil
}

func (s *session) SetInput(handle gpu.TextureHandle, width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputHandle = handle
	s.inputWidth = width
	s.inputHeight = height
}

func (s *session) SetViewport(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width == s.viewportWidth && height == s.viewportHeight {
		return
	}
	s.viewportWidth = width
	s.viewportHeight = height
	if err := s.build(); err != nil {
		log.Error("session: viewport resize rebuild failed, keeping previous pipeline", "session", s.id, "err", err)
	}
}

func (s *session) SetParameter(name string, value float64) {
	s.paramStore.SetHostOverride(name, value)
}

func (s *session) GetParameter(name string) (float64, bool) {
	return s.paramStore.Get(name)
}

func (s *session) RenderFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := scheduler.FrameInputs{
		Original:       s.inputHandle,
		OriginalWidth:  s.inputWidth,
		OriginalHeight: s.inputHeight,
		FrameDirection: 1,
		ExternalTextures: s.externalTextures,
	}
	s.scheduler.RenderFrame(s.ctx, s.graph, s.paramStore, in, s.viewportWidth, s.viewportHeight)
}

func (s *session) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.build()
}

func (s *session) Diagnostics() []scheduler.PassDiagnostic {
	return s.diagnostics
}

func (s *session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph != nil {
		s.scheduler.Release(s.ctx, s.graph)
		s.graph = nil
	}
}

var _ Session = &session{}
