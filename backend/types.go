// package backend implements the GlslBackend: the ordered, contractual
// 15-step transform pipeline that turns SlangFrontend output into two
// standalone GLSL ES 3.00 texts (vertex, fragment) per pass, per spec.md
// §4.4. The backend is pure — the same ExtractedShader always produces the
// same CompiledPass.
package backend

import "github.com/crtweb/slangcore/frontend"

// Options tunes backend behavior for cases spec.md leaves open rather than
// mandates (see spec.md §9 Open Questions).
type Options struct {
	// TextureSizeFallbackWidth/Height replace textureSize(sampler, lod)
	// calls when no size uniform is available. Defaults to 1024x1024 when
	// zero.
	TextureSizeFallbackWidth, TextureSizeFallbackHeight int
	// Alias is threaded straight through to CompiledPass.Alias; the
	// backend itself has no notion of pass aliasing, that's a
	// PipelineBuilder concern.
	Alias string
}

func (o Options) fallbackOrDefault() (int, int) {
	w, h := o.TextureSizeFallbackWidth, o.TextureSizeFallbackHeight
	if w == 0 {
		w = 1024
	}
	if h == 0 {
		h = 1024
	}
	return w, h
}

// UniformBinding is one uniform declared in the emitted GLSL.
type UniformBinding struct {
	Name, GlslType string
}

// SamplerBinding is one sampler2D declared in the emitted GLSL.
type SamplerBinding struct {
	Name      string
	Set, Slot int
}

// CompiledPass is the backend's output for one pass: two standalone GLSL ES
// 3.00 texts plus the metadata the pipeline and scheduler need to wire it
// up — uniform/sampler bindings, the varying pairs introduced by
// cross-stage global conversion, and which #pragma parameters it consumes.
type CompiledPass struct {
	VertexGLSL, FragmentGLSL string
	UniformBindings          []UniformBinding
	SamplerBindings          []SamplerBinding
	Varyings                 []string
	ParametersUsed           []string
	// ParameterDefs carries each consumed parameter's full #pragma
	// parameter declaration (label/default/min/max/step), so a caller can
	// seed paramstore.Store defaults without re-parsing the source.
	ParameterDefs []frontend.ParamDef
	Format        string
	Alias         string
}
