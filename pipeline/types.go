// package pipeline implements the PipelineBuilder: turning a resolved
// preset and its compiled passes into a DAG of render targets and
// semantic texture bindings, per spec.md §4.6.
package pipeline

import (
	"github.com/crtweb/slangcore/backend"
	"github.com/crtweb/slangcore/preset"
)

// ColorFormat is a render target's storage format.
type ColorFormat int

const (
	ColorFormatRGBA8 ColorFormat = iota
	ColorFormatRGBA16F
)

// RenderTarget describes one allocatable framebuffer-backed texture. Handle
// fields are left zero until the scheduler realizes the target against a
// gpu.Context; the builder only ever computes dimensions and format.
type RenderTarget struct {
	Width, Height int
	Format        ColorFormat
	FilterLinear  bool
	Mipmap        bool
	Wrap          preset.WrapMode

	TextureHandle     uint32
	FramebufferHandle uint32
}

// BindingSource identifies where a semantic binding's pixels come from.
type BindingSource int

const (
	BindingSourcePreviousPass BindingSource = iota // "Source"
	BindingSourceOriginal                          // "Original"
	BindingSourceAlias                              // "<alias>"
	BindingSourceAliasFeedback                      // "<alias>Feedback"
	BindingSourceHistory                             // "OriginalHistory<k>"
	BindingSourceExternalTexture                     // preset-declared TextureSpec
)

// SemanticBinding is one named sampler input resolved for a pass.
type SemanticBinding struct {
	Name         string
	Source       BindingSource
	PassIndex    int    // valid for BindingSourceAlias/BindingSourcePreviousPass
	HistoryDepth int    // valid for BindingSourceHistory
	TextureName  string // valid for BindingSourceExternalTexture (texture name) and BindingSourceAliasFeedback (alias)
}

// FeedbackPair is the double-buffered pair of targets backing one alias
// sampled as "<alias>Feedback".
type FeedbackPair struct {
	Alias      string
	Current    *RenderTarget
	Previous   *RenderTarget
}

// Pass is one node of the built pipeline: its compiled GLSL, its target,
// and its resolved semantic bindings.
type Pass struct {
	Index    int
	Alias    string
	Compiled *backend.CompiledPass
	Target   *RenderTarget
	Bindings []SemanticBinding
	// RenderToViewport is true for the final pass, which always renders
	// directly to the default framebuffer instead of a RenderTarget.
	RenderToViewport bool
}

// Graph is the fully built pipeline: an ordered pass list plus the
// feedback pairs referenced by any pass's bindings.
type Graph struct {
	Passes    []Pass
	Feedbacks map[string]*FeedbackPair
}
