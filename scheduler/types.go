// package scheduler implements the Scheduler: per-frame execution of a
// built pipeline.Graph against a gpu.Context, per spec.md §4.7.
package scheduler

import "github.com/crtweb/slangcore/gpu"

// FrameInputs supplies the per-frame values the host controls: the input
// frame texture (Original) and the playback direction RetroArch-style
// presets key rewind effects off of.
type FrameInputs struct {
	// Original is the host-supplied input texture for this frame.
	Original gpu.TextureHandle
	// OriginalWidth/Height are Original's dimensions, used for the
	// SourceSize/OriginalSize uniforms on pass 0.
	OriginalWidth, OriginalHeight int
	// FrameDirection is +1 for forward playback, -1 for rewind.
	FrameDirection int32
	// ExternalTextures supplies the realized handle for every preset-declared
	// TextureSpec a pass samples by name, keyed by TextureSpec.Name.
	ExternalTextures map[string]gpu.TextureHandle
	// History supplies realized OriginalHistory<k> handles, keyed by k, for
	// hosts that keep a ring buffer of prior input frames. A pass sampling
	// OriginalHistory<k> with no entry here falls back to a 1x1 black stub.
	History map[int]gpu.TextureHandle
}

// PassDiagnostic records one pass's program link/compile outcome from the
// most recent Prepare, so a host can surface "pass 2 failed to
// link, running on identity passthrough" without the failure aborting the
// whole pipeline.
type PassDiagnostic struct {
	PassIndex int
	Err       error
}
