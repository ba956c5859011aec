// package preset implements the PresetResolver: parsing of .slangp text,
// #reference chain resolution, and pass/texture/parameter merging, per
// spec.md §4.1.
package preset

// ScaleType identifies how a PassSpec's output dimensions are computed.
type ScaleType string

const (
	// ScaleTypeSource scales relative to the pass's input source size.
	ScaleTypeSource ScaleType = "source"
	// ScaleTypeViewport scales relative to the final viewport size.
	ScaleTypeViewport ScaleType = "viewport"
	// ScaleTypeAbsolute specifies literal pixel dimensions.
	ScaleTypeAbsolute ScaleType = "absolute"
)

// WrapMode identifies a texture's edge-sampling behavior.
type WrapMode string

const (
	WrapModeClampToEdge   WrapMode = "clamp_to_edge"
	WrapModeRepeat        WrapMode = "repeat"
	WrapModeMirroredRepeat WrapMode = "mirrored_repeat"
	WrapModeClampToBorder WrapMode = "clamp_to_border"
)

// PassSpec describes one entry in a preset's ordered shader pipeline, merged
// from a "shaderN = path" block and its associated per-index keys.
type PassSpec struct {
	// Index is the pass's position in the ordered pipeline (the N in shaderN).
	Index int
	// ShaderPath is the path to the .slang source, relative to the preset.
	ShaderPath string
	// FilterLinear selects linear (true) vs nearest (false) sampling of this
	// pass's own output when a later pass samples it.
	FilterLinear bool
	// WrapMode is the sampling wrap mode for this pass's output.
	WrapMode WrapMode
	// ScaleTypeX and ScaleTypeY select how Width/Height below are computed.
	ScaleTypeX, ScaleTypeY ScaleType
	// ScaleX and ScaleY are the scale factors (ScaleTypeSource/Viewport) or
	// literal pixel dimensions (ScaleTypeAbsolute).
	ScaleX, ScaleY float64
	// Alias is the optional name later passes use to sample this pass's output.
	Alias string
	// SrgbFramebuffer requests sRGB-aware storage for this pass's target.
	SrgbFramebuffer bool
	// FloatFramebuffer requests RGBA16F storage instead of RGBA8.
	FloatFramebuffer bool
	// MipmapInput requests mipmap generation on this pass's output before a
	// later pass samples it.
	MipmapInput bool
}

// TextureSpec describes one preset-declared external texture asset.
type TextureSpec struct {
	// Name is the identifier later shaders bind this texture by.
	Name string
	// Path is the texture asset's path, relative to the preset.
	Path string
	// Wrap is the sampling wrap mode.
	Wrap WrapMode
	// Linear selects linear (true) vs nearest (false) filtering.
	Linear bool
	// Mipmap requests mipmap generation for this texture.
	Mipmap bool
}

// Preset is the fully merged, reference-chain-resolved result of Resolve.
type Preset struct {
	// Passes is the ordered pipeline of shader passes. Pass lists replace
	// entirely across a #reference chain; this is always the child's own
	// shaderN block if the child declares one, otherwise the nearest
	// ancestor's, with the per-pass keys (filter_linearN, scaleN, ...) of
	// every later file that declares no shaderN applied on top.
	Passes []PassSpec
	// Textures is the merged set of external texture declarations, keyed by
	// name. Texture declarations merge key-wise across a #reference chain.
	Textures map[string]TextureSpec
	// Parameters is the merged map of parameter_name -> float override value.
	// Parameters merge key-wise; child overrides win over ancestors.
	Parameters map[string]float64
}
