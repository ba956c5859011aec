// package gpu defines the execution-backend abstraction the Scheduler draws
// against: render target allocation, program/shader upload, and the draw
// call for one fullscreen-quad pass. It mirrors the teacher's
// shader.Shader/pipeline.Pipeline split between a backend-neutral interface
// and its concrete WebGPU (here: desktop OpenGL ES-class, see gpu/glctx)
// implementation, so the rest of the module never imports an OpenGL binding
// directly.
package gpu

// TextureHandle, FramebufferHandle, and ProgramHandle identify GPU-side
// resources. The zero value always means "not yet allocated" — matching
// pipeline.RenderTarget's zero-valued handle fields before the Scheduler
// realizes them.
type TextureHandle uint32
type FramebufferHandle uint32
type ProgramHandle uint32

// TextureFormat is a texture's storage format.
type TextureFormat int

const (
	TextureFormatRGBA8 TextureFormat = iota
	TextureFormatRGBA16F
)

// WrapMode is a texture's edge-sampling behavior.
type WrapMode int

const (
	WrapModeClampToEdge WrapMode = iota
	WrapModeRepeat
	WrapModeMirroredRepeat
	WrapModeClampToBorder
)

// TextureSpec describes one texture to allocate.
type TextureSpec struct {
	Width, Height int
	Format        TextureFormat
	FilterLinear  bool
	Mipmap        bool
	Wrap          WrapMode
}

// ProgramSource is the pair of standalone GLSL ES 3.00 sources a CompiledPass
// produces, ready for shader compilation and linking.
type ProgramSource struct {
	VertexGLSL, FragmentGLSL string
}
