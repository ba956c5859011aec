package gpu

// Context is the execution backend the Scheduler drives once per frame.
// Every method executes synchronously against whatever GPU context the
// implementation owns; spec.md §5 places no concurrency requirement on this
// boundary since the Scheduler itself is single-threaded and cooperative.
type Context interface {
	// CreateTexture allocates a 2D texture matching spec. Re-allocating at a
	// new size is the caller's responsibility (call DeleteTexture first);
	// Context does not track target lifetimes itself.
	//
	// Parameters:
	//   - spec: the texture's dimensions, format, filter, wrap, and mipmap
	//     settings
	//
	// Returns:
	//   - TextureHandle: the new texture's handle
	//   - error: a *gpu.Error if allocation or upload failed
	CreateTexture(spec TextureSpec) (TextureHandle, error)

	// DeleteTexture releases a texture previously returned by CreateTexture.
	// Deleting the zero handle is a no-op.
	DeleteTexture(handle TextureHandle)

	// UploadTexture replaces a texture's pixel contents with RGBA8 data, e.g.
	// a host-supplied input frame or a preset-declared external texture
	// asset. data must be width*height*4 bytes.
	//
	// Parameters:
	//   - handle: the target texture
	//   - width, height: the source data's dimensions
	//   - data: tightly packed RGBA8 pixel data, row-major, top-to-bottom
	UploadTexture(handle TextureHandle, width, height int, data []byte) error

	// CreateFramebuffer attaches a texture as a framebuffer's sole color
	// attachment, so a later pass can render into it.
	//
	// Parameters:
	//   - color: the texture to attach
	//
	// Returns:
	//   - FramebufferHandle: the new framebuffer's handle
	//   - error: a *gpu.Error{Kind: ErrorKindFramebufferIncomplete} if
	//     attachment validation failed
	CreateFramebuffer(color TextureHandle) (FramebufferHandle, error)

	// DeleteFramebuffer releases a framebuffer previously returned by
	// CreateFramebuffer. Deleting the zero handle is a no-op.
	DeleteFramebuffer(handle FramebufferHandle)

	// CreateProgram compiles and links one pass's vertex and fragment GLSL
	// ES 3.00 sources.
	//
	// Parameters:
	//   - source: the CompiledPass's VertexGLSL/FragmentGLSL pair
	//
	// Returns:
	//   - ProgramHandle: the linked program's handle
	//   - error: a *gpu.Error{Kind: ErrorKindShaderCompile} naming the
	//     failing stage, or {Kind: ErrorKindProgramLink} if linking failed
	//     after both stages compiled
	CreateProgram(source ProgramSource) (ProgramHandle, error)

	// DeleteProgram releases a program previously returned by CreateProgram.
	DeleteProgram(handle ProgramHandle)

	// UseProgram binds a program as the current one for subsequent uniform
	// sets and the next Draw call.
	UseProgram(handle ProgramHandle)

	// BindFramebuffer binds a framebuffer (or the zero handle for the
	// default, on-screen framebuffer) as the current draw target and sets
	// the GL viewport to its full extent.
	BindFramebuffer(handle FramebufferHandle, width, height int)

	// BindTexture binds a texture to a numbered texture unit. The Scheduler
	// uses a sampler's position in CompiledPass.SamplerBindings as the unit,
	// the same unit it passed to BindSamplerUnit.
	BindTexture(unit int, handle TextureHandle)

	// BindSamplerUnit points a linked program's sampler2D uniform at a
	// texture unit. GLSL ES 3.00 has no layout(binding=N) for samplers (that
	// needs ES 3.10+), so every sampler uniform defaults to unit 0 until
	// this is called; the caller must do so once per sampler, after
	// CreateProgram and before any frame binds textures to non-zero units.
	BindSamplerUnit(program ProgramHandle, name string, unit int)

	// Clear clears the currently bound framebuffer's color attachment to
	// transparent black. The Scheduler calls this once per newly (re)sized
	// render target and feedback buffer before the first frame reads it, so
	// a feedback pass's first sample observes zeroed pixels rather than
	// driver-undefined memory.
	Clear()

	// SetUniform1f uploads a single float uniform to the current program,
	// e.g. one #pragma parameter value.
	SetUniform1f(name string, value float32)

	// SetUniform2f uploads a vec2 uniform, e.g. OutputSize/SourceSize's
	// width/height components.
	SetUniform2f(name string, x, y float32)

	// SetUniform4f uploads a vec4 uniform, e.g. a combined
	// SourceSize/OriginalSize packed form some Slang shaders expect.
	SetUniform4f(name string, x, y, z, w float32)

	// SetUniformMat4 uploads a 4x4 matrix uniform (16 elements, column
	// major), e.g. the always-identity MVP (see common.Identity).
	SetUniformMat4(name string, m []float32)

	// DrawFullscreenQuad issues the single draw call every pass makes: two
	// triangles covering clip space, with Position/TexCoord attributes
	// supplied by whatever vertex buffer the Context owns internally.
	DrawFullscreenQuad()

	// Flush ensures all submitted GL commands for the frame have been
	// dispatched, e.g. before a host-requested synchronous readback.
	Flush()
}
