// package glctx implements gpu.Context against a desktop OpenGL 3.3 core
// context opened through GLFW. It is the native stand-in for the browser's
// WebGL2 context: the driver is expected to accept the backend's
// "#version 300 es" shader text directly (true of Mesa, NVIDIA, and ANGLE-
// backed drivers), so no further GLSL rewriting happens here — this package
// only manages GL object lifetimes and issues draw calls.
package glctx

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/crtweb/slangcore/gpu"
)

// Context is the glctx implementation of gpu.Context. It owns a hidden (or
// visible, for the previewer) GLFW window and the GL context bound to it,
// plus the single VAO/VBO pair every pass's fullscreen-quad draw reuses.
type Context struct {
	window *glfw.Window

	quadVAO uint32
	quadVBO uint32

	currentProgram uint32
}

var _ gpu.Context = &Context{}

// quadVertices is two triangles covering clip space, each vertex carrying a
// position (xy) and a texture coordinate (uv) attribute, matching the
// Position/TexCoord attributes every Slang vertex shader declares.
var quadVertices = []float32{
	// x, y, u, v
	-1, -1, 0, 0,
	1, -1, 1, 0,
	1, 1, 1, 1,
	-1, -1, 0, 0,
	1, 1, 1, 1,
	-1, 1, 0, 1,
}

// New creates a GLFW window (hidden unless visible is true) and its OpenGL
// 3.3 core context, then
// initializes the shared fullscreen-quad vertex buffer. Call from the main
// thread after runtime.LockOSThread(), matching the GLFW threading
// requirement the teacher's own window_glfw.go observes.
//
// Parameters:
//   - width, height: initial window size; irrelevant for offscreen
//     rendering but required by glfw.CreateWindow
//   - visible: true for the previewer's on-screen window, false for a
//     headless compile-and-render run
//
// Returns:
//   - *Context: the new context, ready for CreateTexture/CreateProgram/etc.
//   - error: if GLFW or GL initialization failed
func New(width, height int, visible bool) (*Context, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glctx: glfw.Init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	if visible {
		glfw.WindowHint(glfw.Visible, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	win, err := glfw.CreateWindow(width, height, "slangcore", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("glctx: glfw.CreateWindow: %w", err)
	}
	win.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("glctx: gl.Init: %w", err)
	}

	c := &Context{window: win}
	c.initQuad()
	return c, nil
}

func (c *Context) initQuad() {
	gl.GenVertexArrays(1, &c.quadVAO)
	gl.BindVertexArray(c.quadVAO)

	gl.GenBuffers(1, &c.quadVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)

	const stride = 4 * 4 // 4 floats * 4 bytes
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(2*4))
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
}

// Close destroys the window and its GL context. Safe to call once after the
// last frame has been rendered.
func (c *Context) Close() {
	gl.DeleteVertexArrays(1, &c.quadVAO)
	gl.DeleteBuffers(1, &c.quadVBO)
	c.window.Destroy()
	glfw.Terminate()
}

// SwapBuffers presents the visible window's framebuffer. A no-op for
// headless contexts since there is nothing bound to a surface.
func (c *Context) SwapBuffers() {
	c.window.SwapBuffers()
}

// PollEvents pumps GLFW's event queue, required once per frame for a
// visible window to remain responsive.
func (c *Context) PollEvents() {
	glfw.PollEvents()
}

// ShouldClose reports whether the window's close button has been pressed,
// the previewer's cue to exit its frame loop.
func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func glFormat(f gpu.TextureFormat) (internalFormat int32, format, pixelType uint32) {
	switch f {
	case gpu.TextureFormatRGBA16F:
		return gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT
	default:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func glWrap(w gpu.WrapMode) int32 {
	switch w {
	case gpu.WrapModeRepeat:
		return gl.REPEAT
	case gpu.WrapModeMirroredRepeat:
		return gl.MIRRORED_REPEAT
	case gpu.WrapModeClampToBorder:
		return gl.CLAMP_TO_BORDER
	default:
		return gl.CLAMP_TO_EDGE
	}
}

func (c *Context) CreateTexture(spec gpu.TextureSpec) (gpu.TextureHandle, error) {
	var handle uint32
	gl.GenTextures(1, &handle)
	gl.BindTexture(gl.TEXTURE_2D, handle)

	internalFormat, format, pixelType := glFormat(spec.Format)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, int32(spec.Width), int32(spec.Height), 0, format, pixelType, nil)

	filter := int32(gl.NEAREST)
	if spec.FilterLinear {
		filter = gl.LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)

	wrap := glWrap(spec.Wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)

	if spec.Mipmap {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}

	if errCode := gl.GetError(); errCode != gl.NO_ERROR {
		return 0, &gpu.Error{Kind: gpu.ErrorKindResourceExhausted, Detail: fmt.Sprintf("glGetError = 0x%x allocating %dx%d texture", errCode, spec.Width, spec.Height)}
	}
	return gpu.TextureHandle(handle), nil
}

func (c *Context) DeleteTexture(handle gpu.TextureHandle) {
	if handle == 0 {
		return
	}
	h := uint32(handle)
	gl.DeleteTextures(1, &h)
}

func (c *Context) UploadTexture(handle gpu.TextureHandle, width, height int, data []byte) error {
	if len(data) != width*height*4 {
		return &gpu.Error{Kind: gpu.ErrorKindResourceExhausted, Detail: fmt.Sprintf("data length %d does not match %dx%d RGBA8", len(data), width, height)}
	}
	gl.BindTexture(gl.TEXTURE_2D, uint32(handle))
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(data))
	return nil
}

func (c *Context) CreateFramebuffer(color gpu.TextureHandle) (gpu.FramebufferHandle, error) {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(color), 0)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fbo)
		return 0, &gpu.Error{Kind: gpu.ErrorKindFramebufferIncomplete, Detail: fmt.Sprintf("status = 0x%x", status)}
	}
	return gpu.FramebufferHandle(fbo), nil
}

func (c *Context) DeleteFramebuffer(handle gpu.FramebufferHandle) {
	if handle == 0 {
		return
	}
	h := uint32(handle)
	gl.DeleteFramebuffers(1, &h)
}

func compileStage(stage uint32, source string) (uint32, string) {
	shader := gl.CreateShader(stage)
	csource, free := gl.Strs(source + "\x00")
	defer free()
	gl.ShaderSource(shader, 1, csource, nil)
	gl.CompileShader(shader)

	var isCompiled int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &isCompiled)
	if isCompiled == 0 {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, &logLength, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, log
	}
	return shader, ""
}

func (c *Context) CreateProgram(source gpu.ProgramSource) (gpu.ProgramHandle, error) {
	vertHandle, vertLog := compileStage(gl.VERTEX_SHADER, source.VertexGLSL)
	if vertLog != "" {
		return 0, &gpu.Error{Kind: gpu.ErrorKindShaderCompile, Stage: "vertex", Detail: vertLog}
	}
	fragHandle, fragLog := compileStage(gl.FRAGMENT_SHADER, source.FragmentGLSL)
	if fragLog != "" {
		gl.DeleteShader(vertHandle)
		return 0, &gpu.Error{Kind: gpu.ErrorKindShaderCompile, Stage: "fragment", Detail: fragLog}
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertHandle)
	gl.AttachShader(program, fragHandle)
	gl.LinkProgram(program)
	gl.DeleteShader(vertHandle)
	gl.DeleteShader(fragHandle)

	var linked int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &linked)
	if linked == 0 {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, &logLength, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, &gpu.Error{Kind: gpu.ErrorKindProgramLink, Detail: log}
	}
	return gpu.ProgramHandle(program), nil
}

func (c *Context) DeleteProgram(handle gpu.ProgramHandle) {
	if handle == 0 {
		return
	}
	gl.DeleteProgram(uint32(handle))
}

func (c *Context) UseProgram(handle gpu.ProgramHandle) {
	c.currentProgram = uint32(handle)
	gl.UseProgram(c.currentProgram)
}

func (c *Context) BindFramebuffer(handle gpu.FramebufferHandle, width, height int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(handle))
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (c *Context) BindTexture(unit int, handle gpu.TextureHandle) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(handle))
}

// BindSamplerUnit sets a sampler uniform's value to unit via glUniform1i, the
// only legal way to associate a GLSL ES 3.00 sampler2D with a non-default
// texture unit. Binds program current to resolve the uniform location; the
// caller (scheduler) always calls UseProgram again before the next draw.
func (c *Context) BindSamplerUnit(program gpu.ProgramHandle, name string, unit int) {
	gl.UseProgram(uint32(program))
	c.currentProgram = uint32(program)
	gl.Uniform1i(c.uniformLocation(name), int32(unit))
}

func (c *Context) Clear() {
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (c *Context) uniformLocation(name string) int32 {
	return gl.GetUniformLocation(c.currentProgram, gl.Str(name+"\x00"))
}

func (c *Context) SetUniform1f(name string, value float32) {
	gl.Uniform1f(c.uniformLocation(name), value)
}

func (c *Context) SetUniform2f(name string, x, y float32) {
	gl.Uniform2f(c.uniformLocation(name), x, y)
}

func (c *Context) SetUniform4f(name string, x, y, z, w float32) {
	gl.Uniform4f(c.uniformLocation(name), x, y, z, w)
}

func (c *Context) SetUniformMat4(name string, m []float32) {
	gl.UniformMatrix4fv(c.uniformLocation(name), 1, false, &m[0])
}

func (c *Context) DrawFullscreenQuad() {
	gl.BindVertexArray(c.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
}

func (c *Context) Flush() {
	gl.Flush()
}
