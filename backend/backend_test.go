package backend

import (
	"strings"
	"testing"

	"github.com/crtweb/slangcore/frontend"
)

func compileSource(t *testing.T, src string) *CompiledPass {
	t.Helper()
	shader, err := frontend.NewFrontend().Extract(src)
	if err != nil {
		t.Fatalf("frontend.Extract failed: %v", err)
	}
	pass, err := NewBackend().Compile(shader, Options{})
	if err != nil {
		t.Fatalf("backend.Compile failed: %v", err)
	}
	return pass
}

func TestNoParamsOrGlobalPrefixSurvives(t *testing.T) {
	src := strings.Join([]string{
		`layout(set = 0, binding = 0) uniform UBO {`,
		`    mat4 MVP;`,
		`    float HSM_BG_OPACITY;`,
		`};`,
		`#pragma stage vertex`,
		`void main() { gl_Position = MVP * Position; }`,
		`#pragma stage fragment`,
		`void main() { FragColor = vec4(params.HSM_BG_OPACITY); }`,
	}, "\n")
	pass := compileSource(t, src)
	if strings.Contains(pass.FragmentGLSL, "params.") || strings.Contains(pass.FragmentGLSL, "global.") {
		t.Errorf("prefix survived in fragment GLSL: %s", pass.FragmentGLSL)
	}
	if !strings.Contains(pass.FragmentGLSL, "HSM_BG_OPACITY") {
		t.Errorf("expected HSM_BG_OPACITY to survive rewriting: %s", pass.FragmentGLSL)
	}
}

func TestGlobalToVaryingConversion(t *testing.T) {
	src := strings.Join([]string{
		`float TUBE_MASK;`,
		`#pragma stage vertex`,
		`void main() { TUBE_MASK = 0.8; gl_Position = Position; }`,
		`#pragma stage fragment`,
		`void main() { FragColor = vec4(TUBE_MASK); }`,
	}, "\n")
	pass := compileSource(t, src)
	if !strings.Contains(pass.VertexGLSL, "out float v_TUBE_MASK") {
		t.Errorf("expected vertex GLSL to declare out float v_TUBE_MASK: %s", pass.VertexGLSL)
	}
	if !strings.Contains(pass.FragmentGLSL, "in float v_TUBE_MASK") {
		t.Errorf("expected fragment GLSL to declare in float v_TUBE_MASK: %s", pass.FragmentGLSL)
	}
	if strings.Contains(pass.VertexGLSL, " TUBE_MASK = 0.8") {
		t.Errorf("expected the bare TUBE_MASK assignment (not v_TUBE_MASK) to be gone: %s", pass.VertexGLSL)
	}
	if len(pass.Varyings) != 1 {
		t.Errorf("expected exactly one varying, got %v", pass.Varyings)
	}
}

func TestBoolGlobalToVaryingConvertedToInt(t *testing.T) {
	src := strings.Join([]string{
		`bool IS_CROPPED;`,
		`#pragma stage vertex`,
		`void main() { IS_CROPPED = true; gl_Position = Position; }`,
		`#pragma stage fragment`,
		`void main() { if (IS_CROPPED) { FragColor = vec4(1.0); } else { FragColor = vec4(0.0); } }`,
	}, "\n")
	pass := compileSource(t, src)

	if !strings.Contains(pass.VertexGLSL, "out flat int v_IS_CROPPED") {
		t.Errorf("expected vertex GLSL to declare out flat int v_IS_CROPPED: %s", pass.VertexGLSL)
	}
	if !strings.Contains(pass.FragmentGLSL, "in flat int v_IS_CROPPED") {
		t.Errorf("expected fragment GLSL to declare in flat int v_IS_CROPPED: %s", pass.FragmentGLSL)
	}
	if strings.Contains(pass.VertexGLSL, "bool v_IS_CROPPED") || strings.Contains(pass.FragmentGLSL, "bool v_IS_CROPPED") {
		t.Errorf("bool must never appear as a varying's declared type: vertex=%s fragment=%s", pass.VertexGLSL, pass.FragmentGLSL)
	}
	if !strings.Contains(pass.VertexGLSL, "v_IS_CROPPED = int(true);") {
		t.Errorf("expected the vertex assignment to be coerced to int(true): %s", pass.VertexGLSL)
	}
	if !strings.Contains(pass.FragmentGLSL, "if (bool(v_IS_CROPPED))") {
		t.Errorf("expected the fragment read to be coerced back to bool(): %s", pass.FragmentGLSL)
	}
}

func TestDoWhileRewrite(t *testing.T) {
	src := strings.Join([]string{
		`#pragma stage vertex`,
		`void main() { gl_Position = Position; }`,
		`#pragma stage fragment`,
		`void main() {`,
		`    int i = 0;`,
		`    do { i = i + 1; } while (i < 4);`,
		`    FragColor = vec4(float(i));`,
		`}`,
	}, "\n")
	pass := compileSource(t, src)
	if strings.Contains(pass.FragmentGLSL, "do {") || strings.Contains(pass.FragmentGLSL, "do{") {
		t.Errorf("expected do/while to be rewritten away: %s", pass.FragmentGLSL)
	}
	if !strings.Contains(pass.FragmentGLSL, "while (i < 4)") {
		t.Errorf("expected a while loop to remain after rewrite: %s", pass.FragmentGLSL)
	}
}

func TestFloatIntComparisonCoercion(t *testing.T) {
	src := strings.Join([]string{
		`#pragma parameter HSM_LAYER_ORDER "Layer Order" 0.0 0.0 4.0 1.0`,
		`#pragma stage vertex`,
		`void main() { gl_Position = Position; }`,
		`#pragma stage fragment`,
		`void main() {`,
		`    for (int i = 0; i < 4; ++i) { if (HSM_LAYER_ORDER == i) { FragColor = vec4(1.0); } }`,
		`}`,
	}, "\n")
	pass := compileSource(t, src)
	if !strings.Contains(pass.FragmentGLSL, "int(HSM_LAYER_ORDER) == i") {
		t.Errorf("expected float/int comparison coercion, got: %s", pass.FragmentGLSL)
	}
}

func TestStubInjectionForCalledButUndefinedHelper(t *testing.T) {
	src := strings.Join([]string{
		`#pragma stage vertex`,
		`void main() { gl_Position = Position; }`,
		`#pragma stage fragment`,
		`void main() { FragColor = vec4(GetTubeMaskBrightness(TexCoord)); }`,
	}, "\n")
	pass := compileSource(t, src)
	if !strings.Contains(pass.FragmentGLSL, "float GetTubeMaskBrightness(vec2 co) { return 1.0; }") {
		t.Errorf("expected stub injection for GetTubeMaskBrightness, got: %s", pass.FragmentGLSL)
	}
}

func TestStubNotInjectedWhenRealDefinitionExists(t *testing.T) {
	src := strings.Join([]string{
		`float GetTubeMaskBrightness(vec2 co) {`,
		`    return co.x;`,
		`}`,
		`#pragma stage vertex`,
		`void main() { gl_Position = Position; }`,
		`#pragma stage fragment`,
		`void main() { FragColor = vec4(GetTubeMaskBrightness(TexCoord)); }`,
	}, "\n")
	pass := compileSource(t, src)
	if strings.Contains(pass.FragmentGLSL, "return 1.0;") {
		t.Errorf("expected the real definition to win over the stub, got: %s", pass.FragmentGLSL)
	}
	if !strings.Contains(pass.FragmentGLSL, "return co.x;") {
		t.Errorf("expected the real definition body to survive, got: %s", pass.FragmentGLSL)
	}
}

func TestLayoutQualifierInjection(t *testing.T) {
	src := strings.Join([]string{
		`#pragma stage vertex`,
		`in vec4 Position;`,
		`in vec2 TexCoord;`,
		`void main() { gl_Position = Position; }`,
		`#pragma stage fragment`,
		`void main() { FragColor = vec4(1.0); }`,
	}, "\n")
	pass := compileSource(t, src)
	if !strings.Contains(pass.VertexGLSL, "layout(location=0) in vec4 Position;") {
		t.Errorf("expected Position to get layout(location=0), got: %s", pass.VertexGLSL)
	}
	if !strings.Contains(pass.VertexGLSL, "layout(location=1) in vec2 TexCoord;") {
		t.Errorf("expected TexCoord to get layout(location=1), got: %s", pass.VertexGLSL)
	}
}

func TestFragColorExactlyOnceAndGlFragColorRewritten(t *testing.T) {
	src := strings.Join([]string{
		`#pragma stage vertex`,
		`void main() { gl_Position = Position; }`,
		`#pragma stage fragment`,
		`void main() { gl_FragColor = vec4(1.0); }`,
	}, "\n")
	pass := compileSource(t, src)
	if strings.Contains(pass.FragmentGLSL, "gl_FragColor") {
		t.Errorf("expected gl_FragColor to be rewritten: %s", pass.FragmentGLSL)
	}
	if strings.Count(pass.FragmentGLSL, "out vec4 FragColor;") != 1 {
		t.Errorf("expected exactly one FragColor declaration, got: %s", pass.FragmentGLSL)
	}
}

func TestMissingVertexStageFails(t *testing.T) {
	shader := &frontend.ExtractedShader{}
	_, err := NewBackend().Compile(shader, Options{})
	if err == nil {
		t.Fatal("expected an error for a shader with no vertex stage")
	}
}
