package frontend

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractMissingVertexStageIsMalformed(t *testing.T) {
	_, err := NewFrontend().Extract("#pragma stage fragment\nvoid main() {}\n")
	if err == nil {
		t.Fatal("expected an error for a shader with no #pragma stage vertex")
	}
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *frontend.Error, got %T: %v", err, err)
	}
	if fe.Kind != ErrorKindMalformed {
		t.Errorf("Kind = %v, want ErrorKindMalformed", fe.Kind)
	}
}

func TestExtractPragmas(t *testing.T) {
	src := strings.Join([]string{
		`#pragma name MyPass`,
		`#pragma format R8G8B8A8_UNORM`,
		`#pragma parameter HSM_BG_OPACITY "Background Opacity" 1.0 0.0 1.0 0.01`,
		`#pragma stage vertex`,
		`void main() { gl_Position = Position; }`,
		`#pragma stage fragment`,
		`void main() { FragColor = vec4(1.0); }`,
	}, "\n")

	got, err := NewFrontend().Extract(src)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if got.Pragmas.Name != "MyPass" {
		t.Errorf("Name = %q, want MyPass", got.Pragmas.Name)
	}
	if got.Pragmas.Format != "R8G8B8A8_UNORM" {
		t.Errorf("Format = %q", got.Pragmas.Format)
	}
	if len(got.Pragmas.Parameters) != 1 {
		t.Fatalf("expected 1 parameter, got %d", len(got.Pragmas.Parameters))
	}
	p := got.Pragmas.Parameters[0]
	if p.ID != "HSM_BG_OPACITY" || p.Label != "Background Opacity" || p.Default != 1.0 || p.Min != 0.0 || p.Max != 1.0 || p.Step != 0.01 {
		t.Errorf("parameter = %+v", p)
	}
	if !strings.Contains(got.VertexBody, "gl_Position") {
		t.Errorf("VertexBody missing expected content: %q", got.VertexBody)
	}
	if !strings.Contains(got.FragmentBody, "FragColor") {
		t.Errorf("FragmentBody missing expected content: %q", got.FragmentBody)
	}
}

func TestExtractBindings(t *testing.T) {
	src := strings.Join([]string{
		`layout(set = 0, binding = 0) uniform sampler2D Source;`,
		`layout(set = 0, binding = 1) uniform UBO {`,
		`    mat4 MVP;`,
		`    float HSM_BG_OPACITY;`,
		`};`,
		`#pragma stage vertex`,
		`void main() {}`,
		`#pragma stage fragment`,
		`void main() {}`,
	}, "\n")

	got, err := NewFrontend().Extract(src)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(got.Bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d: %+v", len(got.Bindings), got.Bindings)
	}
	if got.Bindings[0].Kind != BindingKindSampler2D || got.Bindings[0].Name != "Source" {
		t.Errorf("binding[0] = %+v", got.Bindings[0])
	}
	if got.Bindings[1].Kind != BindingKindUBO {
		t.Errorf("binding[1] = %+v", got.Bindings[1])
	}
	if got.UBO == nil {
		t.Fatal("expected a UBO layout")
	}
	if len(got.UBO.Members) != 2 {
		t.Fatalf("expected 2 UBO members, got %d: %+v", len(got.UBO.Members), got.UBO.Members)
	}
	if got.UBO.Members[0].Name != "MVP" || got.UBO.Members[0].GlslType != "mat4" {
		t.Errorf("UBO member[0] = %+v", got.UBO.Members[0])
	}
	// Binding/UBO lines must be stripped from the prelude.
	if strings.Contains(got.Prelude, "layout(") {
		t.Errorf("expected layout() lines to be stripped from Prelude, got: %q", got.Prelude)
	}
}

func TestExtractGlobalsDefinesConstsAndFunctions(t *testing.T) {
	src := strings.Join([]string{
		`#define TUBE_MASK_SCALE 1.0`,
		`const float PI_OVER_TWO = 1.5707963;`,
		`float square(float x) {`,
		`    return x * x;`,
		`}`,
		`#pragma stage vertex`,
		`void main() {}`,
		`#pragma stage fragment`,
		`void main() {}`,
	}, "\n")

	got, err := NewFrontend().Extract(src)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(got.Globals.Defines) != 1 || got.Globals.Defines[0].Name != "TUBE_MASK_SCALE" {
		t.Errorf("Defines = %+v", got.Globals.Defines)
	}
	if len(got.Globals.Consts) != 1 || got.Globals.Consts[0].Name != "PI_OVER_TWO" {
		t.Errorf("Consts = %+v", got.Globals.Consts)
	}
	if len(got.Globals.Funcs) != 1 {
		t.Fatalf("expected 1 function, got %d", len(got.Globals.Funcs))
	}
	fn := got.Globals.Funcs[0]
	if fn.Name != "square" || fn.SignatureKey() != "square(float)" {
		t.Errorf("func = %+v, SignatureKey = %q", fn, fn.SignatureKey())
	}
	if !strings.Contains(fn.Body, "return x * x;") {
		t.Errorf("func body missing content: %q", fn.Body)
	}
}

func TestExtractUnbalancedFunctionBraces(t *testing.T) {
	src := strings.Join([]string{
		`float broken(float x) {`,
		`    return x;`,
		`#pragma stage vertex`,
		`void main() {}`,
	}, "\n")

	_, err := NewFrontend().Extract(src)
	if err == nil {
		t.Fatal("expected an unbalanced-braces error")
	}
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *frontend.Error, got %T: %v", err, err)
	}
	if fe.Kind != ErrorKindMalformed {
		t.Errorf("Kind = %v, want ErrorKindMalformed", fe.Kind)
	}
}
