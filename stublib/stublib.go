// package stublib is the StubLibrary: a static registry of canonical
// no-op helper bodies and a constants table, consulted by backend step 11
// (stub injection) only after include expansion, so a stub never masks a
// real definition, per spec.md §4.5.
package stublib

import "fmt"

// Stub is one canonical no-op implementation: a function signature plus a
// single-line body that returns an identity/default value. The body is
// required to be single-line so later deduplication cannot truncate it.
type Stub struct {
	ReturnType string
	Name       string
	Params     string // e.g. "vec2 co" — used verbatim in the emitted signature
	Body       string // e.g. "return 1.0;"
}

// Declaration renders the stub as a single emittable GLSL line.
func (s Stub) Declaration() string {
	return fmt.Sprintf("%s %s(%s) { %s }", s.ReturnType, s.Name, s.Params, s.Body)
}

// registry covers the helper families spec.md §4.5 names: mask queries
// (return 1.0, meaning "fully unmasked"), curvature/coordinate transforms
// (pass-through), color-space transforms (identity pass-through or an
// identity pow), layer queries (return 0.0), and boolean queries (return
// false).
var registry = []Stub{
	// Mask queries — identity mask means "don't attenuate".
	{ReturnType: "float", Name: "GetTubeMaskBrightness", Params: "vec2 co", Body: "return 1.0;"},
	{ReturnType: "float", Name: "GetVignetteMask", Params: "vec2 co", Body: "return 1.0;"},
	{ReturnType: "float", Name: "GetCornerMask", Params: "vec2 co, float radius", Body: "return 1.0;"},
	{ReturnType: "float", Name: "GetBezelMask", Params: "vec2 co", Body: "return 1.0;"},
	{ReturnType: "float", Name: "GetReflectionMask", Params: "vec2 co", Body: "return 1.0;"},

	// Curvature / coordinate transforms — pass the input coordinate through.
	{ReturnType: "vec2", Name: "GetCurvedCoord", Params: "vec2 in_coord", Body: "return in_coord;"},
	{ReturnType: "vec2", Name: "GetScreenCoord", Params: "vec2 in_coord", Body: "return in_coord;"},
	{ReturnType: "vec2", Name: "GetWarpedCoord", Params: "vec2 in_coord", Body: "return in_coord;"},
	{ReturnType: "vec2", Name: "GetOverscanCoord", Params: "vec2 in_coord", Body: "return in_coord;"},

	// Color-space transforms — either pass-through or an identity pow.
	{ReturnType: "vec3", Name: "ApplyGamma", Params: "vec3 color, float gamma", Body: "return pow(color, vec3(1.0));"},
	{ReturnType: "vec3", Name: "ApplyColorGrade", Params: "vec3 color", Body: "return color;"},
	{ReturnType: "vec3", Name: "ApplySaturation", Params: "vec3 color, float amount", Body: "return color;"},
	{ReturnType: "vec3", Name: "ApplyBloom", Params: "vec3 color, float strength", Body: "return color;"},

	// Layer queries — zero means "no contribution from this layer".
	{ReturnType: "float", Name: "GetLayerOpacity", Params: "int layer", Body: "return 0.0;"},
	{ReturnType: "vec4", Name: "SampleGuestLayer", Params: "vec2 co", Body: "return vec4(0.0);"},
	{ReturnType: "vec4", Name: "SampleBezelLayer", Params: "vec2 co", Body: "return vec4(0.0);"},

	// Boolean queries.
	{ReturnType: "bool", Name: "IsCropScreenEnabled", Params: "", Body: "return false;"},
	{ReturnType: "bool", Name: "IsRotatedCore", Params: "", Body: "return false;"},
	{ReturnType: "bool", Name: "ShouldWrapScreen", Params: "", Body: "return false;"},
}

// Lookup returns the canonical stub for name, if the registry carries one.
func Lookup(name string) (Stub, bool) {
	for _, s := range registry {
		if s.Name == name {
			return s, true
		}
	}
	return Stub{}, false
}

// All returns every registered stub, in registry order.
func All() []Stub {
	out := make([]Stub, len(registry))
	copy(out, registry)
	return out
}

// Constants is the fixed table of defaults injected by backend step 10:
// source-matte modes, blend modes, follow-layer enums, default screen
// scale/aspect constants, and math constants, keyed by the identifier they
// define so the backend can skip any already defined by an included header.
func Constants() map[string]string {
	return map[string]string{
		"M_PI": "#define M_PI 3.14159265359",

		"SOURCE_MATTE_NONE":  "#define SOURCE_MATTE_NONE 0",
		"SOURCE_MATTE_BLACK": "#define SOURCE_MATTE_BLACK 1",
		"SOURCE_MATTE_WHITE": "#define SOURCE_MATTE_WHITE 2",

		"BLEND_MODE_NORMAL":   "#define BLEND_MODE_NORMAL 0",
		"BLEND_MODE_MULTIPLY": "#define BLEND_MODE_MULTIPLY 1",
		"BLEND_MODE_SCREEN":   "#define BLEND_MODE_SCREEN 2",
		"BLEND_MODE_ADD":      "#define BLEND_MODE_ADD 3",

		"FOLLOW_LAYER_NONE":       "#define FOLLOW_LAYER_NONE 0",
		"FOLLOW_LAYER_BACKGROUND": "#define FOLLOW_LAYER_BACKGROUND 1",
		"FOLLOW_LAYER_SCREEN":     "#define FOLLOW_LAYER_SCREEN 2",

		"DEFAULT_SCREEN_SCALE": "#define DEFAULT_SCREEN_SCALE 1.0",
		"DEFAULT_ASPECT_RATIO": "#define DEFAULT_ASPECT_RATIO (4.0 / 3.0)",
	}
}
