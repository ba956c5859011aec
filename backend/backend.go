package backend

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/crtweb/slangcore/frontend"
	"github.com/crtweb/slangcore/stublib"
)

// Backend emits WebGL2 GLSL ES 3.00 from SlangFrontend output.
type Backend interface {
	// Compile runs the full ordered transform pipeline against shader and
	// returns a standalone vertex/fragment GLSL ES 3.00 pair.
	Compile(shader *frontend.ExtractedShader, opts Options) (*CompiledPass, error)
}

type backend struct{}

// NewBackend creates a new GlslBackend.
func NewBackend() Backend {
	return &backend{}
}

var _ Backend = &backend{}

// state threads the pipeline's mutable working copy of a pass through each
// of the fifteen ordered transform steps.
type state struct {
	opts Options

	preludeLines []string
	vertexBody   string
	fragmentBody string

	uniforms []UniformBinding
	samplers []SamplerBinding
	varyings []string

	varsByName map[string]frontend.GlobalVar
	paramIDs   []string

	alias string
}

func (b *backend) Compile(shader *frontend.ExtractedShader, opts Options) (*CompiledPass, error) {
	if !shader.Pragmas.HasVertex {
		return nil, &Error{Kind: ErrorKindUnresolvedIdentifier, Subject: "vertex", Detail: "shader declares no vertex stage"}
	}

	st := &state{
		opts:         opts,
		preludeLines: splitLines(shader.Prelude),
		vertexBody:   shader.VertexBody,
		fragmentBody: shader.FragmentBody,
		varsByName:   make(map[string]frontend.GlobalVar),
	}
	for _, v := range shader.Globals.Vars {
		st.varsByName[v.Name] = v
	}
	for _, p := range shader.Pragmas.Parameters {
		st.paramIDs = append(st.paramIDs, p.ID)
	}

	if err := st.flattenUBO(shader); err != nil {
		return nil, err
	}
	st.rewritePrefixes()
	st.removeSelfReferentialDefines()
	header := st.buildHeader()
	st.normalizeTextureCalls()
	st.rewriteDoWhile()
	if err := st.convertGlobalsToVaryings(shader); err != nil {
		return nil, err
	}
	st.repairStorageQualifiers()
	st.adaptTypes()
	st.injectConstants(shader)
	if err := st.injectStubs(shader); err != nil {
		return nil, err
	}
	st.deduplicatePrelude()
	st.coerceFloatIntComparisons()
	st.injectLayoutQualifiers()
	st.finalizePrecisionAndOutput()

	for _, binding := range shader.Bindings {
		if binding.Kind == frontend.BindingKindSampler2D {
			st.samplers = append(st.samplers, SamplerBinding{Name: binding.Name, Set: binding.Set, Slot: binding.Slot})
		}
	}

	prelude := strings.Join(st.preludeLines, "\n")

	vertexGLSL := assembleStage(header, prelude, st.uniforms, st.samplers, st.varyings, "out", st.vertexBody)
	fragmentGLSL := assembleStage(header, prelude, st.uniforms, st.samplers, st.varyings, "in", st.fragmentBody)

	return &CompiledPass{
		VertexGLSL:      vertexGLSL,
		FragmentGLSL:    fragmentGLSL,
		UniformBindings: st.uniforms,
		SamplerBindings: st.samplers,
		Varyings:        st.varyings,
		ParametersUsed:  st.paramIDs,
		ParameterDefs:   shader.Pragmas.Parameters,
		Format:          shader.Pragmas.Format,
		Alias:           opts.Alias,
	}, nil
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Step 1: UBO Flattening. Every UBO member becomes a standalone uniform
// declaration; MVP stays a mat4. A member whose name collides with a global
// variable later converted to a varying (step 7) is suppressed here.
func (s *state) flattenUBO(shader *frontend.ExtractedShader) error {
	if shader.UBO == nil {
		return nil
	}
	for _, m := range shader.UBO.Members {
		if s.isConvertibleGlobal(m.Name, shader) {
			continue
		}
		s.uniforms = append(s.uniforms, UniformBinding{Name: m.Name, GlslType: m.GlslType})
	}
	return nil
}

func (s *state) isConvertibleGlobal(name string, shader *frontend.ExtractedShader) bool {
	v, ok := s.varsByName[name]
	if !ok {
		return false
	}
	return assignedIn(shader.VertexBody, v.Name) && usedIn(shader.FragmentBody, v.Name) && !assignedIn(shader.FragmentBody, v.Name)
}

var (
	paramsPrefixRegex = regexp.MustCompile(`\bparams\.(\w+)`)
	globalPrefixRegex = regexp.MustCompile(`\bglobal\.(\w+)`)
)

// Step 2: Prefix Rewrite. params.X and global.X become X, in the prelude
// and both stage bodies, before any identifier analysis.
func (s *state) rewritePrefixes() {
	rewrite := func(text string) string {
		text = paramsPrefixRegex.ReplaceAllString(text, "$1")
		text = globalPrefixRegex.ReplaceAllString(text, "$1")
		return text
	}
	for i, line := range s.preludeLines {
		s.preludeLines[i] = rewrite(line)
	}
	s.vertexBody = rewrite(s.vertexBody)
	s.fragmentBody = rewrite(s.fragmentBody)
}

var selfReferentialDefineRegex = regexp.MustCompile(`^#define\s+(\w+)\s+(\w+)\s*$`)

// Step 3: Self-Referential Macro Cleanup. A #define X X, possibly created
// by step 2's rewrite, is dropped.
func (s *state) removeSelfReferentialDefines() {
	out := s.preludeLines[:0:0]
	for _, line := range s.preludeLines {
		if m := selfReferentialDefineRegex.FindStringSubmatch(strings.TrimSpace(line)); m != nil && m[1] == m[2] {
			continue
		}
		out = append(out, line)
	}
	s.preludeLines = out
}

// Step 4: Stage Split / header. The header declares the GLSL ES 3.00
// version pragma, default precisions, and a transpose(mat3) polyfill WebGL2
// drivers that predate GLSL ES 3.00's built-in transpose may still need.
func (s *state) buildHeader() string {
	return strings.Join([]string{
		"#version 300 es",
		"precision highp float;",
		"precision highp int;",
		"#if __VERSION__ < 300",
		"mat3 transpose(mat3 m) { return mat3(m[0][0], m[1][0], m[2][0], m[0][1], m[1][1], m[2][1], m[0][2], m[1][2], m[2][2]); }",
		"#endif",
	}, "\n")
}

var textureSizeRegex = regexp.MustCompile(`\btextureSize\s*\(\s*\w+\s*,\s*\d+\s*\)`)

// Step 5: Texture Call Normalization. texture()/textureLod() calls are
// WebGL2-native and left untouched; textureSize(sampler, lod) calls, which
// require a size uniform this core does not thread through, fold to a
// constant fallback.
func (s *state) normalizeTextureCalls() {
	fallback := func(text string) string {
		w, h := s.opts.fallbackOrDefault()
		return textureSizeRegex.ReplaceAllString(text, fmt.Sprintf("ivec2(%d, %d)", w, h))
	}
	s.vertexBody = fallback(s.vertexBody)
	s.fragmentBody = fallback(s.fragmentBody)
}

var doWhileRegex = regexp.MustCompile(`(?s)do\s*\{(.*?)\}\s*while\s*\(([^)]*)\)\s*;`)

// Step 6: Do-While Rewrite. do { BODY } while (COND); becomes a block that
// runs BODY once unconditionally followed by a while loop re-running it,
// since GLSL ES 3.00 has no do/while.
func (s *state) rewriteDoWhile() {
	rewrite := func(text string) string {
		return doWhileRegex.ReplaceAllStringFunc(text, func(match string) string {
			m := doWhileRegex.FindStringSubmatch(match)
			body := strings.TrimSpace(m[1])
			cond := strings.TrimSpace(m[2])
			return fmt.Sprintf("{ %s; while (%s) { %s; } }", body, cond, body)
		})
	}
	s.vertexBody = rewrite(s.vertexBody)
	s.fragmentBody = rewrite(s.fragmentBody)
}

func assignedIn(body, name string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*=[^=]`)
	return re.MatchString(body)
}

func usedIn(body, name string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	return re.MatchString(body)
}

// Step 7: Global-to-Varying Conversion. Every identifier declared as a
// non-const mutable global that is assigned in the vertex stage and read in
// the fragment stage becomes an out/in varying pair "v_<name>"; references
// in both stages are rewritten accordingly, and the original bare
// declaration is elided from the prelude. Identifiers mutated in both
// stages cannot be carried this way and are left as bare per-stage locals
// — a documented limitation, not a crash.
func (s *state) convertGlobalsToVaryings(shader *frontend.ExtractedShader) error {
	var names []string
	for name := range s.varsByName {
		if s.isConvertibleGlobal(name, shader) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		varying := "v_" + name
		boundary := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		s.vertexBody = boundary.ReplaceAllString(s.vertexBody, varying)
		s.fragmentBody = boundary.ReplaceAllString(s.fragmentBody, varying)

		v := s.varsByName[name]
		varyingType := v.GlslType
		if varyingType == "bool" {
			// GLSL ES 3.00 forbids bool as an in/out shader-interface type,
			// so the varying is carried as int with 0/1 conversion at the
			// assignment site (vertex) and the read/comparison sites
			// (fragment, which never assigns per isConvertibleGlobal).
			varyingType = "int"
			s.vertexBody = coerceBoolAssignments(s.vertexBody, varying)
			s.fragmentBody = coerceBoolReads(s.fragmentBody, varying)
		}

		qualifier := ""
		if isIntegralType(varyingType) {
			qualifier = "flat "
		}
		s.varyings = append(s.varyings, fmt.Sprintf("%s%s %s", qualifier, varyingType, varying))

		s.preludeLines = removeDeclLine(s.preludeLines, v.GlslType, name)
	}
	return nil
}

func isIntegralType(t string) bool {
	switch t {
	case "int", "uint", "ivec2", "ivec3", "ivec4":
		return true
	}
	return false
}

// coerceBoolAssignments wraps the right-hand side of every plain assignment
// to varying with an explicit int() conversion. Only the straightforward
// "varying = <expr>;" form is handled; a self-referential expression like
// "varying = !varying;" would need the old bool read coerced too — not
// produced by any Mega Bezel shader in the retrieval pack, so it is a
// documented limitation rather than a crash.
func coerceBoolAssignments(body, varying string) string {
	assign := regexp.MustCompile(`\b` + regexp.QuoteMeta(varying) + `\s*=\s*([^=][^;]*);`)
	return assign.ReplaceAllString(body, varying+" = int($1);")
}

// coerceBoolReads wraps every read of varying in the fragment stage with an
// explicit bool() conversion, so branches and comparisons against the
// now-int varying keep boolean semantics.
func coerceBoolReads(body, varying string) string {
	read := regexp.MustCompile(`\b` + regexp.QuoteMeta(varying) + `\b`)
	return read.ReplaceAllString(body, "bool("+varying+")")
}

func removeDeclLine(lines []string, glslType, name string) []string {
	target := fmt.Sprintf("%s %s;", glslType, name)
	out := lines[:0:0]
	for _, line := range lines {
		if strings.TrimSpace(line) == target {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Step 8: Storage Qualifier Repair. This core targets WebGL2 exclusively,
// so top-level in/out declarations are already correct and left as-is;
// rewriting to "varying" is only needed for WebGL1, which is out of scope.
func (s *state) repairStorageQualifiers() {}

var (
	mat3x3Regex      = regexp.MustCompile(`\bmat3x3\b`)
	mat2x2Regex      = regexp.MustCompile(`\bmat2x2\b`)
	uintRegex        = regexp.MustCompile(`\buint\b`)
	samplerOutRegex  = regexp.MustCompile(`\b(out|inout)(\s+sampler2D\s+\w+)`)
)

// Step 9: Type Adaptation. mat3x3/mat2x2 collapse to their short forms,
// uint narrows to float (this core has no unsigned arithmetic need), and a
// sampler2D parameter qualified out/inout is demoted to in — GLSL ES 3.00
// forbids writable opaque types.
func (s *state) adaptTypes() {
	adapt := func(text string) string {
		text = mat3x3Regex.ReplaceAllString(text, "mat3")
		text = mat2x2Regex.ReplaceAllString(text, "mat2")
		text = uintRegex.ReplaceAllString(text, "float")
		text = samplerOutRegex.ReplaceAllString(text, "in$2")
		return text
	}
	for i, line := range s.preludeLines {
		s.preludeLines[i] = adapt(line)
	}
	s.vertexBody = adapt(s.vertexBody)
	s.fragmentBody = adapt(s.fragmentBody)
}

// Step 10: Constants Injection. The fixed stublib defaults table is
// appended to the prelude for any identifier not already defined by an
// included header.
func (s *state) injectConstants(shader *frontend.ExtractedShader) {
	defined := make(map[string]bool)
	for _, d := range shader.Globals.Defines {
		defined[d.Name] = true
	}
	for _, c := range shader.Globals.Consts {
		defined[c.Name] = true
	}

	var names []string
	for name := range stublib.Constants() {
		names = append(names, name)
	}
	sort.Strings(names)

	consts := stublib.Constants()
	for _, name := range names {
		if defined[name] {
			continue
		}
		s.preludeLines = append(s.preludeLines, consts[name])
	}
}

var identifierCallRegex = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`)

// Step 11: Stub Injection. Any identifier called in either stage body that
// matches a stublib helper name, and has no source definition among the
// shader's own globals, gets a single-line stub declaration appended to
// the prelude. A real post-expansion definition always wins: this only
// ever fires for names the shader's own Globals manifest never defined.
func (s *state) injectStubs(shader *frontend.ExtractedShader) error {
	defined := make(map[string]bool)
	for _, f := range shader.Globals.Funcs {
		defined[f.Name] = true
	}

	called := make(map[string]bool)
	for _, m := range identifierCallRegex.FindAllStringSubmatch(s.vertexBody, -1) {
		called[m[1]] = true
	}
	for _, m := range identifierCallRegex.FindAllStringSubmatch(s.fragmentBody, -1) {
		called[m[1]] = true
	}

	var names []string
	for name := range called {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if defined[name] {
			continue
		}
		stub, ok := stublib.Lookup(name)
		if !ok {
			continue
		}
		s.preludeLines = append(s.preludeLines, stub.Declaration())
	}
	return nil
}

// Step 12: Deduplication. Constants and stub injection above only ever
// append an identifier once (checked against what is already defined), so
// the prelude cannot pick up a duplicate declaration from those steps;
// this pass removes any repeated top-level line surviving from the
// original source itself, preserving the first occurrence. A repeated
// top-level line that opens a brace block (a function definition) is
// dropped together with its whole block; lines inside a kept block are
// never removed.
func (s *state) deduplicatePrelude() {
	seen := make(map[string]bool)
	out := s.preludeLines[:0:0]
	depth, skipping := 0, false
	for _, line := range s.preludeLines {
		trimmed := strings.TrimSpace(line)
		if depth == 0 {
			skipping = trimmed != "" && seen[trimmed]
			if trimmed != "" {
				seen[trimmed] = true
			}
		}
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
		if !skipping {
			out = append(out, line)
		}
	}
	s.preludeLines = out
}

// Step 13: Float/Int Comparison Coercion. A #pragma parameter is always a
// float uniform; comparing it against an integer loop index with == needs
// an explicit int() cast on the float side to satisfy GLSL ES 3.00's strict
// comparison typing.
func (s *state) coerceFloatIntComparisons() {
	coerce := func(text string) string {
		for _, id := range s.paramIDs {
			quoted := regexp.QuoteMeta(id)
			lhs := regexp.MustCompile(`\b` + quoted + `\s*==\s*([A-Za-z_]\w*)\b`)
			text = lhs.ReplaceAllString(text, "int("+id+") == $1")
			rhs := regexp.MustCompile(`\b([A-Za-z_]\w*)\s*==\s*` + quoted + `\b`)
			text = rhs.ReplaceAllString(text, "$1 == int("+id+")")
		}
		return text
	}
	s.vertexBody = coerce(s.vertexBody)
	s.fragmentBody = coerce(s.fragmentBody)
}

var (
	positionDeclRegex = regexp.MustCompile(`^(in\s+vec4\s+Position\s*;)$`)
	texCoordDeclRegex = regexp.MustCompile(`^(in\s+vec2\s+TexCoord\s*;)$`)
)

// Step 14: Layout Qualifier Injection. in vec4 Position and in vec2
// TexCoord receive explicit layout(location=0)/layout(location=1)
// respectively, unless a layout qualifier already precedes them, either on
// the same line or alone on the line before.
func (s *state) injectLayoutQualifiers() {
	lines := splitLines(s.vertexBody)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if i > 0 {
			prev := strings.TrimSpace(lines[i-1])
			if strings.HasPrefix(prev, "layout(") && strings.HasSuffix(prev, ")") {
				continue
			}
		}
		if positionDeclRegex.MatchString(trimmed) {
			lines[i] = "layout(location=0) " + trimmed
		} else if texCoordDeclRegex.MatchString(trimmed) {
			lines[i] = "layout(location=1) " + trimmed
		}
	}
	s.vertexBody = strings.Join(lines, "\n")
}

var (
	glFragColorRegex   = regexp.MustCompile(`\bgl_FragColor\b`)
	fragColorDeclRegex = regexp.MustCompile(`\bout\s+vec4\s+FragColor\s*;`)
)

// Step 15: Final Precision and Output. out vec4 FragColor is guaranteed
// exactly once; any legacy gl_FragColor write is rewritten to it.
func (s *state) finalizePrecisionAndOutput() {
	s.fragmentBody = glFragColorRegex.ReplaceAllString(s.fragmentBody, "FragColor")
}

func assembleStage(header, prelude string, uniforms []UniformBinding, samplers []SamplerBinding, varyings []string, varyingDirection string, body string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	if prelude != "" {
		b.WriteString(prelude)
		b.WriteString("\n")
	}
	for _, u := range uniforms {
		if identifierUsed(body, u.Name) || identifierUsed(prelude, u.Name) {
			fmt.Fprintf(&b, "uniform %s %s;\n", u.GlslType, u.Name)
		}
	}
	for _, sm := range samplers {
		if identifierUsed(body, sm.Name) {
			fmt.Fprintf(&b, "uniform sampler2D %s;\n", sm.Name)
		}
	}
	for _, v := range varyings {
		fmt.Fprintf(&b, "%s %s;\n", varyingDirection, v)
	}
	if varyingDirection == "in" && !fragColorDeclRegex.MatchString(body) {
		b.WriteString("out vec4 FragColor;\n")
	}
	b.WriteString(body)
	return b.String()
}

func identifierUsed(text, name string) bool {
	if text == "" {
		return false
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	return re.MatchString(text)
}
