// package frontend implements the SlangFrontend: extraction of pragmas,
// descriptor bindings, UBO members, and prelude global definitions from an
// include-expanded Slang shader, per spec.md §4.3.
package frontend

// ParamDef is one #pragma parameter declaration.
type ParamDef struct {
	ID, Label                  string
	Default, Min, Max, Step    float64
}

// Pragmas is everything extracted from #pragma directives.
type Pragmas struct {
	HasVertex, HasFragment bool
	Name                   string
	Format                 string
	Parameters             []ParamDef
}

// BindingKind distinguishes the two kinds of Vulkan-style descriptor
// binding this frontend recognizes.
type BindingKind int

const (
	BindingKindSampler2D BindingKind = iota
	BindingKindUBO
)

// Binding is one `layout(set=S, binding=B) uniform ...` declaration.
type Binding struct {
	Set, Slot int
	Name      string
	Kind      BindingKind
}

// UboMember is one member of the sole recognized uniform block.
type UboMember struct {
	Name, GlslType string
}

// UboLayout is the ordered member list of the shader's one UBO.
type UboLayout struct {
	BlockName string
	Members   []UboMember
}

// GlobalDefine is a prelude #define and its raw replacement text.
type GlobalDefine struct {
	Name, Replacement string
}

// GlobalConst is a prelude typed constant declaration.
type GlobalConst struct {
	GlslType, Name, Value string
}

// GlobalFunc is a prelude function definition, captured with its full body
// text via brace matching.
type GlobalFunc struct {
	ReturnType string
	Name       string
	ArgTypes   []string
	Body       string // including the enclosing braces
}

// SignatureKey returns the "name(arg_types)" key used to identify a
// GlobalFunc independent of formatting, for dedup and stub-precedence checks.
func (f GlobalFunc) SignatureKey() string {
	key := f.Name + "("
	for i, t := range f.ArgTypes {
		if i > 0 {
			key += ","
		}
		key += t
	}
	return key + ")"
}

// GlobalVar is a plain (non-const) mutable global variable declaration
// found in a shader's prelude, e.g. "float TUBE_MASK;" — the kind of
// cross-stage state Mega Bezel shaders rely on being written in the vertex
// stage and read in the fragment stage.
type GlobalVar struct {
	GlslType, Name string
}

// GlobalsManifest is every #define, const, mutable variable, and function
// definition found in a shader's prelude (the text before the first
// #pragma stage).
type GlobalsManifest struct {
	Defines []GlobalDefine
	Consts  []GlobalConst
	Vars    []GlobalVar
	Funcs   []GlobalFunc
}

// ExtractedShader is everything SlangFrontend pulls out of one Slang source
// file before any backend rewriting begins.
type ExtractedShader struct {
	Pragmas      Pragmas
	Bindings     []Binding
	UBO          *UboLayout // nil if the shader declares no UBO
	Globals      GlobalsManifest
	Prelude      string // prelude text with pragma/binding lines stripped
	VertexBody   string
	FragmentBody string
}
