package preset

import (
	"fmt"
	"strconv"
	"strings"
)

// Loader fetches the raw text of a preset file by path. Content-addressable
// fetch, disk I/O, and HTTP are explicitly out of scope for this core (see
// spec.md §1); the caller supplies this callback.
type Loader func(path string) (string, error)

// Resolver parses .slangp text and follows #reference chains to produce a
// fully merged Preset.
type Resolver interface {
	// Resolve parses the preset at rootPath (fetched via load) and recursively
	// resolves its #reference chain, returning the fully merged Preset.
	//
	// Parameters:
	//   - rootPath: the root preset's path, passed to load for the initial fetch
	//   - load: callback used to fetch the text of rootPath and every
	//     referenced preset
	//
	// Returns:
	//   - *Preset: the merged preset
	//   - error: a *Error on malformed input, missing references, or a
	//     reference cycle
	Resolve(rootPath string, load Loader) (*Preset, error)
}

type resolver struct{}

// NewResolver creates a new PresetResolver.
func NewResolver() Resolver {
	return &resolver{}
}

var _ Resolver = &resolver{}

// keyValue is one "key = value" assignment from a preset file, in source order.
type keyValue struct {
	key, value string
	line       int
}

// rawFile is a parsed-but-unmerged preset file: its own assignments in
// source order and the #reference paths it names, also in source order.
type rawFile struct {
	references []string
	pairs      []keyValue
}

// mergedState accumulates the result of folding a reference chain, deepest
// ancestor first, each subsequent layer overriding the one before it.
type mergedState struct {
	passes     []PassSpec // nil if no layer in the chain so far declared any shaderN key
	textures   map[string]TextureSpec
	parameters map[string]float64
}

func newMergedState() *mergedState {
	return &mergedState{
		textures:   make(map[string]TextureSpec),
		parameters: make(map[string]float64),
	}
}

func (r *resolver) Resolve(rootPath string, load Loader) (*Preset, error) {
	text, err := load(rootPath)
	if err != nil {
		return nil, &Error{Kind: ErrorKindMissingReference, Path: rootPath, Detail: "failed to load root preset", Err: err}
	}
	state, err := r.resolveText(rootPath, text, load, map[string]bool{})
	if err != nil {
		return nil, err
	}
	return &Preset{
		Passes:     state.passes,
		Textures:   state.textures,
		Parameters: state.parameters,
	}, nil
}

// resolveText parses one preset's text, recursively resolves its
// #reference directives (deepest parent first), and overlays this file's
// own assignments on top of the merged ancestor state.
func (r *resolver) resolveText(path, text string, load Loader, stack map[string]bool) (*mergedState, error) {
	if stack[path] {
		return nil, &Error{Kind: ErrorKindCycleDetected, Path: path, Detail: fmt.Sprintf("reference cycle revisits %q", path)}
	}
	stack[path] = true
	defer delete(stack, path)

	raw, err := parseRawFile(path, text)
	if err != nil {
		return nil, err
	}

	merged := newMergedState()
	for _, refPath := range raw.references {
		refText, err := load(refPath)
		if err != nil {
			return nil, &Error{Kind: ErrorKindMissingReference, Path: path, Detail: fmt.Sprintf("could not load #reference %q", refPath), Err: err}
		}
		child, err := r.resolveText(refPath, refText, load, stack)
		if err != nil {
			return nil, err
		}
		mergeInto(merged, child)
	}

	own, err := buildOwnState(path, raw.pairs, merged.passes)
	if err != nil {
		return nil, err
	}
	mergeInto(merged, own)
	return merged, nil
}

// mergeInto overlays src onto dst in place. Passes replace entirely when src
// declares any; textures and parameters merge key-wise.
func mergeInto(dst, src *mergedState) {
	if src.passes != nil {
		dst.passes = src.passes
	}
	for name, tex := range src.textures {
		dst.textures[name] = tex
	}
	for name, val := range src.parameters {
		dst.parameters[name] = val
	}
}

// parseRawFile splits a preset's line-oriented text into #reference
// directives and key=value pairs, in source order. Comments (#-prefixed,
// except #reference) and blank lines are ignored.
func parseRawFile(path, text string) (*rawFile, error) {
	raw := &rawFile{}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#reference") {
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "#reference"))
			ref := strings.Trim(rest, `"`)
			if ref == "" {
				return nil, &Error{Kind: ErrorKindMalformed, Path: path, Line: i + 1, Detail: "#reference with no path"}
			}
			raw.references = append(raw.references, ref)
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := strings.Cut(trimmed, "=")
		if !ok {
			return nil, &Error{Kind: ErrorKindMalformed, Path: path, Line: i + 1, Detail: fmt.Sprintf("expected key = value, got %q", trimmed)}
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		raw.pairs = append(raw.pairs, keyValue{key: key, value: value, line: i + 1})
	}
	return raw, nil
}

// buildOwnState interprets one file's own key=value pairs, per the key
// vocabulary in spec.md §4.1. The only ancestor state it sees is inherited,
// the pass list merged so far: a file that declares no shaderN key applies
// its per-pass keys on top of a copy of that list.
func buildOwnState(path string, pairs []keyValue, inherited []PassSpec) (*mergedState, error) {
	state := newMergedState()

	passByIndex := make(map[int]*PassSpec)
	declaredAnyPass := false
	for _, kv := range pairs {
		if base, _, ok := splitIndexedKey(kv.key); ok && base == "shader" {
			declaredAnyPass = true
		}
	}
	if !declaredAnyPass {
		for i := range inherited {
			p := inherited[i]
			passByIndex[p.Index] = &p
		}
	}
	var textureNames []string

	ensurePass := func(idx int) *PassSpec {
		p, ok := passByIndex[idx]
		if !ok {
			p = &PassSpec{Index: idx, WrapMode: WrapModeClampToEdge, ScaleTypeX: ScaleTypeSource, ScaleTypeY: ScaleTypeSource, ScaleX: 1, ScaleY: 1}
			passByIndex[idx] = p
		}
		return p
	}

	for _, kv := range pairs {
		switch kv.key {
		case "textures":
			if kv.value != "" {
				for _, name := range strings.Split(kv.value, ",") {
					name = strings.TrimSpace(name)
					if name != "" {
						textureNames = append(textureNames, name)
					}
				}
			}
			continue
		}

		if base, idx, ok := splitIndexedKey(kv.key); ok {
			switch base {
			case "shader":
				declaredAnyPass = true
				ensurePass(idx).ShaderPath = kv.value
				continue
			case "filter_linear":
				ensurePass(idx).FilterLinear = parseBool(kv.value)
				continue
			case "wrap_mode":
				ensurePass(idx).WrapMode = WrapMode(kv.value)
				continue
			case "scale_type_x":
				ensurePass(idx).ScaleTypeX = ScaleType(kv.value)
				continue
			case "scale_type_y":
				ensurePass(idx).ScaleTypeY = ScaleType(kv.value)
				continue
			case "scale_type":
				ensurePass(idx).ScaleTypeX = ScaleType(kv.value)
				ensurePass(idx).ScaleTypeY = ScaleType(kv.value)
				continue
			case "scale_x":
				if f, ok := parseFloat(kv.value); ok {
					ensurePass(idx).ScaleX = f
				}
				continue
			case "scale_y":
				if f, ok := parseFloat(kv.value); ok {
					ensurePass(idx).ScaleY = f
				}
				continue
			case "scale":
				if f, ok := parseFloat(kv.value); ok {
					ensurePass(idx).ScaleX = f
					ensurePass(idx).ScaleY = f
				}
				continue
			case "alias":
				ensurePass(idx).Alias = kv.value
				continue
			case "srgb_framebuffer":
				ensurePass(idx).SrgbFramebuffer = parseBool(kv.value)
				continue
			case "float_framebuffer":
				ensurePass(idx).FloatFramebuffer = parseBool(kv.value)
				continue
			case "mipmap_input":
				ensurePass(idx).MipmapInput = parseBool(kv.value)
				continue
			}
		}

		if name, suffix, ok := matchTextureSuffix(kv.key, textureNames); ok {
			tex := state.textures[name]
			tex.Name = name
			switch suffix {
			case "_wrap_mode":
				tex.Wrap = WrapMode(kv.value)
			case "_linear":
				tex.Linear = parseBool(kv.value)
			case "_mipmap":
				tex.Mipmap = parseBool(kv.value)
			}
			state.textures[name] = tex
			continue
		}

		if containsString(textureNames, kv.key) {
			tex := state.textures[kv.key]
			tex.Name = kv.key
			tex.Path = kv.value
			state.textures[kv.key] = tex
			continue
		}

		// Not a recognized structural key: preserve as a candidate parameter
		// override. A parameter with this name may be introduced by any
		// downstream shader (spec.md §4.1 "Edge cases").
		if f, ok := parseFloat(kv.value); ok {
			state.parameters[kv.key] = f
		} else {
			return nil, &Error{Kind: ErrorKindMalformed, Path: path, Line: kv.line, Detail: fmt.Sprintf("value for %q is neither a known structural key nor a numeric parameter override: %q", kv.key, kv.value)}
		}
	}

	if declaredAnyPass || len(inherited) > 0 {
		indices := make([]int, 0, len(passByIndex))
		for idx := range passByIndex {
			indices = append(indices, idx)
		}
		sortInts(indices)
		passes := make([]PassSpec, 0, len(indices))
		for _, idx := range indices {
			passes = append(passes, *passByIndex[idx])
		}
		state.passes = passes
	}

	// Ensure every declared texture name has at least a zero-value entry so
	// downstream consumers can distinguish "declared with no overrides" from
	// "never declared".
	for _, name := range textureNames {
		if _, ok := state.textures[name]; !ok {
			state.textures[name] = TextureSpec{Name: name}
		}
	}

	return state, nil
}

func matchTextureSuffix(key string, names []string) (name, suffix string, ok bool) {
	for _, n := range names {
		for _, s := range textureSuffixes {
			if key == n+s {
				return n, s, true
			}
		}
	}
	return "", "", false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// ParseFloatStrict parses s with the same numeric rules the resolver applies
// to parameter override values, naming s in its error. No package in this
// module calls it.
func ParseFloatStrict(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("preset: %q is not a valid float: %w", s, err)
	}
	return f, nil
}
