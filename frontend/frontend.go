package frontend

import (
	"regexp"
	"strconv"
	"strings"
)

// Frontend extracts pragmas, bindings, UBO layout, and prelude globals from
// an include-expanded Slang shader.
type Frontend interface {
	// Extract parses source (already run through include.Expander) into an
	// ExtractedShader.
	//
	// Returns a *Error with ErrorKindMalformed when a function body has
	// unbalanced braces or a #pragma parameter is missing fields, and
	// ErrorKindMalformed when the shader never declares a vertex stage (per
	// spec.md §8's boundary test: a shader with no #pragma stage vertex
	// surfaces FrontendError::Malformed).
	Extract(source string) (*ExtractedShader, error)
}

type frontend struct{}

// NewFrontend creates a new SlangFrontend.
func NewFrontend() Frontend {
	return &frontend{}
}

var _ Frontend = &frontend{}

var (
	stageMarkerRegex  = regexp.MustCompile(`^#pragma\s+stage\s+(vertex|fragment)\s*$`)
	pragmaNameRegex   = regexp.MustCompile(`^#pragma\s+name\s+(\S+)\s*$`)
	pragmaFormatRegex = regexp.MustCompile(`^#pragma\s+format\s+(\S+)\s*$`)
	pragmaParamRegex  = regexp.MustCompile(`^#pragma\s+parameter\s+(\S+)\s+"([^"]*)"\s+(\S+)\s+(\S+)\s+(\S+)\s+(\S+)\s*$`)

	samplerBindingRegex = regexp.MustCompile(`^layout\(\s*set\s*=\s*(\d+)\s*,\s*binding\s*=\s*(\d+)\s*\)\s*uniform\s+sampler2D\s+(\w+)\s*;`)
	uboBindingRegex     = regexp.MustCompile(`^layout\(\s*set\s*=\s*(\d+)\s*,\s*binding\s*=\s*(\d+)\s*\)\s*uniform\s+(\w+)\s*\{`)
	uboMemberRegex      = regexp.MustCompile(`^(\w+)\s+(\w+)\s*;`)

	defineRegex = regexp.MustCompile(`^#define\s+(\w+)(?:\s+(.*))?$`)
	constRegex  = regexp.MustCompile(`^const\s+(\w+)\s+(\w+)\s*=\s*([^;]+);`)
	funcRegex   = regexp.MustCompile(`^(\w+)\s+(\w+)\s*\(([^)]*)\)\s*\{`)
	varRegex    = regexp.MustCompile(`^(\w+)\s+(\w+)\s*;$`)
)

func (f *frontend) Extract(source string) (*ExtractedShader, error) {
	text := strings.ReplaceAll(source, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	vertexLine, fragmentLine := -1, -1
	for i, line := range lines {
		if m := stageMarkerRegex.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if m[1] == "vertex" && vertexLine == -1 {
				vertexLine = i
			}
			if m[1] == "fragment" && fragmentLine == -1 {
				fragmentLine = i
			}
		}
	}
	if vertexLine == -1 {
		return nil, &Error{Kind: ErrorKindMalformed, Detail: "shader has no #pragma stage vertex"}
	}

	preludeEnd := vertexLine
	if fragmentLine != -1 && fragmentLine < preludeEnd {
		preludeEnd = fragmentLine
	}

	shader := &ExtractedShader{}
	shader.Pragmas.HasVertex = true
	shader.Pragmas.HasFragment = fragmentLine != -1

	vertexBody, fragmentBody, err := splitStageBodies(lines, vertexLine, fragmentLine)
	if err != nil {
		return nil, err
	}

	preludeLines := lines[:preludeEnd]
	stripped := make([]bool, len(preludeLines))

	if err := extractPragmas(preludeLines, stripped, &shader.Pragmas); err != nil {
		return nil, err
	}
	bindings, ubo, err := extractBindings(preludeLines, stripped)
	if err != nil {
		return nil, err
	}
	shader.Bindings = bindings
	shader.UBO = ubo

	globals, err := extractGlobals(preludeLines, stripped)
	if err != nil {
		return nil, err
	}
	shader.Globals = globals

	var preludeOut []string
	for i, line := range preludeLines {
		if !stripped[i] {
			preludeOut = append(preludeOut, line)
		}
	}
	shader.Prelude = strings.Join(preludeOut, "\n")
	shader.VertexBody = vertexBody
	shader.FragmentBody = fragmentBody
	return shader, nil
}

// splitStageBodies returns the lines following each stage marker up to the
// next marker (or end of file), joined back into text.
func splitStageBodies(lines []string, vertexLine, fragmentLine int) (vertex, fragment string, err error) {
	markers := []struct {
		line  int
		stage string
	}{}
	if vertexLine != -1 {
		markers = append(markers, struct {
			line  int
			stage string
		}{vertexLine, "vertex"})
	}
	if fragmentLine != -1 {
		markers = append(markers, struct {
			line  int
			stage string
		}{fragmentLine, "fragment"})
	}
	// markers are already populated in file order since both indices were
	// found by forward scan; sort defensively in case fragment precedes vertex.
	if len(markers) == 2 && markers[0].line > markers[1].line {
		markers[0], markers[1] = markers[1], markers[0]
	}

	for i, m := range markers {
		end := len(lines)
		if i+1 < len(markers) {
			end = markers[i+1].line
		}
		body := strings.Join(lines[m.line+1:end], "\n")
		if m.stage == "vertex" {
			vertex = body
		} else {
			fragment = body
		}
	}
	return vertex, fragment, nil
}

func extractPragmas(lines []string, stripped []bool, p *Pragmas) error {
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if m := pragmaNameRegex.FindStringSubmatch(line); m != nil {
			p.Name = m[1]
			stripped[i] = true
			continue
		}
		if m := pragmaFormatRegex.FindStringSubmatch(line); m != nil {
			p.Format = m[1]
			stripped[i] = true
			continue
		}
		if m := pragmaParamRegex.FindStringSubmatch(line); m != nil {
			def, min, max, step := parseFloatOrZero(m[3]), parseFloatOrZero(m[4]), parseFloatOrZero(m[5]), parseFloatOrZero(m[6])
			p.Parameters = append(p.Parameters, ParamDef{
				ID: m[1], Label: m[2], Default: def, Min: min, Max: max, Step: step,
			})
			stripped[i] = true
			continue
		}
		if strings.HasPrefix(line, "#pragma parameter") {
			return &Error{Kind: ErrorKindMalformed, Line: i + 1, Detail: `#pragma parameter needs ID "label" default min max step`}
		}
	}
	return nil
}

func parseFloatOrZero(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func extractBindings(lines []string, stripped []bool) ([]Binding, *UboLayout, error) {
	var bindings []Binding
	var ubo *UboLayout

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if m := samplerBindingRegex.FindStringSubmatch(line); m != nil {
			set, _ := strconv.Atoi(m[1])
			slot, _ := strconv.Atoi(m[2])
			bindings = append(bindings, Binding{Set: set, Slot: slot, Name: m[3], Kind: BindingKindSampler2D})
			stripped[i] = true
			continue
		}
		if m := uboBindingRegex.FindStringSubmatch(line); m != nil {
			set, _ := strconv.Atoi(m[1])
			slot, _ := strconv.Atoi(m[2])
			bindings = append(bindings, Binding{Set: set, Slot: slot, Name: m[3], Kind: BindingKindUBO})
			end, members, err := extractUboMembers(lines, i)
			if err != nil {
				return nil, nil, err
			}
			ubo = &UboLayout{BlockName: m[3], Members: members}
			for j := i; j <= end; j++ {
				stripped[j] = true
			}
			i = end
			continue
		}
	}
	return bindings, ubo, nil
}

// extractUboMembers reads member declarations between the opening-brace
// line at startLine and the matching "};" close.
func extractUboMembers(lines []string, startLine int) (endLine int, members []UboMember, err error) {
	depth := strings.Count(lines[startLine], "{") - strings.Count(lines[startLine], "}")
	for i := startLine + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth <= 0 {
			return i, members, nil
		}
		if m := uboMemberRegex.FindStringSubmatch(line); m != nil {
			members = append(members, UboMember{GlslType: m[1], Name: m[2]})
		}
	}
	return len(lines) - 1, members, &Error{Kind: ErrorKindMalformed, Line: startLine + 1, Detail: "unbalanced braces in UBO block"}
}

func extractGlobals(lines []string, stripped []bool) (GlobalsManifest, error) {
	var manifest GlobalsManifest
	for i := 0; i < len(lines); i++ {
		if stripped[i] {
			continue
		}
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if m := defineRegex.FindStringSubmatch(line); m != nil {
			manifest.Defines = append(manifest.Defines, GlobalDefine{Name: m[1], Replacement: strings.TrimSpace(m[2])})
			continue
		}
		if m := constRegex.FindStringSubmatch(line); m != nil {
			manifest.Consts = append(manifest.Consts, GlobalConst{GlslType: m[1], Name: m[2], Value: strings.TrimSpace(m[3])})
			continue
		}
		if m := funcRegex.FindStringSubmatch(line); m != nil {
			end, body, err := matchBraces(lines, i)
			if err != nil {
				return manifest, err
			}
			argTypes := parseArgTypes(m[3])
			manifest.Funcs = append(manifest.Funcs, GlobalFunc{
				ReturnType: m[1], Name: m[2], ArgTypes: argTypes, Body: body,
			})
			i = end
			continue
		}
		if m := varRegex.FindStringSubmatch(line); m != nil {
			manifest.Vars = append(manifest.Vars, GlobalVar{GlslType: m[1], Name: m[2]})
			continue
		}
	}
	return manifest, nil
}

// matchBraces returns the line range and joined text of a brace-delimited
// block beginning on startLine (which must contain the opening brace).
func matchBraces(lines []string, startLine int) (endLine int, body string, err error) {
	depth := 0
	var out []string
	for i := startLine; i < len(lines); i++ {
		out = append(out, lines[i])
		depth += strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
		if depth == 0 && i > startLine {
			return i, strings.Join(out, "\n"), nil
		}
		if depth == 0 && i == startLine && strings.Contains(lines[i], "}") {
			return i, strings.Join(out, "\n"), nil
		}
	}
	return len(lines) - 1, strings.Join(out, "\n"), &Error{Kind: ErrorKindMalformed, Line: startLine + 1, Detail: "unbalanced braces in function body"}
}

func parseArgTypes(argList string) []string {
	argList = strings.TrimSpace(argList)
	if argList == "" || argList == "void" {
		return nil
	}
	var types []string
	for _, arg := range strings.Split(argList, ",") {
		fields := strings.Fields(strings.TrimSpace(arg))
		if len(fields) == 0 {
			continue
		}
		// Drop a trailing parameter name, keeping qualifier(s) + type,
		// e.g. "in vec2 uv" -> "in vec2".
		if len(fields) > 1 {
			fields = fields[:len(fields)-1]
		}
		types = append(types, strings.Join(fields, " "))
	}
	return types
}
