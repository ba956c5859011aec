package include

import (
	"path"
	"strings"
)

// Resolver fetches the raw text of an include target by its resolved path.
type Resolver func(path string) (string, error)

// Expander resolves #include directives into a single flattened
// ShaderSource with provenance.
type Expander interface {
	// Expand resolves every #include in text, recursively, against origin's
	// directory.
	//
	// Parameters:
	//   - origin: the path text itself was fetched from, used as the base
	//     for its own relative #include targets
	//   - text: the shader text to expand
	//   - resolve: callback used to fetch the text of every #include target
	//
	// Returns:
	//   - *ShaderSource: the fully expanded text plus provenance spans
	//   - error: an *Error on a missing include or an include cycle
	Expand(origin, text string, resolve Resolver) (*ShaderSource, error)
}

type expander struct{}

// NewExpander creates a new IncludeExpander.
func NewExpander() Expander {
	return &expander{}
}

var _ Expander = &expander{}

const includeDirectivePrefix = "#include"

func (e *expander) Expand(origin, text string, resolve Resolver) (*ShaderSource, error) {
	st := &expandState{
		active: map[string]bool{},
		done:   map[string]bool{},
	}
	if err := st.expandInto(origin, text, resolve); err != nil {
		return nil, err
	}
	st.flushSpan()
	return &ShaderSource{Text: st.out.String(), Spans: st.spans}, nil
}

// expandState threads cycle/idempotence tracking and output accumulation
// through the recursive expansion of one shader's full #include tree.
type expandState struct {
	active map[string]bool // files currently being expanded (cycle detection)
	done   map[string]bool // files already fully expanded once (idempotent skip)

	out        strings.Builder
	nextLine   int // 1-based line number the next write will occupy in out
	spans      []Span
	spanPath   string
	spanStart  int // ExpandedStartLine of the in-progress span
	spanSrc    int // SourceStartLine of the in-progress span
	spanCount  int
}

func (st *expandState) flushSpan() {
	if st.spanCount > 0 {
		st.spans = append(st.spans, Span{
			Path:              st.spanPath,
			ExpandedStartLine: st.spanStart,
			LineCount:         st.spanCount,
			SourceStartLine:   st.spanSrc,
		})
	}
	st.spanCount = 0
}

// writeLine appends one line of output text attributed to (path, sourceLine),
// merging it into the in-progress span when it is a direct continuation.
func (st *expandState) writeLine(path string, sourceLine int, line string) {
	if st.nextLine == 0 {
		st.nextLine = 1
	}
	contiguous := st.spanCount > 0 && st.spanPath == path && sourceLine == st.spanSrc+st.spanCount
	if !contiguous {
		st.flushSpan()
		st.spanPath = path
		st.spanStart = st.nextLine
		st.spanSrc = sourceLine
		st.spanCount = 0
	}
	if st.out.Len() > 0 {
		st.out.WriteByte('\n')
	}
	st.out.WriteString(line)
	st.spanCount++
	st.nextLine++
}

func (st *expandState) expandInto(filePath, text string, resolve Resolver) error {
	if st.active[filePath] {
		return &Error{Kind: ErrorKindCycleDetected, Path: filePath, Target: filePath}
	}
	if st.done[filePath] {
		return nil
	}
	st.active[filePath] = true
	defer delete(st.active, filePath)

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, includeDirectivePrefix) {
			st.writeLine(filePath, i+1, line)
			continue
		}
		target, ok := parseIncludeTarget(trimmed)
		if !ok {
			return &Error{Kind: ErrorKindMissingInclude, Path: filePath, Line: i + 1, Target: trimmed}
		}
		resolved := path.Join(path.Dir(filePath), target)
		if st.active[resolved] {
			return &Error{Kind: ErrorKindCycleDetected, Path: filePath, Line: i + 1, Target: target}
		}
		if st.done[resolved] {
			continue
		}
		includedText, err := resolve(resolved)
		if err != nil {
			return &Error{Kind: ErrorKindMissingInclude, Path: filePath, Line: i + 1, Target: target, Err: err}
		}
		if err := st.expandInto(resolved, includedText, resolve); err != nil {
			return err
		}
	}

	st.done[filePath] = true
	return nil
}

// parseIncludeTarget extracts the quoted path argument from a line already
// known to start with "#include". Comments and strings elsewhere in the
// file are never parsed; detection is purely this line-prefix check.
func parseIncludeTarget(trimmed string) (string, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, includeDirectivePrefix))
	start := strings.IndexByte(rest, '"')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(rest[start+1:], '"')
	if end < 0 {
		return "", false
	}
	return rest[start+1 : start+1+end], true
}
