package include

import (
	"errors"
	"strings"
	"testing"
)

func resolverFromMap(files map[string]string) Resolver {
	return func(path string) (string, error) {
		text, ok := files[path]
		if !ok {
			return "", errors.New("no such file: " + path)
		}
		return text, nil
	}
}

func TestExpandNoIncludes(t *testing.T) {
	text := "line one\nline two\n"
	got, err := NewExpander().Expand("shaders/a.slang", text, resolverFromMap(nil))
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	if got.Text != "line one\nline two" {
		t.Errorf("Text = %q", got.Text)
	}
	if len(got.Spans) != 1 || got.Spans[0].Path != "shaders/a.slang" {
		t.Errorf("Spans = %+v, want one span for shaders/a.slang", got.Spans)
	}
}

func TestExpandResolvesRelativeToIncludingFile(t *testing.T) {
	files := map[string]string{
		"shaders/a.slang":     "top\n#include \"parts/b.inc\"\nbottom\n",
		"shaders/parts/b.inc": "middle\n",
	}
	got, err := NewExpander().Expand("shaders/a.slang", files["shaders/a.slang"], resolverFromMap(files))
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	want := "top\nmiddle\nbottom"
	if got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
}

func TestExpandIdempotentReinclude(t *testing.T) {
	files := map[string]string{
		"a.slang": "#include \"c.inc\"\n#include \"d.inc\"\n",
		"c.inc":   "#include \"e.inc\"\nfrom-c\n",
		"d.inc":   "#include \"e.inc\"\nfrom-d\n",
		"e.inc":   "from-e\n",
	}
	got, err := NewExpander().Expand("a.slang", files["a.slang"], resolverFromMap(files))
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	if strings.Count(got.Text, "from-e") != 1 {
		t.Errorf("expected e.inc to be included exactly once, got text: %q", got.Text)
	}
	want := "from-e\nfrom-c\nfrom-d"
	if got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
}

func TestExpandCycleDetected(t *testing.T) {
	files := map[string]string{
		"a.slang": "#include \"b.inc\"\n",
		"b.inc":   "#include \"a.slang\"\n",
	}
	_, err := NewExpander().Expand("a.slang", files["a.slang"], resolverFromMap(files))
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	var incErr *Error
	if !errors.As(err, &incErr) {
		t.Fatalf("expected *include.Error, got %T: %v", err, err)
	}
	if incErr.Kind != ErrorKindCycleDetected {
		t.Errorf("Kind = %v, want ErrorKindCycleDetected", incErr.Kind)
	}
}

func TestExpandMissingInclude(t *testing.T) {
	files := map[string]string{
		"a.slang": "#include \"missing.inc\"\n",
	}
	_, err := NewExpander().Expand("a.slang", files["a.slang"], resolverFromMap(files))
	if err == nil {
		t.Fatal("expected a missing-include error")
	}
	var incErr *Error
	if !errors.As(err, &incErr) {
		t.Fatalf("expected *include.Error, got %T: %v", err, err)
	}
	if incErr.Kind != ErrorKindMissingInclude {
		t.Errorf("Kind = %v, want ErrorKindMissingInclude", incErr.Kind)
	}
}

func TestExpandIndentedIncludeIsDirectivePrefixOnlyDetection(t *testing.T) {
	// Detection is purely line-prefix: a line that merely mentions
	// "#include" after leading whitespace is still treated as a directive,
	// even though a full preprocessor would consider context. This matches
	// the documented policy that comments/strings are not parsed.
	files := map[string]string{
		"a.slang": "  #include \"b.inc\"\n",
		"b.inc":   "expanded\n",
	}
	got, err := NewExpander().Expand("a.slang", files["a.slang"], resolverFromMap(files))
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	if got.Text != "expanded" {
		t.Errorf("Text = %q, want %q", got.Text, "expanded")
	}
}
