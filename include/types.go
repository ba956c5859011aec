// package include implements the IncludeExpander: resolution of
// #include "rel/path.inc" directives against the including file's
// directory, cycle detection, idempotent re-inclusion, and provenance
// tracking for diagnostics, per spec.md §4.2.
package include

// Span attributes a contiguous run of lines in an expanded ShaderSource's
// Text back to the file and line range they came from.
type Span struct {
	// Path is the source file this run of lines was copied from.
	Path string
	// ExpandedStartLine is the 1-based line in ShaderSource.Text where this
	// run begins.
	ExpandedStartLine int
	// LineCount is the number of lines in this run.
	LineCount int
	// SourceStartLine is the 1-based line in Path where this run begins.
	SourceStartLine int
}

// ShaderSource is shader text with every #include expanded in place, plus
// provenance spans mapping each line back to its originating file.
type ShaderSource struct {
	Text  string
	Spans []Span
}
