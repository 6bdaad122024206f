package outline

// Position is a zero-based line and UTF-16 character offset, the unit the
// editor speaks in.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// Range is an editor range, end exclusive.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// ContainsSpan reports whether r covers the whole of s by line/column comparison.
func (r Range) ContainsSpan(s Span) bool {
	return !s.Start().Before(r.Start) && !r.End.Before(s.End())
}

// Span is a half-open source region. Offsets are bytes into the document,
// lines and columns are zero-based with columns in UTF-16 units.
type Span struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	StartOffset int `json:"startOffset"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
	EndOffset   int `json:"endOffset"`
}

func (s Span) Start() Position { return Position{Line: s.StartLine, Character: s.StartColumn} }
func (s Span) End() Position   { return Position{Line: s.EndLine, Character: s.EndColumn} }

func (s Span) Range() Range { return Range{Start: s.Start(), End: s.End()} }

// Contains reports whether other lies within s. A span contains itself.
func (s Span) Contains(other Span) bool {
	return s.StartOffset <= other.StartOffset && other.EndOffset <= s.EndOffset
}

func (s Span) SingleLine() bool { return s.StartLine == s.EndLine }
