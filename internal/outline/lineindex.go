package outline

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// LineIndex converts between byte offsets and editor positions for one
// immutable document text.
type LineIndex struct {
	content []byte
	starts  []int
}

func NewLineIndex(content []byte) *LineIndex {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{content: content, starts: starts}
}

// Position returns the editor position of a byte offset, clamped to the text.
func (li *LineIndex) Position(offset int) Position {
	offset = max(0, min(offset, len(li.content)))
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	return Position{Line: line, Character: utf16Len(li.content[li.starts[line]:offset])}
}

// Offset returns the byte offset of an editor position. Characters past the
// end of the line clamp to the line end.
func (li *LineIndex) Offset(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(li.starts) {
		return len(li.content)
	}
	offset := li.starts[pos.Line]
	end := len(li.content)
	if pos.Line+1 < len(li.starts) {
		end = li.starts[pos.Line+1] - 1
	}
	for units := 0; offset < end && units < pos.Character; {
		r, size := utf8.DecodeRune(li.content[offset:end])
		units += utf16.RuneLen(r)
		if units > pos.Character {
			break
		}
		offset += size
	}
	return offset
}

// Span builds a span from a byte range.
func (li *LineIndex) Span(startOffset, endOffset int) Span {
	start := li.Position(startOffset)
	end := li.Position(endOffset)
	return Span{
		StartLine:   start.Line,
		StartColumn: start.Character,
		StartOffset: startOffset,
		EndLine:     end.Line,
		EndColumn:   end.Character,
		EndOffset:   endOffset,
	}
}

// SpanOf builds a span from an editor range.
func (li *LineIndex) SpanOf(r Range) Span {
	return li.Span(li.Offset(r.Start), li.Offset(r.End))
}

// Text returns the source text covered by r.
func (li *LineIndex) Text(r Range) string {
	start, end := li.Offset(r.Start), li.Offset(r.End)
	if end < start {
		return ""
	}
	return string(li.content[start:end])
}

func utf16Len(b []byte) int {
	n := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		n += utf16.RuneLen(r)
		b = b[size:]
	}
	return n
}
