package outline

// Visibility is the fold state of a node relative to the editor viewport.
// It is derived on demand and never stored on a node.
type Visibility int

const (
	SingleLine Visibility = iota
	Folded
	Unfolded
)

func (v Visibility) String() string {
	switch v {
	case SingleLine:
		return "singleLine"
	case Folded:
		return "folded"
	case Unfolded:
		return "unfolded"
	}
	return "unknown"
}

// ComputeVisibility classifies span against the visible ranges. A node is
// unfolded only when one visible range covers all of it, so a partially
// scrolled node reads as folded.
func ComputeVisibility(span Span, visible []Range) Visibility {
	if span.SingleLine() {
		return SingleLine
	}
	for _, r := range visible {
		if r.ContainsSpan(span) {
			return Unfolded
		}
	}
	return Folded
}
