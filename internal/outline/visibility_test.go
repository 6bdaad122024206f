package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeVisibility(t *testing.T) {
	span := Span{StartLine: 2, StartColumn: 0, EndLine: 6, EndColumn: 1}

	tests := []struct {
		name    string
		span    Span
		visible []Range
		want    Visibility
	}{
		{
			name:    "viewport equal to span",
			span:    span,
			visible: []Range{span.Range()},
			want:    Unfolded,
		},
		{
			name:    "viewport covers span",
			span:    span,
			visible: []Range{{Start: Position{0, 0}, End: Position{40, 0}}},
			want:    Unfolded,
		},
		{
			name:    "viewport covers part of span",
			span:    span,
			visible: []Range{{Start: Position{4, 0}, End: Position{40, 0}}},
			want:    Folded,
		},
		{
			name: "span split across ranges",
			span: span,
			visible: []Range{
				{Start: Position{0, 0}, End: Position{2, 20}},
				{Start: Position{7, 0}, End: Position{40, 0}},
			},
			want: Folded,
		},
		{
			name:    "end column past viewport",
			span:    span,
			visible: []Range{{Start: Position{2, 0}, End: Position{6, 0}}},
			want:    Folded,
		},
		{
			name:    "no viewport",
			span:    span,
			visible: nil,
			want:    Folded,
		},
		{
			name:    "single line ignores viewport",
			span:    Span{StartLine: 3, EndLine: 3, EndColumn: 30},
			visible: nil,
			want:    SingleLine,
		},
		{
			name:    "single line inside viewport",
			span:    Span{StartLine: 3, EndLine: 3, EndColumn: 30},
			visible: []Range{{Start: Position{0, 0}, End: Position{10, 0}}},
			want:    SingleLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeVisibility(tt.span, tt.visible))
		})
	}
}

func TestVisibilityString(t *testing.T) {
	assert.Equal(t, "singleLine", SingleLine.String())
	assert.Equal(t, "folded", Folded.String())
	assert.Equal(t, "unfolded", Unfolded.String())
	assert.Equal(t, "unknown", Visibility(42).String())
}
