package catalog

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestNewRejectsDuplicateLessonAcrossLevels(t *testing.T) {
	_, err := New("t", []Level{
		{ID: "1", Number: 1, Title: "One", Badge: "A", Lessons: []Lesson{{ID: "x", Title: "X"}}},
		{ID: "2", Number: 2, Title: "Two", Badge: "B", Lessons: []Lesson{{ID: "x", Title: "X again"}}},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate lesson id") {
		t.Fatalf("expected duplicate lesson error, got %v", err)
	}
}

func TestNewRequiresBadge(t *testing.T) {
	_, err := New("t", []Level{{ID: "1", Number: 1, Title: "One"}})
	if err == nil || !strings.Contains(err.Error(), "badge is required") {
		t.Fatalf("expected badge error, got %v", err)
	}
}

func TestBlockValidation(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "quiz index out of range",
			doc: `- type: quiz
  question: q
  options: [a, b]
  correct_index: 2`,
			want: "correct_index",
		},
		{
			name: "drag rank unknown id",
			doc: `- type: drag-rank
  instruction: order
  items: [{id: a, text: A}, {id: b, text: B}]
  correct_order: [a, c]`,
			want: "unknown item",
		},
		{
			name: "flowchart dangling edge",
			doc: `- type: flowchart
  nodes:
    - {id: start, text: s, next: missing}`,
			want: "unknown node",
		},
		{
			name: "empty paragraph",
			doc:  `- type: paragraph`,
			want: "text is required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var blocks Blocks
			if err := yaml.Unmarshal([]byte(tc.doc), &blocks); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			err := blocks.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestEveryBlockTypeHasFactory(t *testing.T) {
	for _, bt := range BlockTypes() {
		b, err := NewBlock(bt)
		if err != nil {
			t.Fatalf("no factory for %s: %v", bt, err)
		}
		if b.Type() != bt {
			t.Fatalf("factory for %s built %s", bt, b.Type())
		}
	}
	if len(BlockTypes()) != len(blockFactories) {
		t.Fatalf("BlockTypes lists %d tags, factories know %d", len(BlockTypes()), len(blockFactories))
	}
}
