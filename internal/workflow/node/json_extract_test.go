package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "json tagged fence",
			input: "Here is the result:\n```json\n{\"project_name\": \"todo-app\"}\n```\nDone.",
			want:  `{"project_name": "todo-app"}`,
		},
		{
			name:  "generic fence",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "json fence preferred over generic",
			input: "```\nnot this\n```\n```json\n{\"b\": 2}\n```",
			want:  `{"b": 2}`,
		},
		{
			name:  "no fences braces sliced",
			input: "Sure! {\"a\": {\"b\": 1}} hope this helps",
			want:  `{"a": {"b": 1}}`,
		},
		{
			name:  "unterminated json fence",
			input: "```json\n{\"a\": 1}",
			want:  `{"a": 1}`,
		},
		{
			name:  "only first fence pair used",
			input: "```json\n{\"first\": 1}\n```\n```json\n{\"second\": 2}\n```",
			want:  `{"first": 1}`,
		},
		{
			name:  "no opening brace returned unchanged",
			input: "plain text without json",
			want:  "plain text without json",
		},
		{
			name:  "no closing brace returned unchanged",
			input: "broken { json",
			want:  "broken { json",
		},
		{
			name:  "closing before opening returned unchanged",
			input: "} backwards {",
			want:  "} backwards {",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "fenced block without braces",
			input: "```json\nnull\n```",
			want:  "null",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractJSONBlock(tc.input))
		})
	}
}
