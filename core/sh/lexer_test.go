package sh

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenCmpOpts = []cmp.Option{
	cmp.AllowUnexported(Token{}),
	cmpopts.IgnoreFields(Token{}, "SpaceBefore", "sections"),
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []Token
	}{
		{
			name: "plain words",
			src:  "echo hello world",
			want: []Token{
				{Text: "echo"},
				{Text: "hello"},
				{Text: "world"},
			},
		},
		{
			name: "logical and pipe operators",
			src:  "a && b || c; d | e",
			want: []Token{
				{Text: "a"},
				{Text: "&&", Op: true},
				{Text: "b"},
				{Text: "||", Op: true},
				{Text: "c"},
				{Text: ";", Op: true},
				{Text: "d"},
				{Text: "|", Op: true},
				{Text: "e"},
			},
		},
		{
			name: "newline becomes separator",
			src:  "a\nb",
			want: []Token{
				{Text: "a"},
				{Text: ";", Op: true},
				{Text: "b"},
			},
		},
		{
			name: "comment runs to end of line",
			src:  "echo a # the rest\necho b",
			want: []Token{
				{Text: "echo"},
				{Text: "a"},
				{Text: ";", Op: true},
				{Text: "echo"},
				{Text: "b"},
			},
		},
		{
			name: "single quotes are literal",
			src:  "echo 'a b' '$HOME'",
			want: []Token{
				{Text: "echo"},
				{Text: "a b", Quoting: QuotingSingle},
				{Text: "$HOME", Quoting: QuotingSingle, noExpand: true},
			},
		},
		{
			name: "double quotes keep expansion markers",
			src:  `echo "hi $USER"`,
			want: []Token{
				{Text: "echo"},
				{Text: "hi $USER", Quoting: QuotingDouble},
			},
		},
		{
			name: "adjacent sections join into one word",
			src:  `a'b'c`,
			want: []Token{
				{Text: "abc"},
			},
		},
		{
			name: "escaped dollar disables expansion",
			src:  `echo \$HOME`,
			want: []Token{
				{Text: "echo"},
				{Text: "$HOME", noExpand: true},
			},
		},
		{
			name: "escaped star disables globbing",
			src:  `echo \*`,
			want: []Token{
				{Text: "echo"},
				{Text: "*", noGlob: true},
			},
		},
		{
			name: "whole word substitution",
			src:  "echo $(ls /tmp)",
			want: []Token{
				{Text: "echo"},
				{Text: "ls /tmp", Quoting: QuotingSubstitution},
			},
		},
		{
			name: "backticks normalize to substitution",
			src:  "echo `date`",
			want: []Token{
				{Text: "echo"},
				{Text: "date", Quoting: QuotingSubstitution},
			},
		},
		{
			name: "embedded substitution stays in the word",
			src:  "echo pre$(x)post",
			want: []Token{
				{Text: "echo"},
				{Text: "pre$(x)post"},
			},
		},
		{
			name: "nested substitution",
			src:  "echo $(echo $(echo hi))",
			want: []Token{
				{Text: "echo"},
				{Text: "echo $(echo hi)", Quoting: QuotingSubstitution},
			},
		},
		{
			name: "substitution inside double quotes",
			src:  `echo "now: $(date)"`,
			want: []Token{
				{Text: "echo"},
				{Text: "now: $(date)", Quoting: QuotingDouble},
			},
		},
		{
			name: "redirection operators",
			src:  "cmd < in > out 2> err",
			want: []Token{
				{Text: "cmd"},
				{Text: "<", Op: true},
				{Text: "in"},
				{Text: ">", Op: true},
				{Text: "out"},
				{Text: "2>", Op: true},
				{Text: "err"},
			},
		},
		{
			name: "append and fd duplication",
			src:  "cmd >> log 2>&1",
			want: []Token{
				{Text: "cmd"},
				{Text: ">>", Op: true},
				{Text: "log"},
				{Text: "2>&1", Op: true},
			},
		},
		{
			name: "combined stream redirect",
			src:  "cmd &> both",
			want: []Token{
				{Text: "cmd"},
				{Text: "&>", Op: true},
				{Text: "both"},
			},
		},
		{
			name: "digits without redirection stay words",
			src:  "echo 2 3",
			want: []Token{
				{Text: "echo"},
				{Text: "2"},
				{Text: "3"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Tokenize(tc.src)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got, tokenCmpOpts...); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		msg  string
	}{
		{"unterminated single quote", "echo 'oops", "unterminated"},
		{"unterminated double quote", `echo "oops`, "unterminated"},
		{"unmatched substitution", "echo $(ls", "unmatched substitution parenthesis"},
		{"heredoc", "cat << EOF", "heredocs are not supported"},
		{"background operator", "sleep 1 &", `unsupported operator "&"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Tokenize(tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)

			var syntaxErr *SyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
		})
	}
}

func TestTokenizeSpaceBefore(t *testing.T) {
	got, err := Tokenize("a b|c")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.False(t, got[0].SpaceBefore)
	assert.True(t, got[1].SpaceBefore)
	assert.False(t, got[2].SpaceBefore)
	assert.False(t, got[3].SpaceBefore)
}
