package sh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseLine(t *testing.T, src string) *ParsedLine {
	t.Helper()
	tokens, err := Tokenize(src)
	require.NoError(t, err)
	line, err := ParseLine(tokens)
	require.NoError(t, err)
	return line
}

func TestParseLineSegments(t *testing.T) {
	line := mustParseLine(t, "a one && b || c two three")
	require.Len(t, line.Segments, 3)

	assert.Equal(t, "&&", line.Segments[0].LogicalOp)
	assert.Equal(t, "||", line.Segments[1].LogicalOp)
	assert.Equal(t, "", line.Segments[2].LogicalOp)

	assert.Len(t, line.Segments[0].Tokens, 2)
	assert.Len(t, line.Segments[1].Tokens, 1)
	assert.Len(t, line.Segments[2].Tokens, 3)
}

func TestParseLinePipeline(t *testing.T) {
	line := mustParseLine(t, "cat f | grep x | wc")
	require.Len(t, line.Segments, 1)

	head := line.Segments[0]
	require.NotNil(t, head.PipeTo)
	require.NotNil(t, head.PipeTo.PipeTo)
	assert.Nil(t, head.PipeTo.PipeTo.PipeTo)

	assert.Equal(t, "cat", head.Tokens[0].Text)
	assert.Equal(t, "grep", head.PipeTo.Tokens[0].Text)
	assert.Equal(t, "wc", head.PipeTo.PipeTo.Tokens[0].Text)
}

func TestParseLineRedirections(t *testing.T) {
	t.Run("stdout and stderr files", func(t *testing.T) {
		line := mustParseLine(t, "cmd > out 2> err")
		seg := line.Segments[0]
		require.NotNil(t, seg.StdoutFile)
		require.NotNil(t, seg.StderrFile)
		assert.Equal(t, "out", seg.StdoutFile.Path)
		assert.Equal(t, "err", seg.StderrFile.Path)
		assert.False(t, seg.StdoutFile.Append)
	})

	t.Run("append", func(t *testing.T) {
		line := mustParseLine(t, "cmd >> log")
		seg := line.Segments[0]
		require.NotNil(t, seg.StdoutFile)
		assert.True(t, seg.StdoutFile.Append)
	})

	t.Run("stdin", func(t *testing.T) {
		line := mustParseLine(t, "cmd < in")
		seg := line.Segments[0]
		require.NotNil(t, seg.StdinFile)
		assert.Equal(t, "in", seg.StdinFile.Path)
	})

	t.Run("stderr follows stdout to a file", func(t *testing.T) {
		line := mustParseLine(t, "cmd > /dev/null 2>&1")
		seg := line.Segments[0]
		require.NotNil(t, seg.StdoutFile)
		assert.Equal(t, SpecialNull, seg.StdoutFile.Special)
		assert.True(t, seg.StderrToStdout)
		assert.Same(t, seg.StdoutFile, seg.StderrFile)
	})

	t.Run("dup before the stdout file stays on the default stream", func(t *testing.T) {
		line := mustParseLine(t, "cmd 2>&1 > out")
		seg := line.Segments[0]
		assert.True(t, seg.StderrToStdout)
		assert.Nil(t, seg.StderrFile)
		require.NotNil(t, seg.StdoutFile)
	})

	t.Run("stderr to default stdout", func(t *testing.T) {
		line := mustParseLine(t, "cmd 2>&1")
		seg := line.Segments[0]
		assert.True(t, seg.StderrToStdout)
		assert.Nil(t, seg.StderrFile)
	})

	t.Run("stdout to stderr", func(t *testing.T) {
		line := mustParseLine(t, "cmd 1>&2")
		seg := line.Segments[0]
		assert.True(t, seg.StdoutToStderr)
	})

	t.Run("combined streams", func(t *testing.T) {
		line := mustParseLine(t, "cmd &> both")
		seg := line.Segments[0]
		require.NotNil(t, seg.StdoutFile)
		assert.Same(t, seg.StdoutFile, seg.StderrFile)
	})

	t.Run("high descriptors", func(t *testing.T) {
		line := mustParseLine(t, "cmd 3> three")
		seg := line.Segments[0]
		require.Contains(t, seg.FdFiles, 3)
		assert.Equal(t, "three", seg.FdFiles[3].Path)
	})

	t.Run("special file tagging", func(t *testing.T) {
		line := mustParseLine(t, "cmd < /dev/zero > /dev/stderr")
		seg := line.Segments[0]
		assert.Equal(t, SpecialZero, seg.StdinFile.Special)
		assert.Equal(t, SpecialStderr, seg.StdoutFile.Special)
	})

	t.Run("redirections migrate to the final stage", func(t *testing.T) {
		line := mustParseLine(t, "a > out | b")
		head := line.Segments[0]
		assert.Nil(t, head.StdoutFile)
		require.NotNil(t, head.PipeTo)
		require.NotNil(t, head.PipeTo.StdoutFile)
		assert.Equal(t, "out", head.PipeTo.StdoutFile.Path)
	})
}

func TestParseLineErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		msg  string
	}{
		{"leading pipe", "| cmd", "missing command before |"},
		{"trailing pipe", "cmd |", "missing command after |"},
		{"trailing and", "cmd &&", "missing command"},
		{"missing redirect target", "cmd >", "missing redirection target"},
		{"redirect into operator", "cmd > | other", "missing redirection target"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tokens, err := Tokenize(tc.src)
			require.NoError(t, err)
			_, err = ParseLine(tokens)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestParseScriptStatements(t *testing.T) {
	script, err := ParseScript("echo a; echo b\necho c")
	require.NoError(t, err)
	require.Len(t, script.Statements, 3)
	for _, st := range script.Statements {
		assert.IsType(t, &CommandStatement{}, st)
	}
}

func TestParseScriptBadStatementIsLocal(t *testing.T) {
	script, err := ParseScript("echo a\n| broken\necho b")
	require.NoError(t, err)
	require.Len(t, script.Statements, 3)

	assert.IsType(t, &CommandStatement{}, script.Statements[0])
	assert.IsType(t, &BadStatement{}, script.Statements[1])
	assert.IsType(t, &CommandStatement{}, script.Statements[2])
}

func TestParseScriptFor(t *testing.T) {
	script, err := ParseScript("for f in a b c; do echo $f; echo x; done")
	require.NoError(t, err)
	require.Len(t, script.Statements, 1)

	loop, ok := script.Statements[0].(*ForStatement)
	require.True(t, ok)
	assert.Equal(t, "f", loop.Var)
	assert.Len(t, loop.Words, 3)
	assert.Len(t, loop.Body, 2)
}

func TestParseScriptForNested(t *testing.T) {
	script, err := ParseScript("for a in 1 2; do for b in 3 4; do echo $a$b; done; done")
	require.NoError(t, err)
	require.Len(t, script.Statements, 1)

	outer := script.Statements[0].(*ForStatement)
	require.Len(t, outer.Body, 1)
	inner, ok := outer.Body[0].(*ForStatement)
	require.True(t, ok)
	assert.Equal(t, "b", inner.Var)
}

func TestParseScriptForKeywordArguments(t *testing.T) {
	script, err := ParseScript("for x in 1 2; do echo done; done")
	require.NoError(t, err)
	require.Len(t, script.Statements, 1)

	loop, ok := script.Statements[0].(*ForStatement)
	require.True(t, ok)
	require.Len(t, loop.Body, 1)

	cmd, ok := loop.Body[0].(*CommandStatement)
	require.True(t, ok)
	tokens := cmd.Line.Segments[0].Tokens
	require.Len(t, tokens, 2)
	assert.Equal(t, "done", tokens[1].Text)
}

func TestParseScriptForMalformedResyncs(t *testing.T) {
	script, err := ParseScript("for in x; do echo hi; done; echo after")
	require.NoError(t, err)
	require.Len(t, script.Statements, 2)

	assert.IsType(t, &BadStatement{}, script.Statements[0])
	assert.IsType(t, &CommandStatement{}, script.Statements[1])
}

func TestSegmentStringRoundTrip(t *testing.T) {
	cases := []string{
		"echo hello",
		"echo 'a b' \"c d\"",
		"cat f | grep x | wc",
		"cmd < in > out 2> err",
		"cmd >> log 2>&1",
		"a && b || c",
		"cmd > /dev/null 2>&1",
		"cmd 2>&1 > out",
	}

	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			first := mustParseLine(t, src)
			canonical := first.String()
			second := mustParseLine(t, canonical)
			assert.Equal(t, canonical, second.String())
		})
	}
}
