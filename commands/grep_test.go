package commands

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpad/websh/core/vos/vostest"
)

func TestGrep_stdin(t *testing.T) {
	cmd := vostest.Command(Grep, "grep", "needle")
	cmd.Stdin = strings.NewReader("hay\nneedle here\nmore hay\n")

	out, err := cmd.CombinedOutput()
	require.NoError(t, err)

	assert.Equal(t, 0, cmd.ExitStatus)
	assert.Equal(t, "needle here\n", string(out))
}

func TestGrep_flags(t *testing.T) {
	cases := []struct {
		name string
		args []string
		in   string
		want string
		code int
	}{
		{
			name: "ignore case",
			args: []string{"grep", "-i", "abc"},
			in:   "ABC\nxyz\n",
			want: "ABC\n",
		},
		{
			name: "invert",
			args: []string{"grep", "-v", "abc"},
			in:   "abc\nxyz\n",
			want: "xyz\n",
		},
		{
			name: "line numbers",
			args: []string{"grep", "-n", "b"},
			in:   "a\nb\nc\nb\n",
			want: "2:b\n4:b\n",
		},
		{
			name: "no match exits one",
			args: []string{"grep", "zzz"},
			in:   "a\nb\n",
			want: "",
			code: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := vostest.Command(Grep, tc.args[0], tc.args[1:]...)
			cmd.Stdin = strings.NewReader(tc.in)

			out, err := cmd.CombinedOutput()
			require.NoError(t, err)

			assert.Equal(t, tc.code, cmd.ExitStatus)
			assert.Equal(t, tc.want, string(out))
		})
	}
}

func TestGrep_multipleFiles(t *testing.T) {
	cmd := vostest.Command(Grep, "grep", "x", "/a", "/b")
	require.NoError(t, afero.WriteFile(cmd.VOS, "/a", []byte("x1\ny\n"), 0600))
	require.NoError(t, afero.WriteFile(cmd.VOS, "/b", []byte("x2\n"), 0600))

	out, err := cmd.CombinedOutput()
	require.NoError(t, err)

	assert.Equal(t, "/a:x1\n/b:x2\n", string(out))
}

func TestGrep_badPattern(t *testing.T) {
	cmd := vostest.Command(Grep, "grep", "[")

	out, err := cmd.CombinedOutput()
	require.NoError(t, err)

	assert.Equal(t, 2, cmd.ExitStatus)
	assert.Contains(t, string(out), "grep:")
}
