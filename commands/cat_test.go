package commands

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpad/websh/core/vos/vostest"
)

func TestCat_missing(t *testing.T) {
	cmd := vostest.Command(Cat, "cat", "/nope.txt")

	out, err := cmd.CombinedOutput()
	require.NoError(t, err)

	assert.NotEqual(t, 0, cmd.ExitStatus, "exit code")
	assert.Contains(t, string(out), "no such file or directory")
}

func TestCat_files(t *testing.T) {
	cmd := vostest.Command(Cat, "cat", "/foo.txt", "/bar.txt")
	require.NoError(t, afero.WriteFile(cmd.VOS, "/foo.txt", []byte("Hello, "), 0600))
	require.NoError(t, afero.WriteFile(cmd.VOS, "/bar.txt", []byte("world!"), 0600))

	out, err := cmd.CombinedOutput()
	require.NoError(t, err)

	assert.Equal(t, 0, cmd.ExitStatus, "exit code")
	assert.Equal(t, "Hello, world!", string(out))
}

func TestCat_stdin(t *testing.T) {
	cmd := vostest.Command(Cat, "cat")
	cmd.Stdin = strings.NewReader("from stdin\n")

	out, err := cmd.CombinedOutput()
	require.NoError(t, err)

	assert.Equal(t, 0, cmd.ExitStatus)
	assert.Equal(t, "from stdin\n", string(out))
}

func TestCat_numbered(t *testing.T) {
	cmd := vostest.Command(Cat, "cat", "-n", "/lines.txt")
	require.NoError(t, afero.WriteFile(cmd.VOS, "/lines.txt", []byte("one\ntwo\n"), 0600))

	out, err := cmd.CombinedOutput()
	require.NoError(t, err)

	assert.Equal(t, 0, cmd.ExitStatus)
	assert.Equal(t, "     1\tone\n     2\ttwo\n", string(out))
}
