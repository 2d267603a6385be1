package commands

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/devpad/websh/core/vos"
	"github.com/devpad/websh/core/vos/vostest"
)

func ExampleBytesToHuman() {
	// < 1k is presented directly
	fmt.Println(BytesToHuman(512))

	// Multiples > 10 are shown without decimal.
	fmt.Println(BytesToHuman(23 * 10e8))

	// Multiples < 10 are shown with decimal.
	fmt.Println(BytesToHuman(5 * 1024))

	// Output: 512
	// 23G
	// 5.1K
}

func TestAllCommandsRegistered(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			if AllCommands[name] == nil {
				t.Fatal("nil command", name)
			}
		})
	}
}

func TestResolver(t *testing.T) {
	resolver := Resolver()

	assert.NotNil(t, resolver("ls"))
	assert.NotNil(t, resolver("/bin/ls"))
	assert.NotNil(t, resolver("/usr/bin/ls"))
	assert.Nil(t, resolver("/opt/ls"))
	assert.Nil(t, resolver("doesnotexist"))
}

type goldenTestSuite map[string]goldenTest

type goldenTest struct {
	Args  []string
	Setup func(vos.VOS) error
}

// Run executes each case and compares combined output against the golden
// file named <prefix>-<case>.golden under testdata/golden.
func (gts goldenTestSuite) Run(t *testing.T, prefix string, proc vos.ProcessFunc) {
	t.Helper()

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
	)

	for tn, tc := range gts {
		t.Run(tn, func(t *testing.T) {
			cmd := vostest.Command(proc, tc.Args[0], tc.Args[1:]...)
			cmd.Setup = tc.Setup
			out, err := cmd.CombinedOutput()
			if err != nil {
				t.Fatal(err)
			}

			g.Assert(t, prefix+"-"+tn, out)
		})
	}
}
