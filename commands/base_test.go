package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/josephlewis42/iocsh/core/shell"
	"github.com/josephlewis42/iocsh/core/vos"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, time.March, 5, 14, 7, 9, 123456789, time.UTC)

func init() {
	now = func() time.Time { return testTime }
}

type testShell struct {
	*shell.Shell
	fs  afero.Fs
	env *vos.MapEnv
	out *bytes.Buffer
}

func newTestShell(t *testing.T, opts shell.Options) *testShell {
	t.Helper()

	table := shell.NewTable(nil)
	require.NoError(t, Register(table))

	ts := &testShell{
		fs:  afero.NewMemMapFs(),
		env: vos.NewMapEnvFromEnvList([]string{"EPICS_BASE=/opt/epics/base", "ARCH=linux-x86_64"}),
		out: &bytes.Buffer{},
	}
	require.NoError(t, ts.fs.MkdirAll("/ioc/db", 0755))

	opts.Table = table
	opts.Env = ts.env
	opts.Fs = ts.fs
	opts.Dir = "/ioc"
	opts.Stdout = ts.out
	opts.Stderr = ts.out
	ts.Shell = shell.New(opts)

	return ts
}

func TestRegister(t *testing.T) {
	table := shell.NewTable(nil)
	require.NoError(t, Register(table))

	for _, cmd := range ListCommands() {
		t.Run(cmd.Def.Name, func(t *testing.T) {
			assert.NoError(t, shell.ValidateDef(cmd.Def))

			registered, ok := table.FindCommand(cmd.Def.Name)
			assert.True(t, ok)
			assert.Equal(t, cmd.Def, registered.Def)
		})
	}
}

func TestListCommands(t *testing.T) {
	var names []string
	for _, cmd := range ListCommands() {
		names = append(names, cmd.Def.Name)
	}

	assert.Equal(t, []string{
		"cd",
		"date",
		"echo",
		"epicsEnvSet",
		"epicsEnvShow",
		"epicsEnvUnset",
		"epicsParamShow",
		"epicsPrtEnvParams",
		"epicsThreadResume",
		"epicsThreadShow",
		"epicsThreadSleep",
		"errlog",
		"history",
		"pwd",
		"registryDump",
	}, names)
}

type goldenTestSuite map[string]goldenTest

type goldenTest struct {
	Line string
}

// Run executes each line in a fresh shell and compares the combined output
// to testdata/golden/<TestName>/<case>.golden.
func (gts goldenTestSuite) Run(t *testing.T) {
	t.Helper()

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	var names []string
	for tn := range gts {
		names = append(names, tn)
	}
	sort.Strings(names)

	for _, tn := range names {
		ts := newTestShell(t, shell.Options{})

		// Failures are part of the transcript.
		_ = ts.Run(context.Background(), gts[tn].Line, "")

		g.Assert(t, tn, ts.out.Bytes())
	}
}
