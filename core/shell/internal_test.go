package shell

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func newInternalShell(table *Table) (*Shell, *bytes.Buffer) {
	var out bytes.Buffer
	s := New(Options{
		Table:  table,
		Fs:     afero.NewMemMapFs(),
		Dir:    "/",
		Stdout: &out,
		Stderr: &out,
	})
	return s, &out
}

func TestHelp(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"list", "help"},
		{"on", "help on"},
		{"iocsh-glob", "help iocsh*"},
		{"no-usage", "help # exit"},
		{"no-match", "help dbl"},
	}

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	for _, tc := range cases {
		s, out := newInternalShell(NewTable(nil))

		assert.NoError(t, s.Run(context.Background(), tc.line, ""), tc.name)

		g.Assert(t, tc.name, out.Bytes())
	}
}

func TestVar(t *testing.T) {
	table := NewTable(nil)
	debug := 0
	timeout := 1.5
	assert.NoError(t, table.RegisterVariable(VarDef{Name: "dbTimeout", Type: ArgDouble, Storage: &timeout}))
	assert.NoError(t, table.RegisterVariable(VarDef{Name: "asCaDebug", Type: ArgInt, Storage: &debug}))

	cases := map[string]struct {
		line     string
		expected string
	}{
		"list":          {"var", "asCaDebug = 0\ndbTimeout = 1.5\n"},
		"glob":          {"var db*", "dbTimeout = 1.5\n"},
		"single":        {"var asCaDebug", "asCaDebug = 0\n"},
		"no match":      {"var x*", "No var matching x* found.\n"},
		"unknown":       {"var nope 1", "Var nope not found.\n"},
		"bad int":       {"var asCaDebug abc", "Invalid integer value. Var asCaDebug not changed.\n"},
		"bad double":    {"var dbTimeout soon", "Invalid double value. Var dbTimeout not changed.\n"},
		"double format": {"var dbTimeout", "dbTimeout = 1.5\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			s, out := newInternalShell(table)

			assert.NoError(t, s.Run(context.Background(), tc.line, ""))
			assert.Equal(t, tc.expected, out.String())
		})
	}

	t.Run("set", func(t *testing.T) {
		s, out := newInternalShell(table)
		defer func() {
			debug = 0
			timeout = 1.5
		}()

		assert.NoError(t, s.Run(context.Background(), "var asCaDebug 0x10", ""))
		assert.NoError(t, s.Run(context.Background(), "var dbTimeout 0.333333333", ""))
		assert.NoError(t, s.Run(context.Background(), "var", ""))

		assert.Equal(t, 16, debug)
		assert.Equal(t, 0.333333333, timeout)
		assert.Equal(t, "asCaDebug = 16\ndbTimeout = 0.333333\n", out.String())
	})
}

func TestOn_Usage(t *testing.T) {
	cases := []string{
		"on",
		"on error",
		"on failure break",
	}

	for _, line := range cases {
		s, out := newInternalShell(NewTable(nil))

		assert.NoError(t, s.Run(context.Background(), line, ""), line)
		assert.Equal(t, onUsage+"\n", out.String(), line)
	}
}

func TestOn_WaitWithoutValue(t *testing.T) {
	ts := newTestShell(t, "", map[string]string{"/st.cmd": "on error wait\nbadcmd\ngoodcmd\n"})

	// Without a value the policy is halt with no timeout.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		assert.Eventually(t, func() bool {
			return strings.Contains(ts.out.String(), "iocsh Error: Halt\n")
		}, time.Second, time.Millisecond)
		cancel()
	}()

	err := ts.Load(ctx, "st.cmd", "")

	assert.Equal(t, ErrHalt, err)
	assert.Empty(t, ts.Ran())
	assert.Contains(t, ts.out.String(), onUsage+"\n")
}
