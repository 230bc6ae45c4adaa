package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/iocsh/core/histstore"
	"github.com/josephlewis42/iocsh/core/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHistoryShell(t *testing.T) *testShell {
	t.Helper()

	store, err := histstore.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for _, line := range []string{"dbl", "dbpf pump:speed 10", "iocInit"} {
		_, err := store.AddCmd(line)
		require.NoError(t, err)
	}

	return newTestShell(t, shell.Options{History: store})
}

func TestHistory(t *testing.T) {
	cases := map[string]struct {
		line     string
		expected string
	}{
		"all":   {"history", "    1  dbl\n    2  dbpf pump:speed 10\n    3  iocInit\n"},
		"count": {"history 2", "    2  dbpf pump:speed 10\n    3  iocInit\n"},
		"zero":  {"history 0", "    1  dbl\n    2  dbpf pump:speed 10\n    3  iocInit\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newHistoryShell(t)

			assert.NoError(t, ts.Run(context.Background(), tc.line, ""))
			assert.Equal(t, tc.expected, ts.out.String())
		})
	}
}

func TestHistory_Clear(t *testing.T) {
	ts := newHistoryShell(t)

	assert.NoError(t, ts.Run(context.Background(), "history -c", ""))
	assert.NoError(t, ts.Run(context.Background(), "history", ""))

	assert.Empty(t, ts.out.String())

	next, err := ts.History().NextCmdSeq()
	assert.NoError(t, err)
	assert.Equal(t, 4, next)
}

func TestHistory_Errors(t *testing.T) {
	t.Run("bad count", func(t *testing.T) {
		ts := newHistoryShell(t)

		assert.Equal(t, shell.ErrBreak, ts.Run(context.Background(), "history many", ""))
		assert.Equal(t, "many: numeric argument required\niocsh Error: Break\n", ts.out.String())
	})

	t.Run("bad flag", func(t *testing.T) {
		ts := newHistoryShell(t)

		assert.Equal(t, shell.ErrBreak, ts.Run(context.Background(), "history -z", ""))
		assert.Contains(t, ts.out.String(), "error: ")
		assert.Contains(t, ts.out.String(), "usage: history [-c] [count]\n")
	})

	t.Run("disabled", func(t *testing.T) {
		ts := newTestShell(t, shell.Options{})

		assert.Equal(t, shell.ErrBreak, ts.Run(context.Background(), "history", ""))
		assert.Equal(t, "history isn't enabled\niocsh Error: Break\n", ts.out.String())
	})
}
