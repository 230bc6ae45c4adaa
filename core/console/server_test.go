package console

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"log"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/josephlewis42/iocsh/core/config"
	"github.com/josephlewis42/iocsh/core/logger"
	"github.com/josephlewis42/iocsh/core/shell"
	"github.com/josephlewis42/iocsh/core/vos"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testServer struct {
	addr   string
	fs     afero.Fs
	cfg    *config.Configuration
	events *syncBuffer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	fs := afero.NewMemMapFs()
	cfg, err := config.InitializeFs(fs, "/ioc", log.New(ioutil.Discard, "", 0))
	require.NoError(t, err)
	cfg.Color = false
	cfg.Console.Banner = "pump controller\n"

	table := shell.NewTable(nil)
	table.MustRegister(shell.FuncDef{Name: "hello"}, func(s *shell.Shell, _ shell.Args) error {
		fmt.Fprintln(s.Stdout(), "hello world")
		return nil
	})
	table.MustRegister(shell.FuncDef{Name: "sessions"}, func(s *shell.Shell, _ shell.Args) error {
		for _, sh := range s.Table().Sessions() {
			fmt.Fprintln(s.Stdout(), sh.Name())
		}
		return nil
	})

	events := &syncBuffer{}
	srv, err := New(Options{
		Config: cfg,
		Table:  table,
		Env:    vos.NewMapEnv(),
		Fs:     fs,
		Dir:    "/ioc",
		Events: logger.NewJSONLinesLogger(events),
	})
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(l)
	t.Cleanup(func() { l.Close() })

	return &testServer{addr: l.Addr().String(), fs: fs, cfg: cfg, events: events}
}

func (ts *testServer) dial(user, password string) (*gossh.Client, error) {
	return gossh.Dial("tcp", ts.addr, &gossh.ClientConfig{
		User:            user,
		Auth:            []gossh.AuthMethod{gossh.Password(password)},
		HostKeyCallback: gossh.InsecureIgnoreHostKey(),
	})
}

func TestServer_Command(t *testing.T) {
	ts := newTestServer(t)

	client, err := ts.dial("operator", "changeme")
	require.NoError(t, err)
	defer client.Close()

	t.Run("success", func(t *testing.T) {
		sess, err := client.NewSession()
		require.NoError(t, err)
		defer sess.Close()

		out, err := sess.CombinedOutput("hello")

		assert.NoError(t, err)
		assert.Equal(t, "hello world\n", string(out))
	})

	t.Run("unknown command", func(t *testing.T) {
		sess, err := client.NewSession()
		require.NoError(t, err)
		defer sess.Close()

		out, err := sess.CombinedOutput("dbl")

		var exitErr *gossh.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 1, exitErr.ExitStatus())
		assert.Equal(t, "Command dbl not found.\niocsh Error: Break\n", string(out))
	})

	t.Run("listed under the session id", func(t *testing.T) {
		sess, err := client.NewSession()
		require.NoError(t, err)
		defer sess.Close()

		out, err := sess.Output("sessions")

		require.NoError(t, err)
		id := strings.TrimSpace(string(out))
		require.NotEmpty(t, id)
		assert.NotContains(t, id, "\n")
		assert.Contains(t, ts.events.String(), fmt.Sprintf(`"session_id":%q`, id))
	})

	assert.Contains(t, ts.events.String(), `"msg":"run_command"`)
	assert.Contains(t, ts.events.String(), `"msg":"unknown_command"`)
}

func TestServer_Interactive(t *testing.T) {
	ts := newTestServer(t)

	client, err := ts.dial("operator", "changeme")
	require.NoError(t, err)
	defer client.Close()

	sess, err := client.NewSession()
	require.NoError(t, err)
	defer sess.Close()

	var out, errOut bytes.Buffer
	sess.Stdin = strings.NewReader("hello\n")
	sess.Stdout = &out
	sess.Stderr = &errOut

	require.NoError(t, sess.Shell())
	assert.NoError(t, sess.Wait())

	assert.Equal(t, "pump controller\niocsh> hello world\niocsh> ", out.String())
	assert.Empty(t, errOut.String())

	recordings, err := afero.ReadDir(ts.fs, "/ioc/session_logs")
	require.NoError(t, err)
	require.Len(t, recordings, 1)
	assert.True(t, strings.HasSuffix(recordings[0].Name(), ".cast"))

	cast, err := afero.ReadFile(ts.fs, "/ioc/session_logs/"+recordings[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(cast), `"i","hello\n"`)
	assert.Contains(t, string(cast), `"o","hello world\n"`)

	assert.Contains(t, ts.events.String(), `"msg":"open_tty_log"`)
	assert.Equal(t, 1, strings.Count(ts.events.String(), `"msg":"session_start"`))
	assert.Equal(t, 1, strings.Count(ts.events.String(), `"msg":"session_end"`))
}

func TestServer_RejectsBadPassword(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.dial("operator", "hunter2")
	assert.Error(t, err)

	_, err = ts.dial("root", "changeme")
	assert.Error(t, err)

	assert.Contains(t, ts.events.String(), `"username":"operator","remote_addr"`)
	assert.Contains(t, ts.events.String(), `"result":"rejected"`)
	assert.NotContains(t, ts.events.String(), `"result":"accepted"`)
}
