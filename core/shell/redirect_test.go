package shell

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/josephlewis42/iocsh/core/vos"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirects_WriteAndRestore(t *testing.T) {
	fs := afero.NewMemMapFs()
	stdout := &bytes.Buffer{}
	streams := vos.NewVIOAdapter(nil, stdout, nil)
	original := streams.Stdout()

	line, err := Split("cmd > out.txt")
	require.NoError(t, err)

	require.NoError(t, line.Redirects.Open(fs, nil))
	line.Redirects.Activate(streams)
	fmt.Fprint(streams.Stdout(), "redirected")
	assert.NoError(t, line.Redirects.Deactivate(streams))

	assert.Equal(t, original, streams.Stdout())
	fmt.Fprint(streams.Stdout(), "console")

	contents, err := afero.ReadFile(fs, "out.txt")
	assert.NoError(t, err)
	assert.Equal(t, "redirected", string(contents))
	assert.Equal(t, "console", stdout.String())

	// Idempotent
	assert.NoError(t, line.Redirects.Deactivate(streams))
	assert.Equal(t, original, streams.Stdout())
}

func TestRedirects_Modes(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "log", []byte("first\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "trunc", []byte("old contents\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "in", []byte("input"), 0644))

	streams := vos.NewNullIO()
	line, err := Split("cmd <in >trunc 2>>log")
	require.NoError(t, err)

	require.NoError(t, line.Redirects.Open(fs, nil))
	line.Redirects.Activate(streams)

	input, err := io.ReadAll(streams.Stdin())
	assert.NoError(t, err)
	fmt.Fprint(streams.Stdout(), "new\n")
	fmt.Fprint(streams.Stderr(), "second\n")

	assert.NoError(t, line.Redirects.Deactivate(streams))

	assert.Equal(t, "input", string(input))
	trunc, _ := afero.ReadFile(fs, "trunc")
	assert.Equal(t, "new\n", string(trunc))
	log, _ := afero.ReadFile(fs, "log")
	assert.Equal(t, "first\nsecond\n", string(log))
}

func TestRedirects_OpenFailureClosesOpened(t *testing.T) {
	fs := afero.NewMemMapFs()
	line, err := Split("cmd <missing >out")
	require.NoError(t, err)

	err = line.Redirects.Open(fs, nil)

	var redirectErr *RedirectError
	require.True(t, errors.As(err, &redirectErr))
	assert.Equal(t, "missing", redirectErr.Name)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, `Can't open "missing": file does not exist.`, err.Error())

	for _, r := range line.Redirects {
		assert.Nil(t, r.File())
	}
}

func TestRedirects_EmptyName(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/ioc", 0755))

	line, err := Split(`cmd < ""`)
	require.NoError(t, err)
	require.NotNil(t, line.Redirects.Input())

	err = line.Redirects.Open(fs, func(name string) string {
		return "/ioc/" + name
	})

	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Nil(t, line.Redirects[0].File())
}

func TestRedirects_ExtraDescriptorsNotActivated(t *testing.T) {
	fs := afero.NewMemMapFs()
	streams := vos.NewNullIO()
	original := streams.Stdout()

	line, err := Split("cmd 5>five")
	require.NoError(t, err)
	require.NoError(t, line.Redirects.Open(fs, nil))
	line.Redirects.Activate(streams)

	assert.Equal(t, original, streams.Stdout())
	require.NotNil(t, line.Redirects[5].File())
	fmt.Fprint(line.Redirects[5].File(), "5")
	assert.NoError(t, line.Redirects.Deactivate(streams))

	contents, _ := afero.ReadFile(fs, "five")
	assert.Equal(t, "5", string(contents))
}

func TestRedirects_Resolve(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/ioc/boot", 0755))

	line, err := Split("cmd >out")
	require.NoError(t, err)
	require.NoError(t, line.Redirects.Open(fs, func(name string) string {
		return "/ioc/boot/" + name
	}))
	assert.NoError(t, line.Redirects.Deactivate(vos.NewNullIO()))

	exists, _ := afero.Exists(fs, "/ioc/boot/out")
	assert.True(t, exists)
}
