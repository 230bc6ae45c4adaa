package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/josephlewis42/iocsh/core/logger"
	"github.com/josephlewis42/iocsh/core/shell"
	"github.com/stretchr/testify/assert"
)

func TestErrlog(t *testing.T) {
	var events bytes.Buffer
	ts := newTestShell(t, shell.Options{
		Events: logger.NewJSONLinesLogger(&events).Sessionless(),
	})

	assert.NoError(t, ts.Run(context.Background(), `errlog "pump 1 offline"`, ""))
	assert.Empty(t, ts.out.String(), "errlog doesn't write to the console")

	var messages []string
	err := logger.ReadJSONLinesLog(&events, func(le *logger.LogEntry) {
		if le.Event == logger.EventErrlog {
			messages = append(messages, le.Message)
		}
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"pump 1 offline"}, messages)
}
