package cmd

import (
	"context"

	"github.com/josephlewis42/iocsh/core/shell"
)

// resumeOnSignal is a no-op, Windows has no SIGUSR1. Use epicsThreadResume.
func resumeOnSignal(ctx context.Context, sh *shell.Shell) {}
