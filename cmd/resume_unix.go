//go:build !windows

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/josephlewis42/iocsh/core/shell"
)

// resumeOnSignal resumes sh each time the process gets SIGUSR1 until ctx
// is done.
func resumeOnSignal(ctx context.Context, sh *shell.Shell) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR1)

	go func() {
		defer signal.Stop(sig)
		for {
			select {
			case <-sig:
				sh.Resume()
			case <-ctx.Done():
				return
			}
		}
	}()
}
