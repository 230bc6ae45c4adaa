package console

import (
	"os"

	"github.com/josephlewis42/iocsh/core/logger"
	"github.com/josephlewis42/iocsh/core/vos"
	"github.com/spf13/afero"
)

// NewSessionFs records every file a session opens or modifies in the event
// log. If readOnly is set, modifications are rejected with os.ErrPermission.
func NewSessionFs(base afero.Fs, events *logger.SessionLogger, readOnly bool) afero.Fs {
	return vos.NewAuditFs(base, func(op vos.FsOp, name string) error {
		var err error
		if readOnly && vos.IsWriteOp(op) {
			err = os.ErrPermission
		}

		// Completion stats paths on every keystroke.
		if op != vos.FsOpStat && op != vos.FsOpLstat {
			events.FileAccess(op, name, err == nil)
		}
		return err
	})
}
