package vos

import (
	"os"
	"time"

	"github.com/spf13/afero"
)

// FsOp is a textual description of the filesystem operation.
type FsOp = string

const (
	FsOpChtimes  FsOp = "chtimes"
	FsOpChmod    FsOp = "chmod"
	FsOpChown    FsOp = "chown"
	FsOpStat     FsOp = "stat"
	FsOpRename   FsOp = "rename"
	FsOpRemove   FsOp = "remove"
	FsOpOpen     FsOp = "open"
	FsOpWrite    FsOp = "write"
	FsOpMkdir    FsOp = "mkdir"
	FsOpCreate   FsOp = "create"
	FsOpLstat    FsOp = "lstat"
	FsOpReadlink FsOp = "readlink"
)

// IsWriteOp reports whether op modifies the filesystem.
func IsWriteOp(op FsOp) bool {
	switch op {
	case FsOpChtimes, FsOpChmod, FsOpChown, FsOpRename, FsOpRemove, FsOpWrite, FsOpMkdir, FsOpCreate:
		return true
	default:
		return false
	}
}

// Auditor is told about every operation before it happens, a non-nil error
// rejects it.
type Auditor func(op FsOp, name string) error

// AuditFs passes every path based operation through an Auditor before
// handing it to the base filesystem.
type AuditFs struct {
	BaseFs  afero.Fs
	Auditor Auditor
}

var _ afero.Lstater = (*AuditFs)(nil)

// NewAuditFs wraps base.
func NewAuditFs(base afero.Fs, auditor Auditor) afero.Fs {
	return &AuditFs{BaseFs: base, Auditor: auditor}
}

func (b *AuditFs) check(op FsOp, name string) error {
	if err := b.Auditor(op, name); err != nil {
		return &os.PathError{Op: op, Path: name, Err: err}
	}
	return nil
}

func (b *AuditFs) Chtimes(name string, atime, mtime time.Time) error {
	if err := b.check(FsOpChtimes, name); err != nil {
		return err
	}
	return b.BaseFs.Chtimes(name, atime, mtime)
}

func (b *AuditFs) Chmod(name string, mode os.FileMode) error {
	if err := b.check(FsOpChmod, name); err != nil {
		return err
	}
	return b.BaseFs.Chmod(name, mode)
}

func (b *AuditFs) Chown(name string, uid, gid int) error {
	if err := b.check(FsOpChown, name); err != nil {
		return err
	}
	return b.BaseFs.Chown(name, uid, gid)
}

func (b *AuditFs) Name() string {
	return "AuditFs"
}

func (b *AuditFs) Stat(name string) (os.FileInfo, error) {
	if err := b.check(FsOpStat, name); err != nil {
		return nil, err
	}
	return b.BaseFs.Stat(name)
}

func (b *AuditFs) Rename(oldname, newname string) error {
	if err := b.check(FsOpRename, oldname); err != nil {
		return err
	}
	if err := b.check(FsOpRename, newname); err != nil {
		return err
	}
	return b.BaseFs.Rename(oldname, newname)
}

func (b *AuditFs) RemoveAll(name string) error {
	if err := b.check(FsOpRemove, name); err != nil {
		return err
	}
	return b.BaseFs.RemoveAll(name)
}

func (b *AuditFs) Remove(name string) error {
	if err := b.check(FsOpRemove, name); err != nil {
		return err
	}
	return b.BaseFs.Remove(name)
}

// OpenFile audits opens with any write flag as FsOpWrite.
func (b *AuditFs) OpenFile(name string, flag int, mode os.FileMode) (afero.File, error) {
	op := FsOpOpen
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		op = FsOpWrite
	}
	if err := b.check(op, name); err != nil {
		return nil, err
	}
	return b.BaseFs.OpenFile(name, flag, mode)
}

func (b *AuditFs) Open(name string) (afero.File, error) {
	if err := b.check(FsOpOpen, name); err != nil {
		return nil, err
	}
	return b.BaseFs.Open(name)
}

func (b *AuditFs) Mkdir(name string, mode os.FileMode) error {
	if err := b.check(FsOpMkdir, name); err != nil {
		return err
	}
	return b.BaseFs.Mkdir(name, mode)
}

func (b *AuditFs) MkdirAll(name string, mode os.FileMode) error {
	if err := b.check(FsOpMkdir, name); err != nil {
		return err
	}
	return b.BaseFs.MkdirAll(name, mode)
}

func (b *AuditFs) Create(name string) (afero.File, error) {
	if err := b.check(FsOpCreate, name); err != nil {
		return nil, err
	}
	return b.BaseFs.Create(name)
}

func (b *AuditFs) LstatIfPossible(name string) (os.FileInfo, bool, error) {
	if err := b.check(FsOpLstat, name); err != nil {
		return nil, false, err
	}
	if lstater, ok := b.BaseFs.(afero.Lstater); ok {
		return lstater.LstatIfPossible(name)
	}
	fi, err := b.BaseFs.Stat(name)
	return fi, false, err
}

func (b *AuditFs) ReadlinkIfPossible(name string) (string, error) {
	if err := b.check(FsOpReadlink, name); err != nil {
		return "", err
	}
	if reader, ok := b.BaseFs.(afero.LinkReader); ok {
		return reader.ReadlinkIfPossible(name)
	}
	return "", &os.PathError{Op: FsOpReadlink, Path: name, Err: afero.ErrNoReadlink}
}
