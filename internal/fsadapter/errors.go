package fsadapter

import (
	"errors"
	"syscall"

	"github.com/relfs/notefs/internal/store"
)

// Sentinel errors for the dispatcher's own business rules (not store
// failures); mapped to POSIX codes the same way as store errors.
var (
	errKindMismatch = errors.New("fsadapter: kind mismatch")
	errInvalidName  = errors.New("fsadapter: invalid name")
	errExists       = errors.New("fsadapter: path exists")
	errNotEmpty     = errors.New("fsadapter: directory not empty")
)

// syscallENOENT is the reply for an unknown inode or a missing path.
func syscallENOENT() error { return syscall.ENOENT }

// toErrno converts any error produced while handling an operation into
// the POSIX code the kernel expects, per the mapping in spec §7:
// not-found -> ENOENT, kind-mismatch -> EISDIR/ENOTDIR (isDirOp
// disambiguates which), exists -> EEXIST, not-empty -> ENOTEMPTY,
// invalid -> EINVAL, anything else -> EIO.
func toErrno(err error, isDirOp bool) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, errInvalidName):
		return syscall.EINVAL
	case errors.Is(err, errExists):
		return syscall.EEXIST
	case errors.Is(err, errNotEmpty):
		return syscall.ENOTEMPTY
	case errors.Is(err, errKindMismatch):
		if isDirOp {
			return syscall.ENOTDIR
		}
		return syscall.EISDIR
	}
	switch store.KindOf(err) {
	case store.KindNotFound:
		return syscall.ENOENT
	case store.KindConflict:
		return syscall.EEXIST
	default:
		return syscall.EIO
	}
}
