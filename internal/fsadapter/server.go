package fsadapter

import (
	"context"
	"fmt"
	"io"
	"syscall"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/relfs/notefs/internal/metrics"
)

// Server adapts a Dispatcher to the fuse.Server interface (ServeOps),
// dispatching each op to the matching Dispatcher method and replying
// with the resulting error. Ops notefs does not support (symlinks,
// hard links, extended attributes) are answered with ENOSYS.
//
// This mirrors the dispatch-loop shape used throughout the jacobsa/fuse
// ecosystem (read one op at a time from the connection, switch on its
// concrete type, respond), but is written directly against Dispatcher's
// methods instead of a general-purpose FileSystem interface so that
// notefs controls exactly which ops it answers.
type Server struct {
	Dispatcher *Dispatcher
	Metrics    *metrics.Handle
}

// NewServer wraps a Dispatcher for use with fuse.Mount. metrics may be
// nil, in which case no op counters are recorded.
func NewServer(d *Dispatcher, m *metrics.Handle) *Server {
	return &Server{Dispatcher: d, Metrics: m}
}

// ServeOps reads ops from c until EOF, serving each on its own
// goroutine — the kernel guarantees operations it expects ordered are
// serialized for us, and Dispatcher's own mutex protects its state.
func (s *Server) ServeOps(c *fuse.Connection) {
	for {
		op, err := c.ReadOp()
		if err == io.EOF {
			return
		}
		if err != nil {
			panic(err)
		}
		go s.handleOp(op)
	}
}

func (s *Server) handleOp(op fuseops.Op) {
	ctx := context.Background()
	d := s.Dispatcher
	start := time.Now()

	var err error
	var name string
	switch typed := op.(type) {
	case *fuseops.InitOp:
		name, err = "Init", d.Init(ctx, typed)
	case *fuseops.LookUpInodeOp:
		name, err = "LookUpInode", d.LookUpInode(ctx, typed)
	case *fuseops.GetInodeAttributesOp:
		name, err = "GetInodeAttributes", d.GetInodeAttributes(ctx, typed)
	case *fuseops.SetInodeAttributesOp:
		name, err = "SetInodeAttributes", d.SetInodeAttributes(ctx, typed)
	case *fuseops.ForgetInodeOp:
		name, err = "ForgetInode", d.ForgetInode(ctx, typed)
	case *fuseops.MkDirOp:
		name, err = "MkDir", d.MkDir(ctx, typed)
	case *fuseops.MkNodeOp:
		name, err = "MkNode", d.MkNode(ctx, typed)
	case *fuseops.CreateFileOp:
		name, err = "CreateFile", d.CreateFile(ctx, typed)
	case *fuseops.RmDirOp:
		name, err = "RmDir", d.RmDir(ctx, typed)
	case *fuseops.UnlinkOp:
		name, err = "Unlink", d.Unlink(ctx, typed)
	case *fuseops.RenameOp:
		name, err = "Rename", d.Rename(ctx, typed)
	case *fuseops.OpenDirOp:
		name, err = "OpenDir", d.OpenDir(ctx, typed)
	case *fuseops.ReadDirOp:
		name, err = "ReadDir", d.ReadDir(ctx, typed)
	case *fuseops.ReleaseDirHandleOp:
		name, err = "ReleaseDirHandle", d.ReleaseDirHandle(ctx, typed)
	case *fuseops.OpenFileOp:
		name, err = "OpenFile", d.OpenFile(ctx, typed)
	case *fuseops.ReadFileOp:
		name, err = "ReadFile", d.ReadFile(ctx, typed)
	case *fuseops.WriteFileOp:
		name, err = "WriteFile", d.WriteFile(ctx, typed)
	case *fuseops.SyncFileOp:
		name, err = "SyncFile", d.SyncFile(ctx, typed)
	case *fuseops.FlushFileOp:
		name, err = "FlushFile", d.FlushFile(ctx, typed)
	case *fuseops.ReleaseFileHandleOp:
		name, err = "ReleaseFileHandle", d.ReleaseFileHandle(ctx, typed)
	default:
		op.Respond(fuse.ENOSYS)
		return
	}
	s.record(name, err, time.Since(start))
	op.Respond(err)
}

// record updates the op counters if a metrics.Handle was configured.
func (s *Server) record(name string, err error, elapsed time.Duration) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.OpsTotal.WithLabelValues(name).Inc()
	s.Metrics.OpDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		s.Metrics.OpErrorsTotal.WithLabelValues(name, errnoLabel(err)).Inc()
	}
}

// errnoLabel renders err as its syscall.Errno name when possible,
// falling back to its string form for dispatcher-internal errors.
func errnoLabel(err error) string {
	if errno, ok := err.(syscall.Errno); ok {
		return errno.Error()
	}
	return fmt.Sprintf("%v", err)
}
