package fsadapter

import (
	"context"
	"syscall"

	"github.com/jacobsa/fuse/fuseops"
)

// ReadFile implements read(ino, offset, size).
func (d *Dispatcher) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	path, ok := d.table.PathOf(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	r, err := d.resolveStorePath(ctx, path)
	if err != nil {
		return toErrno(err, false)
	}
	if r == nil {
		return syscall.ENOENT
	}
	if r.isDir {
		return syscall.EISDIR
	}
	if r.ignored {
		op.Data = nil
		return nil
	}

	content := r.note.Content
	if op.Offset >= int64(len(content)) {
		op.Data = nil
		return nil
	}
	end := int(op.Offset) + op.Size
	if end > len(content) {
		end = len(content)
	}
	op.Data = []byte(content[op.Offset:end])
	return nil
}

// WriteFile implements write(ino, offset, data).
func (d *Dispatcher) WriteFile(ctx context.Context, op *fuseops.WriteFileOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	path, ok := d.table.PathOf(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	r, err := d.resolveStorePath(ctx, path)
	if err != nil {
		return toErrno(err, false)
	}
	if r == nil {
		return syscall.ENOENT
	}
	if r.isDir {
		return syscall.EISDIR
	}
	if r.ignored {
		// Discarded, not persisted: an ignored name never has a store
		// row to update, and editors never read back what they wrote
		// to one of these.
		return nil
	}

	newContent := overlay(r.note.Content, op.Offset, op.Data)
	_, err = d.gw.UpdateNote(ctx, r.note.ID, r.note.Title, r.note.Abstract, newContent, r.note.Syntax)
	if err != nil {
		return toErrno(err, false)
	}
	return nil
}

// overlay implements the write-offset semantics spec §4.5 prescribes:
// offset 0 replaces the content outright; offset > 0 zero-extends
// before overlaying data.
func overlay(content string, offset int64, data []byte) string {
	if offset == 0 {
		return string(data)
	}
	buf := []byte(content)
	if int64(len(buf)) < offset {
		padding := make([]byte, offset-int64(len(buf)))
		buf = append(buf, padding...)
	}
	end := offset + int64(len(data))
	if int64(len(buf)) < end {
		grown := make([]byte, end)
		copy(grown, buf)
		buf = grown
	}
	copy(buf[offset:end], data)
	return string(buf)
}

// OpenFile implements open(ino): a no-op beyond confirming the note
// exists, since no per-open state is held (spec §4.5).
func (d *Dispatcher) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	path, ok := d.table.PathOf(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	r, err := d.resolveStorePath(ctx, path)
	if err != nil {
		return toErrno(err, false)
	}
	if r == nil {
		return syscall.ENOENT
	}
	if r.isDir {
		return syscall.EISDIR
	}
	op.Handle = fuseops.HandleID(op.Inode)
	return nil
}

// FlushFile and ReleaseFileHandle are no-ops: every write is
// synchronous, so there is nothing to flush and no per-handle state
// to release. FlushFile (like SyncFile) only confirms the inode is
// still known; ReleaseFileHandle always succeeds.
func (d *Dispatcher) FlushFile(ctx context.Context, op *fuseops.FlushFileOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.table.PathOf(op.Inode); !ok {
		return syscall.ENOENT
	}
	return nil
}

func (d *Dispatcher) ReleaseFileHandle(ctx context.Context, op *fuseops.ReleaseFileHandleOp) error {
	return nil
}

func (d *Dispatcher) SyncFile(ctx context.Context, op *fuseops.SyncFileOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.table.PathOf(op.Inode); !ok {
		return syscall.ENOENT
	}
	return nil
}
