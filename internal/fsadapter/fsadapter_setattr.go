package fsadapter

import (
	"context"
	"syscall"
	"time"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/relfs/notefs/internal/attrs"
)

// SetInodeAttributes implements setattr(ino, ...). For a note, a
// supplied Size truncates or zero-extends the content and is
// persisted. For every inode, a supplied Mode overrides the reply's
// permission bits without touching the store; uid, gid and times are
// not applied, so the reply keeps the builder's values for them.
func (d *Dispatcher) SetInodeAttributes(ctx context.Context, op *fuseops.SetInodeAttributesOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var r *resolved
	if op.Inode == d.table.Root() {
		attr := d.builder.Root()
		op.Attributes = attrs.ApplySetAttr(attr, op.Mode, nil, nil)
		op.AttributesExpiration = time.Now().Add(cacheTTL)
		return nil
	}

	path, ok := d.table.PathOf(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	var err error
	r, err = d.resolveStorePath(ctx, path)
	if err != nil {
		return toErrno(err, false)
	}
	if r == nil {
		return syscall.ENOENT
	}

	if r.isDir {
		attr := d.builder.Folder(r.folder)
		op.Attributes = attrs.ApplySetAttr(attr, op.Mode, nil, nil)
		op.AttributesExpiration = time.Now().Add(cacheTTL)
		return nil
	}
	if r.ignored {
		// No store row to truncate; report the shim's attributes with
		// only the reply-only fields overridden.
		attr := d.builder.IgnoredShim()
		op.Attributes = attrs.ApplySetAttr(attr, op.Mode, nil, nil)
		op.AttributesExpiration = time.Now().Add(cacheTTL)
		return nil
	}

	note := r.note
	if op.Size != nil {
		note.Content = resize(note.Content, int(*op.Size))
		if _, err := d.gw.UpdateNote(ctx, note.ID, note.Title, note.Abstract, note.Content, note.Syntax); err != nil {
			return toErrno(err, false)
		}
	}
	attr := d.builder.Note(note)
	op.Attributes = attrs.ApplySetAttr(attr, op.Mode, nil, nil)
	op.AttributesExpiration = time.Now().Add(cacheTTL)
	return nil
}

// resize truncates or zero-extends content to exactly n bytes.
func resize(content string, n int) string {
	if len(content) == n {
		return content
	}
	if len(content) > n {
		return content[:n]
	}
	buf := make([]byte, n)
	copy(buf, content)
	return string(buf)
}
