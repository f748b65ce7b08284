// Package attrs is the Attribute Builder (C4): it turns a folder or
// note entity, or a synthetic shim, into the POSIX attribute record
// the kernel expects.
package attrs

import (
	"os"
	"time"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/timeutil"
	"github.com/relfs/notefs/internal/store"
)

const (
	// DirMode is the permission bits every folder (and the root) is
	// reported with.
	DirMode = 0o755
	// FileMode is the permission bits every note and ignored-name shim
	// is reported with.
	FileMode = 0o644
	// BlockSize matches the value the kernel uses to compute blocks
	// from size for regular files.
	BlockSize = 512
)

const civilLayout = "2006-01-02 15:04:05"

// Builder converts entities into fuseops.InodeAttributes, applying the
// configured owner mapping and timezone.
type Builder struct {
	UID, GID uint32
	Location *time.Location
	Clock    timeutil.Clock
}

// NewBuilder constructs a Builder for the given owner mapping and
// civil timezone.
func NewBuilder(uid, gid uint32, loc *time.Location, clock timeutil.Clock) *Builder {
	return &Builder{UID: uid, GID: gid, Location: loc, Clock: clock}
}

// parseCivil interprets text (as stored by internal/store) in the
// builder's configured timezone. Unparseable text falls back to the
// zero time rather than erroring: a malformed timestamp must never
// block a stat() call.
func (b *Builder) parseCivil(text string) time.Time {
	t, err := time.ParseInLocation(civilLayout, text, b.Location)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Root returns the synthetic attributes for inode 1: a directory
// dated the UNIX epoch.
func (b *Builder) Root() fuseops.InodeAttributes {
	epoch := time.Unix(0, 0)
	return fuseops.InodeAttributes{
		Size:   0,
		Nlink:  2,
		Mode:   os.ModeDir | DirMode,
		Atime:  epoch,
		Mtime:  epoch,
		Ctime:  epoch,
		Crtime: epoch,
		Uid:    b.UID,
		Gid:    b.GID,
	}
}

// Folder returns the attributes for a folder entity.
func (b *Builder) Folder(f *store.Folder) fuseops.InodeAttributes {
	created := b.parseCivil(f.CreatedAt)
	updated := b.parseCivil(f.UpdatedAt)
	return fuseops.InodeAttributes{
		Size:   0,
		Nlink:  2,
		Mode:   os.ModeDir | DirMode,
		Atime:  updated,
		Mtime:  updated,
		Ctime:  updated,
		Crtime: created,
		Uid:    b.UID,
		Gid:    b.GID,
	}
}

// Note returns the attributes for a note entity, sized to its content
// length.
func (b *Builder) Note(n *store.Note) fuseops.InodeAttributes {
	created := b.parseCivil(n.CreatedAt)
	updated := b.parseCivil(n.UpdatedAt)
	size := uint64(len(n.Content))
	return fuseops.InodeAttributes{
		Size:   size,
		Nlink:  1,
		Mode:   FileMode,
		Atime:  updated,
		Mtime:  updated,
		Ctime:  updated,
		Crtime: created,
		Uid:    b.UID,
		Gid:    b.GID,
	}
}

// IgnoredShim returns the attributes for an editor-temp name that
// exists only in the inode table, never in the store: a zero-length
// regular file dated now.
func (b *Builder) IgnoredShim() fuseops.InodeAttributes {
	now := b.Clock.Now()
	return fuseops.InodeAttributes{
		Size:   0,
		Nlink:  1,
		Mode:   FileMode,
		Atime:  now,
		Mtime:  now,
		Ctime:  now,
		Crtime: now,
		Uid:    b.UID,
		Gid:    b.GID,
	}
}

// ApplySetAttr overrides perm/uid/gid on an existing attribute record,
// matching the dispatcher's setattr handling: these fields only ever
// override the reply, they are never persisted to the store.
func ApplySetAttr(attr fuseops.InodeAttributes, mode *os.FileMode, uid, gid *uint32) fuseops.InodeAttributes {
	if mode != nil {
		isDir := attr.Mode&os.ModeDir != 0
		attr.Mode = *mode
		if isDir {
			attr.Mode |= os.ModeDir
		}
	}
	if uid != nil {
		attr.Uid = *uid
	}
	if gid != nil {
		attr.Gid = *gid
	}
	return attr
}
