// Package fsadapter is the Operation Dispatcher (C5): the finite,
// short-transaction handlers for every kernel VFS operation notefs
// supports. It composes internal/inodetable (C1), internal/classify
// (C2), internal/store (C3) and internal/attrs (C4) and decides the
// POSIX reply for each inbound call.
package fsadapter

import (
	"context"
	"time"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/syncutil"
	"github.com/relfs/notefs/internal/attrs"
	"github.com/relfs/notefs/internal/classify"
	"github.com/relfs/notefs/internal/inodetable"
	"github.com/relfs/notefs/internal/store"
)

// cacheTTL is the one-second entry and attribute TTL used on every
// reply: the kernel may cache lookup/attribute replies for this long, trading
// freshness for lookup throughput.
const cacheTTL = time.Second

// Dispatcher implements the kernel-facing filesystem operations. The
// kernel's FUSE channel delivers one request at a time to a
// cooperative handler in the source system this adapts; go-fuse style
// bindings instead dispatch each op on its own goroutine, so Dispatcher
// serializes itself behind a single mutex to preserve that
// single-writer model (spec §5).
type Dispatcher struct {
	// No caller may hold any other lock while acquiring mu.
	mu        syncutil.InvariantMutex
	table     *inodetable.Table
	gw        *store.Gateway
	builder   *attrs.Builder
	principal string
}

// New constructs a Dispatcher bound to a single principal and the
// given store/attribute collaborators.
func New(gw *store.Gateway, builder *attrs.Builder, principal string) *Dispatcher {
	d := &Dispatcher{
		table:     inodetable.New(),
		gw:        gw,
		builder:   builder,
		principal: principal,
	}
	d.mu = syncutil.NewInvariantMutex(d.checkInvariants)
	return d
}

// checkInvariants enforces the one property every call leaves true:
// the root path always resolves back to RootInodeID. Deeper checks
// live in internal/inodetable's own tests; this only guards against a
// Dispatcher method accidentally clobbering the reserved root entry.
func (d *Dispatcher) checkInvariants() {
	if ino, ok := d.table.InodeOf("/"); !ok || ino != d.table.Root() {
		panic("fsadapter: root path no longer maps to the root inode")
	}
}

// resolved is what the folder-then-note probe in lookup/getattr
// produces.
type resolved struct {
	isDir   bool
	folder  *store.Folder
	note    *store.Note
	ignored bool
}

// resolveStorePath performs the folder-then-note probe spec §4.5
// prescribes for lookup and getattr: a path names at most one of a
// folder, a note, or nothing. path is the full kernel-visible path
// (leading "/"), not the store's normalized form, so an ignored name
// can be checked against the inode table before ever touching the
// store.
func (d *Dispatcher) resolveStorePath(ctx context.Context, path string) (*resolved, error) {
	if path == "/" {
		return &resolved{isDir: true}, nil
	}
	if _, basename := classify.Split(path); classify.IsIgnored(basename) {
		// Ignored names never reach the store: mirror createNote's own
		// table-only handling so a later lookup/getattr/read/write on
		// an already-created ignored name resolves instead of chasing
		// a row that was never written. A name that merely matches the
		// pattern but was never created still reports as missing.
		if _, ok := d.table.InodeOf(path); ok {
			return &resolved{ignored: true}, nil
		}
		return nil, nil
	}

	storePath := classify.NormalizeForStore(path)
	folderID, err := d.gw.GetFolderIDByPath(ctx, storePath, d.principal)
	if err == nil {
		f, err := d.gw.GetFolderByID(ctx, folderID, d.principal)
		if err != nil {
			return nil, err
		}
		return &resolved{isDir: true, folder: f}, nil
	}
	if store.KindOf(err) != store.KindNotFound {
		return nil, err
	}

	noteID, err := d.gw.GetNoteIDByPath(ctx, storePath, d.principal)
	if err == nil {
		n, err := d.gw.GetNoteByID(ctx, noteID)
		if err != nil {
			return nil, err
		}
		return &resolved{note: n}, nil
	}
	if store.KindOf(err) != store.KindNotFound {
		return nil, err
	}

	return nil, nil
}

// attributesFor builds the reply attributes for a resolved entity.
func (d *Dispatcher) attributesFor(r *resolved) fuseops.InodeAttributes {
	switch {
	case r.folder != nil:
		return d.builder.Folder(r.folder)
	case r.note != nil:
		return d.builder.Note(r.note)
	default:
		return d.builder.IgnoredShim()
	}
}

// childEntry fills a ChildInodeEntry for a resolved child at path,
// allocating or reusing its inode via the table.
func (d *Dispatcher) childEntry(path string, r *resolved) fuseops.ChildInodeEntry {
	now := time.Now()
	return fuseops.ChildInodeEntry{
		Child:                d.table.GetOrCreate(path),
		Attributes:           d.attributesFor(r),
		AttributesExpiration: now.Add(cacheTTL),
		EntryExpiration:      now.Add(cacheTTL),
	}
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// LookUpInode implements the lookup(parent, name) operation.
func (d *Dispatcher) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	parentPath, ok := d.table.PathOf(op.Parent)
	if !ok {
		return syscallENOENT()
	}
	childPath := joinPath(parentPath, op.Name)

	r, err := d.resolveStorePath(ctx, childPath)
	if err != nil {
		return toErrno(err, false)
	}
	if r == nil {
		return syscallENOENT()
	}
	op.Entry = d.childEntry(childPath, r)
	return nil
}

// GetInodeAttributes implements getattr(ino).
func (d *Dispatcher) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if op.Inode == d.table.Root() {
		op.Attributes = d.builder.Root()
		op.AttributesExpiration = time.Now().Add(cacheTTL)
		return nil
	}

	path, ok := d.table.PathOf(op.Inode)
	if !ok {
		return syscallENOENT()
	}
	r, err := d.resolveStorePath(ctx, path)
	if err != nil {
		return toErrno(err, false)
	}
	if r == nil {
		return syscallENOENT()
	}
	op.Attributes = d.attributesFor(r)
	op.AttributesExpiration = time.Now().Add(cacheTTL)
	return nil
}
