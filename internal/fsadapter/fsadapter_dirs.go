package fsadapter

import (
	"context"
	"sort"
	"syscall"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/relfs/notefs/internal/classify"
	"github.com/relfs/notefs/internal/store"
)

// OpenDir implements opendir(ino): like OpenFile, no per-handle state
// beyond the inode itself.
func (d *Dispatcher) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	path, ok := d.table.PathOf(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	r, err := d.resolveStorePath(ctx, path)
	if err != nil {
		return toErrno(err, true)
	}
	if r == nil || !r.isDir {
		return syscall.ENOTDIR
	}
	op.Handle = fuseops.HandleID(op.Inode)
	return nil
}

func (d *Dispatcher) ReleaseDirHandle(ctx context.Context, op *fuseops.ReleaseDirHandleOp) error {
	return nil
}

// entry is one line of a directory listing before it is encoded.
type entry struct {
	name string
	ino  fuseops.InodeID
	dir  bool
}

// ReadDir implements readdir(ino, offset): "." and ".." first, then
// child folders, then child notes, each exactly once, honouring the
// opaque cookie in op.Offset.
func (d *Dispatcher) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	path, ok := d.table.PathOf(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	storePath := classify.NormalizeForStore(path)

	var folderID string
	if storePath != "/" {
		id, err := d.gw.GetFolderIDByPath(ctx, storePath, d.principal)
		if err != nil {
			return toErrno(err, true)
		}
		folderID = id
	}

	folders, err := d.gw.ListFoldersByParent(ctx, folderID, d.principal)
	if err != nil {
		return toErrno(err, true)
	}
	notes, err := d.gw.ListNotesByParent(ctx, folderID, d.principal)
	if err != nil {
		return toErrno(err, true)
	}

	parentPath := path
	if path != "/" {
		parentPath, _ = classify.Split(path)
	}
	parentIno := d.table.GetOrCreate(parentPath)
	if path == "/" {
		parentIno = d.table.Root()
	}

	entries := make([]entry, 0, 2+len(folders)+len(notes))
	entries = append(entries, entry{name: ".", ino: op.Inode, dir: true})
	entries = append(entries, entry{name: "..", ino: parentIno, dir: true})

	seen := map[string]bool{".": true, "..": true}
	for _, f := range folders {
		if seen[f.Title] {
			continue
		}
		seen[f.Title] = true
		childPath := joinPath(path, f.Title)
		entries = append(entries, entry{name: f.Title, ino: d.table.GetOrCreate(childPath), dir: true})
	}
	sort.SliceStable(entries[2:], func(i, j int) bool { return entries[2+i].name < entries[2+j].name })

	noteEntries := make([]entry, 0, len(notes))
	for _, n := range notes {
		base := n.Basename()
		if seen[base] {
			continue
		}
		seen[base] = true
		childPath := joinPath(path, base)
		noteEntries = append(noteEntries, entry{name: base, ino: d.table.GetOrCreate(childPath), dir: false})
	}
	sort.SliceStable(noteEntries, func(i, j int) bool { return noteEntries[i].name < noteEntries[j].name })
	entries = append(entries, noteEntries...)

	if int(op.Offset) > len(entries) {
		return syscall.EIO
	}
	entries = entries[op.Offset:]

	for i, e := range entries {
		dt := fuseutil.DT_File
		if e.dir {
			dt = fuseutil.DT_Directory
		}
		dirent := fuseutil.Dirent{
			Offset: op.Offset + fuseops.DirOffset(i) + 1,
			Inode:  e.ino,
			Name:   e.name,
			Type:   dt,
		}
		data := fuseutil.AppendDirent(op.Data, dirent)
		if len(data) > op.Size {
			break
		}
		op.Data = data
	}
	return nil
}

// MkDir implements mkdir(parent, name).
func (d *Dispatcher) MkDir(ctx context.Context, op *fuseops.MkDirOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	parentPath, ok := d.table.PathOf(op.Parent)
	if !ok {
		return syscall.ENOENT
	}
	childPath := joinPath(parentPath, op.Name)

	existing, err := d.resolveStorePath(ctx, childPath)
	if err != nil {
		return toErrno(err, true)
	}
	if existing != nil {
		return syscall.EEXIST
	}

	parentStorePath := classify.NormalizeForStore(parentPath)
	var parentFolderID string
	if parentStorePath != "/" {
		parentFolderID, err = d.gw.GetFolderIDByPath(ctx, parentStorePath, d.principal)
		if err != nil {
			return toErrno(err, true)
		}
	}

	id, err := d.gw.CreateFolder(ctx, op.Name, parentFolderID, d.principal)
	if err != nil {
		return toErrno(err, true)
	}
	f, err := d.gw.GetFolderByID(ctx, id, d.principal)
	if err != nil {
		return toErrno(err, true)
	}
	op.Entry = d.childEntry(childPath, &resolved{isDir: true, folder: f})
	return nil
}

// createNote is shared by CreateFile and MkNode: both spec operations
// have identical semantics (spec §4.5 treats them as one case).
func (d *Dispatcher) createNote(ctx context.Context, parent fuseops.InodeID, name string) (fuseops.ChildInodeEntry, error) {
	parentPath, ok := d.table.PathOf(parent)
	if !ok {
		return fuseops.ChildInodeEntry{}, syscall.ENOENT
	}
	childPath := joinPath(parentPath, name)

	if classify.IsIgnored(name) {
		// Ignored names never touch the store: the inode exists only in
		// the table, satisfying editors that insist on creating probe
		// files before writing the real one.
		return d.childEntry(childPath, &resolved{ignored: true}), nil
	}

	title, syntax, ok := classify.DecomposeFilename(name)
	if !ok {
		return fuseops.ChildInodeEntry{}, errInvalidName
	}

	existing, err := d.resolveStorePath(ctx, childPath)
	if err != nil {
		return fuseops.ChildInodeEntry{}, err
	}
	if existing != nil {
		return fuseops.ChildInodeEntry{}, errExists
	}

	parentStorePath := classify.NormalizeForStore(parentPath)
	var parentFolderID string
	if parentStorePath != "/" {
		parentFolderID, err = d.gw.GetFolderIDByPath(ctx, parentStorePath, d.principal)
		if err != nil {
			return fuseops.ChildInodeEntry{}, err
		}
	}

	id, err := d.gw.CreateNote(ctx, title, "", "", syntax, parentFolderID, d.principal)
	if err != nil {
		return fuseops.ChildInodeEntry{}, err
	}
	n, err := d.gw.GetNoteByID(ctx, id)
	if err != nil {
		return fuseops.ChildInodeEntry{}, err
	}
	return d.childEntry(childPath, &resolved{note: n}), nil
}

// CreateFile implements create(parent, name).
func (d *Dispatcher) CreateFile(ctx context.Context, op *fuseops.CreateFileOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, err := d.createNote(ctx, op.Parent, op.Name)
	if err != nil {
		return toErrno(err, false)
	}
	op.Entry = entry
	op.Handle = fuseops.HandleID(entry.Child)
	return nil
}

// MkNode implements mknod(parent, name), identical to CreateFile minus
// the file handle.
func (d *Dispatcher) MkNode(ctx context.Context, op *fuseops.MkNodeOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, err := d.createNote(ctx, op.Parent, op.Name)
	if err != nil {
		return toErrno(err, false)
	}
	op.Entry = entry
	return nil
}

// Unlink implements unlink(parent, name).
func (d *Dispatcher) Unlink(ctx context.Context, op *fuseops.UnlinkOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if classify.IsIgnored(op.Name) {
		return nil
	}

	parentPath, ok := d.table.PathOf(op.Parent)
	if !ok {
		return syscall.ENOENT
	}
	childPath := joinPath(parentPath, op.Name)

	r, err := d.resolveStorePath(ctx, childPath)
	if err != nil {
		return toErrno(err, false)
	}
	if r == nil {
		return syscall.ENOENT
	}
	if r.isDir {
		return syscall.EISDIR
	}

	if _, err := d.gw.DeleteNote(ctx, r.note.ID); err != nil {
		return toErrno(err, false)
	}
	d.table.Drop(childPath)
	return nil
}

// RmDir implements rmdir(parent, name).
func (d *Dispatcher) RmDir(ctx context.Context, op *fuseops.RmDirOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	parentPath, ok := d.table.PathOf(op.Parent)
	if !ok {
		return syscall.ENOENT
	}
	childPath := joinPath(parentPath, op.Name)
	storePath := classify.NormalizeForStore(childPath)

	folderID, err := d.gw.GetFolderIDByPath(ctx, storePath, d.principal)
	if err != nil {
		return toErrno(err, true)
	}

	folderCount, noteCount, err := d.gw.GetChildCount(ctx, folderID, d.principal)
	if err != nil {
		return toErrno(err, true)
	}
	if folderCount != 0 || noteCount != 0 {
		return syscall.ENOTEMPTY
	}

	if _, err := d.gw.DeleteFolder(ctx, folderID, d.principal); err != nil {
		return toErrno(err, true)
	}
	d.table.Drop(childPath)
	return nil
}

// Rename implements rename(old_parent, old_name, new_parent, new_name).
func (d *Dispatcher) Rename(ctx context.Context, op *fuseops.RenameOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	oldParentPath, ok := d.table.PathOf(op.OldParent)
	if !ok {
		return syscall.ENOENT
	}
	newParentPath, ok := d.table.PathOf(op.NewParent)
	if !ok {
		return syscall.ENOENT
	}
	oldPath := joinPath(oldParentPath, op.OldName)
	newPath := joinPath(newParentPath, op.NewName)
	oldStorePath := classify.NormalizeForStore(oldPath)
	newParentStorePath := classify.NormalizeForStore(newParentPath)

	var newParentFolderID string
	var err error
	if newParentStorePath != "/" {
		newParentFolderID, err = d.gw.GetFolderIDByPath(ctx, newParentStorePath, d.principal)
		if err != nil {
			return toErrno(err, true)
		}
	}

	folderID, ferr := d.gw.GetFolderIDByPath(ctx, oldStorePath, d.principal)
	if ferr == nil {
		if _, err := d.gw.UpdateFolder(ctx, folderID, op.NewName, d.principal); err != nil {
			return toErrno(err, true)
		}
		if _, err := d.gw.UpdateFolderParent(ctx, folderID, newParentFolderID, d.principal); err != nil {
			return toErrno(err, true)
		}
		d.table.RenameSubtree(oldPath, newPath)
		return nil
	}
	if store.KindOf(ferr) != store.KindNotFound {
		return toErrno(ferr, true)
	}

	noteID, nerr := d.gw.GetNoteIDByPath(ctx, oldStorePath, d.principal)
	if nerr != nil {
		return toErrno(nerr, false)
	}
	newTitle, newSyntax, ok := classify.DecomposeFilename(op.NewName)
	if !ok {
		return toErrno(errInvalidName, false)
	}
	note, err := d.gw.GetNoteByID(ctx, noteID)
	if err != nil {
		return toErrno(err, false)
	}
	if _, err := d.gw.UpdateNote(ctx, noteID, newTitle, note.Abstract, note.Content, newSyntax); err != nil {
		return toErrno(err, false)
	}
	if _, err := d.gw.UpdateNoteParent(ctx, noteID, newParentFolderID); err != nil {
		return toErrno(err, false)
	}
	d.table.RenameSubtree(oldPath, newPath)
	return nil
}

// ForgetInode implements the kernel's cache-eviction notification; the
// table entry is retired by the mutating operation that made the path
// disappear (unlink/rmdir/rename), not here, since an open handle must
// keep working until the kernel itself forgets it.
func (d *Dispatcher) ForgetInode(ctx context.Context, op *fuseops.ForgetInodeOp) error {
	return nil
}

// Init is the first op sent when mounting; notefs needs no
// initialization beyond what New already did.
func (d *Dispatcher) Init(ctx context.Context, op *fuseops.InitOp) error {
	return nil
}

