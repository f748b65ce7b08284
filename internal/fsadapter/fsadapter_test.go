package fsadapter_test

import (
	"context"
	"testing"
	"time"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/timeutil"
	"github.com/relfs/notefs/internal/attrs"
	"github.com/relfs/notefs/internal/fsadapter"
	"github.com/relfs/notefs/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const principal = "alice"

func newTestDispatcher(t *testing.T) *fsadapter.Dispatcher {
	t.Helper()
	clock := timeutil.RealClock()
	gw, err := store.Open(":memory:", clock)
	require.NoError(t, err)
	require.NoError(t, gw.InitSchema(context.Background()))
	t.Cleanup(func() { _ = gw.Close() })

	builder := attrs.NewBuilder(1000, 1000, time.UTC, clock)
	return fsadapter.New(gw, builder, principal)
}

func lookup(t *testing.T, d *fsadapter.Dispatcher, parent fuseops.InodeID, name string) fuseops.ChildInodeEntry {
	t.Helper()
	op := &fuseops.LookUpInodeOp{Parent: parent, Name: name}
	require.NoError(t, d.LookUpInode(context.Background(), op))
	return op.Entry
}

func TestCreateWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := newTestDispatcher(t)
	root := fuseops.RootInodeID

	createOp := &fuseops.CreateFileOp{Parent: root, Name: "hello.md"}
	require.NoError(t, d.CreateFile(ctx, createOp))
	ino := createOp.Entry.Child

	writeOp := &fuseops.WriteFileOp{Inode: ino, Offset: 0, Data: []byte("hi there")}
	require.NoError(t, d.WriteFile(ctx, writeOp))

	readOp := &fuseops.ReadFileOp{Inode: ino, Offset: 0, Size: 1024}
	require.NoError(t, d.ReadFile(ctx, readOp))
	assert.Equal(t, "hi there", string(readOp.Data))
}

func TestLookupAfterCreateReturnsSameInode(t *testing.T) {
	ctx := context.Background()
	d := newTestDispatcher(t)
	root := fuseops.RootInodeID

	createOp := &fuseops.CreateFileOp{Parent: root, Name: "notes.txt"}
	require.NoError(t, d.CreateFile(ctx, createOp))

	entry := lookup(t, d, root, "notes.txt")
	assert.Equal(t, createOp.Entry.Child, entry.Child)
}

func TestRenamePreservesInodeAndContent(t *testing.T) {
	ctx := context.Background()
	d := newTestDispatcher(t)
	root := fuseops.RootInodeID

	createOp := &fuseops.CreateFileOp{Parent: root, Name: "draft.md"}
	require.NoError(t, d.CreateFile(ctx, createOp))
	ino := createOp.Entry.Child

	writeOp := &fuseops.WriteFileOp{Inode: ino, Offset: 0, Data: []byte("content")}
	require.NoError(t, d.WriteFile(ctx, writeOp))

	renameOp := &fuseops.RenameOp{
		OldParent: root, OldName: "draft.md",
		NewParent: root, NewName: "final.md",
	}
	require.NoError(t, d.Rename(ctx, renameOp))

	// The inode obtained before the rename still reads the same bytes,
	// now addressable under the new name.
	readOp := &fuseops.ReadFileOp{Inode: ino, Offset: 0, Size: 1024}
	require.NoError(t, d.ReadFile(ctx, readOp))
	assert.Equal(t, "content", string(readOp.Data))

	entry := lookup(t, d, root, "final.md")
	assert.Equal(t, ino, entry.Child)
}

func TestRmDirRefusesNonEmpty(t *testing.T) {
	ctx := context.Background()
	d := newTestDispatcher(t)
	root := fuseops.RootInodeID

	mkdirOp := &fuseops.MkDirOp{Parent: root, Name: "folder"}
	require.NoError(t, d.MkDir(ctx, mkdirOp))
	folderIno := mkdirOp.Entry.Child

	createOp := &fuseops.CreateFileOp{Parent: folderIno, Name: "child.md"}
	require.NoError(t, d.CreateFile(ctx, createOp))

	err := d.RmDir(ctx, &fuseops.RmDirOp{Parent: root, Name: "folder"})
	assert.Error(t, err)

	require.NoError(t, d.Unlink(ctx, &fuseops.UnlinkOp{Parent: folderIno, Name: "child.md"}))
	assert.NoError(t, d.RmDir(ctx, &fuseops.RmDirOp{Parent: root, Name: "folder"}))
}

func TestMkDirThenReadDirListsChild(t *testing.T) {
	ctx := context.Background()
	d := newTestDispatcher(t)
	root := fuseops.RootInodeID

	require.NoError(t, d.MkDir(ctx, &fuseops.MkDirOp{Parent: root, Name: "folder"}))
	require.NoError(t, d.CreateFile(ctx, &fuseops.CreateFileOp{Parent: root, Name: "note.md"}))

	require.NoError(t, d.OpenDir(ctx, &fuseops.OpenDirOp{Inode: root}))

	readDirOp := &fuseops.ReadDirOp{Inode: root, Size: 4096}
	require.NoError(t, d.ReadDir(ctx, readDirOp))
	assert.NotEmpty(t, readDirOp.Data)
}

func TestIgnoredNameNeverTouchesStore(t *testing.T) {
	ctx := context.Background()
	d := newTestDispatcher(t)
	root := fuseops.RootInodeID

	createOp := &fuseops.CreateFileOp{Parent: root, Name: ".#lock"}
	require.NoError(t, d.CreateFile(ctx, createOp))

	// A second lookup must still resolve, purely from the inode table,
	// since nothing was written to the store.
	entry := lookup(t, d, root, ".#lock")
	assert.Equal(t, createOp.Entry.Child, entry.Child)
}

func TestSetAttrTruncatesContent(t *testing.T) {
	ctx := context.Background()
	d := newTestDispatcher(t)
	root := fuseops.RootInodeID

	createOp := &fuseops.CreateFileOp{Parent: root, Name: "big.txt"}
	require.NoError(t, d.CreateFile(ctx, createOp))
	ino := createOp.Entry.Child

	require.NoError(t, d.WriteFile(ctx, &fuseops.WriteFileOp{Inode: ino, Offset: 0, Data: []byte("0123456789")}))

	size := uint64(4)
	setOp := &fuseops.SetInodeAttributesOp{Inode: ino, Size: &size}
	require.NoError(t, d.SetInodeAttributes(ctx, setOp))
	assert.Equal(t, uint64(4), setOp.Attributes.Size)

	readOp := &fuseops.ReadFileOp{Inode: ino, Offset: 0, Size: 1024}
	require.NoError(t, d.ReadFile(ctx, readOp))
	assert.Equal(t, "0123", string(readOp.Data))
}
