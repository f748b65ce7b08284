package store_test

import (
	"context"
	"testing"

	"github.com/jacobsa/timeutil"
	"github.com/relfs/notefs/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) *store.Gateway {
	t.Helper()
	g, err := store.Open(":memory:", timeutil.RealClock())
	require.NoError(t, err)
	require.NoError(t, g.InitSchema(context.Background()))
	t.Cleanup(func() { _ = g.Close() })
	return g
}

const principal = "alice"

func TestCreateAndGetFolder(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)

	id, err := g.CreateFolder(ctx, "notes", "", principal)
	require.NoError(t, err)

	f, err := g.GetFolderByID(ctx, id, principal)
	require.NoError(t, err)
	assert.Equal(t, "notes", f.Title)
	assert.Empty(t, f.ParentID)

	gotID, err := g.GetFolderIDByPath(ctx, "notes", principal)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
}

func TestCreateFolderConflict(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)

	_, err := g.CreateFolder(ctx, "notes", "", principal)
	require.NoError(t, err)

	_, err = g.CreateFolder(ctx, "notes", "", principal)
	require.Error(t, err)
	assert.Equal(t, store.KindConflict, store.KindOf(err))
}

func TestFolderNotFound(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)

	_, err := g.GetFolderIDByPath(ctx, "missing", principal)
	require.Error(t, err)
	assert.Equal(t, store.KindNotFound, store.KindOf(err))
}

func TestNestedFolderAndNotePaths(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)

	folderID, err := g.CreateFolder(ctx, "notes", "", principal)
	require.NoError(t, err)

	noteID, err := g.CreateNote(ctx, "hello", "", "hi", "md", folderID, principal)
	require.NoError(t, err)

	gotID, err := g.GetNoteIDByPath(ctx, "notes/hello.md", principal)
	require.NoError(t, err)
	assert.Equal(t, noteID, gotID)

	n, err := g.GetNoteByID(ctx, noteID)
	require.NoError(t, err)
	assert.Equal(t, "hi", n.Content)
	assert.Equal(t, "hello.md", n.Basename())
}

func TestUpdateNoteContentAndRename(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)

	noteID, err := g.CreateNote(ctx, "hello", "", "hi", "md", "", principal)
	require.NoError(t, err)

	ok, err := g.UpdateNote(ctx, noteID, "bye", "", "hi there", "txt")
	require.NoError(t, err)
	assert.True(t, ok)

	gotID, err := g.GetNoteIDByPath(ctx, "bye.txt", principal)
	require.NoError(t, err)
	assert.Equal(t, noteID, gotID)
}

func TestGetChildCountAndDeleteFolder(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)

	folderID, err := g.CreateFolder(ctx, "notes", "", principal)
	require.NoError(t, err)
	noteID, err := g.CreateNote(ctx, "hello", "", "hi", "md", folderID, principal)
	require.NoError(t, err)

	folders, notes, err := g.GetChildCount(ctx, folderID, principal)
	require.NoError(t, err)
	assert.Equal(t, 0, folders)
	assert.Equal(t, 1, notes)

	ok, err := g.DeleteFolder(ctx, folderID, principal)
	require.NoError(t, err)
	assert.True(t, ok, "delete never cascades; the caller must enforce emptiness")

	// The note row is untouched by the folder delete, proving the
	// gateway itself does not cascade.
	n, err := g.GetNoteByID(ctx, noteID)
	require.NoError(t, err)
	assert.Equal(t, folderID, n.ParentID)
}

func TestPrincipals(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)

	_, err := g.CreateFolder(ctx, "notes", "", "alice")
	require.NoError(t, err)
	_, err = g.CreateFolder(ctx, "docs", "", "bob")
	require.NoError(t, err)
	_, err = g.CreateFolder(ctx, "drafts", "", "alice")
	require.NoError(t, err)
	_, err = g.CreateNote(ctx, "todo", "", "", "md", "", "alice")
	require.NoError(t, err)

	summaries, err := g.Principals(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "alice", summaries[0].Principal)
	assert.Equal(t, 2, summaries[0].FolderCount)
	assert.Equal(t, 1, summaries[0].NoteCount)
	assert.Equal(t, "bob", summaries[1].Principal)
	assert.Equal(t, 1, summaries[1].FolderCount)
	assert.Equal(t, 0, summaries[1].NoteCount)
}
