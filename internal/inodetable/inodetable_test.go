package inodetable_test

import (
	"testing"

	"github.com/relfs/notefs/internal/inodetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInstallsRoot(t *testing.T) {
	tbl := inodetable.New()

	ino, ok := tbl.InodeOf("/")
	require.True(t, ok)
	assert.Equal(t, tbl.Root(), ino)

	p, ok := tbl.PathOf(tbl.Root())
	require.True(t, ok)
	assert.Equal(t, "/", p)
}

func TestGetOrCreateIsMonotonicAndStable(t *testing.T) {
	tbl := inodetable.New()

	first := tbl.GetOrCreate("/notes")
	second := tbl.GetOrCreate("/notes")
	assert.Equal(t, first, second, "repeated lookups of the same path return the same inode")
	assert.Greater(t, uint64(first), uint64(tbl.Root()))

	other := tbl.GetOrCreate("/other")
	assert.NotEqual(t, first, other)
	assert.Greater(t, uint64(other), uint64(first))
}

func TestDrop(t *testing.T) {
	tbl := inodetable.New()
	ino := tbl.GetOrCreate("/notes/hello.md")

	tbl.Drop("/notes/hello.md")

	_, ok := tbl.InodeOf("/notes/hello.md")
	assert.False(t, ok)
	_, ok = tbl.PathOf(ino)
	assert.False(t, ok)
}

func TestRenameSubtreePreservesInodes(t *testing.T) {
	tbl := inodetable.New()
	folder := tbl.GetOrCreate("/notes")
	note := tbl.GetOrCreate("/notes/hello.md")
	sibling := tbl.GetOrCreate("/other")

	tbl.RenameSubtree("/notes", "/archive")

	p, ok := tbl.PathOf(folder)
	require.True(t, ok)
	assert.Equal(t, "/archive", p)

	p, ok = tbl.PathOf(note)
	require.True(t, ok)
	assert.Equal(t, "/archive/hello.md", p)

	p, ok = tbl.PathOf(sibling)
	require.True(t, ok)
	assert.Equal(t, "/other", p, "paths outside the renamed subtree are untouched")

	_, ok = tbl.InodeOf("/notes")
	assert.False(t, ok)
	_, ok = tbl.InodeOf("/notes/hello.md")
	assert.False(t, ok)
}

func TestRenameSubtreeSingleFile(t *testing.T) {
	tbl := inodetable.New()
	note := tbl.GetOrCreate("/hello.md")

	tbl.RenameSubtree("/hello.md", "/bye.txt")

	ino, ok := tbl.InodeOf("/bye.txt")
	require.True(t, ok)
	assert.Equal(t, note, ino)
}
