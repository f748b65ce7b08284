package attrs_test

import (
	"os"
	"testing"
	"time"

	"github.com/jacobsa/timeutil"
	"github.com/relfs/notefs/internal/attrs"
	"github.com/relfs/notefs/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder(t *testing.T) *attrs.Builder {
	loc, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	return attrs.NewBuilder(1000, 1000, loc, timeutil.RealClock())
}

func TestRootAttributes(t *testing.T) {
	b := newBuilder(t)
	a := b.Root()
	assert.Equal(t, os.ModeDir|attrs.DirMode, a.Mode)
	assert.Equal(t, uint64(0), a.Size)
	assert.True(t, a.Mtime.Equal(time.Unix(0, 0)))
}

func TestFolderAttributes(t *testing.T) {
	b := newBuilder(t)
	f := &store.Folder{CreatedAt: "2024-01-02 03:04:05", UpdatedAt: "2024-06-07 08:09:10"}
	a := b.Folder(f)
	assert.Equal(t, os.ModeDir|attrs.DirMode, a.Mode)
	assert.Equal(t, uint32(2), a.Nlink)
	assert.Equal(t, 2024, a.Mtime.Year())
}

func TestNoteAttributesSizedToContent(t *testing.T) {
	b := newBuilder(t)
	n := &store.Note{Content: "hello", CreatedAt: "2024-01-02 03:04:05", UpdatedAt: "2024-01-02 03:04:05"}
	a := b.Note(n)
	assert.Equal(t, uint64(5), a.Size)
	assert.Equal(t, os.FileMode(attrs.FileMode), a.Mode)
	assert.Equal(t, uint32(1), a.Nlink)
}

func TestApplySetAttrOverridesReplyOnly(t *testing.T) {
	b := newBuilder(t)
	a := b.Folder(&store.Folder{CreatedAt: "2024-01-02 03:04:05", UpdatedAt: "2024-01-02 03:04:05"})

	mode := os.FileMode(0o700)
	uid := uint32(42)
	a2 := attrs.ApplySetAttr(a, &mode, &uid, nil)

	assert.Equal(t, os.ModeDir|os.FileMode(0o700), a2.Mode, "directory bit survives a permission override")
	assert.Equal(t, uint32(42), a2.Uid)
	assert.Equal(t, a.Gid, a2.Gid)
}
