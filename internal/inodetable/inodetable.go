// Package inodetable implements the process-lifetime bijection between
// kernel-visible inode numbers and the canonical absolute paths notefs
// exposes to the kernel.
package inodetable

import (
	"strings"
	"sync"

	"github.com/jacobsa/fuse/fuseops"
)

// RootInodeID is pre-installed for the mount root "/" and is never
// allocated by Table.GetOrCreate.
const RootInodeID = fuseops.RootInodeID

// Table is a bijective path <-> inode map with monotonic allocation.
// It is owned exclusively by the operation dispatcher; callers are
// expected to serialize their own access (see internal/fsadapter).
type Table struct {
	mu        sync.Mutex
	byPath    map[string]fuseops.InodeID
	byInode   map[fuseops.InodeID]string
	nextInode fuseops.InodeID
}

// New returns a Table with only the root path installed.
func New() *Table {
	t := &Table{
		byPath:    make(map[string]fuseops.InodeID),
		byInode:   make(map[fuseops.InodeID]string),
		nextInode: RootInodeID + 1,
	}
	t.byPath["/"] = RootInodeID
	t.byInode[RootInodeID] = "/"
	return t
}

// Root returns the reserved inode number for "/".
func (t *Table) Root() fuseops.InodeID {
	return RootInodeID
}

// GetOrCreate returns the existing inode for path, allocating a fresh
// one if path has never been exposed to the kernel before.
func (t *Table) GetOrCreate(path string) fuseops.InodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getOrCreateLocked(path)
}

func (t *Table) getOrCreateLocked(path string) fuseops.InodeID {
	if ino, ok := t.byPath[path]; ok {
		return ino
	}
	ino := t.nextInode
	t.nextInode++
	t.byPath[path] = ino
	t.byInode[ino] = path
	return ino
}

// PathOf returns the path currently mapped to ino, if any.
func (t *Table) PathOf(ino fuseops.InodeID) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byInode[ino]
	return p, ok
}

// InodeOf returns the inode currently mapped to path, if any, without
// allocating one.
func (t *Table) InodeOf(path string) (fuseops.InodeID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ino, ok := t.byPath[path]
	return ino, ok
}

// Drop removes both directions of path's mapping, if present.
func (t *Table) Drop(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dropLocked(path)
}

func (t *Table) dropLocked(path string) {
	ino, ok := t.byPath[path]
	if !ok {
		return
	}
	delete(t.byPath, path)
	delete(t.byInode, ino)
}

// RenameSubtree rewrites every live path equal to oldPrefix, or rooted
// under oldPrefix, to the corresponding path under newPrefix. Inode
// numbers are preserved, so file handles opened before the rename
// continue to address the same content afterwards.
func (t *Table) RenameSubtree(oldPrefix, newPrefix string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prefixWithSlash := oldPrefix + "/"
	type move struct {
		from, to string
		ino      fuseops.InodeID
	}
	var moves []move
	for p, ino := range t.byPath {
		if p == oldPrefix {
			moves = append(moves, move{p, newPrefix, ino})
			continue
		}
		if strings.HasPrefix(p, prefixWithSlash) {
			suffix := p[len(oldPrefix):]
			moves = append(moves, move{p, newPrefix + suffix, ino})
		}
	}
	for _, m := range moves {
		delete(t.byPath, m.from)
		delete(t.byInode, m.ino)
	}
	for _, m := range moves {
		t.byPath[m.to] = m.ino
		t.byInode[m.ino] = m.to
	}
}
