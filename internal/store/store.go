// Package store is the Store Gateway: a thin typed adapter over a
// relational database holding folders and notes. It makes no
// decisions beyond executing the named query — name collisions,
// ignored-name handling and path splitting live in internal/classify
// and internal/fsadapter.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jacobsa/timeutil"
	_ "modernc.org/sqlite"
)

const civilLayout = "2006-01-02 15:04:05"

// Gateway is the notefs Store Gateway (C3). It owns the database
// connection for the lifetime of the mount.
type Gateway struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens dsn (a filesystem path, or ":memory:" for an ephemeral
// store) through the pure-Go sqlite driver. The caller must call
// InitSchema before first use of a fresh database.
func Open(dsn string, clock timeutil.Clock) (*Gateway, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", dsn, err)
	}
	// notefs enforces single-writer semantics itself (see
	// internal/fsadapter's dispatcher-wide mutex); cap the pool at one
	// connection so sqlite never has to arbitrate writers on our
	// behalf.
	db.SetMaxOpenConns(1)
	return &Gateway{db: db, clock: clock}, nil
}

// InitSchema installs the folders/notes tables and path views. It is
// idempotent.
func (g *Gateway) InitSchema(ctx context.Context) error {
	if _, err := g.db.ExecContext(ctx, schema); err != nil {
		return ioError("init-schema", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (g *Gateway) Close() error {
	return g.db.Close()
}

func (g *Gateway) now() string {
	return g.clock.Now().Format(civilLayout)
}

// nullable turns an empty string (notefs's convention for "no
// parent") into a SQL NULL parameter.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func textOrEmpty(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// CreateFolder inserts a new folder and returns its id.
func (g *Gateway) CreateFolder(ctx context.Context, title, parentID, principal string) (string, error) {
	id := uuid.NewString()
	now := g.now()
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO folders (id, title, parent_id, principal, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, title, nullable(parentID), principal, now, now)
	if err != nil {
		return "", classifyWriteErr("create-folder", err)
	}
	return id, nil
}

// GetFolderByID fetches a folder by id, scoped to principal.
func (g *Gateway) GetFolderByID(ctx context.Context, id, principal string) (*Folder, error) {
	row := g.db.QueryRowContext(ctx,
		`SELECT id, title, parent_id, principal, created_at, updated_at
		 FROM folders WHERE id = ? AND principal = ?`, id, principal)
	var f Folder
	var parentID sql.NullString
	if err := row.Scan(&f.ID, &f.Title, &parentID, &f.Principal, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("get-folder-by-id")
		}
		return nil, ioError("get-folder-by-id", err)
	}
	f.ParentID = textOrEmpty(parentID)
	return &f, nil
}

// GetFolderIDByPath resolves a store-facing path (no leading slash) to
// a folder id, or returns not-found. The root "/" has no folder row,
// so it too reports not-found.
func (g *Gateway) GetFolderIDByPath(ctx context.Context, storePath, principal string) (string, error) {
	row := g.db.QueryRowContext(ctx,
		`SELECT id FROM folder_paths WHERE path = ? AND principal = ?`, storePath, principal)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", notFound("get-folder-id-by-path")
		}
		return "", ioError("get-folder-id-by-path", err)
	}
	return id, nil
}

// UpdateFolder renames a folder in place.
func (g *Gateway) UpdateFolder(ctx context.Context, id, newTitle, principal string) (bool, error) {
	res, err := g.db.ExecContext(ctx,
		`UPDATE folders SET title = ?, updated_at = ? WHERE id = ? AND principal = ?`,
		newTitle, g.now(), id, principal)
	if err != nil {
		return false, classifyWriteErr("update-folder", err)
	}
	return rowsAffected(res), nil
}

// UpdateFolderParent reparents a folder; an empty newParentID moves
// it to the filesystem root.
func (g *Gateway) UpdateFolderParent(ctx context.Context, id, newParentID, principal string) (bool, error) {
	res, err := g.db.ExecContext(ctx,
		`UPDATE folders SET parent_id = ?, updated_at = ? WHERE id = ? AND principal = ?`,
		nullable(newParentID), g.now(), id, principal)
	if err != nil {
		return false, classifyWriteErr("update-folder-parent", err)
	}
	return rowsAffected(res), nil
}

// DeleteFolder removes a folder row. The caller (internal/fsadapter)
// is responsible for checking emptiness first via GetChildCount;
// deletion here never cascades.
func (g *Gateway) DeleteFolder(ctx context.Context, id, principal string) (bool, error) {
	res, err := g.db.ExecContext(ctx,
		`DELETE FROM folders WHERE id = ? AND principal = ?`, id, principal)
	if err != nil {
		return false, ioError("delete-folder", err)
	}
	return rowsAffected(res), nil
}

// ListFoldersByParent returns the direct child folders of parentID
// (empty means root), ordered by title.
func (g *Gateway) ListFoldersByParent(ctx context.Context, parentID, principal string) ([]Folder, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT id, title, parent_id, principal, created_at, updated_at
		 FROM folders WHERE principal = ? AND parent_id IS ? ORDER BY title`,
		principal, nullable(parentID))
	if err != nil {
		return nil, ioError("list-folders-by-parent", err)
	}
	defer rows.Close()

	var out []Folder
	for rows.Next() {
		var f Folder
		var parentID sql.NullString
		if err := rows.Scan(&f.ID, &f.Title, &parentID, &f.Principal, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, ioError("list-folders-by-parent", err)
		}
		f.ParentID = textOrEmpty(parentID)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, ioError("list-folders-by-parent", err)
	}
	return out, nil
}

// CreateNote inserts a new note and returns its id.
func (g *Gateway) CreateNote(ctx context.Context, title, abstract, content, syntax, parentID, principal string) (string, error) {
	id := uuid.NewString()
	now := g.now()
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, syntax, parent_id, principal, abstract, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, title, syntax, nullable(parentID), principal, abstract, content, now, now)
	if err != nil {
		return "", classifyWriteErr("create-note", err)
	}
	return id, nil
}

// GetNoteByID fetches a note by id.
func (g *Gateway) GetNoteByID(ctx context.Context, id string) (*Note, error) {
	row := g.db.QueryRowContext(ctx,
		`SELECT id, title, syntax, parent_id, principal, abstract, content, created_at, updated_at
		 FROM notes WHERE id = ?`, id)
	var n Note
	var parentID sql.NullString
	if err := row.Scan(&n.ID, &n.Title, &n.Syntax, &parentID, &n.Principal, &n.Abstract, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("get-note-by-id")
		}
		return nil, ioError("get-note-by-id", err)
	}
	n.ParentID = textOrEmpty(parentID)
	return &n, nil
}

// GetNoteIDByPath resolves a store-facing path to a note id.
func (g *Gateway) GetNoteIDByPath(ctx context.Context, storePath, principal string) (string, error) {
	row := g.db.QueryRowContext(ctx,
		`SELECT id FROM note_paths WHERE path = ? AND principal = ?`, storePath, principal)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", notFound("get-note-id-by-path")
		}
		return "", ioError("get-note-id-by-path", err)
	}
	return id, nil
}

// UpdateNote replaces a note's title, abstract, content and syntax in
// place.
func (g *Gateway) UpdateNote(ctx context.Context, id, title, abstract, content, syntax string) (bool, error) {
	res, err := g.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, abstract = ?, content = ?, syntax = ?, updated_at = ? WHERE id = ?`,
		title, abstract, content, syntax, g.now(), id)
	if err != nil {
		return false, classifyWriteErr("update-note", err)
	}
	return rowsAffected(res), nil
}

// UpdateNoteParent reparents a note; an empty newParentID moves it to
// the filesystem root.
func (g *Gateway) UpdateNoteParent(ctx context.Context, id, newParentID string) (bool, error) {
	res, err := g.db.ExecContext(ctx,
		`UPDATE notes SET parent_id = ?, updated_at = ? WHERE id = ?`,
		nullable(newParentID), g.now(), id)
	if err != nil {
		return false, classifyWriteErr("update-note-parent", err)
	}
	return rowsAffected(res), nil
}

// DeleteNote removes a note row.
func (g *Gateway) DeleteNote(ctx context.Context, id string) (bool, error) {
	res, err := g.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return false, ioError("delete-note", err)
	}
	return rowsAffected(res), nil
}

// ListNotesByParent returns the direct child notes of parentID (empty
// means root), ordered by title.
func (g *Gateway) ListNotesByParent(ctx context.Context, parentID, principal string) ([]Note, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT id, title, syntax, parent_id, principal, abstract, content, created_at, updated_at
		 FROM notes WHERE principal = ? AND parent_id IS ? ORDER BY title`,
		principal, nullable(parentID))
	if err != nil {
		return nil, ioError("list-notes-by-parent", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		var parentID sql.NullString
		if err := rows.Scan(&n.ID, &n.Title, &n.Syntax, &parentID, &n.Principal, &n.Abstract, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, ioError("list-notes-by-parent", err)
		}
		n.ParentID = textOrEmpty(parentID)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, ioError("list-notes-by-parent", err)
	}
	return out, nil
}

// GetChildCount returns the number of child folders and notes under
// parentID (empty means root), scoped to principal.
func (g *Gateway) GetChildCount(ctx context.Context, parentID, principal string) (folders, notes int, err error) {
	row := g.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM folders WHERE principal = ? AND parent_id IS ?),
			(SELECT COUNT(*) FROM notes WHERE principal = ? AND parent_id IS ?)`,
		principal, nullable(parentID), principal, nullable(parentID))
	if err = row.Scan(&folders, &notes); err != nil {
		return 0, 0, ioError("get-child-count", err)
	}
	return folders, notes, nil
}

// Principals lists every distinct principal with a folder or note
// recorded, along with their folder and note counts. Used by the
// "list-users" CLI subcommand.
func (g *Gateway) Principals(ctx context.Context) ([]PrincipalSummary, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT p.principal,
			(SELECT COUNT(*) FROM folders f WHERE f.principal = p.principal),
			(SELECT COUNT(*) FROM notes n WHERE n.principal = p.principal)
		FROM (
			SELECT principal FROM folders
			UNION
			SELECT principal FROM notes
		) p
		ORDER BY p.principal`)
	if err != nil {
		return nil, ioError("principals", err)
	}
	defer rows.Close()

	var out []PrincipalSummary
	for rows.Next() {
		var s PrincipalSummary
		if err := rows.Scan(&s.Principal, &s.FolderCount, &s.NoteCount); err != nil {
			return nil, ioError("principals", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, ioError("principals", err)
	}
	return out, nil
}

// PrincipalSummary is one row of the list-users report.
type PrincipalSummary struct {
	Principal   string
	FolderCount int
	NoteCount   int
}

func rowsAffected(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n > 0
}

// classifyWriteErr turns a UNIQUE-constraint violation into
// KindConflict; anything else is an opaque KindIOError.
func classifyWriteErr(op string, err error) error {
	if isUniqueViolation(err) {
		return conflict(op)
	}
	return ioError(op, err)
}
