package store

// schema is the DDL installed by --init-db. Folder and note paths are
// exposed to Go code only through the two recursive views below; the
// gateway never walks the hierarchy component-by-component itself.
const schema = `
CREATE TABLE IF NOT EXISTS folders (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	parent_id  TEXT REFERENCES folders(id),
	principal  TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE (principal, parent_id, title)
);

CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	syntax     TEXT NOT NULL,
	parent_id  TEXT REFERENCES folders(id),
	principal  TEXT NOT NULL,
	abstract   TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE (principal, parent_id, title, syntax)
);

CREATE INDEX IF NOT EXISTS folders_parent_idx ON folders(principal, parent_id);
CREATE INDEX IF NOT EXISTS notes_parent_idx ON notes(principal, parent_id);

-- SQLite treats NULLs as distinct in the UNIQUE constraints above, so
-- root-level siblings (parent_id IS NULL) get their own unique indexes.
CREATE UNIQUE INDEX IF NOT EXISTS folders_root_title_idx ON folders(principal, title) WHERE parent_id IS NULL;
CREATE UNIQUE INDEX IF NOT EXISTS notes_root_title_idx ON notes(principal, title, syntax) WHERE parent_id IS NULL;

-- folder_paths maps every folder id to its store-facing path (no
-- leading slash; "/" itself never appears here since the root is
-- synthetic and has no row).
DROP VIEW IF EXISTS folder_paths;
CREATE VIEW folder_paths (id, principal, path) AS
WITH RECURSIVE walk(id, principal, path) AS (
	SELECT id, principal, title
	FROM folders
	WHERE parent_id IS NULL

	UNION ALL

	SELECT f.id, f.principal, walk.path || '/' || f.title
	FROM folders f
	JOIN walk ON f.parent_id = walk.id
)
SELECT id, principal, path FROM walk;

-- note_paths maps every note id to its store-facing "{title}.{syntax}"
-- path, prefixed by its parent folder's path when it has one.
DROP VIEW IF EXISTS note_paths;
CREATE VIEW note_paths (id, principal, path) AS
SELECT n.id,
       n.principal,
       CASE
	       WHEN n.parent_id IS NULL THEN n.title || '.' || n.syntax
	       ELSE fp.path || '/' || n.title || '.' || n.syntax
       END AS path
FROM notes n
LEFT JOIN folder_paths fp ON fp.id = n.parent_id;
`
