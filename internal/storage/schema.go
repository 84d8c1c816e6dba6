package storage

// ids come from a sequence, so a deleted id is never handed out again
const createNotesTable = `
	CREATE TABLE IF NOT EXISTS notes (
		id         BIGSERIAL PRIMARY KEY,
		title      VARCHAR(255) NOT NULL CHECK (title <> ''),
		content    TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`

const createNotesCreatedAtIndex = `
	CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes (created_at DESC, id DESC);`

var schema = []string{
	createNotesTable,
	createNotesCreatedAtIndex,
}
