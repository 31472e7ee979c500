package store

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	input_path TEXT NOT NULL,
	status TEXT NOT NULL,
	total INTEGER DEFAULT 0,
	resolved INTEGER DEFAULT 0,
	not_found INTEGER DEFAULT 0,
	failed INTEGER DEFAULT 0,
	started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS outcomes (
	run_id TEXT NOT NULL REFERENCES runs(id),
	position INTEGER NOT NULL,

	cell_line TEXT NOT NULL,
	accepted_name TEXT NOT NULL,
	legacy_name TEXT,
	genus TEXT,

	query_used TEXT,
	status TEXT NOT NULL,
	accession TEXT,
	assembly_level TEXT,
	annotated BOOLEAN DEFAULT 0,
	detail TEXT,

	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(run_id, status);
`
