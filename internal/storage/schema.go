// FILE: internal/storage/schema.go
package storage

// Schema defines the SQLite database structure. Uniqueness carries the
// idempotency contract: re-importing a game or re-mining a ply never
// duplicates rows.
const Schema = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	game_uuid TEXT NOT NULL UNIQUE,
	white_username TEXT NOT NULL,
	black_username TEXT NOT NULL,
	white_result TEXT NOT NULL DEFAULT '',
	black_result TEXT NOT NULL DEFAULT '',
	time_control TEXT NOT NULL DEFAULT '',
	time_class TEXT NOT NULL DEFAULT '',
	eco TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	played_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	pgn TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS drill_queue (
	id TEXT PRIMARY KEY,
	game_id TEXT NOT NULL,
	hero_username TEXT NOT NULL,
	processed INTEGER NOT NULL DEFAULT 0,
	processed_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE,
	UNIQUE(game_id, hero_username)
);

CREATE TABLE IF NOT EXISTS drill_positions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id TEXT NOT NULL,
	username TEXT NOT NULL,
	fen TEXT NOT NULL,
	ply INTEGER NOT NULL,
	initial_eval REAL NOT NULL,
	eval_swing REAL NOT NULL,
	losing_move TEXT NOT NULL,
	has_one_winning_move INTEGER NOT NULL DEFAULT 0,
	winning_moves TEXT NOT NULL DEFAULT '[]',
	winning_lines TEXT NOT NULL DEFAULT '[]',
	themes TEXT NOT NULL DEFAULT '[]',
	time_used REAL,
	material TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE,
	UNIQUE(game_id, username, ply)
);

CREATE INDEX IF NOT EXISTS idx_queue_unprocessed ON drill_queue(processed, created_at);
CREATE INDEX IF NOT EXISTS idx_drills_username ON drill_positions(username);
CREATE INDEX IF NOT EXISTS idx_drills_game_id ON drill_positions(game_id);
`
