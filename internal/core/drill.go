// FILE: internal/core/drill.go
package core

import "time"

// DrillCandidate is a hero ply whose evaluation swing reached the mining
// threshold. Transient: it becomes a DrillRecord only after classification.
type DrillCandidate struct {
	FEN           string  `json:"fen"`
	Ply           int     `json:"ply"`
	EvalSwing     float64 `json:"eval_swing"`
	InitialEval   float64 `json:"initial_eval"`
	PlayedMoveSAN string  `json:"played_move_san"`
}

// WinningAssessment buckets the engine's top lines into "within tolerance of
// best". Invariant: HasOneWinningMove == (len(WinningMoves) == 1), and
// WinningMoves is non-empty whenever the evaluator returned at least one line.
type WinningAssessment struct {
	HasOneWinningMove bool       `json:"has_one_winning_move"`
	WinningMoves      []string   `json:"winning_moves"`
	WinningLines      [][]string `json:"winning_lines"`
}

// MaterialCounts is the snapshot persisted with each drill so the phase
// classifier can run later without replaying the game.
type MaterialCounts struct {
	WhiteQueen  bool `json:"white_queen"`
	BlackQueen  bool `json:"black_queen"`
	WhiteRooks  int  `json:"white_rook_count"`
	BlackRooks  int  `json:"black_rook_count"`
	WhiteMinors int  `json:"white_minor_count"`
	BlackMinors int  `json:"black_minor_count"`
}

// DrillRecord is the persisted drill shape. Natural key: (GameID, Username,
// Ply) - re-mining a game must not duplicate rows, and a uniqueness conflict
// on write means "already exists, skip".
type DrillRecord struct {
	ID          int64      `json:"id,omitempty"`
	GameID      string     `json:"game_id"`
	Username    string     `json:"username"`
	FEN         string     `json:"fen"`
	Ply         int        `json:"ply"`
	InitialEval float64    `json:"initial_eval"`
	EvalSwing   float64    `json:"eval_swing"`
	LosingMove  string     `json:"losing_move"`
	Assessment  WinningAssessment `json:"assessment"`
	Themes      []Theme    `json:"themes"`
	TimeUsed    *float64   `json:"time_used,omitempty"` // nil when clocks were missing
	Material    *MaterialCounts `json:"material,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// WorkItem is one queue entry: a game to mine for one hero. Processed flips
// exactly once, after all drills are durably written (or the game yielded
// none).
type WorkItem struct {
	ID           string     `json:"id"`
	GameID       string     `json:"game_id"`
	HeroUsername string     `json:"hero_username"`
	Processed    bool       `json:"processed"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// GameRecord holds the stored game. The mining core reads only PGN, the two
// usernames and the time control; the rest is carried for the listing API.
type GameRecord struct {
	ID            string    `json:"id"`
	GameUUID      string    `json:"game_uuid"`
	WhiteUsername string    `json:"white_username"`
	BlackUsername string    `json:"black_username"`
	WhiteResult   string    `json:"white_result,omitempty"`
	BlackResult   string    `json:"black_result,omitempty"`
	TimeControl   string    `json:"time_control"`
	TimeClass     string    `json:"time_class,omitempty"`
	ECO           string    `json:"eco,omitempty"`
	URL           string    `json:"url,omitempty"`
	PlayedAt      time.Time `json:"played_at"`
	PGN           string    `json:"pgn"`
}
