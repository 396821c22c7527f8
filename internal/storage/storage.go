// FILE: internal/storage/storage.go
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mattslight/blunderfixer-api/internal/core"
)

// Store handles SQLite database operations. Writes are synchronous and
// transactional: the queue runner marks work processed only after its drills
// are durable, so fire-and-forget writes are not an option here.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// NewStore opens the database, applying WAL mode and foreign keys.
func NewStore(dataSourceName string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &Store{db: db, log: log}, nil
}

// InitDB creates the database schema
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveGame upserts a game by its external UUID and returns the stored row ID.
// Re-importing the same game returns the existing ID unchanged.
func (s *Store) SaveGame(g core.GameRecord) (string, error) {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}

	query := `INSERT INTO games (
		id, game_uuid, white_username, black_username,
		white_result, black_result, time_control, time_class,
		eco, url, played_at, pgn
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(game_uuid) DO NOTHING`

	res, err := s.db.Exec(query,
		g.ID, g.GameUUID, g.WhiteUsername, g.BlackUsername,
		g.WhiteResult, g.BlackResult, g.TimeControl, g.TimeClass,
		g.ECO, g.URL, g.PlayedAt, g.PGN,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save game: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		var existing string
		err := s.db.QueryRow(`SELECT id FROM games WHERE game_uuid = ?`, g.GameUUID).Scan(&existing)
		if err != nil {
			return "", fmt.Errorf("failed to resolve existing game: %w", err)
		}
		return existing, nil
	}
	return g.ID, nil
}

// EnqueueWork adds a (game, hero) pair to the drill queue. A duplicate pair
// is a no-op and returns the existing item's ID with queued=false.
func (s *Store) EnqueueWork(gameID, heroUsername string) (string, bool, error) {
	id := uuid.New().String()

	res, err := s.db.Exec(`INSERT INTO drill_queue (id, game_id, hero_username)
		VALUES (?, ?, ?)
		ON CONFLICT(game_id, hero_username) DO NOTHING`,
		id, gameID, heroUsername,
	)
	if err != nil {
		return "", false, fmt.Errorf("failed to enqueue work: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		var existing string
		err := s.db.QueryRow(
			`SELECT id FROM drill_queue WHERE game_id = ? AND hero_username = ?`,
			gameID, heroUsername,
		).Scan(&existing)
		if err != nil {
			return "", false, fmt.Errorf("failed to resolve existing work item: %w", err)
		}
		return existing, false, nil
	}
	return id, true, nil
}

// FetchUnprocessed returns the oldest unprocessed work items, up to limit.
func (s *Store) FetchUnprocessed(limit int) ([]core.WorkItem, error) {
	rows, err := s.db.Query(`SELECT id, game_id, hero_username, processed, processed_at
		FROM drill_queue WHERE processed = 0
		ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var items []core.WorkItem
	for rows.Next() {
		var w core.WorkItem
		var processedAt sql.NullTime
		if err := rows.Scan(&w.ID, &w.GameID, &w.HeroUsername, &w.Processed, &processedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if processedAt.Valid {
			w.ProcessedAt = &processedAt.Time
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return items, nil
}

// GetGame loads a stored game by row ID.
func (s *Store) GetGame(id string) (*core.GameRecord, error) {
	var g core.GameRecord
	err := s.db.QueryRow(`SELECT id, game_uuid, white_username, black_username,
		white_result, black_result, time_control, time_class,
		eco, url, played_at, pgn
		FROM games WHERE id = ?`, id).Scan(
		&g.ID, &g.GameUUID, &g.WhiteUsername, &g.BlackUsername,
		&g.WhiteResult, &g.BlackResult, &g.TimeControl, &g.TimeClass,
		&g.ECO, &g.URL, &g.PlayedAt, &g.PGN,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	return &g, nil
}

// InsertDrills writes a batch of drills in one transaction and returns how
// many were new. Conflicts on (game_id, username, ply) are skipped, so
// re-mining a processed game is harmless.
func (s *Store) InsertDrills(drills []core.DrillRecord) (int, error) {
	if len(drills) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO drill_positions (
		game_id, username, fen, ply, initial_eval, eval_swing, losing_move,
		has_one_winning_move, winning_moves, winning_lines, themes,
		time_used, material
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(game_id, username, ply) DO NOTHING`

	inserted := 0
	for _, d := range drills {
		moves, err := json.Marshal(d.Assessment.WinningMoves)
		if err != nil {
			return 0, fmt.Errorf("failed to encode winning moves: %w", err)
		}
		lines, err := json.Marshal(d.Assessment.WinningLines)
		if err != nil {
			return 0, fmt.Errorf("failed to encode winning lines: %w", err)
		}
		themes, err := json.Marshal(d.Themes)
		if err != nil {
			return 0, fmt.Errorf("failed to encode themes: %w", err)
		}
		var material interface{}
		if d.Material != nil {
			raw, err := json.Marshal(d.Material)
			if err != nil {
				return 0, fmt.Errorf("failed to encode material: %w", err)
			}
			material = string(raw)
		}
		var timeUsed interface{}
		if d.TimeUsed != nil {
			timeUsed = *d.TimeUsed
		}

		res, err := tx.Exec(query,
			d.GameID, d.Username, d.FEN, d.Ply, d.InitialEval, d.EvalSwing,
			d.LosingMove, d.Assessment.HasOneWinningMove,
			string(moves), string(lines), string(themes),
			timeUsed, material,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert drill: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}

// MarkProcessed flips a work item to processed. Called only after the item's
// drills are committed.
func (s *Store) MarkProcessed(workID string) error {
	_, err := s.db.Exec(`UPDATE drill_queue SET processed = 1, processed_at = ?
		WHERE id = ?`, time.Now().UTC(), workID)
	if err != nil {
		return fmt.Errorf("failed to mark work processed: %w", err)
	}
	return nil
}

// ListDrills retrieves drills with optional filtering by username, game and
// minimum evaluation swing.
func (s *Store) ListDrills(username, gameID string, minSwing float64, limit int) ([]core.DrillRecord, error) {
	query := `SELECT id, game_id, username, fen, ply, initial_eval, eval_swing,
		losing_move, has_one_winning_move, winning_moves, winning_lines, themes,
		time_used, material, created_at
		FROM drill_positions WHERE 1=1`

	var args []interface{}
	if username != "" {
		query += " AND username = ?"
		args = append(args, username)
	}
	if gameID != "" {
		query += " AND game_id = ?"
		args = append(args, gameID)
	}
	if minSwing > 0 {
		query += " AND eval_swing >= ?"
		args = append(args, minSwing)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var drills []core.DrillRecord
	for rows.Next() {
		var d core.DrillRecord
		var moves, lines, themes string
		var timeUsed sql.NullFloat64
		var material sql.NullString

		err := rows.Scan(
			&d.ID, &d.GameID, &d.Username, &d.FEN, &d.Ply,
			&d.InitialEval, &d.EvalSwing, &d.LosingMove,
			&d.Assessment.HasOneWinningMove, &moves, &lines, &themes,
			&timeUsed, &material, &d.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		if err := json.Unmarshal([]byte(moves), &d.Assessment.WinningMoves); err != nil {
			return nil, fmt.Errorf("failed to decode winning moves: %w", err)
		}
		if err := json.Unmarshal([]byte(lines), &d.Assessment.WinningLines); err != nil {
			return nil, fmt.Errorf("failed to decode winning lines: %w", err)
		}
		if err := json.Unmarshal([]byte(themes), &d.Themes); err != nil {
			return nil, fmt.Errorf("failed to decode themes: %w", err)
		}
		if timeUsed.Valid {
			d.TimeUsed = &timeUsed.Float64
		}
		if material.Valid {
			var m core.MaterialCounts
			if err := json.Unmarshal([]byte(material.String), &m); err == nil {
				d.Material = &m
			}
		}
		drills = append(drills, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return drills, nil
}
