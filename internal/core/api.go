// FILE: internal/core/api.go
package core

import "time"

// Request types

type ExtractFeaturesRequest struct {
	FEN string `json:"fen" validate:"required,min=10,max=100"`
}

type ClassifyPhaseRequest struct {
	Ply              int             `json:"ply" validate:"min=0"`
	Material         *MaterialCounts `json:"material,omitempty"`
	OpeningThreshold int             `json:"opening_threshold,omitempty" validate:"omitempty,min=1"`
}

type DetectThemesRequest struct {
	FEN  string `json:"fen" validate:"required,min=10,max=100"`
	Move string `json:"move" validate:"required,min=2,max=10"` // SAN
}

type ImportGameRequest struct {
	GameUUID      string `json:"game_uuid,omitempty" validate:"omitempty,max=64"`
	PGN           string `json:"pgn" validate:"required"`
	WhiteUsername string `json:"white_username" validate:"required,max=64"`
	BlackUsername string `json:"black_username" validate:"required,max=64"`
	WhiteResult   string `json:"white_result,omitempty" validate:"omitempty,max=32"`
	BlackResult   string `json:"black_result,omitempty" validate:"omitempty,max=32"`
	TimeControl   string `json:"time_control,omitempty" validate:"omitempty,max=16"`
	TimeClass     string `json:"time_class,omitempty" validate:"omitempty,max=16"`
	HeroUsername  string `json:"hero_username" validate:"required,max=64"`
	PlayedAt      *time.Time `json:"played_at,omitempty"`
}

// Response types

type ClassifyPhaseResponse struct {
	Phase Phase `json:"phase"`
}

type DetectThemesResponse struct {
	Themes []Theme `json:"themes"`
}

type ImportGameResponse struct {
	GameID string `json:"game_id"`
	WorkID string `json:"work_id"`
	Queued bool   `json:"queued"`
}

// DrillResponse is the listing shape: the stored drill joined with the game
// context it came from, plus the derived phase label.
type DrillResponse struct {
	ID               int64      `json:"id"`
	GameID           string     `json:"game_id"`
	Username         string     `json:"username"`
	FEN              string     `json:"fen"`
	Ply              int        `json:"ply"`
	InitialEval      float64    `json:"initial_eval"`
	EvalSwing        float64    `json:"eval_swing"`
	LosingMove       string     `json:"losing_move"`
	Phase            Phase      `json:"phase"`
	HasOneWinningMove bool      `json:"has_one_winning_move"`
	WinningMoves     []string   `json:"winning_moves"`
	WinningLines     [][]string `json:"winning_lines"`
	Themes           []Theme    `json:"themes"`
	TimeUsed         *float64   `json:"time_used,omitempty"`
	OpponentUsername string     `json:"opponent_username"`
	TimeControl      string     `json:"time_control"`
	TimeClass        string     `json:"time_class,omitempty"`
	GamePlayedAt     time.Time  `json:"game_played_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
