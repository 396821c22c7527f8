// FILE: internal/core/core.go
package core

// Phase is the game phase a drill position belongs to
type Phase string

const (
	PhaseOpening Phase = "opening"
	PhaseMiddle  Phase = "middle"
	PhaseLate    Phase = "late"
	PhaseEndgame Phase = "endgame"
)

// Theme is a tactical motif label attached to a drill
type Theme string

const (
	ThemeCapture          Theme = "capture"
	ThemeCheck            Theme = "check"
	ThemePawnPush         Theme = "pawn_push"
	ThemeEnPassant        Theme = "en_passant"
	ThemePromotion        Theme = "promotion"
	ThemeCastling         Theme = "castling"
	ThemeKnightFork       Theme = "knight_fork"
	ThemeDiscoveredCheck  Theme = "discovered_check"
	ThemeDiscoveredAttack Theme = "discovered_attack"
	ThemePin              Theme = "pin"
	ThemeSkewer           Theme = "skewer"
)

// Error codes
const (
	ErrInvalidFEN        = "INVALID_FEN"
	ErrInvalidPGN        = "INVALID_PGN"
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrGameNotFound      = "GAME_NOT_FOUND"
	ErrDrillNotFound     = "DRILL_NOT_FOUND"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrInternalError     = "INTERNAL_ERROR"
)
