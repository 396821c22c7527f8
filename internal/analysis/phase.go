// FILE: internal/analysis/phase.go
package analysis

import (
	"github.com/notnil/chess"

	"github.com/mattslight/blunderfixer-api/internal/core"
)

// DefaultOpeningThreshold is the full-move number below which a position is
// always classified as opening.
const DefaultOpeningThreshold = 10

// ClassifyPhase assigns a phase from a ply and an optional material snapshot.
// The move number is ply/2. With no material snapshot the move number decides
// alone: opening before the threshold, middlegame after. With material known,
// early moves stay opening only while at least one queen is on the board; a
// queenless position is bucketed by material no matter how early it is.
//
// The material score weighs queens double: queens*2 + rooks + minors, taking
// the stronger side. Scores of 5 and up stay middlegame, 3-4 are late
// middlegame and 2 or less is endgame.
func ClassifyPhase(ply int, mat *core.MaterialCounts, openingThreshold int) core.Phase {
	if openingThreshold <= 0 {
		openingThreshold = DefaultOpeningThreshold
	}
	moveNo := ply / 2
	if mat == nil {
		if moveNo < openingThreshold {
			return core.PhaseOpening
		}
		return core.PhaseMiddle
	}
	if moveNo < openingThreshold && (mat.WhiteQueen || mat.BlackQueen) {
		return core.PhaseOpening
	}

	white := queenWeight(mat.WhiteQueen) + mat.WhiteRooks + mat.WhiteMinors
	black := queenWeight(mat.BlackQueen) + mat.BlackRooks + mat.BlackMinors
	score := white
	if black > score {
		score = black
	}

	switch {
	case score >= 5:
		return core.PhaseMiddle
	case score >= 3:
		return core.PhaseLate
	default:
		return core.PhaseEndgame
	}
}

func queenWeight(present bool) int {
	if present {
		return 2
	}
	return 0
}

// CountMaterial snapshots the non-pawn material on a board for phase
// classification and drill persistence.
func CountMaterial(b *chess.Board) core.MaterialCounts {
	var m core.MaterialCounts
	for sq := chess.Square(0); sq < 64; sq++ {
		p := b.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		white := p.Color() == chess.White
		switch p.Type() {
		case chess.Queen:
			if white {
				m.WhiteQueen = true
			} else {
				m.BlackQueen = true
			}
		case chess.Rook:
			if white {
				m.WhiteRooks++
			} else {
				m.BlackRooks++
			}
		case chess.Knight, chess.Bishop:
			if white {
				m.WhiteMinors++
			} else {
				m.BlackMinors++
			}
		}
	}
	return m
}

// GamePhaseAt is the coarse three-state label for whole-game annotation:
// simplified material wins over move count, so a quick queen trade can put
// an early position in the endgame bucket.
func GamePhaseAt(b *chess.Board, ply int) core.Phase {
	if IsStudyableEndgame(CountMaterial(b)) {
		return core.PhaseEndgame
	}
	if ply/2 < DefaultOpeningThreshold {
		return core.PhaseOpening
	}
	return core.PhaseMiddle
}

// IsStudyableEndgame reports whether a position is simplified enough to study
// as an endgame: at most 3 non-pawn pieces per side and 6 in total.
func IsStudyableEndgame(m core.MaterialCounts) bool {
	white := queenCount(m.WhiteQueen) + m.WhiteRooks + m.WhiteMinors
	black := queenCount(m.BlackQueen) + m.BlackRooks + m.BlackMinors
	return white <= 3 && black <= 3 && white+black <= 6
}

func queenCount(present bool) int {
	if present {
		return 1
	}
	return 0
}
