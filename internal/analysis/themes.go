// FILE: internal/analysis/themes.go
package analysis

import (
	"github.com/notnil/chess"

	"github.com/mattslight/blunderfixer-api/internal/core"
)

var forkTargets = map[chess.PieceType]bool{
	chess.Queen: true,
	chess.Rook:  true,
	chess.King:  true,
}

// DetectThemes tags a single move with tactical and structural motifs. The
// move is SAN relative to the given position; an unparseable move yields an
// empty tag list rather than an error, so malformed records degrade softly.
func DetectThemes(fen, moveSAN string) ([]core.Theme, error) {
	pos, err := parseFEN(fen)
	if err != nil {
		return nil, err
	}
	move, err := chess.AlgebraicNotation{}.Decode(pos, moveSAN)
	if err != nil {
		return []core.Theme{}, nil
	}

	before := pos.Board()
	mover := pos.Turn()
	after := pos.Update(move)
	bAfter := after.Board()

	themes := []core.Theme{}
	add := func(t core.Theme) { themes = append(themes, t) }

	moved := before.Piece(move.S1())

	if move.HasTag(chess.Capture) || move.HasTag(chess.EnPassant) {
		add(core.ThemeCapture)
	}
	if move.HasTag(chess.Check) {
		add(core.ThemeCheck)
	}
	if moved.Type() == chess.Pawn {
		add(core.ThemePawnPush)
	}
	if move.HasTag(chess.EnPassant) {
		add(core.ThemeEnPassant)
	}
	if move.Promo() != chess.NoPieceType {
		add(core.ThemePromotion)
	}
	if move.HasTag(chess.KingSideCastle) || move.HasTag(chess.QueenSideCastle) {
		add(core.ThemeCastling)
	}

	if knightFork(bAfter) {
		add(core.ThemeKnightFork)
	}

	if disc, checkByOther := discoveredAttack(before, bAfter, move, mover); disc {
		add(core.ThemeDiscoveredAttack)
		if checkByOther {
			add(core.ThemeDiscoveredCheck)
		}
	}

	if hasPin(bAfter, mover.Other()) {
		add(core.ThemePin)
	}
	if hasSkewer(bAfter, mover) {
		add(core.ThemeSkewer)
	}

	return themes, nil
}

// knightFork looks for any knight, either side, attacking two or more of the
// other side's royal or rook-class pieces after the move.
func knightFork(b *chess.Board) bool {
	for _, c := range [2]chess.Color{chess.White, chess.Black} {
		for _, nsq := range piecesOf(b, c, chess.Knight) {
			hits := 0
			for _, off := range knightOffsets {
				f, r := fileOf(nsq)+off[0], rankOf(nsq)+off[1]
				if !onBoard(f, r) {
					continue
				}
				p := b.Piece(squareAt(f, r))
				if p != chess.NoPiece && p.Color() != c && forkTargets[p.Type()] {
					hits++
				}
			}
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}

type attackPair struct {
	from chess.Square
	to   chess.Square
}

// sliderAttackPairs collects every (slider, enemy target) pair on the board
// for the mover's long-range pieces.
func sliderAttackPairs(b *chess.Board, mover chess.Color) map[attackPair]bool {
	pairs := make(map[attackPair]bool)
	for _, t := range [3]chess.PieceType{chess.Bishop, chess.Rook, chess.Queen} {
		for _, from := range piecesOf(b, mover, t) {
			for _, to := range attackSquares(b, from) {
				p := b.Piece(to)
				if p != chess.NoPiece && p.Color() != mover {
					pairs[attackPair{from, to}] = true
				}
			}
		}
	}
	return pairs
}

// discoveredAttack reports whether the move uncovered a new attack from a
// piece other than the one that moved, and whether that new attack targets
// the enemy king.
func discoveredAttack(before, after *chess.Board, move *chess.Move, mover chess.Color) (found, ontoKing bool) {
	prev := sliderAttackPairs(before, mover)
	for pair := range sliderAttackPairs(after, mover) {
		if pair.from == move.S2() || prev[pair] {
			continue
		}
		found = true
		if after.Piece(pair.to).Type() == chess.King {
			ontoKing = true
		}
	}
	return found, ontoKing
}

// hasPin reports whether any of the given side's non-king pieces is pinned
// to its own king.
func hasPin(b *chess.Board, side chess.Color) bool {
	for sq := chess.Square(0); sq < 64; sq++ {
		p := b.Piece(sq)
		if p == chess.NoPiece || p.Color() != side || p.Type() == chess.King {
			continue
		}
		if pinnedToKing(b, side, sq) {
			return true
		}
	}
	return false
}

// hasSkewer scans all 8 ray directions from each of the mover's sliders for
// two enemy high-value pieces in line, seen through the first.
func hasSkewer(b *chess.Board, mover chess.Color) bool {
	for _, t := range [3]chess.PieceType{chess.Bishop, chess.Rook, chess.Queen} {
		for _, from := range piecesOf(b, mover, t) {
			for _, d := range allDirs {
				var line []chess.Piece
				f, r := fileOf(from)+d[0], rankOf(from)+d[1]
				for onBoard(f, r) && len(line) < 2 {
					p := b.Piece(squareAt(f, r))
					if p != chess.NoPiece {
						if p.Color() == mover {
							break
						}
						line = append(line, p)
					}
					f += d[0]
					r += d[1]
				}
				if len(line) == 2 && forkTargets[line[0].Type()] && forkTargets[line[1].Type()] {
					return true
				}
			}
		}
	}
	return false
}
