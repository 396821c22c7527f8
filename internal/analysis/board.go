// FILE: internal/analysis/board.go
package analysis

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// Board geometry shared by the feature extractor and the theme tagger.
// All attack computation is blocking-aware ray/offset scanning over the
// parsed board; the rules oracle is only consulted for legal-move sets.

var (
	knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookDirs      = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs    = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	allDirs       = [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}

func squareAt(file, rank int) chess.Square {
	return chess.Square(rank*8 + file)
}

func fileOf(sq chess.Square) int { return int(sq.File()) }
func rankOf(sq chess.Square) int { return int(sq.Rank()) }

// parseFEN validates and parses a FEN into a position. Fails before any
// analysis begins so callers never see a partial report.
func parseFEN(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid FEN %q: %w", fen, err)
	}
	return chess.NewGame(opt).Position(), nil
}

// fenWithTurn rewrites the side-to-move field (and clears en passant, which
// is meaningless for the flipped side) so per-side move sets can be computed
// regardless of whose turn it actually is.
func fenWithTurn(fen string, side chess.Color) string {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return fen
	}
	parts[1] = side.String()
	parts[3] = "-"
	return strings.Join(parts, " ")
}

// sideMoves returns the legal moves available to side as if it were to move.
func sideMoves(pos *chess.Position, side chess.Color) []*chess.Move {
	if pos.Turn() == side {
		return pos.ValidMoves()
	}
	flipped, err := parseFEN(fenWithTurn(pos.String(), side))
	if err != nil {
		return nil
	}
	return flipped.ValidMoves()
}

func piecesOf(b *chess.Board, c chess.Color, t chess.PieceType) []chess.Square {
	var out []chess.Square
	for sq := chess.Square(0); sq < 64; sq++ {
		p := b.Piece(sq)
		if p != chess.NoPiece && p.Color() == c && p.Type() == t {
			out = append(out, sq)
		}
	}
	return out
}

func kingSquare(b *chess.Board, c chess.Color) (chess.Square, bool) {
	for sq := chess.Square(0); sq < 64; sq++ {
		p := b.Piece(sq)
		if p != chess.NoPiece && p.Color() == c && p.Type() == chess.King {
			return sq, true
		}
	}
	return 0, false
}

// attackers returns the squares of all pieces of color by that attack target,
// pinned pieces included.
func attackers(b *chess.Board, by chess.Color, target chess.Square) []chess.Square {
	var out []chess.Square
	tf, tr := fileOf(target), rankOf(target)

	// Pawns attack diagonally toward their push direction.
	pawnRank := tr - 1
	if by == chess.Black {
		pawnRank = tr + 1
	}
	for _, df := range [2]int{-1, 1} {
		if onBoard(tf+df, pawnRank) {
			p := b.Piece(squareAt(tf+df, pawnRank))
			if p != chess.NoPiece && p.Color() == by && p.Type() == chess.Pawn {
				out = append(out, squareAt(tf+df, pawnRank))
			}
		}
	}

	for _, off := range knightOffsets {
		if onBoard(tf+off[0], tr+off[1]) {
			sq := squareAt(tf+off[0], tr+off[1])
			p := b.Piece(sq)
			if p != chess.NoPiece && p.Color() == by && p.Type() == chess.Knight {
				out = append(out, sq)
			}
		}
	}

	for _, off := range kingOffsets {
		if onBoard(tf+off[0], tr+off[1]) {
			sq := squareAt(tf+off[0], tr+off[1])
			p := b.Piece(sq)
			if p != chess.NoPiece && p.Color() == by && p.Type() == chess.King {
				out = append(out, sq)
			}
		}
	}

	// Sliders: first occupied square along each ray.
	for _, dir := range allDirs {
		diagonal := dir[0] != 0 && dir[1] != 0
		f, r := tf+dir[0], tr+dir[1]
		for onBoard(f, r) {
			sq := squareAt(f, r)
			p := b.Piece(sq)
			if p != chess.NoPiece {
				if p.Color() == by {
					t := p.Type()
					if t == chess.Queen || (diagonal && t == chess.Bishop) || (!diagonal && t == chess.Rook) {
						out = append(out, sq)
					}
				}
				break
			}
			f += dir[0]
			r += dir[1]
		}
	}

	return out
}

func isAttacked(b *chess.Board, by chess.Color, target chess.Square) bool {
	return len(attackers(b, by, target)) > 0
}

// attackSquares returns every square the piece at from attacks, respecting
// blockers (the first occupied square on a ray is included, nothing past it).
func attackSquares(b *chess.Board, from chess.Square) []chess.Square {
	p := b.Piece(from)
	if p == chess.NoPiece {
		return nil
	}
	f0, r0 := fileOf(from), rankOf(from)
	var out []chess.Square

	switch p.Type() {
	case chess.Pawn:
		dr := 1
		if p.Color() == chess.Black {
			dr = -1
		}
		for _, df := range [2]int{-1, 1} {
			if onBoard(f0+df, r0+dr) {
				out = append(out, squareAt(f0+df, r0+dr))
			}
		}
	case chess.Knight:
		for _, off := range knightOffsets {
			if onBoard(f0+off[0], r0+off[1]) {
				out = append(out, squareAt(f0+off[0], r0+off[1]))
			}
		}
	case chess.King:
		for _, off := range kingOffsets {
			if onBoard(f0+off[0], r0+off[1]) {
				out = append(out, squareAt(f0+off[0], r0+off[1]))
			}
		}
	default:
		var dirs [][2]int
		switch p.Type() {
		case chess.Rook:
			dirs = rookDirs[:]
		case chess.Bishop:
			dirs = bishopDirs[:]
		case chess.Queen:
			dirs = allDirs[:]
		}
		for _, dir := range dirs {
			f, r := f0+dir[0], r0+dir[1]
			for onBoard(f, r) {
				sq := squareAt(f, r)
				out = append(out, sq)
				if b.Piece(sq) != chess.NoPiece {
					break
				}
				f += dir[0]
				r += dir[1]
			}
		}
	}
	return out
}

// pinnedToKing reports whether the piece of color c at sq is absolutely
// pinned against its own king by an enemy slider.
func pinnedToKing(b *chess.Board, c chess.Color, sq chess.Square) bool {
	ksq, ok := kingSquare(b, c)
	if !ok || ksq == sq {
		return false
	}
	df := fileOf(sq) - fileOf(ksq)
	dr := rankOf(sq) - rankOf(ksq)
	if df != 0 && dr != 0 && abs(df) != abs(dr) {
		return false
	}
	stepF, stepR := sign(df), sign(dr)
	diagonal := stepF != 0 && stepR != 0

	// Walk outward from the king; the first piece found must be the
	// candidate itself, the next one an enemy slider on the same line.
	f, r := fileOf(ksq)+stepF, rankOf(ksq)+stepR
	seenCandidate := false
	for onBoard(f, r) {
		cur := squareAt(f, r)
		p := b.Piece(cur)
		if p != chess.NoPiece {
			if !seenCandidate {
				if cur != sq {
					return false
				}
				seenCandidate = true
			} else {
				if p.Color() == c {
					return false
				}
				t := p.Type()
				return t == chess.Queen || (diagonal && t == chess.Bishop) || (!diagonal && t == chess.Rook)
			}
		}
		f += stepF
		r += stepR
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

var pieceNames = map[chess.PieceType]string{
	chess.Knight: "Knight",
	chess.Bishop: "Bishop",
	chess.Rook:   "Rook",
	chess.Queen:  "Queen",
}

var pieceSymbols = map[chess.PieceType]string{
	chess.Pawn:   "P",
	chess.Knight: "N",
	chess.Bishop: "B",
	chess.Rook:   "R",
	chess.Queen:  "Q",
	chess.King:   "K",
}

// pieceSymbol renders a piece the FEN way: uppercase for white, lowercase
// for black.
func pieceSymbol(p chess.Piece) string {
	s := pieceSymbols[p.Type()]
	if p.Color() == chess.Black {
		return strings.ToLower(s)
	}
	return s
}
