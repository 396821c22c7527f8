// FILE: internal/analysis/features.go
package analysis

import (
	"fmt"
	"sort"

	"github.com/notnil/chess"

	"github.com/mattslight/blunderfixer-api/internal/core"
)

var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   1,
	chess.Knight: 3,
	chess.Bishop: 3,
	chess.Rook:   5,
	chess.Queen:  9,
}

var centerSquares = [4]chess.Square{chess.D4, chess.E4, chess.D5, chess.E5}

// ExtractFeatures statically characterizes a position: material, king safety,
// pawn structure, line control, mobility, space and tactics-adjacent facts.
// Pure and deterministic; a malformed FEN fails before any analysis begins.
func ExtractFeatures(fen string) (*core.FeatureReport, error) {
	pos, err := parseFEN(fen)
	if err != nil {
		return nil, err
	}
	b := pos.Board()

	whiteMoves := sideMoves(pos, chess.White)
	blackMoves := sideMoves(pos, chess.Black)
	openFiles, semiOpen := classifyFiles(b)

	report := &core.FeatureReport{
		Material:      materialBalance(b),
		CenterControl: centerControl(b),
		KingSafety: core.KingSafetyBySide{
			White: kingSafety(b, chess.White, whiteMoves),
			Black: kingSafety(b, chess.Black, blackMoves),
		},
		PawnStructure: core.StringsBySide{
			White: pawnStructure(b, chess.White, openFiles, semiOpen),
			Black: pawnStructure(b, chess.Black, openFiles, semiOpen),
		},
		DoubledPawns: core.StringsBySide{
			White: doubledPawns(b, chess.White),
			Black: doubledPawns(b, chess.Black),
		},
		PassedPawns: core.StringsBySide{
			White: passedPawns(b, chess.White),
			Black: passedPawns(b, chess.Black),
		},
		Outposts: core.StringsBySide{
			White: outposts(b, chess.White),
			Black: outposts(b, chess.Black),
		},
		BishopPair: core.BoolBySide{
			White: len(piecesOf(b, chess.White, chess.Bishop)) >= 2,
			Black: len(piecesOf(b, chess.Black, chess.Bishop)) >= 2,
		},
		WeakSquares: core.StringsBySide{
			White: weakSquares(b, chess.White),
			Black: weakSquares(b, chess.Black),
		},
		OpenFiles: fileLetters(openFiles),
		SemiOpenFiles: core.StringsBySide{
			White: fileLetters(semiOpen[chess.White]),
			Black: fileLetters(semiOpen[chess.Black]),
		},
		Diagonals: diagonals(b),
		RookPlacement: core.RookPlacementBySide{
			White: rookPlacement(b, chess.White, openFiles, semiOpen[chess.White]),
			Black: rookPlacement(b, chess.Black, openFiles, semiOpen[chess.Black]),
		},
		Mobility: core.MobilityFeature{
			WhiteMoves: len(whiteMoves),
			BlackMoves: len(blackMoves),
		},
		PieceActivity: core.ActivityBySide{
			White: pieceActivity(b, whiteMoves),
			Black: pieceActivity(b, blackMoves),
		},
		SpaceAdvantage: spaceAdvantage(b),
		AttackedPieces: core.AttackedBySide{
			White: attackedPieces(b, chess.White),
			Black: attackedPieces(b, chess.Black),
		},
		LooseHanging: core.LooseHangingBySide{
			White: looseHanging(b, chess.White),
			Black: looseHanging(b, chess.Black),
		},
	}
	return report, nil
}

func materialBalance(b *chess.Board) core.MaterialFeature {
	balance := 0
	for sq := chess.Square(0); sq < 64; sq++ {
		p := b.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		v := pieceValues[p.Type()]
		if p.Color() == chess.White {
			balance += v
		} else {
			balance -= v
		}
	}
	adv := "equal"
	if balance > 0 {
		adv = "white"
	} else if balance < 0 {
		adv = "black"
	}
	return core.MaterialFeature{Balance: balance, Advantage: adv}
}

func centerControl(b *chess.Board) core.CenterControlFeature {
	var c core.CenterControlFeature
	for _, sq := range centerSquares {
		if isAttacked(b, chess.White, sq) {
			c.WhiteCount++
		}
		if isAttacked(b, chess.Black, sq) {
			c.BlackCount++
		}
	}
	return c
}

// kingSafety infers castled status from the king's literal square, not from
// historical rights; availability is the legality of the literal castling
// move with that side to move.
func kingSafety(b *chess.Board, color chess.Color, moves []*chess.Move) core.KingSafety {
	ksq, ok := kingSquare(b, color)
	if !ok {
		return core.KingSafety{Status: "king missing"}
	}

	info := core.KingSafety{Status: "uncastled or blocked"}
	if color == chess.White {
		if ksq == chess.G1 {
			info.Status = "castled kingside"
		} else if ksq == chess.C1 {
			info.Status = "castled queenside"
		}
	} else {
		if ksq == chess.G8 {
			info.Status = "castled kingside"
		} else if ksq == chess.C8 {
			info.Status = "castled queenside"
		}
	}

	for _, m := range moves {
		if m.HasTag(chess.KingSideCastle) {
			info.CanCastleKingside = true
		}
		if m.HasTag(chess.QueenSideCastle) {
			info.CanCastleQueenside = true
		}
	}

	atk := attackers(b, color.Other(), ksq)
	info.AttackerCount = len(atk)
	info.InCheck = len(atk) > 0

	forward := 1
	if color == chess.Black {
		forward = -1
	}
	for df := -1; df <= 1; df++ {
		f, r := fileOf(ksq)+df, rankOf(ksq)+forward
		if !onBoard(f, r) {
			continue
		}
		p := b.Piece(squareAt(f, r))
		if p != chess.NoPiece && p.Type() == chess.Pawn && p.Color() == color {
			info.PawnShieldCount++
		}
	}
	return info
}

// classifyFiles returns the set of open files (no pawns at all) and, per
// side, the semi-open files (only the other side's pawns).
func classifyFiles(b *chess.Board) (map[int]bool, map[chess.Color]map[int]bool) {
	open := make(map[int]bool)
	semi := map[chess.Color]map[int]bool{
		chess.White: make(map[int]bool),
		chess.Black: make(map[int]bool),
	}
	for f := 0; f < 8; f++ {
		hasWhite, hasBlack := false, false
		for r := 0; r < 8; r++ {
			p := b.Piece(squareAt(f, r))
			if p != chess.NoPiece && p.Type() == chess.Pawn {
				if p.Color() == chess.White {
					hasWhite = true
				} else {
					hasBlack = true
				}
			}
		}
		switch {
		case !hasWhite && !hasBlack:
			open[f] = true
		case !hasWhite && hasBlack:
			semi[chess.White][f] = true
		case hasWhite && !hasBlack:
			semi[chess.Black][f] = true
		}
	}
	return open, semi
}

func fileLetters(files map[int]bool) []string {
	out := []string{}
	for f := 0; f < 8; f++ {
		if files[f] {
			out = append(out, string(rune('a'+f)))
		}
	}
	return out
}

func pawnStructure(b *chess.Board, color chess.Color, open map[int]bool, semi map[chess.Color]map[int]bool) []string {
	facts := []string{}
	pawns := piecesOf(b, color, chess.Pawn)
	pawnFiles := make(map[int]bool)
	for _, sq := range pawns {
		pawnFiles[fileOf(sq)] = true
	}

	forward := 1
	if color == chess.Black {
		forward = -1
	}

	for _, sq := range pawns {
		f, r := fileOf(sq), rankOf(sq)

		if !pawnFiles[f-1] && !pawnFiles[f+1] {
			facts = append(facts, fmt.Sprintf("isolated pawn on %s", sq.String()))
			continue
		}

		// Backward pawns only matter on open or semi-open files.
		if !open[f] && !semi[color][f] {
			continue
		}
		frontRank := r + forward
		if !onBoard(f, frontRank) {
			continue
		}
		front := squareAt(f, frontRank)
		if b.Piece(front) != chess.NoPiece {
			continue
		}

		atk := len(attackers(b, color.Other(), front))
		def := len(attackers(b, color, front))

		canDefend := false
		for _, af := range [2]int{f - 1, f + 1} {
			if af < 0 || af > 7 {
				continue
			}
			for _, ar := range [2]int{r, frontRank} {
				p := b.Piece(squareAt(af, ar))
				if p != chess.NoPiece && p.Type() == chess.Pawn && p.Color() == color {
					canDefend = true
					break
				}
			}
			if canDefend {
				break
			}
		}

		if !canDefend && atk > def {
			facts = append(facts, fmt.Sprintf("backward pawn on %s", sq.String()))
		}
	}
	return facts
}

func doubledPawns(b *chess.Board, color chess.Color) []string {
	counts := make(map[int]int)
	for _, sq := range piecesOf(b, color, chess.Pawn) {
		counts[fileOf(sq)]++
	}
	out := []string{}
	for f := 0; f < 8; f++ {
		if counts[f] > 1 {
			out = append(out, fmt.Sprintf("%c-file", 'a'+f))
		}
	}
	return out
}

// passedPawns: no enemy pawn on the same or adjacent file anywhere ahead, in
// the promotion direction.
func passedPawns(b *chess.Board, color chess.Color) []string {
	out := []string{}
	direction := 1
	if color == chess.Black {
		direction = -1
	}
	enemy := color.Other()

	for _, sq := range piecesOf(b, color, chess.Pawn) {
		f, r := fileOf(sq), rankOf(sq)
		passed := true
	scan:
		for af := f - 1; af <= f+1; af++ {
			if af < 0 || af > 7 {
				continue
			}
			for rr := r + direction; rr >= 0 && rr <= 7; rr += direction {
				p := b.Piece(squareAt(af, rr))
				if p != chess.NoPiece && p.Type() == chess.Pawn && p.Color() == enemy {
					passed = false
					break scan
				}
			}
		}
		if passed {
			out = append(out, sq.String())
		}
	}
	return out
}

// dislodgeable reports whether an enemy pawn on an adjacent file could
// eventually push to attack sq.
func dislodgeable(b *chess.Board, sq chess.Square, enemy chess.Color) bool {
	f, r := fileOf(sq), rankOf(sq)
	for _, df := range [2]int{-1, 1} {
		af := f + df
		if af < 0 || af > 7 {
			continue
		}
		lo, hi := 0, r-1
		if enemy == chess.Black {
			lo, hi = r+1, 7
		}
		for rr := lo; rr <= hi; rr++ {
			p := b.Piece(squareAt(af, rr))
			if p != chess.NoPiece && p.Type() == chess.Pawn && p.Color() == enemy {
				return true
			}
		}
	}
	return false
}

// outposts: a minor piece on ranks 4-7 (for White; mirrored for Black the
// original used the same rank window), pawn-defended, not pawn-attacked and
// not dislodgeable by any future enemy pawn push.
func outposts(b *chess.Board, color chess.Color) []string {
	out := []string{}
	enemy := color.Other()
	for _, t := range [2]chess.PieceType{chess.Knight, chess.Bishop} {
		for _, sq := range piecesOf(b, color, t) {
			r := rankOf(sq)
			if r < 3 || r > 6 {
				continue
			}
			pawnDefended := false
			for _, a := range attackers(b, color, sq) {
				if b.Piece(a).Type() == chess.Pawn {
					pawnDefended = true
					break
				}
			}
			if !pawnDefended {
				continue
			}
			pawnAttacked := false
			for _, a := range attackers(b, enemy, sq) {
				if b.Piece(a).Type() == chess.Pawn {
					pawnAttacked = true
					break
				}
			}
			if pawnAttacked || dislodgeable(b, sq, enemy) {
				continue
			}
			out = append(out, fmt.Sprintf("%s on %s", pieceNames[t], sq.String()))
		}
	}
	return out
}

// weakSquares: squares adjacent to the king on its color complex, attacked
// by the opponent and not defended by a friendly pawn.
func weakSquares(b *chess.Board, color chess.Color) []string {
	out := []string{}
	ksq, ok := kingSquare(b, color)
	if !ok {
		return out
	}
	opp := color.Other()
	complexParity := (fileOf(ksq) + rankOf(ksq)) % 2

	for _, off := range kingOffsets {
		f, r := fileOf(ksq)+off[0], rankOf(ksq)+off[1]
		if !onBoard(f, r) || (f+r)%2 != complexParity {
			continue
		}
		sq := squareAt(f, r)
		if !isAttacked(b, opp, sq) {
			continue
		}
		pawnDefended := false
		for _, a := range attackers(b, color, sq) {
			if b.Piece(a).Type() == chess.Pawn {
				pawnDefended = true
				break
			}
		}
		if pawnDefended {
			continue
		}
		out = append(out, sq.String())
	}
	sort.Strings(out)
	return out
}

// diagonals classifies both diagonal families, length >= 4 only.
func diagonals(b *chess.Board) core.DiagonalsFeature {
	var d core.DiagonalsFeature

	classify := func(squares []chess.Square) {
		if len(squares) < 4 {
			return
		}
		name := fmt.Sprintf("%s-%s", squares[0].String(), squares[len(squares)-1].String())
		hasWhite, hasBlack := false, false
		for _, sq := range squares {
			p := b.Piece(sq)
			if p != chess.NoPiece && p.Type() == chess.Pawn {
				if p.Color() == chess.White {
					hasWhite = true
				} else {
					hasBlack = true
				}
			}
		}
		switch {
		case !hasWhite && !hasBlack:
			d.Open = append(d.Open, name)
		case hasWhite && !hasBlack:
			d.SemiOpenWhite = append(d.SemiOpenWhite, name)
		case hasBlack && !hasWhite:
			d.SemiOpenBlack = append(d.SemiOpenBlack, name)
		}
	}

	// a1-h8 family: file - rank constant, ascending rank.
	for diff := -4; diff <= 4; diff++ {
		var squares []chess.Square
		for r := 0; r < 8; r++ {
			if onBoard(r+diff, r) {
				squares = append(squares, squareAt(r+diff, r))
			}
		}
		classify(squares)
	}
	// h1-a8 family: file + rank constant, ascending rank.
	for sum := 3; sum <= 11; sum++ {
		var squares []chess.Square
		for r := 0; r < 8; r++ {
			if onBoard(sum-r, r) {
				squares = append(squares, squareAt(sum-r, r))
			}
		}
		classify(squares)
	}
	return d
}

func rookPlacement(b *chess.Board, color chess.Color, open map[int]bool, semi map[int]bool) core.RookPlacement {
	p := core.RookPlacement{Open: []string{}, SemiOpen: []string{}}
	for _, sq := range piecesOf(b, color, chess.Rook) {
		switch {
		case open[fileOf(sq)]:
			p.Open = append(p.Open, sq.String())
		case semi[fileOf(sq)]:
			p.SemiOpen = append(p.SemiOpen, sq.String())
		}
	}
	return p
}

// pieceActivity groups a side's legal moves by originating minor/major piece.
func pieceActivity(b *chess.Board, moves []*chess.Move) []core.PieceActivity {
	out := []core.PieceActivity{}
	index := make(map[chess.Square]int)
	for _, m := range moves {
		p := b.Piece(m.S1())
		if p == chess.NoPiece {
			continue
		}
		name, tracked := pieceNames[p.Type()]
		if !tracked {
			continue
		}
		i, seen := index[m.S1()]
		if !seen {
			i = len(out)
			index[m.S1()] = i
			out = append(out, core.PieceActivity{
				Piece:  name,
				Square: m.S1().String(),
			})
		}
		out[i].Moves = append(out[i].Moves, m.String())
		out[i].MoveCount++
	}
	return out
}

// spaceAdvantage counts pieces past the board's mid-line per color.
func spaceAdvantage(b *chess.Board) core.SpaceFeature {
	s := core.SpaceFeature{Advantage: "equal"}
	for sq := chess.Square(0); sq < 64; sq++ {
		p := b.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		if p.Color() == chess.White && rankOf(sq) >= 4 {
			s.WhiteSpace++
		} else if p.Color() == chess.Black && rankOf(sq) <= 3 {
			s.BlackSpace++
		}
	}
	if s.WhiteSpace > s.BlackSpace {
		s.Advantage = "white"
	} else if s.BlackSpace > s.WhiteSpace {
		s.Advantage = "black"
	}
	return s
}

func attackedPieces(b *chess.Board, color chess.Color) []core.AttackedPiece {
	out := []core.AttackedPiece{}
	for sq := chess.Square(0); sq < 64; sq++ {
		p := b.Piece(sq)
		if p == chess.NoPiece || p.Color() != color {
			continue
		}
		name, tracked := pieceNames[p.Type()]
		if !tracked {
			continue
		}
		atk := attackers(b, color.Other(), sq)
		if len(atk) == 0 {
			continue
		}
		sort.Slice(atk, func(i, j int) bool { return atk[i] < atk[j] })
		entry := core.AttackedPiece{Piece: name, Square: sq.String(), Attackers: []core.PieceRef{}}
		for _, a := range atk {
			if n, ok := pieceNames[b.Piece(a).Type()]; ok {
				entry.Attackers = append(entry.Attackers, core.PieceRef{Piece: n, Square: a.String()})
			}
		}
		out = append(out, entry)
	}
	return out
}

func looseHanging(b *chess.Board, color chess.Color) core.LooseHanging {
	lh := core.LooseHanging{Loose: []string{}, Hanging: []string{}}
	for sq := chess.Square(0); sq < 64; sq++ {
		p := b.Piece(sq)
		if p == chess.NoPiece || p.Color() != color {
			continue
		}
		if p.Type() == chess.Pawn || p.Type() == chess.King {
			continue
		}
		atk := attackers(b, color.Other(), sq)
		if len(atk) == 0 {
			continue
		}
		def := attackers(b, color, sq)

		typeSet := make(map[string]bool)
		for _, a := range atk {
			typeSet[pieceSymbols[b.Piece(a).Type()]] = true
		}
		types := make([]string, 0, len(typeSet))
		for t := range typeSet {
			types = append(types, t)
		}
		sort.Strings(types)
		desc := fmt.Sprintf("%s on %s is %%s (attacked by %d: %s)",
			pieceSymbol(p), sq.String(), len(atk), joinComma(types))

		if len(atk) > len(def) {
			lh.Hanging = append(lh.Hanging, fmt.Sprintf(desc, "hanging"))
		} else if len(atk) == len(def) {
			lh.Loose = append(lh.Loose, fmt.Sprintf(desc, "loose"))
		}
	}
	return lh
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
