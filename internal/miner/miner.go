// FILE: internal/miner/miner.go
package miner

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/mattslight/blunderfixer-api/internal/analysis"
	"github.com/mattslight/blunderfixer-api/internal/core"
	"github.com/mattslight/blunderfixer-api/internal/engine"
)

// Evaluator is the engine surface the miner needs. One evaluator instance is
// assumed to be owned by a single goroutine for the duration of a game.
type Evaluator interface {
	Evaluate(fen string, depth, multiPV int) ([]engine.Line, error)
}

// Policy holds the mining thresholds. Zero values are replaced with the
// defaults, so a zero Policy is usable.
type Policy struct {
	SwingThreshold   float64 // minimum hero-signed eval drop in centipawns
	WinningTolerance float64 // lines within this of the best are winning
	MineDepth        int     // shallow pass over every hero ply
	AssessDepth      int     // deep pass over mined candidates
	MultiPV          int     // line count for the assessment pass
}

func (p Policy) withDefaults() Policy {
	if p.SwingThreshold <= 0 {
		p.SwingThreshold = 150
	}
	if p.WinningTolerance <= 0 {
		p.WinningTolerance = 50
	}
	if p.MineDepth <= 0 {
		p.MineDepth = 12
	}
	if p.AssessDepth <= 0 {
		p.AssessDepth = 18
	}
	if p.MultiPV <= 0 {
		p.MultiPV = 3
	}
	return p
}

// Miner walks games for one hero side, flags evaluation swings and grades
// the flagged positions with a deeper multi-line search.
type Miner struct {
	eval   Evaluator
	policy Policy
	log    *zap.Logger
}

func New(eval Evaluator, policy Policy, log *zap.Logger) *Miner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Miner{eval: eval, policy: policy.withDefaults(), log: log}
}

// whitePOV flips a side-to-move score into White's perspective.
func whitePOV(score int, turn chess.Color) float64 {
	if turn == chess.Black {
		return float64(-score)
	}
	return float64(score)
}

// heroSign is +1 for White, -1 for Black; hero-signed deltas make "the hero
// got worse" positive for both colors.
func heroSign(hero chess.Color) float64 {
	if hero == chess.Black {
		return -1
	}
	return 1
}

// Mine runs the shallow pass: every position the hero moved from is scored
// before and after the move, and plies where the hero-signed drop reaches
// the swing threshold come back as candidates. Evaluation failures skip the
// affected ply rather than aborting the game.
func (m *Miner) Mine(pgn string, hero chess.Color) ([]core.DrillCandidate, error) {
	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		return nil, fmt.Errorf("invalid PGN: %w", err)
	}
	game := chess.NewGame(opt)
	positions := game.Positions()
	moves := game.Moves()
	// The PGN parser accepts garbage movetext as a zero-move game; treat
	// that as malformed input rather than silently mining nothing.
	if len(moves) == 0 {
		return nil, fmt.Errorf("invalid PGN: no parseable moves")
	}

	// Score each position once; nil means evaluation failed there.
	scores := make([]*float64, len(positions))
	evalAt := func(i int) *float64 {
		if scores[i] != nil {
			return scores[i]
		}
		pos := positions[i]
		lines, err := m.eval.Evaluate(pos.String(), m.policy.MineDepth, 1)
		if err != nil {
			m.log.Warn("position evaluation failed",
				zap.Int("ply", i),
				zap.Error(err))
			return nil
		}
		v := whitePOV(lines[0].ScoreCP, pos.Turn())
		scores[i] = &v
		return scores[i]
	}

	sign := heroSign(hero)
	candidates := []core.DrillCandidate{}

	for i, move := range moves {
		pos := positions[i]
		if pos.Turn() != hero {
			continue
		}
		before := evalAt(i)
		after := evalAt(i + 1)
		if before == nil || after == nil {
			continue
		}
		delta := sign * (*before - *after)
		if delta < m.policy.SwingThreshold {
			continue
		}
		san := chess.AlgebraicNotation{}.Encode(pos, move)
		candidates = append(candidates, core.DrillCandidate{
			FEN:           pos.String(),
			Ply:           i + 1,
			EvalSwing:     delta,
			InitialEval:   *before,
			PlayedMoveSAN: san,
		})
	}
	return candidates, nil
}

// Assess runs the deep multi-line pass on one position and buckets the top
// lines into winning moves: every line within the tolerance of the best.
// The best line always qualifies, so the result is never empty.
func (m *Miner) Assess(fen string) (core.WinningAssessment, error) {
	out := core.WinningAssessment{WinningMoves: []string{}, WinningLines: [][]string{}}

	lines, err := m.eval.Evaluate(fen, m.policy.AssessDepth, m.policy.MultiPV)
	if err != nil {
		return out, fmt.Errorf("assessment failed: %w", err)
	}

	pos, err := analysisPosition(fen)
	if err != nil {
		return out, err
	}

	// Lines arrive score-sorted, so the first out-of-tolerance line ends
	// the walk.
	best := lines[0].ScoreCP
	for _, l := range lines {
		if float64(best-l.ScoreCP) > m.policy.WinningTolerance {
			break
		}
		sanLine, err := pvToSAN(pos, l.PV)
		if err != nil || len(sanLine) == 0 {
			// A PV the rules oracle refuses to replay still names a
			// winning move; fall back to the raw UCI trail so a
			// qualifying line is never dropped.
			m.log.Warn("unplayable PV from engine",
				zap.String("fen", fen),
				zap.Strings("pv", l.PV))
			if len(l.PV) == 0 {
				continue
			}
			sanLine = l.PV
		}
		out.WinningMoves = append(out.WinningMoves, sanLine[0])
		out.WinningLines = append(out.WinningLines, sanLine)
	}
	out.HasOneWinningMove = len(out.WinningMoves) == 1
	return out, nil
}

func analysisPosition(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid FEN %q: %w", fen, err)
	}
	return chess.NewGame(opt).Position(), nil
}

// pvToSAN replays a UCI principal variation, translating each step to SAN.
func pvToSAN(pos *chess.Position, pv []string) ([]string, error) {
	san := make([]string, 0, len(pv))
	cur := pos
	for _, uci := range pv {
		move, err := chess.UCINotation{}.Decode(cur, uci)
		if err != nil {
			return nil, err
		}
		san = append(san, chess.AlgebraicNotation{}.Encode(cur, move))
		cur = cur.Update(move)
	}
	return san, nil
}

// MineAndClassify is the full per-game pipeline: mine the hero's swings,
// grade each candidate, then attach themes, move time and a material
// snapshot. The hero is matched by username against the game's White seat,
// case-insensitively; anything else plays Black.
func (m *Miner) MineAndClassify(game core.GameRecord, heroUsername string) ([]core.DrillRecord, error) {
	hero := chess.Black
	if strings.EqualFold(game.WhiteUsername, heroUsername) {
		hero = chess.White
	}

	candidates, err := m.Mine(game.PGN, hero)
	if err != nil {
		return nil, err
	}

	records := make([]core.DrillRecord, 0, len(candidates))
	for _, c := range candidates {
		assessment, err := m.Assess(c.FEN)
		if err != nil {
			m.log.Warn("candidate assessment failed",
				zap.String("game_id", game.ID),
				zap.Int("ply", c.Ply),
				zap.Error(err))
			continue
		}

		themes, err := analysis.DetectThemes(c.FEN, c.PlayedMoveSAN)
		if err != nil {
			themes = []core.Theme{}
		}

		rec := core.DrillRecord{
			GameID:      game.ID,
			Username:    heroUsername,
			FEN:         c.FEN,
			Ply:         c.Ply,
			InitialEval: c.InitialEval,
			EvalSwing:   c.EvalSwing,
			LosingMove:  c.PlayedMoveSAN,
			Assessment:  assessment,
			Themes:      themes,
		}

		if spent, ok := analysis.ExtractTimeUsed(game.PGN, game.TimeControl, c.Ply); ok {
			rec.TimeUsed = &spent
		}
		if pos, err := analysisPosition(c.FEN); err == nil {
			mat := analysis.CountMaterial(pos.Board())
			rec.Material = &mat
		}

		records = append(records, rec)
	}
	return records, nil
}
