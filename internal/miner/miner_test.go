// FILE: internal/miner/miner_test.go
package miner

import (
	"fmt"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattslight/blunderfixer-api/internal/engine"
)

const shortPGN = `1. e4 e5 2. Nf3 *`

// scriptedEvaluator returns canned scores in call order, side-to-move POV.
type scriptedEvaluator struct {
	scores []int
	calls  int
}

func (s *scriptedEvaluator) Evaluate(fen string, depth, multiPV int) ([]engine.Line, error) {
	if s.calls >= len(s.scores) {
		return nil, fmt.Errorf("unexpected evaluation call %d", s.calls)
	}
	score := s.scores[s.calls]
	s.calls++
	return []engine.Line{{MultiPV: 1, ScoreCP: score, Depth: depth}}, nil
}

// linesEvaluator returns the same fixed line set for every call.
type linesEvaluator struct {
	lines []engine.Line
}

func (l *linesEvaluator) Evaluate(fen string, depth, multiPV int) ([]engine.Line, error) {
	return l.lines, nil
}

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(fen string, depth, multiPV int) ([]engine.Line, error) {
	return nil, fmt.Errorf("engine unavailable")
}

func TestMine_WhiteHeroSwing(t *testing.T) {
	// White POV targets: +30, -270, -270, -280. Positions with Black to
	// move carry negated raw scores.
	eval := &scriptedEvaluator{scores: []int{30, 270, -270, 280}}
	m := New(eval, Policy{}, nil)

	candidates, err := m.Mine(shortPGN, chess.White)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	c := candidates[0]
	assert.Equal(t, 1, c.Ply)
	assert.Equal(t, "e4", c.PlayedMoveSAN)
	assert.InDelta(t, 300.0, c.EvalSwing, 0.001)
	assert.InDelta(t, 30.0, c.InitialEval, 0.001)
}

func TestMine_BlackHeroSwing(t *testing.T) {
	// Only the positions around Black's move get scored: -50 then +250 in
	// White's POV. The hero-signed delta must flag Black's collapse just
	// like White's.
	eval := &scriptedEvaluator{scores: []int{50, 250}}
	m := New(eval, Policy{}, nil)

	candidates, err := m.Mine(shortPGN, chess.Black)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	c := candidates[0]
	assert.Equal(t, 2, c.Ply)
	assert.Equal(t, "e5", c.PlayedMoveSAN)
	assert.InDelta(t, 300.0, c.EvalSwing, 0.001)
}

func TestMine_BelowThreshold(t *testing.T) {
	eval := &scriptedEvaluator{scores: []int{30, -20, 10, -40}}
	m := New(eval, Policy{}, nil)

	candidates, err := m.Mine(shortPGN, chess.White)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestMine_EvaluationFailureSkipsPly(t *testing.T) {
	m := New(failingEvaluator{}, Policy{}, nil)

	candidates, err := m.Mine(shortPGN, chess.White)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestMine_InvalidPGN(t *testing.T) {
	m := New(&scriptedEvaluator{}, Policy{}, nil)
	_, err := m.Mine("1. zz9 huh", chess.White)
	require.Error(t, err)
}

func TestAssess_TolerantLines(t *testing.T) {
	startFEN := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	eval := &linesEvaluator{lines: []engine.Line{
		{MultiPV: 1, ScoreCP: 40, PV: []string{"e2e4", "e7e5"}},
		{MultiPV: 2, ScoreCP: 10, PV: []string{"d2d4"}},
		{MultiPV: 3, ScoreCP: -60, PV: []string{"g1f3"}},
	}}
	m := New(eval, Policy{}, nil)

	a, err := m.Assess(startFEN)
	require.NoError(t, err)

	assert.Equal(t, []string{"e4", "d4"}, a.WinningMoves)
	assert.False(t, a.HasOneWinningMove)
	require.Len(t, a.WinningLines, 2)
	assert.Equal(t, []string{"e4", "e5"}, a.WinningLines[0])
}

func TestAssess_SingleWinningMove(t *testing.T) {
	startFEN := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	eval := &linesEvaluator{lines: []engine.Line{
		{MultiPV: 1, ScoreCP: 300, PV: []string{"e2e4"}},
		{MultiPV: 2, ScoreCP: 100, PV: []string{"d2d4"}},
	}}
	m := New(eval, Policy{}, nil)

	a, err := m.Assess(startFEN)
	require.NoError(t, err)

	assert.True(t, a.HasOneWinningMove)
	assert.Equal(t, []string{"e4"}, a.WinningMoves)
}

func TestAssess_StopsAtFirstFailingLine(t *testing.T) {
	startFEN := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	// Line 2 falls outside the tolerance; line 3 would pass again but the
	// walk must not look past the first failure.
	eval := &linesEvaluator{lines: []engine.Line{
		{MultiPV: 1, ScoreCP: 100, PV: []string{"e2e4"}},
		{MultiPV: 2, ScoreCP: 20, PV: []string{"d2d4"}},
		{MultiPV: 3, ScoreCP: 90, PV: []string{"g1f3"}},
	}}
	m := New(eval, Policy{}, nil)

	a, err := m.Assess(startFEN)
	require.NoError(t, err)
	assert.Equal(t, []string{"e4"}, a.WinningMoves)
	assert.True(t, a.HasOneWinningMove)
}

func TestAssess_UnplayablePVKeepsLine(t *testing.T) {
	startFEN := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	// The PV is not coordinate notation, so it cannot be replayed to SAN;
	// the line still counts, reported in its raw form.
	eval := &linesEvaluator{lines: []engine.Line{
		{MultiPV: 1, ScoreCP: 100, PV: []string{"e9x4", "e7e5"}},
	}}
	m := New(eval, Policy{}, nil)

	a, err := m.Assess(startFEN)
	require.NoError(t, err)
	assert.Equal(t, []string{"e9x4"}, a.WinningMoves)
	assert.True(t, a.HasOneWinningMove)
}

func TestAssess_EngineFailure(t *testing.T) {
	m := New(failingEvaluator{}, Policy{}, nil)
	_, err := m.Assess("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.Error(t, err)
}

func TestPolicyDefaults(t *testing.T) {
	p := Policy{}.withDefaults()
	assert.Equal(t, 150.0, p.SwingThreshold)
	assert.Equal(t, 50.0, p.WinningTolerance)
	assert.Equal(t, 12, p.MineDepth)
	assert.Equal(t, 18, p.AssessDepth)
	assert.Equal(t, 3, p.MultiPV)

	custom := Policy{SwingThreshold: 200, MultiPV: 5}.withDefaults()
	assert.Equal(t, 200.0, custom.SwingThreshold)
	assert.Equal(t, 5, custom.MultiPV)
	assert.Equal(t, 12, custom.MineDepth)
}
