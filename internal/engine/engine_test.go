// FILE: internal/engine/engine_test.go
package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpect_SkipsStaleOutput(t *testing.T) {
	u := &UCI{output: make(chan string, 8)}
	u.output <- "info string tail of an abandoned search"
	u.output <- "bestmove e2e4"
	u.output <- "readyok"

	require.NoError(t, u.expect("readyok", time.Second))
}

func TestExpect_Timeout(t *testing.T) {
	u := &UCI{output: make(chan string, 1)}
	err := u.expect("readyok", 20*time.Millisecond)
	require.Error(t, err)
}

func TestDrain_DiscardsBufferedOutput(t *testing.T) {
	u := &UCI{output: make(chan string, 8)}
	u.output <- "info string tail of an abandoned search"
	u.output <- "bestmove e2e4"

	u.drain()

	select {
	case text := <-u.output:
		t.Fatalf("output not drained, got %q", text)
	default:
	}
}

func TestParseInfo(t *testing.T) {
	l, ok := parseInfo("info depth 18 seldepth 24 multipv 2 score cp 35 nodes 12345 nps 100000 pv e2e4 e7e5 g1f3")
	require.True(t, ok)
	assert.Equal(t, 18, l.Depth)
	assert.Equal(t, 2, l.MultiPV)
	assert.Equal(t, 35, l.ScoreCP)
	assert.False(t, l.IsMate)
	assert.Equal(t, []string{"e2e4", "e7e5", "g1f3"}, l.PV)
}

func TestParseInfo_Mate(t *testing.T) {
	l, ok := parseInfo("info depth 12 multipv 1 score mate 3 pv d1h5 g8f6 h5f7")
	require.True(t, ok)
	assert.True(t, l.IsMate)
	assert.Equal(t, 3, l.MateIn)
	assert.Equal(t, 9997, l.ScoreCP)
}

func TestParseInfo_MateAgainst(t *testing.T) {
	l, ok := parseInfo("info depth 10 score mate -2 pv e8d8")
	require.True(t, ok)
	assert.True(t, l.IsMate)
	assert.Equal(t, -2, l.MateIn)
	assert.Equal(t, -9998, l.ScoreCP)
}

func TestParseInfo_NegativeScore(t *testing.T) {
	l, ok := parseInfo("info depth 15 multipv 3 score cp -120 pv b8c6")
	require.True(t, ok)
	assert.Equal(t, -120, l.ScoreCP)
	assert.Equal(t, 3, l.MultiPV)
}

func TestParseInfo_IgnoresProgressLines(t *testing.T) {
	_, ok := parseInfo("info depth 5 currmove e2e4 currmovenumber 1")
	assert.False(t, ok)

	_, ok = parseInfo("info depth 5 score cp 20")
	assert.False(t, ok, "a line without a pv is not a usable variation")
}

func TestMateScore(t *testing.T) {
	assert.Equal(t, 9999, mateScore(1))
	assert.Equal(t, 9995, mateScore(5))
	assert.Equal(t, -9999, mateScore(-1))
	assert.Equal(t, 0, mateScore(0))
	assert.Greater(t, mateScore(1), mateScore(2))
}
