// FILE: internal/analysis/clock_test.go
package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clockedPGN = `[Event "Live Chess"]
[White "hero"]
[Black "villain"]

1. e4 {[%clk 0:02:58]} e5 {[%clk 0:02:55]} 2. Nf3 {[%clk 0:02:50]} Nc6 {[%clk 0:02:40]} *`

func TestParseTimeControl(t *testing.T) {
	tests := []struct {
		tc       string
		base     float64
		inc      float64
		ok       bool
	}{
		{"180+2", 180, 2, true},
		{"600", 600, 0, true},
		{"60+1", 60, 1, true},
		{"1/86400", 0, 0, false},
		{"", 0, 0, false},
		{"abc", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.tc, func(t *testing.T) {
			base, inc, ok := parseTimeControl(tt.tc)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.base, base)
				assert.Equal(t, tt.inc, inc)
			}
		})
	}
}

func TestClockFromComment(t *testing.T) {
	v, ok := clockFromComment("[%clk 0:02:58]")
	require.True(t, ok)
	assert.Equal(t, 178.0, v)

	v, ok = clockFromComment("[%clk 1:00:30.5]")
	require.True(t, ok)
	assert.Equal(t, 3630.5, v)

	_, ok = clockFromComment("no clock here")
	assert.False(t, ok)
}

func TestExtractTimeUsed(t *testing.T) {
	// First white move: 180 base + 2 inc - 178 remaining.
	spent, ok := ExtractTimeUsed(clockedPGN, "180+2", 1)
	require.True(t, ok)
	assert.InDelta(t, 4.0, spent, 0.001)

	// First black move.
	spent, ok = ExtractTimeUsed(clockedPGN, "180+2", 2)
	require.True(t, ok)
	assert.InDelta(t, 7.0, spent, 0.001)

	// Second white move: previous white clock was 178.
	spent, ok = ExtractTimeUsed(clockedPGN, "180+2", 3)
	require.True(t, ok)
	assert.InDelta(t, 10.0, spent, 0.001)

	// Black burned 15s on move two.
	spent, ok = ExtractTimeUsed(clockedPGN, "180+2", 4)
	require.True(t, ok)
	assert.InDelta(t, 17.0, spent, 0.001)
}

func TestExtractTimeUsed_ClampsAtZero(t *testing.T) {
	// Remaining time above base plus increment must not go negative.
	pgn := `1. e4 {[%clk 0:05:00]} *`
	spent, ok := ExtractTimeUsed(pgn, "180+2", 1)
	require.True(t, ok)
	assert.Equal(t, 0.0, spent)
}

func TestExtractTimeUsed_MissingIntermediateClock(t *testing.T) {
	// Black's move carries no annotation; White's trail still answers for
	// White's later moves, while the bare ply itself stays unknown.
	pgn := `1. e4 {[%clk 0:02:58]} e5 2. Nf3 {[%clk 0:02:50]} *`

	spent, ok := ExtractTimeUsed(pgn, "180+2", 3)
	require.True(t, ok)
	assert.InDelta(t, 10.0, spent, 0.001)

	_, ok = ExtractTimeUsed(pgn, "180+2", 2)
	assert.False(t, ok)
}

func TestExtractTimeUsed_Unsupported(t *testing.T) {
	_, ok := ExtractTimeUsed(clockedPGN, "1/86400", 1)
	assert.False(t, ok)

	_, ok = ExtractTimeUsed(clockedPGN, "180+2", 0)
	assert.False(t, ok)

	_, ok = ExtractTimeUsed(clockedPGN, "180+2", 99)
	assert.False(t, ok)

	_, ok = ExtractTimeUsed(`1. e4 e5 *`, "180+2", 1)
	assert.False(t, ok)
}
