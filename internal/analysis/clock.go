// FILE: internal/analysis/clock.go
package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

var clockPattern = regexp.MustCompile(`\[%clk\s+(\d+):(\d{2}):(\d{2}(?:\.\d+)?)\]`)

// parseTimeControl splits a "base+increment" time control into seconds.
// Increment defaults to zero; a non-numeric base fails.
func parseTimeControl(tc string) (base, inc float64, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(tc), "+", 2)
	base, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, false
	}
	if len(parts) == 2 {
		inc, err = strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, 0, false
		}
	}
	return base, inc, true
}

func clockFromComment(comment string) (float64, bool) {
	m := clockPattern.FindStringSubmatch(comment)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.ParseFloat(m[1], 64)
	min, _ := strconv.ParseFloat(m[2], 64)
	sec, _ := strconv.ParseFloat(m[3], 64)
	return h*3600 + min*60 + sec, true
}

// ExtractTimeUsed recovers the seconds spent on the move played at the given
// ply from embedded [%clk] annotations. The spend is the mover's previous
// remaining time (base for their first move) plus the increment minus the
// clock after the move, clamped at zero. Returns false when the PGN, the
// time control or the clock trail does not support the computation.
func ExtractTimeUsed(pgn, timeControl string, ply int) (float64, bool) {
	base, inc, ok := parseTimeControl(timeControl)
	if !ok || ply < 1 {
		return 0, false
	}

	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		return 0, false
	}
	game := chess.NewGame(opt)
	comments := game.Comments()
	if ply > len(comments) {
		return 0, false
	}

	// remaining[mover] tracks the clock after each side's latest move. An
	// unannotated intermediate move keeps the mover's last known clock;
	// only the target ply itself needs an annotation.
	remaining := map[int]float64{0: base, 1: base}
	for i := 0; i < ply; i++ {
		mover := i % 2
		clock, found := 0.0, false
		for _, c := range comments[i] {
			if v, got := clockFromComment(c); got {
				clock, found = v, true
				break
			}
		}
		if i == ply-1 {
			if !found {
				return 0, false
			}
			spent := remaining[mover] + inc - clock
			if spent < 0 {
				spent = 0
			}
			return spent, true
		}
		if found {
			remaining[mover] = clock
		}
	}
	return 0, false
}
