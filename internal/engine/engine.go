// FILE: internal/engine/engine.go
package engine

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultPath is used when no engine binary is configured.
const DefaultPath = "stockfish"

// mateScoreCeiling caps the centipawn equivalent of a forced mate so that
// shorter mates always score higher than longer ones.
const mateScoreCeiling = 10000

// UCI wraps a single engine subprocess. All communication is serialized, so
// one instance serves one caller at a time; workers each own their own. A
// single goroutine owns stdout for the life of the process, so output left
// over from a timed-out search is drained before the next command instead
// of racing a second reader.
type UCI struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	output chan string
	mu     sync.Mutex

	multiPV int
}

// Line is one principal variation from a MultiPV search. ScoreCP is in the
// side-to-move's perspective, with mates mapped near the centipawn ceiling.
type Line struct {
	MultiPV int
	ScoreCP int
	IsMate  bool
	MateIn  int
	Depth   int
	PV      []string
}

func New(path string) (*UCI, error) {
	if path == "" {
		path = DefaultPath
	}
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine: %v", err)
	}

	uci := &UCI{
		cmd:     cmd,
		stdin:   stdin,
		output:  make(chan string, 64),
		multiPV: 1,
	}
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			uci.output <- scanner.Text()
		}
		close(uci.output)
	}()

	if err := uci.initialize(); err != nil {
		uci.Close()
		return nil, err
	}

	return uci, nil
}

func (u *UCI) initialize() error {
	u.send("uci")
	if err := u.expect("uciok", 5*time.Second); err != nil {
		return err
	}
	u.send("isready")
	return u.expect("readyok", 5*time.Second)
}

func (u *UCI) send(cmd string) {
	fmt.Fprintln(u.stdin, cmd)
}

// drain discards any buffered output, typically the tail of a search that
// timed out before its bestmove arrived.
func (u *UCI) drain() {
	for {
		select {
		case _, ok := <-u.output:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// expect consumes output until the exact line appears.
func (u *UCI) expect(line string, timeout time.Duration) error {
	deadline := time.After(timeout)
	for {
		select {
		case text, ok := <-u.output:
			if !ok {
				return fmt.Errorf("engine closed unexpectedly")
			}
			if text == line {
				return nil
			}
		case <-deadline:
			return fmt.Errorf("timeout waiting for %q", line)
		}
	}
}

// Evaluate searches a position to a fixed depth with the given MultiPV width
// and returns the final line per PV index, ordered by index. The result
// always has at least one entry on success.
func (u *UCI) Evaluate(fen string, depth, multiPV int) ([]Line, error) {
	if depth < 1 {
		depth = 1
	}
	if multiPV < 1 {
		multiPV = 1
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.drain()
	if multiPV != u.multiPV {
		u.send(fmt.Sprintf("setoption name MultiPV value %d", multiPV))
		u.multiPV = multiPV
	}
	u.send(fmt.Sprintf("position fen %s", fen))
	u.send(fmt.Sprintf("go depth %d", depth))

	// Depth searches have no wall-clock bound from the protocol, so cap
	// generously relative to depth.
	deadline := time.After(time.Duration(depth) * 5 * time.Second)

	lines := make(map[int]Line)
search:
	for {
		select {
		case text, ok := <-u.output:
			if !ok {
				return nil, fmt.Errorf("engine closed unexpectedly")
			}
			if strings.HasPrefix(text, "info ") {
				if l, ok := parseInfo(text); ok {
					lines[l.MultiPV] = l
				}
			}
			if strings.HasPrefix(text, "bestmove ") {
				break search
			}
		case <-deadline:
			// Halt the search; its late output is drained next call.
			u.send("stop")
			return nil, fmt.Errorf("timeout waiting for bestmove")
		}
	}

	out := make([]Line, 0, len(lines))
	for i := 1; i <= multiPV; i++ {
		if l, ok := lines[i]; ok {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no evaluation lines for position")
	}
	return out, nil
}

// parseInfo extracts one scored PV from an info line. Lines without both a
// score and a pv are ignored.
func parseInfo(text string) (Line, bool) {
	l := Line{MultiPV: 1}
	fields := strings.Fields(text)
	hasScore := false

	for i := 0; i < len(fields)-1; i++ {
		switch fields[i] {
		case "depth":
			fmt.Sscanf(fields[i+1], "%d", &l.Depth)
		case "multipv":
			fmt.Sscanf(fields[i+1], "%d", &l.MultiPV)
		case "cp":
			fmt.Sscanf(fields[i+1], "%d", &l.ScoreCP)
			hasScore = true
		case "mate":
			fmt.Sscanf(fields[i+1], "%d", &l.MateIn)
			l.IsMate = true
			l.ScoreCP = mateScore(l.MateIn)
			hasScore = true
		case "pv":
			l.PV = fields[i+1:]
			i = len(fields)
		}
	}
	return l, hasScore && len(l.PV) > 0
}

// mateScore maps mate-in-N onto the centipawn scale: closer mates score
// nearer the ceiling, and mates against the mover are symmetric below zero.
func mateScore(mateIn int) int {
	if mateIn == 0 {
		return 0
	}
	n := mateIn
	if n < 0 {
		n = -n
	}
	score := mateScoreCeiling - n
	if mateIn < 0 {
		return -score
	}
	return score
}

// NewGame resets engine state between unrelated positions.
func (u *UCI) NewGame() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.send("ucinewgame")
	u.send("isready")
	return u.expect("readyok", 5*time.Second)
}

func (u *UCI) Close() error {
	u.mu.Lock()
	u.send("quit")
	u.mu.Unlock()
	time.Sleep(100 * time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- u.cmd.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-time.After(1 * time.Second):
		return u.cmd.Process.Kill()
	}
}
