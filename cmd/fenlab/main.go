// Package main implements fenlab, an interactive shell for poking at the
// position analyzers: load a FEN, then inspect its features, phase and the
// themes of candidate moves.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/notnil/chess"

	"github.com/mattslight/blunderfixer-api/internal/analysis"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func main() {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fenlab> ",
		HistoryFile:     ".fenlab_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Println("Position analysis shell")
	fmt.Println("Type 'help' for commands")
	fmt.Println()

	currentFEN := startFEN

	for {
		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			printHelp()

		case "fen":
			if len(args) == 0 {
				fmt.Println(currentFEN)
				continue
			}
			fen := strings.Join(args, " ")
			if _, err := chess.FEN(fen); err != nil {
				fmt.Printf("invalid FEN: %v\n", err)
				continue
			}
			currentFEN = fen
			fmt.Println("position set")

		case "features":
			report, err := analysis.ExtractFeatures(currentFEN)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			printJSON(report)

		case "phase":
			if len(args) < 1 {
				fmt.Println("usage: phase <ply>")
				continue
			}
			ply, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Println("usage: phase <ply>")
				continue
			}
			opt, err := chess.FEN(currentFEN)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			b := chess.NewGame(opt).Position().Board()
			mat := analysis.CountMaterial(b)
			fmt.Printf("phase: %s\n", analysis.ClassifyPhase(ply, &mat, 0))
			fmt.Printf("game phase: %s\n", analysis.GamePhaseAt(b, ply))

		case "themes":
			if len(args) < 1 {
				fmt.Println("usage: themes <san-move>")
				continue
			}
			themes, err := analysis.DetectThemes(currentFEN, args[0])
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			printJSON(themes)

		case "quit", "exit":
			return

		default:
			fmt.Printf("unknown command: %s (try 'help')\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  fen [FEN]        show or set the current position")
	fmt.Println("  features         run the static feature extractor")
	fmt.Println("  phase <ply>      classify the phase at a ply using current material")
	fmt.Println("  themes <move>    tag a SAN move with tactical motifs")
	fmt.Println("  quit             exit")
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
