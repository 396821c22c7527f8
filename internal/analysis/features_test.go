// FILE: internal/analysis/features_test.go
package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestExtractFeatures_StartPosition(t *testing.T) {
	report, err := ExtractFeatures(startFEN)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Material.Balance)
	assert.Equal(t, "equal", report.Material.Advantage)

	assert.Equal(t, 20, report.Mobility.WhiteMoves)
	assert.Equal(t, 20, report.Mobility.BlackMoves)

	assert.Empty(t, report.OpenFiles)
	assert.True(t, report.BishopPair.White)
	assert.True(t, report.BishopPair.Black)

	assert.Equal(t, "uncastled or blocked", report.KingSafety.White.Status)
	assert.False(t, report.KingSafety.White.InCheck)
	assert.False(t, report.KingSafety.White.CanCastleKingside)
	assert.Equal(t, 3, report.KingSafety.White.PawnShieldCount)

	assert.Equal(t, "equal", report.SpaceAdvantage.Advantage)
	assert.Empty(t, report.PawnStructure.White)
	assert.Empty(t, report.DoubledPawns.White)
}

func TestExtractFeatures_InvalidFEN(t *testing.T) {
	_, err := ExtractFeatures("not a position")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid FEN")
}

func TestExtractFeatures_IsolatedAndPassedPawn(t *testing.T) {
	report, err := ExtractFeatures("8/8/8/8/3P4/8/8/4k2K w - - 0 1")
	require.NoError(t, err)

	assert.Contains(t, report.PawnStructure.White, "isolated pawn on d4")
	assert.Contains(t, report.PassedPawns.White, "d4")
	assert.Empty(t, report.PassedPawns.Black)
}

func TestExtractFeatures_OpenFile(t *testing.T) {
	report, err := ExtractFeatures("rnbqkbnr/1ppppppp/8/8/8/8/1PPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, report.OpenFiles)
	assert.Empty(t, report.SemiOpenFiles.White)
	assert.Contains(t, report.RookPlacement.White.Open, "a1")
	assert.Contains(t, report.RookPlacement.Black.Open, "a8")
}

func TestExtractFeatures_SemiOpenFile(t *testing.T) {
	// White has no e-pawn, Black still does.
	report, err := ExtractFeatures("rnbqkbnr/pppppppp/8/8/8/8/PPPP1PPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)

	assert.Contains(t, report.SemiOpenFiles.White, "e")
	assert.Empty(t, report.SemiOpenFiles.Black)
	assert.Empty(t, report.OpenFiles)
}

func TestExtractFeatures_DoubledPawns(t *testing.T) {
	report, err := ExtractFeatures("4k3/8/8/8/8/2P5/2P5/4K3 w - - 0 1")
	require.NoError(t, err)

	assert.Equal(t, []string{"c-file"}, report.DoubledPawns.White)
	assert.Empty(t, report.DoubledPawns.Black)
}

func TestExtractFeatures_HangingPiece(t *testing.T) {
	// Black knight on e5 attacked by the e2 rook, no defender in range.
	report, err := ExtractFeatures("4k3/8/8/4n3/8/8/4R3/4K3 w - - 0 1")
	require.NoError(t, err)

	require.Len(t, report.LooseHanging.Black.Hanging, 1)
	assert.Equal(t, "n on e5 is hanging (attacked by 1: R)", report.LooseHanging.Black.Hanging[0])

	require.Len(t, report.AttackedPieces.Black, 1)
	assert.Equal(t, "Knight", report.AttackedPieces.Black[0].Piece)
	assert.Equal(t, "e5", report.AttackedPieces.Black[0].Square)
	require.Len(t, report.AttackedPieces.Black[0].Attackers, 1)
	assert.Equal(t, "Rook", report.AttackedPieces.Black[0].Attackers[0].Piece)
}

func TestExtractFeatures_MaterialImbalance(t *testing.T) {
	report, err := ExtractFeatures("4k3/8/8/8/8/8/8/Q3K3 w - - 0 1")
	require.NoError(t, err)

	assert.Equal(t, 9, report.Material.Balance)
	assert.Equal(t, "white", report.Material.Advantage)
}

func TestExtractFeatures_CastledKing(t *testing.T) {
	report, err := ExtractFeatures("5rk1/5ppp/8/8/8/8/5PPP/5RK1 w - - 0 1")
	require.NoError(t, err)

	assert.Equal(t, "castled kingside", report.KingSafety.White.Status)
	assert.Equal(t, "castled kingside", report.KingSafety.Black.Status)
	assert.Equal(t, 3, report.KingSafety.White.PawnShieldCount)
}

func TestExtractFeatures_Deterministic(t *testing.T) {
	first, err := ExtractFeatures(startFEN)
	require.NoError(t, err)
	second, err := ExtractFeatures(startFEN)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
