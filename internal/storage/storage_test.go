// FILE: internal/storage/storage_test.go
package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattslight/blunderfixer-api/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	require.NoError(t, s.InitDB())
	t.Cleanup(func() { s.Close() })
	return s
}

func testGame(uuid string) core.GameRecord {
	return core.GameRecord{
		GameUUID:      uuid,
		WhiteUsername: "hero",
		BlackUsername: "villain",
		TimeControl:   "180+2",
		PlayedAt:      time.Now().UTC(),
		PGN:           "1. e4 e5 2. Nf3 *",
	}
}

func testDrill(gameID string, ply int) core.DrillRecord {
	spent := 12.5
	return core.DrillRecord{
		GameID:      gameID,
		Username:    "hero",
		FEN:         "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		Ply:         ply,
		InitialEval: 30,
		EvalSwing:   280,
		LosingMove:  "e4",
		Assessment: core.WinningAssessment{
			HasOneWinningMove: true,
			WinningMoves:      []string{"d4"},
			WinningLines:      [][]string{{"d4", "d5"}},
		},
		Themes:   []core.Theme{core.ThemeCapture},
		TimeUsed: &spent,
		Material: &core.MaterialCounts{WhiteQueen: true, BlackQueen: true, WhiteRooks: 2, BlackRooks: 2, WhiteMinors: 4, BlackMinors: 4},
	}
}

func TestSaveGame_Idempotent(t *testing.T) {
	s := newTestStore(t)

	first, err := s.SaveGame(testGame("uuid-1"))
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := s.SaveGame(testGame("uuid-1"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := s.SaveGame(testGame("uuid-2"))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestGetGame(t *testing.T) {
	s := newTestStore(t)

	id, err := s.SaveGame(testGame("uuid-1"))
	require.NoError(t, err)

	g, err := s.GetGame(id)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "hero", g.WhiteUsername)
	assert.Equal(t, "180+2", g.TimeControl)

	missing, err := s.GetGame("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEnqueueWork_Deduplicates(t *testing.T) {
	s := newTestStore(t)
	gameID, err := s.SaveGame(testGame("uuid-1"))
	require.NoError(t, err)

	workID, queued, err := s.EnqueueWork(gameID, "hero")
	require.NoError(t, err)
	assert.True(t, queued)

	again, queued, err := s.EnqueueWork(gameID, "hero")
	require.NoError(t, err)
	assert.False(t, queued)
	assert.Equal(t, workID, again)

	// Same game for a different hero is separate work.
	_, queued, err = s.EnqueueWork(gameID, "villain")
	require.NoError(t, err)
	assert.True(t, queued)
}

func TestFetchUnprocessedAndMarkProcessed(t *testing.T) {
	s := newTestStore(t)
	gameID, err := s.SaveGame(testGame("uuid-1"))
	require.NoError(t, err)

	workID, _, err := s.EnqueueWork(gameID, "hero")
	require.NoError(t, err)

	items, err := s.FetchUnprocessed(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, workID, items[0].ID)
	assert.Equal(t, gameID, items[0].GameID)
	assert.False(t, items[0].Processed)

	require.NoError(t, s.MarkProcessed(workID))

	items, err = s.FetchUnprocessed(10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInsertDrills_Idempotent(t *testing.T) {
	s := newTestStore(t)
	gameID, err := s.SaveGame(testGame("uuid-1"))
	require.NoError(t, err)

	drills := []core.DrillRecord{testDrill(gameID, 1), testDrill(gameID, 5)}

	inserted, err := s.InsertDrills(drills)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	inserted, err = s.InsertDrills(drills)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	stored, err := s.ListDrills("hero", gameID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestListDrills_Roundtrip(t *testing.T) {
	s := newTestStore(t)
	gameID, err := s.SaveGame(testGame("uuid-1"))
	require.NoError(t, err)

	_, err = s.InsertDrills([]core.DrillRecord{testDrill(gameID, 3)})
	require.NoError(t, err)

	stored, err := s.ListDrills("hero", "", 0, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	d := stored[0]
	assert.Equal(t, 3, d.Ply)
	assert.Equal(t, "e4", d.LosingMove)
	assert.True(t, d.Assessment.HasOneWinningMove)
	assert.Equal(t, []string{"d4"}, d.Assessment.WinningMoves)
	assert.Equal(t, [][]string{{"d4", "d5"}}, d.Assessment.WinningLines)
	assert.Equal(t, []core.Theme{core.ThemeCapture}, d.Themes)
	require.NotNil(t, d.TimeUsed)
	assert.Equal(t, 12.5, *d.TimeUsed)
	require.NotNil(t, d.Material)
	assert.True(t, d.Material.WhiteQueen)
	assert.Equal(t, 2, d.Material.WhiteRooks)

	none, err := s.ListDrills("stranger", "", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	none, err = s.ListDrills("hero", "", 500, 10)
	require.NoError(t, err)
	assert.Empty(t, none, "swing filter above the stored swing excludes the drill")
}

func TestInsertDrills_Empty(t *testing.T) {
	s := newTestStore(t)
	inserted, err := s.InsertDrills(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
}
