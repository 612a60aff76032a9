package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dealhaus/deal-server-go/internal/game/rules"
)

func TestNewReplay(t *testing.T) {
	replay := NewReplay("game-123")
	assert.Equal(t, "game-123", replay.GameID)
	assert.Equal(t, 0, replay.CurrentIndex)
	assert.Equal(t, 0, len(replay.States))
}

func TestReplayRecordState(t *testing.T) {
	replay := NewReplay("game-123")

	snapshot := &gameStateSnapshot{
		GameID:     "game-123",
		TurnNumber: 1,
		Phase:      rules.PhasePlaying,
	}

	replay.RecordState(snapshot)

	assert.Equal(t, 1, replay.Size())
	assert.Equal(t, snapshot, replay.States[0])
}

func TestReplayNavigation(t *testing.T) {
	replay := NewReplay("game-123")

	for i := 0; i < 5; i++ {
		replay.RecordState(&gameStateSnapshot{
			GameID:     "game-123",
			TurnNumber: i + 1,
			Phase:      rules.PhasePlaying,
		})
	}

	assert.Equal(t, 5, replay.Size())

	replay.Start()
	assert.Equal(t, 0, replay.CurrentIndex)

	state := replay.Next()
	require.NotNil(t, state)
	assert.Equal(t, 1, state.TurnNumber)

	state = replay.Next()
	require.NotNil(t, state)
	assert.Equal(t, 2, state.TurnNumber)
	assert.Equal(t, 2, replay.CurrentIndex)

	// After two Next calls the cursor sits past index 1; Previous steps back
	// onto it.
	state = replay.Previous()
	require.NotNil(t, state)
	assert.Equal(t, 2, state.TurnNumber)

	state = replay.Previous()
	require.NotNil(t, state)
	assert.Equal(t, 1, state.TurnNumber)
	assert.Equal(t, 0, replay.CurrentIndex)

	replay.Start()
	assert.Nil(t, replay.Previous())

	for i := 0; i < 10; i++ {
		replay.Next()
	}
	assert.Nil(t, replay.Next())
}

func TestReplaySkipClamps(t *testing.T) {
	replay := NewReplay("game-123")
	for i := 0; i < 10; i++ {
		replay.RecordState(&gameStateSnapshot{GameID: "game-123", TurnNumber: i + 1})
	}

	replay.Start()
	state := replay.Skip(3)
	require.NotNil(t, state)
	assert.Equal(t, 4, state.TurnNumber)

	state = replay.Skip(100)
	require.NotNil(t, state)
	assert.Equal(t, 10, state.TurnNumber)

	state = replay.Skip(-100)
	require.NotNil(t, state)
	assert.Equal(t, 1, state.TurnNumber)
}

func TestReplaySaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	e := NewDealEngine(zap.NewNop(), WithSeedSource(func() int64 { return 7 }))
	require.NoError(t, e.StartGame("replay-game", []PlayerSpec{
		{PlayerID: "p1", Name: "Alice"},
		{PlayerID: "p2", Name: "Bob"},
	}))
	require.NoError(t, e.DrawCards("replay-game", "p1"))
	require.NoError(t, e.EndTurn("replay-game", "p1"))

	original, ok := e.GetReplay("replay-game")
	require.True(t, ok)
	recorded := original.Size()
	require.Greater(t, recorded, 1)

	require.NoError(t, e.SaveReplay("replay-game", dir))

	// Saving drops the in-memory copy.
	_, ok = e.GetReplay("replay-game")
	assert.False(t, ok)

	loaded, err := LoadReplayFromFile(dir, "replay-game")
	require.NoError(t, err)
	assert.Equal(t, recorded, loaded.Size())

	// Checksums survive the round trip state by state.
	for i := 0; i < recorded; i++ {
		want, err := original.GetStateAt(i).ComputeChecksum()
		require.NoError(t, err)
		got, err := loaded.GetStateAt(i).ComputeChecksum()
		require.NoError(t, err)
		assert.Equal(t, want.Hash, got.Hash)
	}
}

func TestEngineRecordsReplayPerOperation(t *testing.T) {
	e := NewDealEngine(zap.NewNop(), WithSeedSource(func() int64 { return 7 }))
	require.NoError(t, e.StartGame("g", []PlayerSpec{
		{PlayerID: "p1", Name: "Alice"},
		{PlayerID: "p2", Name: "Bob"},
	}))

	replay, ok := e.GetReplay("g")
	require.True(t, ok)
	assert.Equal(t, 1, replay.Size())

	require.NoError(t, e.DrawCards("g", "p1"))
	assert.Equal(t, 2, replay.Size())
}
