package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Replay is a recorded match: a sequential list of state snapshots, one per
// resolved operation, with a playback cursor.
type Replay struct {
	GameID       string
	States       []*gameStateSnapshot
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay for a game.
func NewReplay(gameID string) *Replay {
	return &Replay{
		GameID: gameID,
		States: make([]*gameStateSnapshot, 0),
	}
}

// RecordState appends a snapshot to the replay.
func (r *Replay) RecordState(snapshot *gameStateSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.States = append(r.States, snapshot)
}

// Start resets the playback cursor to the beginning.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the snapshot at the cursor and advances it, or nil at the end.
func (r *Replay) Next() *gameStateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.States) {
		state := r.States[r.CurrentIndex]
		r.CurrentIndex++
		return state
	}
	return nil
}

// Previous steps the cursor back and returns the snapshot there, or nil at
// the beginning.
func (r *Replay) Previous() *gameStateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.States[r.CurrentIndex]
	}
	return nil
}

// Skip moves the cursor forward or backward by count, clamped to the
// recorded range.
func (r *Replay) Skip(count int) *gameStateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	newIndex := r.CurrentIndex + count
	if newIndex >= len(r.States) {
		newIndex = len(r.States) - 1
	}
	if newIndex < 0 {
		newIndex = 0
	}

	r.CurrentIndex = newIndex
	if r.CurrentIndex < len(r.States) {
		return r.States[r.CurrentIndex]
	}
	return nil
}

// Size returns the number of recorded states.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.States)
}

// GetStateAt returns the snapshot at a specific index.
func (r *Replay) GetStateAt(index int) *gameStateSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.States) {
		return r.States[index]
	}
	return nil
}

// SaveToFile writes the replay to <directory>/<gameID>.replay as gzipped gob.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.GameID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		GameID:     r.GameID,
		Timestamp:  time.Now(),
		Version:    1,
		StateCount: len(r.States),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	for i, state := range r.States {
		if err := encoder.Encode(state); err != nil {
			return fmt.Errorf("failed to encode state %d: %w", i, err)
		}
	}

	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != 1 {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.GameID)
	for i := 0; i < metadata.StateCount; i++ {
		var state gameStateSnapshot
		if err := decoder.Decode(&state); err != nil {
			return nil, fmt.Errorf("failed to decode state %d: %w", i, err)
		}
		replay.States = append(replay.States, &state)
	}

	return replay, nil
}

type replayMetadata struct {
	GameID     string
	Timestamp  time.Time
	Version    int
	StateCount int
}

// recordReplay appends the game's current state to its replay. Caller holds
// the game lock.
func (e *DealEngine) recordReplay(gs *engineGameState) {
	e.mu.RLock()
	replay := e.replays[gs.gameID]
	e.mu.RUnlock()

	if replay == nil {
		return
	}
	replay.RecordState(gs.snapshot())
}

// GetReplay returns the in-memory replay for a game.
func (e *DealEngine) GetReplay(gameID string) (*Replay, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	replay, exists := e.replays[gameID]
	return replay, exists
}

// SaveReplay writes a finished game's replay to disk and drops it from
// memory.
func (e *DealEngine) SaveReplay(gameID, directory string) error {
	e.mu.Lock()
	replay, exists := e.replays[gameID]
	if !exists {
		e.mu.Unlock()
		return fmt.Errorf("no replay found for game %s", gameID)
	}
	delete(e.replays, gameID)
	e.mu.Unlock()

	if err := replay.SaveToFile(directory); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	return nil
}
