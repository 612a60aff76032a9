package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/dealhaus/deal-server-go/internal/game/cards"
)

// SerializationChecksum is a deterministic digest of a game state snapshot,
// used to detect divergent states across replays or rollbacks.
type SerializationChecksum struct {
	Hash      string
	Timestamp string
	Version   int
}

// ComputeChecksum hashes a canonical representation of the snapshot. The
// representation excludes non-deterministic fields such as timestamps, so two
// snapshots of the same logical state always produce the same hash.
func (snapshot *gameStateSnapshot) ComputeChecksum() (*SerializationChecksum, error) {
	deterministicData := snapshot.buildDeterministicRepresentation()

	hash := sha256.New()
	if _, err := hash.Write([]byte(deterministicData)); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}

	return &SerializationChecksum{
		Hash:      hex.EncodeToString(hash.Sum(nil)),
		Timestamp: snapshot.Timestamp.Format("2006-01-02T15:04:05.000Z"),
		Version:   1,
	}, nil
}

// buildDeterministicRepresentation produces a canonical string for hashing.
// Ordered zones (deck, discard, hands) keep their order since it is game
// state; the player map iterates in seat order.
func (snapshot *gameStateSnapshot) buildDeterministicRepresentation() string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("GAME:%s|%s|%d|%d|%d|%s\n",
		snapshot.GameID,
		snapshot.Phase,
		snapshot.TurnNumber,
		snapshot.TurnIndex,
		snapshot.MovesLeft,
		snapshot.WinnerID,
	))

	buf.WriteString("ORDER:")
	buf.WriteString(strings.Join(snapshot.PlayerOrder, ","))
	buf.WriteString("\n")

	writeZone := func(label string, list []*cardSnapshotRef) {
		buf.WriteString(label)
		buf.WriteString(":")
		parts := make([]string, len(list))
		for i, c := range list {
			parts[i] = c.key
		}
		buf.WriteString(strings.Join(parts, ","))
		buf.WriteString("\n")
	}

	writeZone("DECK", zoneRefs(snapshot.Deck, false))
	writeZone("DISCARD", zoneRefs(snapshot.Discard, false))

	for _, id := range snapshot.PlayerOrder {
		player, ok := snapshot.Players[id]
		if !ok {
			continue
		}
		buf.WriteString(fmt.Sprintf("PLAYER:%s|%s|%t|%d\n",
			id, player.Name, player.IsBot, player.JustSayNosPlayed))
		writeZone("  HAND", zoneRefs(player.Hand, true))
		writeZone("  BANK", zoneRefs(player.Bank, true))
		writeZone("  PROPERTIES", zoneRefs(player.Properties, true))
	}

	if p := snapshot.Pending; p != nil {
		buf.WriteString(fmt.Sprintf("PENDING:%s|%s|%s|%d|%s|%s\n",
			p.Kind, p.InitiatorID, p.CurrentVictim, p.Amount, p.Color,
			strings.Join(p.Queue, ",")))
	}
	if r := snapshot.LastRent; r != nil {
		buf.WriteString(fmt.Sprintf("LAST_RENT:%d|%s|%s\n",
			r.Amount, r.Color, strings.Join(r.VictimIDs, ",")))
	}

	return buf.String()
}

type cardSnapshotRef struct {
	key string
}

// zoneRefs renders cards as stable keys. Sorted zones are sets (player
// zones); unsorted zones preserve order (deck, discard).
func zoneRefs(list []*cards.Card, sorted bool) []*cardSnapshotRef {
	refs := make([]*cardSnapshotRef, len(list))
	for i, c := range list {
		refs[i] = &cardSnapshotRef{
			key: fmt.Sprintf("%s@%s", c.ID, c.CurrentColor),
		}
	}
	if sorted {
		sort.Slice(refs, func(i, j int) bool { return refs[i].key < refs[j].key })
	}
	return refs
}

// VerifyChecksum reports whether the snapshot's computed checksum matches an
// expected one.
func (snapshot *gameStateSnapshot) VerifyChecksum(expected *SerializationChecksum) (bool, error) {
	computed, err := snapshot.ComputeChecksum()
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}

	return computed.Hash == expected.Hash, nil
}

// SerializeToBytes gob-encodes the snapshot for replay files and storage.
func (snapshot *gameStateSnapshot) SerializeToBytes() ([]byte, error) {
	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)

	if err := encoder.Encode(snapshot); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return buf.Bytes(), nil
}

// DeserializeFromBytes decodes a snapshot produced by SerializeToBytes.
func DeserializeFromBytes(data []byte) (*gameStateSnapshot, error) {
	var snapshot gameStateSnapshot
	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)

	if err := decoder.Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &snapshot, nil
}

// ValidateSerializationRoundtrip checks that serialization loses no state by
// comparing checksums before and after a round trip.
func ValidateSerializationRoundtrip(snapshot *gameStateSnapshot) error {
	originalChecksum, err := snapshot.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute original checksum: %w", err)
	}

	data, err := snapshot.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}

	deserialized, err := DeserializeFromBytes(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize: %w", err)
	}

	deserializedChecksum, err := deserialized.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute deserialized checksum: %w", err)
	}

	if originalChecksum.Hash != deserializedChecksum.Hash {
		return fmt.Errorf("checksum mismatch: original=%s, deserialized=%s",
			originalChecksum.Hash, deserializedChecksum.Hash)
	}

	return nil
}
