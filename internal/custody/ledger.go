// Package custody seals, verifies and renders exhibit chain-of-custody
// ledgers. Every event carries a blake2b digest over its predecessor's digest
// and its own canonical encoding, so any edit to a stored entry breaks the
// chain from that point on.
package custody

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
)

// Genesis is the prev_hash of an exhibit's first event.
func Genesis(exhibitID string) string {
	sum := blake2b.Sum256([]byte("exhibit-custody:" + exhibitID))
	return hex.EncodeToString(sum[:])
}

// Seal numbers ev as the next entry of chain and computes its hashes. The
// timestamp is normalised to UTC microseconds to survive the database round
// trip unchanged.
func Seal(exhibitID string, chain models.CustodyChain, ev models.CustodyEvent) (models.CustodyEvent, error) {
	ev.Sequence = len(chain) + 1
	ev.Timestamp = ev.Timestamp.UTC().Truncate(time.Microsecond)
	ev.PrevHash = Genesis(exhibitID)
	if len(chain) > 0 {
		ev.PrevHash = chain.Head()
	}
	hash, err := digest(ev)
	if err != nil {
		return models.CustodyEvent{}, err
	}
	ev.Hash = hash
	return ev, nil
}

type canonicalEvent struct {
	Sequence       int                     `json:"sequence"`
	Timestamp      string                  `json:"timestamp"`
	EventType      models.CustodyEventType `json:"event_type"`
	Description    string                  `json:"description"`
	Officer        models.Officer          `json:"officer"`
	Location       string                  `json:"location"`
	PreviousStatus string                  `json:"previous_status"`
	NewStatus      string                  `json:"new_status"`
	Notes          string                  `json:"notes"`
}

func digest(ev models.CustodyEvent) (string, error) {
	prev, err := hex.DecodeString(ev.PrevHash)
	if err != nil {
		return "", fmt.Errorf("decode prev_hash: %w", err)
	}
	payload, err := json.Marshal(canonicalEvent{
		Sequence:       ev.Sequence,
		Timestamp:      ev.Timestamp.UTC().Format(time.RFC3339Nano),
		EventType:      ev.EventType,
		Description:    ev.Description,
		Officer:        ev.Officer,
		Location:       ev.Location,
		PreviousStatus: statusString(ev.PreviousStatus),
		NewStatus:      statusString(ev.NewStatus),
		Notes:          ev.Notes,
	})
	if err != nil {
		return "", fmt.Errorf("encode custody event: %w", err)
	}
	h, _ := blake2b.New256(nil)
	h.Write(prev)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func statusString(s *models.ExhibitStatus) string {
	if s == nil {
		return ""
	}
	return string(*s)
}

// Verification is the outcome of recomputing a ledger.
type Verification struct {
	ExhibitID string `json:"exhibit_id"`
	Intact    bool   `json:"intact"`
	Events    int    `json:"events"`
	HeadHash  string `json:"head_hash"`
	BrokenAt  int    `json:"broken_at,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Verify recomputes every digest and reports the first event that does not
// match.
func Verify(exhibitID string, chain models.CustodyChain) Verification {
	result := Verification{ExhibitID: exhibitID, Events: len(chain), HeadHash: chain.Head()}
	if len(chain) == 0 {
		result.Reason = "ledger is empty"
		return result
	}
	expectedPrev := Genesis(exhibitID)
	for i, ev := range chain {
		fail := func(reason string) Verification {
			result.BrokenAt = i + 1
			result.Reason = reason
			return result
		}
		if ev.Sequence != i+1 {
			return fail(fmt.Sprintf("sequence %d out of order", ev.Sequence))
		}
		if ev.PrevHash != expectedPrev {
			return fail("prev_hash does not match preceding event")
		}
		recomputed, err := digest(ev)
		if err != nil {
			return fail(err.Error())
		}
		if recomputed != ev.Hash {
			return fail("hash does not match event content")
		}
		expectedPrev = ev.Hash
	}
	result.Intact = true
	return result
}
