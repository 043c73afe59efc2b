package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// CustodyEventType classifies a ledger entry.
type CustodyEventType string

const (
	CustodyEventReceived     CustodyEventType = "received"
	CustodyEventAssigned     CustodyEventType = "assigned"
	CustodyEventStatusChange CustodyEventType = "status_change"
	CustodyEventTransferred  CustodyEventType = "transferred"
	CustodyEventReturned     CustodyEventType = "returned"
)

// Valid reports whether t is a known event type.
func (t CustodyEventType) Valid() bool {
	switch t {
	case CustodyEventReceived, CustodyEventAssigned, CustodyEventStatusChange, CustodyEventTransferred, CustodyEventReturned:
		return true
	}
	return false
}

// Officer identifies who performed a custody action.
type Officer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Badge string `json:"badge"`
}

// CustodyEvent is one immutable entry of an exhibit's chain of custody.
type CustodyEvent struct {
	Sequence       int              `json:"sequence"`
	Timestamp      time.Time        `json:"timestamp"`
	EventType      CustodyEventType `json:"event_type"`
	Description    string           `json:"description"`
	Officer        Officer          `json:"officer"`
	Location       string           `json:"location,omitempty"`
	PreviousStatus *ExhibitStatus   `json:"previous_status,omitempty"`
	NewStatus      *ExhibitStatus   `json:"new_status,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	PrevHash       string           `json:"prev_hash"`
	Hash           string           `json:"hash"`
}

// CustodyChain is the ordered ledger persisted as a JSONB array.
type CustodyChain []CustodyEvent

// Value implements driver.Valuer, encoding the ledger as JSON text.
func (c CustodyChain) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]CustodyEvent(c))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes the JSONB column strictly and validates the ledger shape, so
// a row altered outside the append path is reported instead of served.
func (c *CustodyChain) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		return fmt.Errorf("chain_of_custody is null")
	default:
		return fmt.Errorf("chain_of_custody: unsupported type %T", src)
	}
	decoded, err := DecodeCustodyChain(raw)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

// DecodeCustodyChain parses and validates a serialized ledger.
func DecodeCustodyChain(raw []byte) (CustodyChain, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var events []CustodyEvent
	if err := dec.Decode(&events); err != nil {
		return nil, fmt.Errorf("decode chain_of_custody: %w", err)
	}
	chain := CustodyChain(events)
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	return chain, nil
}

// Validate checks every event against the ledger schema: contiguous
// sequences starting at 1, a leading receipt event, known types and statuses,
// an identified officer and well formed hashes linking each entry to the
// previous one.
func (c CustodyChain) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("chain_of_custody is empty")
	}
	if c[0].EventType != CustodyEventReceived {
		return fmt.Errorf("chain_of_custody: first event is %q, want %q", c[0].EventType, CustodyEventReceived)
	}
	for i, ev := range c {
		if ev.Sequence != i+1 {
			return fmt.Errorf("chain_of_custody: event %d has sequence %d", i+1, ev.Sequence)
		}
		if err := ev.validate(); err != nil {
			return fmt.Errorf("chain_of_custody: event %d: %w", ev.Sequence, err)
		}
		if i > 0 && ev.PrevHash != c[i-1].Hash {
			return fmt.Errorf("chain_of_custody: event %d does not link to event %d", ev.Sequence, i)
		}
	}
	return nil
}

// Head returns the last event's hash, or "" for an empty chain.
func (c CustodyChain) Head() string {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1].Hash
}

func (e CustodyEvent) validate() error {
	switch {
	case e.Timestamp.IsZero():
		return fmt.Errorf("timestamp missing")
	case !e.EventType.Valid():
		return fmt.Errorf("unknown event_type %q", e.EventType)
	case e.Officer.Name == "":
		return fmt.Errorf("officer name missing")
	case e.PreviousStatus != nil && !e.PreviousStatus.Valid():
		return fmt.Errorf("unknown previous_status %q", *e.PreviousStatus)
	case e.NewStatus != nil && !e.NewStatus.Valid():
		return fmt.Errorf("unknown new_status %q", *e.NewStatus)
	}
	if !isDigest(e.PrevHash) || !isDigest(e.Hash) {
		return fmt.Errorf("malformed hash")
	}
	return nil
}

func isDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
