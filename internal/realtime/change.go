// Package realtime fans database change notifications out to in-process
// subscribers.
package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ChangeType is the write that produced a change.
type ChangeType string

const (
	Insert ChangeType = "INSERT"
	Update ChangeType = "UPDATE"
	Delete ChangeType = "DELETE"
)

// Change is one row-level write on a synced table. New is empty for
// deletes and Old is empty for inserts. When Truncated is set the row
// images carry only the id and the row must be re-read.
type Change struct {
	Table     string          `json:"table"`
	Type      ChangeType      `json:"type"`
	New       json.RawMessage `json:"new,omitempty"`
	Old       json.RawMessage `json:"old,omitempty"`
	Truncated bool            `json:"truncated,omitempty"`
}

// DecodeChange parses a change notification payload.
func DecodeChange(payload []byte) (Change, error) {
	var c Change
	if err := json.Unmarshal(payload, &c); err != nil {
		return Change{}, fmt.Errorf("decode change: %w", err)
	}
	if c.Table == "" {
		return Change{}, fmt.Errorf("decode change: missing table")
	}
	switch c.Type {
	case Insert, Update, Delete:
	default:
		return Change{}, fmt.Errorf("decode change: unknown type %q", c.Type)
	}
	return c, nil
}

// HasNew reports whether the change carries a new row image.
func (c Change) HasNew() bool { return present(c.New) }

// HasOld reports whether the change carries an old row image.
func (c Change) HasOld() bool { return present(c.Old) }

// DecodeNew unmarshals the new row image into v.
func (c Change) DecodeNew(v any) error {
	if !c.HasNew() {
		return fmt.Errorf("%s %s change has no new row", c.Table, c.Type)
	}
	return json.Unmarshal(c.New, v)
}

// DecodeOld unmarshals the old row image into v.
func (c Change) DecodeOld(v any) error {
	if !c.HasOld() {
		return fmt.Errorf("%s %s change has no old row", c.Table, c.Type)
	}
	return json.Unmarshal(c.Old, v)
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
