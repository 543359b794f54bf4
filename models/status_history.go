package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StatusHistoryEntry records who moved the participant into a status and when.
type StatusHistoryEntry struct {
	ChangedAt      time.Time  `json:"changed_at"`
	ChangedBy      *uuid.UUID `json:"changed_by,omitempty"`
	ChangedByEmail string     `json:"changed_by_email,omitempty"`
	WeekInterval   string     `json:"week_interval,omitempty"`
}

// StatusHistory is keyed by status name. Re-entering a status replaces its entry.
type StatusHistory map[AdminStatus]StatusHistoryEntry

func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return "{}", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (h *StatusHistory) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*h = StatusHistory{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("status_history: unsupported scan type %T", src)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*h = StatusHistory{}
		return nil
	}
	out := StatusHistory{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("status_history: %w", err)
	}
	*h = out
	return nil
}
