package models

import (
	"encoding/json"
	"time"
)

// TransitionResult — результат transition_weekly_contest. Тело ответа RPC
// не контролируется этим сервисом, поэтому хранится целиком в Raw.
type TransitionResult struct {
	TargetWeekStart time.Time           `json:"target_week_start"`
	DryRun          bool                `json:"dry_run"`
	Before          map[AdminStatus]int `json:"before,omitempty"`
	After           map[AdminStatus]int `json:"after,omitempty"`
	Raw             json.RawMessage     `json:"raw"`
}
