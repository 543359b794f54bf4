package services

import "github.com/Dosada05/weekly-contest/models"

var allowedTransitions = map[models.AdminStatus][]models.AdminStatus{
	models.StatusPending:     {models.StatusRejected, models.StatusPreNextWeek, models.StatusNextWeek},
	models.StatusRejected:    {models.StatusPending, models.StatusPreNextWeek},
	models.StatusPreNextWeek: {models.StatusNextWeek, models.StatusPending, models.StatusRejected},
	models.StatusNextWeek:    {models.StatusThisWeek, models.StatusPreNextWeek, models.StatusRejected},
	models.StatusThisWeek:    {models.StatusPast, models.StatusNextWeek},
	models.StatusPast:        {models.StatusThisWeek},
}

// IsAllowedTransition reports whether an admin may move a participant from current to next.
// Re-entering the current status is always allowed and refreshes its history entry.
func IsAllowedTransition(current, next models.AdminStatus) bool {
	if !next.Valid() {
		return false
	}
	if current == next {
		return true
	}
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

// AllowedTargets lists the statuses reachable from current, excluding current itself.
func AllowedTargets(current models.AdminStatus) []models.AdminStatus {
	targets := allowedTransitions[current]
	out := make([]models.AdminStatus, len(targets))
	copy(out, targets)
	return out
}
