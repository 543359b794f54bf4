package services

import (
	"testing"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/stretchr/testify/assert"
)

func TestIsAllowedTransition(t *testing.T) {
	tests := []struct {
		from, to models.AdminStatus
		want     bool
	}{
		{models.StatusPending, models.StatusRejected, true},
		{models.StatusPending, models.StatusPreNextWeek, true},
		{models.StatusPending, models.StatusNextWeek, true},
		{models.StatusPending, models.StatusThisWeek, false},
		{models.StatusPending, models.StatusPast, false},
		{models.StatusRejected, models.StatusPending, true},
		{models.StatusRejected, models.StatusNextWeek, false},
		{models.StatusPreNextWeek, models.StatusNextWeek, true},
		{models.StatusNextWeek, models.StatusThisWeek, true},
		{models.StatusNextWeek, models.StatusPast, false},
		{models.StatusThisWeek, models.StatusPast, true},
		{models.StatusThisWeek, models.StatusRejected, false},
		{models.StatusPast, models.StatusThisWeek, true},
		{models.StatusPast, models.StatusPending, false},
		{models.StatusPast, "archived", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAllowedTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestIsAllowedTransition_SameStatusAlwaysAllowed(t *testing.T) {
	for _, s := range models.AllAdminStatuses {
		assert.True(t, IsAllowedTransition(s, s), s)
	}
}

func TestAllowedTargets_ReturnsCopy(t *testing.T) {
	targets := AllowedTargets(models.StatusPending)
	targets[0] = models.StatusPast
	assert.Equal(t, models.StatusRejected, AllowedTargets(models.StatusPending)[0])
}

func TestNormalizeRejectionReasons(t *testing.T) {
	got, err := normalizeRejectionReasons([]string{"fake_profile", "other", "fake_profile"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"fake_profile", "other"}, got)

	_, err = normalizeRejectionReasons(nil)
	assert.ErrorIs(t, err, ErrRejectionReasonRequired)

	_, err = normalizeRejectionReasons([]string{"bad_hair"})
	assert.ErrorIs(t, err, ErrInvalidRejectionReason)

	assert.Len(t, RejectionReasons(), 7)
}
