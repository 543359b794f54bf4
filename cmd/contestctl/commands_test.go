package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(nil)
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"contestctl"}, args...))
	return out.String(), err
}

func TestWeekCommand(t *testing.T) {
	out, err := runApp(t, "week", "--date", "2025-10-15")
	require.NoError(t, err)
	assert.Equal(t, "13/10-19/10/25\t2025-10-13T00:00:00Z\t2025-10-19T23:59:59.999Z\n", out)

	out, err = runApp(t, "week", "--date", "2025-10-15", "--offset", "-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "06/10-12/10/25\t"))
}

func TestWeekCommand_BadDate(t *testing.T) {
	_, err := runApp(t, "week", "--date", "15.10.2025")
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}

func TestTransitionCommand_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := runApp(t, "transition", "--dry-run")
	assert.Error(t, err)
}

func TestDBSchemaCommand(t *testing.T) {
	out, err := runApp(t, "db", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS weekly_contest_participants")
}

func TestSortedStatuses(t *testing.T) {
	before := map[models.AdminStatus]int{models.StatusThisWeek: 3, models.StatusNextWeek: 5}
	after := map[models.AdminStatus]int{models.StatusPast: 3, models.StatusThisWeek: 5}
	assert.Equal(t,
		[]models.AdminStatus{models.StatusNextWeek, models.StatusThisWeek, models.StatusPast},
		sortedStatuses(before, after))
}
