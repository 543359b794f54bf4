package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsService_Dashboard(t *testing.T) {
	rpc := newFakeRPC()
	rpc.rows[repositories.RPCDailyVotingStats] = models.RPCRows{json.RawMessage(`{"day":"2025-10-14","votes":12}`)}
	rpc.rows[repositories.RPCEmailDomainStats] = models.RPCRows{json.RawMessage(`{"domain":"gmail.com","count":40}`)}
	rpc.nextWeekCount = 9
	repo := newFakeParticipantRepo(newParticipant(models.StatusPending, ""), newParticipant(models.StatusPending, ""))

	stats, err := NewStatsService(rpc, repo).Dashboard(context.Background())
	require.NoError(t, err)

	assert.Len(t, stats.DailyVoting, 1)
	assert.Len(t, stats.EmailDomains, 1)
	assert.NotNil(t, stats.DailyApplications)
	assert.Equal(t, 9, stats.NextWeekApplications)
	assert.Equal(t, 2, stats.StatusCounts[models.StatusPending])
	assert.ElementsMatch(t, []string{
		repositories.RPCDailyVotingStats,
		repositories.RPCDailyApplicationStats,
		repositories.RPCDailyRegistrationStats,
		repositories.RPCCardSectionStats,
		repositories.RPCEmailDomainStats,
		repositories.RPCEmailDomainVotingStats,
		repositories.RPCNextWeekApplicationsCount,
	}, rpc.calls)
}

func TestStatsService_DashboardFailsWhenAnyBlockFails(t *testing.T) {
	rpc := newFakeRPC()
	rpc.errs[repositories.RPCCardSectionStats] = errors.New("function does not exist")

	_, err := NewStatsService(rpc, newFakeParticipantRepo()).Dashboard(context.Background())
	assert.ErrorContains(t, err, "function does not exist")
}

func TestStatsService_UsersClampsPaging(t *testing.T) {
	rpc := newFakeRPC()
	svc := NewStatsService(rpc, newFakeParticipantRepo())

	res, err := svc.Users(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, maxUsersPageSize, res.PageSize)

	args := rpc.lastArgs[repositories.RPCUserAuthDataPaginated]
	require.Len(t, args, 2)
	assert.Equal(t, "page_number", args[0].Name)
	assert.Equal(t, 1, args[0].Value)
	assert.Equal(t, maxUsersPageSize, args[1].Value)
}
