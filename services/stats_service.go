package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/repositories"
	"golang.org/x/sync/errgroup"
)

const maxUsersPageSize = 100

type StatsService struct {
	rpc          repositories.RPCRepository
	participants repositories.ParticipantRepository
}

func NewStatsService(rpc repositories.RPCRepository, participants repositories.ParticipantRepository) *StatsService {
	return &StatsService{rpc: rpc, participants: participants}
}

// Dashboard fetches every dashboard block concurrently; any failure fails the whole call.
func (s *StatsService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	out := &models.DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	rowsInto := func(fn string, dst *models.RPCRows) {
		g.Go(func() error {
			rows, err := s.rpc.Call(gctx, fn)
			if err != nil {
				return err
			}
			*dst = rows
			return nil
		})
	}
	rowsInto(repositories.RPCDailyVotingStats, &out.DailyVoting)
	rowsInto(repositories.RPCDailyApplicationStats, &out.DailyApplications)
	rowsInto(repositories.RPCDailyRegistrationStats, &out.DailyRegistrations)
	rowsInto(repositories.RPCCardSectionStats, &out.CardSections)
	rowsInto(repositories.RPCEmailDomainStats, &out.EmailDomains)
	rowsInto(repositories.RPCEmailDomainVotingStats, &out.EmailDomainVoting)

	g.Go(func() error {
		n, err := s.rpc.NextWeekApplicationsCount(gctx)
		if err != nil {
			return err
		}
		out.NextWeekApplications = n
		return nil
	})
	g.Go(func() error {
		counts, err := s.participants.CountByStatus(gctx)
		if err != nil {
			return err
		}
		out.StatusCounts = counts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}
	return out, nil
}

func (s *StatsService) Users(ctx context.Context, page, pageSize int) (*models.UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > maxUsersPageSize {
		pageSize = maxUsersPageSize
	}
	rows, err := s.rpc.Call(ctx, repositories.RPCUserAuthDataPaginated,
		repositories.RPCArg{Name: "page_number", Value: page},
		repositories.RPCArg{Name: "page_size", Value: pageSize},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return &models.UserListResponse{Users: rows, Page: page, PageSize: pageSize}, nil
}
