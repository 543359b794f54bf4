package services

import (
	"bytes"
	"slices"
	"strings"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/repositories"
)

// Tab — вкладка админ-панели со своим набором фильтров.
type Tab string

const (
	TabNewApplications Tab = "new_applications"
	TabPreNextWeek     Tab = "pre_next_week"
	TabNextWeek        Tab = "next_week"
	TabThisWeek        Tab = "this_week"
	TabPast            Tab = "past"
	TabRejected        Tab = "rejected"
	TabAll             Tab = "all"
	TabDeleted         Tab = "deleted"
)

var AllTabs = []Tab{
	TabNewApplications, TabPreNextWeek, TabNextWeek, TabThisWeek, TabPast, TabRejected, TabAll, TabDeleted,
}

var tabStatuses = map[Tab][]models.AdminStatus{
	TabNewApplications: {models.StatusPending},
	TabPreNextWeek:     {models.StatusPreNextWeek},
	TabNextWeek:        {models.StatusNextWeek},
	TabThisWeek:        {models.StatusThisWeek},
	TabPast:            {models.StatusPast},
	TabRejected:        {models.StatusRejected},
	TabAll:             nil,
	TabDeleted:         nil,
}

func ParseTab(s string) (Tab, error) {
	t := Tab(strings.TrimSpace(s))
	if _, ok := tabStatuses[t]; !ok {
		return "", ErrInvalidTab
	}
	return t, nil
}

// Statuses returns the statuses shown on the tab; nil means any status.
func (t Tab) Statuses() []models.AdminStatus {
	return tabStatuses[t]
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// TabQuery is the filter and page state of one tab. Each request carries its own.
type TabQuery struct {
	Tab          Tab
	Country      string
	WeekInterval string
	Page         int
	PageSize     int
}

func (q TabQuery) normalized() TabQuery {
	q.Country = strings.TrimSpace(q.Country)
	q.WeekInterval = strings.TrimSpace(q.WeekInterval)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

// RepositoryFilter translates the query into the SQL filter with the same semantics
// as the in-memory predicates.
func (q TabQuery) RepositoryFilter() repositories.ParticipantFilter {
	q = q.normalized()
	return repositories.ParticipantFilter{
		Statuses:     q.Tab.Statuses(),
		Country:      q.Country,
		WeekInterval: q.WeekInterval,
		OnlyDeleted:  q.Tab == TabDeleted,
		Limit:        q.PageSize,
		Offset:       (q.Page - 1) * q.PageSize,
	}
}

// Predicates returns the in-memory equivalent of RepositoryFilter without paging.
func (q TabQuery) Predicates() []ParticipantPredicate {
	q = q.normalized()
	preds := make([]ParticipantPredicate, 0, 4)
	if q.Tab == TabDeleted {
		preds = append(preds, OnlyDeleted())
	} else {
		preds = append(preds, NotDeleted())
	}
	if st := q.Tab.Statuses(); len(st) > 0 {
		preds = append(preds, ByStatus(st...))
	}
	if q.Country != "" {
		preds = append(preds, ByCountry(q.Country))
	}
	if q.WeekInterval != "" {
		preds = append(preds, ByWeekInterval(q.WeekInterval))
	}
	return preds
}

type ParticipantPredicate func(p *models.Participant) bool

func ByStatus(statuses ...models.AdminStatus) ParticipantPredicate {
	return func(p *models.Participant) bool {
		return slices.Contains(statuses, p.AdminStatus)
	}
}

// ByCountry matches case-insensitively; an empty country matches everyone.
func ByCountry(country string) ParticipantPredicate {
	country = strings.TrimSpace(country)
	return func(p *models.Participant) bool {
		if country == "" {
			return true
		}
		return strings.EqualFold(strings.TrimSpace(p.ApplicationData.Country), country)
	}
}

func ByWeekInterval(interval string) ParticipantPredicate {
	return func(p *models.Participant) bool {
		return interval == "" || p.WeekInterval == interval
	}
}

func NotDeleted() ParticipantPredicate {
	return func(p *models.Participant) bool { return !p.IsDeleted() }
}

func OnlyDeleted() ParticipantPredicate {
	return func(p *models.Participant) bool { return p.IsDeleted() }
}

// FilterParticipants keeps participants matching every predicate, in input order.
func FilterParticipants(ps []*models.Participant, preds ...ParticipantPredicate) []*models.Participant {
	out := make([]*models.Participant, 0, len(ps))
next:
	for _, p := range ps {
		if p == nil {
			continue
		}
		for _, pred := range preds {
			if !pred(p) {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}

// SortParticipants orders ps in place: final_rank asc (unranked last), average_rating
// desc, total_votes desc, created_at asc, id asc.
func SortParticipants(ps []*models.Participant) {
	slices.SortFunc(ps, CompareParticipants)
}

func CompareParticipants(a, b *models.Participant) int {
	if c := compareNilLast(a.FinalRank, b.FinalRank, func(x, y int) int { return x - y }); c != 0 {
		return c
	}
	if c := compareNilLast(a.AverageRating, b.AverageRating, func(x, y float64) int {
		switch {
		case x > y:
			return -1
		case x < y:
			return 1
		}
		return 0
	}); c != 0 {
		return c
	}
	if c := compareNilLast(a.TotalVotes, b.TotalVotes, func(x, y int) int { return y - x }); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

func compareNilLast[T any](a, b *T, cmp func(x, y T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp(*a, *b)
}

// Paginate returns the requested page of ps; page is 1-based.
func Paginate(ps []*models.Participant, page, pageSize int) []*models.Participant {
	q := TabQuery{Page: page, PageSize: pageSize}.normalized()
	start := (q.Page - 1) * q.PageSize
	if start >= len(ps) {
		return []*models.Participant{}
	}
	end := start + q.PageSize
	if end > len(ps) {
		end = len(ps)
	}
	return ps[start:end]
}
