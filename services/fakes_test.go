package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/repositories"
	"github.com/Dosada05/weekly-contest/storage"
	"github.com/google/uuid"
)

// --- participants ---

type fakeParticipantRepo struct {
	mu          sync.Mutex
	rows        map[uuid.UUID]*models.Participant
	events      []models.StatusEvent
	lastFilter  repositories.ParticipantFilter
	beforeApply func(p *models.Participant)
	getErr      error
}

func newFakeParticipantRepo(ps ...*models.Participant) *fakeParticipantRepo {
	r := &fakeParticipantRepo{rows: make(map[uuid.UUID]*models.Participant)}
	for _, p := range ps {
		r.rows[p.ID] = p
	}
	return r
}

func cloneParticipant(p *models.Participant) *models.Participant {
	c := *p
	c.StatusHistory = make(models.StatusHistory, len(p.StatusHistory))
	for k, v := range p.StatusHistory {
		c.StatusHistory[k] = v
	}
	c.RejectionReasonTypes = append([]string(nil), p.RejectionReasonTypes...)
	return &c
}

func (r *fakeParticipantRepo) GetByID(_ context.Context, id uuid.UUID, includeDeleted bool) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	p, ok := r.rows[id]
	if !ok || (!includeDeleted && p.IsDeleted()) {
		return nil, repositories.ErrParticipantNotFound
	}
	return cloneParticipant(p), nil
}

func (r *fakeParticipantRepo) List(_ context.Context, f repositories.ParticipantFilter) ([]*models.Participant, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = f

	preds := []ParticipantPredicate{NotDeleted()}
	if f.OnlyDeleted {
		preds = []ParticipantPredicate{OnlyDeleted()}
	}
	if len(f.Statuses) > 0 {
		preds = append(preds, ByStatus(f.Statuses...))
	}
	preds = append(preds, ByCountry(f.Country), ByWeekInterval(f.WeekInterval))

	all := make([]*models.Participant, 0, len(r.rows))
	for _, p := range r.rows {
		all = append(all, cloneParticipant(p))
	}
	out := FilterParticipants(all, preds...)
	SortParticipants(out)
	total := len(out)
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			out = out[:0]
		} else {
			out = out[f.Offset:]
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r *fakeParticipantRepo) CountByStatus(_ context.Context) (map[models.AdminStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[models.AdminStatus]int)
	for _, p := range r.rows {
		if !p.IsDeleted() {
			counts[p.AdminStatus]++
		}
	}
	return counts, nil
}

func (r *fakeParticipantRepo) ApplyStatusChange(_ context.Context, _ repositories.SQLExecutor, c repositories.StatusChange) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[c.ParticipantID]
	if !ok || p.IsDeleted() {
		return nil, repositories.ErrParticipantStatusStale
	}
	if r.beforeApply != nil {
		r.beforeApply(p)
	}
	if p.AdminStatus != c.ExpectedStatus {
		return nil, repositories.ErrParticipantStatusStale
	}
	p.AdminStatus = c.NewStatus
	p.WeekInterval = c.WeekInterval
	// как jsonb ||: ключ статуса перезаписывается, остальные остаются
	history := make(models.StatusHistory, len(p.StatusHistory)+1)
	for k, v := range p.StatusHistory {
		history[k] = v
	}
	history[c.NewStatus] = c.Entry
	p.StatusHistory = history
	if c.Review != nil {
		if !c.Review.KeepReviewer {
			at := c.Review.ReviewedAt
			p.ReviewedAt = &at
			p.ReviewedBy = c.Review.ReviewedBy
		}
		p.RejectionReason = c.Review.RejectionReason
		p.RejectionReasonTypes = c.Review.RejectionReasonTypes
	}
	return cloneParticipant(p), nil
}

func (r *fakeParticipantRepo) InsertStatusEvent(_ context.Context, _ repositories.SQLExecutor, e *models.StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = int64(len(r.events) + 1)
	e.CreatedAt = time.Now().UTC()
	r.events = append(r.events, *e)
	return nil
}

func (r *fakeParticipantRepo) ListStatusEvents(_ context.Context, id uuid.UUID) ([]models.StatusEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.StatusEvent, 0)
	for _, e := range r.events {
		if e.ParticipantID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) UpdateApplicationData(_ context.Context, id uuid.UUID, data models.ApplicationData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || p.IsDeleted() {
		return repositories.ErrParticipantNotFound
	}
	p.ApplicationData = data
	return nil
}

func (r *fakeParticipantRepo) SoftDelete(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || p.IsDeleted() {
		return repositories.ErrParticipantNotFound
	}
	p.DeletedAt = &at
	return nil
}

func (r *fakeParticipantRepo) Restore(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || !p.IsDeleted() {
		return repositories.ErrParticipantNotDeleted
	}
	p.DeletedAt = nil
	return nil
}

func (r *fakeParticipantRepo) row(id uuid.UUID) *models.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneParticipant(r.rows[id])
}

// --- tx ---

type fakeTx struct{ calls int }

func (t *fakeTx) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	t.calls++
	return fn(nil)
}

// --- rpc ---

type fakeRPC struct {
	mu            sync.Mutex
	rows          map[string]models.RPCRows
	errs          map[string]error
	calls         []string
	weekly        []*models.Participant
	monday        time.Time
	transition    json.RawMessage
	transitionErr error
	nextWeekCount int
	lastArgs      map[string][]repositories.RPCArg
	lastTarget    time.Time
	lastDryRun    bool
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{
		rows:     make(map[string]models.RPCRows),
		errs:     make(map[string]error),
		lastArgs: make(map[string][]repositories.RPCArg),
	}
}

func (f *fakeRPC) record(fn string, args ...repositories.RPCArg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fn)
	f.lastArgs[fn] = args
	return f.errs[fn]
}

func (f *fakeRPC) Call(_ context.Context, fn string, args ...repositories.RPCArg) (models.RPCRows, error) {
	if err := f.record(fn, args...); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.rows[fn]
	if !ok {
		return models.RPCRows{}, nil
	}
	return rows, nil
}

func (f *fakeRPC) WeeklyParticipantsAdmin(_ context.Context, weeksOffset int) ([]*models.Participant, error) {
	if err := f.record(repositories.RPCWeeklyParticipantsAdmin, repositories.RPCArg{Name: "weeks_offset", Value: weeksOffset}); err != nil {
		return nil, err
	}
	return f.weekly, nil
}

func (f *fakeRPC) CurrentMondayUTC(_ context.Context) (time.Time, error) {
	if err := f.record(repositories.RPCCurrentMondayUTC); err != nil {
		return time.Time{}, err
	}
	return f.monday, nil
}

func (f *fakeRPC) TransitionWeeklyContest(_ context.Context, target time.Time, dryRun bool) (json.RawMessage, error) {
	_ = f.record(repositories.RPCTransitionWeeklyContest)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTarget = target
	f.lastDryRun = dryRun
	if f.transitionErr != nil {
		return nil, f.transitionErr
	}
	return f.transition, nil
}

func (f *fakeRPC) NextWeekApplicationsCount(_ context.Context) (int, error) {
	if err := f.record(repositories.RPCNextWeekApplicationsCount); err != nil {
		return 0, err
	}
	return f.nextWeekCount, nil
}

func (f *fakeRPC) PublicRatingStats(ctx context.Context, id uuid.UUID) (models.RPCRows, error) {
	return f.Call(ctx, repositories.RPCPublicRatingStats, repositories.RPCArg{Name: "target_participant_id", Value: id})
}

func (f *fakeRPC) PublicParticipantPhotos(ctx context.Context, ids []uuid.UUID) (models.RPCRows, error) {
	return f.Call(ctx, repositories.RPCPublicParticipantPhotos, repositories.RPCArg{Name: "participant_user_ids", Value: ids})
}

// --- votes ---

type fakeVoteRepo struct {
	ratings  []models.Rating
	likes    []models.Like
	nextWeek []models.NextWeekVote
	err      error
}

func (f *fakeVoteRepo) UpsertRating(_ context.Context, r *models.Rating) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.ratings {
		if f.ratings[i].UserID == r.UserID && f.ratings[i].ParticipantID == r.ParticipantID {
			f.ratings[i].Rating = r.Rating
			*r = f.ratings[i]
			return nil
		}
	}
	r.ID = uuid.New()
	f.ratings = append(f.ratings, *r)
	return nil
}

func (f *fakeVoteRepo) UpsertNextWeekVote(_ context.Context, v *models.NextWeekVote) error {
	if f.err != nil {
		return f.err
	}
	v.ID = uuid.New()
	f.nextWeek = append(f.nextWeek, *v)
	return nil
}

func (f *fakeVoteRepo) ListRatings(_ context.Context, id uuid.UUID) ([]models.Rating, error) {
	out := []models.Rating{}
	for _, r := range f.ratings {
		if r.ParticipantID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeVoteRepo) ListLikes(_ context.Context, id uuid.UUID) ([]models.Like, error) {
	out := []models.Like{}
	for _, l := range f.likes {
		if l.ParticipantID == id {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeVoteRepo) ListNextWeekVotes(_ context.Context, id uuid.UUID) ([]models.NextWeekVote, error) {
	out := []models.NextWeekVote{}
	for _, v := range f.nextWeek {
		if v.ParticipantID == id {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- realtime ---

type publishedEvent struct {
	Room, Type string
	Payload    interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(room, eventType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Room: room, Type: eventType, Payload: payload})
}

func (f *fakePublisher) rooms() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Room)
	}
	return out
}

// --- storage ---

type fakeUploader struct {
	base     string
	objects  map[string][]byte
	deleted  []string
	failPut  error
	failDrop error
}

var _ storage.FileUploader = (*fakeUploader)(nil)

func newFakeUploader() *fakeUploader {
	return &fakeUploader{base: "https://cdn.test", objects: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, r io.Reader) (*storage.UploadResult, error) {
	if u.failPut != nil {
		return nil, u.failPut
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.objects[key] = b
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	if u.failDrop != nil {
		return u.failDrop
	}
	u.deleted = append(u.deleted, key)
	delete(u.objects, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return fmt.Sprintf("%s/%s", u.base, key)
}

func (u *fakeUploader) KeyFromURL(raw string) (string, bool) {
	if !strings.HasPrefix(raw, u.base+"/") {
		return "", false
	}
	return strings.TrimPrefix(raw, u.base+"/"), true
}

// --- locks ---

type failingLocks struct{}

func (failingLocks) Acquire(context.Context, string, string, time.Duration) (bool, error) {
	return false, fmt.Errorf("dial tcp: connection refused")
}

func (failingLocks) Release(context.Context, string, string) (bool, error) {
	return false, fmt.Errorf("dial tcp: connection refused")
}

// --- builders ---

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func newParticipant(status models.AdminStatus, interval string) *models.Participant {
	return &models.Participant{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		AdminStatus:   status,
		WeekInterval:  interval,
		StatusHistory: models.StatusHistory{},
		ApplicationData: models.ApplicationData{
			FirstName: "Maria",
			LastName:  "Santos",
			Country:   "PH",
		},
		CreatedAt: time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC),
	}
}
