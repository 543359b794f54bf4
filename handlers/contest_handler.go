package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/services"
	"github.com/google/uuid"
)

type ContestReader interface {
	Weeks(ctx context.Context, country string) (*services.ContestWeeks, error)
	RatingStats(ctx context.Context, participantID uuid.UUID) (models.RPCRows, error)
	Photos(ctx context.Context, userIDs []uuid.UUID) (models.RPCRows, error)
}

type Voter interface {
	Rate(ctx context.Context, actor models.Actor, participantID uuid.UUID, rating int) (*models.Rating, error)
	VoteNextWeek(ctx context.Context, actor models.Actor, participantID uuid.UUID, vote models.VoteType) (*models.NextWeekVote, error)
}

// ContestHandler обслуживает публичную страницу конкурса и голосование.
type ContestHandler struct {
	contest ContestReader
	voting  Voter
}

func NewContestHandler(contest ContestReader, voting Voter) *ContestHandler {
	return &ContestHandler{contest: contest, voting: voting}
}

// GET /contest/weeks?country=PH
func (h *ContestHandler) Weeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.contest.Weeks(r.Context(), r.URL.Query().Get("country"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weeks, nil)
}

func (h *ContestHandler) RatingStats(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	rows, err := h.contest.RatingStats(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"stats": rows}, nil)
}

type photosInput struct {
	ParticipantUserIDs []uuid.UUID `json:"participant_user_ids"`
}

// POST /contest/participants/photos
func (h *ContestHandler) Photos(w http.ResponseWriter, r *http.Request) {
	var input photosInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	rows, err := h.contest.Photos(r.Context(), input.ParticipantUserIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"photos": rows}, nil)
}

type rateInput struct {
	Rating int `json:"rating"`
}

// PUT /contest/participants/{participantID}/rating
func (h *ContestHandler) Rate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input rateInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	rating, err := h.voting.Rate(r.Context(), actor, id, input.Rating)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rating, nil)
}

type nextWeekVoteInput struct {
	Vote models.VoteType `json:"vote"`
}

// PUT /contest/participants/{participantID}/next-week-vote
func (h *ContestHandler) VoteNextWeek(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input nextWeekVoteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	vote, err := h.voting.VoteNextWeek(r.Context(), actor, id, input.Vote)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vote, nil)
}
