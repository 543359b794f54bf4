package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/services"
)

type WeeklyTransitioner interface {
	CurrentMonday(ctx context.Context) (time.Time, error)
	Preview(ctx context.Context) (map[models.AdminStatus]int, error)
	Run(ctx context.Context, targetWeekStart time.Time, dryRun bool) (*models.TransitionResult, error)
}

type TransitionHandler struct {
	transitions WeeklyTransitioner
}

func NewTransitionHandler(transitions WeeklyTransitioner) *TransitionHandler {
	return &TransitionHandler{transitions: transitions}
}

// GET /admin/transition/monday
func (h *TransitionHandler) CurrentMonday(w http.ResponseWriter, r *http.Request) {
	monday, err := h.transitions.CurrentMonday(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"monday": monday.Format("2006-01-02")}, nil)
}

// GET /admin/transition/preview
func (h *TransitionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	counts, err := h.transitions.Preview(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"counts": counts}, nil)
}

type transitionInput struct {
	TargetWeekStart string `json:"target_week_start"`
	// Обязателен: пустое тело не должно запускать живой перенос.
	DryRun *bool `json:"dry_run"`
}

// POST /admin/transition {"target_week_start": "2025-10-13", "dry_run": true}
func (h *TransitionHandler) Run(w http.ResponseWriter, r *http.Request) {
	var input transitionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.DryRun == nil {
		mapServiceErrorToHTTP(w, r, fmt.Errorf("%w: dry_run is required", services.ErrValidationFailed))
		return
	}

	var target time.Time
	if input.TargetWeekStart != "" {
		t, err := time.Parse("2006-01-02", input.TargetWeekStart)
		if err != nil {
			mapServiceErrorToHTTP(w, r, fmt.Errorf("%w: target_week_start must be YYYY-MM-DD", services.ErrValidationFailed))
			return
		}
		target = t
	}

	res, err := h.transitions.Run(r.Context(), target, *input.DryRun)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res, nil)
}
