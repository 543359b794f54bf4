package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/weekly-contest/models"
)

type StatsReader interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	Users(ctx context.Context, page, pageSize int) (*models.UserListResponse, error)
}

type StatsHandler struct {
	stats StatsReader
}

func NewStatsHandler(stats StatsReader) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Dashboard(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats, nil)
}

// GET /admin/users?page=1&page_size=50
func (h *StatsHandler) Users(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "page_size", 50)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	users, err := h.stats.Users(r.Context(), page, pageSize)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users, nil)
}
