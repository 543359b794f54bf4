package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ParticipantAdmin is the moderation surface used by the admin panel.
type ParticipantAdmin interface {
	ListTab(ctx context.Context, q services.TabQuery) (*services.ParticipantPage, error)
	Get(ctx context.Context, id uuid.UUID) (*services.ParticipantDetails, error)
	ChangeStatus(ctx context.Context, req services.StatusUpdateRequest) (*models.Participant, error)
	Reject(ctx context.Context, id uuid.UUID, actor models.Actor, reasonTypes []string, note string) (*models.Participant, error)
	Approve(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Participant, error)
	Delete(ctx context.Context, id uuid.UUID, actor models.Actor) error
	Restore(ctx context.Context, id uuid.UUID, actor models.Actor) error
	Weekly(ctx context.Context, q services.WeeklyQuery) (*services.WeeklyPage, error)
	Votes(ctx context.Context, id uuid.UUID) (*models.ParticipantVotes, error)
}

type PhotoReplacer interface {
	ReplacePhoto(ctx context.Context, participantID uuid.UUID, slot int, contentType string, size int64, body io.Reader, actor models.Actor) (*models.Participant, error)
}

type TabExporter interface {
	ExportTab(ctx context.Context, q services.TabQuery, w io.Writer) (int, error)
}

type ParticipantHandler struct {
	participants ParticipantAdmin
	photos       PhotoReplacer
	exports      TabExporter
	logger       *slog.Logger
}

func NewParticipantHandler(participants ParticipantAdmin, photos PhotoReplacer, exports TabExporter, logger *slog.Logger) *ParticipantHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParticipantHandler{participants: participants, photos: photos, exports: exports, logger: logger}
}

func tabQueryFromRequest(r *http.Request) (services.TabQuery, error) {
	q := r.URL.Query()
	rawTab := q.Get("tab")
	if rawTab == "" {
		rawTab = string(services.TabNewApplications)
	}
	tab, err := services.ParseTab(rawTab)
	if err != nil {
		return services.TabQuery{}, err
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		return services.TabQuery{}, fmt.Errorf("%w: %v", services.ErrValidationFailed, err)
	}
	pageSize, err := queryInt(r, "page_size", services.DefaultPageSize)
	if err != nil {
		return services.TabQuery{}, fmt.Errorf("%w: %v", services.ErrValidationFailed, err)
	}
	return services.TabQuery{
		Tab:          tab,
		Country:      q.Get("country"),
		WeekInterval: q.Get("week_interval"),
		Page:         page,
		PageSize:     pageSize,
	}, nil
}

// GET /admin/participants?tab=...&country=...&week_interval=...&page=...&page_size=...
func (h *ParticipantHandler) ListTab(w http.ResponseWriter, r *http.Request) {
	q, err := tabQueryFromRequest(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	page, err := h.participants.ListTab(r.Context(), q)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page, nil)
}

func (h *ParticipantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	details, err := h.participants.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details, nil)
}

type statusUpdateInput struct {
	Status               models.AdminStatus `json:"status"`
	DisplayName          string             `json:"display_name"`
	RejectionReason      *string            `json:"rejection_reason"`
	RejectionReasonTypes []string           `json:"rejection_reason_types"`
	WeekInterval         *string            `json:"week_interval"`
}

type statusUpdateResponse struct {
	Success     bool                `json:"success"`
	Error       string              `json:"error,omitempty"`
	Participant *models.Participant `json:"participant,omitempty"`
}

// UpdateStatus answers {success, error} so the panel can show the message inline.
// POST /admin/participants/{participantID}/status
func (h *ParticipantHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "participantID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, statusUpdateResponse{Error: err.Error()}, nil)
		return
	}
	var input statusUpdateInput
	if err := readJSON(w, r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, statusUpdateResponse{Error: err.Error()}, nil)
		return
	}

	p, err := h.participants.ChangeStatus(r.Context(), services.StatusUpdateRequest{
		ParticipantID:        id,
		Status:               input.Status,
		DisplayName:          input.DisplayName,
		Actor:                actor,
		RejectionReason:      input.RejectionReason,
		RejectionReasonTypes: input.RejectionReasonTypes,
		WeekInterval:         input.WeekInterval,
	})
	if err != nil {
		status := statusForServiceError(err)
		message := err.Error()
		if status == http.StatusInternalServerError {
			h.logger.Error("status update failed", "participant_id", id, "target", input.Status, "error", err)
			message = "failed to update participant status"
		}
		writeJSON(w, status, statusUpdateResponse{Error: message}, nil)
		return
	}
	writeJSON(w, http.StatusOK, statusUpdateResponse{Success: true, Participant: p}, nil)
}

type rejectInput struct {
	ReasonTypes []string `json:"reason_types"`
	Note        string   `json:"note"`
}

func (h *ParticipantHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input rejectInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	p, err := h.participants.Reject(r.Context(), id, actor, input.ReasonTypes, input.Note)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p, nil)
}

func (h *ParticipantHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	p, err := h.participants.Approve(r.Context(), id, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p, nil)
}

func (h *ParticipantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.participants.Delete(r.Context(), id, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ParticipantHandler) Restore(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.participants.Restore(r.Context(), id, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ParticipantHandler) RejectionReasons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, jsonResponse{"reasons": services.RejectionReasons()}, nil)
}

// GET /admin/participants/weekly?offset=-1&country=PH
// GET /admin/participants/weekly?offset=-1 or ?week=06/10-12/10/25
func (h *ParticipantHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	q := services.WeeklyQuery{
		Week:    r.URL.Query().Get("week"),
		Country: r.URL.Query().Get("country"),
	}
	var err error
	if q.Offset, err = queryInt(r, "offset", 0); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if q.Page, err = queryInt(r, "page", 1); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if q.PageSize, err = queryInt(r, "page_size", services.DefaultPageSize); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	page, err := h.participants.Weekly(r.Context(), q)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page, nil)
}

func (h *ParticipantHandler) Votes(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	votes, err := h.participants.Votes(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, votes, nil)
}

// POST /admin/participants/{participantID}/photos/{slot}, multipart field "photo".
func (h *ParticipantHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrInvalidPhotoSlot)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(services.MaxPhotoSize); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			mapServiceErrorToHTTP(w, r, services.ErrPhotoTooLarge)
			return
		}
		badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequestResponse(w, r, errors.New("multipart field \"photo\" is required"))
		return
	}
	defer file.Close()

	// Content-Type из формы не проверяем: тип определяется по первым байтам.
	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		badRequestResponse(w, r, fmt.Errorf("failed to read photo: %w", err))
		return
	}
	sniff = sniff[:n]
	contentType := http.DetectContentType(sniff)
	body := io.MultiReader(bytes.NewReader(sniff), file)

	p, err := h.photos.ReplacePhoto(r.Context(), id, slot, contentType, header.Size, body, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p, nil)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /admin/participants/export?tab=...
func (h *ParticipantHandler) Export(w http.ResponseWriter, r *http.Request) {
	q, err := tabQueryFromRequest(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// Книга собирается в буфер, чтобы ошибка не приходила после заголовков.
	var buf bytes.Buffer
	n, err := h.exports.ExportTab(r.Context(), q, &buf)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	filename := fmt.Sprintf("participants-%s-%s.xlsx", q.Tab, time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Total-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to stream export", "tab", q.Tab, "error", err)
	}
}
