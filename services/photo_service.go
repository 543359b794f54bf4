package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Dosada05/weekly-contest/metrics"
	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/realtime"
	"github.com/Dosada05/weekly-contest/repositories"
	"github.com/Dosada05/weekly-contest/storage"
	"github.com/google/uuid"
)

const MaxPhotoSize = 10 << 20

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// PhotoService заменяет фотографии в анкете участника.
type PhotoService struct {
	participants repositories.ParticipantRepository
	uploader     storage.FileUploader
	events       EventPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewPhotoService(
	participants repositories.ParticipantRepository,
	uploader storage.FileUploader,
	events EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *PhotoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PhotoService{participants: participants, uploader: uploader, events: events, metrics: m, logger: logger}
}

func photoObjectKey(participantID uuid.UUID, slot int, ext string) string {
	return fmt.Sprintf("participants/%s/photo%d-%s.%s", participantID, slot, uuid.NewString(), ext)
}

// ReplacePhoto uploads a new image into slot 1 or 2 and removes the previous object
// when it lives in our bucket.
func (s *PhotoService) ReplacePhoto(ctx context.Context, participantID uuid.UUID, slot int, contentType string, size int64, body io.Reader, actor models.Actor) (*models.Participant, error) {
	if s.uploader == nil {
		return nil, ErrStorageUnavailable
	}
	if slot != 1 && slot != 2 {
		return nil, ErrInvalidPhotoSlot
	}
	ext, ok := photoExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPhotoType, contentType)
	}
	if size > MaxPhotoSize {
		return nil, ErrPhotoTooLarge
	}

	p, err := s.participants.GetByID(ctx, participantID, false)
	if err != nil {
		return nil, mapParticipantRepoError(err)
	}

	key := photoObjectKey(participantID, slot, ext)
	uploaded, err := s.uploader.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	oldURL := p.ApplicationData.PhotoSlot(slot)
	data := p.ApplicationData
	data.SetPhotoSlot(slot, uploaded.Location)
	if err := s.participants.UpdateApplicationData(ctx, participantID, data); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to clean up uploaded photo", "key", key, "error", delErr)
		}
		return nil, mapParticipantRepoError(err)
	}
	p.ApplicationData = data

	if oldKey, ours := s.uploader.KeyFromURL(oldURL); ours && oldKey != key {
		if err := s.uploader.Delete(ctx, oldKey); err != nil {
			s.logger.Warn("failed to delete replaced photo", "key", oldKey, "error", err)
		}
	}

	s.metrics.PhotoUploaded()
	s.logger.Info("participant photo replaced", "participant_id", participantID, "slot", slot, "actor", actor.Email)
	if s.events != nil {
		s.events.Publish(realtime.RoomAdmin, realtime.EventParticipantsChanged,
			map[string]string{"participant_id": participantID.String(), "action": "photo"})
	}
	return p, nil
}
