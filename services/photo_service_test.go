package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoService_ReplacePhoto(t *testing.T) {
	p := newParticipant(models.StatusPending, "")
	p.ApplicationData.Photo1URL = "https://cdn.test/participants/old/photo1.jpg"
	p.ApplicationData.Photo2URL = "https://elsewhere.example/photo2.jpg"
	repo := newFakeParticipantRepo(p)
	up := newFakeUploader()
	events := &fakePublisher{}
	svc := NewPhotoService(repo, up, events, nil, discardLogger())
	ctx := context.Background()

	got, err := svc.ReplacePhoto(ctx, p.ID, 1, "image/png", 3, strings.NewReader("png"), testActor)
	require.NoError(t, err)

	newURL := got.ApplicationData.Photo1URL
	assert.True(t, strings.HasPrefix(newURL, "https://cdn.test/participants/"+p.ID.String()+"/photo1-"))
	assert.True(t, strings.HasSuffix(newURL, ".png"))
	assert.Equal(t, newURL, repo.row(p.ID).ApplicationData.Photo1URL)
	assert.Equal(t, []string{"participants/old/photo1.jpg"}, up.deleted)
	assert.Len(t, events.events, 1)

	_, err = svc.ReplacePhoto(ctx, p.ID, 2, "image/jpeg", 3, strings.NewReader("jpg"), testActor)
	require.NoError(t, err)
	assert.Len(t, up.deleted, 1, "foreign URLs are left alone")
}

func TestPhotoService_Validation(t *testing.T) {
	p := newParticipant(models.StatusPending, "")
	svc := NewPhotoService(newFakeParticipantRepo(p), newFakeUploader(), nil, nil, discardLogger())
	ctx := context.Background()

	_, err := svc.ReplacePhoto(ctx, p.ID, 3, "image/png", 1, strings.NewReader("x"), testActor)
	assert.ErrorIs(t, err, ErrInvalidPhotoSlot)

	_, err = svc.ReplacePhoto(ctx, p.ID, 1, "image/gif", 1, strings.NewReader("x"), testActor)
	assert.ErrorIs(t, err, ErrUnsupportedPhotoType)

	_, err = svc.ReplacePhoto(ctx, p.ID, 1, "image/png", MaxPhotoSize+1, strings.NewReader("x"), testActor)
	assert.ErrorIs(t, err, ErrPhotoTooLarge)

	_, err = svc.ReplacePhoto(ctx, uuid.New(), 1, "image/png", 1, strings.NewReader("x"), testActor)
	assert.ErrorIs(t, err, ErrParticipantNotFound)

	noStorage := NewPhotoService(newFakeParticipantRepo(p), nil, nil, nil, nil)
	_, err = noStorage.ReplacePhoto(ctx, p.ID, 1, "image/png", 1, strings.NewReader("x"), testActor)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestPhotoService_UploadFailureKeepsOldPhoto(t *testing.T) {
	p := newParticipant(models.StatusPending, "")
	p.ApplicationData.Photo1URL = "https://cdn.test/participants/old/photo1.jpg"
	repo := newFakeParticipantRepo(p)
	up := newFakeUploader()
	up.failPut = errors.New("bucket not found")
	svc := NewPhotoService(repo, up, nil, nil, discardLogger())

	_, err := svc.ReplacePhoto(context.Background(), p.ID, 1, "image/jpeg", 1, strings.NewReader("x"), testActor)
	assert.ErrorContains(t, err, "bucket not found")
	assert.Equal(t, "https://cdn.test/participants/old/photo1.jpg", repo.row(p.ID).ApplicationData.Photo1URL)
	assert.Empty(t, up.deleted)
}
