package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportService_ExportTab(t *testing.T) {
	rejected := newParticipant(models.StatusRejected, "13/10-19/10/25")
	rejected.RejectionReasonTypes = []string{"low_quality_photo", "other"}
	note := "blurry"
	rejected.RejectionReason = &note
	reviewed := time.Date(2025, 10, 15, 22, 30, 0, 0, time.UTC)
	rejected.ReviewedAt = &reviewed
	other := newParticipant(models.StatusPending, "")
	repo := newFakeParticipantRepo(rejected, other)

	manila, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		manila = time.FixedZone("PHT", 8*3600)
	}
	svc := NewExportService(repo, manila)

	var buf bytes.Buffer
	n, err := svc.ExportTab(context.Background(), TabQuery{Tab: TabRejected}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, rejected.ID.String(), rows[1][0])
	assert.Equal(t, "rejected", rows[1][2])
	assert.Equal(t, "low_quality_photo, other", rows[1][14])
	assert.Equal(t, "blurry", rows[1][15])
	assert.Equal(t, "2025-10-16 06:30", rows[1][16], "timestamps use the display zone")
}

func TestExportService_InvalidTab(t *testing.T) {
	svc := NewExportService(newFakeParticipantRepo(), nil)
	_, err := svc.ExportTab(context.Background(), TabQuery{Tab: "nope"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrInvalidTab)
}
