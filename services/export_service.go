package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/repositories"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Participants"

var exportHeader = []interface{}{
	"ID", "User ID", "Status", "Week", "First name", "Last name", "Age", "City", "Country",
	"Photo 1", "Photo 2", "Final rank", "Average rating", "Total votes",
	"Rejection reasons", "Rejection note", "Reviewed at", "Created at", "Deleted at",
}

// ExportService выгружает вкладку админ-панели в XLSX.
type ExportService struct {
	participants repositories.ParticipantRepository
	location     *time.Location
}

// NewExportService formats timestamps in loc; week math elsewhere stays UTC.
func NewExportService(participants repositories.ParticipantRepository, loc *time.Location) *ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ExportService{participants: participants, location: loc}
}

// ExportTab writes every participant of the tab (ignoring paging) as an XLSX workbook.
func (s *ExportService) ExportTab(ctx context.Context, q TabQuery, w io.Writer) (int, error) {
	if _, err := ParseTab(string(q.Tab)); err != nil {
		return 0, err
	}

	all := make([]*models.Participant, 0)
	q.PageSize = MaxPageSize
	for page := 1; ; page++ {
		q.Page = page
		items, total, err := s.participants.List(ctx, q.RepositoryFilter())
		if err != nil {
			return 0, fmt.Errorf("failed to load tab %s for export: %w", q.Tab, err)
		}
		all = append(all, items...)
		if len(items) < MaxPageSize || len(all) >= total {
			break
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return 0, fmt.Errorf("failed to prepare sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	for i, p := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		row := s.exportRow(p)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return 0, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(exportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return 0, fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}
	return len(all), nil
}

func (s *ExportService) exportRow(p *models.Participant) []interface{} {
	a := p.ApplicationData
	return []interface{}{
		p.ID.String(),
		p.UserID.String(),
		string(p.AdminStatus),
		p.WeekInterval,
		a.FirstName,
		a.LastName,
		optional(a.Age),
		a.City,
		a.Country,
		a.Photo1URL,
		a.Photo2URL,
		optional(p.FinalRank),
		optional(p.AverageRating),
		optional(p.TotalVotes),
		strings.Join(p.RejectionReasonTypes, ", "),
		derefString(p.RejectionReason),
		s.formatTime(p.ReviewedAt),
		s.formatTime(&p.CreatedAt),
		s.formatTime(p.DeletedAt),
	}
}

func (s *ExportService) formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(s.location).Format("2006-01-02 15:04")
}

func optional[T any](v *T) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
