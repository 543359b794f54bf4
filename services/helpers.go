package services

import (
	"fmt"

	"github.com/Dosada05/weekly-contest/weeks"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func validateWeekInterval(label string) error {
	if _, err := weeks.ParseLabel(label); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWeekInterval, err)
	}
	return nil
}
