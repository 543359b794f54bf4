package main

import (
	"slices"

	"github.com/Dosada05/weekly-contest/models"
)

// sortedStatuses lists every status present in any of the maps, in lifecycle order.
func sortedStatuses(counts ...map[models.AdminStatus]int) []models.AdminStatus {
	out := make([]models.AdminStatus, 0, len(models.AllAdminStatuses))
	for _, st := range models.AllAdminStatuses {
		for _, c := range counts {
			if _, ok := c[st]; ok {
				out = append(out, st)
				break
			}
		}
	}
	for _, c := range counts {
		for st := range c {
			if !slices.Contains(out, st) {
				out = append(out, st)
			}
		}
	}
	return out
}
