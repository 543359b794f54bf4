package models

import "encoding/json"

// RPCRows is an opaque result set returned by a database function.
type RPCRows []json.RawMessage

// DashboardStats — сводка для админ-панели, каждый блок приходит из отдельной RPC.
type DashboardStats struct {
	DailyVoting          RPCRows             `json:"daily_voting"`
	DailyApplications    RPCRows             `json:"daily_applications"`
	DailyRegistrations   RPCRows             `json:"daily_registrations"`
	CardSections         RPCRows             `json:"card_sections"`
	NextWeekApplications int                 `json:"next_week_applications"`
	EmailDomains         RPCRows             `json:"email_domains"`
	EmailDomainVoting    RPCRows             `json:"email_domain_voting"`
	StatusCounts         map[AdminStatus]int `json:"status_counts"`
}

type UserListResponse struct {
	Users    RPCRows `json:"users"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}
