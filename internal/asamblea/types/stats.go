package types

import "github.com/shopspring/decimal"

type HourlyCounts struct {
	Counts map[string]int `json:"counts"`
}

type QuorumStats struct {
	TotalRecords       int             `json:"total_records"`
	PresentRecords     int             `json:"present_records"`
	TotalCoefficient   decimal.Decimal `json:"total_coefficient"`
	PresentCoefficient decimal.Decimal `json:"present_coefficient"`
	QuorumPercent      decimal.Decimal `json:"quorum_percent"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
