package models

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/fieldops_backend/config"
	"bitbucket.org/mmdatafocus/fieldops_backend/utils"
)

// MemberStats are the dashboard counters: how many rows of each kind the
// member logged inside the date window.
type MemberStats struct {
	RgmCount     int64 `json:"rgmCount"`
	MauCount     int64 `json:"mauCount"`
	OnboardCount int64 `json:"onboardCount"`
	CcCount      int64 `json:"ccCount"`
}

// GetMemberStats counts rows owned by identifier whose creation timestamp
// falls within [start, end] inclusive. Four independent scans; the tables
// are small enough that this stays cheap.
func GetMemberStats(ctx context.Context, identifier string, startDate, endDate string) (*MemberStats, error) {
	if err := utils.ValidateMsisdn("identifier", identifier); err != nil {
		return nil, err
	}
	start, ok := utils.ParsePortalTime(startDate)
	if !ok {
		return nil, fmt.Errorf("%w: startDate is not a valid date", utils.ErrorValidation)
	}
	end, ok := utils.ParsePortalTime(endDate)
	if !ok {
		return nil, fmt.Errorf("%w: endDate is not a valid date", utils.ErrorValidation)
	}

	stats := &MemberStats{}
	counts := []struct {
		table    string
		ownerCol string
		dest     *int64
	}{
		{"rgm_submissions", "team_member_msisdn", &stats.RgmCount},
		{"mau_submission", "team_member_msisdn", &stats.MauCount},
		{"onboards", "submitter_msisdn", &stats.OnboardCount},
		{"onboard_cc", "submitter_msisdn", &stats.CcCount},
	}

	db := config.GetDB()
	for _, c := range counts {
		err := db.WithContext(ctx).Table(c.table).
			Where(c.ownerCol+" = ?", identifier).
			Where("created_at BETWEEN ? AND ?", start, end).
			Count(c.dest).Error
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}
