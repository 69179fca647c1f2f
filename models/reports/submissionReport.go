package reports

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/fieldops_backend/config"
	"bitbucket.org/mmdatafocus/fieldops_backend/models"
	"bitbucket.org/mmdatafocus/fieldops_backend/utils"
)

// GetSubmissionReport returns every submission of one type created inside
// [start, end], across all owners. This is the one read that crosses the
// owner boundary; the handler gates it behind the Admin role and the caller
// must have set the owner-scope bypass flag on ctx.
func GetSubmissionReport(ctx context.Context, sType models.SubmissionType, startDate, endDate string) ([]*models.Submission, error) {
	table, ok := models.SubmissionTable(sType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown submission type %q", utils.ErrorValidation, sType)
	}
	start, okStart := utils.ParsePortalTime(startDate)
	if !okStart {
		return nil, fmt.Errorf("%w: startDate is not a valid date", utils.ErrorValidation)
	}
	end, okEnd := utils.ParsePortalTime(endDate)
	if !okEnd {
		return nil, fmt.Errorf("%w: endDate is not a valid date", utils.ErrorValidation)
	}

	db := config.GetDB()
	var rows []*models.Submission
	err := db.WithContext(ctx).Table(table).
		Where("created_at BETWEEN ? AND ?", start, end).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
