package reports

import (
	"fmt"
	"io"

	"bitbucket.org/mmdatafocus/fieldops_backend/models"
	"bitbucket.org/mmdatafocus/fieldops_backend/utils"
	"github.com/xuri/excelize/v2"
)

// Column headers match the spreadsheet the report replaces, so downstream
// consumers of the export keep working.
var reportHeaders = []string{
	"id", "created_at", "submission_date", "Role", "agent_name",
	"team_member_name", "region", "Cluster", "Momo Number",
	"agent_msisdn", "transaction_id", "Category", "Team Member MSISDN",
}

// WriteSubmissionReportExcel renders the report rows as an xlsx workbook.
func WriteSubmissionReportExcel(w io.Writer, rows []*models.Submission) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for i, h := range reportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, h)
	}

	for rowNo, r := range rows {
		values := []interface{}{
			r.ID,
			utils.FormatPortalTime(r.CreatedAt),
			utils.FormatPortalTime(r.SubmissionDate),
			string(r.Role),
			r.AgentName,
			r.TeamMemberName,
			string(r.Region),
			string(r.Cluster),
			r.MomoNumber,
			r.AgentMsisdn,
			r.TransactionId,
			r.Category,
			r.TeamMemberMsisdn,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNo+2)
			if err != nil {
				return err
			}
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}
