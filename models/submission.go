package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/fieldops_backend/config"
	"bitbucket.org/mmdatafocus/fieldops_backend/utils"
	"github.com/google/uuid"
)

// Submission is one logged merchant/customer transaction. RGM and MAU
// submissions share this shape and live in separate tables; the column
// order mirrors the spreadsheet-era layout. Rows are immutable once
// created.
type Submission struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	SubmissionDate   time.Time `json:"submission_date"`
	Role             Role      `gorm:"size:20" json:"role"`
	AgentName        string    `gorm:"size:100" json:"agent_name"`
	TeamMemberName   string    `gorm:"size:100" json:"team_member_name"`
	Region           Region    `gorm:"size:50" json:"region"`
	Cluster          Cluster   `gorm:"size:50" json:"cluster"`
	MomoNumber       string    `gorm:"size:20" json:"momo_number"`
	AgentMsisdn      string    `gorm:"size:20" json:"agent_msisdn"`
	TransactionId    string    `gorm:"size:20;index" json:"transaction_id"`
	Category         string    `gorm:"size:50" json:"category"`
	TeamMemberMsisdn string    `gorm:"size:20;index" json:"team_member_msisdn"`
}

type NewSubmission struct {
	SubmissionDate   string  `json:"submission_date"`
	Role             Role    `json:"role" validate:"required,oneof=TDR MDR BA-LT Admin"`
	AgentName        string  `json:"agent_name" validate:"required"`
	TeamMemberName   string  `json:"team_member_name" validate:"required"`
	Region           Region  `json:"region"`
	Cluster          Cluster `json:"cluster"`
	MomoNumber       string  `json:"momo_number" validate:"required,len=11,numeric"`
	AgentMsisdn      string  `json:"agent_msisdn" validate:"required,len=11,numeric"`
	TransactionId    string  `json:"transaction_id" validate:"required,len=10,numeric"`
	Category         string  `json:"category"`
	TeamMemberMsisdn string  `json:"team_member_msisdn" validate:"required,len=11,numeric"`
}

// CheckDuplicateTransactions returns the subset of ids that already exist in
// the target table. This is the client's pre-submission probe; it takes no
// locks of its own and is advisory only. SubmitBatch re-checks inside the
// store lock, which is what actually enforces uniqueness.
func CheckDuplicateTransactions(ctx context.Context, ids []string, sType SubmissionType) ([]string, error) {
	table, ok := SubmissionTable(sType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown submission type %q", utils.ErrorValidation, sType)
	}
	if len(ids) == 0 {
		return []string{}, nil
	}
	for _, id := range ids {
		if err := utils.ValidateTransactionId(id); err != nil {
			return nil, err
		}
	}

	existing, err := existingTransactionIds(ctx, table, ids)
	if err != nil {
		return nil, err
	}

	duplicates := []string{}
	for _, id := range ids {
		if existing[id] {
			duplicates = append(duplicates, id)
		}
	}
	return duplicates, nil
}

func existingTransactionIds(ctx context.Context, table string, ids []string) (map[string]bool, error) {
	db := config.GetDB()
	var found []string
	err := db.WithContext(ctx).Table(table).
		Where("transaction_id IN ?", utils.UniqueSlice(ids)).
		Pluck("transaction_id", &found).Error
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(found))
	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

// SubmitBatch appends a batch of submissions in one bulk insert. All rows
// share one creation timestamp; each gets a fresh uuid. A caller-supplied
// submission date that fails to parse falls back to the creation time.
//
// Duplicate transaction ids, either within the batch or against existing
// rows, reject the whole batch. The caller holds the store lock across this
// function, so check-then-insert is one critical section and at most one
// insert of a given transaction id can ever succeed.
func SubmitBatch(ctx context.Context, rows []*NewSubmission, sType SubmissionType) error {
	table, ok := SubmissionTable(sType)
	if !ok {
		return fmt.Errorf("%w: unknown submission type %q", utils.ErrorValidation, sType)
	}
	if len(rows) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if err := utils.ValidateStruct(row); err != nil {
			return err
		}
		if seen[row.TransactionId] {
			return fmt.Errorf("%w: %s repeated within batch", utils.ErrorDuplicateTransaction, row.TransactionId)
		}
		seen[row.TransactionId] = true
		ids = append(ids, row.TransactionId)
	}

	// The in-lock re-check that closes the probe-to-insert race. The legacy
	// flag restores probe-only mode for byte-for-byte compatibility runs.
	if !config.LegacyProbeOnlyDuplicates() {
		existing, err := existingTransactionIds(ctx, table, ids)
		if err != nil {
			return err
		}
		var conflicts []string
		for _, id := range ids {
			if existing[id] {
				conflicts = append(conflicts, id)
			}
		}
		if len(conflicts) > 0 {
			return fmt.Errorf("%w: %v already submitted", utils.ErrorDuplicateTransaction, conflicts)
		}
	}

	createdAt := time.Now().UTC()
	submissions := make([]*Submission, 0, len(rows))
	for _, row := range rows {
		subDate, parsed := utils.ParsePortalTime(row.SubmissionDate)
		if !parsed {
			subDate = createdAt
		}
		submissions = append(submissions, &Submission{
			ID:               uuid.NewString(),
			CreatedAt:        createdAt,
			SubmissionDate:   subDate,
			Role:             row.Role,
			AgentName:        row.AgentName,
			TeamMemberName:   row.TeamMemberName,
			Region:           row.Region,
			Cluster:          row.Cluster,
			MomoNumber:       row.MomoNumber,
			AgentMsisdn:      row.AgentMsisdn,
			TransactionId:    row.TransactionId,
			Category:         row.Category,
			TeamMemberMsisdn: row.TeamMemberMsisdn,
		})
	}

	db := config.GetDB()
	return db.WithContext(ctx).Table(table).Create(&submissions).Error
}
