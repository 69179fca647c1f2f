package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/fieldops_backend/config"
	"bitbucket.org/mmdatafocus/fieldops_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OnboardEntry is a field agent or merchant being registered/vetted. Criminal
// checks live in onboard_cc, everything else in onboards; both tables share
// this shape. Unlike submissions, entries are editable: a resubmitted id
// overwrites the row in place, and a criminal check edited to another type
// moves tables.
type OnboardEntry struct {
	ID              string      `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt       time.Time   `json:"created_at"`
	Channel         string      `gorm:"size:20" json:"channel"`
	Type            OnboardType `gorm:"size:30" json:"type"`
	Name            string      `gorm:"size:100" json:"name"`
	Msisdn          string      `gorm:"size:20" json:"msisdn"`
	ContactNo       string      `gorm:"size:20" json:"contactNo"`
	IdNumber        string      `gorm:"size:20" json:"idNumber"`
	PhysicalAddress string      `gorm:"size:255" json:"physicalAddress"`
	Cluster         string      `gorm:"size:50" json:"cluster"`
	AreaMentorRtl   string      `gorm:"size:100" json:"areaMentorRtl"`
	LeaderName      string      `gorm:"size:100" json:"leaderName"`
	LeaderMsisdn    string      `gorm:"size:20" json:"leaderMsisdn"`
	OnboardedDate   string      `gorm:"size:20" json:"onboardedDate"`
	AmlScore        int         `json:"amlScore"`
	Mainplace       string      `gorm:"size:100" json:"mainplace"`
	SubmitterMsisdn string      `gorm:"size:20;index" json:"submitterMsisdn"`

	// OriginalSheet tells the client which table served this row, so an edit
	// can report where the row came from. Not stored.
	OriginalSheet OnboardSheet `gorm:"-" json:"originalSheet,omitempty"`
}

type NewOnboardEntry struct {
	ID              string      `json:"id"`
	Type            OnboardType `json:"type" validate:"required,oneof='Criminal Check' 'New Upload' 'Re-Upload'"`
	Channel         string      `json:"channel"`
	SubmitterMsisdn string      `json:"submitterMsisdn" validate:"required,len=11,numeric"`
	Name            string      `json:"name" validate:"required"`
	Msisdn          string      `json:"msisdn"`
	ContactNo       string      `json:"contactNo"`
	IdNumber        string      `json:"idNumber"`
	PhysicalAddress string      `json:"physicalAddress"`
	Cluster         string      `json:"cluster"`
	AreaMentorRtl   string      `json:"areaMentorRtl"`
	LeaderName      string      `json:"leaderName"`
	LeaderMsisdn    string      `json:"leaderMsisdn"`
	OnboardedDate   string      `json:"onboardedDate"`
	AmlScore        int         `json:"amlScore"`
	Mainplace       string      `json:"mainplace"`

	// OriginalSheet is the edit hint: "CC" when the row being edited came
	// from the criminal-check table.
	OriginalSheet OnboardSheet `json:"originalSheet"`
}

// validateOnboard applies the conditional field rules: a criminal check only
// needs the subject's name and national id; every other type carries the
// full field set and a bounded AML score. The score bound never applies to
// criminal checks.
func validateOnboard(input *NewOnboardEntry) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateNationalId(input.IdNumber); err != nil {
		return err
	}
	if input.Type == OnboardTypeCriminalCheck {
		return nil
	}

	if err := utils.ValidateMsisdn("msisdn", input.Msisdn); err != nil {
		return err
	}
	required := map[string]string{
		"contactNo":       input.ContactNo,
		"physicalAddress": input.PhysicalAddress,
		"cluster":         input.Cluster,
		"areaMentorRtl":   input.AreaMentorRtl,
		"leaderMsisdn":    input.LeaderMsisdn,
		"onboardedDate":   input.OnboardedDate,
		"mainplace":       input.Mainplace,
	}
	for field, value := range required {
		if value == "" {
			return fmt.Errorf("%w: %s is required", utils.ErrorValidation, field)
		}
	}
	if input.AmlScore < 12 || input.AmlScore > 15 {
		return fmt.Errorf("%w: amlScore must be between 12 and 15", utils.ErrorValidation)
	}
	return nil
}

// SubmitOnboard creates or updates an onboarding entry.
//
// Target table is decided by the entry's (new) type. When a row that lived
// in the criminal-check table is edited to a non-criminal type, the old row
// is deleted and the entry lands in the regular table; delete and upsert run
// in one transaction so the move cannot leave the row in both tables or in
// neither. The id search is a linear scan by equality, O(n) per write,
// acceptable at this portal's scale.
func SubmitOnboard(ctx context.Context, input *NewOnboardEntry) error {
	if err := validateOnboard(input); err != nil {
		return err
	}

	targetTable := OnboardTableForType(input.Type)

	channel := input.Channel
	if channel == "" {
		channel = deriveChannel(ctx, input.SubmitterMsisdn)
	}

	entry := OnboardEntry{
		ID:              input.ID,
		CreatedAt:       time.Now().UTC(),
		Channel:         channel,
		Type:            input.Type,
		Name:            input.Name,
		Msisdn:          input.Msisdn,
		ContactNo:       input.ContactNo,
		IdNumber:        input.IdNumber,
		PhysicalAddress: input.PhysicalAddress,
		Cluster:         input.Cluster,
		AreaMentorRtl:   input.AreaMentorRtl,
		LeaderName:      input.LeaderName,
		LeaderMsisdn:    input.LeaderMsisdn,
		OnboardedDate:   input.OnboardedDate,
		AmlScore:        input.AmlScore,
		Mainplace:       input.Mainplace,
		SubmitterMsisdn: input.SubmitterMsisdn,
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Criminal check re-categorized: pull the old row out of onboard_cc.
		if input.OriginalSheet == OnboardSheetCC && input.Type != OnboardTypeCriminalCheck && input.ID != "" {
			if err := tx.Table("onboard_cc").Where("id = ?", input.ID).Delete(&OnboardEntry{}).Error; err != nil {
				return err
			}
		}

		if input.ID != "" {
			var count int64
			if err := tx.Table(targetTable).Where("id = ?", input.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				// Full-row overwrite, including created_at: an edit reads as
				// the newest entry, matching how the sheet behaved.
				return tx.Table(targetTable).Where("id = ?", entry.ID).
					Select("*").Updates(&entry).Error
			}
		}

		return tx.Table(targetTable).Create(&entry).Error
	})
}

// deriveChannel records "BA" for BA-LT submitters and "Spaza" for everyone
// else (including unknown submitters).
func deriveChannel(ctx context.Context, submitterMsisdn string) string {
	member, err := GetTeamMember(ctx, submitterMsisdn)
	if err == nil && member.Role == RoleBALT {
		return OnboardChannelBA
	}
	return OnboardChannelSpaza
}

// GetOnboards lists the caller's own entries from one onboarding table,
// newest first. The owner msisdn is mandatory: this is the portal's one
// positive access-control check, and rows never cross owners.
func GetOnboards(ctx context.Context, sheetType OnboardSheet, ownerMsisdn string) ([]*OnboardEntry, error) {
	if ownerMsisdn == "" {
		return nil, fmt.Errorf("%w: missing user identity", utils.ErrorAccessDenied)
	}
	table, ok := OnboardTable(sheetType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown sheet type %q", utils.ErrorValidation, sheetType)
	}

	db := config.GetDB()
	var entries []*OnboardEntry
	err := db.WithContext(ctx).Table(table).
		Where("submitter_msisdn = ?", ownerMsisdn).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		e.OriginalSheet = sheetType
	}
	return entries, nil
}
