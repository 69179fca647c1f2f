package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/fieldops_backend/config"
	"bitbucket.org/mmdatafocus/fieldops_backend/utils"
	"gorm.io/gorm"
)

// TeamMember is a registered portal user. The msisdn is both the primary key
// and the credential: login is a lookup, no secret is checked. That is the
// portal's trust model, not an oversight.
type TeamMember struct {
	Msisdn     string    `gorm:"primaryKey;size:20" json:"msisdn"`
	FullName   string    `gorm:"size:100;not null" json:"fullName"`
	Role       Role      `gorm:"size:20;not null" json:"role"`
	Region     Region    `gorm:"size:50" json:"region"`
	Cluster    Cluster   `gorm:"size:50" json:"cluster"`
	MomoNumber string    `gorm:"size:20" json:"momoNumber"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (TeamMember) TableName() string { return "member_details" }

type NewTeamMember struct {
	Msisdn     string  `json:"msisdn" validate:"required,len=11,numeric"`
	FullName   string  `json:"fullName" validate:"required"`
	Role       Role    `json:"role" validate:"required,oneof=TDR MDR BA-LT Admin"`
	Region     Region  `json:"region" validate:"required"`
	Cluster    Cluster `json:"cluster" validate:"required"`
	MomoNumber string  `json:"momoNumber" validate:"required,len=11,numeric"`
}

/*
caches:
	Member:$msisdn
*/

const memberCacheTTL = 24 * time.Hour

// GetTeamMember looks a member up by msisdn. A miss returns
// utils.ErrorRecordNotFound so the gateway can distinguish "no account"
// from a connection failure.
func GetTeamMember(ctx context.Context, msisdn string) (*TeamMember, error) {
	if err := utils.ValidateMsisdn("msisdn", msisdn); err != nil {
		return nil, err
	}

	var member TeamMember
	exists, err := config.GetRedisObject("Member:"+msisdn, &member)
	if err == nil && exists {
		return &member, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("msisdn = ?", msisdn).Take(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	// Best-effort cache; members are create-once so staleness is not a concern.
	_ = config.SetRedisObject("Member:"+msisdn, member, memberCacheTTL)

	return &member, nil
}

// CreateTeamMember registers a member. The msisdn must be globally unique;
// a second registration is a conflict, never an overwrite.
func CreateTeamMember(ctx context.Context, input *NewTeamMember) (*TeamMember, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&TeamMember{}).Where("msisdn = ?", input.Msisdn).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.ErrorAlreadyExists
	}

	member := TeamMember{
		Msisdn:     input.Msisdn,
		FullName:   input.FullName,
		Role:       input.Role,
		Region:     input.Region,
		Cluster:    input.Cluster,
		MomoNumber: input.MomoNumber,
	}
	if err := db.WithContext(ctx).Create(&member).Error; err != nil {
		return nil, err
	}

	_ = config.SetRedisObject("Member:"+member.Msisdn, member, memberCacheTTL)

	return &member, nil
}
