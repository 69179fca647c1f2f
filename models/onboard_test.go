package models_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/fieldops_backend/config"
	"bitbucket.org/mmdatafocus/fieldops_backend/models"
	"bitbucket.org/mmdatafocus/fieldops_backend/utils"
)

func newOnboardInput(submitter string) *models.NewOnboardEntry {
	return &models.NewOnboardEntry{
		Type:            models.OnboardTypeNewUpload,
		SubmitterMsisdn: submitter,
		Name:            "Lerato Dlamini",
		Msisdn:          "27830001111",
		ContactNo:       "27830002222",
		IdNumber:        "9001015009087",
		PhysicalAddress: "12 Main Rd, Welkom",
		Cluster:         "Ofs",
		AreaMentorRtl:   "Mentor A",
		LeaderName:      "Leader A",
		LeaderMsisdn:    "27830003333",
		OnboardedDate:   "2026-02-01",
		AmlScore:        13,
		Mainplace:       "Welkom CBD",
	}
}

func seedOnboardRow(t *testing.T, table string, id string, submitter string, createdAt time.Time) {
	t.Helper()
	entry := models.OnboardEntry{
		ID:              id,
		CreatedAt:       createdAt,
		Channel:         models.OnboardChannelSpaza,
		Type:            models.OnboardTypeNewUpload,
		Name:            "Seeded " + id,
		IdNumber:        "9001015009087",
		SubmitterMsisdn: submitter,
	}
	if table == "onboard_cc" {
		entry.Type = models.OnboardTypeCriminalCheck
	}
	db := config.GetDB()
	if err := db.Table(table).Create(&entry).Error; err != nil {
		t.Fatalf("seed %s row: %v", table, err)
	}
}

func TestSubmitOnboard_CreatesWithGeneratedId(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	if err := models.SubmitOnboard(ctx, newOnboardInput("08011112222")); err != nil {
		t.Fatalf("SubmitOnboard: %v", err)
	}

	var stored models.OnboardEntry
	db := config.GetDB()
	if err := db.Table("onboards").Take(&stored).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if stored.ID == "" {
		t.Fatalf("expected generated id")
	}
	if stored.Channel != models.OnboardChannelSpaza {
		t.Fatalf("expected Spaza channel for unknown submitter, got %q", stored.Channel)
	}
	if stored.SubmitterMsisdn != "08011112222" {
		t.Fatalf("expected owner to be recorded, got %q", stored.SubmitterMsisdn)
	}
}

func TestSubmitOnboard_DerivesBAChannelFromSubmitterRole(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	if _, err := models.CreateTeamMember(ctx, &models.NewTeamMember{
		Msisdn:     "27831234567",
		FullName:   "BA Lead",
		Role:       models.RoleBALT,
		Region:     models.RegionCentral,
		Cluster:    models.ClusterFreeState,
		MomoNumber: "27831234567",
	}); err != nil {
		t.Fatalf("CreateTeamMember: %v", err)
	}

	if err := models.SubmitOnboard(ctx, newOnboardInput("27831234567")); err != nil {
		t.Fatalf("SubmitOnboard: %v", err)
	}

	var stored models.OnboardEntry
	if err := config.GetDB().Table("onboards").Take(&stored).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if stored.Channel != models.OnboardChannelBA {
		t.Fatalf("expected BA channel for BA-LT submitter, got %q", stored.Channel)
	}
}

func TestSubmitOnboard_UpdatesInPlaceWhenIdSupplied(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	seedOnboardRow(t, "onboards", "entry-1", "08011112222", time.Now().UTC().Add(-time.Hour))

	input := newOnboardInput("08011112222")
	input.ID = "entry-1"
	input.Name = "Edited Name"
	input.OriginalSheet = models.OnboardSheetRegular
	if err := models.SubmitOnboard(ctx, input); err != nil {
		t.Fatalf("SubmitOnboard edit: %v", err)
	}

	db := config.GetDB()
	var count int64
	if err := db.Table("onboards").Where("id = ?", "entry-1").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one row after in-place edit, got %d", count)
	}

	var stored models.OnboardEntry
	if err := db.Table("onboards").Where("id = ?", "entry-1").Take(&stored).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Name != "Edited Name" {
		t.Fatalf("expected overwritten name, got %q", stored.Name)
	}
}

func TestSubmitOnboard_CriminalCheckBecomingUploadMovesTables(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	seedOnboardRow(t, "onboard_cc", "cc-entry", "08011112222", time.Now().UTC().Add(-time.Hour))

	input := newOnboardInput("08011112222")
	input.ID = "cc-entry"
	input.Type = models.OnboardTypeNewUpload
	input.OriginalSheet = models.OnboardSheetCC
	if err := models.SubmitOnboard(ctx, input); err != nil {
		t.Fatalf("SubmitOnboard move: %v", err)
	}

	db := config.GetDB()
	var ccCount, regCount int64
	if err := db.Table("onboard_cc").Where("id = ?", "cc-entry").Count(&ccCount).Error; err != nil {
		t.Fatalf("count cc: %v", err)
	}
	if err := db.Table("onboards").Where("id = ?", "cc-entry").Count(&regCount).Error; err != nil {
		t.Fatalf("count onboards: %v", err)
	}
	if ccCount != 0 {
		t.Fatalf("expected row removed from criminal-check table, found %d", ccCount)
	}
	if regCount != 1 {
		t.Fatalf("expected exactly one row in regular table, found %d", regCount)
	}
}

func TestSubmitOnboard_CriminalCheckNeedsOnlyNameAndNationalId(t *testing.T) {
	setupTestDB(t)

	err := models.SubmitOnboard(context.Background(), &models.NewOnboardEntry{
		Type:            models.OnboardTypeCriminalCheck,
		SubmitterMsisdn: "08011112222",
		Name:            "Vetting Subject",
		IdNumber:        "9001015009087",
	})
	if err != nil {
		t.Fatalf("expected minimal criminal-check entry to pass, got %v", err)
	}

	var count int64
	if err := config.GetDB().Table("onboard_cc").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 criminal-check row, got %d", count)
	}
}

func TestSubmitOnboard_AmlScoreBoundsOnlyForNonCriminalChecks(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	low := newOnboardInput("08011112222")
	low.AmlScore = 11
	if err := models.SubmitOnboard(ctx, low); !errors.Is(err, utils.ErrorValidation) {
		t.Fatalf("expected validation error for score 11, got %v", err)
	}

	high := newOnboardInput("08011112222")
	high.AmlScore = 16
	if err := models.SubmitOnboard(ctx, high); !errors.Is(err, utils.ErrorValidation) {
		t.Fatalf("expected validation error for score 16, got %v", err)
	}

	// Criminal checks carry no score; zero must be accepted.
	cc := &models.NewOnboardEntry{
		Type:            models.OnboardTypeCriminalCheck,
		SubmitterMsisdn: "08011112222",
		Name:            "No Score",
		IdNumber:        "9001015009087",
	}
	if err := models.SubmitOnboard(ctx, cc); err != nil {
		t.Fatalf("expected criminal check without score to pass, got %v", err)
	}
}

func TestGetOnboards_IsolatesByOwnerAndSortsNewestFirst(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	seedOnboardRow(t, "onboard_cc", "cc-old", "08011112222", base)
	seedOnboardRow(t, "onboard_cc", "cc-new", "08011112222", base.Add(2*time.Hour))
	seedOnboardRow(t, "onboard_cc", "cc-other", "08099998888", base.Add(time.Hour))
	seedOnboardRow(t, "onboards", "reg-1", "08011112222", base)

	entries, err := models.GetOnboards(ctx, models.OnboardSheetCC, "08011112222")
	if err != nil {
		t.Fatalf("GetOnboards: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 rows for owner, got %d", len(entries))
	}
	if entries[0].ID != "cc-new" || entries[1].ID != "cc-old" {
		t.Fatalf("expected newest-first order, got %s then %s", entries[0].ID, entries[1].ID)
	}
	for _, e := range entries {
		if e.SubmitterMsisdn != "08011112222" {
			t.Fatalf("row from another owner leaked: %+v", e)
		}
		if e.OriginalSheet != models.OnboardSheetCC {
			t.Fatalf("expected originalSheet CC, got %q", e.OriginalSheet)
		}
	}
}

func TestGetOnboards_MissingOwnerIsAccessDenied(t *testing.T) {
	setupTestDB(t)

	_, err := models.GetOnboards(context.Background(), models.OnboardSheetCC, "")
	if !errors.Is(err, utils.ErrorAccessDenied) {
		t.Fatalf("expected access-denied error, got %v", err)
	}
}
