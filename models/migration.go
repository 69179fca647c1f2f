package models

import (
	"log"

	"bitbucket.org/mmdatafocus/fieldops_backend/config"
)

// MigrateTable creates/updates the five portal tables. The submission and
// onboarding structs each back two tables, so those migrate with explicit
// table names.
func MigrateTable() {
	db := config.GetDB()

	if err := db.AutoMigrate(&TeamMember{}); err != nil {
		log.Fatal(err)
	}
	for _, table := range []string{"rgm_submissions", "mau_submission"} {
		if err := db.Table(table).AutoMigrate(&Submission{}); err != nil {
			log.Fatal(err)
		}
	}
	for _, table := range []string{"onboards", "onboard_cc"} {
		if err := db.Table(table).AutoMigrate(&OnboardEntry{}); err != nil {
			log.Fatal(err)
		}
	}
}
