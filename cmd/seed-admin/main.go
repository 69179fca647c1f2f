// seed-admin creates the first Admin team member so the report export has an
// authorized requester before anyone registers through the portal.
//
// Usage (from backend directory):
//
//	ADMIN_MSISDN=27820000000 ADMIN_NAME="Portal Admin" DB_USER=... go run ./cmd/seed-admin
//
// Safe to re-run: an existing member with the same msisdn is left untouched.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/fieldops_backend/config"
	"bitbucket.org/mmdatafocus/fieldops_backend/models"
	"bitbucket.org/mmdatafocus/fieldops_backend/utils"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	msisdn := strings.TrimSpace(os.Getenv("ADMIN_MSISDN"))
	if msisdn == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_MSISDN is required (11-digit number)")
		os.Exit(1)
	}
	name := strings.TrimSpace(os.Getenv("ADMIN_NAME"))
	if name == "" {
		name = "Portal Admin"
	}
	momo := strings.TrimSpace(os.Getenv("ADMIN_MOMO_NUMBER"))
	if momo == "" {
		momo = msisdn
	}

	member, err := models.CreateTeamMember(ctx, &models.NewTeamMember{
		Msisdn:     msisdn,
		FullName:   name,
		Role:       models.RoleAdmin,
		Region:     models.RegionCentral,
		Cluster:    models.ClusterFreeState,
		MomoNumber: momo,
	})
	if err != nil {
		if errors.Is(err, utils.ErrorAlreadyExists) {
			fmt.Printf("member %s already exists; nothing to do\n", msisdn)
			return
		}
		fmt.Fprintf(os.Stderr, "failed to seed admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded admin member %s (%s)\n", member.Msisdn, member.FullName)
}
