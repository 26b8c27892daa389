package cmd

import (
	"fmt"
	"log"

	"github.com/civicworks/revenue-tracker/internal/auth"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed roles, permissions and a demo MDA with its approval chain for development and testing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			clearSeedData(db)
		}

		seedRolesAndPermissions(db)
		mdaID := seedDemoMDA(db)
		seedDemoUsers(db, mdaID)
	},
}

var rolePermissions = map[string][]string{
	auth.RoleAdmin: {
		auth.PermManageUsers, auth.PermManageMDAs, auth.PermManageBudgets,
		auth.PermPublishBudgets, auth.PermViewReports, auth.PermVerifyAttachments,
	},
	auth.RoleCommissioner: {
		auth.PermApproveBudgets, auth.PermRejectBudgets,
		auth.PermApproveExpenditures, auth.PermRejectExpenditures,
		auth.PermViewReports,
	},
	auth.RolePermanentSecretary: {
		auth.PermApproveBudgets, auth.PermRejectBudgets,
		auth.PermApproveExpenditures, auth.PermRejectExpenditures,
		auth.PermViewReports,
	},
	auth.RoleDirector: {
		auth.PermApproveBudgets, auth.PermRejectBudgets,
		auth.PermApproveExpenditures, auth.PermRejectExpenditures,
		auth.PermReviewRetirements, auth.PermViewReports,
	},
	auth.RoleBudgetManager: {
		auth.PermManageBudgets, auth.PermSubmitBudgets,
		auth.PermSubmitExpenditures, auth.PermViewReports,
	},
	auth.RoleOfficer: {
		auth.PermSubmitExpenditures,
	},
}

func clearSeedData(db *sqlx.DB) {
	for _, table := range []string{"user_roles", "role_permissions", "permissions", "roles", "users", "mdas"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			log.Fatalf("failed to clear %s: %v", table, err)
		}
	}
	fmt.Println("Cleared existing seed data")
}

func seedRolesAndPermissions(db *sqlx.DB) {
	permissionIDs := map[string]int64{}

	for _, perms := range rolePermissions {
		for _, p := range perms {
			if _, ok := permissionIDs[p]; ok {
				continue
			}
			var id int64
			err := db.Get(&id, `
				INSERT INTO permissions (name) VALUES ($1)
				ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
				RETURNING id
			`, p)
			if err != nil {
				log.Fatalf("failed to seed permission %s: %v", p, err)
			}
			permissionIDs[p] = id
		}
	}

	for role, perms := range rolePermissions {
		var roleID int64
		err := db.Get(&roleID, `
			INSERT INTO roles (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, role)
		if err != nil {
			log.Fatalf("failed to seed role %s: %v", role, err)
		}

		for _, p := range perms {
			_, err := db.Exec(`
				INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, roleID, permissionIDs[p])
			if err != nil {
				log.Fatalf("failed to link role %s to %s: %v", role, p, err)
			}
		}
	}

	fmt.Println("Seeded roles and permissions")
}

func seedDemoMDA(db *sqlx.DB) int64 {
	var id int64
	err := db.Get(&id, `
		INSERT INTO mdas (code, name, sector, is_active, created_at, updated_at)
		VALUES ('MOF', 'Ministry of Finance', 'finance', true, now(), now())
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`)
	if err != nil {
		log.Fatalf("failed to seed demo MDA: %v", err)
	}

	fmt.Println("Seeded demo MDA: MOF")
	return id
}

func seedDemoUsers(db *sqlx.DB, mdaID int64) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash seed password: %v", err)
	}

	demoUsers := []struct {
		email string
		name  string
		role  string
	}{
		{"admin@revtracker.gov", "System Admin", auth.RoleAdmin},
		{"commissioner@mof.gov", "State Commissioner", auth.RoleCommissioner},
		{"permsec@mof.gov", "Permanent Secretary", auth.RolePermanentSecretary},
		{"director@mof.gov", "Finance Director", auth.RoleDirector},
		{"budgets@mof.gov", "Budget Manager", auth.RoleBudgetManager},
		{"officer@mof.gov", "Account Officer", auth.RoleOfficer},
	}

	for _, u := range demoUsers {
		var userID int64
		err := db.Get(&userID, `
			INSERT INTO users (email, name, password_hash, mda_id, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, true, now(), now())
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, u.email, u.name, string(hash), mdaID)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.email, err)
		}

		_, err = db.Exec(`
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE name = $2
			ON CONFLICT DO NOTHING
		`, userID, u.role)
		if err != nil {
			log.Fatalf("failed to assign role %s to %s: %v", u.role, u.email, err)
		}

		fmt.Println("Seeded user:", u.email)
	}
}
