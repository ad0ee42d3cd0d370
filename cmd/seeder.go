package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpg.New(gormpg.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"department_transfers", "user_roles", "users", "roles", "departments"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		departments := []struct {
			Name string
			Code string
		}{
			{"Engineering", "ENG"},
			{"Sales", "SLS"},
			{"Human Resources", "HR"},
			{"Finance", "FIN"},
		}

		for _, d := range departments {
			var exists int
			row := db.Raw("SELECT 1 FROM departments WHERE code = ?", d.Code).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO departments (name, code, active, created_date) VALUES (?, ?, TRUE, now())", d.Name, d.Code).Error; err != nil {
				log.Fatalf("failed to insert department %s: %v", d.Name, err)
			}
			fmt.Printf("Seeded department: %s\n", d.Name)
		}

		roles := []struct {
			Name string
			Desc string
		}{
			{"admin", "full administrator"},
			{"manager", "can manage department members"},
			{"member", "regular directory member"},
		}

		for _, r := range roles {
			var exists int
			row := db.Raw("SELECT 1 FROM roles WHERE name = ?", r.Name).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO roles (name, description) VALUES (?, ?)", r.Name, r.Desc).Error; err != nil {
				log.Fatalf("failed to insert role %s: %v", r.Name, err)
			}
			fmt.Printf("Seeded role: %s\n", r.Name)
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), cfg.Security.BCryptCost)

		users := []struct {
			FirstName string
			LastName  string
			Email     string
			DeptCode  string
			Role      string
		}{
			{"Admin", "User", "admin@example.com", "ENG", "admin"},
			{"Dina", "Manager", "dina@example.com", "SLS", "manager"},
			{"Budi", "Santoso", "budi@example.com", "ENG", "member"},
		}

		for _, u := range users {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("user %s already exists; skipping\n", u.Email)
				continue
			}

			var deptID int64
			if err := db.Raw("SELECT id FROM departments WHERE code = ?", u.DeptCode).Row().Scan(&deptID); err != nil {
				log.Fatalf("department not found for code %s: %v", u.DeptCode, err)
			}

			if err := db.Exec(
				"INSERT INTO users (first_name, last_name, email, password_hash, active, department_id, failed_login_attempts, created_date, last_modified_date) VALUES (?, ?, ?, ?, TRUE, ?, 0, now(), now())",
				u.FirstName, u.LastName, u.Email, string(hash), deptID).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}

			var userID, roleID int64
			if err := db.Raw("SELECT id FROM users WHERE email = ?", u.Email).Row().Scan(&userID); err != nil {
				log.Fatalf("failed to lookup seeded user %s: %v", u.Email, err)
			}
			if err := db.Raw("SELECT id FROM roles WHERE name = ?", u.Role).Row().Scan(&roleID); err != nil {
				log.Fatalf("role not found %s: %v", u.Role, err)
			}
			if err := db.Exec("INSERT INTO user_roles (user_id, role_id, assigned_date) VALUES (?, ?, now())", userID, roleID).Error; err != nil {
				log.Fatalf("failed to assign role %s to %s: %v", u.Role, u.Email, err)
			}
			fmt.Printf("Seeded user: %s (%s)\n", u.Email, u.Role)
		}

		fmt.Println("Seeding complete; demo password is:", password)
	},
}
