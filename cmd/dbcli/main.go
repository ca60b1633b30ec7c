package main

import (
	"bufio"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/feedbackfortress/backend/internal/config"
	"github.com/feedbackfortress/backend/internal/crypto"
	"github.com/feedbackfortress/backend/internal/database"
	"github.com/feedbackfortress/backend/internal/domain"
	"github.com/feedbackfortress/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)

	for {
		printMenu()
		fmt.Print("Select option: ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		switch input {
		case "1":
			migrateSchema(cfg)
		case "2":
			createAdmin(cfg, reader)
		case "3":
			seedData(cfg, reader)
		case "4":
			truncateTables(cfg, reader)
		case "0":
			fmt.Println("Bye.")
			os.Exit(0)
		default:
			fmt.Println("Invalid option")
		}

		fmt.Println()
		fmt.Print("Press Enter to continue...")
		reader.ReadString('\n')
	}
}

func printMenu() {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("   FEEDBACK FORTRESS DATABASE MANAGER")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("1. Migrate schema")
	fmt.Println("2. Create admin account")
	fmt.Println("3. Seed demo data")
	fmt.Println("4. Truncate tables (ALL data)")
	fmt.Println("0. Exit")
	fmt.Println()
	fmt.Println("----------------------------------------")
}

func connect(cfg *config.Config) (*gorm.DB, error) {
	return database.Connect(cfg)
}

func migrateSchema(cfg *config.Config) {
	fmt.Println()
	fmt.Println("--- Migrate Schema ---")

	if _, err := connect(cfg); err != nil {
		fmt.Printf("Connection error: %v\n", err)
		return
	}

	// database.Connect runs AutoMigrate.
	fmt.Println("Schema migrated.")
}

func createAdmin(cfg *config.Config, reader *bufio.Reader) {
	fmt.Println()
	fmt.Println("--- Create Admin Account ---")

	db, err := connect(cfg)
	if err != nil {
		fmt.Printf("Connection error: %v\n", err)
		return
	}

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.ToLower(strings.TrimSpace(email))

	fmt.Print("Password: ")
	password, _ := reader.ReadString('\n')
	password = strings.TrimSpace(password)
	if len(password) < 8 {
		fmt.Println("Password must be at least 8 characters.")
		return
	}

	fmt.Print("Display name: ")
	alias, _ := reader.ReadString('\n')
	alias = strings.TrimSpace(alias)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Hash error: %v\n", err)
		return
	}

	// Staff accounts are provisioned with an ADMIN student id prefix.
	user := &domain.User{
		StudentID:    fmt.Sprintf("ADMIN%04d", rand.Intn(10000)),
		Email:        email,
		PasswordHash: string(hash),
		Alias:        alias,
		Role:         domain.RoleAdmin,
	}

	if err := repository.NewUserRepository(db).Create(user); err != nil {
		fmt.Printf("Create error: %v\n", err)
		return
	}

	fmt.Printf("Admin '%s' created with student id %s.\n", alias, user.StudentID)
}

func truncateTables(cfg *config.Config, reader *bufio.Reader) {
	fmt.Println()
	fmt.Println("--- Truncate Tables ---")
	fmt.Println("WARNING: users, grievances, notifications and inbox messages will be erased!")
	fmt.Print("Type 'TRUNCATE' to confirm: ")

	input, _ := reader.ReadString('\n')
	if strings.TrimSpace(input) != "TRUNCATE" {
		fmt.Println("Cancelled.")
		return
	}

	db, err := connect(cfg)
	if err != nil {
		fmt.Printf("Connection error: %v\n", err)
		return
	}

	tables := []string{"notifications", "inbox_messages", "grievances", "users"}
	for _, table := range tables {
		fmt.Printf("Truncating %s...\n", table)
		if err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			fmt.Printf("Error truncating %s: %v\n", table, err)
		}
	}

	fmt.Println()
	fmt.Println("Done.")
}

var demoSubjects = []string{
	"Broken air conditioning in the library",
	"Cafeteria food quality has declined",
	"Wifi keeps dropping in building C",
	"Request for more study spaces",
	"Parking lot lighting is insufficient",
	"Lab equipment needs maintenance",
	"Noise complaints near the dormitory",
	"Suggestion for extended library hours",
	"Water dispenser on floor 3 is broken",
	"Feedback on the new registration portal",
}

var demoDetails = []string{
	"This has been an ongoing issue for several weeks and affects many students daily.",
	"I would like to bring this to the attention of the administration as soon as possible.",
	"Several of my classmates have noticed the same problem and asked me to report it.",
	"Please look into this at your earliest convenience, it impacts our studies.",
	"Attaching a photo for reference. Happy to provide more details if needed.",
}

func seedData(cfg *config.Config, reader *bufio.Reader) {
	fmt.Println()
	fmt.Println("--- Seed Demo Data ---")
	fmt.Println("1. Small  - 5 users, 20 grievances")
	fmt.Println("2. Medium - 20 users, 100 grievances")
	fmt.Println("3. Large  - 50 users, 500 grievances")
	fmt.Println("0. Cancel")
	fmt.Println()
	fmt.Print("Select (1-3): ")

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	var users, grievances int
	switch input {
	case "1":
		users, grievances = 5, 20
	case "2":
		users, grievances = 20, 100
	case "3":
		users, grievances = 50, 500
	default:
		fmt.Println("Cancelled.")
		return
	}

	db, err := connect(cfg)
	if err != nil {
		fmt.Printf("Connection error: %v\n", err)
		return
	}

	codec, err := crypto.NewCodec(cfg.App.Key)
	if err != nil {
		fmt.Printf("Codec error: %v\n", err)
		return
	}

	userRepo := repository.NewUserRepository(db)
	grievanceRepo := repository.NewGrievanceRepository(db, codec)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)

	fmt.Printf("Seeding %d users...\n", users)
	seeded := make([]*domain.User, 0, users)
	for i := 0; i < users; i++ {
		u := &domain.User{
			StudentID:    fmt.Sprintf("S%07d", rand.Intn(10000000)),
			Email:        fmt.Sprintf("student%d@example.com", rand.Intn(1000000)),
			PasswordHash: string(hash),
			Alias:        fmt.Sprintf("Student %d", i+1),
			Role:         domain.RoleStudent,
		}
		if err := userRepo.Create(u); err != nil {
			continue
		}
		seeded = append(seeded, u)
	}
	if len(seeded) == 0 {
		fmt.Println("No users seeded, aborting.")
		return
	}

	statuses := []domain.GrievanceStatus{
		domain.StatusPending,
		domain.StatusPending,
		domain.StatusUnderReview,
		domain.StatusResolved,
		domain.StatusArchived,
	}
	types := []domain.GrievanceType{domain.TypeComplaint, domain.TypeComplaint, domain.TypeFeedback}

	fmt.Printf("Seeding %d grievances...\n", grievances)
	for i := 0; i < grievances; i++ {
		owner := seeded[rand.Intn(len(seeded))]
		g := &domain.Grievance{
			UserID:  owner.ID,
			Subject: demoSubjects[rand.Intn(len(demoSubjects))],
			Details: demoDetails[rand.Intn(len(demoDetails))],
			Type:    types[rand.Intn(len(types))],
			Status:  domain.StatusPending,
		}
		if err := grievanceRepo.Create(g); err != nil {
			continue
		}

		status := statuses[rand.Intn(len(statuses))]
		if status == domain.StatusResolved {
			grievanceRepo.MarkResolved(g.ID, "Handled by facilities, thank you for reporting.")
		} else if status != domain.StatusPending {
			grievanceRepo.SetStatus(g.ID, status)
		}

		// Spread created_at back in time so the trend charts have shape.
		daysAgo := rand.Intn(30)
		createdAt := time.Now().AddDate(0, 0, -daysAgo)
		db.Model(&domain.Grievance{}).Where("id = ?", g.ID).
			UpdateColumn("created_at", createdAt)
	}

	fmt.Println()
	fmt.Println("Seeding done. All demo accounts use the password 'password'.")
}
