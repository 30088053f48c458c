package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal/core/database"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	leavetypePostgres "github.com/frahmantamala/leave-management/internal/leavetype/postgres"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with the default leave type catalogue, a holiday calendar and sample employees for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := initGorm(sqlxDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		lg := logger.L()
		typeService := leavetype.NewService(
			leavetypePostgres.NewLeaveTypeRepository(db),
			database.NewTxManager(db),
			events.NewEventBus(lg),
			lg,
		)
		if err := typeService.EnsureDefaults(context.Background()); err != nil {
			log.Fatalf("failed to seed leave types: %v", err)
		}
		fmt.Println("Leave type catalogue seeded")

		seedEmployees(db)
		seedHolidays(db)
	},
}

func seedEmployees(db *gorm.DB) {
	employees := []struct {
		FirstName string
		LastName  string
		Email     string
		Gender    string
		Joined    string
		ManagerID *int64
	}{
		{"Rina", "Hartati", "rina@mail.com", "Female", "2019-03-01", nil},
		{"Fadhil", "Rahman", "fadhil@mail.com", "Male", "2021-06-14", ptrInt64(1)},
		{"Sari", "Putri", "sari@mail.com", "Female", "2023-01-09", ptrInt64(1)},
	}

	for _, e := range employees {
		var exists int
		row := db.Raw("SELECT 1 FROM employees WHERE email = ?", e.Email).Row()
		if err := row.Scan(&exists); err == nil {
			continue
		}

		joined, _ := time.Parse("2006-01-02", e.Joined)
		if err := db.Exec(
			"INSERT INTO employees (first_name, last_name, email, gender, date_of_joining, manager_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, now(), now())",
			e.FirstName, e.LastName, e.Email, e.Gender, joined, e.ManagerID,
		).Error; err != nil {
			log.Fatalf("failed to insert employee %s: %v", e.Email, err)
		}
		fmt.Println("Seeded employee:", e.Email)
	}
}

func seedHolidays(db *gorm.DB) {
	year := time.Now().Year()
	holidays := []struct {
		Name       string
		Date       string
		Type       string
		Restricted bool
	}{
		{"New Year's Day", fmt.Sprintf("%d-01-01", year), "National", false},
		{"Republic Day", fmt.Sprintf("%d-01-26", year), "National", false},
		{"Independence Day", fmt.Sprintf("%d-08-15", year), "National", false},
		{"Gandhi Jayanti", fmt.Sprintf("%d-10-02", year), "National", false},
		{"Christmas Day", fmt.Sprintf("%d-12-25", year), "National", false},
		{"Karva Chauth", fmt.Sprintf("%d-10-20", year), "Festival", true},
		{"Chhath Puja", fmt.Sprintf("%d-10-28", year), "Festival", true},
	}

	for _, h := range holidays {
		date, _ := time.Parse("2006-01-02", h.Date)

		var exists int
		row := db.Raw("SELECT 1 FROM public_holidays WHERE holiday_date = ?", date).Row()
		if err := row.Scan(&exists); err == nil {
			continue
		}

		if err := db.Exec(
			"INSERT INTO public_holidays (name, holiday_date, holiday_type, is_restricted, recurring, created_at) VALUES (?, ?, ?, ?, true, now())",
			h.Name, date, h.Type, h.Restricted,
		).Error; err != nil {
			log.Fatalf("failed to insert holiday %s: %v", h.Name, err)
		}
		fmt.Println("Seeded holiday:", h.Name)
	}
}

func ptrInt64(v int64) *int64 {
	return &v
}
