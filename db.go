package main

import (
	"os"
	"strings"

	"kili/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		logger.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Fatalw("failed to connect postgres database", "error", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others.
		// Clients first so the accounts FK can be applied safely, then accounts
		// before movements for the same reason.
		if err := db.AutoMigrate(&models.Client{}); err != nil {
			logger.Warnw("migration warning (clients)", "error", err)
		}
		if err := db.AutoMigrate(&models.CurrentAccount{}); err != nil {
			logger.Warnw("migration warning (current_accounts)", "error", err)
		}
		if err := db.AutoMigrate(&models.Movement{}); err != nil {
			logger.Warnw("migration warning (movements)", "error", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			logger.Warnw("migration warning (refresh_tokens)", "error", err)
		}
		if err := ensureProtectFKs(); err != nil {
			logger.Warnw("ensuring RESTRICT FKs failed", "error", err)
		}
	}
	seedDB()
}

// ensureProtectFKs upgrades the ownership constraints to ON DELETE RESTRICT in
// case the tables existed before the constraint tags. Deleting a client with
// accounts, or an account with movements, must fail at the database too, not
// only in the handlers.
func ensureProtectFKs() error {
	type fk struct {
		table, name, def string
	}
	fks := []fk{
		{"current_accounts", "fk_current_accounts_client",
			`FOREIGN KEY (client_id) REFERENCES clients(id) ON UPDATE CASCADE ON DELETE RESTRICT`},
		{"movements", "fk_movements_account",
			`FOREIGN KEY (account_id) REFERENCES current_accounts(id) ON UPDATE CASCADE ON DELETE RESTRICT`},
	}
	for _, f := range fks {
		type cnt struct{ N int }
		var c cnt
		fkCheckSQL := `SELECT count(*) AS n
			FROM pg_constraint ct
			JOIN pg_class rel ON rel.oid = ct.conrelid
			WHERE rel.relname = ? AND ct.contype = 'f' AND ct.conname = ?`
		if err := db.Raw(fkCheckSQL, f.table, f.name).Scan(&c).Error; err != nil {
			return err
		}
		if c.N == 0 {
			if err := db.Exec(`ALTER TABLE ` + f.table + ` ADD CONSTRAINT ` + f.name + ` ` + f.def).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func seedDB() {
	// Seed a first superuser so the admin surface is reachable on a fresh DB.
	// All three vars are required; the factory does not invent a phone.
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	phone := os.Getenv("ADMIN_PHONE")
	if email == "" || password == "" {
		return
	}
	if phone == "" {
		logger.Warn("ADMIN_PHONE is not set; skipping superuser seed")
		return
	}
	var count int64
	db.Model(&models.Client{}).Where("email = ?", normalizeEmail(email)).Count(&count)
	if count > 0 {
		return
	}
	admin, err := CreateSuperuser(email, "Admin", "Operator", phone, password)
	if err != nil {
		logger.Warnw("failed to seed superuser", "error", err)
		return
	}
	logger.Infow("seeded superuser", "email", admin.Email, "id", admin.ID)
}
