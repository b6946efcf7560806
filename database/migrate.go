package database

import (
	"fmt"

	"gorm.io/gorm"

	"companies-backend/models"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns/index tags)
// - CHECK constraints that gorm tags cannot express (PostgreSQL only)
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.Company{},
			&models.User{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		if tx.Dialector.Name() != "postgres" {
			return nil
		}

		checks := []string{
			// A whitespace-only cif would still satisfy the unique index.
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'companies'::regclass
					  AND conname  = 'chk_companies_cif_not_blank'
				) THEN
					ALTER TABLE companies
					ADD CONSTRAINT chk_companies_cif_not_blank
					CHECK (btrim(cif) <> '');
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'users'::regclass
					  AND conname  = 'chk_users_role'
				) THEN
					ALTER TABLE users
					ADD CONSTRAINT chk_users_role
					CHECK (role IN ('admin', 'user'));
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
