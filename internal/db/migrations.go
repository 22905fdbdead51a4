package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/centralmei/backend/internal/model"
)

// Migrate creates the schema. AutoMigrate covers tables and plain indexes;
// the statement list below adds what gorm cannot express.
func Migrate(database *gorm.DB) error {
	err := database.AutoMigrate(
		&model.User{},
		&model.Service{},
		&model.ServiceRequest{},
		&model.AccountCategory{},
		&model.AccountSubcategory{},
		&model.Product{},
		&model.Sale{},
		&model.CashMovement{},
		&model.CashBalance{},
		&model.Payment{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if database.Dialector.Name() != "postgres" {
		return nil
	}
	for i, stmt := range postgresStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

var postgresStatements = []string{
	// One sale per service request, enforced by the storage layer.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_sales_service_request_id
		ON sales (service_request_id)
		WHERE service_request_id IS NOT NULL;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM pg_constraint WHERE conname = 'chk_cash_movements_amount_positive'
		) THEN
			ALTER TABLE cash_movements
				ADD CONSTRAINT chk_cash_movements_amount_positive CHECK (amount > 0);
		END IF;
	END
	$$;`,
	`CREATE INDEX IF NOT EXISTS idx_cash_movements_date_type
		ON cash_movements (movement_date, type);`,
}
