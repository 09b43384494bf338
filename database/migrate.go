package database

import (
	"fmt"

	"bizdocs-backend/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns)
// - Composite indexes for list views
// - Basic CHECK constraints on money and percentages
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.Client{},
			&models.CatalogItem{},
			&models.Document{},
			&models.DocumentItem{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_documents_type_status_created ON documents (type, status, created_at DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_document_items_document_position ON document_items (document_id, position)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		checks := []struct{ table, name, expr string }{
			{"catalog_items", "chk_catalog_items_price_nonneg", "price >= 0"},
			{"document_items", "chk_document_items_quantity_nonneg", "quantity >= 0"},
			{"document_items", "chk_document_items_price_nonneg", "price >= 0"},
			{"documents", "chk_documents_discount_range", "discount_percent BETWEEN 0 AND 100"},
			{"documents", "chk_documents_tax_range", "tax_percent BETWEEN 0 AND 100"},
		}
		for _, c := range checks {
			stmt := fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = '%s'::regclass
		  AND conname  = '%s'
	) THEN
		ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
	END IF;
END $$;`, c.table, c.name, c.table, c.name, c.expr)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed on %s: %w", c.name, err)
			}
		}

		return nil
	})
}
