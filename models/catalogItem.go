package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogItem is a reusable billable entry. Its name and price are copied into
// documents, never referenced.
type CatalogItem struct {
	ID        string          `json:"id" gorm:"primaryKey" validate:"required"`
	Name      string          `json:"name" gorm:"not null;index" validate:"required"`
	Type      string          `json:"type"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt time.Time       `json:"created_at" gorm:"index"`
}

func (item *CatalogItem) BeforeCreate(tx *gorm.DB) (err error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	return
}

func (item CatalogItem) Key() string { return item.ID }
