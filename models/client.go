package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Client struct {
	ID          string    `json:"id" gorm:"primaryKey" validate:"required"`
	CompanyName string    `json:"company_name" gorm:"not null;index" validate:"required"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email" gorm:"index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return
}

func (c Client) Key() string { return c.ID }
