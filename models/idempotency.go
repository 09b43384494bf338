package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdempotencyKey stores the first successful response for a given request hash.
type IdempotencyKey struct {
	ID             string     `json:"id" gorm:"primaryKey" validate:"required"`
	Key            string     `json:"key" gorm:"size:128;uniqueIndex" validate:"required"` // header value
	RequestHash    string     `json:"request_hash" gorm:"size:64"`                         // sha256 of method|path|body
	Method         string     `json:"method" gorm:"size:10"`
	Path           string     `json:"path" gorm:"size:255"`
	ResponseStatus int        `json:"response_status"`     // 0 => not completed yet
	ResponseBody   []byte     `json:"-" gorm:"type:bytea"` // raw response body (JSON)
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

func (k *IdempotencyKey) BeforeCreate(tx *gorm.DB) (err error) {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return
}
