package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base holds the fields shared by every stored document. UpdatedAt doubles as
// the sync watermark and the optimistic-concurrency token, so it is always
// rewritten by the server, never taken verbatim from a client.
type Base struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a server-side id unless one was provided (idempotent
// replay of a previously-accepted create keeps its id).
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
