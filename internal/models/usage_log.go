package models

import "time"

// UsageLog records the tokens a model-backed evaluation consumed.
type UsageLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	RunID      uint      `gorm:"index" json:"run_id"`
	Model      string    `gorm:"size:96;not null" json:"model"`
	TokensUsed int       `gorm:"not null" json:"tokens_used"`
	CreatedAt  time.Time `json:"created_at"`
}
