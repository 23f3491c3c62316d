package models

import (
	"time"

	"gorm.io/datatypes"
)

// Evaluation sources persisted on a run.
const (
	EvaluationSourceLocal = "local"
	EvaluationSourceModel = "model"
)

// EvaluationRun stores one evaluated prompt together with its evaluation blob.
type EvaluationRun struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	PublicID           string         `gorm:"size:36;uniqueIndex;not null" json:"public_id"`
	UserID             *uint          `gorm:"index" json:"user_id,omitempty"`
	Title              string         `gorm:"size:160" json:"title"`
	Prompt             string         `gorm:"type:text;not null" json:"prompt"`
	UserIntent         string         `gorm:"type:text" json:"user_intent"`
	PreviousIterations int            `gorm:"not null;default:0" json:"previous_iterations"`
	Model              string         `gorm:"size:96" json:"model"`
	Source             string         `gorm:"size:16;not null" json:"source"`
	FallbackReason     string         `gorm:"size:32" json:"fallback_reason"`
	Stage              string         `gorm:"size:24;index" json:"stage"`
	OverallScore       int            `gorm:"not null" json:"overall_score"`
	Evaluation         datatypes.JSON `gorm:"not null" json:"evaluation"`
	CreatedAt          time.Time      `json:"created_at"`
}
