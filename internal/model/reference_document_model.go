package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ReferenceDocument is one document of the screening corpus (job description,
// hiring policy). The table is rebuilt at startup and read-only afterwards.
type ReferenceDocument struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title     string          `json:"title"`
	Content   string          `gorm:"type:text" json:"content"`
	Embedding pgvector.Vector `gorm:"type:vector(3072)" json:"embedding"`
	CreatedAt time.Time       `json:"created_at"`
}

func (d *ReferenceDocument) TableName() string {
	return "reference_documents"
}
