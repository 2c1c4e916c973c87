package repository

import (
	"github.com/hirestack/resume-screener/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ReferenceDocumentRepository struct {
	db *gorm.DB
}

func NewReferenceDocumentRepository(db *gorm.DB) *ReferenceDocumentRepository {
	return &ReferenceDocumentRepository{db}
}

// ReplaceAll swaps the whole corpus in one transaction. The index is
// rebuilt from disk at startup, so stale rows must not survive.
func (r *ReferenceDocumentRepository) ReplaceAll(docs []model.ReferenceDocument) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.ReferenceDocument{}).Error; err != nil {
			return err
		}
		for i := range docs {
			if err := tx.Create(&docs[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SearchDocuments runs exact nearest-neighbor search over L2 distance
// using the pgvector <-> operator.
func (r *ReferenceDocumentRepository) SearchDocuments(embedding pgvector.Vector, topK int) ([]model.ReferenceDocument, error) {
	var docs []model.ReferenceDocument

	err := r.db.Raw(`
        SELECT *, embedding <-> ? AS distance
        FROM reference_documents
        ORDER BY embedding <-> ?
        LIMIT ?
    `, embedding, embedding, topK).Scan(&docs).Error

	return docs, err
}

func (r *ReferenceDocumentRepository) GetDocuments() ([]model.ReferenceDocument, error) {
	var docs []model.ReferenceDocument
	err := r.db.Find(&docs).Error
	return docs, err
}
